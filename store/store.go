package store

import (
	"time"

	"github.com/lumenchat/avatar-cache/types"
)

/*
This file defines how avatar data is actually stored.

The store is a plain user id → entry mapping with access bookkeeping.
It is deliberately NOT synchronized:

- The cache façade serializes every operation through one mutex
- The store is small (bounded at the cache capacity) and every
  operation is O(capacity) at worst
- Coarse locking at the façade keeps eviction, statistics scans and
  snapshots consistent without per-entry locks

The store is never handed out by reference. External readers only ever
see defensive copies (Snapshot) or scalar values.
*/

// Store owns the mapping from user id to cache entry. Callers must
// serialize access; the façade's lock is the single exclusion point.
type Store struct {
	entries map[string]*types.CacheEntry
}

func New() *Store {
	return &Store{entries: make(map[string]*types.CacheEntry)}
}

// Get retrieves an entry and applies read bookkeeping: AccessCount is
// incremented and LastAccessed moves to now. Stale entries are returned
// like any other; staleness is the caller's concern.
func (s *Store) Get(userID string, now time.Time) (*types.CacheEntry, bool) {
	ent, ok := s.entries[userID]
	if !ok {
		return nil, false
	}
	ent.AccessCount++
	ent.LastAccessed = now
	return ent, true
}

// Put inserts or overwrites the entry for userID with an authoritative
// value. The write resets AccessCount and clears any stale mark: a fresh
// write makes the entry fresh no matter how it got stale.
func (s *Store) Put(userID, avatarURL string, now time.Time) {
	s.entries[userID] = &types.CacheEntry{
		UserID:       userID,
		AvatarURL:    avatarURL,
		LastUpdated:  now,
		LastAccessed: now,
	}
}

// Invalidate marks the entry stale without touching its value, so reads
// keep serving the old avatar while a refresh is pending. Returns false
// if the user has no entry (a safe no-op).
func (s *Store) Invalidate(userID string) bool {
	ent, ok := s.entries[userID]
	if !ok {
		return false
	}
	ent.Invalidated = true
	return true
}

// Remove deletes the entry entirely. Returns whether an entry existed.
func (s *Store) Remove(userID string) bool {
	if _, ok := s.entries[userID]; !ok {
		return false
	}
	delete(s.entries, userID)
	return true
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.entries = make(map[string]*types.CacheEntry)
}

// Contains reports entry existence without read bookkeeping.
// Used by the refresh scheduler: a queued refresh for a user that no
// longer has an entry has nothing to refresh.
func (s *Store) Contains(userID string) bool {
	_, ok := s.entries[userID]
	return ok
}

// Len returns how many entries are stored.
func (s *Store) Len() int {
	return len(s.entries)
}

// Snapshot returns a defensive copy of the current user id → value
// contents. It backs both the change-notifier payloads and debugging.
func (s *Store) Snapshot() map[string]string {
	snap := make(map[string]string, len(s.entries))
	for id, ent := range s.entries {
		snap[id] = ent.AvatarURL
	}
	return snap
}

// Range calls fn for every entry. Statistics scans use this; fn must not
// mutate the map.
func (s *Store) Range(fn func(*types.CacheEntry)) {
	for _, ent := range s.entries {
		fn(ent)
	}
}
