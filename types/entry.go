package types

import "time"

// CacheEntry is intentionally mutable for bookkeeping fields.
// All mutation happens under the cache's single lock.
type CacheEntry struct {
	// UserID is the key this entry is stored under.
	UserID string

	// AvatarURL is the cached avatar location. An empty string is a real,
	// cacheable value meaning "this user is known to have no avatar".
	// "Unknown" is represented by the entry not existing at all.
	AvatarURL string

	// LastUpdated records when AvatarURL was last written from an
	// authoritative source (an external fetch or an explicit update).
	LastUpdated time.Time

	// LastAccessed is bumped on every successful read and drives LRU eviction.
	LastAccessed time.Time

	// AccessCount is incremented on every read. It feeds statistics only;
	// eviction never looks at it.
	AccessCount int64

	// Invalidated forces the entry stale regardless of age. It is set by
	// explicit invalidation and cleared by the next authoritative write.
	Invalidated bool
}

// Stale reports whether the entry is due for a background refresh: either it
// was explicitly invalidated, or its last authoritative write is older than
// the given TTL. Stale entries are still served on reads.
func (e *CacheEntry) Stale(ttl time.Duration, now time.Time) bool {
	return e.Invalidated || now.Sub(e.LastUpdated) >= ttl
}
