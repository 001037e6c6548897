package avatarcache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumenchat/avatar-cache/api"
	"github.com/lumenchat/avatar-cache/eviction"
	"github.com/lumenchat/avatar-cache/notify"
	"github.com/lumenchat/avatar-cache/refresh"
	"github.com/lumenchat/avatar-cache/store"
	"github.com/lumenchat/avatar-cache/types"
)

// Default tuning. Capacity bounds memory for the worst case (every
// visible conversation showing a distinct avatar); TTL trades staleness
// against profile-service load.
const (
	DefaultCapacity = 100
	DefaultTTL      = 5 * time.Minute
)

/*
Cache is the profile-picture cache: user id → avatar URL with bounded
memory, stale-while-refresh reads, and snapshot broadcasts on every
mutation.

This struct is the orchestrator that connects:
- the store (entries + bookkeeping)
- the eviction policy
- the refresh scheduler
- the change notifier

One mutex serializes every store mutation, eviction pass, statistics
scan and snapshot. The store is small and operations are O(capacity) at
worst, so coarse locking wins over per-entry locks. The only I/O in the
subsystem (profile lookups) runs in the scheduler, outside this lock.

Construct instances explicitly and share one at the composition root;
there is deliberately no package-level singleton, so tests build
isolated caches.
*/
type Cache struct {
	mu       sync.Mutex
	store    *store.Store
	policy   eviction.Policy
	sched    *refresh.Scheduler
	notifier *notify.Notifier

	capacity int
	ttl      time.Duration
	metrics  types.Metrics
	log      *logrus.Logger
}

var _ api.ProfileCache = (*Cache)(nil)

// Config carries the construction parameters of a Cache.
// The zero value is usable: defaults apply, refresh stays queue-only
// (no lookup to drain with), and metrics are discarded.
type Config struct {
	// Capacity is the maximum number of entries. Defaults to DefaultCapacity.
	Capacity int

	// TTL is how long an authoritative write stays fresh. Defaults to DefaultTTL.
	TTL time.Duration

	// Lookup is the external profile service used by background refresh.
	// Without it, stale ids still queue and dedup but nothing drains them.
	Lookup types.Lookup

	// RefreshInterval is the drain period of the background worker.
	// Zero means no worker; RefreshNow drains on demand.
	RefreshInterval time.Duration

	// DisableBackgroundRefresh starts the cache with the refresh gate
	// off. The default (enabled) matches typical production use.
	DisableBackgroundRefresh bool

	// Metrics receives cache lifecycle events. Nil discards them.
	Metrics types.Metrics

	// Logger for refresh failures and lifecycle messages.
	// Nil falls back to the logrus standard logger.
	Logger *logrus.Logger
}

// Stats is a point-in-time report over the whole cache, computed by
// scanning the store under the lock on every call.
type Stats = types.Stats

// New builds a Cache and starts its background refresh worker when a
// lookup and an interval are configured.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Metrics == nil {
		cfg.Metrics = types.NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	c := &Cache{
		store:    store.New(),
		policy:   eviction.NewLRU(),
		notifier: notify.New(),
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
	}

	// Refresh results re-enter through Update, the same authoritative
	// write path external callers use. The id is always the source of
	// truth there, so a result landing after the entry was cleared
	// simply recreates it.
	c.sched = refresh.NewScheduler(refresh.Config{
		Lookup:   cfg.Lookup,
		Apply:    c.Update,
		Exists:   c.contains,
		Metrics:  cfg.Metrics,
		Logger:   cfg.Logger,
		Interval: cfg.RefreshInterval,
		Disabled: cfg.DisableBackgroundRefresh,
	})
	c.sched.Start()

	return c
}

/*
Get returns the cached avatar URL for a user.

BEHAVIOR:
---------
1. No entry: return ("", false). Unknown users are a normal outcome,
   not an error.
2. Entry present: bump access bookkeeping and return the value even
   when it is stale — serve what we have, schedule a refresh behind
   the caller's back.

Get never blocks on a refresh and never performs I/O.
*/
func (c *Cache) Get(userID string) (string, bool) {
	c.mu.Lock()

	now := time.Now()
	ent, ok := c.store.Get(userID, now)
	if !ok {
		c.mu.Unlock()
		c.metrics.Miss()
		return "", false
	}

	c.policy.OnGet(userID)
	value := ent.AvatarURL
	stale := ent.Stale(c.ttl, now)
	c.mu.Unlock()

	if stale {
		c.metrics.StaleHit()
		// Subject to the scheduler's rules: gate on, entry still
		// present, not already pending.
		c.sched.Enqueue(userID)
	} else {
		c.metrics.Hit()
	}
	return value, true
}

/*
Update is the authoritative write path: callers that obtained a fresh
value (a network response, a user-initiated upload) and the refresh
scheduler both land here.

The write inserts or overwrites the entry as fresh, runs the eviction
pass if the store went over capacity, and broadcasts the new snapshot.
An empty url caches "known to have no avatar".
*/
func (c *Cache) Update(userID, avatarURL string) {
	c.mu.Lock()

	c.store.Put(userID, avatarURL, time.Now())
	c.policy.OnPut(userID)

	// Eviction runs inside the same critical section as the write, after
	// the write's own bookkeeping, so an id touched by this operation is
	// already marked recent before any victim is picked.
	var evicted []string
	for c.store.Len() > c.capacity {
		victim := c.policy.Evict()
		if victim == "" {
			break
		}
		c.store.Remove(victim)
		evicted = append(evicted, victim)
		c.metrics.Eviction()
	}

	c.publishLocked()
	c.mu.Unlock()

	// An evicted entry has nothing left to refresh.
	for _, id := range evicted {
		c.sched.Discard(id)
	}
}

/*
Invalidate marks a user's entry stale without removing it. Reads keep
returning the old value while the refresh scheduler (if enabled) fetches
a new one. Invalidating a user with no entry is a safe no-op: nothing is
created, nothing is queued, nothing is broadcast.
*/
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()

	if !c.store.Invalidate(userID) {
		c.mu.Unlock()
		return
	}

	c.publishLocked()
	c.mu.Unlock()

	c.sched.Enqueue(userID)
}

// Remove deletes a user's entry entirely and drops any pending refresh
// intent for it. Removing an absent user is a safe no-op.
func (c *Cache) Remove(userID string) {
	c.mu.Lock()

	if !c.store.Remove(userID) {
		c.mu.Unlock()
		return
	}
	c.policy.Remove(userID)

	c.publishLocked()
	c.mu.Unlock()

	c.sched.Discard(userID)
}

// Clear removes every entry, empties the refresh queue and broadcasts
// an empty snapshot.
func (c *Cache) Clear() {
	c.mu.Lock()

	c.store.Clear()
	c.policy = eviction.NewLRU()
	c.notifier.Publish(notify.Snapshot{})
	c.mu.Unlock()

	c.sched.Reset()
}

// Stats scans the store and reports totals. ExpiredEntries counts
// entries stale at this instant; TotalAccessCount sums reads across all
// resident entries.
func (c *Cache) Stats() Stats {
	c.mu.Lock()

	now := time.Now()
	st := Stats{TotalEntries: c.store.Len()}
	c.store.Range(func(ent *types.CacheEntry) {
		st.TotalAccessCount += ent.AccessCount
		if ent.Stale(c.ttl, now) {
			st.ExpiredEntries++
		}
	})
	c.mu.Unlock()

	st.RefreshQueueSize = c.sched.Len()
	st.BackgroundRefreshEnabled = c.sched.Enabled()
	return st
}

// Snapshot returns a defensive copy of the current user id → avatar URL
// contents, the same payload subscribers receive.
func (c *Cache) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// SetBackgroundRefresh toggles the refresh gate. Turning it off stops
// future enqueues; already-queued ids stay queued.
func (c *Cache) SetBackgroundRefresh(enabled bool) {
	c.sched.SetEnabled(enabled)
}

// Subscribe registers an observer of cache mutations. Every mutation
// delivers the full snapshot; there is no replay for late subscribers.
// The returned cancel function must be called when done.
func (c *Cache) Subscribe() (<-chan notify.Snapshot, func()) {
	return c.notifier.Subscribe()
}

// RefreshNow drains the refresh queue synchronously. Callers that
// cannot wait for the interval worker (and tests) use this.
func (c *Cache) RefreshNow(ctx context.Context) {
	c.sched.Drain(ctx)
}

// Close stops the background worker and terminates all subscriptions.
func (c *Cache) Close() {
	c.sched.Close()
	c.notifier.Close()
	c.log.Debug("avatar cache closed")
}

// publishLocked broadcasts the current snapshot. Caller holds c.mu;
// publishing under the lock keeps emissions ordered with mutations, and
// delivery is non-blocking so the hold stays short. The snapshot copy
// is skipped entirely when nobody subscribed.
func (c *Cache) publishLocked() {
	if c.notifier.Active() {
		c.notifier.Publish(c.store.Snapshot())
	}
}

// contains answers the scheduler's "is there anything to refresh" check
// without read bookkeeping.
func (c *Cache) contains(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Contains(userID)
}
