// This package implements the background refresh side of the cache.
// The goal of refresh is: "Keep data fresh without slowing down reads"
//
// Reads that hit a stale entry enqueue the user id here and return the
// stale value immediately. The scheduler later fetches the authoritative
// value from the profile service and feeds it back through the cache's
// normal write path.

package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/lumenchat/avatar-cache/types"
)

/*
Scheduler is a deduplicating work queue of user ids awaiting refresh.

The pending set, not a list, is the core data structure: enqueuing an id
that is already pending is a no-op, so there is at most one queued
refresh intent per user at any time. An id stays in the set for the
whole duration of its fetch and is removed on completion, which makes
the dedup guarantee cover in-flight work too.

Failures are logged and swallowed. The cache entry is left exactly as it
was (stale but present); the id leaves the pending set so the next stale
read can re-enqueue it. That implicit retry-on-demand is the only retry
loop this subsystem has.
*/
type Scheduler struct {
	// lookup is the external profile service. Nil disables draining:
	// ids still queue and dedup, but there is nothing to fetch with.
	lookup types.Lookup

	// apply feeds a successful fetch back into the cache's write path.
	// It is always invoked without any scheduler lock held.
	apply func(userID, avatarURL string)

	// exists reports whether the cache currently holds an entry for the
	// id. A user with no entry has nothing to refresh, so Enqueue skips
	// it. Called before the scheduler's own lock is taken, so the cache
	// side may take its lock inside.
	exists func(userID string) bool

	metrics types.Metrics
	log     *logrus.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	enabled bool

	// sf collapses concurrent fetches of the same user id. Two drain
	// cycles can overlap when one runs long; without this both would
	// hit the profile service for the same id.
	sf singleflight.Group

	interval  time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Config wires a Scheduler to its collaborators.
type Config struct {
	Lookup  types.Lookup
	Apply   func(userID, avatarURL string)
	Exists  func(userID string) bool
	Metrics types.Metrics
	Logger  *logrus.Logger

	// Interval is how often the background worker drains the queue.
	// Zero means no worker: the queue drains only via explicit Drain calls.
	Interval time.Duration

	// Disabled starts the scheduler with enqueueing switched off.
	Disabled bool
}

func NewScheduler(cfg Config) *Scheduler {
	m := cfg.Metrics
	if m == nil {
		m = types.NoopMetrics{}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		lookup:   cfg.Lookup,
		apply:    cfg.Apply,
		exists:   cfg.Exists,
		metrics:  m,
		log:      log,
		pending:  make(map[string]struct{}),
		enabled:  !cfg.Disabled,
		interval: cfg.Interval,
		done:     make(chan struct{}),
	}
}

// Start launches the interval worker. It is a no-op when no interval or
// no lookup is configured.
func (s *Scheduler) Start() {
	if s.interval <= 0 || s.lookup == nil {
		return
	}
	s.wg.Add(1)
	go s.worker()
	s.log.WithField("interval", s.interval).Debug("avatar refresh worker started")
}

// Enqueue adds a user id to the pending set.
//
// It is a no-op when:
// - background refresh is disabled
// - the id is already pending (queued or in flight)
// - the cache has no entry for the id (nothing to refresh)
func (s *Scheduler) Enqueue(userID string) {
	if s.exists != nil && !s.exists(userID) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	s.pending[userID] = struct{}{}
}

// Discard drops a pending refresh intent, used when the entry it would
// refresh is removed. An id already in flight is not cancelled; its
// result is applied through the normal write path when it lands.
func (s *Scheduler) Discard(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}

// Reset empties the pending set. Used by cache clears.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]struct{})
}

// Len returns the current pending-set size.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// SetEnabled flips the background-refresh gate. Turning it off affects
// subsequent Enqueue calls only; already-queued ids stay queued.
func (s *Scheduler) SetEnabled(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = v
}

// Enabled reports the current gate state.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

/*
Drain refreshes every currently pending id and waits for the batch.

The pending set is snapshotted under the lock, then every lookup runs in
its own goroutine OUTSIDE the lock: fetches are independent across user
ids and must not stall cache operations. Each result is applied through
the cache's write path, which takes the cache lock per id.
*/
func (s *Scheduler) Drain(ctx context.Context) {
	if s.lookup == nil {
		return
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.refresh(ctx, id)
		}(id)
	}
	wg.Wait()
}

// refresh fetches one user and settles its pending intent. Success and
// failure both remove the id from the pending set, so a failed fetch
// never leaves a user permanently unrefreshable.
func (s *Scheduler) refresh(ctx context.Context, userID string) {
	v, err, _ := s.sf.Do(userID, func() (any, error) {
		return s.lookup.Fetch(ctx, userID)
	})

	if err != nil {
		// Stale data retained, never a crash. The next read of the
		// stale entry re-enqueues the id, bounding retries to demand.
		s.metrics.RefreshError()
		s.log.WithField("user_id", userID).WithError(err).
			Warn("avatar refresh failed, keeping stale entry")
		s.Discard(userID)
		return
	}

	s.apply(userID, v.(string))
	s.metrics.Refresh()
	s.Discard(userID)
}

// worker drains the queue on a fixed interval until Close.
func (s *Scheduler) worker() {
	defer s.wg.Done()

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.Drain(context.Background())
		case <-s.done:
			return
		}
	}
}

// Close stops the interval worker and waits for it. Pending ids are left
// in place; a scheduler is closed only when its cache is torn down.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}
