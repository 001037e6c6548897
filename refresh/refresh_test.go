package refresh

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenchat/avatar-cache/lookup"
)

// applied records the write-backs a scheduler performed.
type applied struct {
	mu   sync.Mutex
	urls map[string]string
}

func newApplied() *applied {
	return &applied{urls: make(map[string]string)}
}

func (a *applied) apply(userID, avatarURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls[userID] = avatarURL
}

func (a *applied) get(userID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.urls[userID]
	return v, ok
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	s := NewScheduler(cfg)
	t.Cleanup(s.Close)
	return s
}

func TestEnqueueDeduplicates(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, Config{})

	s.Enqueue("u1")
	s.Enqueue("u1")
	s.Enqueue("u2")

	assert.Equal(t, 2, s.Len())
}

func TestEnqueueRespectsGate(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, Config{Disabled: true})

	require.False(t, s.Enabled())
	s.Enqueue("u1")
	assert.Zero(t, s.Len())

	s.SetEnabled(true)
	s.Enqueue("u1")
	assert.Equal(t, 1, s.Len())
}

func TestEnqueueSkipsUsersWithoutEntries(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, Config{
		Exists: func(userID string) bool { return userID == "cached" },
	})

	s.Enqueue("cached")
	s.Enqueue("uncached")

	assert.Equal(t, 1, s.Len())
}

func TestDisableKeepsQueuedIDs(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, Config{})

	s.Enqueue("u1")
	s.SetEnabled(false)

	assert.Equal(t, 1, s.Len(), "disabling the gate is not retroactive")
}

func TestDiscardAndReset(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, Config{})

	s.Enqueue("u1")
	s.Enqueue("u2")

	s.Discard("u1")
	s.Discard("ghost") // safe no-op
	assert.Equal(t, 1, s.Len())

	s.Reset()
	assert.Zero(t, s.Len())
}

func TestDrainAppliesSuccessfulFetches(t *testing.T) {
	t.Parallel()
	sink := newApplied()
	s := newTestScheduler(t, Config{
		Lookup: lookup.Func(func(ctx context.Context, userID string) (string, error) {
			return "https://cdn.example/" + userID + ".jpg", nil
		}),
		Apply: sink.apply,
	})

	s.Enqueue("u1")
	s.Enqueue("u2")

	s.Drain(context.Background())

	v, ok := sink.get("u1")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/u1.jpg", v)
	_, ok = sink.get("u2")
	assert.True(t, ok)
	assert.Zero(t, s.Len(), "completed ids leave the pending set")
}

func TestDrainFailureRemovesPendingWithoutApplying(t *testing.T) {
	t.Parallel()
	sink := newApplied()
	s := newTestScheduler(t, Config{
		Lookup: lookup.Func(func(ctx context.Context, userID string) (string, error) {
			return "", errors.New("profile service down")
		}),
		Apply: sink.apply,
	})

	s.Enqueue("u1")
	s.Drain(context.Background())

	_, ok := sink.get("u1")
	assert.False(t, ok, "failed fetches must not write anything back")
	assert.Zero(t, s.Len(), "a failed id leaves the queue so demand can re-enqueue it")

	// And demand can indeed re-enqueue.
	s.Enqueue("u1")
	assert.Equal(t, 1, s.Len())
}

func TestInFlightIDStaysDeduplicated(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fetching := make(chan struct{})
	var once sync.Once

	sink := newApplied()
	s := newTestScheduler(t, Config{
		Lookup: lookup.Func(func(ctx context.Context, userID string) (string, error) {
			once.Do(func() { close(fetching) })
			<-release
			return "https://cdn.example/fresh.jpg", nil
		}),
		Apply: sink.apply,
	})

	s.Enqueue("u1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Drain(context.Background())
	}()

	// While the fetch is in flight the id is still pending, so
	// re-enqueueing it is a no-op.
	<-fetching
	s.Enqueue("u1")
	assert.Equal(t, 1, s.Len())

	close(release)
	<-done
	assert.Zero(t, s.Len())
}

func TestDrainWithoutLookupIsNoop(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, Config{})

	s.Enqueue("u1")
	s.Drain(context.Background())

	assert.Equal(t, 1, s.Len(), "nothing to fetch with, nothing drained")
}

func TestIntervalWorkerDrains(t *testing.T) {
	t.Parallel()
	sink := newApplied()
	s := newTestScheduler(t, Config{
		Lookup: lookup.Func(func(ctx context.Context, userID string) (string, error) {
			return "https://cdn.example/fresh.jpg", nil
		}),
		Apply:    sink.apply,
		Interval: 10 * time.Millisecond,
	})
	s.Start()

	s.Enqueue("u1")

	assert.Eventually(t, func() bool {
		_, ok := sink.get("u1")
		return ok && s.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	s := NewScheduler(Config{
		Lookup: lookup.Func(func(ctx context.Context, userID string) (string, error) {
			return "", nil
		}),
		Apply:    func(string, string) {},
		Logger:   quietLogger(),
		Interval: time.Millisecond,
	})
	s.Start()

	s.Close()
	s.Close()
}
