package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when the cache returns a fresh value.
	Hit()

	// StaleHit is called when the cache returns a value that is past its TTL
	// (or explicitly invalidated) and a background refresh gets scheduled.
	StaleHit()

	// Miss is called when the cache has no entry at all for the requested user.
	Miss()

	// Eviction is called when an entry is removed because the cache is full and needs space.
	Eviction()

	// Refresh is called when a background refresh completes and writes a fresh value.
	Refresh()

	// RefreshError is called when a background refresh fails and the stale value is kept.
	RefreshError()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Why do we need this?
--------------------
We don't want to force every user of the cache
to implement metrics.

If someone does not care about metrics,
we still want the cache to work without:
- nil pointer checks everywhere
- if metrics != nil conditions

So we provide a default implementation
that simply ignores all metric events.
*/
type NoopMetrics struct{}

// All methods below intentionally do nothing.
// This satisfies the Metrics interface without side effects.

func (NoopMetrics) Hit()          {}
func (NoopMetrics) StaleHit()     {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Eviction()     {}
func (NoopMetrics) Refresh()      {}
func (NoopMetrics) RefreshError() {}
