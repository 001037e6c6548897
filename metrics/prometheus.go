// Package metrics provides a Prometheus implementation of the cache's
// Metrics interface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumenchat/avatar-cache/types"
)

// Prometheus counts cache lifecycle events as Prometheus counters.
type Prometheus struct {
	// Read path
	Hits      prometheus.Counter
	StaleHits prometheus.Counter
	Misses    prometheus.Counter

	// Capacity
	Evictions prometheus.Counter

	// Background refresh
	Refreshes     prometheus.Counter
	RefreshErrors prometheus.Counter
}

var _ types.Metrics = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus sink with the given namespace,
// registered on the default registry.
func NewPrometheus(namespace string) *Prometheus {
	return &Prometheus{
		Hits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Total number of reads served from a fresh entry",
		}),
		StaleHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_hits_total",
			Help:      "Total number of reads served from a stale entry while a refresh was scheduled",
		}),
		Misses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Total number of reads for users with no cached entry",
		}),
		Evictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of entries dropped by the LRU policy",
		}),
		Refreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Total number of background refreshes that wrote a fresh value",
		}),
		RefreshErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Total number of background refreshes that failed and kept the stale value",
		}),
	}
}

// RegisterEntryGauge exposes the current entry count as a gauge.
// fn is typically func() float64 { return float64(cache.Stats().TotalEntries) }.
func (p *Prometheus) RegisterEntryGauge(namespace string, fn func() float64) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "entries",
		Help:      "Current number of cached avatar entries",
	}, fn))
}

func (p *Prometheus) Hit()          { p.Hits.Inc() }
func (p *Prometheus) StaleHit()     { p.StaleHits.Inc() }
func (p *Prometheus) Miss()         { p.Misses.Inc() }
func (p *Prometheus) Eviction()     { p.Evictions.Inc() }
func (p *Prometheus) Refresh()      { p.Refreshes.Inc() }
func (p *Prometheus) RefreshError() { p.RefreshErrors.Inc() }
