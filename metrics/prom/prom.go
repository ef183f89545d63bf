// Package prom exports cache signals as Prometheus metrics.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/workerkit/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evicts    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	sizeEnt   prometheus.Gauge
	sizeBytes prometheus.Gauge
	lockWait  prometheus.Histogram
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "fallbacks_total",
				Help:        "Fallback outcomes: succeeded, failed, or coalesced behind another caller",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
		sizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_bytes",
			Help:        "Total size of resident values",
			ConstLabels: constLabels,
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "lock_wait_seconds",
			Help:        "Time reads spent waiting for the table lock",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.fallbacks, a.sizeEnt, a.sizeBytes, a.lockWait)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates gauges for the number of entries and total value size.
func (a *Adapter) Size(entries int, bytes uint64) {
	a.sizeEnt.Set(float64(entries))
	a.sizeBytes.Set(float64(bytes))
}

// Fallback counts a fallback outcome.
func (a *Adapter) Fallback(r cache.FallbackResult) {
	a.fallbacks.WithLabelValues(r.String()).Inc()
}

// LockWait observes the time a read waited for the table lock.
func (a *Adapter) LockWait(d time.Duration) { a.lockWait.Observe(d.Seconds()) }

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
