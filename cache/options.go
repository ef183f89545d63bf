package cache

import (
	"context"
	"time"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy: least recently used entry removed to make room.
	EvictPolicy EvictReason = iota
	// EvictTTL: expired entry removed on read or chosen first for eviction.
	EvictTTL
	// EvictCapacity: removed because the effective limits shrank below it.
	EvictCapacity
)

func (r EvictReason) String() string {
	switch r {
	case EvictPolicy:
		return "policy"
	case EvictTTL:
		return "ttl"
	case EvictCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// FallbackResult classifies what happened to one fallback obligation.
type FallbackResult int

const (
	// FallbackSucceeded: the fallback produced a value that was stored and
	// fanned out to every waiter.
	FallbackSucceeded FallbackResult = iota
	// FallbackFailed: the fallback failed or was abandoned; the obligation
	// moved to the next waiter, if any.
	FallbackFailed
	// FallbackCoalesced: a caller joined a fallback already in flight.
	FallbackCoalesced
)

func (r FallbackResult) String() string {
	switch r {
	case FallbackSucceeded:
		return "succeeded"
	case FallbackFailed:
		return "failed"
	case FallbackCoalesced:
		return "coalesced"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, bytes uint64)
	Fallback(result FallbackResult)
	// LockWait reports how long a read waited for the cache lock.
	LockWait(d time.Duration)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

type systemClock struct{}

func (systemClock) NowUnixNano() int64 { return time.Now().UnixNano() }

type requestClockKey struct{}

// WithRequestClock marks ctx as belonging to a request whose notion of
// "now" is clk. Expiration is only honoured on reads and writes made with
// such a context; outside a request, deadlines are checked only while
// limits are being renegotiated.
func WithRequestClock(ctx context.Context, clk Clock) context.Context {
	return context.WithValue(ctx, requestClockKey{}, clk)
}

func requestClock(ctx context.Context) (Clock, bool) {
	if ctx == nil {
		return nil, false
	}
	clk, ok := ctx.Value(requestClockKey{}).(Clock)
	return clk, ok && clk != nil
}

// Options configures a cache. Zero values are safe;
// defaults are applied in New() and NewProvider():
//   - nil Clock   => time.Now()
//   - nil Metrics => NoopMetrics
type Options struct {
	// Clock is the system clock, consulted only outside requests while the
	// effective limits are recomputed.
	Clock Clock

	// Metrics receives hit/miss/eviction/fallback signals.
	Metrics Metrics

	// ResizeHook may adjust the effective limits every time they are
	// recomputed, e.g. to apply a process-wide memory budget.
	ResizeHook func(Limits) Limits
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	return o
}

func unixMillis(clk Clock) float64 {
	return float64(clk.NowUnixNano()) / float64(time.Millisecond)
}
