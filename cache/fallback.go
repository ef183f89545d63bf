package cache

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/IvanBrykalov/workerkit/internal/future"
)

// inProgress coalesces concurrent misses for one key behind a single
// fallback. It lives in tableData.inProgress from the first miss until the
// fallback succeeds, or fails with nobody left waiting.
type inProgress struct {
	key     string
	waiting []*future.Fulfiller[Outcome] // FIFO; guarded by SharedCache.mu
}

// Outcome is what a Pending resolves to: either the value produced by
// another caller's fallback, or the obligation to run one.
type Outcome struct {
	Value    *Value
	Fallback *FallbackCallback
}

// Pending is the not-yet-known result of GetWithFallback.
type Pending struct {
	f *future.Future[Outcome]
}

// Wait blocks until the outcome is known or ctx is done. If ctx ends first,
// the caller leaves the queue; a fallback obligation that reaches it later
// is handed on to the next waiter.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	return p.f.Wait(ctx)
}

// Done is closed once the outcome is known.
func (p *Pending) Done() <-chan struct{} { return p.f.Done() }

// Abandon gives up on the outcome without waiting. An undelivered or
// unread fallback obligation is treated as a failed fallback.
func (p *Pending) Abandon() { p.f.Abandon() }

// dropOutcome runs, outside the cache lock, for outcomes no caller will
// ever see.
func dropOutcome(o Outcome) {
	if o.Fallback != nil {
		o.Fallback.Fail()
	}
}

// FallbackCallback is the obligation to produce the value for a key. The
// holder must call Complete or Fail exactly once; later calls are no-ops.
// A callback that becomes unreachable without being settled is treated as
// failed.
type FallbackCallback struct {
	cache   *SharedCache
	ip      *inProgress
	settled *atomic.Bool
	cleanup runtime.Cleanup
}

type fallbackGuard struct {
	cache   *SharedCache
	ip      *inProgress
	settled *atomic.Bool
}

func (c *SharedCache) newFallbackCallback(ip *inProgress) *FallbackCallback {
	cb := &FallbackCallback{cache: c, ip: ip, settled: new(atomic.Bool)}
	cb.cleanup = runtime.AddCleanup(cb, func(g fallbackGuard) {
		if g.settled.CompareAndSwap(false, true) {
			g.cache.fallbackFailed(g.ip)
		}
	}, fallbackGuard{cache: c, ip: ip, settled: cb.settled})
	return cb
}

// Key returns the key the fallback must produce a value for.
func (cb *FallbackCallback) Key() string { return cb.ip.key }

func (cb *FallbackCallback) settle() bool {
	if !cb.settled.CompareAndSwap(false, true) {
		return false
	}
	cb.cleanup.Stop()
	return true
}

// Complete stores v (subject to the cache limits) and delivers it to every
// caller waiting on the key, even if exp has already passed. A NaN
// expiration fails the fallback instead and returns ErrInvalidExpiration.
func (cb *FallbackCallback) Complete(ctx context.Context, v *Value, exp Expiration) error {
	if exp.isNaN() {
		cb.Fail()
		return ErrInvalidExpiration
	}
	if cb.settle() {
		cb.cache.fallbackSucceeded(ctx, cb.ip, v, exp)
	}
	return nil
}

// Fail reports that the fallback produced nothing. The obligation passes
// to the longest-waiting caller, if any.
func (cb *FallbackCallback) Fail() {
	if cb.settle() {
		cb.cache.fallbackFailed(cb.ip)
	}
}

func (c *SharedCache) getWithFallback(ctx context.Context, key string) (*Value, *Pending) {
	c.lockForRead()
	if v, ok := c.getLocked(ctx, key); ok {
		c.mu.Unlock()
		c.recordLookup(true)
		return v, nil
	}
	if ip, ok := c.data.inProgress[key]; ok {
		f, p := future.New(dropOutcome)
		ip.waiting = append(ip.waiting, p)
		c.mu.Unlock()
		c.recordLookup(false)
		c.opt.Metrics.Fallback(FallbackCoalesced)
		return nil, &Pending{f: f}
	}
	ip := &inProgress{key: key}
	c.data.inProgress[key] = ip
	c.mu.Unlock()
	c.recordLookup(false)
	return nil, &Pending{f: future.Ready(Outcome{Fallback: c.newFallbackCallback(ip)}, dropOutcome)}
}

// fallbackSucceeded stores the value and fans it out. Waiters are
// fulfilled only after the lock is released: fulfilling may run drop
// hooks that take the lock themselves.
func (c *SharedCache) fallbackSucceeded(ctx context.Context, ip *inProgress, v *Value, exp Expiration) {
	c.mu.Lock()
	c.putLocked(ctx, ip.key, v, exp)
	waiters := ip.waiting
	ip.waiting = nil
	c.eraseInProgressLocked(ip)
	c.mu.Unlock()

	c.opt.Metrics.Fallback(FallbackSucceeded)
	for _, w := range waiters {
		w.Fulfill(Outcome{Value: v})
	}
}

// fallbackFailed hands the obligation to the first waiter, or forgets the
// key if nobody is waiting.
func (c *SharedCache) fallbackFailed(ip *inProgress) {
	var next *future.Fulfiller[Outcome]
	c.mu.Lock()
	if len(ip.waiting) > 0 {
		next = ip.waiting[0]
		ip.waiting[0] = nil
		ip.waiting = ip.waiting[1:]
	} else {
		c.eraseInProgressLocked(ip)
	}
	c.mu.Unlock()

	c.opt.Metrics.Fallback(FallbackFailed)
	if next != nil {
		next.Fulfill(Outcome{Fallback: c.newFallbackCallback(ip)})
	}
}

func (c *SharedCache) eraseInProgressLocked(ip *inProgress) {
	if c.data.inProgress[ip.key] == ip {
		delete(c.data.inProgress, ip.key)
	}
}
