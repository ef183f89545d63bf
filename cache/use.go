package cache

import (
	"context"
	"sync/atomic"
)

// Use is one user's handle on a SharedCache. Creating it suggests the
// user's limits; Close withdraws them.
type Use struct {
	cache  *SharedCache
	limits Limits
	closed atomic.Bool
}

// NewUse registers a user with limits l on c.
func NewUse(c *SharedCache, l Limits) *Use {
	c.refs.Add(1)
	return newUse(c, l)
}

// newUse expects the caller to hold a reference on c already.
func newUse(c *SharedCache, l Limits) *Use {
	c.suggest(l)
	return &Use{cache: c, limits: l}
}

// Cache returns the shared cache behind u.
func (u *Use) Cache() *SharedCache { return u.cache }

// Limits returns the limits u suggested.
func (u *Use) Limits() Limits { return u.limits }

// Close withdraws u's limits, which may shrink the cache and evict
// entries. It is idempotent and always returns nil.
func (u *Use) Close() error {
	if !u.closed.CompareAndSwap(false, true) {
		return nil
	}
	u.cache.unsuggest(u.limits)
	u.cache.release()
	return nil
}

// GetWithoutFallback returns the value for key if it is present and has
// not expired. A hit makes the entry the most recently used.
func (u *Use) GetWithoutFallback(ctx context.Context, key string) (*Value, bool) {
	return u.cache.get(ctx, key)
}

// GetWithFallback returns the value for key if present. Otherwise it
// returns a Pending that resolves to either the value produced by a
// fallback already in flight, or a FallbackCallback obliging the caller to
// run its own fallback and report the result. At most one fallback per key
// is in flight at any time. Exactly one of the results is non-nil.
func (u *Use) GetWithFallback(ctx context.Context, key string) (*Value, *Pending) {
	return u.cache.getWithFallback(ctx, key)
}

// Put stores v under key outside of any fallback. Values too large for the
// cache are dropped together with any previous value for key.
func (u *Use) Put(ctx context.Context, key string, v *Value, exp Expiration) error {
	if exp.isNaN() {
		return ErrInvalidExpiration
	}
	c := u.cache
	c.mu.Lock()
	c.putLocked(ctx, key, v, exp)
	c.mu.Unlock()
	return nil
}
