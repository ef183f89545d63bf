package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/IvanBrykalov/workerkit/internal/util"
)

var (
	// ErrKeyTooLarge is returned by MemoryCache.Read for keys longer than
	// MaxKeySize bytes.
	ErrKeyTooLarge = errors.New("cache: key too large")
	// ErrInvalidExpiration is returned when a fallback reports a NaN
	// expiration time.
	ErrInvalidExpiration = errors.New("cache: expiration time must not be NaN")
	// ErrNotSerializable is returned when a value cannot be encoded by the
	// cache's Codec.
	ErrNotSerializable = errors.New("cache: value is not serializable")
)

// MaxKeySize is the longest key MemoryCache accepts, in bytes.
const MaxKeySize = 2 * 1024

// SharedCache is a bounded in-memory cache shared by any number of users
// (see Use). It is bounded by key count, per-value size and total value
// size; the bounds are the coordinate-wise maximum of what its current
// users suggest.
//
// All methods are safe for concurrent use. Every table operation holds one
// mutex for a short, bounded critical section; fallbacks run outside it.
type SharedCache struct {
	id       string
	provider *Provider
	opt      Options

	// refs counts live Uses. It only matters for caches owned by a
	// Provider, which forgets the cache when refs drops to zero.
	refs atomic.Int64

	// ---- guarded by mu ----
	mu   sync.Mutex
	data tableData

	// ---- hot counters, bumped without mu ----
	counters util.Counters
}

// New returns a standalone cache with a random id. It holds nothing until
// a Use suggests non-zero limits.
func New(opt Options) *SharedCache {
	return newSharedCache(nil, uuid.NewString(), opt)
}

func newSharedCache(p *Provider, id string, opt Options) *SharedCache {
	return &SharedCache{
		id:       id,
		provider: p,
		opt:      opt.withDefaults(),
		data:     newTableData(),
	}
}

// ID returns the cache id.
func (c *SharedCache) ID() string { return c.id }

// Stats is a point-in-time snapshot of a cache.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	Entries        int
	TotalValueSize uint64
	Limits         Limits
	InFlight       int
}

// Stats returns current counters and occupancy.
func (c *SharedCache) Stats() Stats {
	c.mu.Lock()
	s := Stats{
		Entries:        len(c.data.m),
		TotalValueSize: c.data.totalValueSize,
		Limits:         c.data.effective,
		InFlight:       len(c.data.inProgress),
	}
	c.mu.Unlock()
	s.Hits = c.counters.Hits.Load()
	s.Misses = c.counters.Misses.Load()
	s.Evictions = c.counters.Evicts.Load()
	return s
}

// Len returns the number of resident entries.
func (c *SharedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data.m)
}

// Limits returns the effective limits.
func (c *SharedCache) Limits() Limits {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.effective
}

// suggest adds l to the suggested limits. The limits are only recomputed
// when l was not already suggested by someone else.
func (c *SharedCache) suggest(l Limits) {
	c.mu.Lock()
	defer c.mu.Unlock()
	known := c.data.suggested[l] > 0
	c.data.suggested[l]++
	if !known {
		c.resizeLocked()
	}
}

// unsuggest removes one occurrence of l and recomputes the limits,
// evicting if they shrank.
func (c *SharedCache) unsuggest(l Limits) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.data.suggested[l]
	if !ok {
		panic("cache: unsuggest of limits that were never suggested")
	}
	if n == 1 {
		delete(c.data.suggested, l)
	} else {
		c.data.suggested[l] = n - 1
	}
	c.resizeLocked()
}

// lockForRead takes the lock on behalf of a read and reports the wait.
func (c *SharedCache) lockForRead() {
	start := time.Now()
	c.mu.Lock()
	c.opt.Metrics.LockWait(time.Since(start))
}

func (c *SharedCache) get(ctx context.Context, key string) (*Value, bool) {
	c.lockForRead()
	v, ok := c.getLocked(ctx, key)
	c.mu.Unlock()
	c.recordLookup(ok)
	return v, ok
}

func (c *SharedCache) recordLookup(hit bool) {
	if hit {
		c.counters.Hits.Inc()
		c.opt.Metrics.Hit()
	} else {
		c.counters.Misses.Inc()
		c.opt.Metrics.Miss()
	}
}

// release drops one reference. The last one detaches the cache from its
// provider.
func (c *SharedCache) release() {
	if c.refs.Add(-1) == 0 && c.provider != nil {
		c.provider.removeInstance(c)
	}
}

// tryAcquire takes a reference unless the count already dropped to zero.
func (c *SharedCache) tryAcquire() bool {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}
