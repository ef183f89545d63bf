// Package util holds low-level helpers shared by the cache packages.
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is the assumed CPU cache line size.
const CacheLineSize = 64

// Counter is a monotonic event counter that fills a whole cache line, so
// readers bumping hits never contend with writers bumping evictions.
type Counter struct {
	n atomic.Uint64
	_ [CacheLineSize - 8]byte
}

// Inc records one event.
func (c *Counter) Inc() { c.n.Add(1) }

// Load returns the number of events recorded so far.
func (c *Counter) Load() uint64 { return c.n.Load() }

// Counters groups the per-cache event counters. The leading pad keeps the
// first counter off the line holding the table mutex.
type Counters struct {
	_      [CacheLineSize]byte
	Hits   Counter
	Misses Counter
	Evicts Counter
}

var _ [CacheLineSize - int(unsafe.Sizeof(Counter{}))]byte
