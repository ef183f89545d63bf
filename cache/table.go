package cache

import (
	"container/heap"
	"context"
)

// tableData is everything guarded by SharedCache.mu: the entries, their
// liveliness list and expiration heap, the registry of fallbacks in
// flight and the multiset of suggested limits.
type tableData struct {
	m    map[string]*node
	head *node // largest liveliness (most recently used)
	tail *node // smallest liveliness (least recently used)

	expiring       expirationHeap
	totalValueSize uint64
	liveliness     uint64

	effective  Limits
	suggested  map[Limits]int
	inProgress map[string]*inProgress
}

func newTableData() tableData {
	return tableData{
		m:          make(map[string]*node),
		suggested:  make(map[Limits]int),
		inProgress: make(map[string]*inProgress),
	}
}

func (d *tableData) stepLiveliness() uint64 {
	d.liveliness++
	return d.liveliness
}

// insertFront links n at the head of the liveliness list in O(1).
func (d *tableData) insertFront(n *node) {
	n.prev = nil
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
}

// moveToFront promotes n to the head in O(1).
func (d *tableData) moveToFront(n *node) {
	if n == d.head {
		return
	}
	d.unlink(n)
	d.insertFront(n)
}

func (d *tableData) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if d.head == n {
		d.head = n.next
	}
	if d.tail == n {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// attach makes n resident: indexed by key, at the head of the list, in the
// expiration heap if it expires, and counted in totalValueSize.
func (d *tableData) attach(n *node) {
	d.m[n.key] = n
	d.insertFront(n)
	n.heapIdx = -1
	if n.exp.set {
		heap.Push(&d.expiring, n)
	}
	d.totalValueSize += n.size()
}

// detach undoes attach.
func (d *tableData) detach(n *node) {
	if d.totalValueSize < n.size() {
		panic("cache: total value size underflow")
	}
	d.unlink(n)
	if n.heapIdx >= 0 {
		heap.Remove(&d.expiring, n.heapIdx)
	}
	d.totalValueSize -= n.size()
	delete(d.m, n.key)
}

func (d *tableData) clear() int {
	n := len(d.m)
	clear(d.m)
	d.head, d.tail = nil, nil
	clear(d.expiring)
	d.expiring = d.expiring[:0]
	d.totalValueSize = 0
	return n
}

// -------------------- operations (mu held) --------------------

// nowLocked returns "now" in Unix milliseconds for expiration checks. The
// request clock carried by ctx wins; without one, the system clock is used
// only if allowOutsideRequest is set. ok is false when expiration must not
// be honoured at all.
func (c *SharedCache) nowLocked(ctx context.Context, allowOutsideRequest bool) (now float64, ok bool) {
	if clk, found := requestClock(ctx); found {
		return unixMillis(clk), true
	}
	if allowOutsideRequest {
		return unixMillis(c.opt.Clock), true
	}
	return 0, false
}

func (c *SharedCache) expiredLocked(ctx context.Context, e Expiration, allowOutsideRequest bool) bool {
	if !e.set {
		return false
	}
	now, ok := c.nowLocked(ctx, allowOutsideRequest)
	return ok && e.passed(now)
}

// getLocked returns the value for key, evicting it if it has expired, and
// bumps its liveliness on a hit.
func (c *SharedCache) getLocked(ctx context.Context, key string) (*Value, bool) {
	d := &c.data
	n, ok := d.m[key]
	if !ok {
		return nil, false
	}
	if c.expiredLocked(ctx, n.exp, false) {
		d.detach(n)
		c.evicted(EvictTTL)
		return nil, false
	}
	n.liveliness = d.stepLiveliness()
	d.moveToFront(n)
	return n.value, true
}

// putLocked stores v under key, evicting other entries as needed. A value
// larger than MaxValueSize, or one that has already expired, is not stored
// and also removes any previous entry for key so later reads cannot see a
// stale value.
func (c *SharedCache) putLocked(ctx context.Context, key string, v *Value, exp Expiration) {
	d := &c.data
	size := uint64(v.Size())
	if d.effective.MaxKeys == 0 || size > uint64(d.effective.MaxValueSize) || c.expiredLocked(ctx, exp, false) {
		c.removeIfExistsLocked(key)
		return
	}

	n, exists := d.m[key]
	if exists {
		// Detached first so the loop below can never pick it.
		d.detach(n)
	} else {
		if uint64(len(d.m)) >= uint64(d.effective.MaxKeys) {
			c.evictNextLocked(ctx, false)
		}
		n = &node{key: key}
	}
	for d.totalValueSize+size > d.effective.MaxTotalValueSize {
		c.evictNextLocked(ctx, false)
	}
	n.value = v
	n.exp = exp
	n.liveliness = d.stepLiveliness()
	d.attach(n)
	c.opt.Metrics.Size(len(d.m), d.totalValueSize)
}

// removeIfExistsLocked drops key. This is not counted as an eviction: it
// happens when a new value for key replaces the old one and is itself
// rejected.
func (c *SharedCache) removeIfExistsLocked(key string) {
	if n, ok := c.data.m[key]; ok {
		c.data.detach(n)
		c.opt.Metrics.Size(len(c.data.m), c.data.totalValueSize)
	}
}

// evictNextLocked removes one entry: the one with the earliest deadline if
// that deadline has passed, otherwise the least recently used one. The
// caller must ensure the table is not empty.
func (c *SharedCache) evictNextLocked(ctx context.Context, allowOutsideRequest bool) {
	d := &c.data
	if len(d.m) == 0 {
		panic("cache: evict from empty table")
	}
	if len(d.expiring) > 0 {
		if n := d.expiring[0]; c.expiredLocked(ctx, n.exp, allowOutsideRequest) {
			d.detach(n)
			c.evicted(EvictTTL)
			return
		}
	}
	d.detach(d.tail)
	c.evicted(EvictPolicy)
}

// resizeLocked recomputes the effective limits from the suggested ones and
// evicts until the table fits. It runs outside any request, so expired
// entries are recognised by the system clock.
func (c *SharedCache) resizeLocked() {
	d := &c.data
	eff := MinLimits()
	for l := range d.suggested {
		eff = maxLimits(eff, l.Normalize())
	}
	if c.opt.ResizeHook != nil {
		eff = c.opt.ResizeHook(eff).Normalize()
	}
	d.effective = eff

	if eff.MaxKeys == 0 {
		for range d.clear() {
			c.evicted(EvictCapacity)
		}
		c.opt.Metrics.Size(0, 0)
		return
	}

	for _, n := range d.m {
		if n.size() > uint64(eff.MaxValueSize) {
			d.detach(n)
			c.evicted(EvictCapacity)
		}
	}
	for d.totalValueSize > eff.MaxTotalValueSize || uint64(len(d.m)) > uint64(eff.MaxKeys) {
		c.evictNextLocked(context.Background(), true)
	}
	c.opt.Metrics.Size(len(d.m), d.totalValueSize)
}

func (c *SharedCache) evicted(reason EvictReason) {
	c.counters.Evicts.Inc()
	c.opt.Metrics.Evict(reason)
}
