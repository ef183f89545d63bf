package cache

import "sync"

// Provider hands out SharedCache instances by id so that users naming the
// same id share one cache. It holds no reference of its own: a cache is
// forgotten as soon as its last Use is closed.
type Provider struct {
	opt Options

	mu     sync.Mutex
	caches map[string]*SharedCache
}

// NewProvider returns a Provider whose caches are built with opt.
func NewProvider(opt Options) *Provider {
	return &Provider{opt: opt.withDefaults(), caches: make(map[string]*SharedCache)}
}

// Use returns a new Use with limits l on the cache named id, creating the
// cache if needed. An empty id yields a fresh anonymous cache that is
// never shared.
func (p *Provider) Use(id string, l Limits) *Use {
	if id == "" {
		c := New(p.opt)
		c.refs.Add(1)
		return newUse(c, l)
	}
	return newUse(p.acquire(id), l)
}

// acquire returns the cache named id with one reference taken.
func (p *Provider) acquire(id string) *SharedCache {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.caches[id]; ok && c.tryAcquire() {
		return c
	}
	// Either unknown, or its last Use is closing right now and it is about
	// to remove itself; replace it.
	c := newSharedCache(p, id, p.opt)
	c.refs.Add(1)
	p.caches[id] = c
	return c
}

// removeInstance forgets c, unless id has since been taken over by a newer
// instance.
func (p *Provider) removeInstance(c *SharedCache) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.caches[c.id] == c {
		delete(p.caches, c.id)
	}
}

// Len returns the number of live named caches.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.caches)
}
