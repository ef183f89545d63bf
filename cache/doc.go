// Package cache provides a bounded in-memory cache of immutable byte values
// that many independent users can share, with coalesced fallbacks for
// missing keys.
//
// Design
//
//   - Sharing: a Provider hands out SharedCache instances by id. Each user
//     holds a Use carrying its own Limits; the cache enforces the
//     coordinate-wise maximum of the limits of its live users. Closing a
//     Use may shrink the cache and evict entries. The provider forgets a
//     cache once its last Use is closed.
//
//   - Storage: one mutex guards a map[string]*node, an intrusive
//     MRU↔LRU doubly linked list ordered by liveliness, and a min-heap of
//     entries that carry an expiration. All table operations are
//     O(log n) at worst.
//
//   - Eviction: when room is needed, an entry whose deadline has passed is
//     evicted first (earliest deadline wins); otherwise the least recently
//     used entry goes. Values larger than MaxValueSize are never stored.
//
//   - Time: inside a request, "now" comes from the request clock attached
//     with WithRequestClock. Without one, expiration is not honoured on
//     the request path; resizing always uses Options.Clock.
//
//   - Fallbacks: on a miss, GetWithFallback either makes the caller
//     responsible for producing the value (a FallbackCallback) or queues it
//     behind the fallback already running for that key. Success stores the
//     value and delivers it to every queued caller; failure passes the
//     obligation to the caller that has waited longest. At most one
//     fallback per key runs at any time, and no fallback runs under the
//     lock.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size/Fallback and
//     lock wait signals. NoopMetrics is the default; see metrics/prom for
//     a Prometheus adapter.
//
// Basic usage
//
//	p := cache.NewProvider(cache.Options{})
//	u := p.Use("sessions", cache.Limits{MaxKeys: 1000, MaxValueSize: 4 << 10, MaxTotalValueSize: 1 << 20})
//	defer u.Close()
//
//	mc := cache.NewMemoryCache(u, nil)
//	v, _, err := mc.Read(ctx, "user:42", func(ctx context.Context, key string) (any, cache.Expiration, error) {
//	    return loadUser(ctx, key), cache.ExpireAt(time.Now().Add(time.Minute)), nil
//	})
//
// Thread-safety
//
// All exported methods are safe for concurrent use.
package cache
