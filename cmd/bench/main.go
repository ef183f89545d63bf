// Command bench runs a synthetic read-through workload against a shared
// memory cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/IvanBrykalov/workerkit/cache"
	pmet "github.com/IvanBrykalov/workerkit/metrics/prom"
)

var errOrigin = errors.New("origin failure")

func main() {
	// ---- Flags ----
	var (
		maxKeys  = flag.Uint("max_keys", 100_000, "cache limit: entries")
		maxValue = flag.Uint("max_value", 1<<10, "cache limit: bytes per value")
		maxTotal = flag.Uint64("max_total", 64<<20, "cache limit: total value bytes")
		users    = flag.Int("users", 4, "number of Uses sharing the cache; each suggests limits/users")
		ttl      = flag.Duration("ttl", 0, "entry TTL (0 = none)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keys      = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS     = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV     = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		originRPS = flag.Int("origin_rps", 0, "max fallback calls per second (0 = unlimited)")
		latency   = flag.Duration("origin_latency", time.Millisecond, "simulated fallback latency")
		failPct   = flag.Int("origin_fail", 0, "fallback failure percentage [0..100]")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "workerkit", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build the shared cache ----
	usersN := max(*users, 1)
	p := cache.NewProvider(cache.Options{Metrics: metrics})
	uses := make([]*cache.Use, usersN)
	for i := range uses {
		// Only the first user asks for the full limits; the rest ask for
		// less, so the effective limits are the first user's.
		div := uint64(i + 1)
		uses[i] = p.Use("bench", cache.Limits{
			MaxKeys:           uint32(uint64(*maxKeys) / div),
			MaxValueSize:      uint32(*maxValue),
			MaxTotalValueSize: *maxTotal / div,
		})
	}
	defer func() {
		for _, u := range uses {
			_ = u.Close()
		}
	}()

	var limiter *rate.Limiter
	if *originRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(*originRPS), *originRPS)
	}

	// ---- Snapshot flags for goroutines ----
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	failPctVal := *failPct
	latencyVal := *latency
	ttlVal := *ttl
	workersN := max(*workers, 1)

	var reads, hits, fallbacks, failures uint64
	fallback := func(ctx context.Context, key string) (any, cache.Expiration, error) {
		atomic.AddUint64(&fallbacks, 1)
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, cache.NoExpiration(), err
			}
		}
		time.Sleep(latencyVal)
		if failPctVal > 0 && rand.Intn(100) < failPctVal {
			return nil, cache.NoExpiration(), errOrigin
		}
		exp := cache.NoExpiration()
		if ttlVal > 0 {
			exp = cache.ExpireAt(time.Now().Add(ttlVal))
		}
		return "v:" + key, exp, nil
	}

	// ---- Load generation ----
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(w)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)
			mc := cache.NewMemoryCache(uses[w%usersN], nil)
			reqCtx := cache.WithRequestClock(gctx, systemClock{})

			for gctx.Err() == nil {
				k := "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
				before := atomic.LoadUint64(&fallbacks)
				atomic.AddUint64(&reads, 1)
				_, _, err := mc.Read(reqCtx, k, fallback)
				switch {
				case errors.Is(err, errOrigin):
					atomic.AddUint64(&failures, 1)
				case err != nil:
					// Deadline reached while waiting; the run is over.
				case atomic.LoadUint64(&fallbacks) == before:
					atomic.AddUint64(&hits, 1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	readsN := atomic.LoadUint64(&reads)
	hitsN := atomic.LoadUint64(&hits)
	s := uses[0].Cache().Stats()

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("limits=%+v users=%d workers=%d keys=%d dur=%v seed=%d\n",
		s.Limits, usersN, workersN, *keys, elapsed, seedBase)
	fmt.Printf("reads=%d (%.0f reads/s)  fallbacks=%d  failures=%d\n",
		readsN, float64(readsN)/elapsed.Seconds(), atomic.LoadUint64(&fallbacks), atomic.LoadUint64(&failures))
	fmt.Printf("approx hit-rate=%.2f%%  cache hits=%d misses=%d evictions=%d\n",
		hitRate, s.Hits, s.Misses, s.Evictions)
	fmt.Printf("entries=%d bytes=%d\n", s.Entries, s.TotalValueSize)
}

type systemClock struct{}

func (systemClock) NowUnixNano() int64 { return time.Now().UnixNano() }
