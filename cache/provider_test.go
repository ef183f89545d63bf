package cache

import (
	"context"
	"strconv"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestProvider_SharesByID(t *testing.T) {
	t.Parallel()

	p := NewProvider(Options{})
	a := p.Use("x", limits(4, 8, 64))
	b := p.Use("x", limits(8, 4, 64))
	c := p.Use("y", limits(4, 8, 64))
	t.Cleanup(func() { _ = a.Close(); _ = b.Close(); _ = c.Close() })

	if a.Cache() != b.Cache() {
		t.Fatal("same id must share one cache")
	}
	if a.Cache() == c.Cache() {
		t.Fatal("different ids must not share")
	}
	if got := p.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if got, want := a.Cache().Limits(), limits(8, 8, 64); got != want {
		t.Fatalf("Limits = %+v, want %+v", got, want)
	}

	mustPut(t, context.Background(), a, "k", "v", NoExpiration())
	wantHit(t, context.Background(), b, "k", "v")
	wantMiss(t, context.Background(), c, "k")
}

// The provider forgets a cache with its last Use; the id then starts over.
func TestProvider_ForgetsClosedCache(t *testing.T) {
	t.Parallel()

	p := NewProvider(Options{})
	a := p.Use("x", limits(4, 8, 64))
	first := a.Cache()
	mustPut(t, context.Background(), a, "k", "v", NoExpiration())
	_ = a.Close()

	if got := p.Len(); got != 0 {
		t.Fatalf("Len = %d after last close", got)
	}
	b := p.Use("x", limits(4, 8, 64))
	t.Cleanup(func() { _ = b.Close() })
	if b.Cache() == first {
		t.Fatal("closed cache was reused")
	}
	wantMiss(t, context.Background(), b, "k")
}

func TestProvider_AnonymousNotShared(t *testing.T) {
	t.Parallel()

	p := NewProvider(Options{})
	a := p.Use("", limits(4, 8, 64))
	b := p.Use("", limits(4, 8, 64))
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })

	if a.Cache() == b.Cache() || a.Cache().ID() == b.Cache().ID() {
		t.Fatal("anonymous caches must be distinct")
	}
	if got := p.Len(); got != 0 {
		t.Fatalf("anonymous caches registered, Len = %d", got)
	}
}

// Uses come and go concurrently on a few ids; every cache is forgotten in
// the end.
func TestProvider_ConcurrentUseClose(t *testing.T) {
	t.Parallel()

	p := NewProvider(Options{})
	var g errgroup.Group
	for i := range 64 {
		g.Go(func() error {
			id := "c" + strconv.Itoa(i%4)
			for range 100 {
				u := p.Use(id, limits(4, 8, 64))
				_ = u.Put(context.Background(), "k", val("v"), NoExpiration())
				u.GetWithoutFallback(context.Background(), "k")
				_ = u.Close()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := p.Len(); got != 0 {
		t.Fatalf("Len = %d after all uses closed", got)
	}
}
