package cache

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func newMemoryCache(t testing.TB) *MemoryCache {
	t.Helper()
	u := NewUse(New(Options{}), limits(128, 1<<10, 1<<16))
	t.Cleanup(func() { _ = u.Close() })
	return NewMemoryCache(u, nil)
}

func constFallback(v any) Fallback {
	return func(context.Context, string) (any, Expiration, error) {
		return v, NoExpiration(), nil
	}
}

func TestMemoryCache_ReadWithoutFallback(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	ctx := context.Background()

	v, ok, err := mc.Read(ctx, "k", nil)
	if err != nil || ok || v != nil {
		t.Fatalf("Read miss = (%v, %v, %v)", v, ok, err)
	}
	if _, _, err := mc.Read(ctx, "k", constFallback("hello")); err != nil {
		t.Fatalf("Read with fallback: %v", err)
	}
	v, ok, err = mc.Read(ctx, "k", nil)
	if err != nil || !ok || v != "hello" {
		t.Fatalf("Read hit = (%v, %v, %v)", v, ok, err)
	}
}

// Structured values survive the round trip; numbers come back as float64.
func TestMemoryCache_StructuredValue(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	ctx := context.Background()
	in := map[string]any{"name": "x", "n": 3, "tags": []any{"a", true, nil}}

	if _, _, err := mc.Read(ctx, "k", constFallback(in)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	v, ok, err := mc.Read(ctx, "k", nil)
	if err != nil || !ok {
		t.Fatalf("Read = (%v, %v)", ok, err)
	}
	m := v.(map[string]any)
	if m["name"] != "x" || m["n"] != float64(3) {
		t.Fatalf("decoded = %#v", m)
	}
	if tags := m["tags"].([]any); len(tags) != 3 || tags[1] != true || tags[2] != nil {
		t.Fatalf("tags = %#v", tags)
	}
}

func TestMemoryCache_KeyTooLarge(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	_, _, err := mc.Read(context.Background(), strings.Repeat("k", MaxKeySize+1), nil)
	if !errors.Is(err, ErrKeyTooLarge) {
		t.Fatalf("err = %v, want ErrKeyTooLarge", err)
	}
	if _, _, err := mc.Read(context.Background(), strings.Repeat("k", MaxKeySize), nil); err != nil {
		t.Fatalf("key of exactly MaxKeySize: %v", err)
	}
}

func TestMemoryCache_FallbackErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name    string
		fb      Fallback
		wantErr error
	}{
		{"error", func(context.Context, string) (any, Expiration, error) {
			return nil, NoExpiration(), boom
		}, boom},
		{"not serializable", constFallback(make(chan int)), ErrNotSerializable},
		{"nan expiration", func(context.Context, string) (any, Expiration, error) {
			return "v", ExpireAtMillis(math.NaN()), nil
		}, ErrInvalidExpiration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := newMemoryCache(t)
			_, ok, err := mc.Read(context.Background(), "k", tt.fb)
			if ok || !errors.Is(err, tt.wantErr) {
				t.Fatalf("Read = (%v, %v), want %v", ok, err, tt.wantErr)
			}
			// The key is free again: a second fallback runs and succeeds.
			v, ok, err := mc.Read(context.Background(), "k", constFallback("ok"))
			if err != nil || !ok || v != "ok" {
				t.Fatalf("retry = (%v, %v, %v)", v, ok, err)
			}
		})
	}
}

func TestMemoryCache_FallbackPanic(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	_, _, err := mc.Read(context.Background(), "k", func(context.Context, string) (any, Expiration, error) {
		panic("kaboom")
	})
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("err = %v, want panic converted to error", err)
	}
	if n := mc.use.Cache().Stats().InFlight; n != 0 {
		t.Fatalf("InFlight = %d after panic", n)
	}
}

// Many goroutines miss on the same key at once; the fallback runs at most
// once and everyone sees its value.
func TestMemoryCache_CoalescedFallback(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	var calls atomic.Int64
	fb := func(ctx context.Context, key string) (any, Expiration, error) {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return "v:" + key, NoExpiration(), nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	for range 100 {
		g.Go(func() error {
			v, ok, err := mc.Read(ctx, "k", fb)
			if err != nil {
				return err
			}
			if !ok || v != "v:k" {
				return errors.New("unexpected value")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("fallback ran %d times, want 1", n)
	}
}

// When the fallback keeps failing, each waiter gets its turn and runs its
// own fallback; nobody is left hanging.
func TestMemoryCache_FailingFallbacksEachRun(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	var calls atomic.Int64
	boom := errors.New("boom")
	fb := func(context.Context, string) (any, Expiration, error) {
		calls.Add(1)
		time.Sleep(time.Millisecond)
		return nil, NoExpiration(), boom
	}

	const n = 20
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			if _, _, err := mc.Read(context.Background(), "k", fb); !errors.Is(err, boom) {
				return errors.New("expected fallback error")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != n {
		t.Fatalf("fallback ran %d times, want %d", got, n)
	}
}

func TestMemoryCache_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	mc := newMemoryCache(t)
	release := make(chan struct{})
	started := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		_, _, err := mc.Read(context.Background(), "k", func(context.Context, string) (any, Expiration, error) {
			close(started)
			<-release
			return "v", NoExpiration(), nil
		})
		return err
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := mc.Read(ctx, "k", constFallback("other")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	close(release)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	v, ok, _ := mc.Read(context.Background(), "k", nil)
	if !ok || v != "v" {
		t.Fatalf("Read = (%v, %v), want v", v, ok)
	}
}
