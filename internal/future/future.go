// Package future provides a one-shot value handed from one goroutine to
// another.
package future

import (
	"context"
	"sync"
)

// Future is the consumer side of a one-shot value. Exactly one of Wait
// (returning the value) or Abandon settles its ownership of the value.
//
// Concurrency notes:
//   - The value may be fulfilled from any goroutine. Publishing val
//     happens-before close(done), so reads after <-done observe it.
//   - A consumer that stops waiting marks the future abandoned. A value
//     fulfilled after that point is never observed by the consumer; it is
//     passed to the drop hook instead, so ownership is never lost.
type Future[T any] struct{ s *state[T] }

// Fulfiller is the producer side of a Future.
type Fulfiller[T any] struct{ s *state[T] }

type state[T any] struct {
	mu        sync.Mutex
	done      chan struct{} // closed when val is published
	val       T
	fulfilled bool
	taken     bool
	abandoned bool
	onDrop    func(T)
}

// New returns a connected Future/Fulfiller pair. onDrop, if non-nil, is
// called with a value that no consumer will ever receive: one fulfilled
// after the consumer abandoned, or one still unread when Abandon is called.
// onDrop runs on the goroutine that caused the drop, with no locks held.
func New[T any](onDrop func(T)) (*Future[T], *Fulfiller[T]) {
	s := &state[T]{done: make(chan struct{}), onDrop: onDrop}
	return &Future[T]{s: s}, &Fulfiller[T]{s: s}
}

// Ready returns a Future that already holds v.
func Ready[T any](v T, onDrop func(T)) *Future[T] {
	f, p := New(onDrop)
	p.Fulfill(v)
	return f
}

// Fulfill publishes v. It reports whether a consumer can still receive it.
// Only the first call has any effect.
func (p *Fulfiller[T]) Fulfill(v T) bool {
	s := p.s
	s.mu.Lock()
	if s.fulfilled {
		s.mu.Unlock()
		return false
	}
	s.fulfilled = true
	if s.abandoned {
		s.mu.Unlock()
		s.drop(v)
		return false
	}
	s.val = v
	close(s.done)
	s.mu.Unlock()
	return true
}

// Wait blocks until the value is available or ctx is done. A value that
// is already available wins over cancellation. On cancellation the future
// is abandoned and ctx.Err() is returned.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	s := f.s
	select {
	case <-s.done:
	case <-ctx.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fulfilled && !s.abandoned {
		s.taken = true
		return s.val, nil
	}
	s.abandoned = true
	var zero T
	return zero, ctx.Err()
}

// Abandon gives up on the value. A value that was fulfilled but not yet
// taken by Wait is passed to the drop hook. Calling Abandon after Wait
// returned a value is a no-op.
func (f *Future[T]) Abandon() {
	s := f.s
	s.mu.Lock()
	if s.abandoned || s.taken {
		s.mu.Unlock()
		return
	}
	s.abandoned = true
	if !s.fulfilled {
		s.mu.Unlock()
		return
	}
	v := s.val
	var zero T
	s.val = zero
	s.mu.Unlock()
	s.drop(v)
}

// Done returns a channel closed once the value has been published.
func (f *Future[T]) Done() <-chan struct{} { return f.s.done }

func (s *state[T]) drop(v T) {
	if s.onDrop != nil {
		s.onDrop(v)
	}
}
