package cache

import (
	"context"
	"fmt"
)

// Fallback produces the value for a missing key together with its
// expiration. It runs without any cache lock held.
type Fallback func(ctx context.Context, key string) (any, Expiration, error)

// MemoryCache reads application values through a Use, serializing them
// with a Codec.
type MemoryCache struct {
	use   *Use
	codec Codec
}

// NewMemoryCache wraps use. A nil codec selects StructCodec.
func NewMemoryCache(use *Use, codec Codec) *MemoryCache {
	if codec == nil {
		codec = StructCodec{}
	}
	return &MemoryCache{use: use, codec: codec}
}

// Read returns the value cached under key. ok is false on a miss when no
// fallback is given.
//
// With a fallback, a miss is resolved either by waiting for a fallback
// already running for the same key in another goroutine, or by running
// fallback here and caching its result. A fallback that returns an error,
// panics, reports a NaN expiration or produces an unserializable value
// counts as failed: the error is returned to this caller only, and the
// next waiting caller runs its own fallback.
func (m *MemoryCache) Read(ctx context.Context, key string, fallback Fallback) (v any, ok bool, err error) {
	if len(key) > MaxKeySize {
		return nil, false, ErrKeyTooLarge
	}

	if fallback == nil {
		val, hit := m.use.GetWithoutFallback(ctx, key)
		if !hit {
			return nil, false, nil
		}
		return m.decode(val)
	}

	val, pending := m.use.GetWithFallback(ctx, key)
	if pending == nil {
		return m.decode(val)
	}
	out, err := pending.Wait(ctx)
	if err != nil {
		return nil, false, err
	}
	if out.Fallback == nil {
		return m.decode(out.Value)
	}
	return m.runFallback(ctx, key, fallback, out.Fallback)
}

func (m *MemoryCache) runFallback(ctx context.Context, key string, fallback Fallback, cb *FallbackCallback) (v any, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			cb.Fail()
			v, ok, err = nil, false, fmt.Errorf("cache: fallback for %q panicked: %v", key, r)
		}
	}()

	v, exp, err := fallback(ctx, key)
	if err != nil {
		cb.Fail()
		return nil, false, err
	}
	b, err := m.codec.Marshal(v)
	if err != nil {
		cb.Fail()
		return nil, false, err
	}
	if err := cb.Complete(ctx, NewValue(b), exp); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (m *MemoryCache) decode(val *Value) (any, bool, error) {
	v, err := m.codec.Unmarshal(val.Bytes())
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
