package cache

import (
	"math"
	"time"
)

// Value is an immutable serialized cache value. A *Value is shared by
// pointer between the table and any number of readers; nobody may modify
// the bytes after NewValue returns.
type Value struct {
	b []byte
}

// NewValue returns a Value holding a copy of b.
func NewValue(b []byte) *Value {
	return &Value{b: append([]byte(nil), b...)}
}

// Bytes returns the serialized bytes. The slice must not be modified.
func (v *Value) Bytes() []byte { return v.b }

// Size returns the size of the value in bytes.
func (v *Value) Size() int { return len(v.b) }

// Expiration is an optional absolute deadline in Unix milliseconds, the
// unit Date.now() uses. The zero value never expires.
type Expiration struct {
	ms  float64
	set bool
}

// NoExpiration returns an Expiration that never passes.
func NoExpiration() Expiration { return Expiration{} }

// ExpireAt returns an Expiration at t.
func ExpireAt(t time.Time) Expiration {
	return Expiration{ms: float64(t.UnixNano()) / float64(time.Millisecond), set: true}
}

// ExpireAtMillis returns an Expiration at ms milliseconds since the Unix
// epoch. NaN is accepted here and rejected by MemoryCache.Read.
func ExpireAtMillis(ms float64) Expiration { return Expiration{ms: ms, set: true} }

// IsSet reports whether e carries a deadline.
func (e Expiration) IsSet() bool { return e.set }

// Millis returns the deadline in Unix milliseconds (0 if unset).
func (e Expiration) Millis() float64 { return e.ms }

func (e Expiration) isNaN() bool { return e.set && math.IsNaN(e.ms) }

// passed reports whether e is set and strictly before now.
func (e Expiration) passed(now float64) bool { return e.set && e.ms < now }
