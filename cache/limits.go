package cache

// Limits bounds a cache. Every user of a shared cache suggests its own
// Limits; the cache enforces the coordinate-wise maximum of all of them.
type Limits struct {
	// MaxKeys is the maximum number of entries.
	MaxKeys uint32
	// MaxValueSize is the maximum size of one serialized value, in bytes.
	MaxValueSize uint32
	// MaxTotalValueSize is the maximum sum of all value sizes. Keys and
	// bookkeeping are not counted.
	MaxTotalValueSize uint64
}

// MinLimits is the "no cache" limit: nothing can be stored.
func MinLimits() Limits { return Limits{} }

// Normalize returns l with misconfigurations repaired: a zero in any field
// disables the cache entirely, and MaxValueSize never exceeds
// MaxTotalValueSize.
func (l Limits) Normalize() Limits {
	if l.MaxKeys == 0 || l.MaxValueSize == 0 || l.MaxTotalValueSize == 0 {
		return MinLimits()
	}
	if uint64(l.MaxValueSize) > l.MaxTotalValueSize {
		l.MaxValueSize = uint32(l.MaxTotalValueSize)
	}
	return l
}

func maxLimits(a, b Limits) Limits {
	return Limits{
		MaxKeys:           max(a.MaxKeys, b.MaxKeys),
		MaxValueSize:      max(a.MaxValueSize, b.MaxValueSize),
		MaxTotalValueSize: max(a.MaxTotalValueSize, b.MaxTotalValueSize),
	}
}
