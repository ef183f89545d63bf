package cache

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec turns application values into the immutable bytes stored in the
// cache and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte) (any, error)
}

// StructCodec encodes plain data (nil, bool, numbers, strings, []any and
// map[string]any, nested arbitrarily) as a protobuf google.protobuf.Value.
// Numbers come back as float64, like JSON.
type StructCodec struct{}

var _ Codec = StructCodec{}

func (StructCodec) Marshal(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(pv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return b, nil
}

func (StructCodec) Unmarshal(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, fmt.Errorf("cache: decode value: %w", err)
	}
	return pv.AsInterface(), nil
}
