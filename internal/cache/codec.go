package cache

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes values of type V to the []byte form stored in
// the cache. Codecs must be stateless and safe for concurrent use.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// Codec names accepted by NewCodec and the cache configuration.
const (
	CodecMsgpack = "msgpack"
	CodecCBOR    = "cbor"
	CodecJSON    = "json"
)

// NewCodec returns the codec registered under the given name. The empty
// name selects msgpack, the default wire format for cache entries.
func NewCodec[V any](name string) (Codec[V], error) {
	switch name {
	case CodecMsgpack, "":
		return MsgpackCodec[V]{}, nil
	case CodecCBOR:
		return NewCBORCodec[V]()
	case CodecJSON:
		return JSONCodec[V]{}, nil
	default:
		return nil, fmt.Errorf("unknown cache codec %q", name)
	}
}

// MsgpackCodec serializes values with vmihailenco/msgpack. The zero value
// is ready to use. Msgpack is the default: compact, fast, and it round-trips
// time.Time without precision loss.
type MsgpackCodec[V any] struct{}

func (MsgpackCodec[V]) Encode(v V) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec[V]) Decode(data []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(data, &v)
	return v, err
}

// CBORCodec serializes values with fxamacker/cbor. The zero value is NOT
// ready to use; construct with NewCBORCodec. Times are encoded as
// RFC3339Nano so cached timestamps stay human-readable in backend dumps.
type CBORCodec[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec constructs a CBOR codec with preferred encoding options.
func NewCBORCodec[V any]() (CBORCodec[V], error) {
	opts := cbor.PreferredUnsortedEncOptions()
	opts.Time = cbor.TimeRFC3339Nano

	enc, err := opts.EncMode()
	if err != nil {
		return CBORCodec[V]{}, err
	}
	dec, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBORCodec[V]{}, err
	}
	return CBORCodec[V]{enc: enc, dec: dec}, nil
}

func (c CBORCodec[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBORCodec[V]) Decode(data []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(data, &v)
	return v, err
}

// JSONCodec serializes values with encoding/json. Bulkier than msgpack but
// convenient when cache contents need to be inspected by hand.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	err := json.Unmarshal(data, &v)
	return v, err
}
