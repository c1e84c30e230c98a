package codec

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/arloliu/sos/errs"
)

// FromMsgpack decodes a msgpack document whose root is a map or an array into
// a *Map or *List builder. Map key order is preserved.
//
// Signed integers keep their width. Unsigned integers become the narrowest
// signed type that holds the value. Nil, booleans, binary data, extensions,
// non-string map keys and unsigned values above math.MaxInt64 are rejected
// with errs.ErrUnsupportedType. A map that repeats a key is rejected with
// errs.ErrDuplicateKey.
func FromMsgpack(data []byte) (any, error) {
	var r bytes.Reader
	r.Reset(data)

	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(&r)

	code, err := dec.PeekCode()
	if err != nil {
		return nil, fmt.Errorf("%w: msgpack: %w", errs.ErrTruncated, err)
	}
	if !isMsgpackMap(code) && !isMsgpackArray(code) {
		return nil, fmt.Errorf("%w: msgpack root code 0x%02x is not a map or array", errs.ErrUnsupportedType, code)
	}

	v, err := decodeMsgpack(dec)
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after msgpack document", errs.ErrUnsupportedType, r.Len())
	}

	return v, nil
}

func isMsgpackMap(c byte) bool {
	return msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32
}

func isMsgpackArray(c byte) bool {
	return msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32
}

func decodeMsgpack(dec *msgpack.Decoder) (any, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, fmt.Errorf("%w: msgpack: %w", errs.ErrTruncated, err)
	}

	switch {
	case isMsgpackMap(code):
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := NewMap()
		for range n {
			key, err := dec.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("%w: msgpack map key: %w", errs.ErrUnsupportedType, err)
			}
			if _, dup := m.Get(key); dup {
				return nil, fmt.Errorf("%w: msgpack map repeats %q", errs.ErrDuplicateKey, key)
			}
			v, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			m.Put(key, v)
		}

		return m, nil
	case isMsgpackArray(code):
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		l := NewList()
		for range n {
			v, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			l.Add(v)
		}

		return l, nil
	}

	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}

	return msgpackScalar(v)
}

func msgpackScalar(v any) (any, error) {
	switch x := v.(type) {
	case int8, int16, int32, int64, float32, float64, string:
		return x, nil
	case uint8:
		if x <= math.MaxInt8 {
			return int8(x), nil
		}
		return int16(x), nil
	case uint16:
		if x <= math.MaxInt16 {
			return int16(x), nil
		}
		return int32(x), nil
	case uint32:
		if x <= math.MaxInt32 {
			return int32(x), nil
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("%w: unsigned value %d overflows int64", errs.ErrUnsupportedType, x)
		}
		return int64(x), nil
	default:
		return nil, fmt.Errorf("%w: msgpack %T", errs.ErrUnsupportedType, v)
	}
}

// ToMsgpack encodes a *Map, *List, MapView or ListView as msgpack. Numbers
// are written with fixed-width codes so FromMsgpack restores the same types.
func ToMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&buf)

	switch x := v.(type) {
	case MapView, ListView:
		owned, err := materialize(x)
		if err != nil {
			return nil, err
		}
		v = owned
	case *Map, *List:
	default:
		return nil, fmt.Errorf("%w: root %T", errs.ErrUnsupportedType, v)
	}

	if err := encodeMsgpack(enc, v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeMsgpack(enc *msgpack.Encoder, v any) error {
	switch x := v.(type) {
	case int8:
		return enc.EncodeInt8(x)
	case int16:
		return enc.EncodeInt16(x)
	case int32:
		return enc.EncodeInt32(x)
	case int64:
		return enc.EncodeInt64(x)
	case int:
		return enc.EncodeInt64(int64(x))
	case float32:
		return enc.EncodeFloat32(x)
	case float64:
		return enc.EncodeFloat64(x)
	case string:
		return enc.EncodeString(x)
	case *Map:
		if x == nil {
			return fmt.Errorf("%w: nil *Map", errs.ErrUnsupportedType)
		}
		if err := enc.EncodeMapLen(x.Len()); err != nil {
			return err
		}
		for _, e := range x.entries {
			if err := enc.EncodeString(e.Key); err != nil {
				return err
			}
			if err := encodeMsgpack(enc, e.Value); err != nil {
				return err
			}
		}

		return nil
	case *List:
		if x == nil {
			return fmt.Errorf("%w: nil *List", errs.ErrUnsupportedType)
		}
		if err := enc.EncodeArrayLen(x.Len()); err != nil {
			return err
		}
		for _, item := range x.items {
			if err := encodeMsgpack(enc, item); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("%w: %T", errs.ErrUnsupportedType, v)
	}
}
