package codec

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/format"
	"github.com/arloliu/sos/internal/options"
	"github.com/arloliu/sos/internal/pool"
)

const (
	// DefaultMaxObjectSize is the default limit of one encoded object.
	DefaultMaxObjectSize = math.MaxInt16
	// MaxObjectSize is the largest object whose body length fits the 16-bit header.
	MaxObjectSize = math.MaxUint16 + containerHeaderSize
	// MaxStringLength is the longest string or key in bytes.
	MaxStringLength = math.MaxUint8

	containerHeaderSize = 3
)

type encoderConfig struct {
	engine  endian.EndianEngine
	maxSize int
	form    *norm.Form
}

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*encoderConfig]

// WithByteOrder sets the byte order of multi-byte values. It must match the
// allocator the encoded objects are copied into. Defaults to little-endian.
func WithByteOrder(engine endian.EndianEngine) EncoderOption {
	return options.New(func(c *encoderConfig) error {
		if engine == nil {
			return errors.New("codec: nil byte order")
		}
		c.engine = engine

		return nil
	})
}

// WithMaxObjectSize bounds the encoded size of one object.
func WithMaxObjectSize(n int) EncoderOption {
	return options.New(func(c *encoderConfig) error {
		if n < containerHeaderSize || n > MaxObjectSize {
			return fmt.Errorf("codec: max object size %d not in [%d, %d]", n, containerHeaderSize, MaxObjectSize)
		}
		c.maxSize = n

		return nil
	})
}

// WithKeyNormalization applies a Unicode normalization form to every map key
// before encoding.
func WithKeyNormalization(form norm.Form) EncoderOption {
	return options.NoError(func(c *encoderConfig) { c.form = &form })
}

// Encoder serializes Map and List builders into the tagged wire format.
//
// Each call reuses one pooled scratch buffer, so the returned bytes are only
// valid until the next call or Release. An Encoder is not safe for concurrent use.
type Encoder struct {
	engine  endian.EndianEngine
	maxSize int
	form    *norm.Form
	buf     *pool.ByteBuffer
}

// NewEncoder creates an encoder with a scratch buffer taken from the pool.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := &encoderConfig{
		engine:  endian.GetLittleEndianEngine(),
		maxSize: DefaultMaxObjectSize,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{
		engine:  cfg.engine,
		maxSize: cfg.maxSize,
		form:    cfg.form,
		buf:     pool.GetScratchBuffer(),
	}, nil
}

// Release returns the scratch buffer to the pool. The encoder must not be used afterwards.
func (e *Encoder) Release() {
	pool.PutScratchBuffer(e.buf)
	e.buf = nil
}

// EncodeMap encodes m as a top-level map object.
func (e *Encoder) EncodeMap(m *Map) ([]byte, error) {
	return e.Encode(m)
}

// EncodeList encodes l as a top-level list object.
func (e *Encoder) EncodeList(l *List) ([]byte, error) {
	return e.Encode(l)
}

// Encode encodes a top-level *Map or *List.
//
// Returns errs.ErrUnsupportedType for other roots or nested values without a
// wire form, errs.ErrStringTooLong for strings or keys over 255 bytes,
// errs.ErrDuplicateKey when two keys of one map normalize to the same string
// and errs.ErrObjectTooLarge when the object exceeds the configured size.
func (e *Encoder) Encode(v any) ([]byte, error) {
	switch v.(type) {
	case *Map, *List:
	default:
		return nil, fmt.Errorf("%w: root %T", errs.ErrUnsupportedType, v)
	}

	e.buf.Reset()
	if err := e.writeValue(v); err != nil {
		e.buf.Reset()
		return nil, err
	}

	return e.buf.Bytes(), nil
}

// reserve extends the scratch buffer by n bytes and returns their offset.
func (e *Encoder) reserve(n int) (int, error) {
	if e.buf.Len()+n > e.maxSize {
		return 0, fmt.Errorf("%w: exceeds %d bytes", errs.ErrObjectTooLarge, e.maxSize)
	}

	return e.buf.ExtendOrGrow(n), nil
}

func (e *Encoder) writeTag(t format.ValueType, width int) (int, error) {
	off, err := e.reserve(1 + width)
	if err != nil {
		return 0, err
	}
	e.buf.B[off] = byte(t)

	return off + 1, nil
}

func (e *Encoder) writeValue(v any) error {
	switch x := v.(type) {
	case int8:
		off, err := e.writeTag(format.TypeByte, 1)
		if err != nil {
			return err
		}
		e.buf.B[off] = byte(x)
	case int16:
		off, err := e.writeTag(format.TypeShort, 2)
		if err != nil {
			return err
		}
		e.engine.PutUint16(e.buf.B[off:], uint16(x))
	case int32:
		off, err := e.writeTag(format.TypeInteger, 4)
		if err != nil {
			return err
		}
		e.engine.PutUint32(e.buf.B[off:], uint32(x))
	case int64:
		off, err := e.writeTag(format.TypeLong, 8)
		if err != nil {
			return err
		}
		e.engine.PutUint64(e.buf.B[off:], uint64(x))
	case int:
		return e.writeValue(int64(x))
	case float32:
		off, err := e.writeTag(format.TypeFloat, 4)
		if err != nil {
			return err
		}
		e.engine.PutUint32(e.buf.B[off:], math.Float32bits(x))
	case float64:
		off, err := e.writeTag(format.TypeDouble, 8)
		if err != nil {
			return err
		}
		e.engine.PutUint64(e.buf.B[off:], math.Float64bits(x))
	case string:
		if _, err := e.writeTag(format.TypeString, 0); err != nil {
			return err
		}
		return e.writeString(x)
	case *Map:
		if x == nil {
			return fmt.Errorf("%w: nil *Map", errs.ErrUnsupportedType)
		}
		return e.writeContainer(format.TypeMap, func() error {
			var seen map[string]struct{}
			if e.form != nil {
				seen = make(map[string]struct{}, len(x.entries))
			}
			for _, entry := range x.entries {
				if err := e.writeKey(entry.Key, seen); err != nil {
					return err
				}
				if err := e.writeValue(entry.Value); err != nil {
					return err
				}
			}

			return nil
		})
	case *List:
		if x == nil {
			return fmt.Errorf("%w: nil *List", errs.ErrUnsupportedType)
		}
		return e.writeContainer(format.TypeList, func() error {
			for _, item := range x.items {
				if err := e.writeValue(item); err != nil {
					return err
				}
			}

			return nil
		})
	default:
		return fmt.Errorf("%w: %T", errs.ErrUnsupportedType, v)
	}

	return nil
}

// writeContainer writes the tag, a placeholder length, the body, then
// backpatches the body length.
func (e *Encoder) writeContainer(t format.ValueType, body func() error) error {
	lenOff, err := e.writeTag(t, 2)
	if err != nil {
		return err
	}

	if err := body(); err != nil {
		return err
	}

	n := e.buf.Len() - lenOff - 2
	if n > math.MaxUint16 {
		return fmt.Errorf("%w: %s body of %d bytes", errs.ErrObjectTooLarge, t, n)
	}
	e.engine.PutUint16(e.buf.B[lenOff:], uint16(n))

	return nil
}

// writeKey normalizes key when a form is configured. Distinct builder keys
// can normalize to the same string, so seen tracks the keys already written
// to the current map.
func (e *Encoder) writeKey(key string, seen map[string]struct{}) error {
	if e.form != nil {
		key = e.form.String(key)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q after normalization", errs.ErrDuplicateKey, key)
		}
		seen[key] = struct{}{}
	}

	return e.writeString(key)
}

// writeString writes a one-byte length followed by the UTF-8 bytes of s.
func (e *Encoder) writeString(s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: %d bytes", errs.ErrStringTooLong, len(s))
	}

	off, err := e.reserve(1 + len(s))
	if err != nil {
		return err
	}
	e.buf.B[off] = byte(len(s))
	copy(e.buf.B[off+1:], s)

	return nil
}
