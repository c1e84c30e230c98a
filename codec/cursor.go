package codec

import (
	"fmt"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/format"
)

// cursor walks the body of one container inside a block. It only moves
// forward and never past end.
type cursor struct {
	r     alloc.Reader
	block alloc.Pointer
	pos   int
	end   int
}

func (c *cursor) done() bool {
	return c.pos >= c.end
}

func (c *cursor) need(n int) error {
	if n < 0 || c.pos > c.end-n {
		return fmt.Errorf("%w: need %d bytes at offset %d, container ends at %d", errs.ErrTruncated, n, c.pos, c.end)
	}

	return nil
}

func (c *cursor) readUint8() (int, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}

	v, err := c.r.GetInt8(c.block, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos++

	return int(uint8(v)), nil
}

func (c *cursor) readTag() (format.ValueType, error) {
	v, err := c.readUint8()
	if err != nil {
		return 0, err
	}

	t := format.ValueType(v)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: 0x%02x at offset %d", errs.ErrUnknownTag, v, c.pos-1)
	}

	return t, nil
}

// readKey returns the next key bytes without copying them out of the block.
func (c *cursor) readKey() ([]byte, error) {
	n, err := c.readUint8()
	if err != nil {
		return nil, err
	}
	if err := c.need(n); err != nil {
		return nil, err
	}

	key, err := c.r.Slice(c.block, c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n

	return key, nil
}

// width returns the encoded size of a value of type t that starts at pos,
// excluding its tag.
func (c *cursor) width(t format.ValueType) (int, error) {
	if w := t.FixedWidth(); w > 0 {
		return w, nil
	}

	if t.IsContainer() {
		if err := c.need(2); err != nil {
			return 0, err
		}
		n, err := c.r.GetInt16(c.block, c.pos)
		if err != nil {
			return 0, err
		}

		return 2 + int(uint16(n)), nil
	}
	if t != format.TypeString {
		return 0, fmt.Errorf("%w: %d", errs.ErrUnknownTag, t)
	}

	if err := c.need(1); err != nil {
		return 0, err
	}
	n, err := c.r.GetInt8(c.block, c.pos)
	if err != nil {
		return 0, err
	}

	return 1 + int(uint8(n)), nil
}

// skip advances past a value of type t.
func (c *cursor) skip(t format.ValueType) error {
	w, err := c.width(t)
	if err != nil {
		return err
	}
	if err := c.need(w); err != nil {
		return err
	}
	c.pos += w

	return nil
}

// value decodes the value of type t at pos without advancing. Containers are
// returned as views anchored at their tag.
func (c *cursor) value(t format.ValueType) (any, error) {
	switch t {
	case format.TypeByte:
		v, err := c.r.GetInt8(c.block, c.pos)
		return v, err
	case format.TypeShort:
		v, err := c.r.GetInt16(c.block, c.pos)
		return v, err
	case format.TypeInteger:
		v, err := c.r.GetInt32(c.block, c.pos)
		return v, err
	case format.TypeLong:
		v, err := c.r.GetInt64(c.block, c.pos)
		return v, err
	case format.TypeFloat:
		v, err := c.r.GetFloat32(c.block, c.pos)
		return v, err
	case format.TypeDouble:
		v, err := c.r.GetFloat64(c.block, c.pos)
		return v, err
	case format.TypeString:
		return c.string()
	case format.TypeMap, format.TypeList:
		w, err := c.width(t)
		if err != nil {
			return nil, err
		}
		if err := c.need(w); err != nil {
			return nil, err
		}
		if t == format.TypeMap {
			return openMap(c.r, c.block, c.pos-1)
		}

		return openList(c.r, c.block, c.pos-1)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownTag, t)
	}
}

func (c *cursor) string() (string, error) {
	w, err := c.width(format.TypeString)
	if err != nil {
		return "", err
	}
	if err := c.need(w); err != nil {
		return "", err
	}

	b, err := c.r.Slice(c.block, c.pos+1, w-1)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// header describes an opened container.
type header struct {
	r     alloc.Reader
	block alloc.Pointer
	off   int
	size  int
}

// openContainer validates the container tag and length at off.
func openContainer(r alloc.Reader, block alloc.Pointer, off int, want format.ValueType) (header, error) {
	limit, err := r.AllocatedSize(block)
	if err != nil {
		return header{}, err
	}

	c := cursor{r: r, block: block, pos: off, end: limit}
	t, err := c.readTag()
	if err != nil {
		return header{}, err
	}
	if t != want {
		return header{}, fmt.Errorf("%w: expected %s, found %s at offset %d", errs.ErrTypeMismatch, want, t, off)
	}

	w, err := c.width(t)
	if err != nil {
		return header{}, err
	}
	if err := c.need(w); err != nil {
		return header{}, err
	}

	return header{r: r, block: block, off: off, size: w - 2}, nil
}

func (h header) cursor() cursor {
	start := h.off + containerHeaderSize

	return cursor{r: h.r, block: h.block, pos: start, end: start + h.size}
}

func (h header) bytes() ([]byte, error) {
	return h.r.GetBytes(h.block, h.off, containerHeaderSize+h.size)
}
