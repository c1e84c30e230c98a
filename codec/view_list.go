package codec

import (
	"encoding/hex"
	"fmt"
	"iter"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/format"
)

// ListView reads an encoded list in place. Indexed access walks from the
// first item, so sequential reads should use Iterator.
type ListView struct {
	h header
}

// NewListView opens the list object stored at payload offset 0 of block p.
func NewListView(r alloc.Reader, p alloc.Pointer) (ListView, error) {
	return openList(r, p, 0)
}

func openList(r alloc.Reader, p alloc.Pointer, off int) (ListView, error) {
	h, err := openContainer(r, p, off, format.TypeList)
	if err != nil {
		return ListView{}, err
	}

	return ListView{h: h}, nil
}

// Block returns the block holding the list.
func (l ListView) Block() alloc.Pointer { return l.h.block }

// Offset returns the payload offset of the list tag inside its block.
func (l ListView) Offset() int { return l.h.off }

// Size returns the encoded size of the list including its header.
func (l ListView) Size() int { return containerHeaderSize + l.h.size }

func (l ListView) find(i int) (cursor, format.ValueType, error) {
	c := l.h.cursor()
	if i < 0 {
		return c, 0, fmt.Errorf("%w: %d", errs.ErrIndexOutOfRange, i)
	}

	for n := 0; !c.done(); n++ {
		t, err := c.readTag()
		if err != nil {
			return c, 0, err
		}
		if n == i {
			return c, t, nil
		}
		if err := c.skip(t); err != nil {
			return c, 0, err
		}
	}

	return c, 0, fmt.Errorf("%w: %d", errs.ErrIndexOutOfRange, i)
}

func listScalar[T any](l ListView, i int, want format.ValueType, read func(alloc.Pointer, int) (T, error)) (T, error) {
	var zero T

	c, t, err := l.find(i)
	if err != nil {
		return zero, err
	}
	if t != want {
		return zero, fmt.Errorf("%w: item %d is %s, not %s", errs.ErrTypeMismatch, i, t, want)
	}
	if err := c.need(want.FixedWidth()); err != nil {
		return zero, err
	}

	return read(c.block, c.pos)
}

// GetInt8 returns the int8 at index i.
func (l ListView) GetInt8(i int) (int8, error) {
	return listScalar(l, i, format.TypeByte, l.h.r.GetInt8)
}

// GetInt16 returns the int16 at index i.
func (l ListView) GetInt16(i int) (int16, error) {
	return listScalar(l, i, format.TypeShort, l.h.r.GetInt16)
}

// GetInt32 returns the int32 at index i.
func (l ListView) GetInt32(i int) (int32, error) {
	return listScalar(l, i, format.TypeInteger, l.h.r.GetInt32)
}

// GetInt64 returns the int64 at index i.
func (l ListView) GetInt64(i int) (int64, error) {
	return listScalar(l, i, format.TypeLong, l.h.r.GetInt64)
}

// GetFloat32 returns the float32 at index i.
func (l ListView) GetFloat32(i int) (float32, error) {
	return listScalar(l, i, format.TypeFloat, l.h.r.GetFloat32)
}

// GetFloat64 returns the float64 at index i.
func (l ListView) GetFloat64(i int) (float64, error) {
	return listScalar(l, i, format.TypeDouble, l.h.r.GetFloat64)
}

// GetString returns the string at index i.
func (l ListView) GetString(i int) (string, error) {
	c, t, err := l.find(i)
	if err != nil {
		return "", err
	}
	if t != format.TypeString {
		return "", fmt.Errorf("%w: item %d is %s, not %s", errs.ErrTypeMismatch, i, t, format.TypeString)
	}

	return c.string()
}

// GetMap returns a view of the map at index i.
func (l ListView) GetMap(i int) (MapView, error) {
	c, t, err := l.find(i)
	if err != nil {
		return MapView{}, err
	}
	if t != format.TypeMap {
		return MapView{}, fmt.Errorf("%w: item %d is %s, not %s", errs.ErrTypeMismatch, i, t, format.TypeMap)
	}

	v, err := c.value(t)
	if err != nil {
		return MapView{}, err
	}

	return v.(MapView), nil
}

// GetList returns a view of the list at index i.
func (l ListView) GetList(i int) (ListView, error) {
	c, t, err := l.find(i)
	if err != nil {
		return ListView{}, err
	}
	if t != format.TypeList {
		return ListView{}, fmt.Errorf("%w: item %d is %s, not %s", errs.ErrTypeMismatch, i, t, format.TypeList)
	}

	v, err := c.value(t)
	if err != nil {
		return ListView{}, err
	}

	return v.(ListView), nil
}

// Get returns item i decoded as for MapView.Get.
func (l ListView) Get(i int) (any, error) {
	c, t, err := l.find(i)
	if err != nil {
		return nil, err
	}

	return c.value(t)
}

// TypeOf returns the tag of item i.
func (l ListView) TypeOf(i int) (format.ValueType, error) {
	_, t, err := l.find(i)
	return t, err
}

// Count returns the number of items.
func (l ListView) Count() (int, error) {
	n := 0
	c := l.h.cursor()
	for !c.done() {
		t, err := c.readTag()
		if err != nil {
			return n, err
		}
		if err := c.skip(t); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}

// Iterator returns an iterator over the items in order.
func (l ListView) Iterator() *ListIterator {
	return &ListIterator{c: l.h.cursor(), index: -1}
}

// All returns a range iterator over index/value pairs. Iteration stops
// silently at the first decode error.
func (l ListView) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		it := l.Iterator()
		for it.Next() {
			if !yield(it.Index(), it.Value()) {
				return
			}
		}
	}
}

// Materialize decodes the whole list into an owned builder.
func (l ListView) Materialize() (*List, error) {
	out := NewList()
	it := l.Iterator()
	for it.Next() {
		v, err := materialize(it.Value())
		if err != nil {
			return nil, err
		}
		out.Add(v)
	}

	if err := it.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Bytes returns a copy of the encoded list.
func (l ListView) Bytes() ([]byte, error) {
	return l.h.bytes()
}

// Dump returns a hex dump of the encoded list.
func (l ListView) Dump() string {
	b, err := l.h.bytes()
	if err != nil {
		return fmt.Sprintf("<unreadable list at %d+%d: %v>", l.h.block, l.h.off, err)
	}

	return hex.Dump(b)
}

// String describes where the view sits in the arena.
func (l ListView) String() string {
	return fmt.Sprintf("ListView{block=%d offset=%d size=%d}", l.h.block, l.h.off, l.Size())
}

// ListIterator walks list items in order.
type ListIterator struct {
	c     cursor
	index int
	value any
	err   error
}

// Next decodes the next item and reports whether there was one.
func (it *ListIterator) Next() bool {
	if it.err != nil || it.c.done() {
		return false
	}

	t, err := it.c.readTag()
	if err != nil {
		it.err = err
		return false
	}
	v, err := it.c.value(t)
	if err != nil {
		it.err = err
		return false
	}
	if err := it.c.skip(t); err != nil {
		it.err = err
		return false
	}

	it.index++
	it.value = v

	return true
}

// Index returns the position of the current item.
func (it *ListIterator) Index() int { return it.index }

// Value returns the current item.
func (it *ListIterator) Value() any { return it.value }

// Err returns the error that stopped iteration, if any.
func (it *ListIterator) Err() error { return it.err }
