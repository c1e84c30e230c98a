package codec

import (
	"encoding/hex"
	"fmt"
	"iter"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/format"
)

// MapView reads an encoded map in place.
//
// A view holds no decoded data: every lookup walks the entries from the start
// of the map, comparing keys against the block bytes without copying them.
// Views are small values, valid while their block stays allocated, and safe for
// concurrent reads.
type MapView struct {
	h header
}

// NewMapView opens the map object stored at payload offset 0 of block p.
//
// Returns errs.ErrTypeMismatch when the object is not a map.
func NewMapView(r alloc.Reader, p alloc.Pointer) (MapView, error) {
	return openMap(r, p, 0)
}

func openMap(r alloc.Reader, p alloc.Pointer, off int) (MapView, error) {
	h, err := openContainer(r, p, off, format.TypeMap)
	if err != nil {
		return MapView{}, err
	}

	return MapView{h: h}, nil
}

// Block returns the block holding the map.
func (m MapView) Block() alloc.Pointer { return m.h.block }

// Offset returns the payload offset of the map tag inside its block.
func (m MapView) Offset() int { return m.h.off }

// Size returns the encoded size of the map including its header.
func (m MapView) Size() int { return containerHeaderSize + m.h.size }

// find positions a cursor just after the tag of the value stored under key.
func (m MapView) find(key string) (cursor, format.ValueType, error) {
	c := m.h.cursor()
	for !c.done() {
		k, err := c.readKey()
		if err != nil {
			return c, 0, err
		}
		t, err := c.readTag()
		if err != nil {
			return c, 0, err
		}
		if string(k) == key {
			return c, t, nil
		}
		if err := c.skip(t); err != nil {
			return c, 0, err
		}
	}

	return c, 0, fmt.Errorf("%w: %q", errs.ErrKeyNotFound, key)
}

func mapScalar[T any](m MapView, key string, want format.ValueType, read func(alloc.Pointer, int) (T, error)) (T, error) {
	var zero T

	c, t, err := m.find(key)
	if err != nil {
		return zero, err
	}
	if t != want {
		return zero, fmt.Errorf("%w: key %q holds %s, not %s", errs.ErrTypeMismatch, key, t, want)
	}
	if err := c.need(want.FixedWidth()); err != nil {
		return zero, err
	}

	return read(c.block, c.pos)
}

// GetInt8 returns the int8 stored under key.
func (m MapView) GetInt8(key string) (int8, error) {
	return mapScalar(m, key, format.TypeByte, m.h.r.GetInt8)
}

// GetInt16 returns the int16 stored under key.
func (m MapView) GetInt16(key string) (int16, error) {
	return mapScalar(m, key, format.TypeShort, m.h.r.GetInt16)
}

// GetInt32 returns the int32 stored under key.
func (m MapView) GetInt32(key string) (int32, error) {
	return mapScalar(m, key, format.TypeInteger, m.h.r.GetInt32)
}

// GetInt64 returns the int64 stored under key.
func (m MapView) GetInt64(key string) (int64, error) {
	return mapScalar(m, key, format.TypeLong, m.h.r.GetInt64)
}

// GetFloat32 returns the float32 stored under key.
func (m MapView) GetFloat32(key string) (float32, error) {
	return mapScalar(m, key, format.TypeFloat, m.h.r.GetFloat32)
}

// GetFloat64 returns the float64 stored under key.
func (m MapView) GetFloat64(key string) (float64, error) {
	return mapScalar(m, key, format.TypeDouble, m.h.r.GetFloat64)
}

// GetString returns a copy of the string stored under key.
func (m MapView) GetString(key string) (string, error) {
	c, t, err := m.find(key)
	if err != nil {
		return "", err
	}
	if t != format.TypeString {
		return "", fmt.Errorf("%w: key %q holds %s, not %s", errs.ErrTypeMismatch, key, t, format.TypeString)
	}

	return c.string()
}

// GetMap returns a view of the nested map stored under key.
func (m MapView) GetMap(key string) (MapView, error) {
	v, err := m.nested(key, format.TypeMap)
	if err != nil {
		return MapView{}, err
	}

	return v.(MapView), nil
}

// GetList returns a view of the nested list stored under key.
func (m MapView) GetList(key string) (ListView, error) {
	v, err := m.nested(key, format.TypeList)
	if err != nil {
		return ListView{}, err
	}

	return v.(ListView), nil
}

func (m MapView) nested(key string, want format.ValueType) (any, error) {
	c, t, err := m.find(key)
	if err != nil {
		return nil, err
	}
	if t != want {
		return nil, fmt.Errorf("%w: key %q holds %s, not %s", errs.ErrTypeMismatch, key, t, want)
	}

	return c.value(t)
}

// Get returns the value stored under key. Scalars come back as their Go type,
// strings as string and containers as MapView or ListView.
func (m MapView) Get(key string) (any, error) {
	c, t, err := m.find(key)
	if err != nil {
		return nil, err
	}

	return c.value(t)
}

// Has reports whether key is present.
func (m MapView) Has(key string) (bool, error) {
	_, _, err := m.find(key)
	if err == nil {
		return true, nil
	}
	if isKeyNotFound(err) {
		return false, nil
	}

	return false, err
}

// TypeOf returns the tag of the value stored under key.
func (m MapView) TypeOf(key string) (format.ValueType, error) {
	_, t, err := m.find(key)
	return t, err
}

// Count returns the number of entries.
func (m MapView) Count() (int, error) {
	n := 0
	it := m.Iterator()
	for it.Next() {
		n++
	}

	return n, it.Err()
}

// Keys returns the keys in encoded order.
func (m MapView) Keys() ([]string, error) {
	var keys []string
	it := m.Iterator()
	for it.Next() {
		keys = append(keys, it.Key())
	}

	return keys, it.Err()
}

// Iterator returns an iterator over the entries in encoded order.
func (m MapView) Iterator() *MapIterator {
	return &MapIterator{c: m.h.cursor()}
}

// All returns a range iterator over the entries. Iteration stops silently at
// the first decode error; use Iterator to observe it.
func (m MapView) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		it := m.Iterator()
		for it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Materialize decodes the whole map into an owned builder.
func (m MapView) Materialize() (*Map, error) {
	out := NewMap()
	it := m.Iterator()
	for it.Next() {
		v, err := materialize(it.Value())
		if err != nil {
			return nil, err
		}
		out.Put(it.Key(), v)
	}

	if err := it.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Bytes returns a copy of the encoded map.
func (m MapView) Bytes() ([]byte, error) {
	return m.h.bytes()
}

// Dump returns a hex dump of the encoded map.
func (m MapView) Dump() string {
	b, err := m.h.bytes()
	if err != nil {
		return fmt.Sprintf("<unreadable map at %d+%d: %v>", m.h.block, m.h.off, err)
	}

	return hex.Dump(b)
}

// String describes where the view sits in the arena.
func (m MapView) String() string {
	return fmt.Sprintf("MapView{block=%d offset=%d size=%d}", m.h.block, m.h.off, m.Size())
}

// MapIterator walks map entries in encoded order.
//
//	it := view.Iterator()
//	for it.Next() {
//		fmt.Println(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
type MapIterator struct {
	c     cursor
	key   string
	value any
	err   error
}

// Next decodes the next entry and reports whether there was one.
func (it *MapIterator) Next() bool {
	if it.err != nil || it.c.done() {
		return false
	}

	k, err := it.c.readKey()
	if err != nil {
		it.err = err
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

	it.key = string(k)
	it.value = v

	return true
}

// Key returns the key of the current entry.
func (it *MapIterator) Key() string { return it.key }

// Value returns the value of the current entry.
func (it *MapIterator) Value() any { return it.value }

// Err returns the error that stopped iteration, if any.
func (it *MapIterator) Err() error { return it.err }
