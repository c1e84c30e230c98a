package collision

import (
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/internal/hash"
)

type entry[V any] struct {
	name  string
	value V
}

// Index maps object names to values through their 64-bit hash.
//
// Names sharing a hash are chained in the same bucket, so a collision never
// shadows another name; it only costs a string comparison on lookup.
type Index[V any] struct {
	hashFn  func(string) uint64
	buckets map[uint64][]entry[V]
	count   int
}

// NewIndex creates an index keyed by the xxHash64 of names.
func NewIndex[V any]() *Index[V] {
	return NewIndexWithHash[V](hash.ID)
}

// NewIndexWithHash creates an index that uses hashFn to bucket names.
func NewIndexWithHash[V any](hashFn func(string) uint64) *Index[V] {
	return &Index[V]{
		hashFn:  hashFn,
		buckets: make(map[uint64][]entry[V]),
	}
}

// Put associates value with name.
//
// Returns the previous value and true when name was already present.
// Returns errs.ErrInvalidName for an empty name.
func (ix *Index[V]) Put(name string, value V) (V, bool, error) {
	var zero V
	if name == "" {
		return zero, false, errs.ErrInvalidName
	}

	h := ix.hashFn(name)
	bucket := ix.buckets[h]
	for i := range bucket {
		if bucket[i].name == name {
			old := bucket[i].value
			bucket[i].value = value

			return old, true, nil
		}
	}

	ix.buckets[h] = append(bucket, entry[V]{name: name, value: value})
	ix.count++

	return zero, false, nil
}

// Get returns the value stored under name.
func (ix *Index[V]) Get(name string) (V, bool) {
	for _, e := range ix.buckets[ix.hashFn(name)] {
		if e.name == name {
			return e.value, true
		}
	}

	var zero V

	return zero, false
}

// Delete removes name and returns its value.
func (ix *Index[V]) Delete(name string) (V, bool) {
	var zero V

	h := ix.hashFn(name)
	bucket := ix.buckets[h]
	for i := range bucket {
		if bucket[i].name != name {
			continue
		}

		old := bucket[i].value
		if len(bucket) == 1 {
			delete(ix.buckets, h)
		} else {
			bucket[i] = bucket[len(bucket)-1]
			bucket[len(bucket)-1] = entry[V]{}
			ix.buckets[h] = bucket[:len(bucket)-1]
		}
		ix.count--

		return old, true
	}

	return zero, false
}

// Len returns the number of names in the index.
func (ix *Index[V]) Len() int {
	return ix.count
}

// Collisions returns the number of names that share their hash with another name.
func (ix *Index[V]) Collisions() int {
	n := 0
	for _, bucket := range ix.buckets {
		if len(bucket) > 1 {
			n += len(bucket)
		}
	}

	return n
}

// Range calls fn for every name until fn returns false. Order is unspecified.
func (ix *Index[V]) Range(fn func(name string, value V) bool) {
	for _, bucket := range ix.buckets {
		for _, e := range bucket {
			if !fn(e.name, e.value) {
				return
			}
		}
	}
}

// Reset removes all names.
func (ix *Index[V]) Reset() {
	for k := range ix.buckets {
		delete(ix.buckets, k)
	}
	ix.count = 0
}
