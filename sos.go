// Package sos stores structured values (maps, lists and scalars) inside one
// fixed-capacity byte arena and reads them back without decoding.
//
// Objects are encoded into a compact tagged binary form, copied into blocks
// handed out by a binned free-list allocator, and read through zero-copy
// views that walk the encoded bytes in place.
//
// # Core Features
//
//   - Boundary-tagged arena with constant-time neighbour lookup
//   - Power-of-two size-class bins with immediate coalescing on free
//   - Tagged wire format with 16-bit container lengths
//   - Zero-copy map and list views with typed getters and iterators
//   - Optional off-heap arena backed by an anonymous memory mapping
//   - Named objects, msgpack import/export and compressed arena images
//
// # Basic Usage
//
//	st, _ := sos.NewDefaultStore(1 << 20)
//	defer st.Close()
//
//	h, _ := st.CreateMap(codec.NewMap().
//	    PutInt32("id", 7).
//	    PutString("name", "probe"))
//
//	view, _ := st.MapView(h)
//	name, _ := view.GetString("name")
//
//	_ = st.Remove(h)
//
// # Package Structure
//
// This package provides convenient constructors that wire an allocator to a
// store. For fine-grained control use the arena, alloc, codec and store
// packages directly.
package sos

import (
	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/internal/hash"
	"github.com/arloliu/sos/store"
)

// NewStore creates a store over a new binned allocator of the given capacity.
//
// The store owns the allocator: closing the store releases the arena.
//
// Parameters:
//   - capacity: Arena size in bytes
//   - opts: Allocator options (byte order, mmap backing, logger)
//
// Returns:
//   - *store.Store: The created store
//   - error: An error if the arena cannot be created
//
// Example:
//
//	st, err := sos.NewStore(1<<20,
//	    alloc.WithByteOrder(endian.GetBigEndianEngine()),
//	    alloc.WithMmap(),
//	)
func NewStore(capacity int, opts ...alloc.Option) (*store.Store, error) {
	a, err := alloc.NewBinned(capacity, opts...)
	if err != nil {
		return nil, err
	}

	st, err := store.New(a, store.WithOwnedAllocator())
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return st, nil
}

// NewDefaultStore creates a little-endian, heap-backed store.
//
// This is the recommended constructor for most use cases.
func NewDefaultStore(capacity int) (*store.Store, error) {
	return NewStore(capacity, alloc.WithByteOrder(endian.GetLittleEndianEngine()))
}

// NewOffHeapStore creates a store whose arena lives in an anonymous memory
// mapping instead of the Go heap. Platforms without mmap fall back to the heap.
func NewOffHeapStore(capacity int, opts ...alloc.Option) (*store.Store, error) {
	return NewStore(capacity, append(opts, alloc.WithMmap())...)
}

// NewSharedAllocator creates a binned allocator that is safe for concurrent use.
//
// Stores are single-writer; share the allocator and give each goroutine its
// own store instead.
func NewSharedAllocator(capacity int, opts ...alloc.Option) (*alloc.Sync, error) {
	a, err := alloc.NewBinned(capacity, opts...)
	if err != nil {
		return nil, err
	}

	return alloc.NewSync(a), nil
}

// ObjectID returns the 64-bit xxHash of an object name, as used by the store
// name index.
func ObjectID(name string) uint64 {
	return hash.ID(name)
}
