package alloc

import (
	"github.com/arloliu/sos/arena"
	"github.com/arloliu/sos/endian"
)

// Pointer identifies an allocated block. It is an arena offset for Binned and
// an opaque id for Unique.
type Pointer = arena.Pointer

// Nil is the pointer returned on failure and rejected by every accessor.
const Nil = arena.Nil

// Reader gives bounds-checked read access to block payloads.
//
// Offsets are relative to the first caller-usable payload byte; an access of
// width w at offset off succeeds only when off >= 0 and off+w <= AllocatedSize(p).
type Reader interface {
	GetInt8(p Pointer, off int) (int8, error)
	GetInt16(p Pointer, off int) (int16, error)
	GetInt32(p Pointer, off int) (int32, error)
	GetInt64(p Pointer, off int) (int64, error)
	GetFloat32(p Pointer, off int) (float32, error)
	GetFloat64(p Pointer, off int) (float64, error)
	// GetBytes returns a copy of n payload bytes.
	GetBytes(p Pointer, off, n int) ([]byte, error)
	// Slice returns n payload bytes without copying. The slice is only valid
	// until p is deallocated.
	Slice(p Pointer, off, n int) ([]byte, error)
	// AllocatedSize returns the caller-usable size of p, which may exceed the
	// requested size.
	AllocatedSize(p Pointer) (int, error)
	// Engine returns the byte order of multi-byte payload values.
	Engine() endian.EndianEngine
}

// Writer gives bounds-checked write access to block payloads.
type Writer interface {
	PutInt8(p Pointer, off int, v int8) error
	PutInt16(p Pointer, off int, v int16) error
	PutInt32(p Pointer, off int, v int32) error
	PutInt64(p Pointer, off int, v int64) error
	PutFloat32(p Pointer, off int, v float32) error
	PutFloat64(p Pointer, off int, v float64) error
	PutBytes(p Pointer, off int, src []byte) error
}

// Allocator hands out blocks and gives access to their payloads.
//
// Implementations are not safe for concurrent use unless documented otherwise;
// wrap them with NewSync to share one between goroutines.
type Allocator interface {
	Reader
	Writer

	// Allocate reserves a block with at least n usable bytes.
	// Returns errs.ErrNoSpace when no block can satisfy the request.
	Allocate(n int) (Pointer, error)
	// AllocateAndClear is Allocate followed by zeroing the usable bytes.
	AllocateAndClear(n int) (Pointer, error)
	// AllocateAndClone allocates len(data) bytes and copies data to offset 0.
	AllocateAndClone(data []byte) (Pointer, error)
	// Deallocate releases p. Returns errs.ErrDoubleFree when p is not occupied.
	Deallocate(p Pointer) error

	// Stats returns a snapshot of the allocator counters.
	Stats() Stats
	// VerifyIntegrity reports whether the allocator structures are consistent.
	VerifyIntegrity() bool
	// Close releases the backing memory. The allocator is unusable afterwards.
	Close() error
}
