// Package errs defines the sentinel errors returned across sos.
//
// Call sites wrap these values with additional context using fmt.Errorf and %w,
// so callers should test for them with errors.Is:
//
//	ptr, err := allocator.Allocate(128)
//	if errors.Is(err, errs.ErrNoSpace) {
//		// arena exhausted, evict or fail the request
//	}
package errs

import "errors"

// Arena errors.
var (
	// ErrInvalidCapacity indicates a negative, too small or too large arena capacity.
	ErrInvalidCapacity = errors.New("invalid arena capacity")
	// ErrCorruptedBlock indicates that boundary tags or block bookkeeping are inconsistent.
	ErrCorruptedBlock = errors.New("corrupted block")
	// ErrPointerOrder indicates that a merge was requested with pointers in the wrong order.
	ErrPointerOrder = errors.New("block pointers out of order")
	// ErrNotAdjacent indicates that two blocks to merge are not neighbours.
	ErrNotAdjacent = errors.New("blocks are not adjacent")
	// ErrArenaReleased indicates use of an arena after Release.
	ErrArenaReleased = errors.New("arena released")
)

// Allocator errors.
var (
	// ErrNoSpace indicates that no free block can satisfy the request.
	ErrNoSpace = errors.New("no free block large enough")
	// ErrInvalidSize indicates a negative allocation size.
	ErrInvalidSize = errors.New("invalid allocation size")
	// ErrInvalidPointer indicates a nil or out-of-range block pointer.
	ErrInvalidPointer = errors.New("invalid block pointer")
	// ErrDoubleFree indicates a deallocation of a block that is not occupied.
	ErrDoubleFree = errors.New("block is not occupied")
	// ErrOutOfBounds indicates an access outside the payload of a block.
	ErrOutOfBounds = errors.New("access out of block bounds")
	// ErrIntegrity indicates that allocator counters disagree with the arena.
	ErrIntegrity = errors.New("allocator integrity check failed")
)

// Codec errors.
var (
	// ErrUnknownTag indicates an unrecognized value tag in an encoded object.
	ErrUnknownTag = errors.New("unknown value tag")
	// ErrTypeMismatch indicates a typed getter used on a value of another type.
	ErrTypeMismatch = errors.New("value type mismatch")
	// ErrKeyNotFound indicates a missing map key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrDuplicateKey indicates a map key that appears twice in one map.
	ErrDuplicateKey = errors.New("duplicate map key")
	// ErrIndexOutOfRange indicates a list index past the end of the list.
	ErrIndexOutOfRange = errors.New("list index out of range")
	// ErrStringTooLong indicates a string or key longer than 255 bytes.
	ErrStringTooLong = errors.New("string exceeds 255 bytes")
	// ErrObjectTooLarge indicates an encoded object larger than the scratch buffer.
	ErrObjectTooLarge = errors.New("encoded object too large")
	// ErrUnsupportedType indicates a Go value that has no wire representation.
	ErrUnsupportedType = errors.New("unsupported value type")
	// ErrTruncated indicates an encoded object that ends before its declared length.
	ErrTruncated = errors.New("truncated object")
)

// Store errors.
var (
	// ErrUnknownHandle indicates a handle that the store did not issue or already removed.
	ErrUnknownHandle = errors.New("unknown object handle")
	// ErrNameNotFound indicates a lookup of a name that has no object.
	ErrNameNotFound = errors.New("object name not found")
	// ErrInvalidName indicates an empty object name.
	ErrInvalidName = errors.New("invalid object name")
	// ErrStoreClosed indicates use of a store after Close.
	ErrStoreClosed = errors.New("store closed")
)

// Image errors.
var (
	// ErrInvalidImage indicates a malformed arena image header.
	ErrInvalidImage = errors.New("invalid arena image")
	// ErrChecksumMismatch indicates that the arena image checksum does not match its content.
	ErrChecksumMismatch = errors.New("arena image checksum mismatch")
)
