package alloc

import (
	"fmt"
	"math"

	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
)

// Unique backs every allocation with its own Go slice.
//
// It never splits or merges and never reuses a pointer, which makes it a
// reference implementation for checking code built on Allocator.
type Unique struct {
	engine endian.EndianEngine
	blocks map[Pointer][]byte
	next   Pointer
	bytes  int
	closed bool
}

var _ Allocator = (*Unique)(nil)

// NewUnique creates an empty Unique allocator. WithMmap is ignored.
func NewUnique(opts ...Option) (*Unique, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Unique{
		engine: cfg.engine,
		blocks: make(map[Pointer][]byte),
	}, nil
}

// Allocate creates a zeroed slice of n bytes under a fresh pointer.
func (u *Unique) Allocate(n int) (Pointer, error) {
	if u.closed {
		return Nil, errs.ErrArenaReleased
	}
	if n < 0 {
		return Nil, fmt.Errorf("%w: %d", errs.ErrInvalidSize, n)
	}
	if u.next == math.MaxInt32 {
		return Nil, fmt.Errorf("%w: pointer space exhausted", errs.ErrNoSpace)
	}

	p := u.next
	u.next++
	u.blocks[p] = make([]byte, n)
	u.bytes += n

	return p, nil
}

// AllocateAndClear is Allocate; new slices are already zeroed.
func (u *Unique) AllocateAndClear(n int) (Pointer, error) {
	return u.Allocate(n)
}

// AllocateAndClone allocates len(data) bytes and copies data into them.
func (u *Unique) AllocateAndClone(data []byte) (Pointer, error) {
	p, err := u.Allocate(len(data))
	if err != nil {
		return Nil, err
	}
	copy(u.blocks[p], data)

	return p, nil
}

// Deallocate forgets p. Pointers are never reissued.
func (u *Unique) Deallocate(p Pointer) error {
	if u.closed {
		return errs.ErrArenaReleased
	}
	if p < 0 || p >= u.next {
		return fmt.Errorf("%w: %d", errs.ErrInvalidPointer, p)
	}

	buf, ok := u.blocks[p]
	if !ok {
		return fmt.Errorf("%w: %d", errs.ErrDoubleFree, p)
	}
	u.bytes -= len(buf)
	delete(u.blocks, p)

	return nil
}

// AllocatedSize returns the length of p's slice.
func (u *Unique) AllocatedSize(p Pointer) (int, error) {
	buf, err := u.block(p)
	if err != nil {
		return 0, err
	}

	return len(buf), nil
}

// Engine returns the byte order of scalar accessors.
func (u *Unique) Engine() endian.EndianEngine {
	return u.engine
}

// Stats reports occupied blocks and bytes; Unique has no capacity or free space.
func (u *Unique) Stats() Stats {
	return Stats{
		TotalBlocks:    len(u.blocks),
		OccupiedBlocks: len(u.blocks),
		OccupiedBytes:  u.bytes,
	}
}

// VerifyIntegrity checks the byte counter against the live slices.
func (u *Unique) VerifyIntegrity() bool {
	total := 0
	for _, buf := range u.blocks {
		total += len(buf)
	}

	return !u.closed && total == u.bytes
}

// Close drops every allocation. Later calls fail with errs.ErrArenaReleased.
func (u *Unique) Close() error {
	u.closed = true
	clear(u.blocks)
	u.bytes = 0

	return nil
}

func (u *Unique) block(p Pointer) ([]byte, error) {
	if u.closed {
		return nil, errs.ErrArenaReleased
	}

	buf, ok := u.blocks[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidPointer, p)
	}

	return buf, nil
}

func (u *Unique) span(p Pointer, off, width int) ([]byte, error) {
	buf, err := u.block(p)
	if err != nil {
		return nil, err
	}
	if off < 0 || width < 0 || off > len(buf)-width {
		return nil, fmt.Errorf("%w: [%d, %d) in block %d of %d bytes", errs.ErrOutOfBounds, off, off+width, p, len(buf))
	}

	return buf[off : off+width : off+width], nil
}

// GetInt8 reads an int8 at offset off of p's payload.
func (u *Unique) GetInt8(p Pointer, off int) (int8, error) {
	b, err := u.span(p, off, 1)
	if err != nil {
		return 0, err
	}

	return int8(b[0]), nil
}

// PutInt8 writes v at offset off of p's payload.
func (u *Unique) PutInt8(p Pointer, off int, v int8) error {
	b, err := u.span(p, off, 1)
	if err != nil {
		return err
	}
	b[0] = byte(v)

	return nil
}

// GetInt16 reads an int16 at offset off of p's payload.
func (u *Unique) GetInt16(p Pointer, off int) (int16, error) {
	b, err := u.span(p, off, 2)
	if err != nil {
		return 0, err
	}

	return int16(u.engine.Uint16(b)), nil
}

// PutInt16 writes v at offset off of p's payload.
func (u *Unique) PutInt16(p Pointer, off int, v int16) error {
	b, err := u.span(p, off, 2)
	if err != nil {
		return err
	}
	u.engine.PutUint16(b, uint16(v))

	return nil
}

// GetInt32 reads an int32 at offset off of p's payload.
func (u *Unique) GetInt32(p Pointer, off int) (int32, error) {
	b, err := u.span(p, off, 4)
	if err != nil {
		return 0, err
	}

	return int32(u.engine.Uint32(b)), nil
}

// PutInt32 writes v at offset off of p's payload.
func (u *Unique) PutInt32(p Pointer, off int, v int32) error {
	b, err := u.span(p, off, 4)
	if err != nil {
		return err
	}
	u.engine.PutUint32(b, uint32(v))

	return nil
}

// GetInt64 reads an int64 at offset off of p's payload.
func (u *Unique) GetInt64(p Pointer, off int) (int64, error) {
	b, err := u.span(p, off, 8)
	if err != nil {
		return 0, err
	}

	return int64(u.engine.Uint64(b)), nil
}

// PutInt64 writes v at offset off of p's payload.
func (u *Unique) PutInt64(p Pointer, off int, v int64) error {
	b, err := u.span(p, off, 8)
	if err != nil {
		return err
	}
	u.engine.PutUint64(b, uint64(v))

	return nil
}

// GetFloat32 reads a float32 at offset off of p's payload.
func (u *Unique) GetFloat32(p Pointer, off int) (float32, error) {
	v, err := u.GetInt32(p, off)
	return math.Float32frombits(uint32(v)), err
}

// PutFloat32 writes v at offset off of p's payload.
func (u *Unique) PutFloat32(p Pointer, off int, v float32) error {
	return u.PutInt32(p, off, int32(math.Float32bits(v)))
}

// GetFloat64 reads a float64 at offset off of p's payload.
func (u *Unique) GetFloat64(p Pointer, off int) (float64, error) {
	v, err := u.GetInt64(p, off)
	return math.Float64frombits(uint64(v)), err
}

// PutFloat64 writes v at offset off of p's payload.
func (u *Unique) PutFloat64(p Pointer, off int, v float64) error {
	return u.PutInt64(p, off, int64(math.Float64bits(v)))
}

// GetBytes copies n bytes at offset off of p's payload.
func (u *Unique) GetBytes(p Pointer, off, n int) ([]byte, error) {
	b, err := u.span(p, off, n)
	if err != nil {
		return nil, err
	}

	return append([]byte(nil), b...), nil
}

// Slice returns n bytes at offset off of p's payload without copying.
func (u *Unique) Slice(p Pointer, off, n int) ([]byte, error) {
	return u.span(p, off, n)
}

// PutBytes copies src to offset off of p's payload.
func (u *Unique) PutBytes(p Pointer, off int, src []byte) error {
	b, err := u.span(p, off, len(src))
	if err != nil {
		return err
	}
	copy(b, src)

	return nil
}
