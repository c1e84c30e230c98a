package alloc

import (
	"fmt"

	"github.com/arloliu/sos/errs"
)

func (b *Binned) checkOccupied(p Pointer) error {
	if b.arena.Released() {
		return errs.ErrArenaReleased
	}
	if p == Nil || p == b.binTable || !b.arena.IsBlock(p) {
		return fmt.Errorf("%w: %d", errs.ErrInvalidPointer, p)
	}
	if b.status(p) != StatusOccupied {
		return fmt.Errorf("%w: block %d is not occupied", errs.ErrInvalidPointer, p)
	}

	return nil
}

// checkAccess validates an access of width bytes at payload offset off and
// returns the absolute arena offset.
func (b *Binned) checkAccess(p Pointer, off, width int) (int, error) {
	if err := b.checkOccupied(p); err != nil {
		return 0, err
	}

	limit := b.arena.BlockSize(p) - PayloadOffset
	if off < 0 || width < 0 || off > limit-width {
		return 0, fmt.Errorf("%w: [%d, %d) in block %d of %d bytes", errs.ErrOutOfBounds, off, off+width, p, limit)
	}

	return int(p) + PayloadOffset + off, nil
}

// GetInt8 reads an int8 at offset off of p's payload.
func (b *Binned) GetInt8(p Pointer, off int) (int8, error) {
	at, err := b.checkAccess(p, off, 1)
	if err != nil {
		return 0, err
	}

	return int8(b.arena.Uint8(at)), nil
}

// PutInt8 writes v at offset off of p's payload.
func (b *Binned) PutInt8(p Pointer, off int, v int8) error {
	at, err := b.checkAccess(p, off, 1)
	if err != nil {
		return err
	}
	b.arena.PutUint8(at, byte(v))

	return nil
}

// GetInt16 reads an int16 at offset off of p's payload.
func (b *Binned) GetInt16(p Pointer, off int) (int16, error) {
	at, err := b.checkAccess(p, off, 2)
	if err != nil {
		return 0, err
	}

	return b.arena.Int16(at), nil
}

// PutInt16 writes v at offset off of p's payload.
func (b *Binned) PutInt16(p Pointer, off int, v int16) error {
	at, err := b.checkAccess(p, off, 2)
	if err != nil {
		return err
	}
	b.arena.PutInt16(at, v)

	return nil
}

// GetInt32 reads an int32 at offset off of p's payload.
func (b *Binned) GetInt32(p Pointer, off int) (int32, error) {
	at, err := b.checkAccess(p, off, 4)
	if err != nil {
		return 0, err
	}

	return b.arena.Int32(at), nil
}

// PutInt32 writes v at offset off of p's payload.
func (b *Binned) PutInt32(p Pointer, off int, v int32) error {
	at, err := b.checkAccess(p, off, 4)
	if err != nil {
		return err
	}
	b.arena.PutInt32(at, v)

	return nil
}

// GetInt64 reads an int64 at offset off of p's payload.
func (b *Binned) GetInt64(p Pointer, off int) (int64, error) {
	at, err := b.checkAccess(p, off, 8)
	if err != nil {
		return 0, err
	}

	return b.arena.Int64(at), nil
}

// PutInt64 writes v at offset off of p's payload.
func (b *Binned) PutInt64(p Pointer, off int, v int64) error {
	at, err := b.checkAccess(p, off, 8)
	if err != nil {
		return err
	}
	b.arena.PutInt64(at, v)

	return nil
}

// GetFloat32 reads a float32 at offset off of p's payload.
func (b *Binned) GetFloat32(p Pointer, off int) (float32, error) {
	at, err := b.checkAccess(p, off, 4)
	if err != nil {
		return 0, err
	}

	return b.arena.Float32(at), nil
}

// PutFloat32 writes v at offset off of p's payload.
func (b *Binned) PutFloat32(p Pointer, off int, v float32) error {
	at, err := b.checkAccess(p, off, 4)
	if err != nil {
		return err
	}
	b.arena.PutFloat32(at, v)

	return nil
}

// GetFloat64 reads a float64 at offset off of p's payload.
func (b *Binned) GetFloat64(p Pointer, off int) (float64, error) {
	at, err := b.checkAccess(p, off, 8)
	if err != nil {
		return 0, err
	}

	return b.arena.Float64(at), nil
}

// PutFloat64 writes v at offset off of p's payload.
func (b *Binned) PutFloat64(p Pointer, off int, v float64) error {
	at, err := b.checkAccess(p, off, 8)
	if err != nil {
		return err
	}
	b.arena.PutFloat64(at, v)

	return nil
}

// GetBytes returns a copy of n payload bytes at off.
func (b *Binned) GetBytes(p Pointer, off, n int) ([]byte, error) {
	src, err := b.Slice(p, off, n)
	if err != nil {
		return nil, err
	}

	return append([]byte(nil), src...), nil
}

// Slice returns n payload bytes at off, aliasing the arena.
func (b *Binned) Slice(p Pointer, off, n int) ([]byte, error) {
	at, err := b.checkAccess(p, off, n)
	if err != nil {
		return nil, err
	}

	return b.arena.Slice(at, n), nil
}

// PutBytes copies src to payload offset off.
func (b *Binned) PutBytes(p Pointer, off int, src []byte) error {
	at, err := b.checkAccess(p, off, len(src))
	if err != nil {
		return err
	}
	b.arena.PutBytes(at, src)

	return nil
}
