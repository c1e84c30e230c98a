package arena

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/internal/options"
)

// Pointer is the offset of the first payload byte of a block.
type Pointer int32

// Nil is the pointer value meaning "no block".
const Nil Pointer = -1

const (
	// TagWidth is the size of one boundary tag.
	TagWidth = 4
	// BlockOverhead is the tag space consumed by every block.
	BlockOverhead = 2 * TagWidth
	// MaxCapacity is the largest supported arena capacity (1 GiB).
	MaxCapacity = 1 << 30
	// MinCapacity is the smallest capacity that holds one empty block.
	MinCapacity = BlockOverhead
	// First is the pointer of the first block of every arena.
	First Pointer = TagWidth
)

// Arena is a fixed-capacity byte region tiled by contiguous blocks.
//
// Every block of size s at pointer p carries a copy of s in the tag before
// the payload ([p-4, p)) and in the tag after it ([p+s, p+s+4)), which lets
// the arena walk forward and backward and validate its own structure.
//
// An Arena is not safe for concurrent mutation.
type Arena struct {
	buf      []byte
	capacity int
	blocks   int
	engine   endian.EndianEngine
	release  func([]byte) error
	mapped   bool
}

type config struct {
	engine endian.EndianEngine
	mmap   bool
}

// Option configures an Arena.
type Option = options.Option[*config]

// WithByteOrder sets the byte order of tags and raw accessors.
func WithByteOrder(engine endian.EndianEngine) Option {
	return options.New(func(c *config) error {
		if engine == nil {
			return errors.New("arena: nil byte order")
		}
		c.engine = engine

		return nil
	})
}

// WithMmap backs the arena with an anonymous private memory mapping instead of
// a Go heap slice. Platforms without mmap fall back to the heap.
func WithMmap() Option {
	return options.NoError(func(c *config) { c.mmap = true })
}

// New creates an arena of the given capacity holding a single free block of
// size capacity - BlockOverhead.
//
// Parameters:
//   - capacity: Arena size in bytes, in [MinCapacity, MaxCapacity]
//   - opts: Byte order and backing memory options
//
// Returns:
//   - *Arena: The initialized arena
//   - error: errs.ErrInvalidCapacity for an out-of-range capacity, or a mapping error
func New(capacity int, opts ...Option) (*Arena, error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", errs.ErrInvalidCapacity, capacity, MinCapacity, MaxCapacity)
	}

	cfg := &config{engine: endian.GetLittleEndianEngine()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	buf, release, mapped, err := allocateMemory(capacity, cfg.mmap)
	if err != nil {
		return nil, err
	}

	a := &Arena{
		buf:      buf,
		capacity: capacity,
		engine:   cfg.engine,
		release:  release,
		mapped:   mapped,
	}
	a.writeTags(First, capacity-BlockOverhead)
	a.blocks = 1

	return a, nil
}

// Inspect wraps existing raw arena bytes, typically decoded from an image,
// and counts their blocks. The bytes are not copied.
func Inspect(raw []byte, engine endian.EndianEngine) (*Arena, error) {
	if len(raw) < MinCapacity || len(raw) > MaxCapacity {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrInvalidCapacity, len(raw))
	}

	a := &Arena{buf: raw, capacity: len(raw), engine: engine}
	count := 0
	if err := a.Walk(func(Pointer, int) bool {
		count++
		return true
	}); err != nil {
		return nil, err
	}
	a.blocks = count

	return a, nil
}

// Capacity returns the arena size in bytes.
func (a *Arena) Capacity() int { return a.capacity }

// NumBlocks returns the number of blocks tiling the arena.
func (a *Arena) NumBlocks() int { return a.blocks }

// FirstBlock returns the pointer of the lowest block.
func (a *Arena) FirstBlock() Pointer { return First }

// Engine returns the byte order used by the arena.
func (a *Arena) Engine() endian.EndianEngine { return a.engine }

// Mapped reports whether the arena lives in an mmap region.
func (a *Arena) Mapped() bool { return a.mapped }

// Raw returns the arena bytes. The slice aliases the arena.
func (a *Arena) Raw() []byte { return a.buf }

// Released reports whether Release has been called.
func (a *Arena) Released() bool { return a.buf == nil }

// Release frees the backing memory. The arena is unusable afterwards.
func (a *Arena) Release() error {
	if a.buf == nil {
		return nil
	}

	buf := a.buf
	a.buf = nil
	if a.release != nil {
		return a.release(buf)
	}

	return nil
}

// BlockSize returns the size recorded in the leading tag of p.
// p must be a valid block pointer; use IsBlock to check untrusted pointers.
func (a *Arena) BlockSize(p Pointer) int {
	return a.tag(int(p) - TagWidth)
}

// IsBlock reports whether p lies inside the arena and its two tags agree.
func (a *Arena) IsBlock(p Pointer) bool {
	off := int(p)
	if off < int(First) || off > a.capacity-TagWidth {
		return false
	}

	size := a.tag(off - TagWidth)
	if size < 0 || off+size+TagWidth > a.capacity {
		return false
	}

	return a.tag(off+size) == size
}

// NextBlock returns the block following p, or Nil when p is the last block.
func (a *Arena) NextBlock(p Pointer) (Pointer, error) {
	if !a.IsBlock(p) {
		return Nil, fmt.Errorf("%w: bad block at %d", errs.ErrCorruptedBlock, p)
	}

	next := int(p) + a.BlockSize(p) + BlockOverhead
	if next == a.capacity+TagWidth {
		return Nil, nil
	}
	if next > a.capacity-TagWidth {
		return Nil, fmt.Errorf("%w: block at %d runs past arena end", errs.ErrCorruptedBlock, p)
	}

	return Pointer(next), nil
}

// PreviousBlock returns the block preceding p, or Nil when p is the first block.
// The size of the previous block is read from its trailing tag.
func (a *Arena) PreviousBlock(p Pointer) (Pointer, error) {
	if p == First {
		return Nil, nil
	}
	if int(p) < int(First)+BlockOverhead || int(p) > a.capacity-TagWidth {
		return Nil, fmt.Errorf("%w: bad block at %d", errs.ErrCorruptedBlock, p)
	}

	prevSize := a.tag(int(p) - BlockOverhead)
	prev := int(p) - prevSize - BlockOverhead
	if prevSize < 0 || prev < int(First) {
		return Nil, fmt.Errorf("%w: previous block of %d starts at %d", errs.ErrCorruptedBlock, p, prev)
	}

	return Pointer(prev), nil
}

// IsAdjacent reports whether hi immediately follows lo.
func (a *Arena) IsAdjacent(lo, hi Pointer) bool {
	if !a.IsBlock(lo) {
		return false
	}

	return int(lo)+a.BlockSize(lo)+BlockOverhead == int(hi)
}

// SplitBlock shrinks p to size bytes and carves a new block from the remainder.
//
// Returns Nil and no error when the remainder cannot hold a block, that is when
// size + BlockOverhead >= BlockSize(p). The new block is placed at
// p + size + BlockOverhead with size BlockSize(p) - size - BlockOverhead.
func (a *Arena) SplitBlock(p Pointer, size int) (Pointer, error) {
	if size < 0 {
		return Nil, fmt.Errorf("%w: split size %d", errs.ErrInvalidSize, size)
	}
	if !a.IsBlock(p) {
		return Nil, fmt.Errorf("%w: bad block at %d", errs.ErrCorruptedBlock, p)
	}

	orig := a.BlockSize(p)
	if size+BlockOverhead >= orig {
		return Nil, nil
	}

	a.writeTags(p, size)
	next := Pointer(int(p) + size + BlockOverhead)
	a.writeTags(next, orig-size-BlockOverhead)
	a.blocks++

	return next, nil
}

// MergeBlocks joins two adjacent blocks lo < hi into one block at lo of size
// BlockSize(lo) + BlockSize(hi) + BlockOverhead.
func (a *Arena) MergeBlocks(lo, hi Pointer) (Pointer, error) {
	if lo >= hi {
		return Nil, fmt.Errorf("%w: merge %d into %d", errs.ErrPointerOrder, hi, lo)
	}
	if !a.IsBlock(hi) || !a.IsAdjacent(lo, hi) {
		return Nil, fmt.Errorf("%w: %d and %d", errs.ErrNotAdjacent, lo, hi)
	}

	a.writeTags(lo, a.BlockSize(lo)+a.BlockSize(hi)+BlockOverhead)
	a.blocks--

	return lo, nil
}

// Walk calls fn for every block in address order until fn returns false.
func (a *Arena) Walk(fn func(p Pointer, size int) bool) error {
	p := First
	for p != Nil {
		next, err := a.NextBlock(p)
		if err != nil {
			return err
		}
		if !fn(p, a.BlockSize(p)) {
			return nil
		}
		p = next
	}

	return nil
}

// Verify walks every block, checking that leading and trailing tags agree and
// that the walk count equals NumBlocks.
func (a *Arena) Verify() error {
	if a.buf == nil {
		return errs.ErrArenaReleased
	}

	count := 0
	if err := a.Walk(func(Pointer, int) bool {
		count++
		return true
	}); err != nil {
		return err
	}

	if count != a.blocks {
		return fmt.Errorf("%w: walked %d blocks, expected %d", errs.ErrCorruptedBlock, count, a.blocks)
	}

	return nil
}

// VerifyIntegrity reports whether Verify succeeds.
func (a *Arena) VerifyIntegrity() bool {
	return a.Verify() == nil
}

// Layout renders the block structure, one block per line.
func (a *Arena) Layout() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "arena capacity=%d blocks=%d\n", a.capacity, a.blocks)

	i := 0
	err := a.Walk(func(p Pointer, size int) bool {
		fmt.Fprintf(&sb, "  #%d ptr=%d size=%d end=%d\n", i, p, size, int(p)+size+TagWidth)
		i++

		return true
	})
	if err != nil {
		fmt.Fprintf(&sb, "  walk stopped: %v\n", err)
	}

	return sb.String()
}

func (a *Arena) tag(off int) int {
	return int(int32(a.engine.Uint32(a.buf[off : off+TagWidth])))
}

func (a *Arena) setTag(off, size int) {
	a.engine.PutUint32(a.buf[off:off+TagWidth], uint32(int32(size)))
}

func (a *Arena) writeTags(p Pointer, size int) {
	a.setTag(int(p)-TagWidth, size)
	a.setTag(int(p)+size, size)
}

// Raw accessors operate on absolute arena offsets and do no block bounds checks.

// Uint8 reads the byte at off.
func (a *Arena) Uint8(off int) byte { return a.buf[off] }

// PutUint8 writes the byte at off.
func (a *Arena) PutUint8(off int, v byte) { a.buf[off] = v }

// Int16 reads an int16 at off.
func (a *Arena) Int16(off int) int16 { return int16(a.engine.Uint16(a.buf[off:])) }

// PutInt16 writes v at off.
func (a *Arena) PutInt16(off int, v int16) { a.engine.PutUint16(a.buf[off:], uint16(v)) }

// Int32 reads an int32 at off.
func (a *Arena) Int32(off int) int32 { return int32(a.engine.Uint32(a.buf[off:])) }

// PutInt32 writes v at off.
func (a *Arena) PutInt32(off int, v int32) { a.engine.PutUint32(a.buf[off:], uint32(v)) }

// Int64 reads an int64 at off.
func (a *Arena) Int64(off int) int64 { return int64(a.engine.Uint64(a.buf[off:])) }

// PutInt64 writes v at off.
func (a *Arena) PutInt64(off int, v int64) { a.engine.PutUint64(a.buf[off:], uint64(v)) }

// Float32 reads a float32 at off.
func (a *Arena) Float32(off int) float32 { return math.Float32frombits(a.engine.Uint32(a.buf[off:])) }

// PutFloat32 writes v at off.
func (a *Arena) PutFloat32(off int, v float32) {
	a.engine.PutUint32(a.buf[off:], math.Float32bits(v))
}

// Float64 reads a float64 at off.
func (a *Arena) Float64(off int) float64 { return math.Float64frombits(a.engine.Uint64(a.buf[off:])) }

// PutFloat64 writes v at off.
func (a *Arena) PutFloat64(off int, v float64) {
	a.engine.PutUint64(a.buf[off:], math.Float64bits(v))
}

// Slice returns n bytes at off without copying.
func (a *Arena) Slice(off, n int) []byte { return a.buf[off : off+n : off+n] }

// PutBytes copies src to off.
func (a *Arena) PutBytes(off int, src []byte) { copy(a.buf[off:], src) }

// Zero clears n bytes at off.
func (a *Arena) Zero(off, n int) { clear(a.buf[off : off+n]) }
