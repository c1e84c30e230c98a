package alloc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arloliu/sos/arena"
	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/internal/bitsize"
)

const (
	// StatusFree marks a block that is linked into a bin.
	StatusFree byte = 0
	// StatusOccupied marks a block handed out to a caller.
	StatusOccupied byte = 127

	statusOffset = 0
	prevOffset   = 1
	nextOffset   = 5

	// PayloadOffset is where caller data starts inside a block.
	PayloadOffset = 1
	// freeHeaderSize covers the status byte and both free-list pointers.
	freeHeaderSize = PayloadOffset + 2*4
	// BlockOverhead is the per-allocation cost on top of the requested size.
	BlockOverhead = PayloadOffset + arena.BlockOverhead
	// SmallestBlockSize is the smallest remainder worth splitting off.
	SmallestBlockSize = 16

	// A split leaves at least splitThreshold+1-arena.BlockOverhead bytes in
	// the remainder, which always holds a free header.
	splitThreshold = arena.TagWidth + PayloadOffset + SmallestBlockSize
	binSlotSize    = 4
)

// Binned is a free-list allocator over a single arena.
//
// Free blocks are kept in power-of-two size-class bins. Each bin is a doubly
// linked list sorted by ascending block size whose links live inside the free
// blocks themselves; the bin heads live in the first block of the arena.
// Allocation scans from the smallest class that can fit the request and takes
// the first large-enough block. Deallocation merges the block with free
// neighbours on both sides before putting it back into a bin.
//
// A Binned allocator is not safe for concurrent use.
type Binned struct {
	arena        *arena.Arena
	logger       *slog.Logger
	binTable     Pointer
	numBins      int
	binTableSize int

	freeBlocks     int
	freeBytes      int
	occupiedBlocks int
	occupiedBytes  int
}

var _ Allocator = (*Binned)(nil)

// NewBinned creates a binned allocator over a fresh arena.
//
// Parameters:
//   - capacity: Arena size in bytes, up to arena.MaxCapacity
//   - opts: Byte order, mmap backing and logger options
//
// Returns:
//   - *Binned: The allocator with one free block covering everything but the bin table
//   - error: errs.ErrInvalidCapacity when the arena cannot hold the bin table and one free block
func NewBinned(capacity int, opts ...Option) (*Binned, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	a, err := arena.New(capacity, cfg.arenaOptions()...)
	if err != nil {
		return nil, err
	}

	numBins := bitsize.BitsNeeded(capacity)
	tableSize := numBins * binSlotSize
	if a.BlockSize(arena.First)-tableSize-arena.BlockOverhead < freeHeaderSize {
		_ = a.Release()
		return nil, fmt.Errorf("%w: %d bytes cannot hold %d bins", errs.ErrInvalidCapacity, capacity, numBins)
	}

	rest, err := a.SplitBlock(arena.First, tableSize)
	if err != nil {
		_ = a.Release()
		return nil, err
	}

	b := &Binned{
		arena:        a,
		logger:       cfg.logger,
		binTable:     arena.First,
		numBins:      numBins,
		binTableSize: tableSize,
	}
	for i := range numBins {
		b.setBinHead(i, Nil)
	}

	b.setStatus(rest, StatusFree)
	b.attach(rest)

	b.logger.LogAttrs(context.Background(), slog.LevelDebug, "binned allocator initialized",
		slog.Int("capacity", capacity),
		slog.Int("bins", numBins),
		slog.Int("bin_table_size", tableSize),
		slog.Int("free_bytes", b.freeBytes),
		slog.Bool("mmap", a.Mapped()),
	)

	return b, nil
}

// Allocate reserves a block with at least n usable bytes.
//
// The block comes from the smallest non-empty size class whose list holds a
// block of at least n+1 bytes. Blocks much larger than needed are split and
// the remainder is returned to the bins.
func (b *Binned) Allocate(n int) (Pointer, error) {
	if b.arena.Released() {
		return Nil, errs.ErrArenaReleased
	}
	if n < 0 {
		return Nil, fmt.Errorf("%w: %d", errs.ErrInvalidSize, n)
	}

	if n >= b.arena.Capacity() {
		return Nil, fmt.Errorf("%w: requested %d bytes", errs.ErrNoSpace, n)
	}

	requested := max(n+PayloadOffset, freeHeaderSize)

	p := b.findFree(requested)
	if p == Nil {
		b.logger.LogAttrs(context.Background(), slog.LevelDebug, "allocation failed",
			slog.Int("requested", n),
			slog.Int("free_bytes", b.freeBytes),
			slog.Int("free_blocks", b.freeBlocks),
		)

		return Nil, fmt.Errorf("%w: requested %d bytes", errs.ErrNoSpace, n)
	}

	b.detach(p)
	if b.arena.BlockSize(p)-requested > splitThreshold {
		rest, err := b.arena.SplitBlock(p, requested)
		if err != nil {
			return Nil, err
		}
		if rest != Nil {
			b.setStatus(rest, StatusFree)
			b.attach(rest)
		}
	}

	b.setStatus(p, StatusOccupied)
	b.occupiedBlocks++
	b.occupiedBytes += b.arena.BlockSize(p)

	return p, nil
}

// AllocateAndClear allocates n bytes and zeroes the whole usable payload.
func (b *Binned) AllocateAndClear(n int) (Pointer, error) {
	p, err := b.Allocate(n)
	if err != nil {
		return Nil, err
	}
	b.arena.Zero(int(p)+PayloadOffset, b.arena.BlockSize(p)-PayloadOffset)

	return p, nil
}

// AllocateAndClone allocates len(data) bytes and copies data into them.
func (b *Binned) AllocateAndClone(data []byte) (Pointer, error) {
	p, err := b.Allocate(len(data))
	if err != nil {
		return Nil, err
	}
	b.arena.PutBytes(int(p)+PayloadOffset, data)

	return p, nil
}

// Deallocate returns p to the bins, merging it with free neighbours.
//
// Returns errs.ErrInvalidPointer for Nil or pointers that do not address a
// block, and errs.ErrDoubleFree for blocks that are not occupied.
func (b *Binned) Deallocate(p Pointer) error {
	if b.arena.Released() {
		return errs.ErrArenaReleased
	}
	if p == Nil || p == b.binTable || !b.arena.IsBlock(p) {
		return fmt.Errorf("%w: %d", errs.ErrInvalidPointer, p)
	}
	if b.status(p) != StatusOccupied {
		return fmt.Errorf("%w: %d", errs.ErrDoubleFree, p)
	}

	size := b.arena.BlockSize(p)
	b.setStatus(p, StatusFree)
	b.occupiedBlocks--
	b.occupiedBytes -= size

	block := p
	prev, err := b.arena.PreviousBlock(block)
	if err != nil {
		return b.corrupted("deallocate", err)
	}
	if prev != Nil && prev != b.binTable && b.status(prev) == StatusFree {
		b.detach(prev)
		if block, err = b.arena.MergeBlocks(prev, block); err != nil {
			return b.corrupted("deallocate", err)
		}
	}

	next, err := b.arena.NextBlock(block)
	if err != nil {
		return b.corrupted("deallocate", err)
	}
	if next != Nil && b.status(next) == StatusFree {
		b.detach(next)
		if block, err = b.arena.MergeBlocks(block, next); err != nil {
			return b.corrupted("deallocate", err)
		}
	}

	b.setStatus(block, StatusFree)
	b.attach(block)

	return nil
}

// AllocatedSize returns the usable size of p.
func (b *Binned) AllocatedSize(p Pointer) (int, error) {
	if err := b.checkOccupied(p); err != nil {
		return 0, err
	}

	return b.arena.BlockSize(p) - PayloadOffset, nil
}

// TotalAvailableSpace returns the summed size of all free blocks.
func (b *Binned) TotalAvailableSpace() int {
	return b.freeBytes
}

// Capacity returns the arena capacity.
func (b *Binned) Capacity() int {
	return b.arena.Capacity()
}

// Engine returns the byte order of the arena.
func (b *Binned) Engine() endian.EndianEngine {
	return b.arena.Engine()
}

// Close releases the arena.
func (b *Binned) Close() error {
	return b.arena.Release()
}

// findFree returns the first block of at least size bytes, scanning bins from
// the class of size upward, or Nil.
func (b *Binned) findFree(size int) Pointer {
	for bin := bitsize.ClassIndex(size); bin < b.numBins; bin++ {
		for cur := b.binHead(bin); cur != Nil; cur = b.nextFree(cur) {
			if b.arena.BlockSize(cur) >= size {
				return cur
			}
		}
	}

	return Nil
}

func (b *Binned) status(p Pointer) byte {
	return b.arena.Uint8(int(p) + statusOffset)
}

func (b *Binned) setStatus(p Pointer, s byte) {
	b.arena.PutUint8(int(p)+statusOffset, s)
}

func (b *Binned) corrupted(op string, err error) error {
	b.logger.LogAttrs(context.Background(), slog.LevelError, "arena corrupted",
		slog.String("op", op),
		slog.Any("error", err),
	)

	return err
}
