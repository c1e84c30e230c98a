package alloc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arloliu/sos/arena"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/internal/bitsize"
)

// Stats is a snapshot of allocator bookkeeping.
type Stats struct {
	Capacity         int `json:"capacity"`
	NumBins          int `json:"num_bins"`
	BinTableSize     int `json:"bin_table_size"`
	TotalBlocks      int `json:"total_blocks"`
	FreeBlocks       int `json:"free_blocks"`
	FreeBytes        int `json:"free_bytes"`
	OccupiedBlocks   int `json:"occupied_blocks"`
	OccupiedBytes    int `json:"occupied_bytes"`
	LargestFreeBlock int `json:"largest_free_block"`
}

// Overhead returns the bytes spent on tags and the bin table.
func (s Stats) Overhead() int {
	return s.Capacity - s.FreeBytes - s.OccupiedBytes
}

// Stats returns the current counters and the size of the largest free block.
func (b *Binned) Stats() Stats {
	s := Stats{
		Capacity:       b.arena.Capacity(),
		NumBins:        b.numBins,
		BinTableSize:   b.binTableSize,
		TotalBlocks:    b.arena.NumBlocks(),
		FreeBlocks:     b.freeBlocks,
		FreeBytes:      b.freeBytes,
		OccupiedBlocks: b.occupiedBlocks,
		OccupiedBytes:  b.occupiedBytes,
	}
	if b.arena.Released() {
		return s
	}

	for bin := b.numBins - 1; bin >= 0; bin-- {
		for cur := b.binHead(bin); cur != Nil; cur = b.nextFree(cur) {
			s.LargestFreeBlock = max(s.LargestFreeBlock, b.arena.BlockSize(cur))
		}
		if s.LargestFreeBlock > 0 {
			break
		}
	}

	return s
}

// Verify checks the arena structure, every bin list and the counters.
//
// It recounts free blocks through the bins and occupied blocks through an
// arena walk, then requires
//
//	free + occupied + 1 == total blocks
//	freeBytes + occupiedBytes + binTableSize + blocks*arena.BlockOverhead == capacity
func (b *Binned) Verify() error {
	if err := b.arena.Verify(); err != nil {
		return err
	}

	freeBlocks, freeBytes, err := b.verifyBins()
	if err != nil {
		return err
	}
	if freeBlocks != b.freeBlocks || freeBytes != b.freeBytes {
		return fmt.Errorf("%w: bins hold %d blocks/%d bytes, counters say %d/%d",
			errs.ErrIntegrity, freeBlocks, freeBytes, b.freeBlocks, b.freeBytes)
	}

	occupiedBlocks, occupiedBytes := 0, 0
	walkErr := b.arena.Walk(func(p Pointer, size int) bool {
		if p != b.binTable && b.status(p) == StatusOccupied {
			occupiedBlocks++
			occupiedBytes += size
		}

		return true
	})
	if walkErr != nil {
		return walkErr
	}
	if occupiedBlocks != b.occupiedBlocks || occupiedBytes != b.occupiedBytes {
		return fmt.Errorf("%w: arena holds %d occupied blocks/%d bytes, counters say %d/%d",
			errs.ErrIntegrity, occupiedBlocks, occupiedBytes, b.occupiedBlocks, b.occupiedBytes)
	}

	blocks := b.arena.NumBlocks()
	if freeBlocks+occupiedBlocks+1 != blocks {
		return fmt.Errorf("%w: %d free + %d occupied + bin table != %d blocks",
			errs.ErrIntegrity, freeBlocks, occupiedBlocks, blocks)
	}

	total := freeBytes + occupiedBytes + b.binTableSize + blocks*arena.BlockOverhead
	if total != b.arena.Capacity() {
		return fmt.Errorf("%w: accounted %d bytes of %d", errs.ErrIntegrity, total, b.arena.Capacity())
	}

	return nil
}

func (b *Binned) verifyBins() (int, int, error) {
	freeBlocks, freeBytes := 0, 0
	limit := b.arena.NumBlocks()

	for bin := range b.numBins {
		prev, prevSize := Nil, 0
		for cur := b.binHead(bin); cur != Nil; cur = b.nextFree(cur) {
			if !b.arena.IsBlock(cur) {
				return 0, 0, fmt.Errorf("%w: bin %d links bad block %d", errs.ErrCorruptedBlock, bin, cur)
			}

			size := b.arena.BlockSize(cur)
			switch {
			case b.status(cur) != StatusFree:
				return 0, 0, fmt.Errorf("%w: block %d in bin %d is not free", errs.ErrIntegrity, cur, bin)
			case bitsize.ClassIndex(size) != bin:
				return 0, 0, fmt.Errorf("%w: block %d of %d bytes in bin %d", errs.ErrIntegrity, cur, size, bin)
			case b.prevFree(cur) != prev:
				return 0, 0, fmt.Errorf("%w: block %d back link %d, expected %d", errs.ErrIntegrity, cur, b.prevFree(cur), prev)
			case size < prevSize:
				return 0, 0, fmt.Errorf("%w: bin %d not sorted at block %d", errs.ErrIntegrity, bin, cur)
			}

			freeBlocks++
			freeBytes += size
			if freeBlocks > limit {
				return 0, 0, fmt.Errorf("%w: bin %d has a cycle", errs.ErrIntegrity, bin)
			}
			prev, prevSize = cur, size
		}
	}

	return freeBlocks, freeBytes, nil
}

// VerifyIntegrity reports whether Verify succeeds, logging the failure.
func (b *Binned) VerifyIntegrity() bool {
	err := b.Verify()
	if err == nil {
		return true
	}

	b.logger.LogAttrs(context.Background(), slog.LevelError, "allocator integrity check failed",
		slog.Any("error", err),
		slog.Int("free_blocks", b.freeBlocks),
		slog.Int("free_bytes", b.freeBytes),
		slog.Int("occupied_blocks", b.occupiedBlocks),
		slog.Int("occupied_bytes", b.occupiedBytes),
	)

	return false
}

// Details returns a one-line summary of the allocator counters.
func (b *Binned) Details() string {
	s := b.Stats()

	return fmt.Sprintf("capacity=%d bins=%d bin_table=%d blocks=%d free=%d/%dB occupied=%d/%dB largest_free=%d",
		s.Capacity, s.NumBins, s.BinTableSize, s.TotalBlocks,
		s.FreeBlocks, s.FreeBytes, s.OccupiedBlocks, s.OccupiedBytes, s.LargestFreeBlock)
}

// String returns Details wrapped in the type name.
func (b *Binned) String() string {
	return "Binned{" + b.Details() + "}"
}

// Layout renders every non-empty bin followed by every block with its status.
func (b *Binned) Layout() string {
	var sb strings.Builder
	sb.WriteString(b.Details())
	sb.WriteByte('\n')

	for bin := range b.numBins {
		head := b.binHead(bin)
		if head == Nil {
			continue
		}

		fmt.Fprintf(&sb, "bin %2d [%d, %d]:", bin, 1<<bin, 1<<(bin+1)-1)
		for cur := head; cur != Nil; cur = b.nextFree(cur) {
			fmt.Fprintf(&sb, " %d(%d)", cur, b.arena.BlockSize(cur))
		}
		sb.WriteByte('\n')
	}

	err := b.arena.Walk(func(p Pointer, size int) bool {
		state := "free"
		switch {
		case p == b.binTable:
			state = "bins"
		case b.status(p) == StatusOccupied:
			state = "used"
		}
		fmt.Fprintf(&sb, "block %d size=%d %s\n", p, size, state)

		return true
	})
	if err != nil {
		fmt.Fprintf(&sb, "walk stopped: %v\n", err)
	}

	return sb.String()
}
