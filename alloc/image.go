package alloc

import (
	"bytes"
	"fmt"

	"github.com/arloliu/sos/arena"
	"github.com/arloliu/sos/compress"
	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/format"
	"github.com/arloliu/sos/internal/bitsize"
	"github.com/arloliu/sos/internal/hash"
	"github.com/arloliu/sos/internal/pool"
)

const (
	imageMagic      = "SOSI"
	imageVersion    = 1
	imageHeaderSize = 32
)

// ImageStats describes an arena image without rebuilding an allocator from it.
type ImageStats struct {
	Compression      string `json:"compression"`
	ByteOrder        string `json:"byte_order"`
	ImageSize        int    `json:"image_size"`
	Capacity         int    `json:"capacity"`
	NumBins          int    `json:"num_bins"`
	TotalBlocks      int    `json:"total_blocks"`
	FreeBlocks       int    `json:"free_blocks"`
	FreeBytes        int    `json:"free_bytes"`
	OccupiedBlocks   int    `json:"occupied_blocks"`
	OccupiedBytes    int    `json:"occupied_bytes"`
	LargestFreeBlock int    `json:"largest_free_block"`
}

// Image snapshots the raw arena bytes into a compressed, checksummed image.
//
// The image is a diagnostic artifact for offline inspection with InspectImage;
// nothing restores an allocator from it.
//
// Layout, header fields little-endian:
//
//	[0, 4)   magic "SOSI"
//	[4]      version
//	[5]      compression type
//	[6]      arena byte order
//	[7]      reserved
//	[8, 12)  capacity
//	[12, 16) block count
//	[16, 20) raw length
//	[20, 24) bin count
//	[24, 32) xxHash64 of the raw arena
//	[32, ..) compressed raw arena
func (b *Binned) Image(compression format.CompressionType) ([]byte, error) {
	if b.arena.Released() {
		return nil, errs.ErrArenaReleased
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	raw := b.arena.Raw()
	payload, err := codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress arena image: %w", err)
	}

	le := endian.GetLittleEndianEngine()
	bb := pool.GetImageBuffer()
	defer pool.PutImageBuffer(bb)

	bb.Grow(imageHeaderSize + len(payload))
	bb.MustWrite([]byte(imageMagic))
	bb.B = append(bb.B, imageVersion, byte(compression), endian.ID(b.arena.Engine()), 0)
	bb.B = le.AppendUint32(bb.B, uint32(b.arena.Capacity()))
	bb.B = le.AppendUint32(bb.B, uint32(b.arena.NumBlocks()))
	bb.B = le.AppendUint32(bb.B, uint32(len(raw)))
	bb.B = le.AppendUint32(bb.B, uint32(b.numBins))
	bb.B = le.AppendUint64(bb.B, hash.Checksum(raw))
	bb.MustWrite(payload)

	return bytes.Clone(bb.Bytes()), nil
}

// InspectImage validates an arena image and summarizes its blocks.
//
// Returns errs.ErrInvalidImage for malformed headers, errs.ErrChecksumMismatch
// when the decompressed bytes do not match, and errs.ErrCorruptedBlock when the
// boundary tags do not tile the arena.
func InspectImage(data []byte) (ImageStats, error) {
	var stats ImageStats
	if len(data) < imageHeaderSize || string(data[:4]) != imageMagic {
		return stats, fmt.Errorf("%w: missing header", errs.ErrInvalidImage)
	}
	if data[4] != imageVersion {
		return stats, fmt.Errorf("%w: version %d", errs.ErrInvalidImage, data[4])
	}

	compression := format.CompressionType(data[5])
	engine, ok := endian.FromID(data[6])
	if !ok {
		return stats, fmt.Errorf("%w: byte order %d", errs.ErrInvalidImage, data[6])
	}

	le := endian.GetLittleEndianEngine()
	capacity := int(le.Uint32(data[8:12]))
	blocks := int(le.Uint32(data[12:16]))
	rawLen := int(le.Uint32(data[16:20]))
	numBins := int(le.Uint32(data[20:24]))
	checksum := le.Uint64(data[24:32])

	if rawLen != capacity || numBins != bitsize.BitsNeeded(capacity) {
		return stats, fmt.Errorf("%w: capacity %d, raw length %d, bins %d", errs.ErrInvalidImage, capacity, rawLen, numBins)
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", errs.ErrInvalidImage, err)
	}

	raw, err := codec.Decompress(data[imageHeaderSize:])
	if err != nil {
		return stats, fmt.Errorf("%w: %w", errs.ErrInvalidImage, err)
	}
	if len(raw) != rawLen {
		return stats, fmt.Errorf("%w: decompressed %d bytes, expected %d", errs.ErrInvalidImage, len(raw), rawLen)
	}
	if hash.Checksum(raw) != checksum {
		return stats, errs.ErrChecksumMismatch
	}

	a, err := arena.Inspect(raw, engine)
	if err != nil {
		return stats, err
	}
	if a.NumBlocks() != blocks {
		return stats, fmt.Errorf("%w: %d blocks, header says %d", errs.ErrCorruptedBlock, a.NumBlocks(), blocks)
	}

	stats = ImageStats{
		Compression: compression.String(),
		ByteOrder:   "little",
		ImageSize:   len(data),
		Capacity:    capacity,
		NumBins:     numBins,
		TotalBlocks: blocks,
	}
	if engine == endian.GetBigEndianEngine() {
		stats.ByteOrder = "big"
	}

	err = a.Walk(func(p Pointer, size int) bool {
		switch {
		case p == arena.First:
		case a.Uint8(int(p)+statusOffset) == StatusOccupied:
			stats.OccupiedBlocks++
			stats.OccupiedBytes += size
		default:
			stats.FreeBlocks++
			stats.FreeBytes += size
			stats.LargestFreeBlock = max(stats.LargestFreeBlock, size)
		}

		return true
	})

	return stats, err
}
