package compress

import (
	"fmt"

	"github.com/arloliu/sos/format"
)

// Compressor compresses whole buffers.
type Compressor interface {
	// Compress returns the compressed form of data.
	//
	// The returned slice is owned by the caller, except for the no-op codec
	// which returns data itself. The input is never modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
type Decompressor interface {
	// Decompress returns the original bytes of data.
	//
	// Returns an error when data is corrupted or was produced by another algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats records the outcome of compressing one buffer.
type CompressionStats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// Measure compresses data with codec and reports the sizes.
func Measure(codec Codec, algorithm format.CompressionType, data []byte) (CompressionStats, error) {
	out, err := codec.Compress(data)
	if err != nil {
		return CompressionStats{}, err
	}

	return CompressionStats{
		Algorithm:      algorithm,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(out)),
	}, nil
}

// CompressionRatio returns compressed size / original size, or 0 for empty input.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
