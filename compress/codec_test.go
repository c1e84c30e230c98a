package compress

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/arloliu/sos/format"
	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

// arenaLike builds a buffer shaped like an arena: tagged blocks with small
// payloads separated by zero-filled free space.
func arenaLike(size int) []byte {
	buf := make([]byte, size)
	for off := 0; off+64 <= size; off += 512 {
		binary.LittleEndian.PutUint32(buf[off:], 56)
		buf[off+4] = 127
		copy(buf[off+5:], "key\x07\x05value")
		binary.LittleEndian.PutUint32(buf[off+60:], 56)
	}

	return buf
}

func TestGetCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0x7f))
	require.ErrorContains(t, err, "unsupported compression type")
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Nil(t, compressed)

			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Nil(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"single_byte", []byte{0x42}},
		{"small_text", []byte("Hello, World!")},
		{"repeated_pattern", bytes.Repeat([]byte("ABCD"), 100)},
		{"arena_64k", arenaLike(64 * 1024)},
		{"empty_arena_1m", make([]byte, 1024*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalid := [][]byte{
		{0xFF, 0xFF, 0xFF, 0xFF},
		[]byte("this is not compressed data"),
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}

		t.Run(codecName, func(t *testing.T) {
			for _, data := range invalid {
				_, err := codec.Decompress(data)
				require.Error(t, err)
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := arenaLike(16 * 1024)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			var wg sync.WaitGroup
			errCh := make(chan error, 16)
			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					compressed, err := codec.Compress(data)
					if err != nil {
						errCh <- err
						return
					}
					out, err := codec.Decompress(compressed)
					if err != nil {
						errCh <- err
						return
					}
					if !bytes.Equal(out, data) {
						errCh <- bytes.ErrTooLarge
					}
				}()
			}
			wg.Wait()
			close(errCh)

			for err := range errCh {
				require.NoError(t, err)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	data := arenaLike(64 * 1024)

	stats, err := Measure(NewZstdCompressor(), format.CompressionZstd, data)
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, stats.Algorithm)
	require.Equal(t, int64(len(data)), stats.OriginalSize)
	require.Less(t, stats.CompressionRatio(), 0.5)
	require.Greater(t, stats.SpaceSavings(), 50.0)

	stats, err = Measure(NewNoOpCompressor(), format.CompressionNone, data)
	require.NoError(t, err)
	require.InDelta(t, 1.0, stats.CompressionRatio(), 1e-9)

	require.Zero(t, CompressionStats{}.CompressionRatio())
}
