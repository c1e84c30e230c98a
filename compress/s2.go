package compress

import "github.com/klauspost/compress/s2"

// S2Compressor packs arena images with the S2 block format.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor returns the S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress returns nil for an empty arena payload.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress returns nil for an empty payload.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}

	return s2.Decode(make([]byte, n), data)
}
