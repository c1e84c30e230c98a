// Package compress provides the codecs used to pack arena images.
//
// Arena images are mostly zero-filled free space with islands of encoded
// objects, so even fast codecs reach high ratios. Four codecs are available:
//
//	format.CompressionNone  pass-through, for debugging image layout
//	format.CompressionZstd  best ratio, pooled klauspost/compress encoders
//	format.CompressionS2    fastest, klauspost/compress/s2 block format
//	format.CompressionLZ4   fast, pierrec/lz4 block format
//
// Use GetCodec for the shared built-in instances:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//		return err
//	}
//	packed, err := codec.Compress(raw)
//
// All codecs are safe for concurrent use.
package compress
