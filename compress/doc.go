// Package compress provides the compression codecs used for stored dictionary
// snapshots.
//
// An RWF message itself is never compressed by this module; compression applies to
// the byte image of a global set definition dictionary saved with
// dictionary.SaveSnapshot, whose header records the algorithm so that
// dictionary.LoadSnapshot can pick the matching Decompressor.
//
// # Algorithms
//
//   - format.CompressionNone: returns the input unchanged
//   - format.CompressionZstd: best ratio; valyala/gozstd when cgo is enabled,
//     klauspost/compress/zstd otherwise
//   - format.CompressionS2: klauspost/compress/s2, fast with a good ratio
//   - format.CompressionLZ4: pierrec/lz4 block format, fastest decompression
//
// Dictionaries are small and highly repetitive (the same handful of type codes and
// ascending field ids), so Zstd is the default for snapshots.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionS2)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(image)
//	...
//	image, err = codec.Decompress(packed)
//
// Every codec is stateless from the caller's view and safe for concurrent use;
// encoders and decoders are pooled internally where the library benefits from reuse.
package compress
