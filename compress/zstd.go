package compress

// ZstdCompressor compresses with Zstandard. The implementation is selected at build
// time: valyala/gozstd with cgo, klauspost/compress/zstd without.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor returns a Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
