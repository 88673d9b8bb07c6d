package hash

import "github.com/cespare/xxhash/v2"

// Digest accumulates a fingerprint over typed fields.
type Digest struct {
	d   *xxhash.Digest
	buf [2]byte
}

// New returns an empty Digest.
func New() *Digest {
	return &Digest{d: xxhash.New()}
}

// WriteUint16 adds v in big-endian order.
func (h *Digest) WriteUint16(v uint16) {
	h.buf[0] = byte(v >> 8)
	h.buf[1] = byte(v)
	_, _ = h.d.Write(h.buf[:])
}

// WriteString adds s followed by a terminator so adjacent strings cannot alias.
func (h *Digest) WriteString(s string) {
	_, _ = h.d.WriteString(s)
	_, _ = h.d.Write([]byte{0})
}

// Sum64 returns the current fingerprint.
func (h *Digest) Sum64() uint64 {
	return h.d.Sum64()
}

// Checksum computes the xxHash64 of data.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
