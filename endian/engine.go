// Package endian provides the byte order used by the rwf wire format.
//
// RWF is a network protocol: every multi-byte integer, length and float on the wire is
// big-endian regardless of the host. The codec reaches all fixed-width reads and writes
// through Network() so the byte order is decided in exactly one place.
//
//	engine := endian.Network()
//	engine.PutUint16(dst, count)
//	dst = engine.AppendUint32(dst, hint)
//
// # Thread Safety
//
// The returned EndianEngine is immutable and stateless; it is safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Network returns the wire byte order of RWF (big-endian).
func Network() EndianEngine {
	return binary.BigEndian
}
