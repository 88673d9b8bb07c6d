// Package wire implements the reduced-width integer forms RWF uses for lengths,
// counts, ids and trimmed primitive values.
//
//   - rb15: 1 byte when the value is < 0x80, otherwise 2 bytes with the high bit set.
//   - rb30: 1..4 bytes; the top two bits of the first byte hold the byte count minus one.
//   - ob16: 1 byte when the value is < 0xFE, otherwise 0xFE followed by a u16.
//     Decoding also accepts 0xFF followed by a u32.
//   - trimmed ints: the fewest big-endian bytes that represent the value.
//
// Put functions assume dst has room for the size reported by the matching Len function.
package wire

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/rwf/endian"
	"github.com/arloliu/rwf/errs"
)

const (
	MaxRB15 = 0x7FFF
	MaxRB30 = 0x3FFFFFFF
	MaxOB16 = 0xFFFF

	// OB16Escape introduces a two-byte length.
	OB16Escape = 0xFE
	// OB32Escape introduces a four-byte length.
	OB32Escape = 0xFF
)

var engine = endian.Network()

// RB15Len returns the encoded width of v in rb15 form.
func RB15Len(v uint16) int {
	if v < 0x80 {
		return 1
	}

	return 2
}

// PutRB15 writes v in rb15 form and returns the number of bytes written.
func PutRB15(dst []byte, v uint16) (int, error) {
	if v > MaxRB15 {
		return 0, fmt.Errorf("%w: %d exceeds rb15 maximum", errs.ErrValueOutOfRange, v)
	}

	if v < 0x80 {
		dst[0] = byte(v)
		return 1, nil
	}
	engine.PutUint16(dst, v|0x8000)

	return 2, nil
}

// ReadRB15 reads an rb15 value and returns it with the number of bytes consumed.
func ReadRB15(src []byte) (uint16, int, error) {
	if len(src) < 1 {
		return 0, 0, fmt.Errorf("%w: rb15", errs.ErrIncompleteData)
	}

	if src[0]&0x80 == 0 {
		return uint16(src[0]), 1, nil
	}

	if len(src) < 2 {
		return 0, 0, fmt.Errorf("%w: rb15", errs.ErrIncompleteData)
	}

	return engine.Uint16(src) & MaxRB15, 2, nil
}

// RB30Len returns the encoded width of v in rb30 form.
func RB30Len(v uint32) int {
	switch {
	case v < 0x40:
		return 1
	case v < 0x4000:
		return 2
	case v < 0x400000:
		return 3
	default:
		return 4
	}
}

// PutRB30 writes v in rb30 form and returns the number of bytes written.
func PutRB30(dst []byte, v uint32) (int, error) {
	if v > MaxRB30 {
		return 0, fmt.Errorf("%w: %d exceeds rb30 maximum", errs.ErrValueOutOfRange, v)
	}

	n := RB30Len(v)
	for i := n - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
	dst[0] |= byte(n-1) << 6

	return n, nil
}

// ReadRB30 reads an rb30 value and returns it with the number of bytes consumed.
func ReadRB30(src []byte) (uint32, int, error) {
	if len(src) < 1 {
		return 0, 0, fmt.Errorf("%w: rb30", errs.ErrIncompleteData)
	}

	n := int(src[0]>>6) + 1
	if len(src) < n {
		return 0, 0, fmt.Errorf("%w: rb30", errs.ErrIncompleteData)
	}

	v := uint32(src[0] & 0x3F)
	for i := 1; i < n; i++ {
		v = v<<8 | uint32(src[i])
	}

	return v, n, nil
}

// OB16Len returns the encoded width of v in ob16 form.
func OB16Len(v int) int {
	if v < OB16Escape {
		return 1
	}

	return 3
}

// PutOB16 writes v in ob16 form and returns the number of bytes written.
func PutOB16(dst []byte, v int) (int, error) {
	if v < 0 || v > MaxOB16 {
		return 0, fmt.Errorf("%w: length %d exceeds ob16 maximum", errs.ErrValueOutOfRange, v)
	}

	if v < OB16Escape {
		dst[0] = byte(v)
		return 1, nil
	}
	dst[0] = OB16Escape
	engine.PutUint16(dst[1:], uint16(v))

	return 3, nil
}

// ReadOB reads an ob16 (or ob32) length and returns it with the number of bytes consumed.
func ReadOB(src []byte) (int, int, error) {
	if len(src) < 1 {
		return 0, 0, fmt.Errorf("%w: length prefix", errs.ErrIncompleteData)
	}

	switch src[0] {
	case OB16Escape:
		if len(src) < 3 {
			return 0, 0, fmt.Errorf("%w: length prefix", errs.ErrIncompleteData)
		}

		return int(engine.Uint16(src[1:])), 3, nil
	case OB32Escape:
		if len(src) < 5 {
			return 0, 0, fmt.Errorf("%w: length prefix", errs.ErrIncompleteData)
		}
		n := engine.Uint32(src[1:])
		if n > math.MaxInt32 {
			return 0, 0, fmt.Errorf("%w: length %d", errs.ErrInvalidData, n)
		}

		return int(n), 5, nil
	default:
		return int(src[0]), 1, nil
	}
}

// IntLen returns the fewest bytes holding v in two's complement.
func IntLen(v int64) int {
	if v < 0 {
		v = ^v
	}

	return bits.Len64(uint64(v))/8 + 1
}

// PutInt writes v using exactly n big-endian bytes.
func PutInt(dst []byte, v int64, n int) {
	u := uint64(v) //nolint:gosec
	for i := n - 1; i >= 0; i-- {
		dst[i] = byte(u)
		u >>= 8
	}
}

// ReadInt sign-extends a 1..8 byte big-endian integer.
func ReadInt(src []byte) (int64, error) {
	if len(src) == 0 || len(src) > 8 {
		return 0, fmt.Errorf("%w: int of %d bytes", errs.ErrInvalidData, len(src))
	}

	v := int64(int8(src[0]))
	for _, b := range src[1:] {
		v = v<<8 | int64(b)
	}

	return v, nil
}

// UIntLen returns the fewest bytes holding v.
func UIntLen(v uint64) int {
	if v == 0 {
		return 1
	}

	return (bits.Len64(v) + 7) / 8
}

// PutUInt writes v using exactly n big-endian bytes.
func PutUInt(dst []byte, v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// ReadUInt reads a 1..8 byte big-endian unsigned integer.
func ReadUInt(src []byte) (uint64, error) {
	if len(src) == 0 || len(src) > 8 {
		return 0, fmt.Errorf("%w: uint of %d bytes", errs.ErrInvalidData, len(src))
	}

	var v uint64
	for _, b := range src {
		v = v<<8 | uint64(b)
	}

	return v, nil
}
