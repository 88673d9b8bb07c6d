// Package primitive implements the RWF primitive codec: the standard
// (length-specified) encodings of Int, UInt, Float, Double, Real, Date, Time,
// DateTime, Enum and the buffer/string types, plus the fixed-width forms used
// inside set-defined data.
//
// A standard encoding never carries its own length: the enclosing entry provides
// it. A zero-length encoding is blank for every type, and the typed decoders
// report it with errs.ErrBlankData.
//
//	v := primitive.Real{Value: 12345, Hint: primitive.ExponentNeg2}
//	buf := make([]byte, v.Len())
//	v.Put(buf)
//	back, err := primitive.DecodeReal(buf) // 123.45
package primitive

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
)

// Value is an unencoded primitive value.
type Value interface {
	// DataType returns the standard primitive type of the value.
	DataType() format.DataType
	// Len returns the size of the standard encoding.
	Len() int
	// Put writes the standard encoding into dst, which must hold Len bytes,
	// and returns the number of bytes written.
	Put(dst []byte) int
	fmt.Stringer
}

// Encode returns the standard encoding of v in a new slice.
func Encode(v Value) []byte {
	buf := make([]byte, v.Len())
	v.Put(buf)

	return buf
}

// Decode decodes the standard encoding of a value of type dt.
// A zero-length src returns errs.ErrBlankData.
func Decode(dt format.DataType, src []byte) (Value, error) {
	switch dt { //nolint: exhaustive
	case format.Int:
		return DecodeInt(src)
	case format.UInt:
		return DecodeUInt(src)
	case format.Float:
		return DecodeFloat(src)
	case format.Double:
		return DecodeDouble(src)
	case format.Real:
		return DecodeReal(src)
	case format.Date:
		return DecodeDate(src)
	case format.Time:
		return DecodeTime(src)
	case format.DateTime:
		return DecodeDateTime(src)
	case format.Enum:
		return DecodeEnum(src)
	case format.Buffer:
		return DecodeBuffer(src)
	case format.AsciiString:
		return DecodeAsciiString(src)
	case format.Utf8String:
		return DecodeUtf8String(src)
	case format.RmtesString:
		return DecodeRmtesString(src)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedDataType, dt)
	}
}

// ForVersion adapts v to what the given RWF minor version can carry.
// RWF 14.0 has millisecond time precision, so finer time fields are dropped.
func ForVersion(v Value, minor uint8) Value {
	if minor >= format.MinorVersion1 {
		return v
	}

	switch tv := v.(type) {
	case Time:
		return tv.truncateToMillis()
	case DateTime:
		tv.Time = tv.Time.truncateToMillis()
		return tv
	default:
		return v
	}
}

func blank(dt format.DataType) error {
	return fmt.Errorf("%w: %s", errs.ErrBlankData, dt)
}

func badLength(dt format.DataType, n int) error {
	return fmt.Errorf("%w: %s of %d bytes", errs.ErrInvalidData, dt, n)
}
