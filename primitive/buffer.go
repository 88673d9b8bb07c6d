package primitive

import (
	"github.com/arloliu/rwf/format"
)

// Buffer is an opaque byte sequence.
type Buffer []byte

func (b Buffer) DataType() format.DataType { return format.Buffer }
func (b Buffer) Len() int                  { return len(b) }
func (b Buffer) Put(dst []byte) int        { return copy(dst, b) }
func (b Buffer) String() string            { return string(b) }

// AsciiString is a 7-bit ASCII string.
type AsciiString string

func (s AsciiString) DataType() format.DataType { return format.AsciiString }
func (s AsciiString) Len() int                  { return len(s) }
func (s AsciiString) Put(dst []byte) int        { return copy(dst, s) }
func (s AsciiString) String() string            { return string(s) }

// Utf8String is a UTF-8 string.
type Utf8String string

func (s Utf8String) DataType() format.DataType { return format.Utf8String }
func (s Utf8String) Len() int                  { return len(s) }
func (s Utf8String) Put(dst []byte) int        { return copy(dst, s) }
func (s Utf8String) String() string            { return string(s) }

// RmtesString is an RMTES encoded string. The codec carries its bytes unchanged.
type RmtesString []byte

func (s RmtesString) DataType() format.DataType { return format.RmtesString }
func (s RmtesString) Len() int                  { return len(s) }
func (s RmtesString) Put(dst []byte) int        { return copy(dst, s) }
func (s RmtesString) String() string            { return string(s) }

// DecodeBuffer returns src as a Buffer. The result aliases src.
func DecodeBuffer(src []byte) (Buffer, error) {
	if len(src) == 0 {
		return nil, blank(format.Buffer)
	}

	return Buffer(src), nil
}

// DecodeAsciiString decodes a standard AsciiString.
func DecodeAsciiString(src []byte) (AsciiString, error) {
	if len(src) == 0 {
		return "", blank(format.AsciiString)
	}

	return AsciiString(src), nil
}

// DecodeUtf8String decodes a standard Utf8String.
func DecodeUtf8String(src []byte) (Utf8String, error) {
	if len(src) == 0 {
		return "", blank(format.Utf8String)
	}

	return Utf8String(src), nil
}

// DecodeRmtesString returns src as an RmtesString. The result aliases src.
func DecodeRmtesString(src []byte) (RmtesString, error) {
	if len(src) == 0 {
		return nil, blank(format.RmtesString)
	}

	return RmtesString(src), nil
}
