package primitive

import (
	"math"
	"strconv"

	"github.com/arloliu/rwf/endian"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
)

var engine = endian.Network()

// Int is a signed 64-bit integer, encoded with the fewest bytes that hold it.
type Int int64

func (v Int) DataType() format.DataType { return format.Int }
func (v Int) Len() int                  { return wire.IntLen(int64(v)) }
func (v Int) String() string            { return strconv.FormatInt(int64(v), 10) }

func (v Int) Put(dst []byte) int {
	n := v.Len()
	wire.PutInt(dst, int64(v), n)

	return n
}

// DecodeInt decodes a standard Int.
func DecodeInt(src []byte) (Int, error) {
	if len(src) == 0 {
		return 0, blank(format.Int)
	}

	v, err := wire.ReadInt(src)

	return Int(v), err
}

// UInt is an unsigned 64-bit integer, encoded with the fewest bytes that hold it.
type UInt uint64

func (v UInt) DataType() format.DataType { return format.UInt }
func (v UInt) Len() int                  { return wire.UIntLen(uint64(v)) }
func (v UInt) String() string            { return strconv.FormatUint(uint64(v), 10) }

func (v UInt) Put(dst []byte) int {
	n := v.Len()
	wire.PutUInt(dst, uint64(v), n)

	return n
}

// DecodeUInt decodes a standard UInt.
func DecodeUInt(src []byte) (UInt, error) {
	if len(src) == 0 {
		return 0, blank(format.UInt)
	}

	v, err := wire.ReadUInt(src)

	return UInt(v), err
}

// Enum is an enumerated value, encoded in one or two bytes.
type Enum uint16

func (v Enum) DataType() format.DataType { return format.Enum }
func (v Enum) Len() int                  { return wire.UIntLen(uint64(v)) }
func (v Enum) String() string            { return strconv.FormatUint(uint64(v), 10) }

func (v Enum) Put(dst []byte) int {
	n := v.Len()
	wire.PutUInt(dst, uint64(v), n)

	return n
}

// DecodeEnum decodes a standard Enum.
func DecodeEnum(src []byte) (Enum, error) {
	if len(src) == 0 {
		return 0, blank(format.Enum)
	}
	if len(src) > 2 {
		return 0, badLength(format.Enum, len(src))
	}

	v, err := wire.ReadUInt(src)

	return Enum(v), err //nolint:gosec
}

// Float is a 4-byte IEEE-754 value.
type Float float32

func (v Float) DataType() format.DataType { return format.Float }
func (v Float) Len() int                  { return 4 }
func (v Float) String() string            { return strconv.FormatFloat(float64(v), 'g', -1, 32) }

func (v Float) Put(dst []byte) int {
	engine.PutUint32(dst, math.Float32bits(float32(v)))
	return 4
}

// DecodeFloat decodes a standard Float.
func DecodeFloat(src []byte) (Float, error) {
	switch len(src) {
	case 0:
		return 0, blank(format.Float)
	case 4:
		return Float(math.Float32frombits(engine.Uint32(src))), nil
	default:
		return 0, badLength(format.Float, len(src))
	}
}

// Double is an 8-byte IEEE-754 value.
type Double float64

func (v Double) DataType() format.DataType { return format.Double }
func (v Double) Len() int                  { return 8 }
func (v Double) String() string            { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

func (v Double) Put(dst []byte) int {
	engine.PutUint64(dst, math.Float64bits(float64(v)))
	return 8
}

// DecodeDouble decodes a standard Double.
func DecodeDouble(src []byte) (Double, error) {
	switch len(src) {
	case 0:
		return 0, blank(format.Double)
	case 8:
		return Double(math.Float64frombits(engine.Uint64(src))), nil
	default:
		return 0, badLength(format.Double, len(src))
	}
}
