package primitive

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
)

// RealHint scales the mantissa of a Real, either as a power of ten or as a binary fraction.
type RealHint uint8

const (
	ExponentNeg14 RealHint = 0
	ExponentNeg13 RealHint = 1
	ExponentNeg12 RealHint = 2
	ExponentNeg11 RealHint = 3
	ExponentNeg10 RealHint = 4
	ExponentNeg9  RealHint = 5
	ExponentNeg8  RealHint = 6
	ExponentNeg7  RealHint = 7
	ExponentNeg6  RealHint = 8
	ExponentNeg5  RealHint = 9
	ExponentNeg4  RealHint = 10
	ExponentNeg3  RealHint = 11
	ExponentNeg2  RealHint = 12
	ExponentNeg1  RealHint = 13
	Exponent0     RealHint = 14
	Exponent1     RealHint = 15
	Exponent2     RealHint = 16
	Exponent3     RealHint = 17
	Exponent4     RealHint = 18
	Exponent5     RealHint = 19
	Exponent6     RealHint = 20
	Exponent7     RealHint = 21
	Fraction1     RealHint = 22
	Fraction2     RealHint = 23
	Fraction4     RealHint = 24
	Fraction8     RealHint = 25
	Fraction16    RealHint = 26
	Fraction32    RealHint = 27
	Fraction64    RealHint = 28
	Fraction128   RealHint = 29
	Fraction256   RealHint = 30
	Infinity      RealHint = 33
	NegInfinity   RealHint = 34
	NotANumber    RealHint = 35
)

// real RB forms: (lenCode << 6) | blank | hint
const (
	rbBlankFlag = 0x20
	rbHintMask  = 0x1F
)

// Real is a scaled decimal: Value × 10^(Hint-14) for exponent hints, or
// Value / 2^(Hint-22) for fraction hints.
type Real struct {
	Value int64
	Hint  RealHint
}

// NewReal creates a Real from a mantissa and hint.
func NewReal(value int64, hint RealHint) Real {
	return Real{Value: value, Hint: hint}
}

// RealFromFloat64 converts f to a Real at the given exponent hint, rounding to the nearest unit.
func RealFromFloat64(f float64, hint RealHint) Real {
	switch {
	case math.IsNaN(f):
		return Real{Hint: NotANumber}
	case math.IsInf(f, 1):
		return Real{Hint: Infinity}
	case math.IsInf(f, -1):
		return Real{Hint: NegInfinity}
	}

	if hint >= Fraction1 && hint <= Fraction256 {
		return Real{Value: int64(math.Round(f * math.Exp2(float64(hint-Fraction1)))), Hint: hint}
	}

	return Real{Value: int64(math.Round(f * math.Pow10(int(Exponent0)-int(hint)))), Hint: hint}
}

// IsSpecial reports whether r is Infinity, NegInfinity or NotANumber.
func (r Real) IsSpecial() bool {
	return r.Hint == Infinity || r.Hint == NegInfinity || r.Hint == NotANumber
}

// Float64 returns r as a float64.
func (r Real) Float64() float64 {
	switch {
	case r.Hint == Infinity:
		return math.Inf(1)
	case r.Hint == NegInfinity:
		return math.Inf(-1)
	case r.Hint == NotANumber:
		return math.NaN()
	case r.Hint >= Fraction1:
		return float64(r.Value) / math.Exp2(float64(r.Hint-Fraction1))
	default:
		return float64(r.Value) * math.Pow10(int(r.Hint)-int(Exponent0))
	}
}

func (r Real) DataType() format.DataType { return format.Real }

func (r Real) Len() int {
	if r.IsSpecial() {
		return 1
	}

	return 1 + wire.IntLen(r.Value)
}

func (r Real) Put(dst []byte) int {
	dst[0] = byte(r.Hint)
	if r.IsSpecial() {
		return 1
	}

	n := wire.IntLen(r.Value)
	wire.PutInt(dst[1:], r.Value, n)

	return 1 + n
}

func (r Real) String() string {
	switch r.Hint {
	case Infinity:
		return "Inf"
	case NegInfinity:
		return "-Inf"
	case NotANumber:
		return "NaN"
	}

	if r.Hint >= Fraction1 {
		return strconv.FormatFloat(r.Float64(), 'f', -1, 64)
	}

	scale := int(Exponent0) - int(r.Hint)
	if scale <= 0 {
		return strconv.FormatFloat(r.Float64(), 'f', 0, 64)
	}

	return strconv.FormatFloat(r.Float64(), 'f', scale, 64)
}

func (r Real) validHint() bool {
	return r.Hint <= Fraction256 || r.IsSpecial()
}

// DecodeReal decodes a standard Real.
func DecodeReal(src []byte) (Real, error) {
	if len(src) == 0 {
		return Real{}, blank(format.Real)
	}

	r := Real{Hint: RealHint(src[0])}
	if !r.validHint() {
		return Real{}, fmt.Errorf("%w: real hint %d", errs.ErrInvalidData, src[0])
	}

	if len(src) == 1 {
		if !r.IsSpecial() {
			return Real{}, badLength(format.Real, 1)
		}

		return r, nil
	}

	v, err := wire.ReadInt(src[1:])
	if err != nil {
		return Real{}, err
	}
	r.Value = v

	return r, nil
}

// rbMantissaLen returns the mantissa width of a Real4RB/Real8RB form for the given length code.
func rbMantissaLen(dt format.DataType, code byte) int {
	if dt == format.Real4RB {
		return int(code) + 1
	}

	return (int(code) + 1) * 2
}

// putRealRB writes r (or a blank when r is nil) in Real4RB or Real8RB form.
func putRealRB(dst []byte, dt format.DataType, r *Real) (int, error) {
	if r == nil {
		dst[0] = rbBlankFlag
		n := rbMantissaLen(dt, 0)
		clear(dst[1 : 1+n])

		return 1 + n, nil
	}

	if r.IsSpecial() || r.Hint > Fraction256 {
		return 0, fmt.Errorf("%w: hint %d cannot be set-encoded", errs.ErrValueOutOfRange, r.Hint)
	}

	need := wire.IntLen(r.Value)
	maxCode := byte(3)
	for code := byte(0); code <= maxCode; code++ {
		n := rbMantissaLen(dt, code)
		if n < need {
			continue
		}
		dst[0] = code<<6 | byte(r.Hint)
		wire.PutInt(dst[1:], r.Value, n)

		return 1 + n, nil
	}

	return 0, fmt.Errorf("%w: mantissa %d does not fit %s", errs.ErrValueOutOfRange, r.Value, dt)
}

// realRBLen returns the encoded size of r in Real4RB or Real8RB form.
func realRBLen(dt format.DataType, r *Real) int {
	if r == nil {
		return 1 + rbMantissaLen(dt, 0)
	}

	need := wire.IntLen(r.Value)
	for code := byte(0); code <= 3; code++ {
		if n := rbMantissaLen(dt, code); n >= need {
			return 1 + n
		}
	}

	return 1 + rbMantissaLen(dt, 3)
}

// readRealRB reads a Real4RB/Real8RB form, returning the Real, whether it is blank,
// and the number of bytes consumed.
func readRealRB(src []byte, dt format.DataType) (Real, bool, int, error) {
	if len(src) < 1 {
		return Real{}, false, 0, fmt.Errorf("%w: %s", errs.ErrIncompleteData, dt)
	}

	n := rbMantissaLen(dt, src[0]>>6)
	if len(src) < 1+n {
		return Real{}, false, 0, fmt.Errorf("%w: %s", errs.ErrIncompleteData, dt)
	}

	if src[0]&rbBlankFlag != 0 {
		return Real{}, true, 1 + n, nil
	}

	v, err := wire.ReadInt(src[1 : 1+n])
	if err != nil {
		return Real{}, false, 0, err
	}

	return Real{Value: v, Hint: RealHint(src[0] & rbHintMask)}, false, 1 + n, nil
}
