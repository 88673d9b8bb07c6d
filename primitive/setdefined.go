package primitive

import (
	"fmt"
	"math"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
)

// MaxStandardLen is the largest standard encoding of a fixed-size primitive
// (a Real with a full 8-byte mantissa, or a 12-byte DateTime).
const MaxStandardLen = 12

// HasWidePrefix reports whether a standard type carried in set data uses an ob16
// length prefix (buffers, strings, arrays) rather than a one-byte prefix.
func HasWidePrefix(dt format.DataType) bool {
	switch dt { //nolint: exhaustive
	case format.Buffer, format.AsciiString, format.Utf8String, format.RmtesString, format.Array:
		return true
	default:
		return false
	}
}

// SetLen returns the encoded size of v in the set-defined form dt. A nil v is blank.
func SetLen(dt format.DataType, v Value) (int, error) {
	if dt == format.Real4RB || dt == format.Real8RB {
		if v == nil {
			return realRBLen(dt, nil), nil
		}
		r, ok := v.(Real)
		if !ok {
			return 0, mismatch(dt, v)
		}

		return realRBLen(dt, &r), nil
	}

	n := dt.FixedSize()
	if n == 0 {
		return 0, fmt.Errorf("%w: %s is not a set-defined type", errs.ErrUnsupportedDataType, dt)
	}

	return n, nil
}

// PutSet writes v in the set-defined form dt and returns the number of bytes written.
// dst must hold SetLen bytes. Only the real forms can carry a blank (nil) value.
func PutSet(dst []byte, dt format.DataType, v Value) (int, error) {
	if v == nil {
		if dt == format.Real4RB || dt == format.Real8RB {
			return putRealRB(dst, dt, nil)
		}

		return 0, fmt.Errorf("%w: %s cannot carry a blank value", errs.ErrInvalidData, dt)
	}

	if v.DataType() != dt.BaseType() {
		return 0, mismatch(dt, v)
	}

	switch dt { //nolint: exhaustive
	case format.Int1, format.Int2, format.Int4, format.Int8:
		n := dt.FixedSize()
		iv := int64(v.(Int)) //nolint:forcetypeassert
		if n < 8 {
			lim := int64(1) << (n*8 - 1)
			if iv < -lim || iv >= lim {
				return 0, fmt.Errorf("%w: %d does not fit %s", errs.ErrValueOutOfRange, iv, dt)
			}
		}
		wire.PutInt(dst, iv, n)

		return n, nil
	case format.UInt1, format.UInt2, format.UInt4, format.UInt8:
		n := dt.FixedSize()
		uv := uint64(v.(UInt)) //nolint:forcetypeassert
		if n < 8 && uv >= uint64(1)<<(n*8) {
			return 0, fmt.Errorf("%w: %d does not fit %s", errs.ErrValueOutOfRange, uv, dt)
		}
		wire.PutUInt(dst, uv, n)

		return n, nil
	case format.Float4, format.Double8, format.Date4:
		return v.Put(dst), nil
	case format.Real4RB, format.Real8RB:
		r := v.(Real) //nolint:forcetypeassert
		return putRealRB(dst, dt, &r)
	case format.Time3, format.Time5, format.Time7, format.Time8:
		n := dt.FixedSize()
		v.(Time).putN(dst, n) //nolint:forcetypeassert

		return n, nil
	case format.DateTime7, format.DateTime9, format.DateTime11, format.DateTime12:
		n := dt.FixedSize()
		d := v.(DateTime) //nolint:forcetypeassert
		d.Date.Put(dst)
		d.Time.putN(dst[dateLen:], n-dateLen)

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a set-defined type", errs.ErrUnsupportedDataType, dt)
	}
}

// ReadSet reads one value of set-defined type dt from the front of src and returns
// its standard encoding together with the number of bytes consumed. The real forms
// are re-encoded into scratch, which must hold MaxStandardLen bytes; every other form
// aliases src. A blank value returns an empty slice.
func ReadSet(src []byte, dt format.DataType, scratch []byte) ([]byte, int, error) {
	if dt == format.Real4RB || dt == format.Real8RB {
		r, isBlank, n, err := readRealRB(src, dt)
		if err != nil || isBlank {
			return nil, n, err
		}

		return scratch[:r.Put(scratch)], n, nil
	}

	n := dt.FixedSize()
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: %s is not a set-defined type", errs.ErrUnsupportedDataType, dt)
	}
	if len(src) < n {
		return nil, 0, fmt.Errorf("%w: %s needs %d bytes", errs.ErrIncompleteData, dt, n)
	}

	return src[:n], n, nil
}

// ArrayItemType returns the form used for array items of primitive type dt with the
// given fixed itemLength: a set-defined fixed-width type for numeric, date and time
// items, or dt itself for buffers and strings (raw bytes of exactly itemLength) and
// for variable-length items (itemLength 0).
func ArrayItemType(dt format.DataType, itemLength int) (format.DataType, error) {
	if itemLength == 0 {
		return dt, nil
	}

	var forms map[int]format.DataType
	switch dt { //nolint: exhaustive
	case format.Int:
		forms = map[int]format.DataType{1: format.Int1, 2: format.Int2, 4: format.Int4, 8: format.Int8}
	case format.UInt:
		forms = map[int]format.DataType{1: format.UInt1, 2: format.UInt2, 4: format.UInt4, 8: format.UInt8}
	case format.Enum:
		forms = map[int]format.DataType{1: format.UInt1, 2: format.UInt2}
	case format.Float:
		forms = map[int]format.DataType{4: format.Float4}
	case format.Double:
		forms = map[int]format.DataType{8: format.Double8}
	case format.Date:
		forms = map[int]format.DataType{4: format.Date4}
	case format.Time:
		forms = map[int]format.DataType{3: format.Time3, 5: format.Time5, 7: format.Time7, 8: format.Time8}
	case format.DateTime:
		forms = map[int]format.DataType{7: format.DateTime7, 9: format.DateTime9, 11: format.DateTime11, 12: format.DateTime12}
	case format.Buffer, format.AsciiString, format.Utf8String, format.RmtesString:
		if itemLength <= math.MaxUint8 {
			return dt, nil
		}
	}

	if t, ok := forms[itemLength]; ok {
		return t, nil
	}

	return 0, fmt.Errorf("%w: %s cannot have fixed item length %d", errs.ErrInvalidArgument, dt, itemLength)
}

func mismatch(dt format.DataType, v Value) error {
	return fmt.Errorf("%w: %s value for %s slot", errs.ErrInvalidData, v.DataType(), dt)
}
