package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// decodeArray decodes the array in the iterator's window and renders every item.
func decodeArray(t *testing.T, it *DecodeIterator) (Array, []string) {
	t.Helper()

	var a Array
	require.NoError(t, a.Decode(it))

	var out []string
	for {
		item, err := a.DecodeItem(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			return a, out
		}
		require.NoError(t, err)

		v, err := primitive.Decode(a.PrimitiveType, item)
		if errors.Is(err, errs.ErrBlankData) {
			out = append(out, "blank")
			continue
		}
		require.NoError(t, err)
		out = append(out, v.String())
	}
}

func TestArray_VariableLengthItems(t *testing.T) {
	it := newEncoder(t, 128)
	a := Array{PrimitiveType: format.Int}
	require.NoError(t, a.EncodeInit(it))
	require.NoError(t, a.EncodeItem(it, Value(primitive.Int(-1))))
	require.NoError(t, a.EncodeItem(it, Blank()))
	require.NoError(t, a.EncodeItem(it, PreEncoded([]byte{0x01, 0x00})))
	require.NoError(t, a.EncodeItem(it, Value(primitive.Int(1<<40))))
	require.NoError(t, a.EncodeComplete(it, true))

	require.Equal(t, []byte{byte(format.Int), 0x00, 0x00, 0x04}, it.Bytes()[:4])

	got, items := decodeArray(t, newDecoder(t, it.Bytes()))
	require.Equal(t, format.Int, got.PrimitiveType)
	require.Zero(t, got.ItemLength)
	require.Equal(t, []string{"-1", "blank", "256", "1099511627776"}, items)
}

func TestArray_FixedWidthItems(t *testing.T) {
	t.Run("UInt", func(t *testing.T) {
		it := newEncoder(t, 64)
		a := Array{PrimitiveType: format.UInt, ItemLength: 2}
		require.NoError(t, a.EncodeInit(it))
		require.NoError(t, a.EncodeItem(it, Value(primitive.UInt(7))))
		require.NoError(t, a.EncodeItem(it, PreEncoded([]byte{0xFF, 0xFF})))
		require.ErrorIs(t, a.EncodeItem(it, Value(primitive.UInt(65536))), errs.ErrValueOutOfRange)
		require.ErrorIs(t, a.EncodeItem(it, Blank()), errs.ErrInvalidData)
		require.ErrorIs(t, a.EncodeItem(it, Value(primitive.Int(1))), errs.ErrInvalidData)
		require.NoError(t, a.EncodeComplete(it, true))

		require.Equal(t, []byte{byte(format.UInt), 0x02, 0x00, 0x02, 0x00, 0x07, 0xFF, 0xFF}, it.Bytes())

		_, items := decodeArray(t, newDecoder(t, it.Bytes()))
		require.Equal(t, []string{"7", "65535"}, items)
	})

	t.Run("Enum", func(t *testing.T) {
		it := newEncoder(t, 64)
		a := Array{PrimitiveType: format.Enum, ItemLength: 1}
		require.NoError(t, a.EncodeInit(it))
		for _, e := range []primitive.Enum{3, 0, 255} {
			require.NoError(t, a.EncodeItem(it, Value(e)))
		}
		require.ErrorIs(t, a.EncodeItem(it, Value(primitive.Enum(256))), errs.ErrValueOutOfRange)
		require.NoError(t, a.EncodeComplete(it, true))

		_, items := decodeArray(t, newDecoder(t, it.Bytes()))
		require.Equal(t, []string{"3", "0", "255"}, items)
	})

	t.Run("Buffer", func(t *testing.T) {
		it := newEncoder(t, 64)
		a := Array{PrimitiveType: format.Buffer, ItemLength: 4}
		require.NoError(t, a.EncodeInit(it))
		require.NoError(t, a.EncodeItem(it, Value(primitive.Buffer("AB"))))
		require.NoError(t, a.EncodeItem(it, Value(primitive.Buffer("WXYZ"))))
		require.ErrorIs(t, a.EncodeItem(it, Value(primitive.Buffer("ABCDE"))), errs.ErrValueOutOfRange)
		require.NoError(t, a.EncodeComplete(it, true))

		dec := newDecoder(t, it.Bytes())
		var got Array
		require.NoError(t, got.Decode(dec))
		require.Equal(t, 4, got.ItemLength)

		item, err := got.DecodeItem(dec)
		require.NoError(t, err)
		require.Equal(t, []byte{'A', 'B', 0, 0}, item)
		item, err = got.DecodeItem(dec)
		require.NoError(t, err)
		require.Equal(t, []byte("WXYZ"), item)
		_, err = got.DecodeItem(dec)
		require.ErrorIs(t, err, errs.ErrEndOfContainer)
	})

	t.Run("Time", func(t *testing.T) {
		it := newEncoder(t, 64)
		a := Array{PrimitiveType: format.Time, ItemLength: 5}
		require.NoError(t, a.EncodeInit(it))
		require.NoError(t, a.EncodeItem(it, Value(primitive.Time{Hour: 8, Minute: 15, Second: 30, Millisecond: 5})))
		require.NoError(t, a.EncodeItem(it, Value(primitive.Time{Hour: 17})))
		require.NoError(t, a.EncodeComplete(it, true))
		require.Len(t, it.Bytes(), 4+2*5)

		_, items := decodeArray(t, newDecoder(t, it.Bytes()))
		require.Equal(t, []string{"08:15:30.005", "17:00:00"}, items)
	})
}

func TestArray_InvalidDefinitions(t *testing.T) {
	it := newEncoder(t, 64)

	for _, a := range []Array{
		{PrimitiveType: format.FieldList},
		{PrimitiveType: format.Array},
		{PrimitiveType: format.Real, ItemLength: 4},
		{PrimitiveType: format.Int, ItemLength: 3},
	} {
		require.ErrorIs(t, a.EncodeInit(it), errs.ErrInvalidArgument, "%s/%d", a.PrimitiveType, a.ItemLength)
		require.Zero(t, it.Len())
		require.Zero(t, it.Depth())
	}

	a := Array{PrimitiveType: format.Buffer, ItemLength: 256}
	require.ErrorIs(t, a.EncodeInit(it), errs.ErrValueOutOfRange)

	// an unknown item form cannot be decoded
	dec := newDecoder(t, []byte{byte(format.Real), 0x04, 0x00, 0x00})
	var got Array
	require.ErrorIs(t, got.Decode(dec), errs.ErrInvalidData)
}

func TestArray_InFieldEntry(t *testing.T) {
	dict := map[int16]format.DataType{30: format.UInt, 40: format.Array}
	tm := primitive.Time{Hour: 9, Minute: 30, Second: 1, Millisecond: 250, Microsecond: 125}

	for _, tt := range []struct {
		minor uint8
		want  string
	}{
		{format.MinorVersion0, "09:30:01.250"},
		{format.MinorVersion1, "09:30:01.250125"},
	} {
		it := newEncoder(t, 128, WithVersion(14, tt.minor))
		fl := FieldList{Flags: FieldListHasStandardData}
		require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))

		fe := FieldEntry{FieldID: 30}
		require.NoError(t, fe.Encode(it, Value(primitive.UInt(1))))

		fe = FieldEntry{FieldID: 40}
		require.NoError(t, fe.EncodeInit(it, 0))
		a := Array{PrimitiveType: format.Time}
		require.NoError(t, a.EncodeInit(it))
		require.NoError(t, a.EncodeItem(it, Value(tm)))
		require.NoError(t, a.EncodeComplete(it, true))
		require.NoError(t, fe.EncodeComplete(it, true))
		require.NoError(t, fl.EncodeComplete(it, true))

		dec := newDecoder(t, it.Bytes(), WithVersion(14, tt.minor))
		var got FieldList
		require.NoError(t, got.Decode(dec, setdef.FieldResolver{}))
		require.NoError(t, fe.Decode(dec))
		require.Equal(t, int16(30), fe.FieldID)
		require.NoError(t, fe.Decode(dec))
		require.Equal(t, int16(40), fe.FieldID)
		require.Equal(t, format.Array, dict[fe.FieldID])

		_, items := decodeArray(t, dec)
		require.Equal(t, []string{tt.want}, items)
		require.ErrorIs(t, fe.Decode(dec), errs.ErrEndOfContainer)
	}
}

func TestArray_RollbackInsideEntry(t *testing.T) {
	it := newEncoder(t, 128)
	fl := FieldList{Flags: FieldListHasStandardData}
	require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))
	before := snapshot(it)

	fe := FieldEntry{FieldID: 40}
	require.NoError(t, fe.EncodeInit(it, 0))
	a := Array{PrimitiveType: format.UInt, ItemLength: 1}
	require.NoError(t, a.EncodeInit(it))
	require.NoError(t, a.EncodeItem(it, Value(primitive.UInt(1))))
	require.NoError(t, a.EncodeComplete(it, false))
	require.NoError(t, fe.EncodeComplete(it, false))
	require.Equal(t, before, it.Bytes())

	require.NoError(t, fl.EncodeComplete(it, true))
	require.Empty(t, renderFieldList(t, newDecoder(t, it.Bytes()), setdef.FieldResolver{}, quoteDict))
}
