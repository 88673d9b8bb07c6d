package codec

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

func newEncoder(t *testing.T, size int, opts ...IteratorOption) *EncodeIterator {
	t.Helper()

	it, err := NewEncodeIterator(make([]byte, size), opts...)
	require.NoError(t, err)

	return it
}

func newDecoder(t *testing.T, data []byte, opts ...IteratorOption) *DecodeIterator {
	t.Helper()

	it, err := NewDecodeIterator(data, opts...)
	require.NoError(t, err)

	return it
}

// snapshot copies the bytes written so far.
func snapshot(it *EncodeIterator) []byte {
	return bytes.Clone(it.Bytes())
}

// renderFieldList decodes the field list in the iterator's window and renders every
// entry as "fid=value", looking up standard entry types in dict.
func renderFieldList(t *testing.T, it *DecodeIterator, r setdef.FieldResolver, dict map[int16]format.DataType) []string {
	t.Helper()

	var fl FieldList
	require.NoError(t, fl.Decode(it, r))

	var out []string
	var fe FieldEntry
	for {
		err := fe.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			return out
		}
		require.NoError(t, err)

		dt := fe.DataType
		if dt == format.Unknown {
			dt = dict[fe.FieldID]
		}
		v, err := primitive.Decode(dt, fe.EncodedData)
		if errors.Is(err, errs.ErrBlankData) {
			out = append(out, fmt.Sprintf("%d=blank", fe.FieldID))
			continue
		}
		require.NoError(t, err)
		out = append(out, fmt.Sprintf("%d=%s", fe.FieldID, v))
	}
}

// encodeFieldList writes a standard-data field list holding the given UInt fields.
func encodeFieldList(t *testing.T, it *EncodeIterator, fields map[int16]uint64) {
	t.Helper()

	fl := FieldList{Flags: FieldListHasStandardData}
	require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))
	for fid := int16(0); fid < 100; fid++ {
		v, ok := fields[fid]
		if !ok {
			continue
		}
		fe := FieldEntry{FieldID: fid}
		require.NoError(t, fe.Encode(it, Value(primitive.UInt(v))))
	}
	require.NoError(t, fl.EncodeComplete(it, true))
}

// fieldListBytes returns a standalone encoded field list.
func fieldListBytes(t *testing.T, fields map[int16]uint64) []byte {
	t.Helper()

	it := newEncoder(t, 256)
	encodeFieldList(t, it, fields)

	return snapshot(it)
}

func TestNewIterator_Options(t *testing.T) {
	it := newEncoder(t, 8)
	major, minor := it.Version()
	require.Equal(t, format.MajorVersion, major)
	require.Equal(t, format.MinorVersion1, minor)

	it = newEncoder(t, 8, WithVersion(14, 0))
	_, minor = it.Version()
	require.Equal(t, format.MinorVersion0, minor)

	_, err := NewEncodeIterator(nil, WithVersion(14, 2))
	require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	_, err = NewDecodeIterator(nil, WithVersion(15, 0))
	require.ErrorIs(t, err, errs.ErrUnsupportedVersion)

	_, err = NewEncodeIterator(nil, WithMaxDepth(0))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = NewEncodeIterator(nil, WithMaxDepth(MaxDepth+1))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestEncodeIterator_LengthMarks(t *testing.T) {
	tests := []struct {
		name    string
		form    lengthForm
		maxSize int
		n       int
		width   int
		want    []byte
		wantErr error
	}{
		{name: "rb15 short", form: formRB15, maxSize: 10, n: 5, width: 1, want: []byte{0x05}},
		{name: "rb15 short limit", form: formRB15, maxSize: 10, n: 0x7F, width: 1, want: []byte{0x7F}},
		{name: "rb15 short overflow", form: formRB15, maxSize: 10, n: 0x80, width: 1, wantErr: errs.ErrValueOutOfRange},
		{name: "rb15 unknown size", form: formRB15, maxSize: 0, n: 200, width: 2, want: []byte{0x80, 0xC8}},
		{name: "rb15 large size", form: formRB15, maxSize: 0x80, n: 3, width: 2, want: []byte{0x80, 0x03}},
		{name: "ob16 short", form: formOB16, maxSize: 100, n: 0xFD, width: 1, want: []byte{0xFD}},
		{name: "ob16 short overflow", form: formOB16, maxSize: 100, n: 0xFE, width: 1, wantErr: errs.ErrValueOutOfRange},
		{name: "ob16 unknown size", form: formOB16, maxSize: 0, n: 300, width: 3, want: []byte{0xFE, 0x01, 0x2C}},
		{name: "u8", form: formU8, maxSize: 0, n: 0xFF, width: 1, want: []byte{0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newEncoder(t, 1024)
			m, err := it.markLength(tt.form, tt.maxSize)
			require.NoError(t, err)
			require.Equal(t, tt.width, m.width)

			_, err = it.reserve(tt.n)
			require.NoError(t, err)

			err = it.finishLength(m)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, it.Bytes()[:m.width])
		})
	}
}

func TestEncodeIterator_Reserve(t *testing.T) {
	it := newEncoder(t, 4)

	_, err := it.reserve(3)
	require.NoError(t, err)
	require.Equal(t, 3, it.Len())

	_, err = it.reserve(2)
	require.ErrorIs(t, err, errs.ErrBufferTooSmall)
	require.Equal(t, 3, it.Len())

	require.NoError(t, it.putByte(1))
	require.ErrorIs(t, it.putByte(2), errs.ErrBufferTooSmall)

	it.Reset(make([]byte, 2))
	require.Equal(t, 0, it.Len())
	require.Equal(t, 0, it.Depth())
	require.NoError(t, it.putUint16(0xABCD))
	require.Equal(t, []byte{0xAB, 0xCD}, it.Bytes())
}

func TestEncodeIterator_DepthOverrun(t *testing.T) {
	it := newEncoder(t, 64, WithMaxDepth(1))

	fl := FieldList{Flags: FieldListHasStandardData}
	require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))
	before := snapshot(it)

	fe := FieldEntry{FieldID: 1, DataType: format.FieldList}
	require.NoError(t, fe.EncodeInit(it, 0))

	inner := FieldList{Flags: FieldListHasStandardData}
	err := inner.EncodeInit(it, setdef.FieldResolver{}, 0)
	require.ErrorIs(t, err, errs.ErrIteratorOverrun)
	require.Equal(t, 1, it.Depth())

	require.NoError(t, fe.EncodeComplete(it, false))
	require.Equal(t, before, it.Bytes())
	require.NoError(t, fl.EncodeComplete(it, true))
	require.Equal(t, []byte{0x08, 0x00, 0x00}, it.Bytes())
}

func TestDecodeIterator_DepthOverrun(t *testing.T) {
	it := newEncoder(t, 256)
	m := Map{KeyPrimitiveType: format.UInt, ContainerType: format.FieldList}
	require.NoError(t, m.EncodeInit(it, 0))
	me := MapEntry{Action: format.ActionAdd}
	require.NoError(t, me.Encode(it, Value(primitive.UInt(1)), PreEncoded(fieldListBytes(t, map[int16]uint64{30: 1}))))
	require.NoError(t, m.EncodeComplete(it, true))

	dec := newDecoder(t, it.Bytes(), WithMaxDepth(1))
	var got Map
	require.NoError(t, got.Decode(dec))
	require.NoError(t, me.Decode(dec))

	var fl FieldList
	require.ErrorIs(t, fl.Decode(dec, setdef.FieldResolver{}), errs.ErrIteratorOverrun)

	// the map stays usable after the refused descent
	require.ErrorIs(t, me.Decode(dec), errs.ErrEndOfContainer)

	dec = newDecoder(t, it.Bytes(), WithMaxDepth(2))
	require.NoError(t, got.Decode(dec))
	require.NoError(t, me.Decode(dec))
	require.Equal(t, []string{"30=1"}, renderFieldList(t, dec, setdef.FieldResolver{}, quoteDict))
}

func TestEncodeIterator_WrongContainer(t *testing.T) {
	it := newEncoder(t, 64)

	var m Map
	require.ErrorIs(t, m.EncodeComplete(it, true), errs.ErrInvalidArgument)

	fl := FieldList{Flags: FieldListHasStandardData}
	require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))
	require.ErrorIs(t, m.EncodeComplete(it, true), errs.ErrInvalidArgument)

	// a nested container needs an open entry
	m = Map{KeyPrimitiveType: format.UInt, ContainerType: format.FieldList}
	require.ErrorIs(t, m.EncodeInit(it, 0), errs.ErrInvalidArgument)
	require.Equal(t, 1, it.Depth())

	var ve VectorEntry
	require.ErrorIs(t, ve.Encode(it, Blank()), errs.ErrInvalidArgument)
}

func TestEncodeIterator_TopLevelRollback(t *testing.T) {
	it := newEncoder(t, 128)

	fl := FieldList{Flags: FieldListHasInfo | FieldListHasStandardData, DictionaryID: 1, FieldListNum: 3}
	require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))
	fe := FieldEntry{FieldID: 10}
	require.NoError(t, fe.Encode(it, Value(primitive.Int(-5))))

	require.NoError(t, fl.EncodeComplete(it, false))
	require.Equal(t, 0, it.Len())
	require.Equal(t, 0, it.Depth())
}

func TestEncodeIterator_InitIsAtomic(t *testing.T) {
	// room for the flags and info, not for the entry count
	it := newEncoder(t, 5)

	fl := FieldList{Flags: FieldListHasInfo | FieldListHasStandardData, DictionaryID: 1, FieldListNum: 3}
	err := fl.EncodeInit(it, setdef.FieldResolver{}, 0)
	require.ErrorIs(t, err, errs.ErrBufferTooSmall)
	require.Equal(t, 0, it.Len())
	require.Equal(t, 0, it.Depth())
}

func TestPayload(t *testing.T) {
	require.True(t, Value(nil).IsBlank())
	require.True(t, PreEncoded(nil).IsBlank())
	require.True(t, PreEncoded([]byte{}).IsBlank())
	require.True(t, Blank().IsBlank())
	require.True(t, Payload{}.IsBlank())

	p := Value(primitive.UInt(0x1234))
	require.False(t, p.IsBlank())
	require.Equal(t, 2, p.Len())

	p = PreEncoded([]byte{1, 2, 3})
	require.Equal(t, 3, p.Len())
	v, err := p.decoded(format.Buffer)
	require.NoError(t, err)
	require.Equal(t, primitive.Buffer{1, 2, 3}, v)

	v, err = Blank().decoded(format.Int)
	require.NoError(t, err)
	require.Nil(t, v)
}
