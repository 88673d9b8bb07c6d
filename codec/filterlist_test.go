package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

func TestFilterList_PerEntryContainerTypes(t *testing.T) {
	it := newEncoder(t, 512)
	fl := FilterList{Flags: FilterListHasTotalCountHint | FilterListHasPermData, ContainerType: format.FieldList, TotalCountHint: 3}
	require.NoError(t, fl.EncodeInit(it))

	fe := FilterEntry{ID: 1, Action: format.ActionSet}
	require.NoError(t, fe.EncodeInit(it, 0))
	encodeFieldList(t, it, map[int16]uint64{30: 1})
	require.NoError(t, fe.EncodeComplete(it, true))

	fe = FilterEntry{ID: 2, Action: format.ActionUpdate, ContainerType: format.ElementList, PermData: []byte{0x55}}
	require.NoError(t, fe.EncodeInit(it, 0))
	el := ElementList{Flags: ElementListHasStandardData}
	require.NoError(t, el.EncodeInit(it, setdef.ElementResolver{}, 0))
	ee := ElementEntry{Name: "Name"}
	require.NoError(t, ee.Encode(it, Value(primitive.Utf8String("Ünïcode"))))
	require.NoError(t, el.EncodeComplete(it, true))
	require.NoError(t, fe.EncodeComplete(it, true))

	fe = FilterEntry{ID: 3, Action: format.ActionClear}
	require.NoError(t, fe.Encode(it, Blank()))

	fe = FilterEntry{ID: 4, Action: format.ActionDelete}
	require.ErrorIs(t, fe.Encode(it, Blank()), errs.ErrInvalidArgument)
	fe = FilterEntry{ID: 4, Action: format.ActionSet, ContainerType: format.Real}
	require.ErrorIs(t, fe.Encode(it, Blank()), errs.ErrInvalidArgument)
	require.NoError(t, fl.EncodeComplete(it, true))

	dec := newDecoder(t, it.Bytes())
	var got FilterList
	require.NoError(t, got.Decode(dec))
	require.Equal(t, format.FieldList, got.ContainerType)
	require.Equal(t, uint8(3), got.TotalCountHint)

	require.NoError(t, fe.Decode(dec))
	require.Equal(t, uint8(1), fe.ID)
	require.Equal(t, format.ActionSet, fe.Action)
	require.Equal(t, format.FieldList, fe.ContainerType)
	require.Equal(t, []string{"30=1"}, renderFieldList(t, dec, setdef.FieldResolver{}, quoteDict))

	require.NoError(t, fe.Decode(dec))
	require.Equal(t, uint8(2), fe.ID)
	require.Equal(t, format.ElementList, fe.ContainerType)
	require.Equal(t, []byte{0x55}, fe.PermData)
	require.Equal(t, []string{"Name:Utf8String=Ünïcode"}, renderElementList(t, dec, setdef.ElementResolver{}))

	require.NoError(t, fe.Decode(dec))
	require.Equal(t, uint8(3), fe.ID)
	require.Equal(t, format.ActionClear, fe.Action)
	require.Nil(t, fe.EncodedData)

	require.ErrorIs(t, fe.Decode(dec), errs.ErrEndOfContainer)
}

func TestFilterList_InferredListType(t *testing.T) {
	it := newEncoder(t, 256)
	fl := FilterList{}
	require.NoError(t, fl.EncodeInit(it))

	fe := FilterEntry{ID: 1, Action: format.ActionSet, ContainerType: format.ElementList}
	require.NoError(t, fe.Encode(it, Blank()))
	fe = FilterEntry{ID: 2, Action: format.ActionSet, ContainerType: format.FieldList}
	require.NoError(t, fe.Encode(it, PreEncoded(fieldListBytes(t, map[int16]uint64{30: 2}))))
	require.NoError(t, fl.EncodeComplete(it, true))

	dec := newDecoder(t, it.Bytes())
	var got FilterList
	require.NoError(t, got.Decode(dec))
	require.Equal(t, format.ElementList, got.ContainerType)

	require.NoError(t, fe.Decode(dec))
	require.Equal(t, format.ElementList, fe.ContainerType)
	require.NoError(t, fe.Decode(dec))
	require.Equal(t, format.FieldList, fe.ContainerType)
	require.Equal(t, []string{"30=2"}, renderFieldList(t, dec, setdef.FieldResolver{}, quoteDict))
}

func TestFilterList_InferredListTypeNeedsKind(t *testing.T) {
	it := newEncoder(t, 256)
	fl := FilterList{}
	require.NoError(t, fl.EncodeInit(it))

	fe := FilterEntry{ID: 1, Action: format.ActionSet}
	require.ErrorIs(t, fe.Encode(it, PreEncoded(fieldListBytes(t, map[int16]uint64{30: 1}))), errs.ErrInvalidArgument)

	fe = FilterEntry{ID: 2, Action: format.ActionClear}
	require.NoError(t, fe.Encode(it, Blank()))
	require.NoError(t, fl.EncodeComplete(it, true))

	dec := newDecoder(t, it.Bytes())
	var got FilterList
	require.NoError(t, got.Decode(dec))
	require.Equal(t, format.NoData, got.ContainerType)
	require.NoError(t, fe.Decode(dec))
	require.Equal(t, uint8(2), fe.ID)
	require.Equal(t, format.ActionClear, fe.Action)
	require.ErrorIs(t, fe.Decode(dec), errs.ErrEndOfContainer)
}

func TestFilterList_MaxEntries(t *testing.T) {
	it := newEncoder(t, 1024)
	fl := FilterList{ContainerType: format.NoData}
	require.NoError(t, fl.EncodeInit(it))

	for i := range 255 {
		fe := FilterEntry{ID: uint8(i), Action: format.ActionSet}
		require.NoError(t, fe.Encode(it, Blank()))
	}
	fe := FilterEntry{ID: 0, Action: format.ActionSet}
	require.ErrorIs(t, fe.Encode(it, Blank()), errs.ErrValueOutOfRange)
	require.NoError(t, fl.EncodeComplete(it, true))
	require.Equal(t, byte(255), it.Bytes()[2])

	dec := newDecoder(t, it.Bytes())
	var got FilterList
	require.NoError(t, got.Decode(dec))
	n := 0
	for fe.Decode(dec) == nil {
		require.Equal(t, uint8(n), fe.ID)
		n++
	}
	require.Equal(t, 255, n)
}
