package cache

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// field is a field list entry to encode; a nil value encodes a blank.
type field struct {
	id    int16
	value primitive.Value
}

func newEncoder(t *testing.T, size int) *codec.EncodeIterator {
	t.Helper()

	it, err := codec.NewEncodeIterator(make([]byte, size))
	require.NoError(t, err)

	return it
}

func newDecoder(t *testing.T, data []byte) *codec.DecodeIterator {
	t.Helper()

	it, err := codec.NewDecodeIterator(data)
	require.NoError(t, err)

	return it
}

func encodeFields(t *testing.T, it *codec.EncodeIterator, fields ...field) {
	t.Helper()

	fl := codec.FieldList{Flags: codec.FieldListHasStandardData}
	require.NoError(t, fl.EncodeInit(it, setdef.FieldResolver{}, 0))
	for _, f := range fields {
		fe := codec.FieldEntry{FieldID: f.id}
		p := codec.Blank()
		if f.value != nil {
			p = codec.Value(f.value)
		}
		require.NoError(t, fe.Encode(it, p))
	}
	require.NoError(t, fl.EncodeComplete(it, true))
}

// render lists the fields of rec as UInt values, "blank" for blank ones.
func render(t *testing.T, rec Record) map[int16]string {
	t.Helper()

	out := map[int16]string{}
	for _, f := range rec.Fields {
		if f.IsBlank() {
			out[f.ID] = "blank"
			continue
		}
		v, err := f.Value(format.UInt)
		require.NoError(t, err)
		out[f.ID] = v.String()
	}

	return out
}

type mapEntry struct {
	action format.EntryAction
	key    string
	fields []field
}

func mapMessage(t *testing.T, summary []field, entries ...mapEntry) []byte {
	t.Helper()

	it := newEncoder(t, 1024)
	m := codec.Map{KeyPrimitiveType: format.AsciiString, ContainerType: format.FieldList}
	if summary != nil {
		m.Flags |= codec.MapHasSummaryData
	}
	require.NoError(t, m.EncodeInit(it, 0))
	if summary != nil {
		encodeFields(t, it, summary...)
		require.NoError(t, m.EncodeSummaryComplete(it, true))
	}

	for _, e := range entries {
		me := codec.MapEntry{Action: e.action}
		key := codec.Value(primitive.AsciiString(e.key))
		if e.action == format.ActionDelete {
			require.NoError(t, me.Encode(it, key, codec.Blank()))
			continue
		}
		require.NoError(t, me.EncodeInit(it, key, 0))
		encodeFields(t, it, e.fields...)
		require.NoError(t, me.EncodeComplete(it, true))
	}
	require.NoError(t, m.EncodeComplete(it, true))

	return bytes.Clone(it.Bytes())
}

func TestMapCache_ApplyActions(t *testing.T) {
	c, err := NewMapCache()
	require.NoError(t, err)
	require.Equal(t, format.Unknown, c.KeyType())

	msg := mapMessage(t, []field{{1, primitive.UInt(100)}},
		mapEntry{format.ActionAdd, "IBM", []field{{22, primitive.UInt(10)}, {25, primitive.UInt(11)}}},
		mapEntry{format.ActionAdd, "MSFT", []field{{22, primitive.UInt(20)}}},
		mapEntry{format.ActionUpdate, "IBM", []field{{25, primitive.UInt(12)}, {30, nil}}},
		mapEntry{action: format.ActionDelete, key: "GOOG"},
	)
	require.NoError(t, c.Apply(newDecoder(t, msg)))
	require.Equal(t, format.AsciiString, c.KeyType())
	require.Equal(t, 2, c.Len())
	require.Equal(t, []primitive.Value{primitive.AsciiString("IBM"), primitive.AsciiString("MSFT")}, c.Keys())

	ibm, ok := c.Get(primitive.AsciiString("IBM"))
	require.True(t, ok)
	require.Equal(t, map[int16]string{22: "10", 25: "12", 30: "blank"}, render(t, ibm))
	require.Equal(t, []int16{22, 25, 30}, []int16{ibm.Fields[0].ID, ibm.Fields[1].ID, ibm.Fields[2].ID})

	summary, ok := c.Summary()
	require.True(t, ok)
	require.Equal(t, map[int16]string{1: "100"}, render(t, summary))

	msg = mapMessage(t, nil,
		mapEntry{action: format.ActionDelete, key: "MSFT"},
		mapEntry{format.ActionUpdate, "AAPL", []field{{22, primitive.UInt(5)}}},
		mapEntry{format.ActionAdd, "IBM", []field{{22, primitive.UInt(11)}}},
	)
	require.NoError(t, c.Apply(newDecoder(t, msg)))
	require.Equal(t, []primitive.Value{primitive.AsciiString("AAPL"), primitive.AsciiString("IBM")}, c.Keys())

	ibm, ok = c.Get(primitive.AsciiString("IBM"))
	require.True(t, ok)
	require.Equal(t, map[int16]string{22: "11"}, render(t, ibm))

	_, ok = c.Get(primitive.AsciiString("MSFT"))
	require.False(t, ok)

	// the summary survives messages without one
	_, ok = c.Summary()
	require.True(t, ok)

	c.Reset()
	require.Zero(t, c.Len())
	require.Equal(t, format.Unknown, c.KeyType())
}

func TestMapCache_GetReturnsCopy(t *testing.T) {
	c, err := NewMapCache()
	require.NoError(t, err)
	require.NoError(t, c.Apply(newDecoder(t, mapMessage(t, nil,
		mapEntry{format.ActionAdd, "A", []field{{1, primitive.UInt(1)}}},
	))))

	rec, ok := c.Get(primitive.AsciiString("A"))
	require.True(t, ok)
	rec.Fields[0].Data[0] = 0x7F

	rec, _ = c.Get(primitive.AsciiString("A"))
	require.Equal(t, map[int16]string{1: "1"}, render(t, rec))
}

func TestMapCache_BlankKeyAndPayload(t *testing.T) {
	c, err := NewMapCache()
	require.NoError(t, err)

	require.NoError(t, c.Apply(newDecoder(t, mapMessage(t, nil,
		mapEntry{action: format.ActionAdd, key: ""},
	))))
	require.Equal(t, 1, c.Len())

	rec, ok := c.Get(nil)
	require.True(t, ok)
	require.Empty(t, rec.Fields)
	require.Equal(t, []primitive.Value{nil}, c.Keys())

	_, ok = c.Get(primitive.AsciiString(""))
	require.True(t, ok)
}

func TestMapCache_RejectsWithoutChanges(t *testing.T) {
	c, err := NewMapCache()
	require.NoError(t, err)
	require.NoError(t, c.Apply(newDecoder(t, mapMessage(t, nil,
		mapEntry{format.ActionAdd, "A", []field{{1, primitive.UInt(1)}}},
	))))

	t.Run("truncated", func(t *testing.T) {
		msg := mapMessage(t, nil,
			mapEntry{action: format.ActionDelete, key: "A"},
			mapEntry{format.ActionAdd, "B", []field{{1, primitive.UInt(2)}}},
		)
		require.Error(t, c.Apply(newDecoder(t, msg[:len(msg)-2])))
		require.Equal(t, []primitive.Value{primitive.AsciiString("A")}, c.Keys())
	})

	t.Run("key type", func(t *testing.T) {
		it := newEncoder(t, 256)
		m := codec.Map{KeyPrimitiveType: format.UInt, ContainerType: format.FieldList}
		require.NoError(t, m.EncodeInit(it, 0))
		me := codec.MapEntry{Action: format.ActionDelete}
		require.NoError(t, me.Encode(it, codec.Value(primitive.UInt(1)), codec.Blank()))
		require.NoError(t, m.EncodeComplete(it, true))

		require.ErrorIs(t, c.Apply(newDecoder(t, it.Bytes())), errs.ErrInvalidData)
		require.Equal(t, 1, c.Len())
	})
}

func TestMapCache_OpaquePayloads(t *testing.T) {
	payload := func(v uint64) []byte {
		it := newEncoder(t, 64)
		el := codec.ElementList{Flags: codec.ElementListHasStandardData}
		require.NoError(t, el.EncodeInit(it, setdef.ElementResolver{}, 0))
		ee := codec.ElementEntry{Name: "Bid"}
		require.NoError(t, ee.Encode(it, codec.Value(primitive.UInt(v))))
		require.NoError(t, el.EncodeComplete(it, true))

		return bytes.Clone(it.Bytes())
	}

	it := newEncoder(t, 256)
	m := codec.Map{Flags: codec.MapHasPermData, KeyPrimitiveType: format.UInt, ContainerType: format.ElementList}
	require.NoError(t, m.EncodeInit(it, 0))
	me := codec.MapEntry{Action: format.ActionAdd, PermData: []byte{0x03, 0x01}}
	require.NoError(t, me.Encode(it, codec.Value(primitive.UInt(7)), codec.PreEncoded(payload(1))))
	me = codec.MapEntry{Action: format.ActionUpdate}
	require.NoError(t, me.Encode(it, codec.Value(primitive.UInt(7)), codec.PreEncoded(payload(2))))
	require.NoError(t, m.EncodeComplete(it, true))

	c, err := NewMapCache()
	require.NoError(t, err)
	require.NoError(t, c.Apply(newDecoder(t, it.Bytes())))

	rec, ok := c.Get(primitive.UInt(7))
	require.True(t, ok)
	require.Empty(t, rec.Fields)
	require.Equal(t, payload(2), rec.Data)
	require.Equal(t, []byte{0x03, 0x01}, rec.PermData)
}

func TestMapCache_SetDefinedPayloads(t *testing.T) {
	db, err := setdef.NewGlobalFieldDb()
	require.NoError(t, err)
	require.NoError(t, db.Load(1, "", []*setdef.FieldSetDef{{
		ID: 16,
		Entries: []setdef.FieldSetDefEntry{
			{Tag: 22, DataType: format.UInt4},
			{Tag: 25, DataType: format.Int2},
		},
	}}))
	r := setdef.FieldResolver{Global: db}

	it := newEncoder(t, 256)
	m := codec.Map{KeyPrimitiveType: format.AsciiString, ContainerType: format.FieldList}
	require.NoError(t, m.EncodeInit(it, 0))
	me := codec.MapEntry{Action: format.ActionAdd}
	require.NoError(t, me.EncodeInit(it, codec.Value(primitive.AsciiString("IBM")), 0))
	fl := codec.FieldList{Flags: codec.FieldListHasSetData | codec.FieldListHasSetID, SetID: 16}
	require.NoError(t, fl.EncodeInit(it, r, 0))
	fe := codec.FieldEntry{FieldID: 22}
	require.NoError(t, fe.Encode(it, codec.Value(primitive.UInt(4000))))
	fe = codec.FieldEntry{FieldID: 25}
	require.NoError(t, fe.Encode(it, codec.Value(primitive.Int(-3))))
	require.NoError(t, fl.EncodeComplete(it, true))
	require.NoError(t, me.EncodeComplete(it, true))
	require.NoError(t, m.EncodeComplete(it, true))

	c, err := NewMapCache(WithResolver(r))
	require.NoError(t, err)
	require.NoError(t, c.Apply(newDecoder(t, it.Bytes())))

	rec, ok := c.Get(primitive.AsciiString("IBM"))
	require.True(t, ok)
	require.Len(t, rec.Fields, 2)
	require.Equal(t, format.UInt, rec.Fields[0].DataType)
	v, err := rec.Fields[1].Value(format.Unknown)
	require.NoError(t, err)
	require.Equal(t, primitive.Int(-3), v)

	// without the definition the set data is skipped
	plain, err := NewMapCache()
	require.NoError(t, err)
	require.NoError(t, plain.Apply(newDecoder(t, it.Bytes())))
	rec, ok = plain.Get(primitive.AsciiString("IBM"))
	require.True(t, ok)
	require.Empty(t, rec.Fields)
}

func TestCache_Options(t *testing.T) {
	_, err := NewVectorCache(WithMaxEntries(0))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	var buf bytes.Buffer
	c, err := NewMapCache(WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	require.NoError(t, c.Apply(newDecoder(t, mapMessage(t, nil,
		mapEntry{format.ActionAdd, "A", []field{{1, primitive.UInt(1)}}},
	))))
	require.Contains(t, buf.String(), `msg="applied map"`)
	require.Contains(t, buf.String(), "component=map_cache")
}
