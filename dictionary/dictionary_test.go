package dictionary

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/setdef"
)

var entryTypes = []format.DataType{
	format.UInt, format.Real4RB, format.Time3, format.AsciiString, format.Int2, format.Enum, format.DateTime9,
}

func fieldDefs(n int) []*setdef.FieldSetDef {
	defs := make([]*setdef.FieldSetDef, n)
	for i := range defs {
		def := &setdef.FieldSetDef{ID: uint16(setdef.MinGlobalSetID + i)} //nolint:gosec
		for j := range 3 + i%5 {
			def.Entries = append(def.Entries, setdef.FieldSetDefEntry{
				Tag:      int16(j*100 - 50),
				DataType: entryTypes[(i+j)%len(entryTypes)],
			})
		}
		defs[i] = def
	}

	return defs
}

func elementDefs(n int) []*setdef.ElementSetDef {
	defs := make([]*setdef.ElementSetDef, n)
	for i := range defs {
		def := &setdef.ElementSetDef{ID: uint16(100 + i)} //nolint:gosec
		for j := range 2 + i%3 {
			def.Entries = append(def.Entries, setdef.ElementSetDefEntry{
				Tag:      fmt.Sprintf("ELEMENT_%d_%d", i, j),
				DataType: entryTypes[(i+j)%len(entryTypes)],
			})
		}
		defs[i] = def
	}

	return defs
}

// encodeParts encodes every part of enc into its own buffer of the given size.
func encodeParts[T setdef.Tag](t *testing.T, enc *Encoder[T], size int) [][]byte {
	t.Helper()

	var parts [][]byte
	for {
		it, err := codec.NewEncodeIterator(make([]byte, size))
		require.NoError(t, err)

		done, err := enc.EncodePart(it)
		require.NoError(t, err)
		require.Zero(t, it.Depth())
		parts = append(parts, bytes.Clone(it.Bytes()))
		if done {
			return parts
		}
		require.Less(t, len(parts), 1000)
	}
}

func decodeParts[T setdef.Tag](t *testing.T, dec *Decoder[T], parts [][]byte) {
	t.Helper()

	for _, part := range parts {
		it, err := codec.NewDecodeIterator(part)
		require.NoError(t, err)
		require.NoError(t, dec.DecodePart(it))
	}
}

func TestFieldDictionary_SinglePart(t *testing.T) {
	defs := fieldDefs(5)
	enc, err := NewEncoder(Info{DictionaryID: 7, Version: "1.2"}, defs)
	require.NoError(t, err)

	parts := encodeParts(t, enc, 4096)
	require.Len(t, parts, 1)
	require.True(t, enc.Done())

	dec, err := NewDecoder[int16]()
	require.NoError(t, err)
	decodeParts(t, dec, parts)
	require.True(t, dec.Complete())
	require.Equal(t, Info{DictionaryID: 7, Version: "1.2"}, dec.Info())
	require.Equal(t, defs, dec.Definitions())

	db, err := setdef.NewGlobalFieldDb()
	require.NoError(t, err)
	require.NoError(t, dec.Publish(db))
	require.Equal(t, 5, db.Len())

	id, version := db.Info()
	require.Equal(t, int64(7), id)
	require.Equal(t, "1.2", version)
	for _, def := range defs {
		got, ok := db.Lookup(def.ID)
		require.True(t, ok)
		require.Equal(t, def, got)
	}
}

func TestFieldDictionary_MultiPart(t *testing.T) {
	const budget = 200
	defs := fieldDefs(9)

	enc, err := NewEncoder(Info{DictionaryID: 3, Version: "v3"}, defs, WithMaxPartSize(budget))
	require.NoError(t, err)
	parts := encodeParts(t, enc, 4096)
	require.Greater(t, len(parts), 2)
	for _, part := range parts {
		require.LessOrEqual(t, len(part), budget)
	}

	_, err = enc.EncodePart(mustEncoder(t, 64))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	db, err := setdef.NewGlobalFieldDb()
	require.NoError(t, err)
	dec, err := NewDecoder[int16]()
	require.NoError(t, err)

	decodeParts(t, dec, parts[:len(parts)-1])
	require.False(t, dec.Complete())
	require.ErrorIs(t, dec.Publish(db), errs.ErrDictionaryIncomplete)
	require.Zero(t, db.Len())

	decodeParts(t, dec, parts[len(parts)-1:])
	require.True(t, dec.Complete())
	require.Equal(t, len(parts), dec.Parts())
	require.NoError(t, dec.Publish(db))
	require.Equal(t, defs, dec.Definitions())
	require.Equal(t, 9, db.Len())

	// replaying the dictionary yields the same parts
	enc.Reset()
	require.Equal(t, parts, encodeParts(t, enc, 4096))
}

func mustEncoder(t *testing.T, size int) *codec.EncodeIterator {
	t.Helper()

	it, err := codec.NewEncodeIterator(make([]byte, size))
	require.NoError(t, err)

	return it
}

func TestFieldDictionary_BufferBoundsParts(t *testing.T) {
	defs := fieldDefs(6)

	enc, err := NewEncoder(Info{DictionaryID: 1}, defs)
	require.NoError(t, err)
	parts := encodeParts(t, enc, 256)
	require.Greater(t, len(parts), 1)

	dec, err := NewDecoder[int16]()
	require.NoError(t, err)
	decodeParts(t, dec, parts)
	require.True(t, dec.Complete())
	require.Equal(t, defs, dec.Definitions())

	// a buffer too small for a single definition writes nothing
	enc.Reset()
	it := mustEncoder(t, 40)
	_, err = enc.EncodePart(it)
	require.ErrorIs(t, err, errs.ErrBufferTooSmall)
	require.Zero(t, it.Len())
	require.Zero(t, it.Depth())
	require.False(t, enc.Done())
}

func TestElementDictionary_RoundTrip(t *testing.T) {
	defs := elementDefs(4)
	enc, err := NewEncoder(Info{DictionaryID: 11, Version: "e1"}, defs, WithMaxPartSize(180))
	require.NoError(t, err)
	parts := encodeParts(t, enc, 2048)

	db, err := setdef.NewGlobalElementDb()
	require.NoError(t, err)
	dec, err := NewDecoder[string]()
	require.NoError(t, err)
	decodeParts(t, dec, parts)
	require.NoError(t, dec.Publish(db))

	for _, def := range defs {
		got, ok := db.Lookup(def.ID)
		require.True(t, ok)
		require.Equal(t, def, got)
	}

	// resolution through the published table
	r := setdef.ElementResolver{Global: db}
	got, err := r.Resolve(100, format.MinorVersion1)
	require.NoError(t, err)
	require.Equal(t, "ELEMENT_0_0", got.Entries[0].Tag)
}

func TestDictionary_EncodeFromDb(t *testing.T) {
	src, err := setdef.NewGlobalFieldDb()
	require.NoError(t, err)
	require.NoError(t, src.Load(42, "db", fieldDefs(3)))

	enc, err := NewEncoderFromDb(src)
	require.NoError(t, err)
	parts := encodeParts(t, enc, 4096)

	dec, err := NewDecoder[int16]()
	require.NoError(t, err)
	decodeParts(t, dec, parts)
	require.Equal(t, Info{DictionaryID: 42, Version: "db"}, dec.Info())
	require.Len(t, dec.Definitions(), 3)
}

func TestDictionary_Empty(t *testing.T) {
	enc, err := NewEncoder[int16](Info{DictionaryID: 5}, nil)
	require.NoError(t, err)
	parts := encodeParts(t, enc, 256)
	require.Len(t, parts, 1)

	dec, err := NewDecoder[int16]()
	require.NoError(t, err)
	require.False(t, dec.Complete())
	decodeParts(t, dec, parts)
	require.True(t, dec.Complete())
	require.Empty(t, dec.Definitions())
}

func TestDecoder_Rejects(t *testing.T) {
	fieldEnc, err := NewEncoder(Info{DictionaryID: 1}, fieldDefs(4), WithMaxPartSize(200))
	require.NoError(t, err)
	fieldParts := encodeParts(t, fieldEnc, 1024)
	require.Greater(t, len(fieldParts), 1)

	t.Run("wrong type", func(t *testing.T) {
		dec, err := NewDecoder[string]()
		require.NoError(t, err)
		it, err := codec.NewDecodeIterator(fieldParts[0])
		require.NoError(t, err)
		require.ErrorIs(t, dec.DecodePart(it), errs.ErrInvalidData)
		require.Zero(t, dec.Parts())
	})

	t.Run("other dictionary", func(t *testing.T) {
		otherEnc, err := NewEncoder(Info{DictionaryID: 2}, fieldDefs(4), WithMaxPartSize(200))
		require.NoError(t, err)
		otherParts := encodeParts(t, otherEnc, 1024)

		dec, err := NewDecoder[int16]()
		require.NoError(t, err)
		decodeParts(t, dec, fieldParts[:1])
		before := dec.Definitions()

		it, err := codec.NewDecodeIterator(otherParts[1])
		require.NoError(t, err)
		require.ErrorIs(t, dec.DecodePart(it), errs.ErrInvalidData)
		require.Equal(t, 1, dec.Parts())
		require.Equal(t, before, dec.Definitions())

		dec.Reset()
		require.Zero(t, dec.Parts())
		decodeParts(t, dec, otherParts)
		require.True(t, dec.Complete())
	})

	t.Run("not a dictionary", func(t *testing.T) {
		it := mustEncoder(t, 64)
		v := codec.Vector{ContainerType: format.FieldList}
		require.NoError(t, v.EncodeInit(it, 0))
		require.NoError(t, v.EncodeComplete(it, true))

		dec, err := NewDecoder[int16]()
		require.NoError(t, err)
		dit, err := codec.NewDecodeIterator(it.Bytes())
		require.NoError(t, err)
		require.ErrorIs(t, dec.DecodePart(dit), errs.ErrInvalidData)
	})

	t.Run("truncated", func(t *testing.T) {
		dec, err := NewDecoder[int16]()
		require.NoError(t, err)
		part := fieldParts[0]
		it, err := codec.NewDecodeIterator(part[:len(part)-3])
		require.NoError(t, err)
		require.Error(t, dec.DecodePart(it))
		require.Zero(t, dec.Parts())
	})
}

func TestDictionary_Options(t *testing.T) {
	_, err := NewEncoder[int16](Info{}, nil, WithMaxPartSize(-1))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewDecoder[int16](WithCompression(format.CompressionType(9)))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	bad := &setdef.FieldSetDef{ID: 20, Entries: []setdef.FieldSetDefEntry{{Tag: 1, DataType: format.Map}}}
	_, err = NewEncoder(Info{}, []*setdef.FieldSetDef{bad})
	require.ErrorIs(t, err, errs.ErrUnsupportedDataType)
}

func TestDictionary_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogfmtLogger(log.NewSyncWriter(&buf))

	enc, err := NewEncoder(Info{DictionaryID: 9}, fieldDefs(2), WithLogger(logger))
	require.NoError(t, err)
	parts := encodeParts(t, enc, 1024)

	dec, err := NewDecoder[int16](WithLogger(logger))
	require.NoError(t, err)
	decodeParts(t, dec, parts)
	db, err := setdef.NewGlobalFieldDb()
	require.NoError(t, err)
	require.NoError(t, dec.Publish(db))

	out := buf.String()
	require.Contains(t, out, `msg="encoded dictionary part"`)
	require.Contains(t, out, `msg="accumulated dictionary part"`)
	require.Contains(t, out, `msg="published dictionary"`)
	require.Contains(t, out, "dictionary_id=9")
}
