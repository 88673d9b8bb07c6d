package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// MapFlags describe the optional parts of a map.
type MapFlags uint8

const (
	MapHasSetDefs        MapFlags = 0x01
	MapHasSummaryData    MapFlags = 0x02
	MapHasPermData       MapFlags = 0x04 // entries may carry permission data
	MapHasTotalCountHint MapFlags = 0x08
	MapHasKeyFieldID     MapFlags = 0x10
)

// Map is a container of entries keyed by a primitive value. Each entry carries an
// action (Add, Update or Delete) and, except for Delete, a container payload of
// ContainerType.
//
// A map with a declared ContainerType may complete with no entries. A map that
// infers its type must see summary data or at least one entry: one holding only
// Delete entries completes as NoData, and one holding nothing fails with
// errs.ErrInvalidData. Until the type is inferred, Add and Update entries must be
// written through EncodeInit.
type Map struct {
	Flags            MapFlags
	KeyPrimitiveType format.DataType
	KeyFieldID       int16
	// ContainerType of the summary and entries. Unknown infers it from the first
	// nested container.
	ContainerType  format.DataType
	TotalCountHint uint32

	// Local set definitions written with MapHasSetDefs: one of the typed tables,
	// or EncodedSetDefs when already encoded. On decode the typed table matching
	// ContainerType is filled.
	FieldSetDefs   *setdef.LocalFieldDb
	ElementSetDefs *setdef.LocalElementDb
	EncodedSetDefs []byte

	// EncodedSummaryData is pre-encoded summary data on encode; when empty with
	// MapHasSummaryData the summary is written by a nested container and closed
	// with EncodeSummaryComplete.
	EncodedSummaryData []byte
	EncodedEntries     []byte
}

// MapEntry is one entry of a Map.
type MapEntry struct {
	Action format.EntryAction
	// PermData is written when non-nil; the map must flag MapHasPermData.
	PermData    []byte
	EncodedKey  []byte
	EncodedData []byte
}

func (m *Map) header() *keyedHeader {
	return &keyedHeader{
		hasSetDefs:   m.Flags&MapHasSetDefs != 0,
		hasSummary:   m.Flags&MapHasSummaryData != 0,
		hasCountHint: m.Flags&MapHasTotalCountHint != 0,
		countHint:    m.TotalCountHint,
		fieldDefs:    m.FieldSetDefs,
		elementDefs:  m.ElementSetDefs,
		rawSetDefs:   m.EncodedSetDefs,
		rawSummary:   m.EncodedSummaryData,
	}
}

// EncodeInit opens a map. summaryMaxSize sizes the summary length field when the
// summary is written by a nested container, 0 meaning unknown. On error nothing is
// written and no level is opened.
func (m *Map) EncodeInit(it *EncodeIterator, summaryMaxSize int) error {
	if !m.KeyPrimitiveType.IsPrimitive() || m.KeyPrimitiveType == format.Array {
		return fmt.Errorf("%w: map key type %s", errs.ErrInvalidArgument, m.KeyPrimitiveType)
	}

	lvl, err := it.push(format.Map)
	if err != nil {
		return err
	}

	if err := m.encodeHeader(it, lvl, summaryMaxSize); err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

func (m *Map) encodeHeader(it *EncodeIterator, lvl *encodingLevel, summaryMaxSize int) error {
	lvl.flags = uint8(m.Flags)
	lvl.keyType = m.KeyPrimitiveType

	if err := it.putByte(uint8(m.Flags)); err != nil {
		return err
	}
	if err := it.putByte(byte(m.KeyPrimitiveType)); err != nil {
		return err
	}
	if err := it.putEntryKind(lvl, m.ContainerType); err != nil {
		return err
	}
	if m.Flags&MapHasKeyFieldID != 0 {
		if err := it.putUint16(uint16(m.KeyFieldID)); err != nil { //nolint:gosec
			return err
		}
	}

	return it.putKeyedHeader(lvl, m.header(), summaryMaxSize)
}

// EncodeSummaryComplete closes summary data written by a nested container.
// With success false the summary is discarded and may be written again.
func (m *Map) EncodeSummaryComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Map)
	if err != nil {
		return err
	}

	return it.completeSummary(lvl, success, m.Flags&MapHasTotalCountHint != 0, m.TotalCountHint)
}

// EncodeComplete closes the map. With success false the buffer is restored to its
// state before EncodeInit.
func (m *Map) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Map)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

// putHeader writes the action, permission data and key, and reports whether a
// payload follows.
func (me *MapEntry) putHeader(it *EncodeIterator, lvl *encodingLevel, key Payload) (bool, error) {
	code, err := mapActionCode(me.Action)
	if err != nil {
		return false, err
	}
	if key.kind == payloadValue && key.value.DataType() != lvl.keyType {
		return false, fmt.Errorf("%w: %s key in a map keyed by %s", errs.ErrInvalidData, key.value.DataType(), lvl.keyType)
	}

	var flags uint8
	if me.PermData != nil {
		flags |= entryHasPermData
	}
	if err := it.putByte(flags<<4 | code); err != nil {
		return false, err
	}
	if err := it.putPermData(lvl, lvl.flags&uint8(MapHasPermData) != 0, me.PermData); err != nil {
		return false, err
	}
	if err := it.putOB16Payload(key.forVersion(it.minor)); err != nil {
		return false, err
	}

	return me.Action != format.ActionDelete && lvl.entryKind != format.NoData, nil
}

// Encode writes the entry with the given key and payload in one step.
// The payload of a Delete entry is ignored.
func (me *MapEntry) Encode(it *EncodeIterator, key, data Payload) error {
	lvl, err := it.top(format.Map)
	if err != nil {
		return err
	}
	if err := containerPayload(format.Map, data); err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	hasData, err := me.putHeader(it, lvl, key)
	if err == nil && hasData {
		err = it.putEntryPayload(lvl, lvl.entryKind, data)
	}
	if err != nil {
		it.pos = lvl.entryPos
		return err
	}
	lvl.count++

	return nil
}

// EncodeInit opens the entry for a payload written by a nested container.
func (me *MapEntry) EncodeInit(it *EncodeIterator, key Payload, maxSize int) error {
	lvl, err := it.top(format.Map)
	if err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	hasData, err := me.putHeader(it, lvl, key)
	if err == nil && !hasData {
		err = fmt.Errorf("%w: %s map entry has no payload", errs.ErrInvalidArgument, me.Action)
	}
	if err == nil {
		err = it.openEntry(lvl, lvl.entryKind, maxSize)
	}
	if err != nil {
		it.pos = lvl.entryPos
		return err
	}

	return nil
}

// EncodeComplete closes an entry opened with EncodeInit.
func (me *MapEntry) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Map)
	if err != nil {
		return err
	}

	return it.completeEntry(lvl, success)
}

// Decode opens the map in the iterator's current window. Right after Decode the
// window holds the summary data, so the summary container can be decoded next.
func (m *Map) Decode(it *DecodeIterator) error {
	data, _, err := it.window(format.Map)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.Map)
	}

	*m = Map{}
	c := cursor{data: data}
	flags, err := c.u8()
	if err != nil {
		return err
	}
	m.Flags = MapFlags(flags)

	kt, err := c.u8()
	if err != nil {
		return err
	}
	m.KeyPrimitiveType = format.DataType(kt)
	if m.ContainerType, err = c.containerType(); err != nil {
		return err
	}

	if m.Flags&MapHasKeyFieldID != 0 {
		fid, err := c.uint16()
		if err != nil {
			return err
		}
		m.KeyFieldID = int16(fid) //nolint:gosec
	}

	h := m.header()
	if err := readKeyedHeader(&c, h, m.ContainerType); err != nil {
		return err
	}
	m.FieldSetDefs, m.ElementSetDefs, m.EncodedSetDefs = h.fieldDefs, h.elementDefs, h.rawSetDefs
	m.EncodedSummaryData, m.TotalCountHint = h.rawSummary, h.countHint

	lvl, err := it.pushKeyed(format.Map, flags, c, h, m.ContainerType)
	if err != nil {
		return err
	}
	m.EncodedEntries = lvl.rest()

	return nil
}

// DecodeKey decodes the key of an entry of m.
func (m *Map) DecodeKey(me *MapEntry) (primitive.Value, error) {
	return primitive.Decode(m.KeyPrimitiveType, me.EncodedKey)
}

// Decode reads the next entry. It returns errs.ErrEndOfContainer after the last
// entry and closes the map.
func (me *MapEntry) Decode(it *DecodeIterator) error {
	lvl, err := it.top(format.Map)
	if err != nil {
		return err
	}
	*me = MapEntry{}

	if err := it.next(lvl); err != nil {
		return err
	}

	b, err := lvl.u8()
	if err != nil {
		return err
	}
	if me.Action, err = mapAction(b & 0x0F); err != nil {
		return err
	}
	if (b>>4)&entryHasPermData != 0 {
		if me.PermData, err = lvl.rb15Bytes(); err != nil {
			return err
		}
	}
	if me.EncodedKey, err = lvl.obBytes(); err != nil {
		return err
	}
	if me.Action != format.ActionDelete && lvl.entryKind != format.NoData {
		if me.EncodedData, err = lvl.obBytes(); err != nil {
			return err
		}
	}
	lvl.index++
	lvl.setEntry(me.EncodedData, lvl.entryKind)

	return nil
}
