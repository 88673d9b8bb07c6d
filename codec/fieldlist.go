package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
	"github.com/arloliu/rwf/setdef"
)

// FieldListFlags describe the optional parts of a field list.
type FieldListFlags uint8

const (
	FieldListHasInfo         FieldListFlags = 0x01 // dictionary id and field list number follow the flags
	FieldListHasSetData      FieldListFlags = 0x02
	FieldListHasSetID        FieldListFlags = 0x04 // absent means set id 0
	FieldListHasStandardData FieldListFlags = 0x08
)

// FieldList is a container of entries tagged with a dictionary field id.
//
// Encoding, one-shot entries:
//
//	fl := codec.FieldList{Flags: codec.FieldListHasStandardData}
//	err := fl.EncodeInit(it, setdef.FieldResolver{}, 0)
//	fe := codec.FieldEntry{FieldID: 22}
//	err = fe.Encode(it, codec.Value(primitive.NewReal(3194, primitive.ExponentNeg2)))
//	err = fl.EncodeComplete(it, true)
//
// Decoding:
//
//	err := fl.Decode(it, setdef.FieldResolver{})
//	for err = fe.Decode(it); err == nil; err = fe.Decode(it) { ... }
//	// err is errs.ErrEndOfContainer once every entry was read
type FieldList struct {
	Flags        FieldListFlags
	DictionaryID uint16
	FieldListNum int16
	SetID        uint16

	// EncodedSetData holds pre-encoded set data on encode and the raw set data on decode.
	EncodedSetData []byte
	// EncodedEntries holds the raw standard entries on decode.
	EncodedEntries []byte
}

// FieldEntry is one entry of a FieldList.
type FieldEntry struct {
	FieldID int16
	// DataType is the type of the payload. On encode it is checked against set
	// definitions; on decode it is the set slot's base type, or Unknown for
	// standard entries whose type lives in a field dictionary.
	DataType    format.DataType
	EncodedData []byte
}

// EncodeInit opens a field list. When set data is flagged and EncodedSetData is
// empty, the set definition is resolved through r (see setdef.Resolver) and the
// first entries must follow it in order. maxSetSize sizes the set data length field,
// 0 meaning unknown. On error nothing is written and no level is opened.
func (fl *FieldList) EncodeInit(it *EncodeIterator, r setdef.FieldResolver, maxSetSize int) error {
	local, _ := it.parentDefs()
	r = r.WithLocal(local)

	lvl, err := it.push(format.FieldList)
	if err != nil {
		return err
	}

	if err := fl.encodeHeader(it, lvl, r, maxSetSize); err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

func (fl *FieldList) encodeHeader(it *EncodeIterator, lvl *encodingLevel, r setdef.FieldResolver, maxSetSize int) error {
	lvl.flags = uint8(fl.Flags)
	standard := fl.Flags&FieldListHasStandardData != 0

	if err := it.putByte(uint8(fl.Flags)); err != nil {
		return err
	}

	if fl.Flags&FieldListHasInfo != 0 {
		if fl.DictionaryID > wire.MaxRB15 {
			return fmt.Errorf("%w: dictionary id %d", errs.ErrValueOutOfRange, fl.DictionaryID)
		}
		if err := it.putByte(byte(wire.RB15Len(fl.DictionaryID) + 2)); err != nil {
			return err
		}
		if err := it.putRB15(fl.DictionaryID); err != nil {
			return err
		}
		if err := it.putUint16(uint16(fl.FieldListNum)); err != nil { //nolint:gosec
			return err
		}
	}

	if fl.Flags&FieldListHasSetData != 0 {
		var setID uint16
		if fl.Flags&FieldListHasSetID != 0 {
			setID = fl.SetID
			if err := it.putRB15(setID); err != nil {
				return err
			}
		}

		if len(fl.EncodedSetData) > 0 {
			if standard {
				if err := it.putRB15Bytes(fl.EncodedSetData); err != nil {
					return err
				}
			} else if err := it.putBytes(fl.EncodedSetData); err != nil {
				return err
			}

			return it.startEntries(lvl, standard, 2)
		}

		def, err := r.Resolve(setID, it.minor)
		if err != nil {
			return err
		}
		if standard {
			if lvl.dataMark, err = it.markLength(formRB15, maxSetSize); err != nil {
				return err
			}
		}
		if def.Len() > 0 {
			lvl.fieldSet = def
			lvl.state = stateSetData

			return nil
		}
	}

	return it.startEntries(lvl, standard, 2)
}

// EncodeComplete closes the field list. With success false the buffer is restored to
// its state before EncodeInit. A failed completion leaves the list open.
func (fl *FieldList) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.FieldList)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

// Encode writes the entry with payload p in one step.
func (fe *FieldEntry) Encode(it *EncodeIterator, p Payload) error {
	lvl, err := it.top(format.FieldList)
	if err != nil {
		return err
	}

	start := it.pos
	switch lvl.state { //nolint: exhaustive
	case stateSetData:
		slot := lvl.fieldSet.Entries[lvl.setIndex]
		if slot.Tag != fe.FieldID {
			return fieldMismatch(lvl, fe.FieldID, slot.Tag)
		}
		err = it.putSetValue(slot.DataType, fe.DataType, p)
		if err == nil {
			err = it.advanceSet(lvl, lvl.fieldSet.Len(), lvl.flags&uint8(FieldListHasStandardData) != 0)
		}
	case stateEntries:
		if err = it.beginEntry(lvl); err != nil {
			return err
		}
		if err = it.putUint16(uint16(fe.FieldID)); err == nil { //nolint:gosec
			err = it.putOB16Payload(p.forVersion(it.minor))
		}
		if err == nil {
			lvl.count++
		}
	default:
		return fmt.Errorf("%w: field list does not accept entries now", errs.ErrInvalidArgument)
	}

	if err != nil {
		it.pos = start
	}

	return err
}

// EncodeInit opens the entry for a payload written by a nested container or array.
// maxSize sizes the length field, 0 meaning unknown.
func (fe *FieldEntry) EncodeInit(it *EncodeIterator, maxSize int) error {
	lvl, err := it.top(format.FieldList)
	if err != nil {
		return err
	}

	switch lvl.state { //nolint: exhaustive
	case stateSetData:
		slot := lvl.fieldSet.Entries[lvl.setIndex]
		if slot.Tag != fe.FieldID {
			return fieldMismatch(lvl, fe.FieldID, slot.Tag)
		}

		return it.openSetEntry(lvl, slot.DataType, fe.DataType, maxSize)
	case stateEntries:
		if err := it.beginEntry(lvl); err != nil {
			return err
		}
		if err := it.putUint16(uint16(fe.FieldID)); err != nil { //nolint:gosec
			return err
		}
		if err := it.openEntry(lvl, fe.DataType, maxSize); err != nil {
			it.pos = lvl.entryPos
			return err
		}

		return nil
	default:
		return fmt.Errorf("%w: field list does not accept entries now", errs.ErrInvalidArgument)
	}
}

// EncodeComplete closes an entry opened with EncodeInit. With success false the
// entry is removed from the buffer.
func (fe *FieldEntry) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.FieldList)
	if err != nil {
		return err
	}

	if lvl.state == stateSetEntryInit {
		return it.completeSetEntry(lvl, lvl.fieldSet.Len(), lvl.flags&uint8(FieldListHasStandardData) != 0, success)
	}

	return it.completeEntry(lvl, success)
}

func fieldMismatch(lvl *encodingLevel, got, want int16) error {
	return fmt.Errorf("%w: field %d does not match set %d entry %d (field %d)",
		errs.ErrInvalidData, got, lvl.fieldSet.ID, lvl.setIndex, want)
}

// Decode opens the field list in the iterator's current window: the whole buffer,
// or the payload of the entry just decoded. Set data whose definition r cannot
// resolve is skipped. An empty window returns errs.ErrBlankData without opening a level.
func (fl *FieldList) Decode(it *DecodeIterator, r setdef.FieldResolver) error {
	data, parent, err := it.window(format.FieldList)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.FieldList)
	}
	if parent != nil && parent.hasFieldDefs {
		r = r.WithLocal(&parent.fieldDefs)
	}

	*fl = FieldList{}
	c := cursor{data: data}
	flags, err := c.u8()
	if err != nil {
		return err
	}
	fl.Flags = FieldListFlags(flags)

	if fl.Flags&FieldListHasInfo != 0 {
		n, err := c.u8()
		if err != nil {
			return err
		}
		info, err := c.bytes(int(n))
		if err != nil {
			return err
		}
		ic := cursor{data: info}
		if fl.DictionaryID, err = ic.rb15(); err != nil {
			return err
		}
		num, err := ic.uint16()
		if err != nil {
			return err
		}
		fl.FieldListNum = int16(num) //nolint:gosec
	}

	var def *setdef.FieldSetDef
	if fl.Flags&FieldListHasSetData != 0 {
		if fl.Flags&FieldListHasSetID != 0 {
			if fl.SetID, err = c.rb15(); err != nil {
				return err
			}
		}
		if fl.Flags&FieldListHasStandardData != 0 {
			if fl.EncodedSetData, err = c.rb15Bytes(); err != nil {
				return err
			}
		} else {
			fl.EncodedSetData, _ = c.bytes(c.remaining())
		}
		def, _ = r.Resolve(fl.SetID, it.minor)
	}

	count := 0
	if fl.Flags&FieldListHasStandardData != 0 {
		n, err := c.uint16()
		if err != nil {
			return err
		}
		count = int(n)
		fl.EncodedEntries = c.rest()
	}

	lvl, err := it.push(format.FieldList, flags, c)
	if err != nil {
		return err
	}
	lvl.count = count
	lvl.set = cursor{data: fl.EncodedSetData}
	lvl.fieldSet = def

	return nil
}

// Decode reads the next entry: set-defined entries first, then standard entries.
// It returns errs.ErrEndOfContainer after the last entry and closes the list.
// EncodedData of a set-defined entry is valid until the next call.
func (fe *FieldEntry) Decode(it *DecodeIterator) error {
	lvl, err := it.top(format.FieldList)
	if err != nil {
		return err
	}
	*fe = FieldEntry{}

	if lvl.fieldSet != nil && lvl.setIndex < lvl.fieldSet.Len() {
		slot := lvl.fieldSet.Entries[lvl.setIndex]
		data, err := lvl.readSetValue(slot.DataType)
		if err != nil {
			return err
		}
		lvl.setIndex++

		fe.FieldID, fe.DataType, fe.EncodedData = slot.Tag, slot.DataType.BaseType(), data
		lvl.setEntry(data, fe.DataType)

		return nil
	}

	if err := it.next(lvl); err != nil {
		return err
	}

	fid, err := lvl.uint16()
	if err != nil {
		return err
	}
	data, err := lvl.obBytes()
	if err != nil {
		return err
	}
	lvl.index++

	fe.FieldID, fe.EncodedData = int16(fid), data //nolint:gosec
	lvl.setEntry(data, format.Unknown)

	return nil
}
