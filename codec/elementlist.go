package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/setdef"
)

// ElementListFlags describe the optional parts of an element list.
type ElementListFlags uint8

const (
	ElementListHasInfo         ElementListFlags = 0x01 // element list number follows the flags
	ElementListHasSetData      ElementListFlags = 0x02
	ElementListHasSetID        ElementListFlags = 0x04
	ElementListHasStandardData ElementListFlags = 0x08
)

// ElementList is a container of named, self-typed entries.
type ElementList struct {
	Flags          ElementListFlags
	ElementListNum int16
	SetID          uint16

	EncodedSetData []byte
	EncodedEntries []byte
}

// ElementEntry is one entry of an ElementList. Standard entries carry their
// DataType on the wire; a NoData entry has no payload.
type ElementEntry struct {
	Name        string
	DataType    format.DataType
	EncodedData []byte
}

// EncodeInit opens an element list. See FieldList.EncodeInit.
func (el *ElementList) EncodeInit(it *EncodeIterator, r setdef.ElementResolver, maxSetSize int) error {
	_, local := it.parentDefs()
	r = r.WithLocal(local)

	lvl, err := it.push(format.ElementList)
	if err != nil {
		return err
	}

	if err := el.encodeHeader(it, lvl, r, maxSetSize); err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

func (el *ElementList) encodeHeader(it *EncodeIterator, lvl *encodingLevel, r setdef.ElementResolver, maxSetSize int) error {
	lvl.flags = uint8(el.Flags)
	standard := el.Flags&ElementListHasStandardData != 0

	if err := it.putByte(uint8(el.Flags)); err != nil {
		return err
	}

	if el.Flags&ElementListHasInfo != 0 {
		if err := it.putByte(2); err != nil {
			return err
		}
		if err := it.putUint16(uint16(el.ElementListNum)); err != nil { //nolint:gosec
			return err
		}
	}

	if el.Flags&ElementListHasSetData != 0 {
		var setID uint16
		if el.Flags&ElementListHasSetID != 0 {
			setID = el.SetID
			if err := it.putRB15(setID); err != nil {
				return err
			}
		}

		if len(el.EncodedSetData) > 0 {
			if standard {
				if err := it.putRB15Bytes(el.EncodedSetData); err != nil {
					return err
				}
			} else if err := it.putBytes(el.EncodedSetData); err != nil {
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
			lvl.elementSet = def
			lvl.state = stateSetData

			return nil
		}
	}

	return it.startEntries(lvl, standard, 2)
}

// EncodeComplete closes the element list. See FieldList.EncodeComplete.
func (el *ElementList) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.ElementList)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

// entryType returns the type written for a standard entry carrying p.
func (ee *ElementEntry) entryType(p Payload) (format.DataType, error) {
	dt := ee.DataType
	if p.kind == payloadValue {
		vt := p.value.DataType()
		if dt != format.Unknown && dt != vt {
			return 0, fmt.Errorf("%w: element %q declared %s, value is %s", errs.ErrInvalidData, ee.Name, dt, vt)
		}
		dt = vt
	}

	switch {
	case dt == format.Unknown:
		return 0, fmt.Errorf("%w: element %q has no data type", errs.ErrInvalidArgument, ee.Name)
	case dt == format.NoData && !p.IsBlank():
		return 0, fmt.Errorf("%w: element %q is NoData but has a payload", errs.ErrInvalidArgument, ee.Name)
	}

	return dt, nil
}

func (ee *ElementEntry) putHeader(it *EncodeIterator, dt format.DataType) error {
	if err := it.putRB15Bytes([]byte(ee.Name)); err != nil {
		return err
	}

	return it.putByte(byte(dt))
}

// Encode writes the entry with payload p in one step.
func (ee *ElementEntry) Encode(it *EncodeIterator, p Payload) error {
	lvl, err := it.top(format.ElementList)
	if err != nil {
		return err
	}

	start := it.pos
	switch lvl.state { //nolint: exhaustive
	case stateSetData:
		slot := lvl.elementSet.Entries[lvl.setIndex]
		if slot.Tag != ee.Name {
			return elementMismatch(lvl, ee.Name, slot.Tag)
		}
		err = it.putSetValue(slot.DataType, ee.DataType, p)
		if err == nil {
			err = it.advanceSet(lvl, lvl.elementSet.Len(), lvl.flags&uint8(ElementListHasStandardData) != 0)
		}
	case stateEntries:
		var dt format.DataType
		if dt, err = ee.entryType(p); err != nil {
			return err
		}
		if err = it.beginEntry(lvl); err != nil {
			return err
		}
		err = ee.putHeader(it, dt)
		if err == nil && dt != format.NoData {
			err = it.putOB16Payload(p.forVersion(it.minor))
		}
		if err == nil {
			lvl.count++
		}
	default:
		return fmt.Errorf("%w: element list does not accept entries now", errs.ErrInvalidArgument)
	}

	if err != nil {
		it.pos = start
	}

	return err
}

// EncodeInit opens the entry for a payload of type DataType written by a nested
// container or array.
func (ee *ElementEntry) EncodeInit(it *EncodeIterator, maxSize int) error {
	lvl, err := it.top(format.ElementList)
	if err != nil {
		return err
	}

	switch lvl.state { //nolint: exhaustive
	case stateSetData:
		slot := lvl.elementSet.Entries[lvl.setIndex]
		if slot.Tag != ee.Name {
			return elementMismatch(lvl, ee.Name, slot.Tag)
		}

		return it.openSetEntry(lvl, slot.DataType, ee.DataType, maxSize)
	case stateEntries:
		if ee.DataType == format.Unknown || ee.DataType == format.NoData {
			return fmt.Errorf("%w: element %q needs a payload type", errs.ErrInvalidArgument, ee.Name)
		}
		if err := it.beginEntry(lvl); err != nil {
			return err
		}
		err := ee.putHeader(it, ee.DataType)
		if err == nil {
			err = it.openEntry(lvl, ee.DataType, maxSize)
		}
		if err != nil {
			it.pos = lvl.entryPos
			return err
		}

		return nil
	default:
		return fmt.Errorf("%w: element list does not accept entries now", errs.ErrInvalidArgument)
	}
}

// EncodeComplete closes an entry opened with EncodeInit.
func (ee *ElementEntry) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.ElementList)
	if err != nil {
		return err
	}

	if lvl.state == stateSetEntryInit {
		return it.completeSetEntry(lvl, lvl.elementSet.Len(), lvl.flags&uint8(ElementListHasStandardData) != 0, success)
	}

	return it.completeEntry(lvl, success)
}

func elementMismatch(lvl *encodingLevel, got, want string) error {
	return fmt.Errorf("%w: element %q does not match set %d entry %d (element %q)",
		errs.ErrInvalidData, got, lvl.elementSet.ID, lvl.setIndex, want)
}

// Decode opens the element list in the iterator's current window. See FieldList.Decode.
func (el *ElementList) Decode(it *DecodeIterator, r setdef.ElementResolver) error {
	data, parent, err := it.window(format.ElementList)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.ElementList)
	}
	if parent != nil && parent.hasElementDefs {
		r = r.WithLocal(&parent.elementDefs)
	}

	*el = ElementList{}
	c := cursor{data: data}
	flags, err := c.u8()
	if err != nil {
		return err
	}
	el.Flags = ElementListFlags(flags)

	if el.Flags&ElementListHasInfo != 0 {
		n, err := c.u8()
		if err != nil {
			return err
		}
		info, err := c.bytes(int(n))
		if err != nil {
			return err
		}
		ic := cursor{data: info}
		num, err := ic.uint16()
		if err != nil {
			return err
		}
		el.ElementListNum = int16(num) //nolint:gosec
	}

	var def *setdef.ElementSetDef
	if el.Flags&ElementListHasSetData != 0 {
		if el.Flags&ElementListHasSetID != 0 {
			if el.SetID, err = c.rb15(); err != nil {
				return err
			}
		}
		if el.Flags&ElementListHasStandardData != 0 {
			if el.EncodedSetData, err = c.rb15Bytes(); err != nil {
				return err
			}
		} else {
			el.EncodedSetData, _ = c.bytes(c.remaining())
		}
		def, _ = r.Resolve(el.SetID, it.minor)
	}

	count := 0
	if el.Flags&ElementListHasStandardData != 0 {
		n, err := c.uint16()
		if err != nil {
			return err
		}
		count = int(n)
		el.EncodedEntries = c.rest()
	}

	lvl, err := it.push(format.ElementList, flags, c)
	if err != nil {
		return err
	}
	lvl.count = count
	lvl.set = cursor{data: el.EncodedSetData}
	lvl.elementSet = def

	return nil
}

// Decode reads the next entry. See FieldEntry.Decode.
func (ee *ElementEntry) Decode(it *DecodeIterator) error {
	lvl, err := it.top(format.ElementList)
	if err != nil {
		return err
	}
	*ee = ElementEntry{}

	if lvl.elementSet != nil && lvl.setIndex < lvl.elementSet.Len() {
		slot := lvl.elementSet.Entries[lvl.setIndex]
		data, err := lvl.readSetValue(slot.DataType)
		if err != nil {
			return err
		}
		lvl.setIndex++

		ee.Name, ee.DataType, ee.EncodedData = slot.Tag, slot.DataType.BaseType(), data
		lvl.setEntry(data, ee.DataType)

		return nil
	}

	if err := it.next(lvl); err != nil {
		return err
	}

	name, err := lvl.rb15Bytes()
	if err != nil {
		return err
	}
	dt, err := lvl.u8()
	if err != nil {
		return err
	}
	ee.Name, ee.DataType = string(name), format.DataType(dt)

	if ee.DataType != format.NoData {
		if ee.EncodedData, err = lvl.obBytes(); err != nil {
			return err
		}
	}
	lvl.index++
	lvl.setEntry(ee.EncodedData, ee.DataType)

	return nil
}
