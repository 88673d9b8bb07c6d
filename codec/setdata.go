package codec

import (
	"fmt"
	"math"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
)

// putSetValue writes p as the value of a set definition slot of type slot. declared
// is the type the caller gave the entry; Unknown skips the type check for pre-encoded
// payloads.
func (it *EncodeIterator) putSetValue(slot, declared format.DataType, p Payload) error {
	p = p.forVersion(it.minor)
	if p.kind == payloadValue {
		declared = p.value.DataType()
	}
	if declared != format.Unknown && declared != slot.BaseType() {
		return fmt.Errorf("%w: %s entry for a %s set slot", errs.ErrInvalidData, declared, slot)
	}

	if !slot.IsSetDefined() {
		if primitive.HasWidePrefix(slot) {
			return it.putOB16Payload(p)
		}

		n := p.Len()
		if n > math.MaxUint8 {
			return fmt.Errorf("%w: %d bytes in a %s set slot", errs.ErrValueOutOfRange, n, slot)
		}
		dst, err := it.reserve(1 + n)
		if err != nil {
			return err
		}
		dst[0] = byte(n)
		p.put(dst[1:])

		return nil
	}

	v, err := p.decoded(slot.BaseType())
	if err != nil {
		return err
	}

	n, err := primitive.SetLen(slot, v)
	if err != nil {
		return err
	}
	dst, err := it.reserve(n)
	if err != nil {
		return err
	}
	_, err = primitive.PutSet(dst, slot, v)

	return err
}

// advanceSet moves past a completed set entry; after the last one the level moves
// on to its standard entries.
func (it *EncodeIterator) advanceSet(lvl *encodingLevel, size int, standard bool) error {
	if lvl.setIndex+1 < size {
		lvl.setIndex++
		return nil
	}

	if err := it.startEntries(lvl, standard, 2); err != nil {
		return err
	}
	lvl.setIndex++

	return nil
}

// openSetEntry reserves the length of a phased set entry. Only slots holding a
// length-prefixed standard type can be written in phases.
func (it *EncodeIterator) openSetEntry(lvl *encodingLevel, slot, declared format.DataType, maxSize int) error {
	if !primitive.HasWidePrefix(slot) {
		return fmt.Errorf("%w: set slot of type %s cannot be encoded in phases", errs.ErrInvalidArgument, slot)
	}
	if declared != format.Unknown && declared != slot {
		return fmt.Errorf("%w: %s entry for a %s set slot", errs.ErrInvalidData, declared, slot)
	}

	lvl.entryPos = it.pos
	m, err := it.markLength(formOB16, maxSize)
	if err != nil {
		return err
	}
	lvl.entryMark = m
	lvl.curKind = slot
	lvl.state = stateSetEntryInit

	return nil
}

// completeSetEntry closes a phased set entry.
func (it *EncodeIterator) completeSetEntry(lvl *encodingLevel, size int, standard, success bool) error {
	if !success {
		it.pos = lvl.entryPos
		lvl.state = stateSetData
		lvl.curKind = format.Unknown

		return nil
	}

	if err := it.finishLength(lvl.entryMark); err != nil {
		return err
	}
	lvl.state = stateSetData
	lvl.curKind = format.Unknown
	if err := it.advanceSet(lvl, size, standard); err != nil {
		lvl.state = stateSetEntryInit
		return err
	}

	return nil
}
