package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
	"github.com/arloliu/rwf/setdef"
)

// entryHasPermData is the per-entry permission data flag of Map, Vector and FilterList entries.
const entryHasPermData uint8 = 0x01

// keyedHeader is the part of a Map, Vector or Series header that follows the
// container type: local set definitions, summary data, then the count hint.
type keyedHeader struct {
	hasSetDefs   bool
	hasSummary   bool
	hasCountHint bool
	countHint    uint32

	fieldDefs   *setdef.LocalFieldDb
	elementDefs *setdef.LocalElementDb
	rawSetDefs  []byte
	rawSummary  []byte
}

// putEntryKind writes the container type byte of a header and records it on lvl.
// An Unknown type is inferred from the first nested container.
func (it *EncodeIterator) putEntryKind(lvl *encodingLevel, ct format.DataType) error {
	if ct != format.Unknown && !ct.IsContainer() {
		return fmt.Errorf("%w: %s is not a container type", errs.ErrInvalidArgument, ct)
	}

	lvl.entryKindPos = it.pos
	lvl.entryKind = ct
	lvl.inferred = ct == format.Unknown

	var b byte
	if ct != format.Unknown {
		b = byte(ct - format.ContainerTypeMin)
	}

	return it.putByte(b)
}

// putKeyedHeader writes the set definitions and summary of h. A summary without
// pre-encoded bytes leaves lvl waiting for a nested container; otherwise the count
// hint and entry count follow.
func (it *EncodeIterator) putKeyedHeader(lvl *encodingLevel, h *keyedHeader, summaryMaxSize int) error {
	if h.hasSetDefs {
		if err := it.putSetDefs(lvl, h); err != nil {
			return err
		}
	}

	if h.hasSummary {
		if len(h.rawSummary) == 0 {
			m, err := it.markLength(formRB15, summaryMaxSize)
			if err != nil {
				return err
			}
			lvl.dataMark = m
			lvl.curKind = lvl.entryKind
			lvl.state = stateSummary

			return nil
		}

		if err := it.putRB15Bytes(h.rawSummary); err != nil {
			return err
		}
	}

	return it.putKeyedTail(lvl, h.hasCountHint, h.countHint)
}

func (it *EncodeIterator) putSetDefs(lvl *encodingLevel, h *keyedHeader) error {
	type localDb interface {
		EncodedLen() int
		Put(dst []byte) (int, error)
	}

	var db localDb
	switch {
	case h.fieldDefs != nil:
		db = h.fieldDefs
		lvl.fieldDefs = h.fieldDefs
	case h.elementDefs != nil:
		db = h.elementDefs
		lvl.elementDefs = h.elementDefs
	case len(h.rawSetDefs) > 0:
		return it.putRB15Bytes(h.rawSetDefs)
	default:
		return fmt.Errorf("%w: %s flags set definitions but none were given", errs.ErrInvalidArgument, lvl.kind)
	}

	n := db.EncodedLen()
	if n > wire.MaxRB15 {
		return fmt.Errorf("%w: %d bytes of set definitions", errs.ErrValueOutOfRange, n)
	}
	if err := it.putRB15(uint16(n)); err != nil { //nolint:gosec
		return err
	}
	dst, err := it.reserve(n)
	if err != nil {
		return err
	}
	_, err = db.Put(dst)

	return err
}

// putKeyedTail writes the count hint and reserves the entry count.
func (it *EncodeIterator) putKeyedTail(lvl *encodingLevel, hasCountHint bool, hint uint32) error {
	if hasCountHint {
		if err := it.putRB30(hint); err != nil {
			return err
		}
	}

	return it.startEntries(lvl, true, 2)
}

// completeSummary closes summary data written by a nested container. On failure the
// summary bytes are discarded and the container waits for a new summary.
func (it *EncodeIterator) completeSummary(lvl *encodingLevel, success bool, hasCountHint bool, hint uint32) error {
	if lvl.state != stateSummary {
		return fmt.Errorf("%w: %s has no open summary", errs.ErrInvalidArgument, lvl.kind)
	}

	if !success {
		it.pos = lvl.dataMark.pos + lvl.dataMark.width
		return nil
	}

	if err := it.finishLength(lvl.dataMark); err != nil {
		return err
	}
	lvl.dataMark = lengthMark{}
	lvl.curKind = format.Unknown

	pos := it.pos
	if err := it.putKeyedTail(lvl, hasCountHint, hint); err != nil {
		it.pos = pos
		lvl.state = stateSummary

		return err
	}

	return nil
}

// putPermData writes per-entry permission data when the container allows it.
func (it *EncodeIterator) putPermData(lvl *encodingLevel, allowed bool, perm []byte) error {
	if perm == nil {
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: %s entry has permission data but the container does not flag it", errs.ErrInvalidArgument, lvl.kind)
	}

	return it.putRB15Bytes(perm)
}

// containerPayload rejects primitive values as the payload of a container entry.
func containerPayload(kind format.DataType, p Payload) error {
	if p.kind == payloadValue {
		return fmt.Errorf("%w: %s entries hold containers, got a %s value", errs.ErrInvalidArgument, kind, p.value.DataType())
	}

	return nil
}

// putEntryPayload writes a one-shot entry payload of the given kind. An inferred
// container whose kind is still unknown cannot take one: nothing in a pre-encoded
// payload says which container it holds.
func (it *EncodeIterator) putEntryPayload(lvl *encodingLevel, kind format.DataType, p Payload) error {
	if kind == format.Unknown {
		return fmt.Errorf("%w: %s entry kind is not known yet, declare ContainerType or encode the entry with EncodeInit",
			errs.ErrInvalidArgument, lvl.kind)
	}

	return it.putOB16Payload(p)
}

// readKeyedHeader reads the set definitions, summary and count hint flagged in h.
func readKeyedHeader(c *cursor, h *keyedHeader, entryKind format.DataType) error {
	var err error
	if h.hasSetDefs {
		if h.rawSetDefs, err = c.rb15Bytes(); err != nil {
			return err
		}
		switch entryKind { //nolint: exhaustive
		case format.FieldList:
			h.fieldDefs = setdef.NewLocalFieldDb()
			if err := h.fieldDefs.Decode(h.rawSetDefs); err != nil {
				return err
			}
		case format.ElementList:
			h.elementDefs = setdef.NewLocalElementDb()
			if err := h.elementDefs.Decode(h.rawSetDefs); err != nil {
				return err
			}
		}
	}

	if h.hasSummary {
		if h.rawSummary, err = c.rb15Bytes(); err != nil {
			return err
		}
	}

	if h.hasCountHint {
		if h.countHint, err = c.rb30(); err != nil {
			return err
		}
	}

	return nil
}

// pushKeyed opens the level of a decoded Map, Vector or Series header.
func (it *DecodeIterator) pushKeyed(kind format.DataType, flags uint8, c cursor, h *keyedHeader, entryKind format.DataType) (*decodingLevel, error) {
	count, err := c.uint16()
	if err != nil {
		return nil, err
	}

	lvl, err := it.push(kind, flags, c)
	if err != nil {
		return nil, err
	}
	lvl.count = int(count)
	lvl.entryKind = entryKind
	lvl.summary = h.rawSummary
	lvl.setEntry(h.rawSummary, entryKind)

	if h.fieldDefs != nil {
		lvl.fieldDefs = *h.fieldDefs
		lvl.hasFieldDefs = true
	}
	if h.elementDefs != nil {
		lvl.elementDefs = *h.elementDefs
		lvl.hasElementDefs = true
	}

	return lvl, nil
}
