package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/setdef"
)

// VectorFlags describe the optional parts of a vector.
type VectorFlags uint8

const (
	VectorHasSetDefs        VectorFlags = 0x01
	VectorHasSummaryData    VectorFlags = 0x02
	VectorHasPermData       VectorFlags = 0x04
	VectorHasTotalCountHint VectorFlags = 0x08
	VectorSupportsSorting   VectorFlags = 0x10
)

// Vector is a container of entries addressed by position. Entries carry an action:
// Set, Update, Insert, Delete or Clear; Delete and Clear carry no payload.
//
// An Unknown ContainerType is inferred from the first nested container. Empty
// vectors follow the same rules as Map: a declared type may complete with no
// entries, an inferred one completes as NoData when only Delete and Clear entries
// were written and fails with errs.ErrInvalidData when nothing was.
type Vector struct {
	Flags          VectorFlags
	ContainerType  format.DataType
	TotalCountHint uint32

	FieldSetDefs       *setdef.LocalFieldDb
	ElementSetDefs     *setdef.LocalElementDb
	EncodedSetDefs     []byte
	EncodedSummaryData []byte
	EncodedEntries     []byte
}

// VectorEntry is one entry of a Vector.
type VectorEntry struct {
	Index       uint32
	Action      format.EntryAction
	PermData    []byte
	EncodedData []byte
}

func (v *Vector) header() *keyedHeader {
	return &keyedHeader{
		hasSetDefs:   v.Flags&VectorHasSetDefs != 0,
		hasSummary:   v.Flags&VectorHasSummaryData != 0,
		hasCountHint: v.Flags&VectorHasTotalCountHint != 0,
		countHint:    v.TotalCountHint,
		fieldDefs:    v.FieldSetDefs,
		elementDefs:  v.ElementSetDefs,
		rawSetDefs:   v.EncodedSetDefs,
		rawSummary:   v.EncodedSummaryData,
	}
}

// EncodeInit opens a vector. See Map.EncodeInit.
func (v *Vector) EncodeInit(it *EncodeIterator, summaryMaxSize int) error {
	lvl, err := it.push(format.Vector)
	if err != nil {
		return err
	}

	err = it.putByte(uint8(v.Flags))
	if err == nil {
		err = it.putEntryKind(lvl, v.ContainerType)
	}
	if err == nil {
		lvl.flags = uint8(v.Flags)
		err = it.putKeyedHeader(lvl, v.header(), summaryMaxSize)
	}
	if err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

// EncodeSummaryComplete closes summary data written by a nested container.
func (v *Vector) EncodeSummaryComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Vector)
	if err != nil {
		return err
	}

	return it.completeSummary(lvl, success, v.Flags&VectorHasTotalCountHint != 0, v.TotalCountHint)
}

// EncodeComplete closes the vector.
func (v *Vector) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Vector)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

func (ve *VectorEntry) putHeader(it *EncodeIterator, lvl *encodingLevel) (bool, error) {
	code, err := vectorActionCode(ve.Action)
	if err != nil {
		return false, err
	}

	var flags uint8
	if ve.PermData != nil {
		flags |= entryHasPermData
	}
	if err := it.putByte(flags<<4 | code); err != nil {
		return false, err
	}
	if err := it.putRB30(ve.Index); err != nil {
		return false, err
	}
	if err := it.putPermData(lvl, lvl.flags&uint8(VectorHasPermData) != 0, ve.PermData); err != nil {
		return false, err
	}

	return ve.hasPayload(lvl.entryKind), nil
}

func (ve *VectorEntry) hasPayload(kind format.DataType) bool {
	return ve.Action != format.ActionDelete && ve.Action != format.ActionClear && kind != format.NoData
}

// Encode writes the entry with payload p in one step. The payload of Delete and
// Clear entries is ignored.
func (ve *VectorEntry) Encode(it *EncodeIterator, p Payload) error {
	lvl, err := it.top(format.Vector)
	if err != nil {
		return err
	}
	if err := containerPayload(format.Vector, p); err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	hasData, err := ve.putHeader(it, lvl)
	if err == nil && hasData {
		err = it.putEntryPayload(lvl, lvl.entryKind, p)
	}
	if err != nil {
		it.pos = lvl.entryPos
		return err
	}
	lvl.count++

	return nil
}

// EncodeInit opens the entry for a payload written by a nested container.
func (ve *VectorEntry) EncodeInit(it *EncodeIterator, maxSize int) error {
	lvl, err := it.top(format.Vector)
	if err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	hasData, err := ve.putHeader(it, lvl)
	if err == nil && !hasData {
		err = fmt.Errorf("%w: %s vector entry has no payload", errs.ErrInvalidArgument, ve.Action)
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
func (ve *VectorEntry) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Vector)
	if err != nil {
		return err
	}

	return it.completeEntry(lvl, success)
}

// Decode opens the vector in the iterator's current window. Right after Decode the
// window holds the summary data.
func (v *Vector) Decode(it *DecodeIterator) error {
	data, _, err := it.window(format.Vector)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.Vector)
	}

	*v = Vector{}
	c := cursor{data: data}
	flags, err := c.u8()
	if err != nil {
		return err
	}
	v.Flags = VectorFlags(flags)
	if v.ContainerType, err = c.containerType(); err != nil {
		return err
	}

	h := v.header()
	if err := readKeyedHeader(&c, h, v.ContainerType); err != nil {
		return err
	}
	v.FieldSetDefs, v.ElementSetDefs, v.EncodedSetDefs = h.fieldDefs, h.elementDefs, h.rawSetDefs
	v.EncodedSummaryData, v.TotalCountHint = h.rawSummary, h.countHint

	lvl, err := it.pushKeyed(format.Vector, flags, c, h, v.ContainerType)
	if err != nil {
		return err
	}
	v.EncodedEntries = lvl.rest()

	return nil
}

// Decode reads the next entry. It returns errs.ErrEndOfContainer after the last
// entry and closes the vector.
func (ve *VectorEntry) Decode(it *DecodeIterator) error {
	lvl, err := it.top(format.Vector)
	if err != nil {
		return err
	}
	*ve = VectorEntry{}

	if err := it.next(lvl); err != nil {
		return err
	}

	b, err := lvl.u8()
	if err != nil {
		return err
	}
	if ve.Action, err = vectorAction(b & 0x0F); err != nil {
		return err
	}
	if ve.Index, err = lvl.rb30(); err != nil {
		return err
	}
	if (b>>4)&entryHasPermData != 0 {
		if ve.PermData, err = lvl.rb15Bytes(); err != nil {
			return err
		}
	}
	if ve.hasPayload(lvl.entryKind) {
		if ve.EncodedData, err = lvl.obBytes(); err != nil {
			return err
		}
	}
	lvl.index++
	lvl.setEntry(ve.EncodedData, lvl.entryKind)

	return nil
}
