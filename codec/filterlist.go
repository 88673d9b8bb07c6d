package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
)

// FilterListFlags describe the optional parts of a filter list.
type FilterListFlags uint8

const (
	FilterListHasPermData       FilterListFlags = 0x01
	FilterListHasTotalCountHint FilterListFlags = 0x02
)

// filterEntryHasContainerType marks a filter entry whose payload type differs from the list's.
const filterEntryHasContainerType uint8 = 0x02

// FilterList is a small container (at most 255 entries) of entries identified by a
// one-byte filter id. Each entry may override the list's container type.
type FilterList struct {
	Flags          FilterListFlags
	ContainerType  format.DataType
	TotalCountHint uint8
	EncodedEntries []byte
}

// FilterEntry is one entry of a FilterList.
type FilterEntry struct {
	ID     uint8
	Action format.EntryAction
	// ContainerType overrides the list's container type when not Unknown.
	// On decode it is the effective type of the payload.
	ContainerType format.DataType
	PermData      []byte
	EncodedData   []byte
}

// EncodeInit opens a filter list. On error nothing is written and no level is opened.
func (fl *FilterList) EncodeInit(it *EncodeIterator) error {
	lvl, err := it.push(format.FilterList)
	if err != nil {
		return err
	}

	lvl.flags = uint8(fl.Flags)
	err = it.putByte(uint8(fl.Flags))
	if err == nil {
		err = it.putEntryKind(lvl, fl.ContainerType)
	}
	if err == nil && fl.Flags&FilterListHasTotalCountHint != 0 {
		err = it.putByte(fl.TotalCountHint)
	}
	if err == nil {
		err = it.startEntries(lvl, true, 1)
	}
	if err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

// EncodeComplete closes the filter list.
func (fl *FilterList) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.FilterList)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

// putHeader writes the entry header and returns the effective payload type and
// whether a payload follows. An entry type given while the list's type is still
// being inferred becomes the list's type.
func (fe *FilterEntry) putHeader(it *EncodeIterator, lvl *encodingLevel) (format.DataType, bool, error) {
	code, err := filterActionCode(fe.Action)
	if err != nil {
		return 0, false, err
	}

	kind := fe.ContainerType
	if kind != format.Unknown && !kind.IsContainer() {
		return 0, false, fmt.Errorf("%w: %s is not a container type", errs.ErrInvalidArgument, kind)
	}

	var flags uint8
	switch {
	case kind == format.Unknown || kind == lvl.entryKind:
		kind = lvl.entryKind
	case lvl.inferred && lvl.entryKind == format.Unknown:
		lvl.entryKind = kind
		it.buf[lvl.entryKindPos] = byte(kind - format.ContainerTypeMin)
	default:
		flags |= filterEntryHasContainerType
	}
	if fe.PermData != nil {
		flags |= entryHasPermData
	}

	if err := it.putByte(flags<<4 | code); err != nil {
		return 0, false, err
	}
	if err := it.putByte(fe.ID); err != nil {
		return 0, false, err
	}
	if flags&filterEntryHasContainerType != 0 {
		if err := it.putByte(byte(kind - format.ContainerTypeMin)); err != nil {
			return 0, false, err
		}
	}
	if err := it.putPermData(lvl, lvl.flags&uint8(FilterListHasPermData) != 0, fe.PermData); err != nil {
		return 0, false, err
	}

	return kind, fe.Action != format.ActionClear && kind != format.NoData, nil
}

// Encode writes the entry with payload p in one step. The payload of a Clear entry
// is ignored.
func (fe *FilterEntry) Encode(it *EncodeIterator, p Payload) error {
	lvl, err := it.top(format.FilterList)
	if err != nil {
		return err
	}
	if err := containerPayload(format.FilterList, p); err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	kind, hasData, err := fe.putHeader(it, lvl)
	if err == nil && hasData {
		err = it.putEntryPayload(lvl, kind, p)
	}
	if err != nil {
		it.pos = lvl.entryPos
		return err
	}
	lvl.count++

	return nil
}

// EncodeInit opens the entry for a payload written by a nested container.
func (fe *FilterEntry) EncodeInit(it *EncodeIterator, maxSize int) error {
	lvl, err := it.top(format.FilterList)
	if err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	kind, hasData, err := fe.putHeader(it, lvl)
	if err == nil && !hasData {
		err = fmt.Errorf("%w: %s filter entry has no payload", errs.ErrInvalidArgument, fe.Action)
	}
	if err == nil {
		err = it.openEntry(lvl, kind, maxSize)
	}
	if err != nil {
		it.pos = lvl.entryPos
		return err
	}

	return nil
}

// EncodeComplete closes an entry opened with EncodeInit.
func (fe *FilterEntry) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.FilterList)
	if err != nil {
		return err
	}

	return it.completeEntry(lvl, success)
}

// Decode opens the filter list in the iterator's current window.
func (fl *FilterList) Decode(it *DecodeIterator) error {
	data, _, err := it.window(format.FilterList)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.FilterList)
	}

	*fl = FilterList{}
	c := cursor{data: data}
	flags, err := c.u8()
	if err != nil {
		return err
	}
	fl.Flags = FilterListFlags(flags)
	if fl.ContainerType, err = c.containerType(); err != nil {
		return err
	}
	if fl.Flags&FilterListHasTotalCountHint != 0 {
		if fl.TotalCountHint, err = c.u8(); err != nil {
			return err
		}
	}
	count, err := c.u8()
	if err != nil {
		return err
	}
	fl.EncodedEntries = c.rest()

	lvl, err := it.push(format.FilterList, flags, c)
	if err != nil {
		return err
	}
	lvl.count = int(count)
	lvl.entryKind = fl.ContainerType

	return nil
}

// Decode reads the next entry. It returns errs.ErrEndOfContainer after the last
// entry and closes the filter list.
func (fe *FilterEntry) Decode(it *DecodeIterator) error {
	lvl, err := it.top(format.FilterList)
	if err != nil {
		return err
	}
	*fe = FilterEntry{}

	if err := it.next(lvl); err != nil {
		return err
	}

	b, err := lvl.u8()
	if err != nil {
		return err
	}
	if fe.Action, err = filterAction(b & 0x0F); err != nil {
		return err
	}
	flags := b >> 4
	if fe.ID, err = lvl.u8(); err != nil {
		return err
	}

	fe.ContainerType = lvl.entryKind
	if flags&filterEntryHasContainerType != 0 {
		if fe.ContainerType, err = lvl.containerType(); err != nil {
			return err
		}
	}
	if flags&entryHasPermData != 0 {
		if fe.PermData, err = lvl.rb15Bytes(); err != nil {
			return err
		}
	}
	if fe.Action != format.ActionClear && fe.ContainerType != format.NoData {
		if fe.EncodedData, err = lvl.obBytes(); err != nil {
			return err
		}
	}
	lvl.index++
	lvl.setEntry(fe.EncodedData, fe.ContainerType)

	return nil
}
