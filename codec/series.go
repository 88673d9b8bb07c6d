package codec

import (
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/setdef"
)

// SeriesFlags describe the optional parts of a series.
type SeriesFlags uint8

const (
	SeriesHasSetDefs        SeriesFlags = 0x01
	SeriesHasSummaryData    SeriesFlags = 0x02
	SeriesHasTotalCountHint SeriesFlags = 0x04
)

// Series is an ordered sequence of containers of the same type, typically rows
// sharing one set definition.
type Series struct {
	Flags          SeriesFlags
	ContainerType  format.DataType
	TotalCountHint uint32

	FieldSetDefs       *setdef.LocalFieldDb
	ElementSetDefs     *setdef.LocalElementDb
	EncodedSetDefs     []byte
	EncodedSummaryData []byte
	EncodedEntries     []byte
}

// SeriesEntry is one entry of a Series.
type SeriesEntry struct {
	EncodedData []byte
}

func (s *Series) header() *keyedHeader {
	return &keyedHeader{
		hasSetDefs:   s.Flags&SeriesHasSetDefs != 0,
		hasSummary:   s.Flags&SeriesHasSummaryData != 0,
		hasCountHint: s.Flags&SeriesHasTotalCountHint != 0,
		countHint:    s.TotalCountHint,
		fieldDefs:    s.FieldSetDefs,
		elementDefs:  s.ElementSetDefs,
		rawSetDefs:   s.EncodedSetDefs,
		rawSummary:   s.EncodedSummaryData,
	}
}

// EncodeInit opens a series. See Map.EncodeInit.
func (s *Series) EncodeInit(it *EncodeIterator, summaryMaxSize int) error {
	lvl, err := it.push(format.Series)
	if err != nil {
		return err
	}

	err = it.putByte(uint8(s.Flags))
	if err == nil {
		err = it.putEntryKind(lvl, s.ContainerType)
	}
	if err == nil {
		lvl.flags = uint8(s.Flags)
		err = it.putKeyedHeader(lvl, s.header(), summaryMaxSize)
	}
	if err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

// EncodeSummaryComplete closes summary data written by a nested container.
func (s *Series) EncodeSummaryComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Series)
	if err != nil {
		return err
	}

	return it.completeSummary(lvl, success, s.Flags&SeriesHasTotalCountHint != 0, s.TotalCountHint)
}

// EncodeComplete closes the series.
func (s *Series) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Series)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

// Encode writes the entry with payload p in one step.
func (se *SeriesEntry) Encode(it *EncodeIterator, p Payload) error {
	lvl, err := it.top(format.Series)
	if err != nil {
		return err
	}
	if err := containerPayload(format.Series, p); err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	if lvl.entryKind != format.NoData {
		if err := it.putEntryPayload(lvl, lvl.entryKind, p); err != nil {
			it.pos = lvl.entryPos
			return err
		}
	}
	lvl.count++

	return nil
}

// EncodeInit opens the entry for a payload written by a nested container.
func (se *SeriesEntry) EncodeInit(it *EncodeIterator, maxSize int) error {
	lvl, err := it.top(format.Series)
	if err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	return it.openEntry(lvl, lvl.entryKind, maxSize)
}

// EncodeComplete closes an entry opened with EncodeInit.
func (se *SeriesEntry) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Series)
	if err != nil {
		return err
	}

	return it.completeEntry(lvl, success)
}

// Decode opens the series in the iterator's current window. Right after Decode the
// window holds the summary data.
func (s *Series) Decode(it *DecodeIterator) error {
	data, _, err := it.window(format.Series)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.Series)
	}

	*s = Series{}
	c := cursor{data: data}
	flags, err := c.u8()
	if err != nil {
		return err
	}
	s.Flags = SeriesFlags(flags)
	if s.ContainerType, err = c.containerType(); err != nil {
		return err
	}

	h := s.header()
	if err := readKeyedHeader(&c, h, s.ContainerType); err != nil {
		return err
	}
	s.FieldSetDefs, s.ElementSetDefs, s.EncodedSetDefs = h.fieldDefs, h.elementDefs, h.rawSetDefs
	s.EncodedSummaryData, s.TotalCountHint = h.rawSummary, h.countHint

	lvl, err := it.pushKeyed(format.Series, flags, c, h, s.ContainerType)
	if err != nil {
		return err
	}
	s.EncodedEntries = lvl.rest()

	return nil
}

// Decode reads the next entry. It returns errs.ErrEndOfContainer after the last
// entry and closes the series.
func (se *SeriesEntry) Decode(it *DecodeIterator) error {
	lvl, err := it.top(format.Series)
	if err != nil {
		return err
	}
	*se = SeriesEntry{}

	if err := it.next(lvl); err != nil {
		return err
	}

	if lvl.entryKind != format.NoData {
		if se.EncodedData, err = lvl.obBytes(); err != nil {
			return err
		}
	}
	lvl.index++
	lvl.setEntry(se.EncodedData, lvl.entryKind)

	return nil
}
