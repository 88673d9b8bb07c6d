package codec

import (
	"fmt"
	"math"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
)

// Array is a primitive holding items of one primitive type. With ItemLength 0
// items are length-prefixed standard encodings; otherwise every item has exactly
// ItemLength bytes, using the fixed-width form of its type (see
// primitive.ArrayItemType).
type Array struct {
	PrimitiveType format.DataType
	ItemLength    int
	EncodedData   []byte
}

// EncodeInit opens an array. It must be the payload of an open entry or the top level.
func (a *Array) EncodeInit(it *EncodeIterator) error {
	if !a.PrimitiveType.IsPrimitive() || a.PrimitiveType == format.Array {
		return fmt.Errorf("%w: array of %s", errs.ErrInvalidArgument, a.PrimitiveType)
	}
	if a.ItemLength < 0 || a.ItemLength > math.MaxUint8 {
		return fmt.Errorf("%w: array item length %d", errs.ErrValueOutOfRange, a.ItemLength)
	}
	form, err := primitive.ArrayItemType(a.PrimitiveType, a.ItemLength)
	if err != nil {
		return err
	}

	lvl, err := it.push(format.Array)
	if err != nil {
		return err
	}
	lvl.itemType, lvl.itemForm, lvl.itemLength = a.PrimitiveType, form, a.ItemLength

	err = it.putByte(byte(a.PrimitiveType))
	if err == nil {
		err = it.putByte(byte(a.ItemLength))
	}
	if err == nil {
		err = it.startEntries(lvl, true, 2)
	}
	if err != nil {
		it.rollback(lvl)
		return err
	}

	return nil
}

// EncodeItem appends one item.
func (a *Array) EncodeItem(it *EncodeIterator, p Payload) error {
	lvl, err := it.top(format.Array)
	if err != nil {
		return err
	}
	if err := it.beginEntry(lvl); err != nil {
		return err
	}

	if p.kind == payloadValue && p.value.DataType() != lvl.itemType {
		return fmt.Errorf("%w: %s item in an array of %s", errs.ErrInvalidData, p.value.DataType(), lvl.itemType)
	}

	switch {
	case lvl.itemLength == 0:
		err = it.putOB16Payload(p.forVersion(it.minor))
	case lvl.itemForm.IsSetDefined():
		err = it.putFixedItem(lvl, p)
	default:
		err = it.putPaddedItem(lvl, p)
	}
	if err != nil {
		it.pos = lvl.entryPos
		return err
	}
	lvl.count++

	return nil
}

func (it *EncodeIterator) putFixedItem(lvl *encodingLevel, p Payload) error {
	v, err := p.decoded(lvl.itemType)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%w: blank item in a fixed-width array", errs.ErrInvalidData)
	}
	if e, ok := v.(primitive.Enum); ok {
		v = primitive.UInt(e)
	}

	dst, err := it.reserve(lvl.itemLength)
	if err != nil {
		return err
	}
	_, err = primitive.PutSet(dst, lvl.itemForm, v)

	return err
}

// putPaddedItem writes a buffer item into a fixed-width slot, zero-padded.
func (it *EncodeIterator) putPaddedItem(lvl *encodingLevel, p Payload) error {
	n := p.Len()
	if n > lvl.itemLength {
		return fmt.Errorf("%w: %d-byte item in an array of %d-byte items", errs.ErrValueOutOfRange, n, lvl.itemLength)
	}

	dst, err := it.reserve(lvl.itemLength)
	if err != nil {
		return err
	}
	clear(dst[p.put(dst):])

	return nil
}

// EncodeComplete closes the array.
func (a *Array) EncodeComplete(it *EncodeIterator, success bool) error {
	lvl, err := it.top(format.Array)
	if err != nil {
		return err
	}

	return it.complete(lvl, success)
}

// Decode opens the array in the iterator's current window.
func (a *Array) Decode(it *DecodeIterator) error {
	data, _, err := it.window(format.Array)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return emptyContainer(format.Array)
	}

	*a = Array{EncodedData: data}
	c := cursor{data: data}
	pt, err := c.u8()
	if err != nil {
		return err
	}
	il, err := c.u8()
	if err != nil {
		return err
	}
	a.PrimitiveType, a.ItemLength = format.DataType(pt), int(il)

	form, err := primitive.ArrayItemType(a.PrimitiveType, a.ItemLength)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidData, err)
	}
	count, err := c.uint16()
	if err != nil {
		return err
	}

	lvl, err := it.push(format.Array, 0, c)
	if err != nil {
		return err
	}
	lvl.count = int(count)
	lvl.itemType, lvl.itemForm, lvl.itemLength = a.PrimitiveType, form, a.ItemLength

	return nil
}

// DecodeItem returns the standard encoding of the next item, decodable with
// primitive.Decode(a.PrimitiveType, ...). It returns errs.ErrEndOfContainer after the
// last item and closes the array. The result is valid until the next call.
func (a *Array) DecodeItem(it *DecodeIterator) ([]byte, error) {
	lvl, err := it.top(format.Array)
	if err != nil {
		return nil, err
	}
	if err := it.next(lvl); err != nil {
		return nil, err
	}

	var item []byte
	switch {
	case lvl.itemLength == 0:
		item, err = lvl.obBytes()
	case lvl.itemForm.IsSetDefined():
		var n int
		item, n, err = primitive.ReadSet(lvl.rest(), lvl.itemForm, lvl.scratch[:])
		lvl.pos += n
	default:
		item, err = lvl.bytes(lvl.itemLength)
	}
	if err != nil {
		return nil, err
	}
	lvl.index++
	lvl.setEntry(item, lvl.itemType)

	return item, nil
}
