package dictionary

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// Decoder accumulates the parts of one dictionary.
//
// A Decoder is not safe for concurrent use; the GlobalDb it publishes into is.
type Decoder[T setdef.Tag] struct {
	info     Info
	parts    int
	expected int
	defs     map[uint16]*setdef.Definition[T]

	logger log.Logger
}

type (
	FieldDecoder   = Decoder[int16]
	ElementDecoder = Decoder[string]
)

// NewDecoder returns an empty decoder.
func NewDecoder[T setdef.Tag](opts ...Option) (*Decoder[T], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Decoder[T]{
		defs:   map[uint16]*setdef.Definition[T]{},
		logger: log.With(cfg.logger, "component", "dictionary_decoder", "type", typeOf[T]()),
	}, nil
}

// Reset discards every accumulated part.
func (d *Decoder[T]) Reset() {
	d.info = Info{}
	d.parts = 0
	d.expected = 0
	clear(d.defs)
}

// Info returns the identity of the dictionary being accumulated.
func (d *Decoder[T]) Info() Info {
	return d.info
}

// Parts returns the number of parts accumulated.
func (d *Decoder[T]) Parts() int {
	return d.parts
}

// Complete reports whether every definition announced by the parts has arrived.
func (d *Decoder[T]) Complete() bool {
	return d.parts > 0 && len(d.defs) >= d.expected
}

// Definitions returns the accumulated definitions in ascending id order.
func (d *Decoder[T]) Definitions() []*setdef.Definition[T] {
	out := make([]*setdef.Definition[T], 0, len(d.defs))
	for _, def := range d.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// DecodePart decodes the part in the iterator's window and adds its definitions.
// A part that fails to decode leaves the accumulated state unchanged.
func (d *Decoder[T]) DecodePart(it *codec.DecodeIterator) error {
	var v codec.Vector
	if err := v.Decode(it); err != nil {
		return err
	}
	if v.ContainerType != format.ElementList || v.Flags&codec.VectorHasSummaryData == 0 {
		return fmt.Errorf("%w: dictionary part is a vector of %s without the expected summary", errs.ErrInvalidData, v.ContainerType)
	}

	typ, info, err := decodeSummary(it)
	if err != nil {
		return err
	}
	if typ != typeOf[T]() {
		return fmt.Errorf("%w: dictionary type %s, expected %s", errs.ErrInvalidData, typ, typeOf[T]())
	}
	if d.parts > 0 && info.DictionaryID != d.info.DictionaryID {
		return fmt.Errorf("%w: part of dictionary %d while accumulating dictionary %d",
			errs.ErrInvalidData, info.DictionaryID, d.info.DictionaryID)
	}

	var defs []*setdef.Definition[T]
	var ve codec.VectorEntry
	for {
		err := ve.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			break
		}
		if err != nil {
			return err
		}
		if ve.Action != format.ActionSet {
			return fmt.Errorf("%w: dictionary entry %d has action %s", errs.ErrInvalidData, ve.Index, ve.Action)
		}
		if ve.Index > setdef.MaxGlobalSetID {
			return fmt.Errorf("%w: set id %d", errs.ErrInvalidData, ve.Index)
		}

		def, err := decodeDefinition[T](it, uint16(ve.Index))
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	d.info = info
	d.parts++
	if v.Flags&codec.VectorHasTotalCountHint != 0 {
		d.expected = int(v.TotalCountHint)
	}
	for _, def := range defs {
		d.defs[def.ID] = def
	}

	level.Debug(d.logger).Log("msg", "accumulated dictionary part", "dictionary_id", info.DictionaryID,
		"part", d.parts, "definitions", len(defs), "total", len(d.defs), "expected", d.expected)

	return nil
}

// Publish loads the accumulated definitions into db, replacing its contents in one
// step. It returns errs.ErrDictionaryIncomplete while parts are still missing.
func (d *Decoder[T]) Publish(db *setdef.GlobalDb[T]) error {
	if !d.Complete() {
		return fmt.Errorf("%w: %d of %d definitions after %d parts", errs.ErrDictionaryIncomplete, len(d.defs), d.expected, d.parts)
	}

	if err := db.Load(d.info.DictionaryID, d.info.Version, d.Definitions()); err != nil {
		return err
	}

	level.Info(d.logger).Log("msg", "published dictionary", "dictionary_id", d.info.DictionaryID,
		"version", d.info.Version, "parts", d.parts, "definitions", len(d.defs))

	return nil
}

func decodeSummary(it *codec.DecodeIterator) (Type, Info, error) {
	var el codec.ElementList
	if err := el.Decode(it, setdef.ElementResolver{}); err != nil {
		return 0, Info{}, err
	}

	var typ Type
	var info Info
	var ee codec.ElementEntry
	for {
		err := ee.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			return typ, info, nil
		}
		if err != nil {
			return 0, Info{}, err
		}

		switch ee.Name {
		case elemType:
			v, err := decodeValue(ee, primitive.DecodeUInt)
			if err != nil {
				return 0, Info{}, err
			}
			typ = Type(v)
		case elemVersion:
			v, err := decodeValue(ee, primitive.DecodeAsciiString)
			if err != nil {
				return 0, Info{}, err
			}
			info.Version = string(v)
		case elemDictionaryID:
			v, err := decodeValue(ee, primitive.DecodeInt)
			if err != nil {
				return 0, Info{}, err
			}
			info.DictionaryID = int64(v)
		}
	}
}

// decodeValue decodes a standard element; a blank value yields the zero value.
func decodeValue[V any](ee codec.ElementEntry, decode func([]byte) (V, error)) (V, error) {
	v, err := decode(ee.EncodedData)
	if errors.Is(err, errs.ErrBlankData) {
		var zero V
		return zero, nil
	}
	if err != nil {
		return v, fmt.Errorf("%w: element %s: %w", errs.ErrInvalidData, ee.Name, err)
	}

	return v, nil
}

func decodeDefinition[T setdef.Tag](it *codec.DecodeIterator, id uint16) (*setdef.Definition[T], error) {
	var el codec.ElementList
	if err := el.Decode(it, setdef.ElementResolver{}); err != nil {
		return nil, err
	}

	numEntries := -1
	var tags []T
	var types []format.DataType
	var ee codec.ElementEntry
	for {
		err := ee.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch {
		case ee.Name == elemNumEntries:
			n, err := decodeValue(ee, primitive.DecodeInt)
			if err != nil {
				return nil, err
			}
			numEntries = int(n)
		case ee.Name == tagsElement[T]() && ee.DataType == format.Array:
			if tags, err = decodeItems(it, decodeTag[T]); err != nil {
				return nil, err
			}
		case ee.Name == elemTypes && ee.DataType == format.Array:
			if types, err = decodeItems(it, decodeDataType); err != nil {
				return nil, err
			}
		}
	}

	if numEntries < 0 || len(tags) != numEntries || len(types) != numEntries {
		return nil, fmt.Errorf("%w: set %d declares %d entries, has %d tags and %d types",
			errs.ErrInvalidData, id, numEntries, len(tags), len(types))
	}

	def := &setdef.Definition[T]{ID: id, Entries: make([]setdef.Entry[T], numEntries)}
	for i := range def.Entries {
		def.Entries[i] = setdef.Entry[T]{Tag: tags[i], DataType: types[i]}
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidData, err)
	}

	return def, nil
}

// decodeItems decodes every item of the array in the iterator's window.
func decodeItems[V any](it *codec.DecodeIterator, decode func(format.DataType, []byte) (V, error)) ([]V, error) {
	var a codec.Array
	if err := a.Decode(it); err != nil {
		return nil, err
	}

	var out []V
	for {
		item, err := a.DecodeItem(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		v, err := decode(a.PrimitiveType, item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func decodeTag[T setdef.Tag](pt format.DataType, item []byte) (T, error) {
	var tag T
	switch p := any(&tag).(type) {
	case *int16:
		if pt != format.Int {
			return tag, fmt.Errorf("%w: field ids are %s", errs.ErrInvalidData, pt)
		}
		v, err := primitive.DecodeInt(item)
		if err != nil {
			return tag, fmt.Errorf("%w: field id: %w", errs.ErrInvalidData, err)
		}
		if v < -32768 || v > 32767 {
			return tag, fmt.Errorf("%w: field id %d", errs.ErrInvalidData, v)
		}
		*p = int16(v)
	case *string:
		if pt != format.AsciiString && pt != format.Utf8String {
			return tag, fmt.Errorf("%w: element names are %s", errs.ErrInvalidData, pt)
		}
		*p = string(item)
	}

	return tag, nil
}

func decodeDataType(pt format.DataType, item []byte) (format.DataType, error) {
	if pt != format.UInt && pt != format.Int && pt != format.Enum {
		return 0, fmt.Errorf("%w: entry types are %s", errs.ErrInvalidData, pt)
	}
	v, err := primitive.DecodeUInt(item)
	if err != nil {
		return 0, fmt.Errorf("%w: entry type: %w", errs.ErrInvalidData, err)
	}
	if v > 0xFF {
		return 0, fmt.Errorf("%w: entry type %d", errs.ErrInvalidData, v)
	}

	return format.DataType(v), nil
}
