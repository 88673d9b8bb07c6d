package dictionary

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/arloliu/rwf"
	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// entryOverhead bounds the vector entry header around a definition payload:
// action byte, rb30 index and ob16 length.
const entryOverhead = 1 + 4 + 3

// Encoder writes the definitions of one dictionary as a sequence of parts.
type Encoder[T setdef.Tag] struct {
	info Info
	defs []*setdef.Definition[T]
	next int
	part int

	maxPartSize int
	logger      log.Logger
}

type (
	FieldEncoder   = Encoder[int16]
	ElementEncoder = Encoder[string]
)

// NewEncoder returns an encoder for defs, which are written in ascending id order.
func NewEncoder[T setdef.Tag](info Info, defs []*setdef.Definition[T], opts ...Option) (*Encoder[T], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	sorted := make([]*setdef.Definition[T], len(defs))
	for i, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		sorted[i] = def
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return &Encoder[T]{
		info:        info,
		defs:        sorted,
		maxPartSize: cfg.maxPartSize,
		logger:      log.With(cfg.logger, "component", "dictionary_encoder", "type", typeOf[T]()),
	}, nil
}

// NewEncoderFromDb returns an encoder for every definition loaded in db.
func NewEncoderFromDb[T setdef.Tag](db *setdef.GlobalDb[T], opts ...Option) (*Encoder[T], error) {
	id, version := db.Info()
	ids := db.IDs()
	defs := make([]*setdef.Definition[T], 0, len(ids))
	for _, setID := range ids {
		if def, ok := db.Lookup(setID); ok {
			defs = append(defs, def)
		}
	}

	return NewEncoder(Info{DictionaryID: id, Version: version}, defs, opts...)
}

// Done reports whether the last part has been written.
func (e *Encoder[T]) Done() bool {
	return e.part > 0 && e.next == len(e.defs)
}

// Reset restarts the encoder at the first part.
func (e *Encoder[T]) Reset() {
	e.next = 0
	e.part = 0
}

// EncodePart writes the next part into it and reports whether it was the last one.
//
// A part ends when the next definition would exceed the part budget or the encode
// buffer; it always holds at least one definition, so a buffer that cannot hold a
// single definition returns errs.ErrBufferTooSmall and writes nothing.
func (e *Encoder[T]) EncodePart(it *codec.EncodeIterator) (bool, error) {
	if e.Done() {
		return true, fmt.Errorf("%w: dictionary already fully encoded", errs.ErrInvalidArgument)
	}

	major, minor := it.Version()
	start := it.Len()

	v := codec.Vector{
		Flags:          codec.VectorHasSummaryData | codec.VectorHasTotalCountHint,
		ContainerType:  format.ElementList,
		TotalCountHint: uint32(len(e.defs)), //nolint:gosec
	}
	if err := v.EncodeInit(it, 0); err != nil {
		return false, err
	}
	if err := e.encodeSummary(it); err != nil {
		_ = v.EncodeComplete(it, false)
		return false, err
	}
	if err := v.EncodeSummaryComplete(it, true); err != nil {
		_ = v.EncodeComplete(it, false)
		return false, err
	}

	first := e.next
	for e.next < len(e.defs) {
		def := e.defs[e.next]
		payload, err := rwf.EncodeWithRetry(0, func(sub *codec.EncodeIterator) error {
			return encodeDefinition(sub, def)
		}, codec.WithVersion(major, minor))
		if err != nil {
			_ = v.EncodeComplete(it, false)
			e.next = first

			return false, err
		}

		written := e.next - first
		if written > 0 && e.maxPartSize > 0 && it.Len()-start+len(payload)+entryOverhead > e.maxPartSize {
			break
		}

		ve := codec.VectorEntry{Index: uint32(def.ID), Action: format.ActionSet}
		if err := ve.Encode(it, codec.PreEncoded(payload)); err != nil {
			if written > 0 && errors.Is(err, errs.ErrBufferTooSmall) {
				break
			}
			_ = v.EncodeComplete(it, false)
			e.next = first

			return false, err
		}
		e.next++
	}

	if err := v.EncodeComplete(it, true); err != nil {
		e.next = first
		return false, err
	}
	e.part++

	level.Debug(e.logger).Log("msg", "encoded dictionary part", "part", e.part, "definitions", e.next-first,
		"bytes", it.Len()-start, "remaining", len(e.defs)-e.next)

	return e.next == len(e.defs), nil
}

func (e *Encoder[T]) encodeSummary(it *codec.EncodeIterator) error {
	el := codec.ElementList{Flags: codec.ElementListHasStandardData}
	if err := el.EncodeInit(it, setdef.ElementResolver{}, 0); err != nil {
		return err
	}

	entries := []struct {
		name  string
		value primitive.Value
	}{
		{elemType, primitive.UInt(typeOf[T]())},
		{elemVersion, primitive.AsciiString(e.info.Version)},
		{elemDictionaryID, primitive.Int(e.info.DictionaryID)},
	}
	for _, entry := range entries {
		ee := codec.ElementEntry{Name: entry.name}
		if err := ee.Encode(it, codec.Value(entry.value)); err != nil {
			_ = el.EncodeComplete(it, false)
			return err
		}
	}

	return el.EncodeComplete(it, true)
}

// encodeDefinition writes def as a standalone element list. Failures leave levels
// open; the caller discards the iterator.
func encodeDefinition[T setdef.Tag](it *codec.EncodeIterator, def *setdef.Definition[T]) error {
	el := codec.ElementList{Flags: codec.ElementListHasStandardData}
	if err := el.EncodeInit(it, setdef.ElementResolver{}, 0); err != nil {
		return err
	}

	ee := codec.ElementEntry{Name: elemNumEntries}
	if err := ee.Encode(it, codec.Value(primitive.Int(def.Len()))); err != nil {
		return err
	}

	tags := codec.Array{PrimitiveType: format.Int, ItemLength: 2}
	if typeOf[T]() == TypeElementSetDefs {
		tags = codec.Array{PrimitiveType: format.AsciiString}
	}
	err := encodeArray(it, tagsElement[T](), tags, def.Len(), func(i int) primitive.Value {
		switch tag := any(def.Entries[i].Tag).(type) {
		case int16:
			return primitive.Int(tag)
		case string:
			return primitive.AsciiString(tag)
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}

	types := codec.Array{PrimitiveType: format.UInt, ItemLength: 1}
	err = encodeArray(it, elemTypes, types, def.Len(), func(i int) primitive.Value {
		return primitive.UInt(def.Entries[i].DataType)
	})
	if err != nil {
		return err
	}

	return el.EncodeComplete(it, true)
}

func encodeArray(it *codec.EncodeIterator, name string, a codec.Array, n int, item func(int) primitive.Value) error {
	ee := codec.ElementEntry{Name: name, DataType: format.Array}
	if err := ee.EncodeInit(it, 0); err != nil {
		return err
	}
	if err := a.EncodeInit(it); err != nil {
		return err
	}
	for i := range n {
		if err := a.EncodeItem(it, codec.Value(item(i))); err != nil {
			return err
		}
	}
	if err := a.EncodeComplete(it, true); err != nil {
		return err
	}

	return ee.EncodeComplete(it, true)
}
