// Package cache keeps local replicas of keyed collections by applying decoded Map
// and Vector entries.
//
// Entry actions follow the usual consumer convention: Add replaces an entry, Update
// merges the fields of a field list payload into the cached entry (other payloads
// are replaced), Delete removes an entry and Set replaces a vector slot, growing the
// vector when needed. Caches hold complete state and never evict.
//
// A message is applied atomically: when any part of it fails to decode, the cache is
// left unchanged and the decode iterator must be discarded or Reset.
package cache

import (
	"errors"

	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// Field is one cached field list entry.
type Field struct {
	ID int16
	// DataType is the base type of set-defined entries and Unknown for standard
	// entries, whose type lives in a field dictionary.
	DataType format.DataType
	// Data is the standard encoding of the value; empty for a blank value.
	Data []byte
}

// IsBlank reports whether the field holds a blank value.
func (f Field) IsBlank() bool {
	return len(f.Data) == 0
}

// Value decodes the field. dt is used when the entry carries no type of its own.
func (f Field) Value(dt format.DataType) (primitive.Value, error) {
	if f.DataType != format.Unknown {
		dt = f.DataType
	}

	return primitive.Decode(dt, f.Data)
}

// Record is the cached payload of one entry.
type Record struct {
	// Fields holds the entries of a field list payload in first-arrival order.
	Fields []Field
	// Data holds the payload of any other container kind.
	Data []byte
	// PermData is the permission data of the latest entry that carried any.
	PermData []byte
}

// Field returns the field with the given id.
func (r *Record) Field(id int16) (Field, bool) {
	for _, f := range r.Fields {
		if f.ID == id {
			return f, true
		}
	}

	return Field{}, false
}

// Clone returns a deep copy of r.
func (r *Record) Clone() Record {
	out := Record{Data: clone(r.Data), PermData: clone(r.PermData)}
	if r.Fields != nil {
		out.Fields = make([]Field, len(r.Fields))
		for i, f := range r.Fields {
			out.Fields[i] = Field{ID: f.ID, DataType: f.DataType, Data: clone(f.Data)}
		}
	}

	return out
}

// merge applies update to r: fields replace the cached field with the same id or are
// appended, and any other payload replaces Data.
func (r *Record) merge(update *Record) {
	for _, f := range update.Fields {
		replaced := false
		for i := range r.Fields {
			if r.Fields[i].ID == f.ID {
				r.Fields[i] = f
				replaced = true

				break
			}
		}
		if !replaced {
			r.Fields = append(r.Fields, f)
		}
	}
	if update.Data != nil {
		r.Data = update.Data
	}
	if update.PermData != nil {
		r.PermData = update.PermData
	}
}

// readRecord reads the payload of the entry just decoded. Field list payloads are
// opened and copied field by field; other kinds are copied as is.
func readRecord(it *codec.DecodeIterator, kind format.DataType, data, perm []byte, r setdef.FieldResolver) (*Record, error) {
	rec := &Record{PermData: clone(perm)}
	if kind != format.FieldList {
		rec.Data = clone(data)
		return rec, nil
	}

	var fl codec.FieldList
	if err := fl.Decode(it, r); err != nil {
		if errors.Is(err, errs.ErrBlankData) {
			return rec, nil
		}

		return nil, err
	}

	var fe codec.FieldEntry
	for {
		err := fe.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			return rec, nil
		}
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, Field{ID: fe.FieldID, DataType: fe.DataType, Data: clone(fe.EncodedData)})
	}
}

// clone copies b; empty input yields nil.
func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	return append([]byte(nil), b...)
}
