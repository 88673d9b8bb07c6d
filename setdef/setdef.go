// Package setdef holds set definitions and the databases that resolve them.
//
// A set definition is an ordered schema of (tag, type) pairs identified by a small
// integer id. Containers that reference a definition write their entries in schema
// order without repeating tags or types on the wire.
//
// Field lists tag entries with an int16 field id, element lists with a string name;
// both share one generic implementation:
//
//	def := &setdef.FieldSetDef{ID: 3, Entries: []setdef.FieldSetDefEntry{
//	    {Tag: 22, DataType: format.Real4RB},
//	    {Tag: 25, DataType: format.Real4RB},
//	    {Tag: 5, DataType: format.Time3},
//	}}
//
// Definitions with ids 0..MaxLocalSetID live in a LocalDb that travels with a single
// message. Larger ids live in a GlobalDb that lasts for a session.
package setdef

import (
	"fmt"
	"math"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/hash"
)

const (
	// MaxLocalSetID is the largest id a local set definition can have.
	MaxLocalSetID = 15
	// MaxLocalSetDefs is the number of slots in a local database.
	MaxLocalSetDefs = MaxLocalSetID + 1
	// MinGlobalSetID is the smallest id of a global set definition.
	MinGlobalSetID = MaxLocalSetID + 1
	// MaxGlobalSetID is the largest set id representable on the wire.
	MaxGlobalSetID = 0x7FFF
	// MaxEntries is the largest number of entries in one definition.
	MaxEntries = math.MaxUint8
)

// Tag is the entry identifier of a set definition: a field id or an element name.
type Tag interface {
	int16 | string
}

// Entry is one (tag, type) slot of a set definition.
type Entry[T Tag] struct {
	Tag      T
	DataType format.DataType
}

// Definition is an ordered set definition.
type Definition[T Tag] struct {
	ID      uint16
	Entries []Entry[T]
}

type (
	FieldSetDefEntry   = Entry[int16]
	FieldSetDef        = Definition[int16]
	ElementSetDefEntry = Entry[string]
	ElementSetDef      = Definition[string]
)

// Validate checks the definition's size and entry types.
func (d *Definition[T]) Validate() error {
	if d.ID > MaxGlobalSetID {
		return fmt.Errorf("%w: set id %d", errs.ErrValueOutOfRange, d.ID)
	}

	if len(d.Entries) > MaxEntries {
		return fmt.Errorf("%w: set %d has %d entries, max %d", errs.ErrValueOutOfRange, d.ID, len(d.Entries), MaxEntries)
	}

	for i, e := range d.Entries {
		if !e.DataType.IsPrimitive() && !e.DataType.IsSetDefined() {
			return fmt.Errorf("%w: set %d entry %d has type %s", errs.ErrUnsupportedDataType, d.ID, i, e.DataType)
		}
	}

	return nil
}

// Len returns the number of entries.
func (d *Definition[T]) Len() int {
	return len(d.Entries)
}

// Fingerprint returns a 64-bit hash of the definition's id and entries.
func (d *Definition[T]) Fingerprint() uint64 {
	h := hash.New()
	h.WriteUint16(d.ID)
	for _, e := range d.Entries {
		switch tag := any(e.Tag).(type) {
		case int16:
			h.WriteUint16(uint16(tag)) //nolint:gosec
		case string:
			h.WriteString(tag)
		}
		h.WriteUint16(uint16(e.DataType))
	}

	return h.Sum64()
}

// Clone returns a deep copy of d.
func (d *Definition[T]) Clone() *Definition[T] {
	c := &Definition[T]{ID: d.ID, Entries: make([]Entry[T], len(d.Entries))}
	copy(c.Entries, d.Entries)

	return c
}

func kindOf[T Tag]() string {
	var zero T
	if _, ok := any(zero).(string); ok {
		return "element"
	}

	return "field"
}
