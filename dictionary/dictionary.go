// Package dictionary exchanges global set definitions.
//
// A dictionary travels as one or more parts. Each part is a Vector of ElementLists:
//
//	Vector (summary data, total count hint = number of definitions)
//	  summary ElementList: Type (UInt), Version (AsciiString), DictionaryId (Int)
//	  entry index = set id, action Set, payload ElementList:
//	    NUMENTRIES (Int)
//	    FIDS  (Array of Int, 2-byte items)   field dictionaries
//	    NAMES (Array of AsciiString)          element dictionaries
//	    TYPES (Array of UInt, 1-byte items)
//
// An Encoder splits the definitions of a database into parts no larger than the
// configured budget; a Decoder accumulates parts and publishes the result into a
// setdef.GlobalDb in a single atomic load once every definition announced by the
// count hint has arrived.
//
// SaveSnapshot and LoadSnapshot store a whole dictionary as a single compressed,
// checksummed part.
package dictionary

import (
	"github.com/arloliu/rwf/setdef"
)

// Type identifies the kind of definitions a dictionary carries.
type Type uint64

const (
	TypeFieldSetDefs   Type = 8
	TypeElementSetDefs Type = 9
)

func (t Type) String() string {
	switch t {
	case TypeFieldSetDefs:
		return "FieldSetDefs"
	case TypeElementSetDefs:
		return "ElementSetDefs"
	default:
		return "Unknown"
	}
}

// Element names of the dictionary payload.
const (
	elemType         = "Type"
	elemVersion      = "Version"
	elemDictionaryID = "DictionaryId"
	elemNumEntries   = "NUMENTRIES"
	elemFieldIDs     = "FIDS"
	elemNames        = "NAMES"
	elemTypes        = "TYPES"
)

// Info identifies one dictionary.
type Info struct {
	DictionaryID int64
	Version      string
}

func typeOf[T setdef.Tag]() Type {
	var zero T
	if _, ok := any(zero).(string); ok {
		return TypeElementSetDefs
	}

	return TypeFieldSetDefs
}

// tagsElement is the name of the element carrying the entry tags of T.
func tagsElement[T setdef.Tag]() string {
	if typeOf[T]() == TypeElementSetDefs {
		return elemNames
	}

	return elemFieldIDs
}
