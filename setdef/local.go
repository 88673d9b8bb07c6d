package setdef

import (
	"fmt"

	"github.com/arloliu/rwf/endian"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
)

var engine = endian.Network()

// LocalDb is a message-scoped table of up to MaxLocalSetDefs set definitions.
//
// An encoder writes the table into the message (see Put) so the receiver can decode
// set data without an external dictionary; a decoder rebuilds it with Decode and
// uses it for the rest of that message only.
//
// Note: LocalDb is NOT thread-safe.
type LocalDb[T Tag] struct {
	defs  [MaxLocalSetDefs]*Definition[T]
	count int
}

type (
	LocalFieldDb   = LocalDb[int16]
	LocalElementDb = LocalDb[string]
)

// NewLocalFieldDb returns an empty local field set definition table.
func NewLocalFieldDb() *LocalFieldDb {
	return &LocalFieldDb{}
}

// NewLocalElementDb returns an empty local element set definition table.
func NewLocalElementDb() *LocalElementDb {
	return &LocalElementDb{}
}

// Add stores def in the slot for its id, replacing any previous definition.
func (db *LocalDb[T]) Add(def *Definition[T]) error {
	if def.ID > MaxLocalSetID {
		return fmt.Errorf("%w: local set id %d exceeds %d", errs.ErrValueOutOfRange, def.ID, MaxLocalSetID)
	}

	if err := def.Validate(); err != nil {
		return err
	}

	if db.defs[def.ID] == nil {
		db.count++
	}
	db.defs[def.ID] = def

	return nil
}

// Lookup returns the definition with the given id.
func (db *LocalDb[T]) Lookup(id uint16) (*Definition[T], bool) {
	if db == nil || id > MaxLocalSetID {
		return nil, false
	}

	def := db.defs[id]

	return def, def != nil
}

// Len returns the number of stored definitions.
func (db *LocalDb[T]) Len() int {
	return db.count
}

// Clear removes all definitions.
func (db *LocalDb[T]) Clear() {
	db.defs = [MaxLocalSetDefs]*Definition[T]{}
	db.count = 0
}

// EncodedLen returns the size of the wire form written by Put.
func (db *LocalDb[T]) EncodedLen() int {
	n := 2 // flags + count
	for _, def := range db.defs {
		if def == nil {
			continue
		}
		n += wire.RB15Len(def.ID) + 1
		for _, e := range def.Entries {
			n += tagLen(e.Tag) + 1
		}
	}

	return n
}

// Put writes the table as a local set definitions block:
// flags(u8) count(u8) then per definition id(rb15) entryCount(u8) and
// entries of tag + type(u8). dst must hold EncodedLen bytes.
func (db *LocalDb[T]) Put(dst []byte) (int, error) {
	dst[0] = 0
	dst[1] = byte(db.count)
	pos := 2

	for _, def := range db.defs {
		if def == nil {
			continue
		}

		n, err := wire.PutRB15(dst[pos:], def.ID)
		if err != nil {
			return 0, err
		}
		pos += n
		dst[pos] = byte(len(def.Entries))
		pos++

		for _, e := range def.Entries {
			n, err := putTag(dst[pos:], e.Tag)
			if err != nil {
				return 0, err
			}
			pos += n
			dst[pos] = byte(e.DataType)
			pos++
		}
	}

	return pos, nil
}

// Decode replaces the contents of db with the local set definitions block in src.
func (db *LocalDb[T]) Decode(src []byte) error {
	db.Clear()

	if len(src) < 2 {
		return fmt.Errorf("%w: local set definitions header", errs.ErrIncompleteData)
	}

	count := int(src[1])
	pos := 2
	for range count {
		id, n, err := wire.ReadRB15(src[pos:])
		if err != nil {
			return err
		}
		pos += n

		if id > MaxLocalSetID {
			return fmt.Errorf("%w: local set id %d", errs.ErrInvalidData, id)
		}
		if pos >= len(src) {
			return fmt.Errorf("%w: set %d entry count", errs.ErrIncompleteData, id)
		}

		def := &Definition[T]{ID: id, Entries: make([]Entry[T], src[pos])}
		pos++

		for i := range def.Entries {
			tag, n, err := readTag[T](src[pos:])
			if err != nil {
				return err
			}
			pos += n

			if pos >= len(src) {
				return fmt.Errorf("%w: set %d entry %d type", errs.ErrIncompleteData, id, i)
			}
			def.Entries[i] = Entry[T]{Tag: tag, DataType: format.DataType(src[pos])}
			pos++
		}

		if err := db.Add(def); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidData, err)
		}
	}

	return nil
}

func tagLen[T Tag](tag T) int {
	switch v := any(tag).(type) {
	case string:
		return wire.RB15Len(uint16(min(len(v), wire.MaxRB15+1))) + len(v) //nolint:gosec
	default:
		return 2
	}
}

func putTag[T Tag](dst []byte, tag T) (int, error) {
	switch v := any(tag).(type) {
	case int16:
		engine.PutUint16(dst, uint16(v)) //nolint:gosec
		return 2, nil
	case string:
		if len(v) > wire.MaxRB15 {
			return 0, fmt.Errorf("%w: element name of %d bytes", errs.ErrValueOutOfRange, len(v))
		}
		n, _ := wire.PutRB15(dst, uint16(len(v))) //nolint:gosec

		return n + copy(dst[n:], v), nil
	default:
		return 0, fmt.Errorf("%w: tag %T", errs.ErrUnsupportedDataType, tag)
	}
}

func readTag[T Tag](src []byte) (T, int, error) {
	var zero T
	switch any(zero).(type) {
	case int16:
		if len(src) < 2 {
			return zero, 0, fmt.Errorf("%w: field id", errs.ErrIncompleteData)
		}
		tag, _ := any(int16(engine.Uint16(src))).(T) //nolint:gosec

		return tag, 2, nil
	default:
		l, n, err := wire.ReadRB15(src)
		if err != nil {
			return zero, 0, err
		}
		if len(src) < n+int(l) {
			return zero, 0, fmt.Errorf("%w: element name", errs.ErrIncompleteData)
		}
		tag, _ := any(string(src[n : n+int(l)])).(T)

		return tag, n + int(l), nil
	}
}
