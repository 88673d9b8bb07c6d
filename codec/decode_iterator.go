package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
	"github.com/arloliu/rwf/primitive"
	"github.com/arloliu/rwf/setdef"
)

// cursor reads a bounded window. Reading past its end is errs.ErrIncompleteData.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) rest() []byte {
	return c.data[c.pos:]
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes, %d left", errs.ErrIncompleteData, n, c.remaining())
	}

	b := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n

	return b, nil
}

func (c *cursor) u8() (byte, error) {
	if c.remaining() < 1 {
		return 0, fmt.Errorf("%w: need 1 byte", errs.ErrIncompleteData)
	}
	b := c.data[c.pos]
	c.pos++

	return b, nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}

	return engine.Uint16(b), nil
}

func (c *cursor) rb15() (uint16, error) {
	v, n, err := wire.ReadRB15(c.rest())
	c.pos += n

	return v, err
}

func (c *cursor) rb30() (uint32, error) {
	v, n, err := wire.ReadRB30(c.rest())
	c.pos += n

	return v, err
}

// rb15Bytes reads an rb15 length-prefixed byte range.
func (c *cursor) rb15Bytes() ([]byte, error) {
	n, err := c.rb15()
	if err != nil {
		return nil, err
	}

	return c.bytes(int(n))
}

// obBytes reads an ob16 (or ob32) length-prefixed byte range.
func (c *cursor) obBytes() ([]byte, error) {
	v, n, err := wire.ReadOB(c.rest())
	if err != nil {
		return nil, err
	}
	c.pos += n

	return c.bytes(v)
}

// containerType reads a one-byte container type.
func (c *cursor) containerType() (format.DataType, error) {
	b, err := c.u8()
	if err != nil {
		return format.Unknown, err
	}

	return format.DataType(b) + format.ContainerTypeMin, nil
}

type decodingLevel struct {
	kind  format.DataType
	flags uint8
	cursor

	entriesPos int
	count      int
	index      int

	set        cursor
	fieldSet   *setdef.FieldSetDef
	elementSet *setdef.ElementSetDef
	setIndex   int

	entryKind format.DataType // declared kind of entry payloads
	summary   []byte
	entryData []byte          // payload of the last decoded entry, or the summary
	curKind   format.DataType // kind of entryData, Unknown when not known

	hasFieldDefs   bool
	hasElementDefs bool
	fieldDefs      setdef.LocalFieldDb
	elementDefs    setdef.LocalElementDb

	itemType   format.DataType
	itemForm   format.DataType
	itemLength int

	scratch [primitive.MaxStandardLen]byte
}

// readSetValue reads the next set-defined value of type dt and returns its standard encoding.
func (l *decodingLevel) readSetValue(dt format.DataType) ([]byte, error) {
	if dt.IsSetDefined() {
		data, n, err := primitive.ReadSet(l.set.rest(), dt, l.scratch[:])
		if err != nil {
			return nil, err
		}
		l.set.pos += n

		return data, nil
	}

	if primitive.HasWidePrefix(dt) {
		return l.set.obBytes()
	}

	n, err := l.set.u8()
	if err != nil {
		return nil, err
	}

	return l.set.bytes(int(n))
}

func (l *decodingLevel) setEntry(data []byte, kind format.DataType) {
	l.entryData = data
	l.curKind = kind
}

// DecodeIterator reads nested containers from a buffer.
//
// A container is opened with its Decode method and its entries are pulled one at a
// time until errs.ErrEndOfContainer, which also closes the level. The payload of the
// entry just decoded can be opened by the Decode method of the nested container.
// Use FinishEntries to leave a container before its end.
//
// Note: DecodeIterator is NOT thread-safe and must not be shared between goroutines.
type DecodeIterator struct {
	buf      []byte
	major    uint8
	minor    uint8
	maxDepth int

	levels [MaxDepth]decodingLevel
	depth  int
}

// NewDecodeIterator returns an iterator reading buf.
func NewDecodeIterator(buf []byte, opts ...IteratorOption) (*DecodeIterator, error) {
	cfg, err := newIteratorConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &DecodeIterator{
		buf:      buf,
		major:    cfg.major,
		minor:    cfg.minor,
		maxDepth: cfg.maxDepth,
	}, nil
}

// SetBuffer discards all levels and starts reading buf.
func (it *DecodeIterator) SetBuffer(buf []byte) {
	it.buf = buf
	it.depth = 0
}

// Reset discards all levels so the buffer can be decoded again from the start.
func (it *DecodeIterator) Reset() {
	it.depth = 0
}

// Version returns the wire version the iterator decodes.
func (it *DecodeIterator) Version() (major, minor uint8) {
	return it.major, it.minor
}

// Depth returns the number of open levels.
func (it *DecodeIterator) Depth() int {
	return it.depth
}

// FinishEntries skips the remaining entries of the innermost container and closes it.
func (it *DecodeIterator) FinishEntries() error {
	if it.depth == 0 {
		return fmt.Errorf("%w: no open container", errs.ErrInvalidArgument)
	}
	it.depth--

	return nil
}

// RewindEntries restarts entry iteration of the innermost container.
func (it *DecodeIterator) RewindEntries() error {
	if it.depth == 0 {
		return fmt.Errorf("%w: no open container", errs.ErrInvalidArgument)
	}

	lvl := &it.levels[it.depth-1]
	lvl.pos = lvl.entriesPos
	lvl.index = 0
	lvl.set.pos = 0
	lvl.setIndex = 0
	lvl.entryData = lvl.summary
	lvl.curKind = lvl.entryKind

	return nil
}

// window returns the bytes a container of the given kind decodes from: the whole
// buffer at depth 0, otherwise the entry last decoded by the innermost level.
func (it *DecodeIterator) window(kind format.DataType) ([]byte, *decodingLevel, error) {
	if it.depth == 0 {
		return it.buf, nil, nil
	}

	parent := &it.levels[it.depth-1]
	if parent.curKind != format.Unknown && parent.curKind != kind {
		return nil, nil, fmt.Errorf("%w: %s entry holds %s, not %s", errs.ErrInvalidData, parent.kind, parent.curKind, kind)
	}

	return parent.entryData, parent, nil
}

// push opens a level reading c from its current position.
func (it *DecodeIterator) push(kind format.DataType, flags uint8, c cursor) (*decodingLevel, error) {
	if it.depth >= it.maxDepth {
		return nil, fmt.Errorf("%w: %s exceeds depth %d", errs.ErrIteratorOverrun, kind, it.maxDepth)
	}

	lvl := &it.levels[it.depth]
	*lvl = decodingLevel{kind: kind, flags: flags, cursor: c, entriesPos: c.pos}
	it.depth++

	return lvl, nil
}

// top returns the innermost level, which must be a container of the given kind.
func (it *DecodeIterator) top(kind format.DataType) (*decodingLevel, error) {
	if it.depth == 0 {
		return nil, fmt.Errorf("%w: no open %s", errs.ErrInvalidArgument, kind)
	}

	lvl := &it.levels[it.depth-1]
	if lvl.kind != kind {
		return nil, fmt.Errorf("%w: innermost container is %s, not %s", errs.ErrInvalidArgument, lvl.kind, kind)
	}

	return lvl, nil
}

// next reports whether lvl has another standard entry; otherwise it closes lvl.
func (it *DecodeIterator) next(lvl *decodingLevel) error {
	if lvl.index < lvl.count {
		return nil
	}
	it.depth--

	return errs.ErrEndOfContainer
}

func emptyContainer(kind format.DataType) error {
	return fmt.Errorf("%w: empty %s", errs.ErrBlankData, kind)
}
