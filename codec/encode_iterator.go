package codec

import (
	"fmt"
	"math"

	"github.com/arloliu/rwf/endian"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/wire"
	"github.com/arloliu/rwf/setdef"
)

var engine = endian.Network()

// encodeState is the phase of one encoding level.
type encodeState uint8

const (
	stateNone         encodeState = iota
	stateSummary                  // summary data is being written by a nested container
	stateSetData                  // set-defined entries are expected
	stateSetEntryInit             // a phased set-defined entry is open
	stateEntries                  // standard entries are expected
	stateEntryInit                // a phased standard entry is open
	stateWaitComplete             // only EncodeComplete may follow
)

// lengthForm is the wire form of a deferred length field.
type lengthForm uint8

const (
	formU8 lengthForm = iota + 1
	formRB15
	formOB16
)

// lengthMark is a reserved, not yet written length field.
type lengthMark struct {
	pos   int
	width int
	form  lengthForm
}

// parentChange records what pushing a level did to its parent, so a rollback can undo it.
type parentChange uint8

const (
	changeNone parentChange = iota
	changeEstablished
	changeMixed
)

type encodingLevel struct {
	kind     format.DataType
	state    encodeState
	flags    uint8
	initPos  int
	countPos int // -1 until the entry count is reserved
	count    int
	maxCount int

	entryPos  int        // start of the entry being written
	entryMark lengthMark // length of a phased entry
	dataMark  lengthMark // length of summary or set data

	// Entry kinds. entryKind is the container type declared in the header, or the
	// first kind seen when the header declared Unknown (inferred).
	entryKind    format.DataType
	entryKindPos int // header byte holding entryKind, -1 when absent
	inferred     bool
	mixed        bool
	curKind      format.DataType // expected kind of the open phased entry, Unknown for any
	change       parentChange

	keyType format.DataType

	fieldSet   *setdef.FieldSetDef
	elementSet *setdef.ElementSetDef
	setIndex   int

	fieldDefs   *setdef.LocalFieldDb
	elementDefs *setdef.LocalElementDb

	itemType   format.DataType
	itemForm   format.DataType
	itemLength int
}

// EncodeIterator writes nested containers left to right into a fixed-capacity buffer.
//
// Containers are opened with EncodeInit, filled with entries and closed with
// EncodeComplete; an entry whose payload is itself a container is opened with
// the entry's EncodeInit, filled by the nested container and closed with the
// entry's EncodeComplete. Calling EncodeComplete(false) on any container or
// phased entry leaves the buffer as it was before that level was opened.
//
// Note: EncodeIterator is NOT thread-safe and must not be shared between goroutines.
type EncodeIterator struct {
	buf      []byte
	pos      int
	major    uint8
	minor    uint8
	maxDepth int

	levels [MaxDepth]encodingLevel
	depth  int
}

// NewEncodeIterator returns an iterator writing into buf. The capacity of the
// output is len(buf); the iterator never grows it.
func NewEncodeIterator(buf []byte, opts ...IteratorOption) (*EncodeIterator, error) {
	cfg, err := newIteratorConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &EncodeIterator{
		buf:      buf,
		major:    cfg.major,
		minor:    cfg.minor,
		maxDepth: cfg.maxDepth,
	}, nil
}

// Reset discards all levels and starts writing at the beginning of buf.
func (it *EncodeIterator) Reset(buf []byte) {
	it.buf = buf
	it.pos = 0
	it.depth = 0
}

// Bytes returns the encoded bytes written so far.
func (it *EncodeIterator) Bytes() []byte {
	return it.buf[:it.pos]
}

// Len returns the number of bytes written so far.
func (it *EncodeIterator) Len() int {
	return it.pos
}

// Version returns the wire version the iterator encodes.
func (it *EncodeIterator) Version() (major, minor uint8) {
	return it.major, it.minor
}

// Depth returns the number of open levels.
func (it *EncodeIterator) Depth() int {
	return it.depth
}

// push opens a level for a container of the given kind.
func (it *EncodeIterator) push(kind format.DataType) (*encodingLevel, error) {
	if it.depth >= it.maxDepth {
		return nil, fmt.Errorf("%w: %s exceeds depth %d", errs.ErrIteratorOverrun, kind, it.maxDepth)
	}

	change := changeNone
	if it.depth > 0 {
		var err error
		if change, err = it.acceptNested(&it.levels[it.depth-1], kind); err != nil {
			return nil, err
		}
	}

	lvl := &it.levels[it.depth]
	*lvl = encodingLevel{
		kind:         kind,
		initPos:      it.pos,
		countPos:     -1,
		entryKindPos: -1,
		change:       change,
	}
	it.depth++

	return lvl, nil
}

// acceptNested checks that parent has an open entry that may hold a container of kind.
func (it *EncodeIterator) acceptNested(parent *encodingLevel, kind format.DataType) (parentChange, error) {
	switch parent.state { //nolint: exhaustive
	case stateEntryInit, stateSetEntryInit, stateSummary:
	default:
		return changeNone, fmt.Errorf("%w: %s has no open entry for a nested %s", errs.ErrInvalidArgument, parent.kind, kind)
	}

	switch {
	case parent.curKind == kind:
		return changeNone, nil
	case parent.curKind == format.Unknown:
		if !parent.inferred || parent.entryKind != format.Unknown {
			return changeNone, nil
		}
		parent.entryKind = kind
		parent.curKind = kind
		it.buf[parent.entryKindPos] = byte(kind - format.ContainerTypeMin)

		return changeEstablished, nil
	case parent.inferred:
		if parent.mixed {
			return changeNone, nil
		}
		parent.mixed = true

		return changeMixed, nil
	default:
		return changeNone, fmt.Errorf("%w: %s entry declared %s, got %s", errs.ErrInvalidData, parent.kind, parent.curKind, kind)
	}
}

// rollback discards lvl and everything written since it was opened.
func (it *EncodeIterator) rollback(lvl *encodingLevel) {
	it.pos = lvl.initPos
	it.depth--

	if it.depth == 0 {
		return
	}

	parent := &it.levels[it.depth-1]
	switch lvl.change { //nolint: exhaustive
	case changeEstablished:
		parent.entryKind = format.Unknown
		parent.curKind = format.Unknown
		it.buf[parent.entryKindPos] = 0
	case changeMixed:
		parent.mixed = false
	}
}

// top returns the innermost level, which must be a container of the given kind.
func (it *EncodeIterator) top(kind format.DataType) (*encodingLevel, error) {
	if it.depth == 0 {
		return nil, fmt.Errorf("%w: no open %s", errs.ErrInvalidArgument, kind)
	}

	lvl := &it.levels[it.depth-1]
	if lvl.kind != kind {
		return nil, fmt.Errorf("%w: innermost container is %s, not %s", errs.ErrInvalidArgument, lvl.kind, kind)
	}

	return lvl, nil
}

// parentDefs returns the local set definitions written by the enclosing container.
func (it *EncodeIterator) parentDefs() (*setdef.LocalFieldDb, *setdef.LocalElementDb) {
	if it.depth == 0 {
		return nil, nil
	}
	parent := &it.levels[it.depth-1]

	return parent.fieldDefs, parent.elementDefs
}

// complete closes lvl: on success it backpatches the entry count, otherwise it rolls back.
// A failed completion keeps the level open so the caller can still roll it back.
func (it *EncodeIterator) complete(lvl *encodingLevel, success bool) error {
	if !success {
		it.rollback(lvl)
		return nil
	}

	switch lvl.state { //nolint: exhaustive
	case stateEntryInit, stateSetEntryInit:
		return fmt.Errorf("%w: %s has an open entry", errs.ErrInvalidArgument, lvl.kind)
	case stateSummary:
		return fmt.Errorf("%w: %s summary data is still open", errs.ErrInvalidArgument, lvl.kind)
	case stateSetData:
		return fmt.Errorf("%w: %s set data incomplete, %d entries written", errs.ErrInvalidData, lvl.kind, lvl.setIndex)
	}

	if lvl.inferred && lvl.entryKind == format.Unknown {
		if lvl.count == 0 {
			return fmt.Errorf("%w: %s completed with neither summary data nor entries", errs.ErrInvalidData, lvl.kind)
		}
		// only payload-free entries were written; the zero header byte reads as NoData
		lvl.entryKind = format.NoData
	}
	if lvl.mixed {
		return fmt.Errorf("%w: %s mixes %s with other entry kinds", errs.ErrInvalidData, lvl.kind, lvl.entryKind)
	}

	if lvl.countPos >= 0 {
		if lvl.maxCount == math.MaxUint8 {
			it.buf[lvl.countPos] = byte(lvl.count)
		} else {
			engine.PutUint16(it.buf[lvl.countPos:], uint16(lvl.count)) //nolint:gosec
		}
	}
	it.depth--

	return nil
}

// beginEntry checks the entry count and records the rollback point of a new entry.
func (it *EncodeIterator) beginEntry(lvl *encodingLevel) error {
	if lvl.state != stateEntries {
		return fmt.Errorf("%w: %s does not accept entries now", errs.ErrInvalidArgument, lvl.kind)
	}
	if lvl.count >= lvl.maxCount {
		return fmt.Errorf("%w: %s holds at most %d entries", errs.ErrValueOutOfRange, lvl.kind, lvl.maxCount)
	}
	lvl.entryPos = it.pos

	return nil
}

// openEntry reserves the length of a phased entry whose payload holds a kind container.
func (it *EncodeIterator) openEntry(lvl *encodingLevel, kind format.DataType, maxSize int) error {
	m, err := it.markLength(formOB16, maxSize)
	if err != nil {
		return err
	}
	lvl.entryMark = m
	lvl.curKind = kind
	lvl.state = stateEntryInit

	return nil
}

// completeEntry closes a phased standard entry.
func (it *EncodeIterator) completeEntry(lvl *encodingLevel, success bool) error {
	if lvl.state != stateEntryInit {
		return fmt.Errorf("%w: %s has no open entry", errs.ErrInvalidArgument, lvl.kind)
	}

	if success {
		if err := it.finishLength(lvl.entryMark); err != nil {
			return err
		}
		lvl.count++
	} else {
		it.pos = lvl.entryPos
	}
	lvl.state = stateEntries
	lvl.curKind = format.Unknown

	return nil
}

// startEntries closes the set data of lvl and reserves the entry count, or waits
// for completion when the container carries no standard data.
func (it *EncodeIterator) startEntries(lvl *encodingLevel, standard bool, countWidth int) error {
	if lvl.dataMark.width > 0 {
		if err := it.finishLength(lvl.dataMark); err != nil {
			return err
		}
	}

	if !standard {
		lvl.dataMark = lengthMark{}
		lvl.state = stateWaitComplete

		return nil
	}

	pos := it.pos
	if _, err := it.reserve(countWidth); err != nil {
		return err
	}
	lvl.dataMark = lengthMark{}
	lvl.countPos = pos
	lvl.maxCount = math.MaxUint16
	if countWidth == 1 {
		lvl.maxCount = math.MaxUint8
	}
	lvl.state = stateEntries

	return nil
}

// reserve advances the cursor by n bytes and returns them for writing.
// It is the only operation that moves the cursor forward.
func (it *EncodeIterator) reserve(n int) ([]byte, error) {
	if n > len(it.buf)-it.pos {
		return nil, fmt.Errorf("%w: need %d bytes, %d left", errs.ErrBufferTooSmall, n, len(it.buf)-it.pos)
	}

	b := it.buf[it.pos : it.pos+n]
	it.pos += n

	return b, nil
}

// markLength reserves a deferred length field. A maxSize of 0 (unknown) or one too
// large for the short form reserves the wide form.
func (it *EncodeIterator) markLength(form lengthForm, maxSize int) (lengthMark, error) {
	m := lengthMark{pos: it.pos, form: form, width: 1}
	switch form {
	case formRB15:
		if maxSize <= 0 || maxSize >= 0x80 {
			m.width = 2
		}
	case formOB16:
		if maxSize <= 0 || maxSize >= wire.OB16Escape {
			m.width = 3
		}
	case formU8:
	}

	if _, err := it.reserve(m.width); err != nil {
		return lengthMark{}, err
	}

	return m, nil
}

// finishLength backpatches m with the number of bytes written after it.
func (it *EncodeIterator) finishLength(m lengthMark) error {
	n := it.pos - m.pos - m.width

	var limit int
	switch {
	case m.width == 1 && m.form == formRB15:
		limit = 0x7F
	case m.width == 1 && m.form == formOB16:
		limit = wire.OB16Escape - 1
	case m.width == 1:
		limit = math.MaxUint8
	case m.form == formRB15:
		limit = wire.MaxRB15
	default:
		limit = wire.MaxOB16
	}
	if n > limit {
		return fmt.Errorf("%w: length %d does not fit a %d-byte length field", errs.ErrValueOutOfRange, n, m.width)
	}

	dst := it.buf[m.pos:]
	switch {
	case m.width == 1:
		dst[0] = byte(n)
	case m.form == formRB15:
		engine.PutUint16(dst, uint16(n)|0x8000) //nolint:gosec
	default:
		dst[0] = wire.OB16Escape
		engine.PutUint16(dst[1:], uint16(n)) //nolint:gosec
	}

	return nil
}

func (it *EncodeIterator) putByte(b byte) error {
	dst, err := it.reserve(1)
	if err != nil {
		return err
	}
	dst[0] = b

	return nil
}

func (it *EncodeIterator) putUint16(v uint16) error {
	dst, err := it.reserve(2)
	if err != nil {
		return err
	}
	engine.PutUint16(dst, v)

	return nil
}

func (it *EncodeIterator) putRB15(v uint16) error {
	if v > wire.MaxRB15 {
		return fmt.Errorf("%w: %d exceeds rb15 maximum", errs.ErrValueOutOfRange, v)
	}

	dst, err := it.reserve(wire.RB15Len(v))
	if err != nil {
		return err
	}
	_, err = wire.PutRB15(dst, v)

	return err
}

func (it *EncodeIterator) putRB30(v uint32) error {
	if v > wire.MaxRB30 {
		return fmt.Errorf("%w: %d exceeds rb30 maximum", errs.ErrValueOutOfRange, v)
	}

	dst, err := it.reserve(wire.RB30Len(v))
	if err != nil {
		return err
	}
	_, err = wire.PutRB30(dst, v)

	return err
}

func (it *EncodeIterator) putBytes(b []byte) error {
	dst, err := it.reserve(len(b))
	if err != nil {
		return err
	}
	copy(dst, b)

	return nil
}

// putRB15Bytes writes b with an rb15 length prefix.
func (it *EncodeIterator) putRB15Bytes(b []byte) error {
	if len(b) > wire.MaxRB15 {
		return fmt.Errorf("%w: %d bytes exceed rb15 length prefix", errs.ErrValueOutOfRange, len(b))
	}
	if err := it.putRB15(uint16(len(b))); err != nil { //nolint:gosec
		return err
	}

	return it.putBytes(b)
}

// putOB16Payload writes p with an ob16 length prefix.
func (it *EncodeIterator) putOB16Payload(p Payload) error {
	n := p.Len()
	if n > wire.MaxOB16 {
		return fmt.Errorf("%w: %d bytes exceed ob16 length prefix", errs.ErrValueOutOfRange, n)
	}

	w := wire.OB16Len(n)
	dst, err := it.reserve(w + n)
	if err != nil {
		return err
	}
	if _, err := wire.PutOB16(dst, n); err != nil {
		return err
	}
	p.put(dst[w:])

	return nil
}
