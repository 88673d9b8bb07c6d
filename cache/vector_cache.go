package cache

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/arloliu/rwf/codec"
	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/setdef"
)

// VectorCache replicates a positional collection streamed as Vector messages.
//
// Insert and Delete shift the following slots only when the message flags
// VectorSupportsSorting; otherwise Insert behaves as Set and Delete empties the slot.
// Clear keeps the slot and drops its content.
//
// Note: VectorCache is NOT thread-safe.
type VectorCache struct {
	kind    format.DataType
	summary *Record
	slots   []*Record // nil for an empty slot

	resolver   setdef.FieldResolver
	maxEntries int
	logger     log.Logger
}

type vectorOp struct {
	action format.EntryAction
	index  int
	rec    *Record
}

// NewVectorCache returns an empty vector cache.
func NewVectorCache(opts ...Option) (*VectorCache, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &VectorCache{
		resolver:   cfg.resolver,
		maxEntries: cfg.maxEntries,
		logger:     log.With(cfg.logger, "component", "vector_cache"),
	}, nil
}

// Apply decodes the vector in the iterator's window and applies its summary and
// entries in order.
func (c *VectorCache) Apply(it *codec.DecodeIterator) error {
	var v codec.Vector
	if err := v.Decode(it); err != nil {
		return err
	}
	if c.kind != format.Unknown && v.ContainerType != c.kind {
		return fmt.Errorf("%w: vector of %s, cache holds %s", errs.ErrInvalidData, v.ContainerType, c.kind)
	}
	sorting := v.Flags&codec.VectorSupportsSorting != 0

	var summary *Record
	if v.Flags&codec.VectorHasSummaryData != 0 {
		rec, err := readRecord(it, v.ContainerType, v.EncodedSummaryData, nil, c.resolver)
		if err != nil {
			return err
		}
		summary = rec
	}

	var ops []vectorOp
	var ve codec.VectorEntry
	n := len(c.slots)
	for {
		err := ve.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			break
		}
		if err != nil {
			return err
		}

		op := vectorOp{action: ve.Action, index: int(ve.Index)}
		if ve.Action != format.ActionDelete && ve.Action != format.ActionClear {
			if op.rec, err = readRecord(it, v.ContainerType, ve.EncodedData, ve.PermData, c.resolver); err != nil {
				return err
			}
		}
		if n = projectedLen(n, op, sorting); n > c.maxEntries {
			return fmt.Errorf("%w: vector entry %d grows the cache past %d slots", errs.ErrValueOutOfRange, op.index, c.maxEntries)
		}
		ops = append(ops, op)
	}

	c.kind = v.ContainerType
	if summary != nil {
		c.summary = summary
	}
	for _, op := range ops {
		c.apply(op, sorting)
	}

	level.Debug(c.logger).Log("msg", "applied vector", "entries", len(ops), "slots", len(c.slots), "sorting", sorting)

	return nil
}

// projectedLen returns the number of slots after applying op to n slots.
func projectedLen(n int, op vectorOp, sorting bool) int {
	switch op.action { //nolint: exhaustive
	case format.ActionInsert:
		if sorting {
			return max(n+1, op.index+1)
		}

		return max(n, op.index+1)
	case format.ActionDelete:
		if sorting && op.index < n {
			return n - 1
		}

		return n
	case format.ActionClear:
		return n
	default:
		return max(n, op.index+1)
	}
}

func (c *VectorCache) grow(index int) {
	if index >= len(c.slots) {
		c.slots = append(c.slots, make([]*Record, index+1-len(c.slots))...)
	}
}

func (c *VectorCache) apply(op vectorOp, sorting bool) {
	switch op.action { //nolint: exhaustive
	case format.ActionSet:
		c.grow(op.index)
		c.slots[op.index] = op.rec
	case format.ActionUpdate:
		c.grow(op.index)
		if cur := c.slots[op.index]; cur != nil {
			cur.merge(op.rec)
		} else {
			c.slots[op.index] = op.rec
		}
	case format.ActionInsert:
		if sorting && op.index < len(c.slots) {
			c.slots = slices.Insert(c.slots, op.index, op.rec)
			return
		}
		c.grow(op.index)
		c.slots[op.index] = op.rec
	case format.ActionDelete:
		if op.index >= len(c.slots) {
			return
		}
		if sorting {
			c.slots = slices.Delete(c.slots, op.index, op.index+1)
			return
		}
		c.slots[op.index] = nil
	case format.ActionClear:
		if op.index < len(c.slots) && c.slots[op.index] != nil {
			c.slots[op.index] = &Record{}
		}
	}
}

// Len returns the number of slots, empty ones included.
func (c *VectorCache) Len() int {
	return len(c.slots)
}

// Get returns a copy of the entry at index; empty slots report false.
func (c *VectorCache) Get(index int) (Record, bool) {
	if index < 0 || index >= len(c.slots) || c.slots[index] == nil {
		return Record{}, false
	}

	return c.slots[index].Clone(), true
}

// Summary returns a copy of the latest summary data.
func (c *VectorCache) Summary() (Record, bool) {
	if c.summary == nil {
		return Record{}, false
	}

	return c.summary.Clone(), true
}

// Reset drops every slot and the summary, and forgets the entry kind.
func (c *VectorCache) Reset() {
	c.slots = nil
	c.summary = nil
	c.kind = format.Unknown
}
