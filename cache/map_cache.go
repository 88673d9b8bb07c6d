package cache

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

// MapCache replicates a keyed collection streamed as Map messages.
//
// The key type and entry kind are fixed by the first message applied; later
// messages must match them.
//
// Note: MapCache is NOT thread-safe.
type MapCache struct {
	keyType format.DataType
	kind    format.DataType
	summary *Record
	entries map[string]*mapItem

	resolver setdef.FieldResolver
	logger   log.Logger
}

type mapItem struct {
	key primitive.Value // nil for a blank key
	rec *Record
}

type mapOp struct {
	action format.EntryAction
	id     string
	key    primitive.Value
	rec    *Record
}

// NewMapCache returns an empty map cache.
func NewMapCache(opts ...Option) (*MapCache, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &MapCache{
		entries:  map[string]*mapItem{},
		resolver: cfg.resolver,
		logger:   log.With(cfg.logger, "component", "map_cache"),
	}, nil
}

// Apply decodes the map in the iterator's window and applies its summary and
// entries in order.
func (c *MapCache) Apply(it *codec.DecodeIterator) error {
	var m codec.Map
	if err := m.Decode(it); err != nil {
		return err
	}
	if c.keyType != format.Unknown && (m.KeyPrimitiveType != c.keyType || m.ContainerType != c.kind) {
		return fmt.Errorf("%w: map of %s keyed by %s, cache holds %s keyed by %s",
			errs.ErrInvalidData, m.ContainerType, m.KeyPrimitiveType, c.kind, c.keyType)
	}

	var summary *Record
	if m.Flags&codec.MapHasSummaryData != 0 {
		rec, err := readRecord(it, m.ContainerType, m.EncodedSummaryData, nil, c.resolver)
		if err != nil {
			return err
		}
		summary = rec
	}

	var ops []mapOp
	var me codec.MapEntry
	for {
		err := me.Decode(it)
		if errors.Is(err, errs.ErrEndOfContainer) {
			break
		}
		if err != nil {
			return err
		}

		op := mapOp{action: me.Action, id: string(me.EncodedKey)}
		key, err := m.DecodeKey(&me)
		switch {
		case err == nil:
			op.key = key
		case !errors.Is(err, errs.ErrBlankData):
			return fmt.Errorf("%w: map key: %w", errs.ErrInvalidData, err)
		}
		if me.Action != format.ActionDelete {
			if op.rec, err = readRecord(it, m.ContainerType, me.EncodedData, me.PermData, c.resolver); err != nil {
				return err
			}
		}
		ops = append(ops, op)
	}

	c.keyType, c.kind = m.KeyPrimitiveType, m.ContainerType
	if summary != nil {
		c.summary = summary
	}

	var added, updated, deleted int
	for _, op := range ops {
		switch op.action { //nolint: exhaustive
		case format.ActionAdd:
			c.entries[op.id] = &mapItem{key: op.key, rec: op.rec}
			added++
		case format.ActionUpdate:
			if item, ok := c.entries[op.id]; ok {
				item.rec.merge(op.rec)
			} else {
				c.entries[op.id] = &mapItem{key: op.key, rec: op.rec}
			}
			updated++
		case format.ActionDelete:
			delete(c.entries, op.id)
			deleted++
		}
	}

	level.Debug(c.logger).Log("msg", "applied map", "added", added, "updated", updated, "deleted", deleted,
		"entries", len(c.entries))

	return nil
}

// KeyType returns the key type of the cached map, Unknown before the first message.
func (c *MapCache) KeyType() format.DataType {
	return c.keyType
}

// Len returns the number of cached entries.
func (c *MapCache) Len() int {
	return len(c.entries)
}

// Get returns a copy of the entry with the given key; nil looks up the blank key.
func (c *MapCache) Get(key primitive.Value) (Record, bool) {
	item, ok := c.entries[keyID(key)]
	if !ok {
		return Record{}, false
	}

	return item.rec.Clone(), true
}

// Summary returns a copy of the latest summary data.
func (c *MapCache) Summary() (Record, bool) {
	if c.summary == nil {
		return Record{}, false
	}

	return c.summary.Clone(), true
}

// Keys returns the cached keys ordered by their encoding.
func (c *MapCache) Keys() []primitive.Value {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	keys := make([]primitive.Value, len(ids))
	for i, id := range ids {
		keys[i] = c.entries[id].key
	}

	return keys
}

// Reset drops every entry and the summary, and forgets the key type.
func (c *MapCache) Reset() {
	clear(c.entries)
	c.summary = nil
	c.keyType, c.kind = format.Unknown, format.Unknown
}

func keyID(key primitive.Value) string {
	if key == nil {
		return ""
	}

	return string(primitive.Encode(key))
}
