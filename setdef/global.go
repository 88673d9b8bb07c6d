package setdef

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/internal/options"
)

// GlobalDb is a session-scoped set definition table, populated from a dictionary
// exchange and shared by any number of concurrent encoders and decoders.
//
// Reads are lock-free: the table is an immutable snapshot replaced atomically on
// every write (copy-on-write), so a decoder in the middle of a lookup keeps the
// snapshot it started with. Writers are serialized.
type GlobalDb[T Tag] struct {
	snapshot atomic.Pointer[globalSnapshot[T]]
	mu       sync.Mutex // serializes writers

	logger  log.Logger
	metrics *globalMetrics
}

type globalSnapshot[T Tag] struct {
	defs         map[uint16]*Definition[T]
	dictionaryID int64
	version      string
}

type (
	GlobalFieldDb   = GlobalDb[int16]
	GlobalElementDb = GlobalDb[string]
)

type globalMetrics struct {
	lookups     *prometheus.CounterVec
	loads       prometheus.Counter
	definitions prometheus.Gauge
}

func newGlobalMetrics(kind string, reg prometheus.Registerer) *globalMetrics {
	labels := prometheus.Labels{"kind": kind}

	return &globalMetrics{
		lookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name:        "rwf_global_setdef_lookups_total",
			Help:        "Total number of global set definition lookups.",
			ConstLabels: labels,
		}, []string{"result"}),
		loads: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "rwf_global_setdef_loads_total",
			Help:        "Total number of global set definition loads.",
			ConstLabels: labels,
		}),
		definitions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name:        "rwf_global_setdef_definitions",
			Help:        "Number of global set definitions currently loaded.",
			ConstLabels: labels,
		}),
	}
}

// NewGlobalFieldDb returns an empty global field set definition database.
func NewGlobalFieldDb(opts ...GlobalDbOption) (*GlobalFieldDb, error) {
	return newGlobalDb[int16](opts...)
}

// NewGlobalElementDb returns an empty global element set definition database.
func NewGlobalElementDb(opts ...GlobalDbOption) (*GlobalElementDb, error) {
	return newGlobalDb[string](opts...)
}

func newGlobalDb[T Tag](opts ...GlobalDbOption) (*GlobalDb[T], error) {
	cfg := newGlobalConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	db := &GlobalDb[T]{
		logger:  log.With(cfg.logger, "component", "global_setdef_db", "kind", kindOf[T]()),
		metrics: newGlobalMetrics(kindOf[T](), cfg.registerer),
	}
	db.snapshot.Store(&globalSnapshot[T]{defs: map[uint16]*Definition[T]{}})

	return db, nil
}

// Lookup returns the definition with the given id.
func (db *GlobalDb[T]) Lookup(id uint16) (*Definition[T], bool) {
	if db == nil {
		return nil, false
	}

	def, ok := db.snapshot.Load().defs[id]
	if ok {
		db.metrics.lookups.WithLabelValues("hit").Inc()
	} else {
		db.metrics.lookups.WithLabelValues("miss").Inc()
	}

	return def, ok
}

// Len returns the number of loaded definitions.
func (db *GlobalDb[T]) Len() int {
	return len(db.snapshot.Load().defs)
}

// IDs returns the loaded set ids in ascending order.
func (db *GlobalDb[T]) IDs() []uint16 {
	defs := db.snapshot.Load().defs
	ids := make([]uint16, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Info returns the dictionary id and version of the loaded dictionary.
func (db *GlobalDb[T]) Info() (int64, string) {
	s := db.snapshot.Load()
	return s.dictionaryID, s.version
}

// Load replaces the whole table with defs.
func (db *GlobalDb[T]) Load(dictionaryID int64, version string, defs []*Definition[T]) error {
	return db.write(dictionaryID, version, defs, true)
}

// Merge adds defs to the table, replacing definitions with the same id.
func (db *GlobalDb[T]) Merge(dictionaryID int64, version string, defs []*Definition[T]) error {
	return db.write(dictionaryID, version, defs, false)
}

func (db *GlobalDb[T]) write(dictionaryID int64, version string, defs []*Definition[T], replace bool) error {
	for _, def := range defs {
		if def.ID < MinGlobalSetID {
			return fmt.Errorf("%w: global set id %d below %d", errs.ErrValueOutOfRange, def.ID, MinGlobalSetID)
		}
		if err := def.Validate(); err != nil {
			return err
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	old := db.snapshot.Load()
	next := &globalSnapshot[T]{
		defs:         make(map[uint16]*Definition[T], len(old.defs)+len(defs)),
		dictionaryID: dictionaryID,
		version:      version,
	}
	if !replace {
		for id, def := range old.defs {
			next.defs[id] = def
		}
	}

	changed := 0
	for _, def := range defs {
		if prev, ok := old.defs[def.ID]; ok && prev.Fingerprint() != def.Fingerprint() {
			changed++
		}
		next.defs[def.ID] = def.Clone()
	}

	db.snapshot.Store(next)
	db.metrics.loads.Inc()
	db.metrics.definitions.Set(float64(len(next.defs)))

	level.Info(db.logger).Log("msg", "loaded global set definitions", "dictionary_id", dictionaryID,
		"version", version, "received", len(defs), "changed", changed, "total", len(next.defs), "replace", replace)

	return nil
}

// Clear removes every definition.
func (db *GlobalDb[T]) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.snapshot.Store(&globalSnapshot[T]{defs: map[uint16]*Definition[T]{}})
	db.metrics.definitions.Set(0)

	level.Info(db.logger).Log("msg", "cleared global set definitions")
}
