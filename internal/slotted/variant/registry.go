// Package variant stores the slotted behavioral variants registered for each
// entity kind and answers which variant a variant id selects.
package variant

import (
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/observability"
)

// InvalidKind is the kind id of names the engine does not recognize.
// Registrations against it are dropped.
const InvalidKind host.Hash40 = 0

var (
	// ErrRegistryRequired indicates a nil registry.
	ErrRegistryRequired = errors.New("variant registry is required")
	// ErrInvalidKind indicates a registration against an unknown kind.
	ErrInvalidKind = errors.New("entity kind is not recognized")
)

// KindCatalog reports which kind names exist.
type KindCatalog interface {
	KindExists(category host.Category, name string) bool
}

// KindOf hashes the namespaced kind name, or returns InvalidKind when the
// catalog does not know name.
func KindOf(catalog KindCatalog, category host.Category, name string) host.Hash40 {
	if name == "" {
		return InvalidKind
	}
	if catalog != nil && !catalog.KindExists(category, name) {
		return InvalidKind
	}
	return host.Hash(host.KindName(category, name))
}

// Registry maps entity kinds to their ordered variant records.
//
// Writes (Register, RegisterMask, Migrate) take the exclusive lock, reads take
// the shared lock. Accessors copy hooks out so callers never run a hook while
// the lock is held.
type Registry struct {
	mu       sync.RWMutex
	kinds    map[host.Hash40][]*Record
	migrated bool
	logger   *log.Logger
	metrics  *observability.Recorder
}

// NewRegistry creates an empty registry that logs diagnostics to stderr.
func NewRegistry() *Registry {
	return &Registry{
		kinds:  make(map[host.Hash40][]*Record),
		logger: log.New(os.Stderr, "[slotted] ", log.LstdFlags),
	}
}

// SetLogger redirects diagnostics. A nil logger discards them.
func (r *Registry) SetLogger(logger *log.Logger) {
	if r == nil {
		return
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetRecorder attaches telemetry counters.
func (r *Registry) SetRecorder(metrics *observability.Recorder) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = metrics
}

// Register merges fields into the record of kind whose ColorSet equals
// colors, appending a new record when none does.
//
// Registrations against InvalidKind are dropped with a diagnostic.
func (r *Registry) Register(kind host.Hash40, colors ColorSet, fields ...Field) error {
	return r.register(kind, colors, nil, fields)
}

// RegisterMask registers fields against a legacy palette mask. Until Migrate
// runs the record is keyed by the mask itself; afterwards the mask is
// converted on arrival and merged like Register.
func (r *Registry) RegisterMask(kind host.Hash40, mask *[LegacyMaskSize]bool, fields ...Field) error {
	if mask == nil {
		return r.register(kind, ColorSet{}, nil, fields)
	}
	return r.register(kind, nil, mask, fields)
}

func (r *Registry) register(kind host.Hash40, colors ColorSet, mask *[LegacyMaskSize]bool, fields []Field) error {
	if r == nil {
		return ErrRegistryRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if kind == InvalidKind {
		r.logger.Printf("dropping %d field(s) for unrecognized kind", len(fields))
		r.metrics.Dropped("invalid_kind")
		return ErrInvalidKind
	}
	if r.kinds == nil {
		r.kinds = make(map[host.Hash40][]*Record)
	}
	if mask != nil && r.migrated {
		colors, mask = FromMask(mask), nil
	}

	record := r.find(kind, colors, mask)
	if record == nil {
		record = newRecord(colors, mask)
		r.kinds[kind] = append(r.kinds[kind], record)
	}
	for _, field := range fields {
		if field == nil {
			continue
		}
		field.apply(record)
	}
	return nil
}

// find locates the merge target. Caller holds the write lock.
func (r *Registry) find(kind host.Hash40, colors ColorSet, mask *[LegacyMaskSize]bool) *Record {
	for _, record := range r.kinds[kind] {
		if mask != nil {
			if record.LegacyMask == mask {
				return record
			}
			continue
		}
		if record.LegacyMask == nil && record.Colors.Equal(colors) {
			return record
		}
	}
	return nil
}

// Resolve returns the index of the first record of kind, in registration
// order, whose ColorSet contains id.
func (r *Registry) Resolve(kind host.Hash40, id int) (int, bool) {
	if r == nil {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, record := range r.kinds[kind] {
		if record.Colors.Contains(id) {
			return i, true
		}
	}
	return 0, false
}

// Len reports how many records kind has.
func (r *Registry) Len(kind host.Hash40) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds[kind])
}

// Kinds returns every kind with at least one record.
func (r *Registry) Kinds() []host.Hash40 {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]host.Hash40, 0, len(r.kinds))
	for kind := range r.kinds {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Variant returns a copy of the record at index.
func (r *Registry) Variant(kind host.Hash40, index int) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record := r.at(kind, index)
	if record == nil {
		return Record{}, false
	}
	return record.clone(), true
}

// Frame returns the frame hook of the record at index, or nil.
func (r *Registry) Frame(kind host.Hash40, index int) host.FrameHook {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if record := r.at(kind, index); record != nil {
		return record.Frame
	}
	return nil
}

// StartHooks returns every start hook registered for kind in registration
// order, regardless of variant.
func (r *Registry) StartHooks(kind host.Hash40) []host.StartHook {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hooks []host.StartHook
	for _, record := range r.kinds[kind] {
		if record.Start != nil {
			hooks = append(hooks, record.Start)
		}
	}
	return hooks
}

// Command returns the command named hash in the record at index.
func (r *Registry) Command(kind host.Hash40, index int, hash host.Hash40) (Command, bool) {
	if r == nil {
		return Command{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record := r.at(kind, index)
	if record == nil {
		return Command{}, false
	}
	cmd, ok := record.Commands[hash]
	if !ok || cmd.Hook == nil {
		return Command{}, false
	}
	return cmd, true
}

// CommandNames returns the names of the record's commands in category.
func (r *Registry) CommandNames(kind host.Hash40, index int, category host.CommandCategory) []host.Hash40 {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record := r.at(kind, index)
	if record == nil {
		return nil
	}
	var names []host.Hash40
	for hash, cmd := range record.Commands {
		if cmd.Category == category {
			names = append(names, hash)
		}
	}
	return names
}

// Statuses returns a copy of the record's status overrides in order.
func (r *Registry) Statuses(kind host.Hash40, index int) []StatusOverride {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record := r.at(kind, index)
	if record == nil {
		return nil
	}
	return append([]StatusOverride(nil), record.Statuses...)
}

// at bounds-checks index. Caller holds a lock.
func (r *Registry) at(kind host.Hash40, index int) *Record {
	records := r.kinds[kind]
	if index < 0 || index >= len(records) {
		return nil
	}
	return records[index]
}
