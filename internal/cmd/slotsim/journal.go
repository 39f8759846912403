package slotsim

import (
	"sync"
	"time"

	"github.com/louisbranch/slotted/internal/scenario"
	"github.com/louisbranch/slotted/internal/sim"
	"github.com/louisbranch/slotted/internal/slotted/dispatch"
	"github.com/louisbranch/slotted/internal/slotted/storage"
)

const roleMark = "mark"

// journal buffers engine traces and scenario marks as storage entries.
type journal struct {
	runID  string
	rt     *dispatch.Runtime
	engine *sim.Engine

	mu   sync.Mutex
	rows []storage.Entry
}

func newJournal(runID string, rt *dispatch.Runtime, engine *sim.Engine) *journal {
	return &journal{runID: runID, rt: rt, engine: engine}
}

func (j *journal) trace(t sim.Trace) {
	entry := storage.Entry{
		RunID:    j.runID,
		Tick:     t.Tick,
		ObjectID: t.ObjectID,
		Kind:     t.Kind.String(),
		Role:     string(t.Role),
		Name:     t.Name,
		Variant:  j.variant(t.ObjectID),
	}
	if !t.Handled {
		entry.Label = "unhandled"
	}
	j.append(entry)
}

func (j *journal) marks(marks []scenario.Mark) {
	for _, m := range marks {
		entry := storage.Entry{
			RunID:    j.runID,
			Tick:     m.Tick,
			ObjectID: m.ObjectID,
			Role:     roleMark,
			Label:    m.Label,
			Variant:  j.variant(m.ObjectID),
		}
		if a, ok := j.engine.Instance(m.ObjectID); ok {
			entry.Kind = a.Kind().String()
		}
		j.append(entry)
	}
}

// variant reads the instance's resolved index, following the owner for
// dependents. Despawned or unresolved instances have none.
func (j *journal) variant(objectID uint32) int {
	a, ok := j.engine.Instance(objectID)
	if !ok {
		return storage.NoVariant
	}
	index, ok := j.rt.VariantIndex(a)
	if !ok {
		return storage.NoVariant
	}
	return index
}

func (j *journal) append(entry storage.Entry) {
	entry.CreatedAt = time.Now().UTC()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, entry)
}

func (j *journal) entries() []storage.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]storage.Entry(nil), j.rows...)
}

func (j *journal) len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.rows)
}
