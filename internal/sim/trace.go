package sim

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// Role identifies the engine callback behind a trace.
type Role string

const (
	RoleStart   Role = "start"
	RoleFrame   Role = "frame"
	RoleCommand Role = "command"
	RoleScript  Role = "script"
	RoleStatus  Role = "status"
)

// Trace records one hook the engine invoked.
type Trace struct {
	Tick     int64
	ObjectID uint32
	Kind     host.Hash40
	Role     Role
	// Name is the command or status the hook ran for; empty for start and
	// frame.
	Name string
	// Handled is false when the engine found no hook and fell through.
	Handled bool
}

// TraceEvent carries every Trace published by an Engine. Events queue until
// the engine flushes them at the end of each operation.
var TraceEvent = events.NewEventType[Trace]()

// Subscribe registers fn for every trace the engine flushes. fn runs after
// the operation that produced the trace has released the world, so it may
// read instances through Instance but must not step or mutate the engine.
func (e *Engine) Subscribe(fn func(Trace)) {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	TraceEvent.Subscribe(e.world, func(_ donburi.World, t Trace) {
		fn(t)
	})
}

func (e *Engine) publish(t Trace) {
	t.Tick = e.tick.Load()
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	TraceEvent.Publish(e.world, t)
}

func (e *Engine) flush() {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	TraceEvent.ProcessEvents(e.world)
}
