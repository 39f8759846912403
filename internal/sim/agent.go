package sim

import (
	"github.com/yohamta/donburi"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// Agent is the host.Agent view of one entity.
type Agent struct {
	engine *Engine
	entry  *donburi.Entry
}

var _ host.Agent = (*Agent)(nil)

// Identity returns the instance's identity component.
func (a *Agent) Identity() Identity { return *identityComponent.Get(a.entry) }

// Work returns a copy of the instance's work values.
func (a *Agent) Work() Work { return *workComponent.Get(a.entry) }

// State returns a copy of the instance's status state.
func (a *Agent) State() State {
	s := *stateComponent.Get(a.entry)
	s.Interrupts = append([]int32(nil), s.Interrupts...)
	return s
}

func (a *Agent) ObjectID() uint32        { return identityComponent.Get(a.entry).ObjectID }
func (a *Agent) Category() host.Category { return identityComponent.Get(a.entry).Category }
func (a *Agent) Kind() host.Hash40       { return identityComponent.Get(a.entry).Kind }

// Value implements host.Agent. The motion script value is the hash of the
// playing animation's game command.
func (a *Agent) Value(id host.ValueID) int64 {
	w := workComponent.Get(a.entry)
	switch id {
	case host.ValueEntryID:
		return w.Entry
	case host.ValueColor:
		return w.Color
	case host.ValueOwner:
		return w.Owner
	case host.ValueMotionScript:
		if w.Motion == "" {
			return 0
		}
		return int64(host.Hash("game_" + w.Motion))
	default:
		return 0
	}
}

func (a *Agent) SetCommand(category host.CommandCategory, hash host.Hash40, fn host.CommandHook) {
	overridesComponent.Get(a.entry).commands[commandKey{category, hash}] = fn
}

func (a *Agent) SetStatus(status int32, line host.StatusLine, fn host.StatusHook) {
	overridesComponent.Get(a.entry).statuses[statusKey{status, line}] = fn
}

func (a *Agent) OriginalStatus(status int32, line host.StatusLine) host.StatusHook {
	_, original := a.engine.kindStatus(a.Kind(), statusKey{status, line})
	return original
}

// CallScript runs the kind-level script named hash, ignoring instance
// overrides.
func (a *Agent) CallScript(category host.CommandCategory, hash host.Hash40) {
	fn := a.engine.kindCommand(a.Kind(), category, hash)
	a.engine.publish(Trace{ObjectID: a.ObjectID(), Kind: a.Kind(), Role: RoleScript, Name: hash.String(), Handled: fn != nil})
	if fn != nil {
		fn(a)
	}
}

// InterruptStatus queues status for the next tick.
func (a *Agent) InterruptStatus(status int32) {
	s := stateComponent.Get(a.entry)
	s.Pending = status
	s.HasPending = true
	s.Interrupts = append(s.Interrupts, status)
}
