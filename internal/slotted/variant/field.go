package variant

import (
	"fmt"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// Field is one value merged into a record by Register. A field whose hook
// is nil carries no value and leaves the record unchanged.
//
// The set of fields is closed: FrameField, StartField, CommandField and
// StatusField.
type Field interface {
	apply(*Record)
	fmt.Stringer
}

// FrameField sets the per-frame hook.
type FrameField struct {
	Hook host.FrameHook
}

func (f FrameField) apply(r *Record) {
	if f.Hook != nil {
		r.Frame = f.Hook
	}
}

func (f FrameField) String() string { return "frame" }

// StartField sets the instance-start hook.
type StartField struct {
	Hook host.StartHook
}

func (f StartField) apply(r *Record) {
	if f.Hook != nil {
		r.Start = f.Hook
	}
}

func (f StartField) String() string { return "start" }

// CommandField adds or replaces a command script keyed by the hash of its
// full name, e.g. Hash("sound_jump").
type CommandField struct {
	Name     host.Hash40
	Category host.CommandCategory
	Hook     host.CommandHook
}

func (f CommandField) apply(r *Record) {
	if f.Hook == nil {
		return
	}
	r.Commands[f.Name] = Command{Category: f.Category, Hook: f.Hook}
}

func (f CommandField) String() string {
	return fmt.Sprintf("%s command %s", f.Category, f.Name)
}

// StatusField adds or replaces a status override.
type StatusField struct {
	Line   host.StatusLine
	Status int32
	Hook   host.StatusHook
}

func (f StatusField) apply(r *Record) {
	if f.Hook == nil {
		return
	}
	r.upsertStatus(StatusOverride{Line: f.Line, Status: f.Status, Hook: f.Hook})
}

func (f StatusField) String() string {
	return fmt.Sprintf("status %d %s", f.Status, f.Line)
}
