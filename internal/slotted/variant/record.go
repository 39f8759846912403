package variant

import (
	"maps"
	"slices"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// Command is a registered command script and the stream it belongs to.
type Command struct {
	Category host.CommandCategory
	Hook     host.CommandHook
}

// StatusOverride replaces one status line while the variant is active.
type StatusOverride struct {
	Line   host.StatusLine
	Status int32
	Hook   host.StatusHook
}

// Record is one behavioral slot of an entity kind.
//
// Records returned by Registry accessors are copies; mutating them does not
// affect the registry.
type Record struct {
	Colors ColorSet
	// LegacyMask is set only until Migrate converts it into Colors.
	LegacyMask *[LegacyMaskSize]bool
	Frame      host.FrameHook
	Start      host.StartHook
	Commands   map[host.Hash40]Command
	Statuses   []StatusOverride
}

func newRecord(colors ColorSet, mask *[LegacyMaskSize]bool) *Record {
	return &Record{
		Colors:     colors.Clone(),
		LegacyMask: mask,
		Commands:   make(map[host.Hash40]Command),
	}
}

func (r *Record) clone() Record {
	return Record{
		Colors:     r.Colors.Clone(),
		LegacyMask: r.LegacyMask,
		Frame:      r.Frame,
		Start:      r.Start,
		Commands:   maps.Clone(r.Commands),
		Statuses:   slices.Clone(r.Statuses),
	}
}

// upsertStatus replaces the override occupying the same line and status kind,
// or appends a new one.
func (r *Record) upsertStatus(override StatusOverride) {
	for i, existing := range r.Statuses {
		if existing.Line == override.Line && existing.Status == override.Status {
			r.Statuses[i] = override
			return
		}
	}
	r.Statuses = append(r.Statuses, override)
}

// absorb merges src into r; fields set on src win.
func (r *Record) absorb(src *Record) {
	if src.Frame != nil {
		r.Frame = src.Frame
	}
	if src.Start != nil {
		r.Start = src.Start
	}
	for hash, cmd := range src.Commands {
		r.Commands[hash] = cmd
	}
	for _, override := range src.Statuses {
		r.upsertStatus(override)
	}
}

// RestoresOriginal reports whether the default pre status should still run
// after overrides are installed: only an explicit status-0 Pre override
// suppresses it.
func RestoresOriginal(statuses []StatusOverride) bool {
	for _, s := range statuses {
		if s.Status == 0 && s.Line == host.StatusPre {
			return false
		}
	}
	return true
}
