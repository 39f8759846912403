package dispatch

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/instance"
)

// OnFrame is the frame hook installed on primary kinds.
//
// The first frame after a start resolves the instance's variant; every frame
// then runs the cached frame hook, if the variant has one.
func (r *Runtime) OnFrame(a host.Agent) {
	entry := int(a.Value(host.ValueEntryID))
	if !r.cache.InRange(entry) {
		return
	}
	res, ok := r.cache.Load(entry)
	if !ok {
		res = r.resolve(a, entry)
	}
	if res.Frame != nil {
		res.Frame(a)
	}
}

// resolve runs the one resolution attempt for entry. The slot is marked
// initialized whether or not a variant matched.
func (r *Runtime) resolve(a host.Agent, entry int) instance.Resolution {
	r.Init()
	kind := a.Kind()
	color := int(a.Value(host.ValueColor))

	_, span := r.metrics.Start(context.Background(), "slotted.resolve",
		attribute.String("kind", kind.String()),
		attribute.Int("entry", entry),
		attribute.Int("color", color),
	)
	defer span.End()

	index, matched := r.registry.Resolve(kind, color)
	res := instance.Resolution{Matched: matched, Index: index}
	r.metrics.Resolved(kind, matched)
	if !matched {
		r.cache.Store(entry, res)
		return res
	}

	// Installer scripts read the slot, so publish the index before running them.
	r.cache.Store(entry, res)
	r.installCommands(a)
	r.InstallStatuses(a, r.registry.Statuses(kind, index))
	res.Frame = r.registry.Frame(kind, index)
	r.cache.Store(entry, res)
	span.SetAttributes(attribute.Int("variant", index))
	return res
}

// OnDependentFrame is the frame hook installed on dependent kinds. It runs
// the frame hook of the record at the owner's resolved index in the
// dependent kind's own list.
func (r *Runtime) OnDependentFrame(a host.Agent) {
	index, ok := r.variantIndex(a)
	if !ok {
		return
	}
	if frame := r.registry.Frame(a.Kind(), index); frame != nil {
		frame(a)
	}
}
