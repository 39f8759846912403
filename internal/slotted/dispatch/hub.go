package dispatch

import (
	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/naming"
	"github.com/louisbranch/slotted/internal/slotted/observability"
)

// Hub returns the command hub for category. Every slotted command slot of a
// resolved instance points at its category's hub.
func (r *Runtime) Hub(category host.CommandCategory) host.CommandHook {
	if int(category) < 0 || int(category) >= len(r.hubs) {
		return nil
	}
	return r.hubs[category]
}

// hub builds the trampoline for category. On each call it finds the
// instance's variant, maps the playing animation to its base name and runs
// "<category>_<base>" from that variant, if registered.
func (r *Runtime) hub(category host.CommandCategory) host.CommandHook {
	return func(a host.Agent) {
		index, ok := r.variantIndex(a)
		if !ok {
			r.metrics.Dispatched(category, observability.OutcomeNoVariant)
			return
		}
		base, ok := r.names.Lookup(host.Hash40(a.Value(host.ValueMotionScript)))
		if !ok {
			r.metrics.Dispatched(category, observability.OutcomeNoBaseName)
			return
		}
		cmd, ok := r.registry.Command(a.Kind(), index, host.Hash(naming.CommandName(category, base)))
		if !ok {
			r.metrics.Dispatched(category, observability.OutcomeNoCommand)
			return
		}
		r.metrics.Dispatched(category, observability.OutcomeInvoked)
		cmd.Hook(a)
	}
}

// installerScript builds the per-category script that points each of the
// resolved variant's commands in category at the hub, on the calling
// instance only.
func (r *Runtime) installerScript(category host.CommandCategory) host.CommandHook {
	return func(a host.Agent) {
		index, ok := r.variantIndex(a)
		if !ok {
			return
		}
		hub := r.hubs[category]
		for _, name := range r.registry.CommandNames(a.Kind(), index, category) {
			a.SetCommand(category, name, hub)
		}
	}
}

// installCommands asks the engine to run each category's installer script
// on a.
func (r *Runtime) installCommands(a host.Agent) {
	for _, category := range host.CommandCategories {
		if !host.SupportsCategory(a.Category(), category) {
			continue
		}
		a.CallScript(category, host.Hash(r.InstallerName(category)))
	}
}
