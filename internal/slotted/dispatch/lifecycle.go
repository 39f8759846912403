package dispatch

import "github.com/louisbranch/slotted/internal/slotted/host"

// OnStart is the start hook installed on primary kinds.
//
// It re-arms every slot, since entry ids are reused across instances, runs
// the one-time migration, then calls every start hook registered for the
// kind in registration order. The variant is not known yet, so start hooks
// are not gated by it.
func (r *Runtime) OnStart(a host.Agent) {
	r.cache.Reset()
	r.Init()
	r.runStartHooks(a)
}

// OnDependentStart is the start hook installed on dependent kinds. Slots
// belong to primaries and are left alone.
func (r *Runtime) OnDependentStart(a host.Agent) {
	r.Init()
	r.runStartHooks(a)
}

func (r *Runtime) runStartHooks(a host.Agent) {
	for _, hook := range r.registry.StartHooks(a.Kind()) {
		hook(a)
	}
}
