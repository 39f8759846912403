package dispatch

import (
	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/variant"
)

// InstallStatuses installs overrides on a in order and reports whether the
// caller should keep chaining to the original pre status. Only an explicit
// status-0 Pre override suppresses it.
func (r *Runtime) InstallStatuses(a host.Agent, overrides []variant.StatusOverride) bool {
	for _, s := range overrides {
		if s.Hook == nil {
			continue
		}
		a.SetStatus(s.Status, s.Line, s.Hook)
	}
	return variant.RestoresOriginal(overrides)
}

// installDependent installs the owner-resolved variant's commands and status
// overrides on a dependent instance.
func (r *Runtime) installDependent(a host.Agent) bool {
	r.installCommands(a)
	index, ok := r.variantIndex(a)
	if !ok {
		return true
	}
	return r.InstallStatuses(a, r.registry.Statuses(a.Kind(), index))
}

// WeaponPre is the status-0 Pre hook installed on dependent kinds. It
// installs the dependent's variant, puts the original pre status back unless
// the variant overrides it, and runs the original once.
func (r *Runtime) WeaponPre(a host.Agent) int64 {
	original := a.OriginalStatus(0, host.StatusPre)
	if r.installDependent(a) && original != nil {
		a.SetStatus(0, host.StatusPre, original)
	}
	if original == nil {
		return 0
	}
	return original(a)
}

// ClonedWeaponPre is the pre hook for dependents cloned from another kind:
// it installs the variant and interrupts into status 0 instead of chaining.
func (r *Runtime) ClonedWeaponPre(a host.Agent) int64 {
	r.installDependent(a)
	a.InterruptStatus(0)
	return 1
}
