package dispatch

import "github.com/louisbranch/slotted/internal/slotted/host"

// primaryOf returns the instance whose slot decides a's variant: a itself
// for primaries, the owner for dependents.
func (r *Runtime) primaryOf(a host.Agent) (host.Agent, bool) {
	if a == nil {
		return nil, false
	}
	if a.Category() != host.CategoryWeapon {
		return a, true
	}
	owner, ok := r.engine.Instance(uint32(a.Value(host.ValueOwner)))
	if !ok || owner == nil {
		return nil, false
	}
	return owner, true
}

// variantIndex reads a's resolved variant index from the slot cache. For a
// dependent it reads the owner's slot on every call, so an owner that
// resolves later is picked up on the next dispatch.
func (r *Runtime) variantIndex(a host.Agent) (int, bool) {
	primary, ok := r.primaryOf(a)
	if !ok {
		return 0, false
	}
	return r.cache.Index(int(primary.Value(host.ValueEntryID)))
}

// VariantIndex exposes the resolved variant index for a, following the owner
// link for dependents.
func (r *Runtime) VariantIndex(a host.Agent) (int, bool) {
	return r.variantIndex(a)
}
