package sim

import (
	"github.com/yohamta/donburi"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// Identity names one live instance.
type Identity struct {
	ObjectID uint32
	Category host.Category
	Kind     host.Hash40
	Name     string
}

// Work holds the engine-reported work values of an instance.
type Work struct {
	Entry  int64
	Color  int64
	Owner  int64
	Motion string
}

// State tracks the instance's status machine.
type State struct {
	Status     int32
	Pending    int32
	HasPending bool
	Interrupts []int32
}

type commandKey struct {
	category host.CommandCategory
	name     host.Hash40
}

type statusKey struct {
	status int32
	line   host.StatusLine
}

// Overrides holds hooks installed on one instance, shadowing the kind-level
// scripts.
type Overrides struct {
	commands map[commandKey]host.CommandHook
	statuses map[statusKey]host.StatusHook
}

var (
	identityComponent  = donburi.NewComponentType[Identity]()
	workComponent      = donburi.NewComponentType[Work]()
	stateComponent     = donburi.NewComponentType[State]()
	overridesComponent = donburi.NewComponentType[Overrides]()
)
