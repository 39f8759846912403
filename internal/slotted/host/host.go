// Package host defines the boundary between slotted variant dispatch and the
// engine that owns live instances.
//
// The engine installs hooks, answers per-instance value queries, and resolves
// owner references. None of that is implemented here: the dispatch runtime
// consumes these interfaces, and internal/sim provides a headless
// implementation for scenarios and tests.
package host

// Category is the battle-object category of an entity kind.
type Category int

const (
	// CategoryFighter is a primary instance that resolves its own variant.
	CategoryFighter Category = iota
	// CategoryWeapon is a dependent instance that follows its owner's variant.
	CategoryWeapon
)

// String returns the kind-name namespace for the category.
func (c Category) String() string {
	switch c {
	case CategoryFighter:
		return "fighter"
	case CategoryWeapon:
		return "weapon"
	default:
		return "unknown"
	}
}

// ValueID selects a per-instance work value the engine can report.
type ValueID int

const (
	// ValueEntryID is the slot index of a primary instance.
	ValueEntryID ValueID = iota
	// ValueColor is the variant-selecting value (active palette).
	ValueColor
	// ValueOwner is the object id that owns a dependent instance.
	ValueOwner
	// ValueMotionScript is the game-command hash of the playing animation.
	ValueMotionScript
)

// Agent is one live instance as seen from inside an engine callback.
//
// The engine serializes callbacks for a single agent, but may run callbacks
// for distinct agents concurrently.
type Agent interface {
	ObjectID() uint32
	Category() Category
	// Kind is the hashed kind name, e.g. Hash("fighter_kind_mario").
	Kind() Hash40
	// Value reads a work value; unknown ids report zero.
	Value(id ValueID) int64

	// SetCommand points the instance's command slot named hash at fn.
	SetCommand(category CommandCategory, hash Hash40, fn CommandHook)
	// SetStatus replaces the instance's status function on one line.
	SetStatus(status int32, line StatusLine, fn StatusHook)
	// OriginalStatus returns the function that was installed for the status
	// line before any hook framework replaced it.
	OriginalStatus(status int32, line StatusLine) StatusHook
	// CallScript runs the kind-level command script named hash immediately.
	CallScript(category CommandCategory, hash Hash40)
	// InterruptStatus forces a status change on the next engine update.
	InterruptStatus(status int32)
}

// Engine resolves instances and kind names.
type Engine interface {
	// Instance returns the live instance for an object id.
	Instance(objectID uint32) (Agent, bool)
	// KindExists reports whether name is a kind the engine knows in category.
	KindExists(category Category, name string) bool
}

// Installer attaches hooks to named engine callback slots for a kind.
//
// Installation is kind-level and idempotent per slot: installing the same
// slot twice replaces the previous hook.
type Installer interface {
	InstallStart(kind Hash40, fn StartHook)
	InstallFrame(kind Hash40, fn FrameHook)
	InstallCommand(kind Hash40, category CommandCategory, name Hash40, fn CommandHook)
	InstallStatus(kind Hash40, status int32, line StatusLine, fn StatusHook)
}

// KindName returns the namespaced kind name for category, e.g.
// "fighter_kind_mario".
func KindName(category Category, name string) string {
	return category.String() + "_kind_" + name
}
