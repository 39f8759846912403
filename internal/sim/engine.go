// Package sim is a headless engine for slotted scenarios.
//
// Instances live in a donburi world. The engine implements host.Engine and
// host.Installer for the dispatch runtime, and hands host.Agent views of its
// entities to installed hooks. Frame ticks fan out across a worker pool; every
// other operation runs on the caller's goroutine.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yohamta/donburi"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

var (
	// ErrUnknownKind indicates a spawn of a kind the catalog does not hold.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrUnknownObject indicates an object id with no live instance.
	ErrUnknownObject = errors.New("unknown object")
	// ErrOwnerRequired indicates a dependent spawned without a live owner.
	ErrOwnerRequired = errors.New("dependent instance requires a live owner")
)

// DefaultWorkers bounds concurrent frame callbacks when Config leaves it
// unset.
const DefaultWorkers = 4

// Config tunes an Engine.
type Config struct {
	// Workers bounds concurrent frame callbacks per tick.
	Workers int
}

type kindHooks struct {
	start    host.StartHook
	frame    host.FrameHook
	commands map[commandKey]host.CommandHook
	statuses map[statusKey]host.StatusHook
	// originals are the engine's own status functions, reported by
	// Agent.OriginalStatus.
	originals map[statusKey]host.StatusHook
}

// Engine owns the world, the kind catalog and the kind-level hook table.
//
// Exported operations must not be called concurrently with each other. Hooks
// running inside Tick may call back into agents and Instance.
type Engine struct {
	world   donburi.World
	workers int

	mu      sync.RWMutex
	catalog map[host.Category]map[string]bool
	kinds   map[host.Hash40]*kindHooks
	// objects holds each live instance's entry, built once at spawn.
	// world.Entry rewrites a shared cache, so frame workers must never call
	// it.
	objects map[uint32]*donburi.Entry
	nextID  uint32

	eventsMu sync.Mutex
	tick     atomic.Int64
}

// New builds an empty engine.
func New(cfg Config) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Engine{
		world:   donburi.NewWorld(),
		workers: workers,
		catalog: make(map[host.Category]map[string]bool),
		kinds:   make(map[host.Hash40]*kindHooks),
		objects: make(map[uint32]*donburi.Entry),
		nextID:  1,
	}
}

// DeclareKind adds name to the catalog and returns its kind id.
func (e *Engine) DeclareKind(category host.Category, name string) host.Hash40 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.catalog[category] == nil {
		e.catalog[category] = make(map[string]bool)
	}
	e.catalog[category][name] = true
	kind := host.Hash(host.KindName(category, name))
	e.hooksLocked(kind)
	return kind
}

// KindExists reports whether name was declared in category.
func (e *Engine) KindExists(category host.Category, name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog[category][name]
}

// SetOriginalStatus installs the engine's own status function for kind.
// Agents report it through OriginalStatus and it runs when nothing replaces
// it.
func (e *Engine) SetOriginalStatus(kind host.Hash40, status int32, line host.StatusLine, fn host.StatusHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooksLocked(kind).originals[statusKey{status, line}] = fn
}

// InstallStart implements host.Installer.
func (e *Engine) InstallStart(kind host.Hash40, fn host.StartHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooksLocked(kind).start = fn
}

// InstallFrame implements host.Installer.
func (e *Engine) InstallFrame(kind host.Hash40, fn host.FrameHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooksLocked(kind).frame = fn
}

// InstallCommand implements host.Installer.
func (e *Engine) InstallCommand(kind host.Hash40, category host.CommandCategory, name host.Hash40, fn host.CommandHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooksLocked(kind).commands[commandKey{category, name}] = fn
}

// InstallStatus implements host.Installer.
func (e *Engine) InstallStatus(kind host.Hash40, status int32, line host.StatusLine, fn host.StatusHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooksLocked(kind).statuses[statusKey{status, line}] = fn
}

func (e *Engine) hooksLocked(kind host.Hash40) *kindHooks {
	h, ok := e.kinds[kind]
	if !ok {
		h = &kindHooks{
			commands:  make(map[commandKey]host.CommandHook),
			statuses:  make(map[statusKey]host.StatusHook),
			originals: make(map[statusKey]host.StatusHook),
		}
		e.kinds[kind] = h
	}
	return h
}

func (e *Engine) hooks(kind host.Hash40) kindHooks {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if h, ok := e.kinds[kind]; ok {
		return *h
	}
	return kindHooks{}
}

func (e *Engine) kindCommand(kind host.Hash40, category host.CommandCategory, name host.Hash40) host.CommandHook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if h, ok := e.kinds[kind]; ok {
		return h.commands[commandKey{category, name}]
	}
	return nil
}

func (e *Engine) kindStatus(kind host.Hash40, key statusKey) (host.StatusHook, host.StatusHook) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if h, ok := e.kinds[kind]; ok {
		return h.statuses[key], h.originals[key]
	}
	return nil, nil
}

// SpawnSpec describes a new instance.
type SpawnSpec struct {
	Category host.Category
	Name     string
	Entry    int64
	Color    int64
	// Owner is the object id of a dependent's owner.
	Owner uint32
}

// Spawn creates an instance and returns its object id. Start is not run.
func (e *Engine) Spawn(s SpawnSpec) (uint32, error) {
	if !e.KindExists(s.Category, s.Name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, host.KindName(s.Category, s.Name))
	}
	if s.Category == host.CategoryWeapon {
		if _, ok := e.Instance(s.Owner); !ok {
			return 0, fmt.Errorf("%w: owner %d", ErrOwnerRequired, s.Owner)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++

	entity := e.world.Create(identityComponent, workComponent, stateComponent, overridesComponent)
	entry := e.world.Entry(entity)
	identityComponent.SetValue(entry, Identity{
		ObjectID: id,
		Category: s.Category,
		Kind:     host.Hash(host.KindName(s.Category, s.Name)),
		Name:     s.Name,
	})
	workComponent.SetValue(entry, Work{Entry: s.Entry, Color: s.Color, Owner: int64(s.Owner)})
	overridesComponent.SetValue(entry, Overrides{
		commands: make(map[commandKey]host.CommandHook),
		statuses: make(map[statusKey]host.StatusHook),
	})
	e.objects[id] = entry
	return id, nil
}

// Despawn removes an instance.
func (e *Engine) Despawn(objectID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.objects[objectID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, objectID)
	}
	delete(e.objects, objectID)
	e.world.Remove(entry.Entity())
	// Removal can move other entities within their archetype storage.
	for id, live := range e.objects {
		e.objects[id] = e.world.Entry(live.Entity())
	}
	return nil
}

// Instance implements host.Engine.
func (e *Engine) Instance(objectID uint32) (host.Agent, bool) {
	a, ok := e.agent(objectID)
	if !ok {
		return nil, false
	}
	return a, true
}

func (e *Engine) agent(objectID uint32) (*Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.objects[objectID]
	if !ok {
		return nil, false
	}
	return &Agent{engine: e, entry: entry}, true
}

func (e *Engine) mustAgent(objectID uint32) (*Agent, error) {
	a, ok := e.agent(objectID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownObject, objectID)
	}
	return a, nil
}

// Agent returns the agent view of objectID.
func (e *Engine) Agent(objectID uint32) (*Agent, error) {
	return e.mustAgent(objectID)
}

// Len reports the number of live instances.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.objects)
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() int64 { return e.tick.Load() }
