package sim

import (
	"context"
	"fmt"
	"slices"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// SetValue writes a work value. The motion script is set with Play.
func (e *Engine) SetValue(objectID uint32, id host.ValueID, value int64) error {
	a, err := e.mustAgent(objectID)
	if err != nil {
		return err
	}
	w := workComponent.Get(a.entry)
	switch id {
	case host.ValueEntryID:
		w.Entry = value
	case host.ValueColor:
		w.Color = value
	case host.ValueOwner:
		w.Owner = value
	default:
		return fmt.Errorf("value %d is not writable", id)
	}
	return nil
}

// Play sets the animation the instance is playing, by base name.
func (e *Engine) Play(objectID uint32, motion string) error {
	a, err := e.mustAgent(objectID)
	if err != nil {
		return err
	}
	workComponent.Get(a.entry).Motion = motion
	return nil
}

// Start fires the kind's start hook for one instance.
func (e *Engine) Start(objectID uint32) error {
	a, err := e.mustAgent(objectID)
	if err != nil {
		return err
	}
	defer e.flush()
	start := e.hooks(a.Kind()).start
	e.publish(Trace{ObjectID: objectID, Kind: a.Kind(), Role: RoleStart, Handled: start != nil})
	if start != nil {
		start(a)
	}
	return nil
}

// Tick advances the world one frame. Pending interrupts land first, then
// primaries run their frame hooks, then dependents, each phase fanned out
// across the worker pool.
func (e *Engine) Tick(ctx context.Context) error {
	e.tick.Add(1)
	defer e.flush()

	primaries, dependents := e.partition()
	for _, a := range primaries {
		a.applyPending()
	}
	for _, a := range dependents {
		a.applyPending()
	}
	if err := e.frames(ctx, primaries); err != nil {
		return err
	}
	return e.frames(ctx, dependents)
}

func (e *Engine) partition() (primaries, dependents []*Agent) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	donburi.NewQuery(filter.Contains(identityComponent)).Each(e.world, func(entry *donburi.Entry) {
		a := &Agent{engine: e, entry: entry}
		if a.Category() == host.CategoryWeapon {
			dependents = append(dependents, a)
			return
		}
		primaries = append(primaries, a)
	})
	byID := func(x, y *Agent) int { return int(x.ObjectID()) - int(y.ObjectID()) }
	slices.SortFunc(primaries, byID)
	slices.SortFunc(dependents, byID)
	return primaries, dependents
}

func (e *Engine) frames(ctx context.Context, agents []*Agent) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, a := range agents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frame := e.hooks(a.Kind()).frame
			e.publish(Trace{ObjectID: a.ObjectID(), Kind: a.Kind(), Role: RoleFrame, Handled: frame != nil})
			if frame != nil {
				frame(a)
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *Agent) applyPending() {
	s := stateComponent.Get(a.entry)
	if !s.HasPending {
		return
	}
	s.Status = s.Pending
	s.HasPending = false
}

// RunCommand runs the category script for the instance's current animation:
// the instance override first, then the kind-level script. It reports whether
// a script ran.
func (e *Engine) RunCommand(objectID uint32, category host.CommandCategory) (bool, error) {
	a, err := e.mustAgent(objectID)
	if err != nil {
		return false, err
	}
	defer e.flush()
	motion := workComponent.Get(a.entry).Motion
	if motion == "" {
		return false, nil
	}
	name := category.Prefix() + "_" + motion
	hash := host.Hash(name)

	fn := overridesComponent.Get(a.entry).commands[commandKey{category, hash}]
	if fn == nil {
		fn = e.kindCommand(a.Kind(), category, hash)
	}
	e.publish(Trace{ObjectID: objectID, Kind: a.Kind(), Role: RoleCommand, Name: name, Handled: fn != nil})
	if fn == nil {
		return false, nil
	}
	fn(a)
	return true, nil
}

// RunStatus runs one status line: the instance override first, then the
// kind-level hook, then the engine's original.
func (e *Engine) RunStatus(objectID uint32, status int32, line host.StatusLine) (int64, error) {
	a, err := e.mustAgent(objectID)
	if err != nil {
		return 0, err
	}
	defer e.flush()
	key := statusKey{status, line}
	fn := overridesComponent.Get(a.entry).statuses[key]
	if fn == nil {
		installed, original := e.kindStatus(a.Kind(), key)
		fn = installed
		if fn == nil {
			fn = original
		}
	}
	e.publish(Trace{ObjectID: objectID, Kind: a.Kind(), Role: RoleStatus, Name: fmt.Sprintf("%d/%s", status, line), Handled: fn != nil})
	if fn == nil {
		return 0, nil
	}
	return fn(a), nil
}

// EnterStatus moves the instance into status and runs its pre line.
func (e *Engine) EnterStatus(objectID uint32, status int32) (int64, error) {
	a, err := e.mustAgent(objectID)
	if err != nil {
		return 0, err
	}
	stateComponent.Get(a.entry).Status = status
	return e.RunStatus(objectID, status, host.StatusPre)
}
