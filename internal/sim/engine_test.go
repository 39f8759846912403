package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

func newEngine(t *testing.T) (*Engine, host.Hash40, host.Hash40) {
	t.Helper()
	e := New(Config{Workers: 2})
	fighter := e.DeclareKind(host.CategoryFighter, "mario")
	weapon := e.DeclareKind(host.CategoryWeapon, "mario_fireball")
	return e, fighter, weapon
}

func spawn(t *testing.T, e *Engine, spec SpawnSpec) uint32 {
	t.Helper()
	id, err := e.Spawn(spec)
	if err != nil {
		t.Fatalf("spawn %s: %v", spec.Name, err)
	}
	return id
}

func TestSpawnValidatesKindAndOwner(t *testing.T) {
	e, _, _ := newEngine(t)

	if _, err := e.Spawn(SpawnSpec{Category: host.CategoryFighter, Name: "luigi"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
	if _, err := e.Spawn(SpawnSpec{Category: host.CategoryWeapon, Name: "mario_fireball", Owner: 9}); !errors.Is(err, ErrOwnerRequired) {
		t.Fatalf("err = %v, want ErrOwnerRequired", err)
	}

	owner := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario", Entry: 2, Color: 5})
	weapon := spawn(t, e, SpawnSpec{Category: host.CategoryWeapon, Name: "mario_fireball", Owner: owner})
	if e.Len() != 2 {
		t.Fatalf("len = %d, want 2", e.Len())
	}

	a, ok := e.Instance(weapon)
	if !ok {
		t.Fatal("expected weapon instance")
	}
	if got := a.Value(host.ValueOwner); got != int64(owner) {
		t.Fatalf("owner = %d, want %d", got, owner)
	}
	if a.Kind() != host.Hash("weapon_kind_mario_fireball") {
		t.Fatalf("kind = %s", a.Kind())
	}

	if err := e.Despawn(owner); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	if _, ok := e.Instance(owner); ok {
		t.Fatal("despawned instance still visible")
	}
	if err := e.Despawn(owner); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("err = %v, want ErrUnknownObject", err)
	}
}

func TestValuesAndMotion(t *testing.T) {
	e, _, _ := newEngine(t)
	id := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})

	if err := e.SetValue(id, host.ValueColor, 3); err != nil {
		t.Fatalf("set color: %v", err)
	}
	if err := e.SetValue(id, host.ValueMotionScript, 1); err == nil {
		t.Fatal("expected motion script to be read-only")
	}
	if err := e.Play(id, "jump"); err != nil {
		t.Fatalf("play: %v", err)
	}

	a, _ := e.Instance(id)
	if a.Value(host.ValueColor) != 3 {
		t.Fatalf("color = %d, want 3", a.Value(host.ValueColor))
	}
	if got := host.Hash40(a.Value(host.ValueMotionScript)); got != host.Hash("game_jump") {
		t.Fatalf("motion = %s, want game_jump", got)
	}
	if err := e.Play(404, "jump"); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("err = %v, want ErrUnknownObject", err)
	}
}

func TestTickRunsPrimariesBeforeDependents(t *testing.T) {
	e, fighter, weapon := newEngine(t)
	var mu sync.Mutex
	var order []host.Category
	record := func(a host.Agent) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, a.Category())
	}
	e.InstallFrame(fighter, record)
	e.InstallFrame(weapon, record)

	var owners []uint32
	for i := 0; i < 3; i++ {
		owners = append(owners, spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario", Entry: int64(i)}))
	}
	for _, owner := range owners {
		spawn(t, e, SpawnSpec{Category: host.CategoryWeapon, Name: "mario_fireball", Owner: owner})
	}

	if err := e.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(order) != 6 {
		t.Fatalf("frames = %d, want 6", len(order))
	}
	for i, category := range order {
		want := host.CategoryFighter
		if i >= 3 {
			want = host.CategoryWeapon
		}
		if category != want {
			t.Fatalf("frame %d category = %s, want %s", i, category, want)
		}
	}
	if e.Ticks() != 1 {
		t.Fatalf("ticks = %d, want 1", e.Ticks())
	}
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	e, fighter, _ := newEngine(t)
	var calls atomic.Int32
	e.InstallFrame(fighter, func(host.Agent) { calls.Add(1) })
	spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("calls = %d, want 0", calls.Load())
	}
}

func TestRunCommandPrefersInstanceOverride(t *testing.T) {
	e, fighter, _ := newEngine(t)
	var got []string
	e.InstallCommand(fighter, host.CommandGame, host.Hash("game_jump"), func(host.Agent) { got = append(got, "kind") })
	id := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})
	other := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario", Entry: 1})

	if ran, _ := e.RunCommand(id, host.CommandGame); ran {
		t.Fatal("command ran without an animation")
	}

	_ = e.Play(id, "jump")
	_ = e.Play(other, "jump")
	a, _ := e.Instance(id)
	a.SetCommand(host.CommandGame, host.Hash("game_jump"), func(host.Agent) { got = append(got, "instance") })

	if ran, err := e.RunCommand(id, host.CommandGame); err != nil || !ran {
		t.Fatalf("run = %v, %v", ran, err)
	}
	if ran, err := e.RunCommand(other, host.CommandGame); err != nil || !ran {
		t.Fatalf("run other = %v, %v", ran, err)
	}
	if ran, _ := e.RunCommand(id, host.CommandSound); ran {
		t.Fatal("sound command should not exist")
	}
	if len(got) != 2 || got[0] != "instance" || got[1] != "kind" {
		t.Fatalf("calls = %v, want [instance kind]", got)
	}
}

func TestCallScriptIgnoresInstanceOverride(t *testing.T) {
	e, fighter, _ := newEngine(t)
	name := host.Hash("game_acmd_installer_x")
	var got []string
	e.InstallCommand(fighter, host.CommandGame, name, func(host.Agent) { got = append(got, "kind") })
	id := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})

	a, _ := e.Instance(id)
	a.SetCommand(host.CommandGame, name, func(host.Agent) { got = append(got, "instance") })
	a.CallScript(host.CommandGame, name)
	if len(got) != 1 || got[0] != "kind" {
		t.Fatalf("calls = %v, want [kind]", got)
	}
}

func TestStatusFallbackOrder(t *testing.T) {
	e, fighter, _ := newEngine(t)
	e.SetOriginalStatus(fighter, 2, host.StatusPre, func(host.Agent) int64 { return 1 })
	id := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})

	if got, _ := e.EnterStatus(id, 2); got != 1 {
		t.Fatalf("original = %d, want 1", got)
	}
	e.InstallStatus(fighter, 2, host.StatusPre, func(host.Agent) int64 { return 2 })
	if got, _ := e.EnterStatus(id, 2); got != 2 {
		t.Fatalf("kind level = %d, want 2", got)
	}
	a, _ := e.Agent(id)
	a.SetStatus(2, host.StatusPre, func(host.Agent) int64 { return 3 })
	if got, _ := e.EnterStatus(id, 2); got != 3 {
		t.Fatalf("instance = %d, want 3", got)
	}
	if a.OriginalStatus(2, host.StatusPre)(a) != 1 {
		t.Fatal("original status should stay reachable")
	}
	if a.State().Status != 2 {
		t.Fatalf("status = %d, want 2", a.State().Status)
	}
	if got, _ := e.RunStatus(id, 9, host.StatusMain); got != 0 {
		t.Fatalf("missing status = %d, want 0", got)
	}
}

func TestInterruptLandsOnNextTick(t *testing.T) {
	e, _, _ := newEngine(t)
	id := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})
	a, _ := e.Agent(id)

	_, _ = e.EnterStatus(id, 4)
	a.InterruptStatus(0)
	if a.State().Status != 4 {
		t.Fatalf("status = %d, want 4 before tick", a.State().Status)
	}
	if err := e.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	state := a.State()
	if state.Status != 0 || state.HasPending {
		t.Fatalf("state = %+v, want status 0 with nothing pending", state)
	}
	if len(state.Interrupts) != 1 {
		t.Fatalf("interrupts = %v, want one", state.Interrupts)
	}
}

func TestTracesAreFlushedToSubscribers(t *testing.T) {
	e, fighter, _ := newEngine(t)
	e.InstallStart(fighter, func(host.Agent) {})
	e.InstallFrame(fighter, func(host.Agent) {})
	id := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario"})

	var traces []Trace
	e.Subscribe(func(tr Trace) { traces = append(traces, tr) })

	_ = e.Start(id)
	_ = e.Tick(context.Background())
	_ = e.Play(id, "jump")
	_, _ = e.RunCommand(id, host.CommandGame)

	if len(traces) != 3 {
		t.Fatalf("traces = %+v, want 3", traces)
	}
	if traces[0].Role != RoleStart || !traces[0].Handled || traces[0].Tick != 0 {
		t.Fatalf("start trace = %+v", traces[0])
	}
	if traces[1].Role != RoleFrame || traces[1].Tick != 1 {
		t.Fatalf("frame trace = %+v", traces[1])
	}
	if traces[2].Role != RoleCommand || traces[2].Name != "game_jump" || traces[2].Handled {
		t.Fatalf("command trace = %+v", traces[2])
	}
}

func TestDependentFramesReadOwnersConcurrently(t *testing.T) {
	e := New(Config{Workers: 8})
	fighter := e.DeclareKind(host.CategoryFighter, "mario")
	weapon := e.DeclareKind(host.CategoryWeapon, "mario_fireball")

	var frames atomic.Int32
	e.InstallFrame(fighter, func(host.Agent) { frames.Add(1) })
	e.InstallFrame(weapon, func(a host.Agent) {
		owner, ok := e.Instance(uint32(a.Value(host.ValueOwner)))
		if !ok {
			t.Errorf("owner of %d not found", a.ObjectID())
			return
		}
		_ = owner.Value(host.ValueColor)
		frames.Add(1)
	})

	for i := 0; i < 8; i++ {
		owner := spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario", Entry: int64(i), Color: int64(i)})
		for j := 0; j < 3; j++ {
			spawn(t, e, SpawnSpec{Category: host.CategoryWeapon, Name: "mario_fireball", Owner: owner})
		}
	}

	for i := 0; i < 20; i++ {
		if err := e.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if got := frames.Load(); got != 32*20 {
		t.Fatalf("frames = %d, want %d", got, 32*20)
	}
}

func TestDespawnKeepsOtherInstancesReadable(t *testing.T) {
	e, _, _ := newEngine(t)
	var ids []uint32
	for i := 0; i < 4; i++ {
		ids = append(ids, spawn(t, e, SpawnSpec{Category: host.CategoryFighter, Name: "mario", Entry: int64(i), Color: int64(10 + i)}))
	}
	if err := e.Despawn(ids[0]); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	for i, id := range ids[1:] {
		a, ok := e.Instance(id)
		if !ok {
			t.Fatalf("instance %d missing", id)
		}
		if got, want := a.Value(host.ValueColor), int64(11+i); got != want {
			t.Fatalf("color of %d = %d, want %d", id, got, want)
		}
	}
}
