package dispatch

import (
	"bytes"
	"io"
	"log"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/observability"
)

type commandKey struct {
	category host.CommandCategory
	name     host.Hash40
}

type statusKey struct {
	status int32
	line   host.StatusLine
}

type fakeInstaller struct {
	mu       sync.Mutex
	starts   map[host.Hash40]host.StartHook
	frames   map[host.Hash40]host.FrameHook
	commands map[host.Hash40]map[commandKey]host.CommandHook
	statuses map[host.Hash40]map[statusKey]host.StatusHook
}

func newFakeInstaller() *fakeInstaller {
	return &fakeInstaller{
		starts:   make(map[host.Hash40]host.StartHook),
		frames:   make(map[host.Hash40]host.FrameHook),
		commands: make(map[host.Hash40]map[commandKey]host.CommandHook),
		statuses: make(map[host.Hash40]map[statusKey]host.StatusHook),
	}
}

func (i *fakeInstaller) InstallStart(kind host.Hash40, fn host.StartHook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.starts[kind] = fn
}

func (i *fakeInstaller) InstallFrame(kind host.Hash40, fn host.FrameHook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.frames[kind] = fn
}

func (i *fakeInstaller) InstallCommand(kind host.Hash40, category host.CommandCategory, name host.Hash40, fn host.CommandHook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.commands[kind] == nil {
		i.commands[kind] = make(map[commandKey]host.CommandHook)
	}
	i.commands[kind][commandKey{category, name}] = fn
}

func (i *fakeInstaller) InstallStatus(kind host.Hash40, status int32, line host.StatusLine, fn host.StatusHook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.statuses[kind] == nil {
		i.statuses[kind] = make(map[statusKey]host.StatusHook)
	}
	i.statuses[kind][statusKey{status, line}] = fn
}

func (i *fakeInstaller) command(kind host.Hash40, category host.CommandCategory, name host.Hash40) host.CommandHook {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.commands[kind][commandKey{category, name}]
}

type fakeEngine struct {
	mu        sync.Mutex
	agents    map[uint32]*fakeAgent
	installer *fakeInstaller
}

func (e *fakeEngine) Instance(id uint32) (host.Agent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.agents[id]
	if !ok {
		return nil, false
	}
	return a, true
}

func (e *fakeEngine) KindExists(host.Category, string) bool { return true }

type fakeAgent struct {
	engine     *fakeEngine
	id         uint32
	category   host.Category
	kind       host.Hash40
	values     map[host.ValueID]int64
	commands   map[commandKey]host.CommandHook
	statuses   map[statusKey]host.StatusHook
	original   map[statusKey]host.StatusHook
	interrupts []int32
}

func (a *fakeAgent) ObjectID() uint32 { return a.id }
func (a *fakeAgent) Category() host.Category { return a.category }
func (a *fakeAgent) Kind() host.Hash40 { return a.kind }
func (a *fakeAgent) Value(id host.ValueID) int64 { return a.values[id] }
func (a *fakeAgent) InterruptStatus(status int32) { a.interrupts = append(a.interrupts, status) }
func (a *fakeAgent) set(id host.ValueID, v int64) { a.values[id] = v }
func (a *fakeAgent) play(name string) { a.values[host.ValueMotionScript] = int64(host.Hash(name)) }
func (a *fakeAgent) status(s int32, l host.StatusLine) host.StatusHook { return a.statuses[statusKey{s, l}] }

func (a *fakeAgent) SetCommand(category host.CommandCategory, hash host.Hash40, fn host.CommandHook) {
	a.commands[commandKey{category, hash}] = fn
}

func (a *fakeAgent) SetStatus(status int32, line host.StatusLine, fn host.StatusHook) {
	a.statuses[statusKey{status, line}] = fn
}

func (a *fakeAgent) OriginalStatus(status int32, line host.StatusLine) host.StatusHook {
	return a.original[statusKey{status, line}]
}

func (a *fakeAgent) CallScript(category host.CommandCategory, hash host.Hash40) {
	if fn := a.engine.installer.command(a.kind, category, hash); fn != nil {
		fn(a)
	}
}

// run invokes the command the engine would run for name in category: the
// instance override first, then the kind-level script.
func (a *fakeAgent) run(category host.CommandCategory, name string) bool {
	hash := host.Hash(name)
	if fn := a.commands[commandKey{category, hash}]; fn != nil {
		fn(a)
		return true
	}
	if fn := a.engine.installer.command(a.kind, category, hash); fn != nil {
		fn(a)
		return true
	}
	return false
}

func (e *fakeEngine) spawn(id uint32, category host.Category, kind host.Hash40) *fakeAgent {
	a := &fakeAgent{
		engine:   e,
		id:       id,
		category: category,
		kind:     kind,
		values:   make(map[host.ValueID]int64),
		commands: make(map[commandKey]host.CommandHook),
		statuses: make(map[statusKey]host.StatusHook),
		original: make(map[statusKey]host.StatusHook),
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agents[id] = a
	return a
}

func (e *fakeEngine) start(a *fakeAgent) {
	if fn := e.installer.starts[a.kind]; fn != nil {
		fn(a)
	}
}

func (e *fakeEngine) frame(a *fakeAgent) {
	if fn := e.installer.frames[a.kind]; fn != nil {
		fn(a)
	}
}

// enterStatus runs the pre line: instance override first, then kind level,
// then the original.
func (e *fakeEngine) enterStatus(a *fakeAgent, status int32) int64 {
	key := statusKey{status, host.StatusPre}
	if fn := a.statuses[key]; fn != nil {
		return fn(a)
	}
	if fn := e.installer.statuses[a.kind][key]; fn != nil {
		return fn(a)
	}
	if fn := a.original[key]; fn != nil {
		return fn(a)
	}
	return 0
}

func newTestRuntime(t *testing.T) (*Runtime, *fakeEngine) {
	t.Helper()
	installer := newFakeInstaller()
	engine := &fakeEngine{agents: make(map[uint32]*fakeAgent), installer: installer}
	rt, err := New(Config{Slots: 8, SuffixLength: 8}, Deps{
		Engine:    engine,
		Installer: installer,
		Entropy:   bytes.NewReader(bytes.Repeat([]byte{0x5a}, 32)),
		Logger:    log.New(io.Discard, "", 0),
		Metrics:   observability.New(noop.NewMeterProvider().Meter("test"), nil),
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt, engine
}
