// Package scenario loads Lua scenario scripts that register slotted variants
// and drive a simulated match through the dispatch runtime.
//
// A script declares the kinds the simulated engine knows, builds variants with
// Fighter and Weapon, records match steps on a Match and returns it. Variant
// hooks are Lua functions; they observe dispatch by calling mark(label).
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/louisbranch/slotted/internal/sim"
	"github.com/louisbranch/slotted/internal/slotted/agent"
	"github.com/louisbranch/slotted/internal/slotted/dispatch"
	"github.com/louisbranch/slotted/internal/slotted/host"
)

var (
	// ErrMatchRequired indicates a script that did not return a Match.
	ErrMatchRequired = errors.New("scenario script must return Match")
	// ErrExpectation indicates a failed expect step.
	ErrExpectation = errors.New("scenario expectation failed")
)

// AssertionMode controls how expect steps report mismatches.
type AssertionMode int

const (
	// AssertionStrict fails the run on the first mismatch.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs mismatches and keeps going.
	AssertionLogOnly
)

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// Timeout bounds each step.
	Timeout time.Duration
}

// Scenario is a loaded script: its recorded steps plus the registration
// diagnostics collected while loading.
type Scenario struct {
	Name        string
	Steps       []Step
	Diagnostics []error

	handles int
}

// Step is one recorded match action.
type Step struct {
	Kind string
	Args map[string]any
}

// Mark is one call to mark(label) from inside a hook.
type Mark struct {
	Tick     int64
	ObjectID uint32
	Label    string
}

// Session owns one Lua state bound to a runtime and a simulated engine.
//
// Hooks may fire from concurrent frame workers; the Lua state is not
// reentrant, so every call into it holds mu.
type Session struct {
	rt      *dispatch.Runtime
	engine  *sim.Engine
	logger  *log.Logger
	verbose bool
	strict  bool
	timeout time.Duration

	mu       sync.Mutex
	state    *lua.State
	current  host.Agent
	nextHook int
	builders []*agent.Builder
	hookErrs []error

	marksMu sync.Mutex
	marks   []Mark
}

// NewSession opens a Lua state with the scenario bindings installed.
func NewSession(cfg Config, rt *dispatch.Runtime, engine *sim.Engine) (*Session, error) {
	if rt == nil {
		return nil, dispatch.ErrRuntimeRequired
	}
	if engine == nil {
		return nil, dispatch.ErrEngineRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	s := &Session{
		rt:      rt,
		engine:  engine,
		logger:  logger,
		verbose: cfg.Verbose,
		strict:  cfg.Assertions == AssertionStrict,
		timeout: timeout,
		state:   lua.NewState(),
	}
	lua.OpenLibraries(s.state)
	s.registerTypes()
	return s, nil
}

// LoadFile runs the script at path and returns its scenario.
func (s *Session) LoadFile(ctx context.Context, path string) (*Scenario, error) {
	s.mu.Lock()
	err := lua.LoadFile(s.state, path, "")
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	sc, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadString runs source as a script named name.
func (s *Session) LoadString(ctx context.Context, name, source string) (*Scenario, error) {
	s.mu.Lock()
	err := lua.LoadBuffer(s.state, source, name, "")
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	sc, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = name
	}
	return sc, nil
}

// run executes the loaded chunk and installs every builder the script left
// uninstalled.
func (s *Session) run(ctx context.Context) (*Scenario, error) {
	s.mu.Lock()
	sc, err := s.callChunk()
	builders := s.builders
	s.builders = nil
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, b := range builders {
		if err := b.Install(ctx); err != nil && !errors.Is(err, agent.ErrAlreadyInstalled) {
			sc.Diagnostics = append(sc.Diagnostics, err)
		}
	}
	return sc, nil
}

func (s *Session) callChunk() (*Scenario, error) {
	if err := s.state.ProtectedCall(0, 1, 0); err != nil {
		s.state.Pop(1)
		return nil, fmt.Errorf("run lua: %w", err)
	}
	defer s.state.Pop(1)
	if s.state.TypeOf(-1) != lua.TypeUserData {
		return nil, ErrMatchRequired
	}
	sc, ok := s.state.ToUserData(-1).(*Scenario)
	if !ok || sc == nil {
		return nil, ErrMatchRequired
	}
	return sc, nil
}

// Marks returns every mark recorded so far.
func (s *Session) Marks() []Mark {
	s.marksMu.Lock()
	defer s.marksMu.Unlock()
	return append([]Mark(nil), s.marks...)
}

func (s *Session) mark(label string) {
	var id uint32
	if s.current != nil {
		id = s.current.ObjectID()
	}
	s.marksMu.Lock()
	defer s.marksMu.Unlock()
	s.marks = append(s.marks, Mark{Tick: s.engine.Ticks(), ObjectID: id, Label: label})
}

func (s *Session) logf(format string, args ...any) {
	if !s.verbose {
		return
	}
	s.logger.Printf(format, args...)
}

// takeHookErrors returns and clears errors raised by Lua hooks.
func (s *Session) takeHookErrors() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := errors.Join(s.hookErrs...)
	s.hookErrs = nil
	return err
}
