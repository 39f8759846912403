// Package slotsim runs a Lua scenario through the slotted dispatch runtime
// against the headless simulator.
package slotsim

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	platformcmd "github.com/louisbranch/slotted/internal/platform/cmd"
	"github.com/louisbranch/slotted/internal/scenario"
	"github.com/louisbranch/slotted/internal/sim"
	"github.com/louisbranch/slotted/internal/slotted/dispatch"
	"github.com/louisbranch/slotted/internal/slotted/storage/sqlite"
)

// ErrScriptRequired indicates a run without a scenario script.
var ErrScriptRequired = errors.New("scenario script path is required")

// ExitExpectation is the exit status of a run that failed an expect step.
const ExitExpectation = 2

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func withExitCode(err error) error {
	if errors.Is(err, scenario.ErrExpectation) {
		return &exitError{code: ExitExpectation, err: err}
	}
	return err
}

// Config holds slotsim command configuration.
type Config struct {
	Script      string        `env:"SLOTTED_SIM_SCRIPT"`
	JournalPath string        `env:"SLOTTED_SIM_JOURNAL_PATH"`
	Workers     int           `env:"SLOTTED_SIM_WORKERS"      envDefault:"4"`
	Profile     string        `env:"SLOTTED_SIM_PROFILE"`
	ProfileDir  string        `env:"SLOTTED_SIM_PROFILE_DIR"  envDefault:"."`
	Assertions  bool          `env:"SLOTTED_SIM_ASSERT"       envDefault:"true"`
	Verbose     bool          `env:"SLOTTED_SIM_VERBOSE"`
	Timeout     time.Duration `env:"SLOTTED_SIM_TIMEOUT"      envDefault:"10s"`

	Runtime dispatch.Config
}

// ParseConfig parses env defaults and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Script, "script", cfg.Script, "path to scenario lua file")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "sqlite path for the dispatch journal (empty disables it)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "frame workers per tick")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "pprof profile to capture: cpu, mem, allocs, block, mutex, goroutine or trace")
	fs.StringVar(&cfg.ProfileDir, "profile-dir", cfg.ProfileDir, "directory for profile output")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.IntVar(&cfg.Runtime.Slots, "slots", cfg.Runtime.Slots, "instance slots")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the slotsim command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.Script) == "" {
		return ErrScriptRequired
	}
	options := platformcmd.RunOptions{Profile: cfg.Profile, ProfileDir: cfg.ProfileDir}
	return platformcmd.RunWithTelemetryAndOptions(ctx, platformcmd.ServiceSlotSim, options, func(ctx context.Context) error {
		return run(ctx, cfg, out, errOut)
	})
}

func run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	logger := log.New(errOut, "", 0)

	engine := sim.New(sim.Config{Workers: cfg.Workers})
	rt, err := dispatch.New(cfg.Runtime, dispatch.Deps{
		Engine:    engine,
		Installer: engine,
		Logger:    log.New(errOut, "[slotted] ", 0),
	})
	if err != nil {
		return fmt.Errorf("new runtime: %w", err)
	}
	dispatch.SetDefault(rt)
	defer dispatch.SetDefault(nil)

	var (
		store   *sqlite.Store
		journal *journal
	)
	if path := strings.TrimSpace(cfg.JournalPath); path != "" {
		store, err = sqlite.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Printf("close journal: %v", err)
			}
		}()
		journal = newJournal(uuid.NewString(), rt, engine)
		engine.Subscribe(journal.trace)
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}
	session, err := scenario.NewSession(scenario.Config{
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     logger,
		Timeout:    cfg.Timeout,
	}, rt, engine)
	if err != nil {
		return err
	}
	sc, err := session.LoadFile(ctx, cfg.Script)
	if err != nil {
		return err
	}
	result, runErr := session.Run(ctx, sc)

	if journal != nil {
		journal.marks(session.Marks())
		if err := store.RecordEntries(ctx, journal.entries()); err != nil {
			return withExitCode(errors.Join(runErr, fmt.Errorf("record journal: %w", err)))
		}
		fmt.Fprintf(out, "journal %s: %d entries in %s\n", journal.runID, journal.len(), cfg.JournalPath)
	}
	if runErr != nil {
		return withExitCode(runErr)
	}
	fmt.Fprintf(out, "scenario %s: %d steps, %d ticks, %d marks\n", result.Name, result.Steps, result.Ticks, len(result.Marks))
	return nil
}
