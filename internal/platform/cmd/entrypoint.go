package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/profile"

	"github.com/louisbranch/slotted/internal/platform/config"
	"github.com/louisbranch/slotted/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Service identifiers for command startup telemetry and CLI naming consistency.
const (
	ServiceSlotSim = "slotsim"
)

// Profile modes accepted by RunOptions.Profile.
const (
	ProfileNone      = ""
	ProfileCPU       = "cpu"
	ProfileMem       = "mem"
	ProfileAllocs    = "allocs"
	ProfileBlock     = "block"
	ProfileMutex     = "mutex"
	ProfileGoroutine = "goroutine"
	ProfileTrace     = "trace"
)

// ErrUnknownProfile indicates a profile mode RunOptions does not support.
var ErrUnknownProfile = errors.New("unknown profile mode")

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// ShutdownTimeout sets the timeout used when stopping telemetry.
	ShutdownTimeout time.Duration
	// Profile names a pprof profile to capture around the run.
	Profile string
	// ProfileDir is where the profile file is written. Defaults to ".".
	ProfileDir string
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs loads defaults from env and then parses flags.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}

// ProfileOption maps a profile mode to its pkg/profile option. The second
// result is false for ProfileNone.
func ProfileOption(mode string) (func(*profile.Profile), bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ProfileNone:
		return nil, false, nil
	case ProfileCPU:
		return profile.CPUProfile, true, nil
	case ProfileMem:
		return profile.MemProfile, true, nil
	case ProfileAllocs:
		return profile.MemProfileAllocs, true, nil
	case ProfileBlock:
		return profile.BlockProfile, true, nil
	case ProfileMutex:
		return profile.MutexProfile, true, nil
	case ProfileGoroutine:
		return profile.GoroutineProfile, true, nil
	case ProfileTrace:
		return profile.TraceProfile, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownProfile, mode)
	}
}

// RunWithTelemetry configures observability and executes a service run loop.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, service, RunOptions{}, run)
}

// RunWithTelemetryAndOptions configures observability and executes a service run loop.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	mode, profiling, err := ProfileOption(options.Profile)
	if err != nil {
		return err
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownTimeout := options.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	if profiling {
		dir := strings.TrimSpace(options.ProfileDir)
		if dir == "" {
			dir = "."
		}
		defer profile.Start(mode, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet).Stop()
	}
	return run(ctx)
}
