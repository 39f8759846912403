// Package dispatch drives slotted variants at runtime: it resolves each live
// instance's variant once, installs that variant's hooks on the instance, and
// routes frame, command and status callbacks to the registered functions.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/louisbranch/slotted/internal/platform/config"
	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/instance"
	"github.com/louisbranch/slotted/internal/slotted/naming"
	"github.com/louisbranch/slotted/internal/slotted/observability"
	"github.com/louisbranch/slotted/internal/slotted/variant"
)

var (
	// ErrEngineRequired indicates a runtime built without an engine.
	ErrEngineRequired = errors.New("host engine is required")
	// ErrInstallerRequired indicates a runtime built without a hook installer.
	ErrInstallerRequired = errors.New("hook installer is required")
	// ErrRuntimeRequired indicates a nil runtime.
	ErrRuntimeRequired = errors.New("dispatch runtime is required")
)

// Config holds runtime sizing read from the environment.
type Config struct {
	Slots        int `env:"SLOTTED_INSTANCE_SLOTS" envDefault:"8"`
	SuffixLength int `env:"SLOTTED_SUFFIX_LENGTH" envDefault:"8"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	return config.Load[Config]()
}

// Deps are the collaborators a Runtime consumes.
type Deps struct {
	Engine    host.Engine
	Installer host.Installer
	// Entropy feeds the installer-script suffix; crypto/rand when nil.
	Entropy io.Reader
	// Logger receives diagnostics; stderr when nil.
	Logger *log.Logger
	// Metrics records telemetry; the global OpenTelemetry providers when nil.
	Metrics *observability.Recorder
}

// Kind-installation modes for dependent kinds.
type Mode int

const (
	// ModeStandard installs a weapon pre-status installer that chains to the
	// original pre status.
	ModeStandard Mode = iota
	// ModeCloned installs a pre-status installer that interrupts into
	// status 0 instead of chaining.
	ModeCloned
)

// Runtime owns the variant registry, base-name index and instance slots of a
// process, and exposes the hooks the engine calls.
type Runtime struct {
	registry  *variant.Registry
	names     *naming.BaseNames
	cache     *instance.Cache
	suffix    *naming.Suffix
	engine    host.Engine
	installer host.Installer
	logger    *log.Logger
	metrics   *observability.Recorder

	migrate   sync.Once
	hubs      [4]host.CommandHook
	installMu sync.Mutex
	installed map[host.Hash40]bool
}

// New builds a Runtime.
func New(cfg Config, deps Deps) (*Runtime, error) {
	if deps.Engine == nil {
		return nil, ErrEngineRequired
	}
	if deps.Installer == nil {
		return nil, ErrInstallerRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[slotted] ", log.LstdFlags)
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.Default()
	}

	registry := variant.NewRegistry()
	registry.SetLogger(logger)
	registry.SetRecorder(metrics)

	r := &Runtime{
		registry:  registry,
		names:     naming.NewBaseNames(),
		cache:     instance.New(cfg.Slots),
		suffix:    naming.NewSuffix(deps.Entropy, cfg.SuffixLength),
		engine:    deps.Engine,
		installer: deps.Installer,
		logger:    logger,
		metrics:   metrics,
		installed: make(map[host.Hash40]bool),
	}
	for _, category := range host.CommandCategories {
		r.hubs[category] = r.hub(category)
	}
	return r, nil
}

var defaultRuntime atomic.Pointer[Runtime]

// SetDefault publishes rt as the process runtime used by builders that are
// not given one explicitly.
func SetDefault(rt *Runtime) {
	defaultRuntime.Store(rt)
}

// Default returns the process runtime, or nil before SetDefault.
func Default() *Runtime {
	return defaultRuntime.Load()
}

// Registry returns the variant registry.
func (r *Runtime) Registry() *variant.Registry { return r.registry }

// BaseNames returns the base-name index.
func (r *Runtime) BaseNames() *naming.BaseNames { return r.names }

// Cache returns the instance slot cache.
func (r *Runtime) Cache() *instance.Cache { return r.cache }

// Engine returns the host engine.
func (r *Runtime) Engine() host.Engine { return r.engine }

// Installer returns the kind-level hook installer.
func (r *Runtime) Installer() host.Installer { return r.installer }

// Logger returns the diagnostics logger.
func (r *Runtime) Logger() *log.Logger { return r.logger }

// Metrics returns the telemetry recorder.
func (r *Runtime) Metrics() *observability.Recorder { return r.metrics }

// InstallerName returns the installer-script name for category.
func (r *Runtime) InstallerName(category host.CommandCategory) string {
	return naming.InstallerName(category, r.suffix)
}

// Init runs the one-time legacy palette migration. Callbacks call it
// implicitly; calling it early only moves the work.
func (r *Runtime) Init() {
	r.migrate.Do(func() {
		if n := r.registry.Migrate(); n > 0 {
			r.logger.Printf("migrated %d legacy palette mask(s)", n)
		}
	})
}

// Install attaches the runtime's lifecycle, frame and installer-script hooks
// to kind. It installs each kind at most once and reports whether this call
// did the work.
func (r *Runtime) Install(ctx context.Context, kind host.Hash40, category host.Category, mode Mode) (bool, error) {
	if r == nil {
		return false, ErrRuntimeRequired
	}
	if kind == variant.InvalidKind {
		r.metrics.Dropped("invalid_kind")
		return false, variant.ErrInvalidKind
	}
	r.installMu.Lock()
	defer r.installMu.Unlock()
	if r.installed[kind] {
		return false, nil
	}
	r.installed[kind] = true

	_, span := r.metrics.Start(ctx, "slotted.install",
		attribute.String("kind", kind.String()),
		attribute.String("category", category.String()),
	)
	defer span.End()

	switch category {
	case host.CategoryWeapon:
		r.installer.InstallStart(kind, r.OnDependentStart)
		r.installer.InstallFrame(kind, r.OnDependentFrame)
		pre := host.StatusHook(r.WeaponPre)
		if mode == ModeCloned {
			pre = r.ClonedWeaponPre
		}
		r.installer.InstallStatus(kind, 0, host.StatusPre, pre)
	default:
		r.installer.InstallStart(kind, r.OnStart)
		r.installer.InstallFrame(kind, r.OnFrame)
	}
	for _, cmd := range host.CommandCategories {
		if !host.SupportsCategory(category, cmd) {
			continue
		}
		name := host.Hash(r.InstallerName(cmd))
		r.installer.InstallCommand(kind, cmd, name, r.installerScript(cmd))
	}
	return true, nil
}

// Installed reports whether kind has been installed.
func (r *Runtime) Installed(kind host.Hash40) bool {
	r.installMu.Lock()
	defer r.installMu.Unlock()
	return r.installed[kind]
}
