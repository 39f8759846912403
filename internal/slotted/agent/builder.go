// Package agent provides the fluent registration surface mod authors use to
// attach slotted variants to a fighter or weapon kind.
//
// A builder collects fields for one (kind, ColorSet) pair and commits them to
// the runtime on Install. Mistakes such as an unknown kind or a command name
// without a category prefix are collected on the builder instead of aborting
// the chain; Err and Install report them.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/slotted/internal/slotted/dispatch"
	"github.com/louisbranch/slotted/internal/slotted/host"
	"github.com/louisbranch/slotted/internal/slotted/naming"
	"github.com/louisbranch/slotted/internal/slotted/variant"
)

var (
	// ErrUnknownCommand indicates a command name without a category prefix.
	ErrUnknownCommand = errors.New("command name has no category prefix")
	// ErrUnsupportedCategory indicates a command category the kind cannot run.
	ErrUnsupportedCategory = errors.New("command category is not supported for this kind")
	// ErrNilHook indicates a nil hook passed to the builder.
	ErrNilHook = errors.New("hook is required")
	// ErrAlreadyInstalled indicates a builder committed twice.
	ErrAlreadyInstalled = errors.New("builder already installed")
)

type plainStatus struct {
	line   host.StatusLine
	status int32
	hook   host.StatusHook
}

// Builder accumulates one variant of one kind.
type Builder struct {
	rt       *dispatch.Runtime
	name     string
	category host.Category
	mode     dispatch.Mode
	kind     host.Hash40
	colors   variant.ColorSet
	mask     *[variant.LegacyMaskSize]bool

	fields    []variant.Field
	commands  []string
	statuses  []plainStatus
	errs      []error
	installed bool
}

// NewFighter starts a variant of the fighter kind name for colors. A nil rt
// uses dispatch.Default.
func NewFighter(rt *dispatch.Runtime, name string, colors ...int) *Builder {
	return newBuilder(rt, host.CategoryFighter, dispatch.ModeStandard, name, variant.Colors(colors...), nil)
}

// NewFighterMask starts a variant keyed by a legacy palette mask. The mask is
// converted when the runtime migrates.
func NewFighterMask(rt *dispatch.Runtime, name string, mask *[variant.LegacyMaskSize]bool) *Builder {
	return newBuilder(rt, host.CategoryFighter, dispatch.ModeStandard, name, nil, mask)
}

// NewWeapon starts a variant of the weapon kind name. Weapons follow their
// owner's variant index, so colors must mirror the owner's registration
// order.
func NewWeapon(rt *dispatch.Runtime, name string, colors ...int) *Builder {
	return newBuilder(rt, host.CategoryWeapon, dispatch.ModeStandard, name, variant.Colors(colors...), nil)
}

// NewClonedWeapon starts a variant of a weapon kind cloned from another kind.
// Its pre status interrupts into status 0 instead of chaining.
func NewClonedWeapon(rt *dispatch.Runtime, name string, colors ...int) *Builder {
	return newBuilder(rt, host.CategoryWeapon, dispatch.ModeCloned, name, variant.Colors(colors...), nil)
}

func newBuilder(rt *dispatch.Runtime, category host.Category, mode dispatch.Mode, name string, colors variant.ColorSet, mask *[variant.LegacyMaskSize]bool) *Builder {
	if rt == nil {
		rt = dispatch.Default()
	}
	b := &Builder{
		rt:       rt,
		name:     name,
		category: category,
		mode:     mode,
		colors:   colors,
		mask:     mask,
	}
	if rt == nil {
		b.fail(dispatch.ErrRuntimeRequired)
		return b
	}
	b.kind = variant.KindOf(rt.Engine(), category, name)
	if b.kind == variant.InvalidKind {
		b.fail(fmt.Errorf("%w: %s", variant.ErrInvalidKind, host.KindName(category, name)))
	}
	return b
}

// Kind returns the hashed kind id, or variant.InvalidKind.
func (b *Builder) Kind() host.Hash40 { return b.kind }

// Err returns the accumulated diagnostics, or nil.
func (b *Builder) Err() error { return errors.Join(b.errs...) }

func (b *Builder) fail(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

// Game registers the game script game_<base>.
func (b *Builder) Game(base string, hook host.CommandHook) *Builder {
	return b.command(host.CommandGame, base, hook)
}

// Effect registers the effect script effect_<base>.
func (b *Builder) Effect(base string, hook host.CommandHook) *Builder {
	return b.command(host.CommandEffect, base, hook)
}

// Sound registers the sound script sound_<base>.
func (b *Builder) Sound(base string, hook host.CommandHook) *Builder {
	return b.command(host.CommandSound, base, hook)
}

// Expression registers the expression script expression_<base>. Weapons have
// no expression category.
func (b *Builder) Expression(base string, hook host.CommandHook) *Builder {
	return b.command(host.CommandExpression, base, hook)
}

// Command registers a script by its full name, inferring the category from
// its prefix.
func (b *Builder) Command(name string, hook host.CommandHook) *Builder {
	category, base, ok := naming.SplitCommand(name)
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownCommand, name))
	}
	return b.command(category, base, hook)
}

func (b *Builder) command(category host.CommandCategory, base string, hook host.CommandHook) *Builder {
	name := naming.CommandName(category, base)
	if hook == nil {
		return b.fail(fmt.Errorf("%w: %s", ErrNilHook, name))
	}
	if !host.SupportsCategory(b.category, category) {
		return b.fail(fmt.Errorf("%w: %s on %s", ErrUnsupportedCategory, name, b.category))
	}
	b.commands = append(b.commands, name)
	b.fields = append(b.fields, variant.CommandField{Name: host.Hash(name), Category: category, Hook: hook})
	return b
}

// Frame sets the variant's per-frame hook.
func (b *Builder) Frame(hook host.FrameHook) *Builder {
	if hook == nil {
		return b.fail(fmt.Errorf("%w: frame", ErrNilHook))
	}
	b.fields = append(b.fields, variant.FrameField{Hook: hook})
	return b
}

// OnStart sets the variant's start hook. Start hooks run for every instance
// of the kind, matched or not.
func (b *Builder) OnStart(hook host.StartHook) *Builder {
	if hook == nil {
		return b.fail(fmt.Errorf("%w: start", ErrNilHook))
	}
	b.fields = append(b.fields, variant.StartField{Hook: hook})
	return b
}

// SlottedStatus overrides a status line on instances that resolve to this
// variant.
func (b *Builder) SlottedStatus(line host.StatusLine, status int32, hook host.StatusHook) *Builder {
	if hook == nil {
		return b.fail(fmt.Errorf("%w: status %d %s", ErrNilHook, status, line))
	}
	b.fields = append(b.fields, variant.StatusField{Line: line, Status: status, Hook: hook})
	return b
}

// Status installs a kind-level status function for every instance of the
// kind, regardless of variant.
func (b *Builder) Status(line host.StatusLine, status int32, hook host.StatusHook) *Builder {
	if hook == nil {
		return b.fail(fmt.Errorf("%w: status %d %s", ErrNilHook, status, line))
	}
	b.statuses = append(b.statuses, plainStatus{line: line, status: status, hook: hook})
	return b
}

// Install commits the collected fields to the registry, indexes command base
// names and installs the kind's runtime hooks. Fields that were accepted are
// committed even when other calls on the chain failed; the returned error
// joins every diagnostic.
func (b *Builder) Install(ctx context.Context) error {
	if b.installed {
		return ErrAlreadyInstalled
	}
	b.installed = true
	if b.rt == nil || b.kind == variant.InvalidKind {
		return b.Err()
	}

	for _, name := range b.commands {
		b.rt.BaseNames().Add(name)
	}
	var err error
	if b.mask != nil {
		err = b.rt.Registry().RegisterMask(b.kind, b.mask, b.fields...)
	} else {
		err = b.rt.Registry().Register(b.kind, b.colors, b.fields...)
	}
	if err != nil {
		b.fail(fmt.Errorf("register %s: %w", host.KindName(b.category, b.name), err))
	}
	if _, err := b.rt.Install(ctx, b.kind, b.category, b.mode); err != nil {
		b.fail(fmt.Errorf("install %s: %w", host.KindName(b.category, b.name), err))
	}
	for _, s := range b.statuses {
		b.rt.Installer().InstallStatus(b.kind, s.status, s.line, s.hook)
	}
	return b.Err()
}
