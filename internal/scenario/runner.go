package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/louisbranch/slotted/internal/sim"
	"github.com/louisbranch/slotted/internal/slotted/host"
)

// Result summarizes a run.
type Result struct {
	Name  string
	Steps int
	Ticks int64
	Marks []Mark
}

type runner struct {
	session *Session
	objects map[int]uint32
	// checked is the number of marks already consumed by expect steps.
	checked int
}

// Run executes the scenario's steps in order. It stops at the first step
// that fails, including failures raised inside Lua hooks during that step.
// In log-only mode failed expectations are logged instead.
func (s *Session) Run(ctx context.Context, sc *Scenario) (Result, error) {
	if sc == nil {
		return Result{}, errors.New("scenario is required")
	}
	result := Result{Name: sc.Name}
	r := &runner{session: s, objects: make(map[int]uint32), checked: len(s.Marks())}
	s.logf("scenario start: %s (%d steps)", sc.Name, len(sc.Steps))
	for _, diag := range sc.Diagnostics {
		s.logger.Printf("scenario %s: %v", sc.Name, diag)
	}

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		stepNumber := i + 1
		s.logf("step %d/%d start: %s", stepNumber, len(sc.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := r.step(stepCtx, step)
		cancel()
		if hookErr := s.takeHookErrors(); err == nil {
			err = hookErr
		}
		if errors.Is(err, ErrExpectation) && !s.strict {
			s.logger.Printf("step %d (%s): %v", stepNumber, step.Kind, err)
			err = nil
		}
		if err != nil {
			return result, fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		result.Steps++
		s.logf("step %d/%d done: %s (%s)", stepNumber, len(sc.Steps), step.Kind, time.Since(stepStart))
	}
	result.Ticks = s.engine.Ticks()
	result.Marks = s.Marks()
	s.logf("scenario done: %s", sc.Name)
	return result, nil
}

func (r *runner) step(ctx context.Context, step Step) error {
	engine := r.session.engine
	args := step.Args
	switch step.Kind {
	case "spawn":
		return r.spawn(args)
	case "despawn":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		return engine.Despawn(id)
	case "start":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		return engine.Start(id)
	case "tick":
		for i := 0; i < intArg(args, "count"); i++ {
			if err := engine.Tick(ctx); err != nil {
				return err
			}
		}
		return nil
	case "play":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		motion, _ := args["motion"].(string)
		return engine.Play(id, motion)
	case "command":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		category, _ := args["category"].(host.CommandCategory)
		_, err = engine.RunCommand(id, category)
		return err
	case "status":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		line, _ := args["line"].(host.StatusLine)
		_, err = engine.RunStatus(id, int32(intArg(args, "status")), line)
		return err
	case "enter":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		_, err = engine.EnterStatus(id, int32(intArg(args, "status")))
		return err
	case "color":
		id, err := r.object(args)
		if err != nil {
			return err
		}
		return engine.SetValue(id, host.ValueColor, int64(intArg(args, "color")))
	case "expect":
		return r.expect(args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *runner) spawn(args map[string]any) error {
	category, _ := args["category"].(host.Category)
	name, _ := args["name"].(string)
	spec := sim.SpawnSpec{
		Category: category,
		Name:     name,
		Entry:    int64(intArg(args, "entry")),
		Color:    int64(intArg(args, "color")),
	}
	if owner, ok := args["owner"].(int); ok {
		id, known := r.objects[owner]
		if !known {
			return fmt.Errorf("owner handle %d was never spawned", owner)
		}
		spec.Owner = id
	}
	id, err := r.session.engine.Spawn(spec)
	if err != nil {
		return err
	}
	r.objects[intArg(args, "handle")] = id
	return nil
}

func (r *runner) object(args map[string]any) (uint32, error) {
	handle := intArg(args, "handle")
	id, ok := r.objects[handle]
	if !ok {
		return 0, fmt.Errorf("handle %d was never spawned", handle)
	}
	return id, nil
}

func (r *runner) expect(args map[string]any) error {
	want, _ := args["labels"].([]string)
	marks := r.session.Marks()
	got := make([]string, 0, len(marks)-r.checked)
	for _, m := range marks[r.checked:] {
		got = append(got, m.Label)
	}
	r.checked = len(marks)

	// Frame workers run concurrently, so marks from one tick compare as a
	// multiset.
	slices.Sort(got)
	sorted := slices.Clone(want)
	slices.Sort(sorted)
	if !slices.Equal(got, sorted) {
		return fmt.Errorf("%w: marks = %v, want %v", ErrExpectation, got, want)
	}
	return nil
}
