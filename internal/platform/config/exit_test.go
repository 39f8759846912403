package config_test

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/slotted/internal/platform/config"
)

type codedError struct{ code int }

func (e codedError) Error() string { return fmt.Sprintf("coded %d", e.code) }
func (e codedError) ExitCode() int { return e.code }

// os.Exit cannot be intercepted in-process, so the test re-runs itself.
func TestExitfExitsWithCode1(t *testing.T) {
	if os.Getenv("SLOTTED_EXITF_SUBPROCESS") == "1" {
		config.Exitf("Error: %s", "scenario script path is required")
		return
	}

	out, code := runSubprocess(t, "TestExitfExitsWithCode1", "SLOTTED_EXITF_SUBPROCESS=1")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if want := "Error: scenario script path is required"; !strings.Contains(out, want) {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestExitUsesErrorCode(t *testing.T) {
	if os.Getenv("SLOTTED_EXIT_SUBPROCESS") == "1" {
		config.Exit(fmt.Errorf("step 3 (expect): %w", codedError{code: 2}))
		return
	}

	out, code := runSubprocess(t, "TestExitUsesErrorCode", "SLOTTED_EXIT_SUBPROCESS=1")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if want := "Error: step 3 (expect): coded 2"; !strings.Contains(out, want) {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestExitCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain", err: errors.New("boom"), want: 1},
		{name: "coded", err: codedError{code: 3}, want: 3},
		{name: "wrapped", err: fmt.Errorf("run: %w", codedError{code: 2}), want: 2},
		{name: "non-positive", err: codedError{code: 0}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := config.ExitCodeOf(tt.err); got != tt.want {
				t.Fatalf("ExitCodeOf = %d, want %d", got, tt.want)
			}
		})
	}
}

func runSubprocess(t *testing.T, name, env string) (string, int) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^"+name+"$")
	cmd.Env = append(os.Environ(), env)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %T %v, want *exec.ExitError", err, err)
	}
	return string(out), exitErr.ExitCode()
}
