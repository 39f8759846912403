package config

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is an error that selects the process exit status.
type ExitCoder interface {
	error
	ExitCode() int
}

// Exitf writes a formatted error message to stderr and exits with code 1.
// Command entry points call it for fatal startup errors.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Exit reports err on stderr and exits with ExitCodeOf(err).
func Exit(err error) {
	os.Exit(report(os.Stderr, err))
}

// ExitCodeOf returns the status for err: the code of the first ExitCoder in
// its chain when positive, otherwise 1.
func ExitCodeOf(err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) && coder.ExitCode() > 0 {
		return coder.ExitCode()
	}
	return 1
}

func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitCodeOf(err)
}
