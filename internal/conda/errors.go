package conda

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPackageNotFound is returned by Version when no installed entry matches.
	ErrPackageNotFound = errors.New("package not found")

	// ErrCommandFailed marks a conda invocation that exited non-zero.
	ErrCommandFailed = errors.New("conda command failed")
)

const outputTailLimit = 2048

type PackageNotFoundError struct {
	Name string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("could not find the %s package", e.Name)
}

func (e *PackageNotFoundError) Unwrap() error { return ErrPackageNotFound }

// CommandFailedError carries the rendered command line, exit code and the
// tail of conda's output.
type CommandFailedError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// UpdateFailure is one package that failed to update.
type UpdateFailure struct {
	Name string
	Err  error
}

// UpdateError lists every package Update could not update.
type UpdateError struct {
	Failures []UpdateFailure
}

func (e *UpdateError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Name
	}
	return fmt.Sprintf("update failed for %d package(s): %s", len(e.Failures), strings.Join(names, ", "))
}

func (e *UpdateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
