package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrInstallerDownload covers fetch, HTTP status and checksum failures.
	ErrInstallerDownload = errors.New("installer download failed")

	// ErrInstallerExecution covers an installer that could not be started or
	// exited non-zero.
	ErrInstallerExecution = errors.New("installer execution failed")
)

const outputTailLimit = 2048

type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download installer %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() []error { return []error{ErrInstallerDownload, e.Err} }

// ExecutionError carries what is needed to diagnose a failed installer run.
// Err is nil when the installer ran but exited non-zero.
type ExecutionError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run installer %s: %v", e.Command, e.Err)
	}
	msg := fmt.Sprintf("installer %s exited with code %d", e.Command, e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInstallerExecution}
	}
	return []error{ErrInstallerExecution, e.Err}
}

// ChecksumError reports a downloaded installer whose digest does not match.
type ChecksumError struct {
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
