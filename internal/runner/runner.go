package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"bootconda/internal/logx"
)

// ErrCommandExecution is returned when a subprocess could not be started.
var ErrCommandExecution = errors.New("command execution failed")

// Options configures a single invocation.
type Options struct {
	Dir string
	// Env is the complete child environment. A nil Env inherits the
	// parent's environment; the parent's own environment is never modified.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the captured output of a finished process. A non-zero
// ExitCode is not an error; interpreting it is up to the caller.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() []byte {
	out := make([]byte, 0, len(r.Stdout)+len(r.Stderr))
	out = append(out, r.Stdout...)
	return append(out, r.Stderr...)
}

type Runner interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

// CommandExecutionError reports a process that could not be spawned.
type CommandExecutionError struct {
	Command string
	Err     error
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Command, e.Err)
}

func (e *CommandExecutionError) Unwrap() []error { return []error{ErrCommandExecution, e.Err} }

type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	line := CommandLine(command, args)
	log := logx.Component("runner")
	log.Debug().Str("command", line).Str("dir", opts.Dir).Msg("exec")
	start := time.Now()

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	err := cmd.Run()
	res := Result{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", line, ctxErr)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, &CommandExecutionError{Command: line, Err: err}
	}

	log.Debug().
		Str("command", line).
		Int("exit_code", res.ExitCode).
		Dur("duration", time.Since(start)).
		Msg("exec finished")
	return res, nil
}

var _ Runner = CmdRunner{}
