package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultTimeout is the default wall-clock ceiling for one command.
const DefaultTimeout = 5 * time.Minute

// ShellExecutor runs commands through a shell using os/exec.
type ShellExecutor struct {
	// Shell is the shell binary used to interpret commands.
	Shell string

	// Timeout is the wall-clock limit per command. The subprocess is
	// killed when it elapses and the result is marked TimedOut.
	// Zero means DefaultTimeout.
	Timeout time.Duration
}

// NewShellExecutor creates a ShellExecutor using /bin/sh and the given
// timeout. A zero timeout selects DefaultTimeout.
func NewShellExecutor(timeout time.Duration) *ShellExecutor {
	return &ShellExecutor{Shell: "/bin/sh", Timeout: timeout}
}

// Run executes the command under the shell and blocks until it finishes,
// times out, or ctx is canceled.
func (e *ShellExecutor) Run(ctx context.Context, command string) Result {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := e.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || ctx.Err() == context.Canceled {
			return Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: -1,
				TimedOut: true,
			}
		}

		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return Result{
				ExitCode:    -1,
				LaunchError: "shell not found: " + shell,
			}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
			}
		}

		return Result{
			Stdout:      stdout.String(),
			Stderr:      stderr.String(),
			ExitCode:    -1,
			LaunchError: err.Error(),
		}
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
}
