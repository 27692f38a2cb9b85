// Package executor runs shell commands as subprocesses and captures their
// outcome. One subprocess per call; callers own all queuing and concurrency
// decisions.
package executor

import "context"

// Executor runs a shell command to completion.
type Executor interface {
	Run(ctx context.Context, command string) Result
}

// Result contains the outcome of one command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// TimedOut is true when the subprocess was killed by the execution
	// timeout or context cancellation.
	TimedOut bool
	// LaunchError is non-empty when the subprocess could not be started
	// at all (e.g. the shell binary is missing).
	LaunchError string
}

// Failed returns true when the execution did not finish with exit code 0.
func (r Result) Failed() bool {
	return r.ExitCode != 0 || r.TimedOut || r.LaunchError != ""
}

// ErrorDetail returns the error string to record on a failed job, or ""
// for a clean exit. Non-zero exits report stderr when present since that
// is where the command explained itself.
func (r Result) ErrorDetail() string {
	switch {
	case r.LaunchError != "":
		return r.LaunchError
	case r.TimedOut:
		return "command timed out"
	case r.ExitCode != 0 && r.Stderr != "":
		return r.Stderr
	case r.ExitCode != 0:
		return "exit status non-zero"
	default:
		return ""
	}
}
