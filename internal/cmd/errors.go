package cmd

import "fmt"

// ExitCodeError carries a process exit code through the error chain so
// main can propagate a command's exit status.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError creates an ExitCodeError with the given code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

// Error returns the formatted message.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}
