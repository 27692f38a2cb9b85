package cmd

import (
	"fmt"
	"strings"

	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/term"
)

// renderJob prints a job snapshot. For a failed job the command's exit
// code is propagated through ExitCodeError.
func renderJob(j job.Job) error {
	term.Printf("Job %s: %s (%.1fs)\n", j.ID, j.Status, j.ElapsedSeconds)
	if j.Output != "" {
		term.Print(ensureNewline(j.Output))
	}
	if j.Error != "" {
		term.Error("%s", strings.TrimRight(j.Error, "\n"))
	}

	if j.Status == job.StatusFailed {
		code := j.ReturnCode
		if code <= 0 {
			code = 1
		}
		return NewExitCodeError(code)
	}
	return nil
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// resumeHint tells the caller how to pick up a still-running job.
func resumeHint(jobID string) string {
	return fmt.Sprintf("still running; check later with 'termgate job %s'", jobID)
}
