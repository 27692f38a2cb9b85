// Package job tracks asynchronous command execution units. Each accepted
// command gets exactly one Job; the executing worker is the only writer
// that moves a Job to a terminal state.
package job

import (
	"errors"
	"time"
)

// Errors returned by the Store.
var (
	// ErrNotFound indicates the job ID is not registered.
	ErrNotFound = errors.New("job not found")
	// ErrAmbiguous indicates an ID prefix matched more than one job.
	ErrAmbiguous = errors.New("ambiguous job id prefix")
	// ErrFinished indicates a state change was attempted on a job that
	// already reached a terminal state. Job status never regresses.
	ErrFinished = errors.New("job already finished")
)

// Status represents the lifecycle state of a Job.
type Status string

const (
	// StatusQueued means the job is accepted and waiting for a worker.
	StatusQueued Status = "queued"
	// StatusRunning means the subprocess has been launched.
	StatusRunning Status = "running"
	// StatusCompleted means the subprocess exited with code 0.
	StatusCompleted Status = "completed"
	// StatusFailed means the subprocess exited non-zero, failed to launch,
	// or was killed by the execution timeout.
	StatusFailed Status = "failed"
)

// Terminal returns true if the status is completed or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one asynchronous command execution unit and its outcome.
type Job struct {
	ID                string     `json:"job_id"`
	SessionID         string     `json:"session_id"`
	Command           string     `json:"command"`
	Status            Status     `json:"status"`
	Output            string     `json:"output"`
	Error             string     `json:"error,omitempty"`
	ReturnCode        int        `json:"return_code"`
	EstimatedDuration int        `json:"estimated_duration,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds    float64    `json:"elapsed_seconds"`
}
