// Package confirm tracks pending human-approval gates for risky commands.
// A confirmation has exactly one terminal outcome: approved, denied, or
// expired. Expiry is applied lazily at read time; there is no background
// sweeper goroutine.
package confirm

import (
	"errors"
	"time"
)

// DefaultTTL is the default approval window for a pending confirmation.
const DefaultTTL = 2 * time.Minute

// Errors returned by the Store.
var (
	// ErrNotFound indicates the confirmation ID is not registered.
	ErrNotFound = errors.New("confirmation not found")
	// ErrAmbiguous indicates an ID prefix matched more than one confirmation.
	ErrAmbiguous = errors.New("ambiguous confirmation id prefix")
	// ErrAlreadyResolved indicates a decision was attempted on a
	// confirmation that already reached a terminal state.
	ErrAlreadyResolved = errors.New("confirmation already resolved")
)

// Status represents the lifecycle state of a Confirmation.
type Status string

const (
	// StatusPending means the confirmation awaits a human decision.
	StatusPending Status = "pending"
	// StatusApproved means a human approved the command.
	StatusApproved Status = "approved"
	// StatusDenied means a human denied the command.
	StatusDenied Status = "denied"
	// StatusExpired means the approval window elapsed with no decision.
	StatusExpired Status = "expired"
)

// Terminal returns true if the status is approved, denied, or expired.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied || s == StatusExpired
}

// Confirmation is one pending (or resolved) human-approval gate.
type Confirmation struct {
	ID                string     `json:"confirmation_id"`
	SessionID         string     `json:"session_id"`
	Command           string     `json:"command"`
	RiskLevel         string     `json:"risk_level"`
	Reason            string     `json:"reason"`
	Status            Status     `json:"status"`
	EstimatedDuration int        `json:"estimated_duration,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`

	// JobID is the job created for an approved command. Pollers read it
	// to switch from confirmation polling to job polling.
	JobID string `json:"job_id,omitempty"`
}

// Expired reports whether a confirmation created at createdAt with the
// given approval window is past its expiry at now. Pure function so the
// expiry rule is testable without a store or a clock.
func Expired(now, createdAt time.Time, ttl time.Duration) bool {
	return now.Sub(createdAt) >= ttl
}
