// Package session tracks logical terminal sessions and their append-only
// command history. Sessions are in-memory only: they live for the process
// lifetime and are never persisted.
package session

import (
	"errors"
	"time"
)

// Errors returned by the Registry.
var (
	// ErrNotFound indicates the session ID is not registered.
	ErrNotFound = errors.New("session not found")
	// ErrAlreadyExists indicates a session with this ID is already registered.
	ErrAlreadyExists = errors.New("session already exists")
	// ErrAlreadyClosed indicates the session was already closed.
	// Closing is not idempotent: a second close is an error.
	ErrAlreadyClosed = errors.New("session already closed")
)

// Source identifies who initiated a command.
type Source string

const (
	// SourceHuman marks commands typed interactively by a human.
	SourceHuman Source = "human"
	// SourceAssistant marks commands submitted synchronously by an assistant.
	SourceAssistant Source = "assistant"
	// SourceAssistantAsync marks commands submitted through the async job path.
	SourceAssistantAsync Source = "assistant_async"
)

// Session is one logical terminal context.
type Session struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Active    bool       `json:"active"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// HistoryEntry is an immutable audit record of one resolved command
// execution. Entries are appended after execution fully resolves, exactly
// once per command, in insertion order.
type HistoryEntry struct {
	Command    string    `json:"command"`
	Output     string    `json:"output"`
	Error      string    `json:"error,omitempty"`
	ReturnCode int       `json:"return_code"`
	Timestamp  time.Time `json:"timestamp"`
	Source     Source    `json:"source"`
	RiskLevel  string    `json:"risk_level"`
}
