// Package audit provides structured logging for command lifecycle events.
// Log entries follow a key=value format suitable for parsing and analysis.
package audit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType represents the type of command or session event.
type EventType string

// Event types for command lifecycle operations.
const (
	EventSubmit         EventType = "SUBMIT"
	EventBlock          EventType = "BLOCK"
	EventAccept         EventType = "ACCEPT"
	EventConfirmRequest EventType = "CONFIRM_REQUEST"
	EventApprove        EventType = "APPROVE"
	EventDeny           EventType = "DENY"
	EventExpire         EventType = "EXPIRE"
	EventComplete       EventType = "COMPLETE"
)

// Event types for session lifecycle operations.
const (
	EventSessionOpen  EventType = "OPEN"
	EventSessionClose EventType = "CLOSE"
)

// Event represents one audit log entry.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Type is the event type (SUBMIT, APPROVE, etc.)
	Type EventType

	// Session is the owning session ID.
	Session string

	// Cmd is the command text.
	Cmd string

	// Job is the job ID (for ACCEPT and COMPLETE events).
	Job string

	// Confirmation is the confirmation ID (for confirmation events).
	Confirmation string

	// Risk is the risk tier assigned by the classifier.
	Risk string

	// Reason is the classifier or denial reason.
	Reason string

	// ExitCode is the command exit code (for COMPLETE events).
	ExitCode int

	// Duration is the execution time (for COMPLETE events).
	Duration time.Duration
}

// Format returns the log entry as a formatted string.
// Format: 2024-01-15T14:32:05Z COMMAND SUBMIT session=abc cmd="ls -la" risk="low"
// Format: 2024-01-15T14:32:05Z SESSION OPEN session=abc
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))

	if e.isSessionEvent() {
		b.WriteString(" SESSION ")
	} else {
		b.WriteString(" COMMAND ")
	}
	b.WriteString(string(e.Type))

	b.WriteString(" session=")
	b.WriteString(e.Session)

	if !e.isSessionEvent() {
		b.WriteString(" cmd=")
		b.WriteString(quoteValue(e.Cmd))
	}

	e.formatTypeSpecificFields(&b)

	return b.String()
}

// isSessionEvent returns true if the event is a session lifecycle event.
func (e *Event) isSessionEvent() bool {
	return e.Type == EventSessionOpen || e.Type == EventSessionClose
}

// formatTypeSpecificFields appends type-specific key=value pairs to the builder.
func (e *Event) formatTypeSpecificFields(b *strings.Builder) {
	switch e.Type {
	case EventSubmit:
		writeOptionalField(b, "risk", e.Risk)
	case EventBlock:
		writeOptionalField(b, "reason", e.Reason)
	case EventAccept:
		writeOptionalField(b, "job", e.Job)
		writeOptionalField(b, "risk", e.Risk)
	case EventConfirmRequest:
		writeOptionalField(b, "confirmation", e.Confirmation)
		writeOptionalField(b, "risk", e.Risk)
		writeOptionalField(b, "reason", e.Reason)
	case EventApprove, EventDeny, EventExpire:
		writeOptionalField(b, "confirmation", e.Confirmation)
	case EventComplete:
		writeOptionalField(b, "job", e.Job)
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	}
}

// writeOptionalField appends " key=quoted_value" to the builder if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue returns a quoted string value.
// Values are always quoted for consistency and to handle spaces/special chars.
func quoteValue(s string) string {
	return fmt.Sprintf("%q", s)
}

// formatDuration formats a duration as a human-readable string (e.g., "2.3s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger creates a new audit logger that writes to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Log writes an event to the audit log. A nil logger discards events.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := e.Format() + "\n"
	_, err := l.w.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogSubmit logs a COMMAND SUBMIT event.
func (l *Logger) LogSubmit(sessionID, cmd, risk string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventSubmit,
		Session:   sessionID,
		Cmd:       cmd,
		Risk:      risk,
	})
}

// LogBlock logs a COMMAND BLOCK event.
func (l *Logger) LogBlock(sessionID, cmd, reason string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventBlock,
		Session:   sessionID,
		Cmd:       cmd,
		Reason:    reason,
	})
}

// LogAccept logs a COMMAND ACCEPT event.
func (l *Logger) LogAccept(sessionID, cmd, jobID, risk string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventAccept,
		Session:   sessionID,
		Cmd:       cmd,
		Job:       jobID,
		Risk:      risk,
	})
}

// LogConfirmRequest logs a COMMAND CONFIRM_REQUEST event.
func (l *Logger) LogConfirmRequest(sessionID, cmd, confirmationID, risk, reason string) error {
	return l.Log(&Event{
		Timestamp:    time.Now(),
		Type:         EventConfirmRequest,
		Session:      sessionID,
		Cmd:          cmd,
		Confirmation: confirmationID,
		Risk:         risk,
		Reason:       reason,
	})
}

// LogApprove logs a COMMAND APPROVE event.
func (l *Logger) LogApprove(sessionID, cmd, confirmationID string) error {
	return l.Log(&Event{
		Timestamp:    time.Now(),
		Type:         EventApprove,
		Session:      sessionID,
		Cmd:          cmd,
		Confirmation: confirmationID,
	})
}

// LogDeny logs a COMMAND DENY event.
func (l *Logger) LogDeny(sessionID, cmd, confirmationID string) error {
	return l.Log(&Event{
		Timestamp:    time.Now(),
		Type:         EventDeny,
		Session:      sessionID,
		Cmd:          cmd,
		Confirmation: confirmationID,
	})
}

// LogExpire logs a COMMAND EXPIRE event.
func (l *Logger) LogExpire(sessionID, cmd, confirmationID string) error {
	return l.Log(&Event{
		Timestamp:    time.Now(),
		Type:         EventExpire,
		Session:      sessionID,
		Cmd:          cmd,
		Confirmation: confirmationID,
	})
}

// LogComplete logs a COMMAND COMPLETE event.
func (l *Logger) LogComplete(sessionID, cmd, jobID string, exitCode int, duration time.Duration) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventComplete,
		Session:   sessionID,
		Cmd:       cmd,
		Job:       jobID,
		ExitCode:  exitCode,
		Duration:  duration,
	})
}

// LogSessionOpen logs a SESSION OPEN event.
func (l *Logger) LogSessionOpen(sessionID string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventSessionOpen,
		Session:   sessionID,
	})
}

// LogSessionClose logs a SESSION CLOSE event.
func (l *Logger) LogSessionClose(sessionID string) error {
	return l.Log(&Event{
		Timestamp: time.Now(),
		Type:      EventSessionClose,
		Session:   sessionID,
	})
}
