package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestEventFormat(t *testing.T) {
	ts := time.Date(2025, 1, 15, 14, 32, 5, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "submit",
			event: Event{Timestamp: ts, Type: EventSubmit, Session: "abc", Cmd: "ls -la", Risk: "low"},
			want:  `2025-01-15T14:32:05Z COMMAND SUBMIT session=abc cmd="ls -la" risk="low"`,
		},
		{
			name:  "block",
			event: Event{Timestamp: ts, Type: EventBlock, Session: "abc", Cmd: "rm -rf /", Reason: "recursive deletion of the filesystem root"},
			want:  `2025-01-15T14:32:05Z COMMAND BLOCK session=abc cmd="rm -rf /" reason="recursive deletion of the filesystem root"`,
		},
		{
			name:  "accept",
			event: Event{Timestamp: ts, Type: EventAccept, Session: "abc", Cmd: "ls", Job: "j1", Risk: "low"},
			want:  `2025-01-15T14:32:05Z COMMAND ACCEPT session=abc cmd="ls" job="j1" risk="low"`,
		},
		{
			name:  "confirm request",
			event: Event{Timestamp: ts, Type: EventConfirmRequest, Session: "abc", Cmd: "sudo reboot", Confirmation: "c1", Risk: "high", Reason: "host power state change"},
			want:  `2025-01-15T14:32:05Z COMMAND CONFIRM_REQUEST session=abc cmd="sudo reboot" confirmation="c1" risk="high" reason="host power state change"`,
		},
		{
			name:  "approve",
			event: Event{Timestamp: ts, Type: EventApprove, Session: "abc", Cmd: "sudo reboot", Confirmation: "c1"},
			want:  `2025-01-15T14:32:05Z COMMAND APPROVE session=abc cmd="sudo reboot" confirmation="c1"`,
		},
		{
			name:  "expire",
			event: Event{Timestamp: ts, Type: EventExpire, Session: "abc", Cmd: "sudo reboot", Confirmation: "c1"},
			want:  `2025-01-15T14:32:05Z COMMAND EXPIRE session=abc cmd="sudo reboot" confirmation="c1"`,
		},
		{
			name:  "complete",
			event: Event{Timestamp: ts, Type: EventComplete, Session: "abc", Cmd: "ls", Job: "j1", ExitCode: 0, Duration: 2300 * time.Millisecond},
			want:  `2025-01-15T14:32:05Z COMMAND COMPLETE session=abc cmd="ls" job="j1" exit=0 duration=2.3s`,
		},
		{
			name:  "session open",
			event: Event{Timestamp: ts, Type: EventSessionOpen, Session: "abc"},
			want:  `2025-01-15T14:32:05Z SESSION OPEN session=abc`,
		},
		{
			name:  "session close",
			event: Event{Timestamp: ts, Type: EventSessionClose, Session: "abc"},
			want:  `2025-01-15T14:32:05Z SESSION CLOSE session=abc`,
		},
		{
			name:  "command with quotes",
			event: Event{Timestamp: ts, Type: EventSubmit, Session: "abc", Cmd: `echo "hi"`, Risk: "low"},
			want:  `2025-01-15T14:32:05Z COMMAND SUBMIT session=abc cmd="echo \"hi\"" risk="low"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500.0ms"},
		{2300 * time.Millisecond, "2.3s"},
		{90 * time.Second, "1m30s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes one line per event", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)

		if err := l.LogSessionOpen("abc"); err != nil {
			t.Fatalf("LogSessionOpen() error: %v", err)
		}
		if err := l.LogSubmit("abc", "ls", "low"); err != nil {
			t.Fatalf("LogSubmit() error: %v", err)
		}

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2", len(lines))
		}
		if !strings.Contains(lines[0], "SESSION OPEN") {
			t.Errorf("line 0 = %q, want SESSION OPEN", lines[0])
		}
		if !strings.Contains(lines[1], "COMMAND SUBMIT") {
			t.Errorf("line 1 = %q, want COMMAND SUBMIT", lines[1])
		}
	})

	t.Run("nil logger discards events", func(t *testing.T) {
		var l *Logger
		if err := l.LogSubmit("abc", "ls", "low"); err != nil {
			t.Errorf("nil logger returned error: %v", err)
		}
		if err := l.LogComplete("abc", "ls", "j1", 0, time.Second); err != nil {
			t.Errorf("nil logger returned error: %v", err)
		}
	})
}
