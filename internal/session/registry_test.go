package session

import (
	"errors"
	"fmt"
	"testing"
)

func TestCreate(t *testing.T) {
	t.Run("generates ID when empty", func(t *testing.T) {
		r := NewRegistry()
		s, err := r.Create("")
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if s.ID == "" {
			t.Error("expected a generated ID")
		}
		if !s.Active {
			t.Error("new session should be active")
		}
	})

	t.Run("uses caller-provided ID", func(t *testing.T) {
		r := NewRegistry()
		s, err := r.Create("tg-1")
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if s.ID != "tg-1" {
			t.Errorf("ID = %q, want %q", s.ID, "tg-1")
		}
	})

	t.Run("duplicate ID rejected", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Create("tg-1"); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		_, err := r.Create("tg-1")
		if !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("err = %v, want ErrAlreadyExists", err)
		}
	})
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	created, _ := r.Create("tg-1")
	got, err := r.Get("tg-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ID != created.ID || !got.Active {
		t.Errorf("Get() = %+v, want active session %q", got, created.ID)
	}
}

func TestClose(t *testing.T) {
	t.Run("close deactivates", func(t *testing.T) {
		r := NewRegistry()
		_, _ = r.Create("tg-1")
		if err := r.Close("tg-1"); err != nil {
			t.Fatalf("Close() error: %v", err)
		}

		s, _ := r.Get("tg-1")
		if s.Active {
			t.Error("session still active after Close")
		}
		if s.ClosedAt == nil {
			t.Error("ClosedAt not set")
		}
	})

	t.Run("second close is an error", func(t *testing.T) {
		r := NewRegistry()
		_, _ = r.Create("tg-1")
		if err := r.Close("tg-1"); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
		if err := r.Close("tg-1"); !errors.Is(err, ErrAlreadyClosed) {
			t.Errorf("err = %v, want ErrAlreadyClosed", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Close("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		r := NewRegistry()
		_, _ = r.Create("tg-1")

		for i := 0; i < 5; i++ {
			entry := HistoryEntry{Command: fmt.Sprintf("echo %d", i), Source: SourceAssistantAsync}
			if err := r.AppendHistory("tg-1", entry); err != nil {
				t.Fatalf("AppendHistory() error: %v", err)
			}
		}

		history, err := r.History("tg-1")
		if err != nil {
			t.Fatalf("History() error: %v", err)
		}
		if len(history) != 5 {
			t.Fatalf("len(history) = %d, want 5", len(history))
		}
		for i, entry := range history {
			want := fmt.Sprintf("echo %d", i)
			if entry.Command != want {
				t.Errorf("history[%d].Command = %q, want %q", i, entry.Command, want)
			}
		}
	})

	t.Run("append after close is allowed", func(t *testing.T) {
		r := NewRegistry()
		_, _ = r.Create("tg-1")
		if err := r.Close("tg-1"); err != nil {
			t.Fatalf("Close() error: %v", err)
		}

		if err := r.AppendHistory("tg-1", HistoryEntry{Command: "slow-job"}); err != nil {
			t.Errorf("AppendHistory() after close error: %v", err)
		}
		history, _ := r.History("tg-1")
		if len(history) != 1 {
			t.Errorf("len(history) = %d, want 1", len(history))
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		r := NewRegistry()
		_, _ = r.Create("tg-1")
		_ = r.AppendHistory("tg-1", HistoryEntry{Command: "ls"})

		h1, _ := r.History("tg-1")
		h1[0].Command = "mutated"

		h2, _ := r.History("tg-1")
		if h2[0].Command != "ls" {
			t.Errorf("history mutated through returned slice: %q", h2[0].Command)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.History("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if err := r.AppendHistory("nope", HistoryEntry{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestObserver(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create("tg-1")

	var gotSession string
	var gotEntry HistoryEntry
	r.SetObserver(func(sessionID string, entry HistoryEntry) {
		gotSession = sessionID
		gotEntry = entry
	})

	_ = r.AppendHistory("tg-1", HistoryEntry{Command: "ls"})

	if gotSession != "tg-1" {
		t.Errorf("observer session = %q, want %q", gotSession, "tg-1")
	}
	if gotEntry.Command != "ls" {
		t.Errorf("observer entry command = %q, want %q", gotEntry.Command, "ls")
	}
}

func TestLen(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	_, _ = r.Create("a")
	_, _ = r.Create("b")
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}
