package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer is notified after a history entry is appended to a session.
// Used to push live updates to terminal viewers; best-effort only.
type Observer func(sessionID string, entry HistoryEntry)

// record is the registry's internal state for one session.
type record struct {
	session Session
	history []HistoryEntry
}

// Registry manages sessions and their history with thread-safe operations.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*record
	observer Observer
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*record),
	}
}

// SetObserver sets the observer called after each history append.
func (r *Registry) SetObserver(obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = obs
}

// Create registers a new session. If id is empty, a random identifier is
// generated. Returns ErrAlreadyExists if the ID is already registered.
func (r *Registry) Create(id string) (Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return Session{}, ErrAlreadyExists
	}

	s := Session{
		ID:        id,
		CreatedAt: time.Now(),
		Active:    true,
	}
	r.sessions[id] = &record{session: s}
	return s, nil
}

// Get returns the session by ID.
// Returns ErrNotFound if the ID is not registered.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return rec.session, nil
}

// Close deactivates a session. The session and its history remain readable
// after closing. Returns ErrNotFound for unknown IDs and ErrAlreadyClosed
// if the session was already closed.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if !rec.session.Active {
		return ErrAlreadyClosed
	}

	now := time.Now()
	rec.session.Active = false
	rec.session.ClosedAt = &now
	return nil
}

// AppendHistory appends an entry to the session's history log.
// Returns ErrNotFound if the session is not registered. Appending to a
// closed session is allowed: a command accepted before closure may resolve
// after it, and the audit trail must not lose that record.
func (r *Registry) AppendHistory(id string, entry HistoryEntry) error {
	r.mu.Lock()
	rec, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	rec.history = append(rec.history, entry)
	obs := r.observer
	r.mu.Unlock()

	if obs != nil {
		obs(id, entry)
	}
	return nil
}

// History returns a copy of the session's history in insertion order.
// Returns ErrNotFound if the session is not registered.
func (r *Registry) History(id string) ([]HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]HistoryEntry, len(rec.history))
	copy(out, rec.history)
	return out, nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
