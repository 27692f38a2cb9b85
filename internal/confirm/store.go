package confirm

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds all confirmations behind a mutex, keyed by ID.
// Resolved confirmations are kept so pollers can read the outcome.
type Store struct {
	mu            sync.RWMutex
	confirmations map[string]*Confirmation
	ttl           time.Duration
	now           func() time.Time // clock, replaceable in tests
}

// NewStore creates an empty confirmation store with the default approval
// window.
func NewStore() *Store {
	return NewStoreWithTTL(DefaultTTL)
}

// NewStoreWithTTL creates an empty confirmation store with a custom
// approval window.
func NewStoreWithTTL(ttl time.Duration) *Store {
	return &Store{
		confirmations: make(map[string]*Confirmation),
		ttl:           ttl,
		now:           time.Now,
	}
}

// SetClock replaces the store's clock. Only for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create registers a new pending confirmation and returns a copy.
func (s *Store) Create(sessionID, command, riskLevel, reason string, estimatedDuration int) Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &Confirmation{
		ID:                uuid.NewString(),
		SessionID:         sessionID,
		Command:           command,
		RiskLevel:         riskLevel,
		Reason:            reason,
		Status:            StatusPending,
		EstimatedDuration: estimatedDuration,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl),
	}
	s.confirmations[c.ID] = c
	return *c
}

// Get returns a copy of the confirmation by exact ID. Reading a pending
// confirmation past its expiry transitions it to expired exactly once;
// subsequent reads keep returning expired.
func (s *Store) Get(id string) (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.confirmations[id]
	if !ok {
		return Confirmation{}, ErrNotFound
	}
	s.applyExpiry(c)
	return *c, nil
}

// Resolve finds a confirmation by ID prefix with the same uniqueness rules
// as the job store: exact match wins, one prefix match returns it, zero is
// ErrNotFound and several is ErrAmbiguous.
func (s *Store) Resolve(prefix string) (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.confirmations[prefix]; ok {
		s.applyExpiry(c)
		return *c, nil
	}

	var found *Confirmation
	for id, c := range s.confirmations {
		if strings.HasPrefix(id, prefix) {
			if found != nil {
				return Confirmation{}, ErrAmbiguous
			}
			found = c
		}
	}
	if found == nil {
		return Confirmation{}, ErrNotFound
	}
	s.applyExpiry(found)
	return *found, nil
}

// Approve records an approval decision. Returns ErrNotFound for unknown
// IDs and ErrAlreadyResolved if the confirmation is already terminal,
// including the case where it expired before the decision arrived.
func (s *Store) Approve(id string) (Confirmation, error) {
	return s.decide(id, StatusApproved)
}

// Deny records a denial decision with the same error semantics as Approve.
func (s *Store) Deny(id string) (Confirmation, error) {
	return s.decide(id, StatusDenied)
}

func (s *Store) decide(id string, outcome Status) (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.confirmations[id]
	if !ok {
		return Confirmation{}, ErrNotFound
	}
	s.applyExpiry(c)
	if c.Status.Terminal() {
		return *c, ErrAlreadyResolved
	}

	now := s.now()
	c.Status = outcome
	c.DecidedAt = &now
	return *c, nil
}

// AttachJob records the job created for an approved confirmation so
// status pollers can pick up the job ID.
func (s *Store) AttachJob(id, jobID string) (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.confirmations[id]
	if !ok {
		return Confirmation{}, ErrNotFound
	}
	if c.Status != StatusApproved {
		return *c, fmt.Errorf("confirmation %s is %s, not approved", id, c.Status)
	}
	c.JobID = jobID
	return *c, nil
}

// Pending returns the number of confirmations still awaiting a decision,
// applying lazy expiry as it counts.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.confirmations {
		s.applyExpiry(c)
		if c.Status == StatusPending {
			n++
		}
	}
	return n
}

// applyExpiry transitions a pending confirmation past its window to
// expired. Caller must hold the write lock.
func (s *Store) applyExpiry(c *Confirmation) {
	if c.Status == StatusPending && Expired(s.now(), c.CreatedAt, s.ttl) {
		c.Status = StatusExpired
	}
}
