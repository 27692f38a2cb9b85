package job

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds all jobs behind a mutex. Jobs are never deleted: the record
// is the source of truth for callers that resume polling later.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new job in the queued state and returns a copy.
func (s *Store) Create(sessionID, command string, estimatedDuration int) Job {
	j := &Job{
		ID:                uuid.NewString(),
		SessionID:         sessionID,
		Command:           command,
		Status:            StatusQueued,
		EstimatedDuration: estimatedDuration,
		StartedAt:         time.Now(),
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	return *j
}

// Get returns a copy of the job by exact ID, with ElapsedSeconds derived
// from the current time for jobs that have not finished.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return snapshot(j), nil
}

// Resolve finds a job by ID prefix. An exact match always wins. A prefix
// matching exactly one job returns that job; zero matches return
// ErrNotFound and multiple matches return ErrAmbiguous, never an arbitrary
// pick.
func (s *Store) Resolve(prefix string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if j, ok := s.jobs[prefix]; ok {
		return snapshot(j), nil
	}

	var found *Job
	for id, j := range s.jobs {
		if strings.HasPrefix(id, prefix) {
			if found != nil {
				return Job{}, ErrAmbiguous
			}
			found = j
		}
	}
	if found == nil {
		return Job{}, ErrNotFound
	}
	return snapshot(found), nil
}

// MarkRunning transitions a queued job to running.
// Returns ErrFinished if the job already reached a terminal state.
func (s *Store) MarkRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrFinished
	}
	j.Status = StatusRunning
	return nil
}

// Finish records the job's terminal outcome. A zero return code with no
// launch error completes the job; anything else fails it. Calling Finish
// on an already-finished job returns ErrFinished and changes nothing.
func (s *Store) Finish(id, output, errDetail string, returnCode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrFinished
	}

	now := time.Now()
	j.Output = output
	j.Error = errDetail
	j.ReturnCode = returnCode
	j.CompletedAt = &now
	j.ElapsedSeconds = now.Sub(j.StartedAt).Seconds()
	if returnCode == 0 && errDetail == "" {
		j.Status = StatusCompleted
	} else {
		j.Status = StatusFailed
	}
	return nil
}

// Pending returns the number of jobs that have not reached a terminal state.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, j := range s.jobs {
		if !j.Status.Terminal() {
			n++
		}
	}
	return n
}

// snapshot copies a job, deriving elapsed time for unfinished jobs.
// Caller must hold at least a read lock.
func snapshot(j *Job) Job {
	out := *j
	if !j.Status.Terminal() {
		out.ElapsedSeconds = time.Since(j.StartedAt).Seconds()
	}
	return out
}
