// Package worker runs accepted jobs on a bounded pool of goroutines.
// The pool is the only writer that moves a job out of the queued state,
// which keeps job transitions single-writer by construction.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/termgate/termgate/internal/audit"
	"github.com/termgate/termgate/internal/clog"
	"github.com/termgate/termgate/internal/executor"
	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/session"
)

// DefaultWorkers is the default number of concurrent executions.
const DefaultWorkers = 4

// DefaultQueueCapacity is the default size of the accepted-job queue.
const DefaultQueueCapacity = 256

// ErrQueueFull indicates the accepted-job queue is at capacity and the
// job cannot be enqueued right now.
var ErrQueueFull = errors.New("job queue full")

// Task is one accepted job waiting for a worker.
type Task struct {
	JobID     string
	SessionID string
	Command   string
	RiskLevel string
	Source    session.Source
}

// Pool executes tasks with a fixed number of workers consuming a bounded
// queue.
type Pool struct {
	jobs     *job.Store
	sessions *session.Registry
	exec     executor.Executor
	auditLog *audit.Logger

	queue   chan Task
	workers int
	active  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewPool creates a pool. Zero workers or capacity select the defaults.
// The audit logger may be nil.
func NewPool(jobs *job.Store, sessions *session.Registry, exec executor.Executor, auditLog *audit.Logger, workers, capacity int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:     jobs,
		sessions: sessions,
		exec:     exec,
		auditLog: auditLog,
		queue:    make(chan Task, capacity),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	clog.Info("worker pool starting with %d workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Stop cancels running executions and waits for all workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	clog.Info("worker pool stopped")
}

// Enqueue adds a task to the queue without blocking.
// Returns ErrQueueFull when the queue is at capacity.
func (p *Pool) Enqueue(t Task) error {
	select {
	case p.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth returns the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// ActiveWorkers returns the number of workers currently executing a task.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// run is one worker loop: take a task, execute it, record the outcome.
func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t := <-p.queue:
			p.active.Add(1)
			p.execute(t)
			p.active.Add(-1)
		}
	}
}

// execute runs one task to its terminal state and appends the history
// entry. Execution failure is a normal outcome, not a crash: the job is
// marked failed and stays auditable.
func (p *Pool) execute(t Task) {
	if err := p.jobs.MarkRunning(t.JobID); err != nil {
		clog.Warn("job %s: cannot mark running: %v", t.JobID, err)
		return
	}

	start := time.Now()
	res := p.exec.Run(p.ctx, t.Command)

	errDetail := res.ErrorDetail()
	if err := p.jobs.Finish(t.JobID, res.Stdout, errDetail, res.ExitCode); err != nil {
		clog.Warn("job %s: cannot finish: %v", t.JobID, err)
		return
	}

	entry := session.HistoryEntry{
		Command:    t.Command,
		Output:     res.Stdout,
		Error:      res.Stderr,
		ReturnCode: res.ExitCode,
		Timestamp:  time.Now(),
		Source:     t.Source,
		RiskLevel:  t.RiskLevel,
	}
	if errDetail != "" && res.Stderr == "" {
		entry.Error = errDetail
	}
	if err := p.sessions.AppendHistory(t.SessionID, entry); err != nil {
		clog.Warn("job %s: cannot append history: %v", t.JobID, err)
	}

	_ = p.auditLog.LogComplete(t.SessionID, t.Command, t.JobID, res.ExitCode, time.Since(start))
	clog.Debug("job %s finished: exit=%d elapsed=%s", t.JobID, res.ExitCode, time.Since(start))
}
