// Package intake is the entry point for submitted commands. It classifies
// each command and either refuses it, parks it behind a human confirmation,
// or accepts it into the execution pipeline. Request paths never block on
// subprocess completion; that is what the job/polling split is for.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/termgate/termgate/internal/audit"
	"github.com/termgate/termgate/internal/clog"
	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/executor"
	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/risk"
	"github.com/termgate/termgate/internal/session"
	"github.com/termgate/termgate/internal/worker"
)

// ErrSessionNotFound indicates the session is unknown or no longer active.
var ErrSessionNotFound = errors.New("session not found or inactive")

// Enqueuer hands accepted jobs to the execution pool.
type Enqueuer interface {
	Enqueue(t worker.Task) error
}

// Disposition is the tagged variant of a submit outcome. Every field of
// Outcome that is populated is determined by the disposition, not by
// caller-side guessing.
type Disposition int

const (
	// Blocked means the classifier vetoed the command; nothing was created.
	Blocked Disposition = iota
	// PendingConfirmation means a human must approve before execution.
	PendingConfirmation
	// Accepted means a job was created and handed to the executor.
	Accepted
)

// Outcome is the result of submitting a command.
type Outcome struct {
	Disposition  Disposition
	RiskLevel    string
	Reason       string               // populated for Blocked and PendingConfirmation
	Job          job.Job              // populated for Accepted
	Confirmation confirm.Confirmation // populated for PendingConfirmation
}

// Intake coordinates the classifier, confirmation store, job store, and
// execution pool.
type Intake struct {
	sessions      *session.Registry
	classifier    risk.Classifier
	confirmations *confirm.Store
	jobs          *job.Store
	pool          Enqueuer
	exec          executor.Executor // direct executor for the synchronous path
	auditLog      *audit.Logger
}

// New creates an Intake. The audit logger may be nil.
func New(sessions *session.Registry, classifier risk.Classifier, confirmations *confirm.Store, jobs *job.Store, pool Enqueuer, exec executor.Executor, auditLog *audit.Logger) *Intake {
	return &Intake{
		sessions:      sessions,
		classifier:    classifier,
		confirmations: confirmations,
		jobs:          jobs,
		pool:          pool,
		exec:          exec,
		auditLog:      auditLog,
	}
}

// Submit classifies the command and routes it. Blocked commands create
// nothing; medium and high tiers create a pending confirmation; low tier
// creates a job and enqueues it immediately.
func (in *Intake) Submit(sessionID, command string, estimatedDuration int) (Outcome, error) {
	if err := in.requireActive(sessionID); err != nil {
		return Outcome{}, err
	}

	a := in.classifier.Classify(command)
	_ = in.auditLog.LogSubmit(sessionID, command, a.Tier.String())

	switch {
	case a.Tier == risk.TierBlocked:
		_ = in.auditLog.LogBlock(sessionID, command, a.Reason)
		clog.Info("blocked command for session %s: %s", sessionID, a.Reason)
		return Outcome{
			Disposition: Blocked,
			RiskLevel:   a.Tier.String(),
			Reason:      a.Reason,
		}, nil

	case a.Tier.RequiresConfirmation():
		c := in.confirmations.Create(sessionID, command, a.Tier.String(), a.Reason, estimatedDuration)
		_ = in.auditLog.LogConfirmRequest(sessionID, command, c.ID, a.Tier.String(), a.Reason)
		clog.Info("confirmation %s pending for session %s (risk %s)", c.ID, sessionID, a.Tier)
		return Outcome{
			Disposition:  PendingConfirmation,
			RiskLevel:    a.Tier.String(),
			Reason:       a.Reason,
			Confirmation: c,
		}, nil

	default:
		j, err := in.accept(sessionID, command, a.Tier.String(), estimatedDuration, session.SourceAssistantAsync)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Disposition: Accepted,
			RiskLevel:   a.Tier.String(),
			Job:         j,
		}, nil
	}
}

// Approve records an approval decision on a confirmation and, on success,
// enqueues the original command as a new job. The session must still be
// active; a confirmation for a session closed in the meantime is approved
// but cannot execute.
func (in *Intake) Approve(confirmationID string) (confirm.Confirmation, job.Job, error) {
	c, err := in.confirmations.Get(confirmationID)
	if err != nil {
		return confirm.Confirmation{}, job.Job{}, err
	}
	if c.Status == confirm.StatusExpired {
		_ = in.auditLog.LogExpire(c.SessionID, c.Command, c.ID)
		return c, job.Job{}, confirm.ErrAlreadyResolved
	}

	if err := in.requireActive(c.SessionID); err != nil {
		return c, job.Job{}, err
	}

	c, err = in.confirmations.Approve(confirmationID)
	if err != nil {
		return c, job.Job{}, err
	}
	_ = in.auditLog.LogApprove(c.SessionID, c.Command, c.ID)

	j, err := in.accept(c.SessionID, c.Command, c.RiskLevel, c.EstimatedDuration, session.SourceAssistantAsync)
	if err != nil {
		return c, job.Job{}, err
	}
	if c, err = in.confirmations.AttachJob(c.ID, j.ID); err != nil {
		clog.Warn("confirmation %s: cannot attach job %s: %v", c.ID, j.ID, err)
	}
	return c, j, nil
}

// Deny records a denial decision on a confirmation. No job is ever
// created for a denied command.
func (in *Intake) Deny(confirmationID string) (confirm.Confirmation, error) {
	c, err := in.confirmations.Deny(confirmationID)
	if err != nil {
		if errors.Is(err, confirm.ErrAlreadyResolved) && c.Status == confirm.StatusExpired {
			_ = in.auditLog.LogExpire(c.SessionID, c.Command, c.ID)
		}
		return c, err
	}
	_ = in.auditLog.LogDeny(c.SessionID, c.Command, c.ID)
	return c, nil
}

// accept creates the job and hands it to the pool. If the queue is at
// capacity the job is immediately failed so the record stays truthful.
func (in *Intake) accept(sessionID, command, riskLevel string, estimatedDuration int, source session.Source) (job.Job, error) {
	j := in.jobs.Create(sessionID, command, estimatedDuration)
	t := worker.Task{
		JobID:     j.ID,
		SessionID: sessionID,
		Command:   command,
		RiskLevel: riskLevel,
		Source:    source,
	}
	if err := in.pool.Enqueue(t); err != nil {
		_ = in.jobs.Finish(j.ID, "", "execution queue full", -1)
		return job.Job{}, fmt.Errorf("enqueue job %s: %w", j.ID, err)
	}
	_ = in.auditLog.LogAccept(sessionID, command, j.ID, riskLevel)
	clog.Debug("job %s queued for session %s", j.ID, sessionID)
	return j, nil
}

// SyncResult is the outcome of a synchronous execution.
type SyncResult struct {
	Command        string
	Output         string
	ErrorOutput    string
	ReturnCode     int
	ElapsedSeconds float64
}

// RunSync executes a low-risk command synchronously, blocking the caller
// until it finishes. Risk gating is identical to Submit: blocked and
// confirmation-tier commands never execute here, they come back as the
// corresponding Outcome so the caller can fall back to the async path.
func (in *Intake) RunSync(ctx context.Context, sessionID, command string) (Outcome, SyncResult, error) {
	if err := in.requireActive(sessionID); err != nil {
		return Outcome{}, SyncResult{}, err
	}

	a := in.classifier.Classify(command)
	_ = in.auditLog.LogSubmit(sessionID, command, a.Tier.String())

	if a.Tier == risk.TierBlocked {
		_ = in.auditLog.LogBlock(sessionID, command, a.Reason)
		return Outcome{Disposition: Blocked, RiskLevel: a.Tier.String(), Reason: a.Reason}, SyncResult{}, nil
	}
	if a.Tier.RequiresConfirmation() {
		c := in.confirmations.Create(sessionID, command, a.Tier.String(), a.Reason, 0)
		_ = in.auditLog.LogConfirmRequest(sessionID, command, c.ID, a.Tier.String(), a.Reason)
		return Outcome{
			Disposition:  PendingConfirmation,
			RiskLevel:    a.Tier.String(),
			Reason:       a.Reason,
			Confirmation: c,
		}, SyncResult{}, nil
	}

	start := time.Now()
	res := in.exec.Run(ctx, command)
	elapsed := time.Since(start)

	errOutput := res.Stderr
	if detail := res.ErrorDetail(); detail != "" && errOutput == "" {
		errOutput = detail
	}

	entry := session.HistoryEntry{
		Command:    command,
		Output:     res.Stdout,
		Error:      errOutput,
		ReturnCode: res.ExitCode,
		Timestamp:  time.Now(),
		Source:     session.SourceAssistant,
		RiskLevel:  a.Tier.String(),
	}
	if err := in.sessions.AppendHistory(sessionID, entry); err != nil {
		clog.Warn("session %s: cannot append history: %v", sessionID, err)
	}
	_ = in.auditLog.LogComplete(sessionID, command, "", res.ExitCode, elapsed)

	return Outcome{Disposition: Accepted, RiskLevel: a.Tier.String()}, SyncResult{
		Command:        command,
		Output:         res.Stdout,
		ErrorOutput:    errOutput,
		ReturnCode:     res.ExitCode,
		ElapsedSeconds: elapsed.Seconds(),
	}, nil
}

// requireActive maps unknown and closed sessions to ErrSessionNotFound.
func (in *Intake) requireActive(sessionID string) error {
	s, err := in.sessions.Get(sessionID)
	if err != nil || !s.Active {
		return ErrSessionNotFound
	}
	return nil
}
