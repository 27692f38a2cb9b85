package client

import (
	"context"
	"errors"
	"time"

	"github.com/termgate/termgate/internal/clog"
	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/job"
)

// ErrPollExhausted indicates the poll schedule ran out before the
// resource reached a terminal state. The caller keeps the ID and can
// resume polling later.
var ErrPollExhausted = errors.New("poll schedule exhausted")

// DefaultJobSchedule is the default wait schedule, in seconds, between
// successive job status polls.
func DefaultJobSchedule() []int { return []int{0, 2, 5, 10, 20} }

// DefaultConfirmationSchedule is the default wait schedule, in seconds,
// between successive confirmation status polls.
func DefaultConfirmationSchedule() []int { return []int{2, 3, 5, 5, 5} }

// wait sleeps for ticks schedule units, honoring context cancellation.
func (c *Client) wait(ctx context.Context, ticks int) error {
	if ticks <= 0 {
		return ctx.Err()
	}
	interval := c.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	timer := time.NewTimer(time.Duration(ticks) * interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PollJob polls the job until it reaches a terminal state or the
// schedule is exhausted. Each schedule entry is a wait, in schedule
// units, before the next poll. Transport errors are treated as "not
// finished yet" and polling continues; the job is still running
// server-side even if one poll cannot reach it.
//
// Returns the last observed snapshot. When the schedule runs out first,
// the error is ErrPollExhausted and the snapshot is still valid.
func (c *Client) PollJob(ctx context.Context, jobID string, schedule []int) (job.Job, error) {
	if len(schedule) == 0 {
		schedule = DefaultJobSchedule()
	}

	var last job.Job
	for _, ticks := range schedule {
		if err := c.wait(ctx, ticks); err != nil {
			return last, err
		}

		j, err := c.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			clog.Debug("poll job %s: %v", jobID, err)
			continue
		}
		last = j
		if j.Status.Terminal() {
			return j, nil
		}
	}
	return last, ErrPollExhausted
}

// PollConfirmation polls the confirmation until a human decides, it
// expires, or the schedule is exhausted. Error semantics match PollJob.
func (c *Client) PollConfirmation(ctx context.Context, confirmationID string, schedule []int) (confirm.Confirmation, error) {
	if len(schedule) == 0 {
		schedule = DefaultConfirmationSchedule()
	}

	var last confirm.Confirmation
	for _, ticks := range schedule {
		if err := c.wait(ctx, ticks); err != nil {
			return last, err
		}

		conf, err := c.ConfirmationStatus(ctx, confirmationID)
		if err != nil {
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			clog.Debug("poll confirmation %s: %v", confirmationID, err)
			continue
		}
		last = conf
		if conf.Status.Terminal() {
			return conf, nil
		}
	}
	return last, ErrPollExhausted
}
