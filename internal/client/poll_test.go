package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/job"
)

// scriptedClient returns a client whose server replays one canned
// response per request, repeating the last one when the script runs out.
func scriptedClient(t *testing.T, script []func(w http.ResponseWriter)) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(script) {
			n = len(script) - 1
		}
		script[n](w)
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, "test-key")
	c.TickInterval = time.Millisecond
	return c, &calls
}

func jobResponse(t *testing.T, j job.Job) func(w http.ResponseWriter) {
	t.Helper()
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(j); err != nil {
			t.Errorf("encode job: %v", err)
		}
	}
}

func confResponse(t *testing.T, c confirm.Confirmation) func(w http.ResponseWriter) {
	t.Helper()
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(c); err != nil {
			t.Errorf("encode confirmation: %v", err)
		}
	}
}

func serverError(w http.ResponseWriter) {
	http.Error(w, "boom", http.StatusInternalServerError)
}

func TestPollJob(t *testing.T) {
	t.Run("returns on terminal state", func(t *testing.T) {
		c, calls := scriptedClient(t, []func(w http.ResponseWriter){
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusQueued}),
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusRunning}),
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusCompleted, Output: "done\n"}),
		})

		j, err := c.PollJob(context.Background(), "j-1", []int{0, 1, 1, 1, 1})
		if err != nil {
			t.Fatalf("PollJob() error: %v", err)
		}
		if j.Status != job.StatusCompleted {
			t.Errorf("status = %q, want completed", j.Status)
		}
		if j.Output != "done\n" {
			t.Errorf("output = %q", j.Output)
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("polled %d times, want 3", got)
		}
	})

	t.Run("exhausted schedule keeps the snapshot", func(t *testing.T) {
		c, calls := scriptedClient(t, []func(w http.ResponseWriter){
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusRunning}),
		})

		j, err := c.PollJob(context.Background(), "j-1", []int{0, 1})
		if !errors.Is(err, ErrPollExhausted) {
			t.Fatalf("error = %v, want ErrPollExhausted", err)
		}
		if j.Status != job.StatusRunning {
			t.Errorf("snapshot status = %q, want running", j.Status)
		}
		if got := calls.Load(); got != 2 {
			t.Errorf("polled %d times, want 2", got)
		}
	})

	t.Run("tolerates a failed poll", func(t *testing.T) {
		c, _ := scriptedClient(t, []func(w http.ResponseWriter){
			serverError,
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusCompleted}),
		})

		j, err := c.PollJob(context.Background(), "j-1", []int{0, 1, 1})
		if err != nil {
			t.Fatalf("PollJob() error: %v", err)
		}
		if j.Status != job.StatusCompleted {
			t.Errorf("status = %q, want completed", j.Status)
		}
	})

	t.Run("context cancel stops polling", func(t *testing.T) {
		c, _ := scriptedClient(t, []func(w http.ResponseWriter){
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusRunning}),
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.PollJob(ctx, "j-1", []int{5, 5})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("empty schedule uses the default", func(t *testing.T) {
		c, _ := scriptedClient(t, []func(w http.ResponseWriter){
			jobResponse(t, job.Job{ID: "j-1", Status: job.StatusCompleted}),
		})

		j, err := c.PollJob(context.Background(), "j-1", nil)
		if err != nil {
			t.Fatalf("PollJob() error: %v", err)
		}
		if j.Status != job.StatusCompleted {
			t.Errorf("status = %q, want completed", j.Status)
		}
	})
}

func TestPollConfirmation(t *testing.T) {
	t.Run("approved carries the job ID", func(t *testing.T) {
		c, _ := scriptedClient(t, []func(w http.ResponseWriter){
			confResponse(t, confirm.Confirmation{ID: "c-1", Status: confirm.StatusPending}),
			confResponse(t, confirm.Confirmation{ID: "c-1", Status: confirm.StatusApproved, JobID: "j-7"}),
		})

		conf, err := c.PollConfirmation(context.Background(), "c-1", []int{0, 1, 1})
		if err != nil {
			t.Fatalf("PollConfirmation() error: %v", err)
		}
		if conf.Status != confirm.StatusApproved {
			t.Errorf("status = %q, want approved", conf.Status)
		}
		if conf.JobID != "j-7" {
			t.Errorf("JobID = %q, want j-7", conf.JobID)
		}
	})

	t.Run("expiry is terminal", func(t *testing.T) {
		c, calls := scriptedClient(t, []func(w http.ResponseWriter){
			confResponse(t, confirm.Confirmation{ID: "c-1", Status: confirm.StatusExpired}),
		})

		conf, err := c.PollConfirmation(context.Background(), "c-1", []int{0, 1, 1})
		if err != nil {
			t.Fatalf("PollConfirmation() error: %v", err)
		}
		if conf.Status != confirm.StatusExpired {
			t.Errorf("status = %q, want expired", conf.Status)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("polled %d times, want 1", got)
		}
	})

	t.Run("still pending exhausts the schedule", func(t *testing.T) {
		c, _ := scriptedClient(t, []func(w http.ResponseWriter){
			confResponse(t, confirm.Confirmation{ID: "c-1", Status: confirm.StatusPending}),
		})

		conf, err := c.PollConfirmation(context.Background(), "c-1", []int{0, 1})
		if !errors.Is(err, ErrPollExhausted) {
			t.Fatalf("error = %v, want ErrPollExhausted", err)
		}
		if conf.Status != confirm.StatusPending {
			t.Errorf("snapshot status = %q, want pending", conf.Status)
		}
	})
}
