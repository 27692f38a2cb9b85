package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/client"
	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/term"
)

var (
	sendSession  string
	sendEstimate int
	sendNoWait   bool
)

var sendCmd = &cobra.Command{
	Use:   "send [flags] -- <command>...",
	Short: "Submit a command for asynchronous execution",
	Long: `Submit a command for asynchronous execution.

The server classifies the command by risk. Low-risk commands are queued
immediately and this command polls the job until it finishes. Commands
needing human approval wait in a confirmation; this command polls the
confirmation and, once approved, follows the job. Blocked commands are
refused.

With --no-wait the job or confirmation ID is printed and polling is
skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendSession, "session", "s", "", "session ID (required)")
	sendCmd.Flags().IntVar(&sendEstimate, "estimate", 0, "estimated duration in seconds")
	sendCmd.Flags().BoolVar(&sendNoWait, "no-wait", false, "submit without polling for the result")
	_ = sendCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	c, cfg, err := newClient()
	if err != nil {
		return err
	}

	command := strings.Join(args, " ")
	out, err := c.SendAsyncCommand(cmd.Context(), sendSession, command, sendEstimate)
	if err != nil {
		return err
	}

	switch out.Status {
	case "blocked":
		return fmt.Errorf("command blocked (%s risk): %s", out.RiskLevel, out.Reason)

	case "confirmation_required":
		term.Printf("Confirmation required (%s risk): %s\n", out.RiskLevel, out.Reason)
		term.Printf("Confirmation: %s (expires %s)\n", out.ConfirmationID, out.ExpiresAt)
		if sendNoWait {
			return nil
		}
		return followConfirmation(cmd.Context(), c, out.ConfirmationID, cfg.Client.ConfirmationPollSchedule, cfg.Client.JobPollSchedule)

	case "queued":
		term.Printf("Job: %s\n", out.JobID)
		if sendNoWait {
			return nil
		}
		return followJob(cmd.Context(), c, out.JobID, cfg.Client.JobPollSchedule)

	default:
		return fmt.Errorf("unexpected submission status %q", out.Status)
	}
}

// followJob polls the job and renders the result. An exhausted schedule
// is not a failure: the job ID is printed so the caller can resume.
func followJob(ctx context.Context, c *client.Client, jobID string, schedule []int) error {
	j, err := c.PollJob(ctx, jobID, schedule)
	if err != nil {
		if errors.Is(err, client.ErrPollExhausted) {
			term.Println(resumeHint(jobID))
			return nil
		}
		return err
	}
	return renderJob(j)
}

// followConfirmation polls the confirmation and, once approved, follows
// the resulting job.
func followConfirmation(ctx context.Context, c *client.Client, confirmationID string, confSchedule, jobSchedule []int) error {
	conf, err := c.PollConfirmation(ctx, confirmationID, confSchedule)
	if err != nil {
		if errors.Is(err, client.ErrPollExhausted) {
			term.Printf("still pending; check later with 'termgate confirmation %s'\n", confirmationID)
			return nil
		}
		return err
	}

	switch conf.Status {
	case confirm.StatusApproved:
		term.Printf("Approved; job %s\n", conf.JobID)
		return followJob(ctx, c, conf.JobID, jobSchedule)
	case confirm.StatusDenied:
		return fmt.Errorf("command denied by operator")
	case confirm.StatusExpired:
		return fmt.Errorf("confirmation expired before a decision was made")
	default:
		return fmt.Errorf("unexpected confirmation status %q", conf.Status)
	}
}
