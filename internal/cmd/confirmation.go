package cmd

import (
	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/term"
)

var confirmationCmd = &cobra.Command{
	Use:   "confirmation <id>",
	Short: "Show the status of a pending confirmation",
	Long: `Show the status of a confirmation.

A pending confirmation past its approval window is reported as expired.
The ID may be a unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		conf, err := c.ConfirmationStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderConfirmation(conf)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending confirmation",
	Long: `Approve a pending confirmation.

The confirmed command is queued for execution and the new job ID is
printed. Approving an expired or already-decided confirmation is an
error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		res, err := c.Decide(cmd.Context(), args[0], "approve")
		if err != nil {
			return err
		}
		term.Printf("Confirmation %s approved; job %s queued\n", res.ConfirmationID, res.JobID)
		return nil
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <id>",
	Short: "Deny a pending confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		res, err := c.Decide(cmd.Context(), args[0], "deny")
		if err != nil {
			return err
		}
		term.Printf("Confirmation %s denied\n", res.ConfirmationID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(confirmationCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(denyCmd)
}

func renderConfirmation(conf confirm.Confirmation) {
	term.Printf("Confirmation %s: %s\n", conf.ID, conf.Status)
	term.Printf("Command: %s\n", conf.Command)
	term.Printf("Risk: %s (%s)\n", conf.RiskLevel, conf.Reason)
	switch conf.Status {
	case confirm.StatusPending:
		term.Printf("Expires: %s\n", conf.ExpiresAt.Format("2006-01-02 15:04:05"))
	case confirm.StatusApproved:
		if conf.JobID != "" {
			term.Printf("Job: %s\n", conf.JobID)
		}
	}
}
