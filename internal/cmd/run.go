package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/term"
)

var runSession string

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command>...",
	Short: "Run a low-risk command synchronously",
	Long: `Run a command synchronously, blocking until it finishes.

Only low-risk commands execute on this path. Commands that need human
approval come back with a confirmation ID; use 'termgate send' for the
full confirmation flow.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		command := strings.Join(args, " ")
		res, err := c.RunCommand(cmd.Context(), runSession, command)
		if err != nil {
			return err
		}

		switch res.Status {
		case "blocked":
			return fmt.Errorf("command blocked (%s risk): %s", res.RiskLevel, res.Reason)
		case "confirmation_required":
			return fmt.Errorf("command needs approval (confirmation %s); use 'termgate send' to wait for it", res.ConfirmationID)
		}

		if res.Output != "" {
			term.Print(ensureNewline(res.Output))
		}
		if res.Error != "" {
			term.Error("%s", strings.TrimRight(res.Error, "\n"))
		}
		if res.ReturnCode != 0 {
			return NewExitCodeError(res.ReturnCode)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "session ID (required)")
	_ = runCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(runCmd)
}
