package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/term"
)

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show a session's command history",
	Long: `Show the resolved command history of a session in execution order.

Only commands that finished executing appear; queued and running jobs
show up once they resolve.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		history, err := c.CommandHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if len(history) == 0 {
			term.Println("no commands recorded")
			return nil
		}

		for _, entry := range history {
			term.Printf("[%s] $ %s  (exit %d, %s, %s risk)\n",
				entry.Timestamp.Format("15:04:05"), entry.Command,
				entry.ReturnCode, entry.Source, entry.RiskLevel)
			if entry.Output != "" {
				term.Print(indent(entry.Output))
			}
			if entry.Error != "" {
				term.Print(indent(entry.Error))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return "  " + strings.Join(lines, "\n  ") + "\n"
}
