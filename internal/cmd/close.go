package cmd

import (
	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/term"
)

var closeCmd = &cobra.Command{
	Use:   "close <session-id>",
	Short: "Close a session",
	Long: `Close a session.

A closed session stops accepting new commands. Commands already accepted
keep running and their results are still recorded. Closing a session
twice is an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		sess, err := c.CloseSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		term.Printf("Session %s closed\n", sess.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}
