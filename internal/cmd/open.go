package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/term"
)

var openCmd = &cobra.Command{
	Use:   "open [session-id]",
	Short: "Open a new session",
	Long: `Open a new session on the termgate server.

A session groups commands and their append-only history. Pass an ID to
name the session yourself, or omit it to let the server generate one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		id := ""
		if len(args) == 1 {
			id = args[0]
		}

		sess, err := c.CreateSession(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}

		term.Printf("Session: %s\n", sess.ID)
		term.Printf("Terminal: %s/terminal/%s\n", c.BaseURL, sess.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
