package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/client"
	"github.com/termgate/termgate/internal/term"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long:  `Show server liveness and execution pipeline stats.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Health does not require authentication, so a missing API key
		// should not stop a status check.
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		serverURL := cfg.Client.ServerURL
		if flagServer != "" {
			serverURL = flagServer
		}
		c := client.NewClient(serverURL, os.Getenv(EnvAPIKey))

		h, err := c.HealthCheck(cmd.Context())
		if err != nil {
			term.Printf("Status: unreachable (%v)\n", err)
			return NewExitCodeError(1)
		}

		term.Printf("Status: %s\n", h.Status)
		term.Printf("Sessions: %d\n", h.Sessions)
		term.Printf("Pending jobs: %d\n", h.PendingJobs)
		term.Printf("Pending confirmations: %d\n", h.PendingConfirmations)
		term.Printf("Queue depth: %d\n", h.QueueDepth)
		term.Printf("Active workers: %d\n", h.ActiveWorkers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
