// Package cmd implements the CLI commands for termgate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/client"
	"github.com/termgate/termgate/internal/clog"
	"github.com/termgate/termgate/internal/config"
	"github.com/termgate/termgate/internal/term"
	"github.com/termgate/termgate/internal/version"
)

// EnvAPIKey is the environment variable holding the shared API key.
// The server refuses to start without it; clients send it as a bearer
// token on every API request.
const EnvAPIKey = "TERMGATE_API_KEY"

var (
	flagConfig string
	flagDebug  bool
	flagSilent bool
	flagServer string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "termgate",
	Short: "Risk-gated command execution service",
	Long: `Termgate runs shell commands on behalf of AI assistants through a
risk-based approval workflow.

Low-risk commands execute immediately. Risky commands wait for human
confirmation, and destructive commands are refused outright. Every
executed command is recorded in an append-only session history that
humans can watch live in a browser.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		term.SetSilent(flagSilent)
		if err := clog.Configure(clog.DefaultLogPath(), flagDebug, false); err != nil {
			// Logging to file is best-effort; stderr logging still works.
			term.Warn("cannot open log file: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.config/termgate/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagSilent, "silent", false, "suppress informational output")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (default from config)")
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}

// newClient builds an API client from the config, the --server flag, and
// the API key environment variable.
func newClient() (*client.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	serverURL := cfg.Client.ServerURL
	if flagServer != "" {
		serverURL = flagServer
	}

	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, nil, fmt.Errorf("%s is not set; the server requires a bearer token", EnvAPIKey)
	}

	return client.NewClient(serverURL, apiKey), cfg, nil
}
