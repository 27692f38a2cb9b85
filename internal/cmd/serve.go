package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/termgate/termgate/internal/audit"
	"github.com/termgate/termgate/internal/clog"
	"github.com/termgate/termgate/internal/config"
	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/executor"
	"github.com/termgate/termgate/internal/intake"
	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/risk"
	"github.com/termgate/termgate/internal/server"
	"github.com/termgate/termgate/internal/session"
	"github.com/termgate/termgate/internal/term"
	"github.com/termgate/termgate/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the termgate API server",
	Long: `Run the termgate API server.

The server accepts command submissions over HTTP, classifies each command
by risk, and routes it to immediate execution, human confirmation, or
refusal. Sessions, jobs, and confirmations are held in memory only and
do not survive a restart.

The ` + EnvAPIKey + ` environment variable must be set; its value is the
bearer token clients authenticate with.

Blocks until interrupted (SIGINT/SIGTERM).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Refuse to start without a key rather than serving an open endpoint.
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%s is not set; refusing to start without authentication", EnvAPIKey)
	}

	// Server mode: logs go to file only, stderr stays clean.
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = clog.DefaultLogPath()
	}
	if err := clog.Configure(logPath, flagDebug, true); err != nil {
		term.Warn("cannot open log file: %v", err)
	}
	if !flagDebug && cfg.Log.Level != "" {
		clog.SetLevel(clog.ParseLevel(cfg.Log.Level))
	}

	auditLog, closeAudit, err := openAuditLog(cfg)
	if err != nil {
		return err
	}
	defer closeAudit()

	sessions := session.NewRegistry()
	jobs := job.NewStore()
	confirmations := confirm.NewStoreWithTTL(cfg.ConfirmationTTL())
	exec := executor.NewShellExecutor(cfg.CommandTimeout())

	pool := worker.NewPool(jobs, sessions, exec, auditLog, cfg.Server.Workers, cfg.Server.QueueCapacity)
	pool.Start()
	defer pool.Stop()

	in := intake.New(sessions, buildClassifier(cfg), confirmations, jobs, pool, exec, auditLog)

	srv := server.NewServer(apiKey, sessions, jobs, confirmations, in, pool, auditLog)
	srv.Addr = cfg.Server.Listen

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	clog.Info("termgate listening on %s (%d workers, queue capacity %d)",
		srv.ListenAddr(), cfg.Server.Workers, cfg.Server.QueueCapacity)
	term.Printf("termgate listening on %s\n", srv.ListenAddr())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	clog.Debug("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	clog.Debug("server stopped")
	return nil
}

// buildClassifier creates the risk classifier from config rules, falling
// back to the built-in rule set when the config defines none.
func buildClassifier(cfg *config.Config) risk.Classifier {
	if len(cfg.Risk.Blocked) == 0 && len(cfg.Risk.High) == 0 && len(cfg.Risk.Medium) == 0 {
		return risk.NewDefault()
	}
	return risk.NewRuleMatcher(
		toRiskRules(cfg.Risk.Blocked),
		toRiskRules(cfg.Risk.High),
		toRiskRules(cfg.Risk.Medium),
	)
}

func toRiskRules(rules []config.RiskRule) []risk.Rule {
	out := make([]risk.Rule, len(rules))
	for i, r := range rules {
		out[i] = risk.Rule{Pattern: r.Pattern, Reason: r.Reason}
	}
	return out
}

// openAuditLog opens the configured audit log for appending. An empty
// path disables audit logging; the returned logger is nil and safe to use.
func openAuditLog(cfg *config.Config) (*audit.Logger, func(), error) {
	if cfg.Server.AuditLog == "" {
		return nil, func() {}, nil
	}

	f, err := os.OpenFile(cfg.Server.AuditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open audit log %s: %w", cfg.Server.AuditLog, err)
	}
	return audit.NewLogger(f), func() { _ = f.Close() }, nil
}
