package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		data := []byte(`
server:
  listen: ":8080"
  command_timeout: 1m
  confirmation_ttl: 30s
  workers: 2
  queue_capacity: 64
  audit_log: /var/log/termgate-audit.log
client:
  server_url: http://gateway:8080
  job_poll_schedule: [0, 1, 2]
  confirmation_poll_schedule: [1, 1, 1]
risk:
  blocked:
    - pattern: 'never-run-this'
      reason: forbidden
log:
  level: debug
  file: /tmp/termgate.log
`)
		cfg, err := Parse(data)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}
		if cfg.Server.Listen != ":8080" {
			t.Errorf("Listen = %q, want :8080", cfg.Server.Listen)
		}
		if cfg.Server.Workers != 2 || cfg.Server.QueueCapacity != 64 {
			t.Errorf("pool config = %d/%d, want 2/64", cfg.Server.Workers, cfg.Server.QueueCapacity)
		}
		if cfg.Client.ServerURL != "http://gateway:8080" {
			t.Errorf("ServerURL = %q", cfg.Client.ServerURL)
		}
		if len(cfg.Client.JobPollSchedule) != 3 {
			t.Errorf("JobPollSchedule = %v, want 3 entries", cfg.Client.JobPollSchedule)
		}
		if len(cfg.Risk.Blocked) != 1 || cfg.Risk.Blocked[0].Reason != "forbidden" {
			t.Errorf("Blocked = %+v", cfg.Risk.Blocked)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Level = %q, want debug", cfg.Log.Level)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		cfg, err := Parse(nil)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}
		if cfg.Server.Listen != "" {
			t.Errorf("expected zero-value config, got %+v", cfg)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := Parse([]byte("server:\n  listne: ':8080'\n"))
		if err == nil {
			t.Error("expected error for unknown field")
		}
	})

	t.Run("type mismatch rejected", func(t *testing.T) {
		_, err := Parse([]byte("server:\n  workers: many\n"))
		if err == nil {
			t.Error("expected error for type mismatch")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		if err := Validate(valid()); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad listen", func(c *Config) { c.Server.Listen = "no-port" }, "server.listen"},
		{"bad port", func(c *Config) { c.Server.Listen = ":99999" }, "server.listen"},
		{"bad timeout", func(c *Config) { c.Server.CommandTimeout = "five minutes" }, "server.command_timeout"},
		{"bad ttl", func(c *Config) { c.Server.ConfirmationTTL = "2x" }, "server.confirmation_ttl"},
		{"negative workers", func(c *Config) { c.Server.Workers = -1 }, "server.workers"},
		{"negative capacity", func(c *Config) { c.Server.QueueCapacity = -1 }, "server.queue_capacity"},
		{"bad rule regex", func(c *Config) { c.Risk.High = []RiskRule{{Pattern: "[oops"}} }, "risk.high"},
		{"empty rule pattern", func(c *Config) { c.Risk.Medium = []RiskRule{{Pattern: ""}} }, "risk.medium"},
		{"negative poll delay", func(c *Config) { c.Client.JobPollSchedule = []int{0, -1} }, "client.job_poll_schedule"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Server.Listen, DefaultListen)
	}
	if cfg.Server.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Server.Workers, DefaultWorkers)
	}
	if len(cfg.Client.JobPollSchedule) != 5 {
		t.Errorf("JobPollSchedule = %v", cfg.Client.JobPollSchedule)
	}

	// Explicit values survive.
	cfg = &Config{Server: ServerConfig{Listen: ":9000", Workers: 1}}
	ApplyDefaults(cfg)
	if cfg.Server.Listen != ":9000" || cfg.Server.Workers != 1 {
		t.Errorf("explicit values overwritten: %+v", cfg.Server)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.CommandTimeout(); got != 5*time.Minute {
		t.Errorf("CommandTimeout() = %v, want 5m", got)
	}
	if got := cfg.ConfirmationTTL(); got != 2*time.Minute {
		t.Errorf("ConfirmationTTL() = %v, want 2m", got)
	}

	cfg.Server.CommandTimeout = "30s"
	if got := cfg.CommandTimeout(); got != 30*time.Second {
		t.Errorf("CommandTimeout() = %v, want 30s", got)
	}

	// Unparseable values fall back to the default rather than zero.
	cfg.Server.CommandTimeout = "garbage"
	if got := cfg.CommandTimeout(); got != 5*time.Minute {
		t.Errorf("CommandTimeout() = %v, want fallback 5m", got)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Server.Listen != DefaultListen {
			t.Errorf("Listen = %q, want default", cfg.Server.Listen)
		}
	})

	t.Run("file values merged with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := "server:\n  listen: \":9999\"\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("WriteFile() error: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Server.Listen != ":9999" {
			t.Errorf("Listen = %q, want :9999", cfg.Server.Listen)
		}
		if cfg.Server.Workers != DefaultWorkers {
			t.Errorf("Workers = %d, want default %d", cfg.Server.Workers, DefaultWorkers)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("server:\n  listen: 'no-port'\n"), 0o600); err != nil {
			t.Fatalf("WriteFile() error: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("expands home in paths", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := "server:\n  audit_log: ~/audit.log\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("WriteFile() error: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if strings.HasPrefix(cfg.Server.AuditLog, "~") {
			t.Errorf("AuditLog = %q, want ~ expanded", cfg.Server.AuditLog)
		}
	})
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	want := filepath.Join("/custom/config", "termgate", "config.yaml")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
