// Package config provides configuration types for termgate. These types
// map to the YAML configuration file; the API key is deliberately not among
// them and comes only from the environment.
package config

// Config is the top-level configuration for termgate.
// It is typically stored at ~/.config/termgate/config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server,omitempty"`
	Client ClientConfig `yaml:"client,omitempty"`
	Risk   RiskConfig   `yaml:"risk,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
}

// ServerConfig contains settings for the termgate server.
type ServerConfig struct {
	Listen          string `yaml:"listen,omitempty"`
	CommandTimeout  string `yaml:"command_timeout,omitempty"`
	ConfirmationTTL string `yaml:"confirmation_ttl,omitempty"`
	Workers         int    `yaml:"workers,omitempty"`
	QueueCapacity   int    `yaml:"queue_capacity,omitempty"`
	AuditLog        string `yaml:"audit_log,omitempty"`
}

// ClientConfig contains settings for the termgate client commands.
type ClientConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	// JobPollSchedule is the seconds to wait before each job status
	// check. The schedule bounds one polling attempt; polling can be
	// resumed with the same job ID after it is exhausted.
	JobPollSchedule []int `yaml:"job_poll_schedule,omitempty"`
	// ConfirmationPollSchedule is the seconds to wait before each
	// confirmation status check.
	ConfirmationPollSchedule []int `yaml:"confirmation_poll_schedule,omitempty"`
}

// RiskConfig overrides the built-in risk rule sets per tier.
// Leaving a tier empty keeps the built-in rules for that tier.
type RiskConfig struct {
	Blocked []RiskRule `yaml:"blocked,omitempty"`
	High    []RiskRule `yaml:"high,omitempty"`
	Medium  []RiskRule `yaml:"medium,omitempty"`
}

// RiskRule is one regex pattern with the reason reported on match.
type RiskRule struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason,omitempty"`
}

// LogConfig contains operational logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}
