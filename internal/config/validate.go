package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that a parsed Config contains valid values:
//   - Listen is a valid host:port or ":port"
//   - Duration strings are parseable
//   - Workers and QueueCapacity are non-negative
//   - Risk rule regex patterns compile
//   - Poll schedule entries are non-negative
//   - Log.Level is one of: debug, info, warn, error (if non-empty)
//
// Returns nil if the config is valid, or an error indicating which field
// is invalid.
func Validate(cfg *Config) error {
	if cfg.Server.Listen != "" {
		if err := validateListenAddr(cfg.Server.Listen, "server.listen"); err != nil {
			return err
		}
	}
	if cfg.Server.CommandTimeout != "" {
		if err := validateDuration(cfg.Server.CommandTimeout, "server.command_timeout"); err != nil {
			return err
		}
	}
	if cfg.Server.ConfirmationTTL != "" {
		if err := validateDuration(cfg.Server.ConfirmationTTL, "server.confirmation_ttl"); err != nil {
			return err
		}
	}
	if cfg.Server.Workers < 0 {
		return fmt.Errorf("server.workers: must be non-negative, got %d", cfg.Server.Workers)
	}
	if cfg.Server.QueueCapacity < 0 {
		return fmt.Errorf("server.queue_capacity: must be non-negative, got %d", cfg.Server.QueueCapacity)
	}

	if err := validateRules(cfg.Risk.Blocked, "risk.blocked"); err != nil {
		return err
	}
	if err := validateRules(cfg.Risk.High, "risk.high"); err != nil {
		return err
	}
	if err := validateRules(cfg.Risk.Medium, "risk.medium"); err != nil {
		return err
	}

	if err := validateSchedule(cfg.Client.JobPollSchedule, "client.job_poll_schedule"); err != nil {
		return err
	}
	if err := validateSchedule(cfg.Client.ConfirmationPollSchedule, "client.confirmation_poll_schedule"); err != nil {
		return err
	}

	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: must be one of debug, info, warn, error; got %q", cfg.Log.Level)
	}

	return nil
}

// validateListenAddr validates a listen address in host:port or ":port" form.
func validateListenAddr(addr, field string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: invalid address %q: %v", field, addr, err)
	}
	_ = host // empty host means all interfaces
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s: invalid port in %q", field, addr)
	}
	return nil
}

// validateDuration validates that a duration string parses.
func validateDuration(s, field string) error {
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("%s: invalid duration %q: %v", field, s, err)
	}
	return nil
}

// validateRules validates that all rule patterns compile.
func validateRules(rules []RiskRule, field string) error {
	for i, r := range rules {
		if r.Pattern == "" {
			return fmt.Errorf("%s[%d]: pattern must not be empty", field, i)
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("%s[%d]: invalid pattern %q: %v", field, i, r.Pattern, err)
		}
	}
	return nil
}

// validateSchedule validates that all poll delays are non-negative.
func validateSchedule(schedule []int, field string) error {
	for i, s := range schedule {
		if s < 0 {
			return fmt.Errorf("%s[%d]: delay must be non-negative, got %d", field, i, s)
		}
	}
	return nil
}
