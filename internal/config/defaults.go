package config

// Default values applied when the config file omits a field.
const (
	DefaultListen          = ":7681"
	DefaultServerURL       = "http://localhost:7681"
	DefaultCommandTimeout  = "5m"
	DefaultConfirmationTTL = "2m"
	DefaultWorkers         = 4
	DefaultQueueCapacity   = 256
)

// DefaultJobPollSchedule is the ascending-then-flat wait schedule (in
// seconds) for job status polling. The first check is immediate since
// short commands often finish before the caller turns around.
func DefaultJobPollSchedule() []int {
	return []int{0, 2, 5, 10, 20}
}

// DefaultConfirmationPollSchedule is the wait schedule (in seconds) for
// confirmation status polling. Checks are closer together because a human
// decision usually arrives early or not at all.
func DefaultConfirmationPollSchedule() []int {
	return []int{2, 3, 5, 5, 5}
}

// DefaultConfig returns a Config with all defaults populated.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListen,
			CommandTimeout:  DefaultCommandTimeout,
			ConfirmationTTL: DefaultConfirmationTTL,
			Workers:         DefaultWorkers,
			QueueCapacity:   DefaultQueueCapacity,
		},
		Client: ClientConfig{
			ServerURL:                DefaultServerURL,
			JobPollSchedule:          DefaultJobPollSchedule(),
			ConfirmationPollSchedule: DefaultConfirmationPollSchedule(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills zero-value fields with defaults in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.CommandTimeout == "" {
		cfg.Server.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Server.ConfirmationTTL == "" {
		cfg.Server.ConfirmationTTL = DefaultConfirmationTTL
	}
	if cfg.Server.Workers == 0 {
		cfg.Server.Workers = DefaultWorkers
	}
	if cfg.Server.QueueCapacity == 0 {
		cfg.Server.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = DefaultServerURL
	}
	if len(cfg.Client.JobPollSchedule) == 0 {
		cfg.Client.JobPollSchedule = DefaultJobPollSchedule()
	}
	if len(cfg.Client.ConfirmationPollSchedule) == 0 {
		cfg.Client.ConfirmationPollSchedule = DefaultConfirmationPollSchedule()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
