package config

import (
	"time"

	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/pkg/config"
)

// Analyzer holds analyzer-specific configuration.
type Analyzer struct {
	// Channels are the chat channels processed on the live and backlog paths.
	Channels []string `mapstructure:"channels"`
	// CorroborationChannels are consulted by the optional single-letter
	// corroboration pass. Empty disables the pass.
	CorroborationChannels []string `mapstructure:"corroboration_channels"`

	GateThreshold      float64       `mapstructure:"gate_threshold"`
	FreshnessWindow    time.Duration `mapstructure:"freshness_window"`
	HistoryCap         int           `mapstructure:"history_cap"`
	MaxCandidates      int           `mapstructure:"max_candidates"`
	CorroborationLimit int           `mapstructure:"corroboration_limit"`
	BacklogCutoffDays  int           `mapstructure:"backlog_cutoff_days"`
	BacklogPageSize    int           `mapstructure:"backlog_page_size"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	PollBatchSize      int           `mapstructure:"poll_batch_size"`
	PruneSchedule      string        `mapstructure:"prune_schedule"`
	NotifyOnIndex      bool          `mapstructure:"notify_on_index"`
	ReconcileOnStartup bool          `mapstructure:"reconcile_on_startup"`
}

// Config holds the full configuration for the analyzer service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Gateway  config.Gateway  `mapstructure:"gateway"`
	Telegram config.Telegram `mapstructure:"telegram"`
	Analyzer Analyzer        `mapstructure:"analyzer"`
	Lexicon  lexicon.Config  `mapstructure:"lexicon"`
}

// Default returns a Config carrying only the built-in analyzer defaults.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load loads the analyzer configuration from the given path and applies
// defaults for unset analyzer tunables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	a := &c.Analyzer
	if a.GateThreshold == 0 {
		a.GateThreshold = 0.7
	}
	if a.FreshnessWindow == 0 {
		a.FreshnessWindow = 7 * 24 * time.Hour
	}
	if a.HistoryCap == 0 {
		a.HistoryCap = 20
	}
	if a.MaxCandidates == 0 {
		a.MaxCandidates = 25
	}
	if a.CorroborationLimit == 0 {
		a.CorroborationLimit = 50
	}
	if a.BacklogCutoffDays == 0 {
		a.BacklogCutoffDays = 30
	}
	if a.BacklogPageSize == 0 {
		a.BacklogPageSize = 100
	}
	if a.PollInterval == 0 {
		a.PollInterval = 15 * time.Second
	}
	if a.PollBatchSize == 0 {
		a.PollBatchSize = 50
	}
	if a.PruneSchedule == "" {
		a.PruneSchedule = "@hourly"
	}
	if c.Gateway.MaxRequestPerMinute == 0 {
		c.Gateway.MaxRequestPerMinute = 30
	}
}
