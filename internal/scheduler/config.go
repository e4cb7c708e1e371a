package scheduler

import (
	"time"

	"github.com/smallbiznis/storagedesk/internal/config"
)

// Config controls scheduler intervals.
type Config struct {
	// RunInterval is used when no ledger config is wired; otherwise the loop
	// follows ledger.reconcileInterval and picks up reloads between runs.
	RunInterval time.Duration
	JobTimeout  time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig(ledgerCfg *config.LedgerConfigHolder) Config {
	cfg := DefaultConfig()
	if ledgerCfg != nil {
		cfg.RunInterval = ledgerCfg.Get().ReconcileInterval
	}
	return cfg
}
