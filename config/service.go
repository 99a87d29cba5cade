package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StoreConfig configures run persistence.
type StoreConfig struct {
	// Path is the SQLite database file; empty disables persistence and the
	// memo cache stays in memory.
	Path string `json:"path"`
	// MemoEntries bounds the in-memory memo cache (0 = unbounded).
	MemoEntries int `json:"memo_entries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}

// JobsConfig schedules re-valuation of portfolio files.
type JobsConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a standard five-field cron expression.
	Schedule   string   `json:"schedule"`
	Portfolios []string `json:"portfolios"`
}

// SetDefaults applies sane defaults.
func (c *JobsConfig) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = "0 6 * * *"
	}
}

// Validate checks the cron expression when jobs are enabled.
func (c JobsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", c.Schedule, err)
	}
	if len(c.Portfolios) == 0 {
		return fmt.Errorf("at least one portfolio file is required")
	}
	return nil
}
