// Package config provides centralized configuration management. Settings are
// read from environment variables with sensible defaults and validated on
// startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Diff    DiffConfig
	Import  ImportConfig
	Cache   CacheConfig
	Logging LoggingConfig
}

// DiffConfig holds header fuzzy-matching settings.
type DiffConfig struct {
	// Threshold is the minimum similarity score for a rename proposal
	Threshold float64

	// TieMargin is the score distance within which candidates count as tied
	TieMargin float64
}

// ImportConfig holds file import settings.
type ImportConfig struct {
	// Parallelism is the number of files parsed concurrently
	Parallelism int

	// DefaultTolerance is the nearest-join tolerance applied to new tests
	DefaultTolerance float64
}

// CacheConfig holds import cache settings.
type CacheConfig struct {
	// Enabled controls whether parsed headers are cached between runs
	Enabled bool

	// Path overrides the cache database location; empty selects the
	// per-workspace default under XDG_DATA_HOME
	Path string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string

	// Format is the log format: text or json
	Format string
}

// Load reads configuration from LOGMERGE_* environment variables, applies
// defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Diff: DiffConfig{
			Threshold: envFloat("LOGMERGE_DIFF_THRESHOLD", 0.80),
			TieMargin: envFloat("LOGMERGE_DIFF_TIE_MARGIN", 0.05),
		},
		Import: ImportConfig{
			Parallelism:      envInt("LOGMERGE_PARALLELISM", runtime.NumCPU()),
			DefaultTolerance: envFloat("LOGMERGE_DEFAULT_TOLERANCE", 0.1),
		},
		Cache: CacheConfig{
			Enabled: envBool("LOGMERGE_CACHE", true),
			Path:    os.Getenv("LOGMERGE_CACHE_PATH"),
		},
		Logging: LoggingConfig{
			Level:  envString("LOGMERGE_LOG_LEVEL", "info"),
			Format: envString("LOGMERGE_LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Diff.Threshold <= 0 || c.Diff.Threshold > 1 {
		return fmt.Errorf("LOGMERGE_DIFF_THRESHOLD must be in (0, 1], got %g", c.Diff.Threshold)
	}
	if c.Diff.TieMargin < 0 || c.Diff.TieMargin >= c.Diff.Threshold {
		return fmt.Errorf("LOGMERGE_DIFF_TIE_MARGIN must be in [0, threshold), got %g", c.Diff.TieMargin)
	}
	if c.Import.Parallelism < 1 {
		return fmt.Errorf("LOGMERGE_PARALLELISM must be at least 1, got %d", c.Import.Parallelism)
	}
	if c.Import.DefaultTolerance <= 0 {
		return fmt.Errorf("LOGMERGE_DEFAULT_TOLERANCE must be positive, got %g", c.Import.DefaultTolerance)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOGMERGE_LOG_LEVEL must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOGMERGE_LOG_FORMAT must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(name string, fallback float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
