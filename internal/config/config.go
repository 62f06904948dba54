// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// HostSecret signs host bearer tokens.
	HostSecret string `koanf:"host_secret"`

	// HostTokenTTL is how long a host token stays valid.
	HostTokenTTL time.Duration `koanf:"host_token_ttl"`

	// StoreDriver selects the repository: memory, postgres or sqlite.
	StoreDriver string `koanf:"store_driver"`
	StoreDSN    string `koanf:"store_dsn"`

	// RecentEvents is how many events a state poll returns.
	RecentEvents int `koanf:"recent_events"`

	DefaultQuestionSeconds int `koanf:"default_question_seconds"`
	DefaultQuestionPoints  int `koanf:"default_question_points"`

	// OutboxQueueSize bounds the in-memory event queue feeding the sinks.
	OutboxQueueSize int `koanf:"outbox_queue_size"`
	OutboxWorkers   int `koanf:"outbox_workers"`

	// ResolvedMarkerSize caps the question resolution marker set.
	ResolvedMarkerSize int `koanf:"resolved_marker_size"`

	ArchiveEnabled   bool   `koanf:"archive_enabled"`
	ArchiveBucket    string `koanf:"archive_bucket"`
	ArchiveRegion    string `koanf:"archive_region"`
	ArchiveEndpoint  string `koanf:"archive_endpoint"`
	ArchiveAccessKey string `koanf:"archive_access_key"`
	ArchiveSecretKey string `koanf:"archive_secret_key"`
}

// DefaultHostSecret is only meant for local runs.
const DefaultHostSecret = "bingonight-dev-secret"

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		HostSecret:             DefaultHostSecret,
		HostTokenTTL:           12 * time.Hour,
		StoreDriver:            DriverMemory,
		RecentEvents:           20,
		DefaultQuestionSeconds: 30,
		DefaultQuestionPoints:  10,
		OutboxQueueSize:        4096,
		OutboxWorkers:          2,
		ResolvedMarkerSize:     50_000,
		ArchiveRegion:          "us-east-1",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HostSecret == "":
		return fmt.Errorf("%w: host_secret must not be empty", ErrInvalidConfig)
	case c.HostTokenTTL <= 0:
		return fmt.Errorf("%w: host_token_ttl must be positive", ErrInvalidConfig)
	case c.RecentEvents <= 0:
		return fmt.Errorf("%w: recent_events must be positive", ErrInvalidConfig)
	case c.DefaultQuestionSeconds <= 0 || c.DefaultQuestionPoints <= 0:
		return fmt.Errorf("%w: question defaults must be positive", ErrInvalidConfig)
	case c.OutboxQueueSize <= 0:
		return fmt.Errorf("%w: outbox_queue_size must be positive", ErrInvalidConfig)
	case c.ArchiveEnabled && c.ArchiveBucket == "":
		return fmt.Errorf("%w: archive_bucket is required when archiving", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.StoreDSN == "" {
			return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}

// QuestionLimit is the default question time limit.
func (c *Config) QuestionLimit() time.Duration {
	return time.Duration(c.DefaultQuestionSeconds) * time.Second
}
