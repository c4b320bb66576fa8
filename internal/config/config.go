// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns defaults; Load(ctx) layers a YAML file and env vars on top.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/domain/relevance"
	"github.com/okian/skillpulse/internal/ledger"
)

// Supported storage drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// StoreDriver selects the ledger backend: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database file.
	StorePath string `koanf:"store_path"`

	// LedgerKey and ErrorsKey name the stored documents, so several
	// ledgers can share one store.
	LedgerKey string `koanf:"ledger_key"`
	ErrorsKey string `koanf:"errors_key"`

	// CatalogPath points at a YAML catalog. Empty uses the built-in one.
	CatalogPath string `koanf:"catalog_path"`

	// MaxEvents caps each raw copy/view log; MaxErrors caps the error log.
	MaxEvents int `koanf:"max_events"`
	MaxErrors int `koanf:"max_errors"`

	// DefaultMaxResults is the recommendation limit when none is requested.
	DefaultMaxResults int `koanf:"default_max_results"`

	// MaxListLimit caps limit query parameters on list endpoints.
	MaxListLimit int `koanf:"max_list_limit"`

	TrendingThreshold int    `koanf:"trending_threshold"`
	PopularThreshold  int    `koanf:"popular_threshold"`
	BadgePeriod       string `koanf:"badge_period"`

	// RecencyBase and RecencyBoost shape the trending weight
	// base + boost*(1 - age/window).
	RecencyBase  float64 `koanf:"recency_base"`
	RecencyBoost float64 `koanf:"recency_boost"`

	// RelevanceWeights are the per-field recommendation points.
	RelevanceWeights relevance.Weights `koanf:"relevance_weights"`

	TelemetryEnabled   bool `koanf:"telemetry_enabled"`
	TelemetryQueueSize int  `koanf:"telemetry_queue_size"`
	TelemetryWorkers   int  `koanf:"telemetry_workers"`

	// DedupeSize bounds the idempotency-key cache. DedupeTTL forgets keys
	// older than it; zero keeps them until evicted.
	DedupeSize int           `koanf:"dedupe_size"`
	DedupeTTL  time.Duration `koanf:"dedupe_ttl"`
}

// New creates a Config populated with defaults. Context is accepted first to
// follow the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9090",
		StoreDriver:        StoreSQLite,
		StorePath:          "data/skillpulse.db",
		LedgerKey:          ledger.DefaultLedgerKey,
		ErrorsKey:          ledger.DefaultErrorsKey,
		MaxEvents:          1000,
		MaxErrors:          100,
		DefaultMaxResults:  relevance.DefaultMaxResults,
		MaxListLimit:       100,
		TrendingThreshold:  3,
		PopularThreshold:   5,
		BadgePeriod:        string(model.PeriodWeekly),
		RecencyBase:        1,
		RecencyBoost:       1,
		RelevanceWeights:   relevance.DefaultWeights(),
		TelemetryEnabled:   true,
		TelemetryQueueSize: 1024,
		TelemetryWorkers:   2,
		DedupeSize:         50_000,
		DedupeTTL:          24 * time.Hour,
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("%w: store_path is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownDriver, c.StoreDriver)
	}
	if strings.TrimSpace(c.LedgerKey) == "" || strings.TrimSpace(c.ErrorsKey) == "" {
		return fmt.Errorf("%w: ledger_key and errors_key must not be empty", ErrInvalidConfig)
	}
	if c.LedgerKey == c.ErrorsKey {
		return fmt.Errorf("%w: ledger_key and errors_key must differ", ErrInvalidConfig)
	}
	if c.DedupeTTL < 0 {
		return fmt.Errorf("%w: dedupe_ttl must not be negative", ErrInvalidConfig)
	}
	positive := map[string]int{
		"max_events":           c.MaxEvents,
		"max_errors":           c.MaxErrors,
		"default_max_results":  c.DefaultMaxResults,
		"max_list_limit":       c.MaxListLimit,
		"telemetry_queue_size": c.TelemetryQueueSize,
		"telemetry_workers":    c.TelemetryWorkers,
		"dedupe_size":          c.DedupeSize,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, key, v)
		}
	}
	if c.TrendingThreshold < 0 || c.PopularThreshold < 0 {
		return fmt.Errorf("%w: badge thresholds must not be negative", ErrInvalidConfig)
	}
	if _, err := model.ParsePeriod(c.BadgePeriod); err != nil {
		return fmt.Errorf("%w: badge_period: %v", ErrInvalidConfig, err)
	}
	if c.RecencyBase < 0 || c.RecencyBoost < 0 {
		return fmt.Errorf("%w: recency weights must not be negative", ErrInvalidConfig)
	}
	return nil
}
