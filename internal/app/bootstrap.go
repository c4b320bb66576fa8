package service

import (
	"context"
	"fmt"

	"github.com/okian/skillpulse/internal/adapters/catalog"
	"github.com/okian/skillpulse/internal/adapters/storage"
	"github.com/okian/skillpulse/internal/config"
	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/domain/trending"
)

// OpenBackend opens the storage backend selected by cfg.
func OpenBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return storage.NewMemoryBackend(), nil
	case config.StoreSQLite:
		b, err := storage.OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store %q: %w", cfg.StorePath, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w %q", config.ErrUnknownDriver, cfg.StoreDriver)
	}
}

// FromConfig builds a Service from cfg. Extra options are applied last and
// win over the configured values.
func FromConfig(ctx context.Context, cfg *config.Config, extra ...Option) (*Service, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	period, err := model.ParsePeriod(cfg.BadgePeriod)
	if err != nil {
		return nil, fmt.Errorf("badge period: %w", err)
	}
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithBackend(backend),
		WithCatalog(cat),
		WithMaxEvents(cfg.MaxEvents),
		WithMaxErrors(cfg.MaxErrors),
		WithDedupeSize(cfg.DedupeSize),
		WithDedupeTTL(cfg.DedupeTTL),
		WithStorageKeys(cfg.LedgerKey, cfg.ErrorsKey),
		WithDefaultMaxResults(cfg.DefaultMaxResults),
		WithRelevanceWeights(cfg.RelevanceWeights),
		WithWeighting(trending.Weighting{Base: cfg.RecencyBase, Boost: cfg.RecencyBoost}),
		WithBadgeOptions(trending.BadgeOptions{
			Period:            period,
			TrendingThreshold: cfg.TrendingThreshold,
			PopularThreshold:  cfg.PopularThreshold,
		}),
		WithTelemetry(cfg.TelemetryEnabled, cfg.TelemetryQueueSize, cfg.TelemetryWorkers),
	}
	return New(append(opts, extra...)...), nil
}
