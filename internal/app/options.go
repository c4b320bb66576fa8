package service

import (
	"time"

	"github.com/okian/skillpulse/internal/adapters/catalog"
	"github.com/okian/skillpulse/internal/adapters/mq/worker"
	"github.com/okian/skillpulse/internal/adapters/storage"
	"github.com/okian/skillpulse/internal/domain/relevance"
	"github.com/okian/skillpulse/internal/domain/trending"
	"github.com/okian/skillpulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the ledger storage. The service closes it on Stop if it
// implements io.Closer.
func WithBackend(b storage.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithCatalog sets the skill catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock overrides the time source for tracking and trending.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxEvents caps each raw event log.
func WithMaxEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithMaxErrors caps the error log.
func WithMaxErrors(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxErrors = n
		}
	}
}

// WithDedupeSize sets the size of the idempotency-key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDedupeTTL makes idempotency keys expire after ttl.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithStorageKeys sets the keys of the stored ledger document and error log.
func WithStorageKeys(ledgerKey, errorsKey string) Option {
	return func(s *Service) {
		s.ledgerKey = ledgerKey
		s.errorsKey = errorsKey
	}
}

// WithTelemetry enables asynchronous telemetry delivery with the given
// queue size and worker count.
func WithTelemetry(enabled bool, queueSize, workers int) Option {
	return func(s *Service) {
		s.telemetryEnabled = enabled
		if queueSize > 0 {
			s.telemetryQueue = queueSize
		}
		if workers > 0 {
			s.telemetryWorkers = workers
		}
	}
}

// WithTelemetryHandler adds a delivery target next to the Prometheus and
// log handlers.
func WithTelemetryHandler(h worker.Handler) Option {
	return func(s *Service) {
		if h != nil {
			s.extraHandlers = append(s.extraHandlers, h)
		}
	}
}

// WithBadgeOptions sets the badge period and thresholds.
func WithBadgeOptions(o trending.BadgeOptions) Option {
	return func(s *Service) {
		s.badgeOpts = o
	}
}

// WithWeighting sets the trending recency weighting.
func WithWeighting(w trending.Weighting) Option {
	return func(s *Service) {
		s.weighting = w
	}
}

// WithRelevanceWeights sets the recommendation field weights.
func WithRelevanceWeights(w relevance.Weights) Option {
	return func(s *Service) {
		s.relevanceWeights = w
	}
}

// WithDefaultMaxResults sets the recommendation limit used when callers
// pass none.
func WithDefaultMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultMaxResults = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
