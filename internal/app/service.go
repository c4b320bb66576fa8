// Package service ties the ledger, the catalog and the ranking engines
// together behind the operations the HTTP API and the CLI expose.
package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/okian/skillpulse/internal/adapters/catalog"
	"github.com/okian/skillpulse/internal/adapters/mq/worker"
	"github.com/okian/skillpulse/internal/adapters/storage"
	"github.com/okian/skillpulse/internal/adapters/telemetry"
	"github.com/okian/skillpulse/internal/domain/dedupe"
	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/domain/relevance"
	"github.com/okian/skillpulse/internal/domain/trending"
	"github.com/okian/skillpulse/internal/ledger"
	"github.com/okian/skillpulse/pkg/logger"
	"github.com/okian/skillpulse/pkg/metrics"
)

// Service implements the operations of the SkillPulse engine.
type Service struct {
	mu sync.RWMutex

	backend    storage.Backend
	catalog    *catalog.Catalog
	ledger     *ledger.Ledger
	aggregator *trending.Aggregator
	scorer     *relevance.Scorer
	deduper    dedupe.Deduper
	dispatcher *telemetry.Dispatcher

	now               func() time.Time
	maxEvents         int
	maxErrors         int
	dedupeSize        int
	dedupeTTL         time.Duration
	ledgerKey         string
	errorsKey         string
	telemetryEnabled  bool
	telemetryQueue    int
	telemetryWorkers  int
	extraHandlers     []worker.Handler
	badgeOpts         trending.BadgeOptions
	weighting         trending.Weighting
	relevanceWeights  relevance.Weights
	defaultMaxResults int

	started bool
	logger  logger.Logger
}

// New constructs a Service. The ledger is usable immediately; Start only
// launches background telemetry delivery.
func New(opts ...Option) *Service {
	s := &Service{
		backend:           storage.NewMemoryBackend(),
		now:               time.Now,
		maxEvents:         ledger.DefaultMaxEvents,
		maxErrors:         ledger.DefaultMaxErrors,
		dedupeSize:        50_000,
		telemetryQueue:    1024,
		telemetryWorkers:  2,
		badgeOpts:         trending.DefaultBadgeOptions(),
		weighting:         trending.DefaultWeighting(),
		relevanceWeights:  relevance.DefaultWeights(),
		defaultMaxResults: relevance.DefaultMaxResults,
		logger:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}

	s.aggregator = trending.New(trending.WithWeighting(s.weighting))
	s.scorer = relevance.NewScorer(
		relevance.WithWeights(s.relevanceWeights),
		relevance.WithDefaultMaxResults(s.defaultMaxResults),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
		dedupe.WithClock(s.now),
	)
	s.ledger = ledger.New(s.backend,
		ledger.WithClock(s.now),
		ledger.WithKeys(s.ledgerKey, s.errorsKey),
		ledger.WithMaxEvents(s.maxEvents),
		ledger.WithMaxErrors(s.maxErrors),
		ledger.WithLogger(s.logger.Named("ledger")),
		ledger.WithSink(telemetry.SinkFunc(s.forward)),
	)
	return s
}

// forward hands ledger notifications to the dispatcher while it runs.
func (s *Service) forward(ctx context.Context, e telemetry.Event) {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	if d != nil {
		d.Record(ctx, e)
	}
}

// Start launches telemetry delivery when enabled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting skillpulse service...")

	if s.telemetryEnabled {
		opts := []telemetry.Option{
			telemetry.WithQueueSize(s.telemetryQueue),
			telemetry.WithWorkers(s.telemetryWorkers),
			telemetry.WithLogger(s.logger.Named("telemetry")),
			telemetry.WithHandler(telemetry.NewPrometheusHandler(nil)),
			telemetry.WithHandler(telemetry.NewLogHandler(s.logger.Named("telemetry"))),
		}
		for _, h := range s.extraHandlers {
			opts = append(opts, telemetry.WithHandler(h))
		}
		s.dispatcher = telemetry.NewDispatcher(opts...)
		s.dispatcher.Start(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "skillpulse service started",
		logger.Int("catalogItems", s.catalog.Len()),
		logger.Bool("telemetry", s.telemetryEnabled),
		logger.Int("maxEvents", s.maxEvents),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains telemetry and closes the backend.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping skillpulse service...")

	if s.dispatcher != nil {
		if err := s.dispatcher.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "telemetry shutdown", logger.Error(err))
		}
		s.dispatcher = nil
	}
	if closer, ok := s.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing storage", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "skillpulse service stopped")
}

// SeenAndRecord reports whether an idempotency key was already used and
// records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordDuplicateRequest()
	}
	return seen
}

// Track records one interaction. A non-empty idempotency key that was seen
// before makes the call a no-op reported as a duplicate. A blank skill id
// records nothing and is reported as ignored; its idempotency key is
// released so a corrected retry is not taken for a duplicate.
func (s *Service) Track(ctx context.Context, kind model.Kind, skillID, idempotencyKey string) (model.TrackResult, error) {
	if kind != model.KindCopy && kind != model.KindView {
		return model.TrackResult{}, model.ErrUnknownKind
	}
	skillID = strings.TrimSpace(skillID)

	var dedupeKey string
	if idempotencyKey != "" {
		dedupeKey = string(kind) + ":" + skillID + ":" + idempotencyKey
		if s.SeenAndRecord(ctx, dedupeKey) {
			s.logger.Debug(ctx, "duplicate tracking request",
				logger.String("kind", string(kind)),
				logger.String("skillId", skillID),
			)
			return model.TrackResult{Duplicate: true}, nil
		}
	}

	var (
		ev model.SkillEvent
		ok bool
	)
	if kind == model.KindCopy {
		ev, ok = s.ledger.AppendCopy(ctx, skillID)
	} else {
		ev, ok = s.ledger.AppendView(ctx, skillID)
	}
	if !ok {
		if dedupeKey != "" {
			s.deduper.Unrecord(ctx, dedupeKey)
		}
		s.logger.Debug(ctx, "blank skill id ignored", logger.String("kind", string(kind)))
		return model.TrackResult{Ignored: true}, nil
	}
	return model.TrackResult{Event: ev}, nil
}

// TrackCopy records a copy of skillID.
func (s *Service) TrackCopy(ctx context.Context, skillID string) (model.TrackResult, error) {
	return s.Track(ctx, model.KindCopy, skillID, "")
}

// TrackView records a view of skillID.
func (s *Service) TrackView(ctx context.Context, skillID string) (model.TrackResult, error) {
	return s.Track(ctx, model.KindView, skillID, "")
}

// TrackError records a client-side failure report. Any message is kept,
// blank ones included, together with its metadata.
func (s *Service) TrackError(ctx context.Context, message string, metadata map[string]string) model.ErrorEvent {
	return s.ledger.AppendError(ctx, message, metadata)
}

// MostPopular returns up to n skills ranked by cumulative count of kind.
func (s *Service) MostPopular(ctx context.Context, kind model.Kind, n int) []model.PopularEntry {
	snap := s.ledger.Snapshot(ctx)
	return trending.MostPopular(&snap, kind, n)
}

// Trending returns up to n skills ranked by recency-weighted views.
func (s *Service) Trending(ctx context.Context, period model.Period, n int) []model.TrendingEntry {
	start := time.Now()
	snap := s.ledger.Snapshot(ctx)
	out := s.aggregator.Trending(&snap, period, n, s.now())
	metrics.RecordTrendingLatency(float64(time.Since(start).Microseconds()) / 1000)
	return out
}

// BadgeStatus returns the trending and popular badge sets.
func (s *Service) BadgeStatus(ctx context.Context) trending.BadgeStatus {
	snap := s.ledger.Snapshot(ctx)
	return s.aggregator.Badges(&snap, s.badgeOpts, s.now())
}

// Recommend ranks catalog items against a free-text query. Blank queries
// return no results.
func (s *Service) Recommend(ctx context.Context, query string, maxResults int) []model.RecommendationResult {
	start := time.Now()
	out := s.scorer.Recommend(s.catalog.Items(), query, maxResults)
	metrics.RecordRecommendLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRecommendResults(len(out))
	s.logger.Debug(ctx, "recommendation computed",
		logger.String("query", query),
		logger.Int("results", len(out)),
	)
	return out
}

// Clear erases all tracked activity.
func (s *Service) Clear(ctx context.Context) {
	s.ledger.Clear(ctx)
}

// Recent returns up to n events of kind, newest first.
func (s *Service) Recent(ctx context.Context, kind model.Kind, n int) []model.SkillEvent {
	return s.ledger.Recent(ctx, kind, n)
}

// RecentErrors returns up to n error reports, newest first.
func (s *Service) RecentErrors(ctx context.Context, n int) []model.ErrorEvent {
	return s.ledger.RecentErrors(ctx, n)
}

// Counts returns the cumulative counters.
func (s *Service) Counts(ctx context.Context) ledger.Counts {
	return s.ledger.Counts(ctx)
}

// Catalog returns the catalog items in order.
func (s *Service) Catalog() []model.CatalogItem {
	return s.catalog.Items()
}

// SkillIDs returns the catalog ids in order.
func (s *Service) SkillIDs() []string {
	return s.catalog.IDs()
}

// LastPersistError returns the result of the latest ledger write.
func (s *Service) LastPersistError() error {
	return s.ledger.LastPersistError()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	counts := s.ledger.Counts(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	tracked := unionKeys(counts.Copies, counts.Views)
	uncataloged := 0
	for id := range tracked {
		if !s.catalog.Has(id) {
			uncataloged++
		}
	}

	stats := map[string]interface{}{
		"started":           s.started,
		"catalogItems":      s.catalog.Len(),
		"totalCopies":       counts.TotalCopies,
		"totalViews":        counts.TotalViews,
		"trackedSkills":     len(tracked),
		"uncatalogedSkills": uncataloged,
		"dedupeKeys":        s.deduper.Size(),
		"telemetry":         s.telemetryEnabled,
		"persistHealthy":    s.ledger.LastPersistError() == nil,
	}
	if s.dispatcher != nil {
		stats["telemetryPending"] = s.dispatcher.Pending(ctx)
		stats["telemetryDropped"] = s.dispatcher.Dropped()
	}
	return stats
}

func unionKeys(a, b map[string]int) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
