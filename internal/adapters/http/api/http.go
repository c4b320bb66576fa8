// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Default and maximum values for list query parameters.
const (
	defaultListLimit = 10
	defaultMaxLimit  = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	TrackDependencies
	RankingDependencies
	RecommendDependencies
	LedgerDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	trackHandler     *TrackHandler
	rankingHandler   *RankingHandler
	recommendHandler *RecommendHandler
	ledgerHandler    *LedgerHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
}

// WithMaxLimit caps limit query parameters.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		trackHandler:     NewTrackHandler(deps),
		rankingHandler:   NewRankingHandler(deps, cfg.maxLimit),
		recommendHandler: NewRecommendHandler(deps, cfg.maxLimit),
		ledgerHandler:    NewLedgerHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Handle("/metrics", s.healthHandler.MetricsHandler())
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/skills/{id}/copy", MetricsMiddleware(s.trackHandler.HandleCopy, "track_copy"))
		r.Post("/skills/{id}/view", MetricsMiddleware(s.trackHandler.HandleView, "track_view"))
		r.Post("/errors", MetricsMiddleware(s.trackHandler.HandleError, "track_error"))

		r.Get("/popular", MetricsMiddleware(s.rankingHandler.HandlePopular, "popular"))
		r.Get("/trending", MetricsMiddleware(s.rankingHandler.HandleTrending, "trending"))
		r.Get("/badges", MetricsMiddleware(s.rankingHandler.HandleBadges, "badges"))
		r.Get("/recent", MetricsMiddleware(s.rankingHandler.HandleRecent, "recent"))
		r.Get("/counts", MetricsMiddleware(s.rankingHandler.HandleCounts, "counts"))

		r.Get("/recommend", MetricsMiddleware(s.recommendHandler.HandleRecommend, "recommend"))
		r.Get("/catalog", MetricsMiddleware(s.recommendHandler.HandleCatalog, "catalog"))

		r.Delete("/ledger", MetricsMiddleware(s.ledgerHandler.HandleClear, "clear"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", NewKind(r.URL.Path, ErrNotFound))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
