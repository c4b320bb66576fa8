package api

import (
	"context"
	"net/http"

	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/domain/trending"
	"github.com/okian/skillpulse/internal/ledger"
)

// RankingDependencies defines the read operations over tracked activity.
type RankingDependencies interface {
	MostPopular(ctx context.Context, kind model.Kind, n int) []model.PopularEntry
	Trending(ctx context.Context, period model.Period, n int) []model.TrendingEntry
	BadgeStatus(ctx context.Context) trending.BadgeStatus
	Recent(ctx context.Context, kind model.Kind, n int) []model.SkillEvent
	RecentErrors(ctx context.Context, n int) []model.ErrorEvent
	Counts(ctx context.Context) ledger.Counts
}

// RankingHandler serves popularity, trending, badge and history queries.
type RankingHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies, maxLimit int) *RankingHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &RankingHandler{deps: deps, maxLimit: maxLimit}
}

// HandlePopular handles GET /api/v1/popular?kind=copy|view&limit=N.
func (h *RankingHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	const op = "api.popular"
	kind, err := parseKind(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := parseLimit(r, defaultListLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.MostPopular(r.Context(), kind, n))
}

// HandleTrending handles GET /api/v1/trending?period=daily|weekly|monthly&limit=N.
func (h *RankingHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	const op = "api.trending"
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := parseLimit(r, defaultListLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Trending(r.Context(), period, n))
}

// HandleBadges handles GET /api/v1/badges.
func (h *RankingHandler) HandleBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.BadgeStatus(r.Context()))
}

// HandleRecent handles GET /api/v1/recent?kind=copy|view|error&limit=N.
func (h *RankingHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent"
	n, err := parseLimit(r, defaultListLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if r.URL.Query().Get("kind") == "error" {
		writeJSON(w, http.StatusOK, h.deps.RecentErrors(r.Context(), n))
		return
	}
	kind, err := parseKind(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Recent(r.Context(), kind, n))
}

// HandleCounts handles GET /api/v1/counts.
func (h *RankingHandler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Counts(r.Context()))
}
