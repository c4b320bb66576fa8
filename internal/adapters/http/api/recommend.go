package api

import (
	"context"
	"net/http"

	"github.com/okian/skillpulse/internal/domain/model"
)

// RecommendDependencies defines the catalog operations.
type RecommendDependencies interface {
	Recommend(ctx context.Context, query string, maxResults int) []model.RecommendationResult
	Catalog() []model.CatalogItem
}

// RecommendHandler serves recommendations and the catalog.
type RecommendHandler struct {
	deps     RecommendDependencies
	maxLimit int
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps RecommendDependencies, maxLimit int) *RecommendHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &RecommendHandler{deps: deps, maxLimit: maxLimit}
}

// HandleRecommend handles GET /api/v1/recommend?q=...&limit=N. A blank query
// is not an error; it yields an empty list. Without a limit the service
// default applies.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"
	n, err := parseLimit(r, 0, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Recommend(r.Context(), r.URL.Query().Get("q"), n))
}

// HandleCatalog handles GET /api/v1/catalog.
func (h *RecommendHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Catalog())
}
