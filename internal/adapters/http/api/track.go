package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/skillpulse/internal/domain/model"
)

// IdempotencyHeader lets clients retry tracking requests safely.
const IdempotencyHeader = "Idempotency-Key"

const maxErrorBody = 64 << 10

// TrackDependencies defines the tracking operations.
type TrackDependencies interface {
	Track(ctx context.Context, kind model.Kind, skillID, idempotencyKey string) (model.TrackResult, error)
	TrackError(ctx context.Context, message string, metadata map[string]string) model.ErrorEvent
}

// TrackHandler handles copy, view and error reports.
type TrackHandler struct {
	deps TrackDependencies
}

// NewTrackHandler creates a new track handler.
func NewTrackHandler(deps TrackDependencies) *TrackHandler {
	return &TrackHandler{deps: deps}
}

type ackResponse struct {
	Status    string            `json:"status"`
	Duplicate bool              `json:"duplicate"`
	Event     *model.SkillEvent `json:"event,omitempty"`
}

// HandleCopy handles POST /api/v1/skills/{id}/copy.
func (h *TrackHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, model.KindCopy)
}

// HandleView handles POST /api/v1/skills/{id}/view.
func (h *TrackHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, model.KindView)
}

func (h *TrackHandler) track(w http.ResponseWriter, r *http.Request, kind model.Kind) {
	op := "api.track_" + string(kind)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing skill id")))
		return
	}

	res, err := h.deps.Track(r.Context(), kind, id, r.Header.Get(IdempotencyHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "recorded", Event: &res.Event})
}

type errorReport struct {
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HandleError handles POST /api/v1/errors.
func (h *TrackHandler) HandleError(w http.ResponseWriter, r *http.Request) {
	const op = "api.track_error"
	var req errorReport
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxErrorBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing message")))
		return
	}
	writeJSON(w, http.StatusCreated, h.deps.TrackError(r.Context(), req.Message, req.Metadata))
}
