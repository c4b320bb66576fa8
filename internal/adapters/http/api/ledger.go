package api

import (
	"context"
	"net/http"
)

// LedgerDependencies defines destructive ledger operations.
type LedgerDependencies interface {
	Clear(ctx context.Context)
}

// LedgerHandler handles ledger administration.
type LedgerHandler struct {
	deps LedgerDependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleClear handles DELETE /api/v1/ledger.
func (h *LedgerHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.deps.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
