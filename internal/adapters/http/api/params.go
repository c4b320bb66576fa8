package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/skillpulse/internal/domain/model"
)

// parseLimit reads ?limit=. Missing means def; values outside 1..max are
// rejected.
func parseLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > max {
		return 0, fmt.Errorf("limit must not exceed %d", max)
	}
	return n, nil
}

// parseKind reads ?kind=, defaulting to view.
func parseKind(r *http.Request) (model.Kind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return model.KindView, nil
	}
	k, err := model.ParseKind(raw)
	if err != nil {
		return "", err
	}
	return k, nil
}

// parsePeriod reads ?period=, defaulting to weekly.
func parsePeriod(r *http.Request) (model.Period, error) {
	p, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return "", err
	}
	return p, nil
}
