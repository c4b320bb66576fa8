package storage

import "errors"

// Sentinel outcomes of backend operations. Callers branch on them with
// errors.Is.
var (
	ErrNotFound      = errors.New("key not found")
	ErrUnavailable   = errors.New("storage unavailable")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Reason maps a backend error to a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}
