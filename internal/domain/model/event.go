// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a tracked skill interaction.
type Kind string

// Tracked interaction kinds.
const (
	KindCopy Kind = "copy"
	KindView Kind = "view"
)

// ParseKind maps "copy"/"view" (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCopy:
		return KindCopy, nil
	case KindView:
		return KindView, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// SkillEvent is one copy or view of a skill. Timestamp is unix milliseconds.
type SkillEvent struct {
	SkillID   string `json:"skillId"`
	Timestamp int64  `json:"timestamp"`
}

// CopyEvent records a skill being copied.
type CopyEvent = SkillEvent

// ViewEvent records a skill being viewed.
type ViewEvent = SkillEvent

// Time returns the event timestamp as a time.Time.
func (e SkillEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ErrorEvent is a client-side failure report kept in the bounded error log.
type ErrorEvent struct {
	Message   string            `json:"message"`
	Timestamp int64             `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TelemetryEvent is what the ledger hands to an external sink after a
// tracked interaction. Kind is "copy", "view" or "error".
type TelemetryEvent struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	SkillID   string            `json:"skillId,omitempty"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Period is a trending lookback window.
type Period string

// Supported trending windows.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

const day = 24 * time.Hour

// Duration returns the window length, or 0 for an unknown period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDaily:
		return day
	case PeriodWeekly:
		return 7 * day
	case PeriodMonthly:
		return 30 * day
	default:
		return 0
	}
}

// ParsePeriod maps a period name to a Period. Empty input means weekly.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PeriodWeekly, nil
	}
	if p.Duration() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}

// TrackResult is the outcome of a tracking request. Duplicate is set when
// the request repeated an idempotency key and nothing was recorded. Ignored
// is set when the skill id was blank.
type TrackResult struct {
	Event     SkillEvent `json:"event"`
	Duplicate bool       `json:"duplicate"`
	Ignored   bool       `json:"ignored,omitempty"`
}
