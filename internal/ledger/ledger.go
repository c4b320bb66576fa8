// Package ledger is the event store: a bounded, persisted record of skill
// copies, views and client errors.
//
// Every mutation updates memory first and then overwrites the whole stored
// document. A failed write is logged, counted and remembered in
// LastPersistError; it never reaches the caller and never rolls back the
// in-memory state.
package ledger

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillpulse/internal/adapters/storage"
	"github.com/okian/skillpulse/internal/adapters/telemetry"
	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/pkg/logger"
	"github.com/okian/skillpulse/pkg/metrics"
)

// Counts is a copy of the cumulative counters.
type Counts struct {
	Copies      map[string]int `json:"copies"`
	Views       map[string]int `json:"views"`
	TotalCopies int            `json:"totalCopies"`
	TotalViews  int            `json:"totalViews"`
}

// Ledger owns the event logs and counters. It is safe for concurrent use.
type Ledger struct {
	backend   storage.Backend
	now       func() time.Time
	maxEvents int
	maxErrors int
	ledgerKey string
	errorsKey string
	sink      telemetry.Sink
	log       logger.Logger
	newID     func() string

	mu         sync.Mutex
	loaded     bool
	doc        model.Ledger
	errs       []model.ErrorEvent
	persistErr error
}

// New creates a ledger over backend. Nothing is read until first use.
func New(backend storage.Backend, opts ...Option) *Ledger {
	l := &Ledger{
		backend:   backend,
		now:       time.Now,
		maxEvents: DefaultMaxEvents,
		maxErrors: DefaultMaxErrors,
		ledgerKey: DefaultLedgerKey,
		errorsKey: DefaultErrorsKey,
		sink:      telemetry.Nop(),
		log:       logger.Nop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AppendCopy records a copy of skill id. Blank ids are ignored and report
// false.
func (l *Ledger) AppendCopy(ctx context.Context, id string) (model.CopyEvent, bool) {
	return l.appendSkill(ctx, model.KindCopy, id)
}

// AppendView records a view of skill id. Blank ids are ignored and report
// false.
func (l *Ledger) AppendView(ctx context.Context, id string) (model.ViewEvent, bool) {
	return l.appendSkill(ctx, model.KindView, id)
}

func (l *Ledger) appendSkill(ctx context.Context, kind model.Kind, id string) (model.SkillEvent, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.SkillEvent{}, false
	}

	l.mu.Lock()
	l.ensureLoaded(ctx)

	var ev model.SkillEvent
	var evicted, size int
	switch kind {
	case model.KindCopy:
		ev = model.SkillEvent{SkillID: id, Timestamp: nextTimestamp(l.now(), l.doc.CopyEvents)}
		l.doc.CopyEvents = append(l.doc.CopyEvents, ev)
		l.doc.CopyCounts.Inc(id)
		l.doc.CopyEvents, evicted = trimOldest(l.doc.CopyEvents, l.maxEvents)
		size = len(l.doc.CopyEvents)
	default:
		ev = model.SkillEvent{SkillID: id, Timestamp: nextTimestamp(l.now(), l.doc.ViewEvents)}
		l.doc.ViewEvents = append(l.doc.ViewEvents, ev)
		l.doc.ViewCounts.Inc(id)
		l.doc.ViewEvents, evicted = trimOldest(l.doc.ViewEvents, l.maxEvents)
		size = len(l.doc.ViewEvents)
	}
	l.persistLedger(ctx)
	l.mu.Unlock()

	metrics.RecordEventTracked(string(kind))
	metrics.RecordEvicted(string(kind), evicted)
	metrics.UpdateLedgerSize(string(kind), size)

	l.notify(ctx, model.TelemetryEvent{
		Kind:      string(kind),
		SkillID:   id,
		Timestamp: ev.Timestamp,
	})
	return ev, true
}

// AppendError records a client-side failure report.
func (l *Ledger) AppendError(ctx context.Context, message string, metadata map[string]string) model.ErrorEvent {
	var md map[string]string
	if len(metadata) > 0 {
		md = make(map[string]string, len(metadata))
		for k, v := range metadata {
			md[k] = v
		}
	}

	l.mu.Lock()
	l.ensureLoaded(ctx)
	var last int64 = -1
	if n := len(l.errs); n > 0 {
		last = l.errs[n-1].Timestamp
	}
	ev := model.ErrorEvent{
		Message:   message,
		Timestamp: max(l.now().UnixMilli(), last+1),
		Metadata:  md,
	}
	l.errs = append(l.errs, ev)
	var evicted int
	l.errs, evicted = trimOldest(l.errs, l.maxErrors)
	size := len(l.errs)
	l.persistErrors(ctx)
	l.mu.Unlock()

	metrics.RecordEventTracked("error")
	metrics.RecordEvicted("error", evicted)
	metrics.UpdateLedgerSize("error", size)

	l.notify(ctx, model.TelemetryEvent{
		Kind:      "error",
		Message:   message,
		Metadata:  md,
		Timestamp: ev.Timestamp,
	})
	return ev
}

// Counts returns the cumulative counters.
func (l *Ledger) Counts(ctx context.Context) Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return Counts{
		Copies:      l.doc.CopyCounts.Map(),
		Views:       l.doc.ViewCounts.Map(),
		TotalCopies: l.doc.CopyCounts.Total(),
		TotalViews:  l.doc.ViewCounts.Total(),
	}
}

// Recent returns up to limit events of kind, most recent first.
func (l *Ledger) Recent(ctx context.Context, kind model.Kind, limit int) []model.SkillEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return newestFirst(l.doc.Events(kind), limit)
}

// RecentErrors returns up to limit error reports, most recent first.
func (l *Ledger) RecentErrors(ctx context.Context, limit int) []model.ErrorEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return newestFirst(l.errs, limit)
}

// Snapshot returns a deep copy of the ledger for lock-free reading.
func (l *Ledger) Snapshot(ctx context.Context) model.Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return l.doc.Clone()
}

// Clear empties the event logs, the counters and the error log. The ledger
// document is replaced in a single write.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.loaded = true
	l.doc = model.Ledger{}
	l.errs = nil
	l.persistLedger(ctx)
	ledgerErr := l.persistErr
	l.persistErrors(ctx)
	if l.persistErr == nil {
		l.persistErr = ledgerErr
	}
	l.mu.Unlock()

	metrics.RecordLedgerClear()
	for _, kind := range []string{string(model.KindCopy), string(model.KindView), "error"} {
		metrics.UpdateLedgerSize(kind, 0)
	}
	l.log.Info(ctx, "ledger cleared")
}

// LastPersistError returns the error of the most recent write, or nil if it
// succeeded.
func (l *Ledger) LastPersistError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistErr
}

// ensureLoaded reads both documents on first use. Missing or unreadable
// documents start empty. Callers hold mu.
func (l *Ledger) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	if raw, ok := l.read(ctx, l.ledgerKey); ok {
		var doc model.Ledger
		if err := json.Unmarshal(raw, &doc); err != nil {
			l.loadFailed(ctx, l.ledgerKey, "malformed", err)
		} else {
			copiesFixed := restoreOrder(doc.CopyEvents, skillStamp)
			viewsFixed := restoreOrder(doc.ViewEvents, skillStamp)
			if copiesFixed || viewsFixed {
				l.log.Debug(ctx, "stored events reordered by timestamp", logger.String("key", l.ledgerKey))
			}
			doc.CopyEvents, _ = trimOldest(doc.CopyEvents, l.maxEvents)
			doc.ViewEvents, _ = trimOldest(doc.ViewEvents, l.maxEvents)
			l.doc = doc
		}
	}

	if raw, ok := l.read(ctx, l.errorsKey); ok {
		var errs []model.ErrorEvent
		if err := json.Unmarshal(raw, &errs); err != nil {
			l.loadFailed(ctx, l.errorsKey, "malformed", err)
		} else {
			if restoreOrder(errs, errorStamp) {
				l.log.Debug(ctx, "stored errors reordered by timestamp", logger.String("key", l.errorsKey))
			}
			l.errs, _ = trimOldest(errs, l.maxErrors)
		}
	}

	metrics.UpdateLedgerSize(string(model.KindCopy), len(l.doc.CopyEvents))
	metrics.UpdateLedgerSize(string(model.KindView), len(l.doc.ViewEvents))
	metrics.UpdateLedgerSize("error", len(l.errs))
	l.log.Debug(ctx, "ledger loaded",
		logger.Int("copyEvents", len(l.doc.CopyEvents)),
		logger.Int("viewEvents", len(l.doc.ViewEvents)),
		logger.Int("errors", len(l.errs)),
	)
}

func (l *Ledger) read(ctx context.Context, key string) ([]byte, bool) {
	raw, err := l.backend.Get(ctx, key)
	switch {
	case err == nil:
		return raw, true
	case errors.Is(err, storage.ErrNotFound):
		return nil, false
	default:
		l.loadFailed(ctx, key, storage.Reason(err), err)
		return nil, false
	}
}

func (l *Ledger) loadFailed(ctx context.Context, key, reason string, err error) {
	metrics.RecordLoadFailure(reason)
	l.log.Warn(ctx, "stored document unusable, starting empty",
		logger.String("key", key),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

// persistLedger overwrites the stored ledger document. Callers hold mu.
func (l *Ledger) persistLedger(ctx context.Context) {
	raw, err := json.Marshal(l.doc)
	if err != nil {
		l.persistFailed(ctx, l.ledgerKey, fmt.Errorf("encode ledger: %w", err))
		return
	}
	l.write(ctx, l.ledgerKey, raw)
}

// persistErrors overwrites the stored error log. Callers hold mu.
func (l *Ledger) persistErrors(ctx context.Context) {
	errs := l.errs
	if errs == nil {
		errs = []model.ErrorEvent{}
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		l.persistFailed(ctx, l.errorsKey, fmt.Errorf("encode error log: %w", err))
		return
	}
	l.write(ctx, l.errorsKey, raw)
}

func (l *Ledger) write(ctx context.Context, key string, raw []byte) {
	if err := l.backend.Set(ctx, key, raw); err != nil {
		l.persistFailed(ctx, key, err)
		return
	}
	l.persistErr = nil
}

func (l *Ledger) persistFailed(ctx context.Context, key string, err error) {
	l.persistErr = err
	reason := storage.Reason(err)
	metrics.RecordPersistFailure(reason)
	l.log.Warn(ctx, "ledger write not persisted",
		logger.String("key", key),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

// notify hands ev to the sink. A panicking sink is contained here.
func (l *Ledger) notify(ctx context.Context, ev model.TelemetryEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordTelemetryDispatchError("ledger")
			l.log.Warn(ctx, "telemetry sink panicked", logger.Any("panic", r))
		}
	}()
	ev.ID = l.newID()
	l.sink.Record(ctx, ev)
}

// nextTimestamp keeps timestamps strictly increasing within one log.
func nextTimestamp(now time.Time, log []model.SkillEvent) int64 {
	ts := now.UnixMilli()
	if n := len(log); n > 0 && log[n-1].Timestamp >= ts {
		ts = log[n-1].Timestamp + 1
	}
	return ts
}

func skillStamp(e *model.SkillEvent) *int64 { return &e.Timestamp }
func errorStamp(e *model.ErrorEvent) *int64 { return &e.Timestamp }

// restoreOrder makes a loaded log strictly increasing in time: a stable sort
// by timestamp, then every tie or step back is moved to prev+1, the same
// rule appends follow. It reports whether anything changed.
func restoreOrder[T any](log []T, stamp func(*T) *int64) bool {
	byTime := func(a, b T) int { return cmp.Compare(*stamp(&a), *stamp(&b)) }
	changed := false
	if !slices.IsSortedFunc(log, byTime) {
		slices.SortStableFunc(log, byTime)
		changed = true
	}
	for i := 1; i < len(log); i++ {
		prev := *stamp(&log[i-1])
		if ts := stamp(&log[i]); *ts <= prev {
			*ts = prev + 1
			changed = true
		}
	}
	return changed
}

// trimOldest drops entries from the front until len <= limit.
func trimOldest[T any](log []T, limit int) ([]T, int) {
	excess := len(log) - limit
	if excess <= 0 {
		return log, 0
	}
	return log[excess:], excess
}

func newestFirst[T any](log []T, limit int) []T {
	if limit <= 0 || len(log) == 0 {
		return []T{}
	}
	if limit > len(log) {
		limit = len(log)
	}
	out := make([]T, 0, limit)
	for i := len(log) - 1; i >= len(log)-limit; i-- {
		out = append(out, log[i])
	}
	return out
}
