package telemetry

import (
	"context"

	"github.com/okian/skillpulse/internal/adapters/mq/worker"
	"github.com/okian/skillpulse/pkg/logger"
	"github.com/okian/skillpulse/pkg/metrics"
)

// PrometheusHandler counts delivered interactions per kind and skill.
type PrometheusHandler struct {
	m *metrics.Manager
}

// NewPrometheusHandler creates a handler recording into m, or the global
// manager when m is nil.
func NewPrometheusHandler(m *metrics.Manager) *PrometheusHandler {
	if m == nil {
		m = metrics.Global()
	}
	return &PrometheusHandler{m: m}
}

func (h *PrometheusHandler) Name() string { return "prometheus" }

func (h *PrometheusHandler) Handle(_ context.Context, e worker.Event) error { //nolint:gocritic // hugeParam
	skill := e.SkillID
	if skill == "" {
		skill = "-"
	}
	h.m.RecordSkillEvent(e.Kind, skill)
	return nil
}

// LogHandler writes each delivered event as a structured log line.
type LogHandler struct {
	log logger.Logger
}

// NewLogHandler creates a handler writing to l.
func NewLogHandler(l logger.Logger) *LogHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &LogHandler{log: l}
}

func (h *LogHandler) Name() string { return "log" }

func (h *LogHandler) Handle(ctx context.Context, e worker.Event) error { //nolint:gocritic // hugeParam
	fields := []logger.Field{
		logger.String("id", e.ID),
		logger.String("kind", e.Kind),
		logger.Int64("timestamp", e.Timestamp),
	}
	if e.SkillID != "" {
		fields = append(fields, logger.String("skillId", e.SkillID))
	}
	if e.Message != "" {
		fields = append(fields, logger.String("message", e.Message))
	}
	if len(e.Metadata) > 0 {
		fields = append(fields, logger.Any("metadata", e.Metadata))
	}
	h.log.Debug(ctx, "telemetry event", fields...)
	return nil
}
