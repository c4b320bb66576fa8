// Package metrics provides Prometheus metrics for the SkillPulse service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the SkillPulse service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ledger
	eventsTracked   *prometheus.CounterVec
	eventsEvicted   *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	loadFailures    *prometheus.CounterVec
	ledgerSize      *prometheus.GaugeVec
	ledgerClears    prometheus.Counter

	// Read paths
	recommendLatency prometheus.Histogram
	recommendResults prometheus.Histogram
	trendingLatency  prometheus.Histogram

	// Telemetry
	skillEvents            *prometheus.CounterVec
	telemetryEnqueued      prometheus.Counter
	telemetryDropped       *prometheus.CounterVec
	telemetryDispatchError *prometheus.CounterVec
	telemetryQueueSize     prometheus.Gauge
	telemetryLatency       prometheus.Histogram
	telemetryWorkers       prometheus.Gauge

	// HTTP
	duplicateRequests   prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillpulse",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.eventsTracked = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("events_tracked_total"),
		Help: "Total number of ledger appends by event kind",
	}, []string{"kind"})

	m.eventsEvicted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("events_evicted_total"),
		Help: "Raw events dropped from the bounded logs by event kind",
	}, []string{"kind"})

	m.persistFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("persist_failures_total"),
		Help: "Snapshot writes that did not reach durable storage, by reason",
	}, []string{"reason"})

	m.loadFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("load_failures_total"),
		Help: "Snapshot loads replaced by an empty document, by reason",
	}, []string{"reason"})

	m.ledgerSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("ledger_events"),
		Help: "Number of raw events currently retained, by event kind",
	}, []string{"kind"})

	m.ledgerClears = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("ledger_clears_total"),
		Help: "Number of ledger clears",
	})

	m.recommendLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("recommend_latency_milliseconds"),
		Help:    "Latency of recommendation queries in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.recommendResults = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("recommend_results"),
		Help:    "Number of results returned per recommendation query",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 10, 20},
	})

	m.trendingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("trending_latency_milliseconds"),
		Help:    "Latency of trending computations in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.skillEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("skill_events_total"),
		Help: "Telemetry events received per skill and kind",
	}, []string{"kind", "skill"})

	m.telemetryEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("telemetry_enqueued_total"),
		Help: "Telemetry events accepted by the dispatcher queue",
	})

	m.telemetryDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("telemetry_dropped_total"),
		Help: "Telemetry events dropped before dispatch, by reason",
	}, []string{"reason"})

	m.telemetryDispatchError = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("telemetry_dispatch_errors_total"),
		Help: "Telemetry sink failures, by sink",
	}, []string{"sink"})

	m.telemetryQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("telemetry_queue_size"),
		Help: "Current depth of the telemetry queue",
	})

	m.telemetryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("telemetry_dispatch_latency_milliseconds"),
		Help:    "Time spent delivering one telemetry event to all sinks",
		Buckets: m.histogramBuckets,
	})

	m.telemetryWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("telemetry_workers"),
		Help: "Number of running telemetry workers",
	})

	m.duplicateRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("duplicate_requests_total"),
		Help: "Tracking requests skipped because their idempotency key was already seen",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})
}

// Enabled reports whether recording is active for m.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordSkillEvent counts a telemetry event for one skill.
func (m *Manager) RecordSkillEvent(kind, skillID string) {
	if !m.enabled {
		return
	}
	m.skillEvents.WithLabelValues(kind, skillID).Inc()
}

// RecordEventTracked increments the ledger append counter for kind.
func RecordEventTracked(kind string) {
	globalManager.eventsTracked.WithLabelValues(kind).Inc()
}

// RecordEvicted adds n evicted raw events of kind.
func RecordEvicted(kind string, n int) {
	if n > 0 {
		globalManager.eventsEvicted.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordPersistFailure counts a snapshot write that was not durable.
func RecordPersistFailure(reason string) {
	globalManager.persistFailures.WithLabelValues(reason).Inc()
}

// RecordLoadFailure counts a snapshot load that fell back to an empty document.
func RecordLoadFailure(reason string) {
	globalManager.loadFailures.WithLabelValues(reason).Inc()
}

// UpdateLedgerSize sets the retained raw event count for kind.
func UpdateLedgerSize(kind string, n int) {
	globalManager.ledgerSize.WithLabelValues(kind).Set(float64(n))
}

// RecordLedgerClear counts a ledger clear.
func RecordLedgerClear() {
	globalManager.ledgerClears.Inc()
}

// RecordRecommendLatency records recommendation latency in milliseconds.
func RecordRecommendLatency(latencyMs float64) {
	globalManager.recommendLatency.Observe(latencyMs)
}

// RecordRecommendResults records how many results a query produced.
func RecordRecommendResults(n int) {
	globalManager.recommendResults.Observe(float64(n))
}

// RecordTrendingLatency records trending computation latency in milliseconds.
func RecordTrendingLatency(latencyMs float64) {
	globalManager.trendingLatency.Observe(latencyMs)
}

// RecordSkillEvent counts a telemetry event on the global manager.
func RecordSkillEvent(kind, skillID string) {
	globalManager.RecordSkillEvent(kind, skillID)
}

// RecordTelemetryEnqueued counts an event accepted by the telemetry queue.
func RecordTelemetryEnqueued() {
	globalManager.telemetryEnqueued.Inc()
}

// RecordTelemetryDropped counts an event the telemetry queue refused.
func RecordTelemetryDropped(reason string) {
	globalManager.telemetryDropped.WithLabelValues(reason).Inc()
}

// RecordTelemetryDispatchError counts a sink failure.
func RecordTelemetryDispatchError(sink string) {
	globalManager.telemetryDispatchError.WithLabelValues(sink).Inc()
}

// UpdateTelemetryQueueSize sets the telemetry queue depth.
func UpdateTelemetryQueueSize(size int) {
	globalManager.telemetryQueueSize.Set(float64(size))
}

// RecordTelemetryLatency records dispatch latency in milliseconds.
func RecordTelemetryLatency(latencyMs float64) {
	globalManager.telemetryLatency.Observe(latencyMs)
}

// UpdateTelemetryWorkers sets the number of running telemetry workers.
func UpdateTelemetryWorkers(n int) {
	globalManager.telemetryWorkers.Set(float64(n))
}

// RecordDuplicateRequest counts a tracking request skipped as a duplicate.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// Global returns the process-wide manager.
func Global() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
