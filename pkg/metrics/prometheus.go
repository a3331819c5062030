// Package metrics provides Prometheus metrics for the featured service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeQueryFailed   = "query_failed"
	OutcomePersistFailed = "persist_failed"
)

// Manager holds every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	queryLatency    prometheus.Histogram
	storeLatency    prometheus.Histogram
	featuredRows    prometheus.Gauge
	lastSuccessUnix prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "featured",
		subsystem:        "repositories",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Featured repository runs by outcome",
	}, []string{"outcome"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_milliseconds",
		Help:      "End-to-end duration of a run",
		Buckets:   m.histogramBuckets,
	})

	m.queryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "query_latency_milliseconds",
		Help:      "Latency of the usage aggregation query",
		Buckets:   m.histogramBuckets,
	})

	m.storeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Latency of the snapshot overwrite",
		Buckets:   m.histogramBuckets,
	})

	m.featuredRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "featured_rows",
		Help:      "Rows produced by the last successful query",
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_persisted_unix",
		Help:      "Unix time of the last snapshot written",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordRun counts a finished run and its duration.
func (m *Manager) RecordRun(outcome string, d time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(ms(d))
}

// RecordQuery observes query latency; rows is set only on success.
func (m *Manager) RecordQuery(d time.Duration, rows int, err error) {
	m.queryLatency.Observe(ms(d))
	if err != nil {
		m.errorsByComponent.WithLabelValues("analytics", "query_failed").Inc()
		return
	}
	m.featuredRows.Set(float64(rows))
}

// RecordStoreWrite observes the snapshot write.
func (m *Manager) RecordStoreWrite(d time.Duration, at time.Time, err error) {
	m.storeLatency.Observe(ms(d))
	if err != nil {
		m.errorsByComponent.WithLabelValues("snapshot", "persist_failed").Inc()
		return
	}
	m.lastSuccessUnix.Set(float64(at.Unix()))
}

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms(d))
}

// RecordErrorByEndpoint counts an HTTP error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// RecordRun records a run on the global manager.
func RecordRun(outcome string, d time.Duration) {
	globalManager.RecordRun(outcome, d)
}

// RecordQuery records a query on the global manager.
func RecordQuery(d time.Duration, rows int, err error) {
	globalManager.RecordQuery(d, rows, err)
}

// RecordStoreWrite records a snapshot write on the global manager.
func RecordStoreWrite(d time.Duration, at time.Time, err error) {
	globalManager.RecordStoreWrite(d, at, err)
}

// RecordHTTPRequest records a request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, d)
}

// RecordErrorByEndpoint records an HTTP error on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// GetRegistry returns the registry the global manager is registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
