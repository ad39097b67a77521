// Package metrics provides Prometheus metrics for the bizmap view service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dataset load outcomes used as the "result" label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Render surfaces used as the "surface" label.
const (
	SurfacePage = "page"
	SurfaceAPI  = "api"
)

// Manager manages all Prometheus metrics for the view service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Dataset metrics
	datasetLoads        *prometheus.CounterVec
	datasetLoadDuration prometheus.Histogram
	datasetRecords      prometheus.Gauge
	datasetRowsSkipped  prometheus.Counter

	// Render pass metrics
	renderPasses     *prometheus.CounterVec
	renderDuration   prometheus.Histogram
	filteredRecords  prometheus.Gauge
	emptyViews       prometheus.Counter
	unknownOrdinals  *prometheus.CounterVec
	unmatchedFilters *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bizmap",
		subsystem:        "view",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.datasetLoads = auto.NewCounterVec(
		m.counterOpts("dataset_loads_total", "Dataset fetch+parse attempts by result"),
		[]string{"result"},
	)
	m.datasetLoadDuration = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Dataset fetch+parse duration in milliseconds", m.histogramBuckets),
	)
	m.datasetRecords = auto.NewGauge(
		m.gaugeOpts("dataset_records", "Number of records in the memoized dataset"),
	)
	m.datasetRowsSkipped = auto.NewCounter(
		m.counterOpts("dataset_rows_skipped_total", "CSV rows skipped because of a wrong field count"),
	)

	m.renderPasses = auto.NewCounterVec(
		m.counterOpts("render_passes_total", "Completed render passes by surface"),
		[]string{"surface"},
	)
	m.renderDuration = auto.NewHistogram(
		m.histogramOpts("render_duration_milliseconds", "Render pass duration in milliseconds", m.histogramBuckets),
	)
	m.filteredRecords = auto.NewGauge(
		m.gaugeOpts("filtered_records", "Records in the most recent filtered view"),
	)
	m.emptyViews = auto.NewCounter(
		m.counterOpts("empty_views_total", "Render passes whose filtered view was empty"),
	)
	m.unknownOrdinals = auto.NewCounterVec(
		m.counterOpts("unknown_category_values_total", "Ordinal column values missing from the reference order"),
		[]string{"column"},
	)
	m.unmatchedFilters = auto.NewCounterVec(
		m.counterOpts("unmatched_filter_values_total", "Selected filter values that are not options of the column"),
		[]string{"column"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordDatasetLoad counts a load attempt and observes its duration.
func RecordDatasetLoad(result string, durationMs float64) error {
	if result != ResultSuccess && result != ResultFailure {
		return fmt.Errorf("%w: %q", ErrUnknownResult, result)
	}
	globalManager.datasetLoads.WithLabelValues(result).Inc()
	globalManager.datasetLoadDuration.Observe(durationMs)
	return nil
}

// UpdateDatasetRecords sets the number of records held by the cache.
func UpdateDatasetRecords(count int) {
	globalManager.datasetRecords.Set(float64(count))
}

// RecordDatasetRowsSkipped adds rows dropped while decoding.
func RecordDatasetRowsSkipped(count int) {
	if count > 0 {
		globalManager.datasetRowsSkipped.Add(float64(count))
	}
}

// RecordRenderPass counts a completed render pass for surface.
func RecordRenderPass(surface string, durationMs float64, filtered int) {
	globalManager.renderPasses.WithLabelValues(surface).Inc()
	globalManager.renderDuration.Observe(durationMs)
	globalManager.filteredRecords.Set(float64(filtered))
	if filtered == 0 {
		globalManager.emptyViews.Inc()
	}
}

// RecordUnknownCategory counts an ordinal value missing from its reference order.
func RecordUnknownCategory(column string) {
	globalManager.unknownOrdinals.WithLabelValues(column).Inc()
}

// RecordUnmatchedFilterValue counts a selected value that is not an option.
func RecordUnmatchedFilterValue(column string) {
	globalManager.unmatchedFilters.WithLabelValues(column).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of operations that resulted in errors.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
