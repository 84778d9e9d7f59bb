// Package metrics provides Prometheus metrics for the webform service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the webform service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Views
	viewsRendered   *prometheus.CounterVec
	deviceIDsIssued *prometheus.CounterVec
	logoRejections  *prometheus.CounterVec

	// Surveys and upstream OpenRosa servers
	surveyLookups        *prometheus.CounterVec
	communicatorRequests *prometheus.CounterVec
	communicatorLatency  *prometheus.HistogramVec
	xformCacheLookups    *prometheus.CounterVec
	xformCacheEntries    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByType        *prometheus.CounterVec

	// System
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
		namespace:        "enketo",
		subsystem:        "webform",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.viewsRendered = m.counterVec("views_rendered_total",
		"Webform views rendered by view type", "type")
	m.deviceIDsIssued = m.counterVec("device_ids_total",
		"Device-id cookies issued, split by whether the id was new or returning", "kind")
	m.logoRejections = m.counterVec("custom_logo_rejections_total",
		"Custom logo validation errors by query parameter", "param")

	m.surveyLookups = m.counterVec("survey_lookups_total",
		"Survey store lookups by outcome", "outcome")
	m.communicatorRequests = m.counterVec("openrosa_requests_total",
		"Requests to OpenRosa servers by operation and status", "operation", "status_code")
	m.communicatorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "openrosa_request_duration_milliseconds",
		Help:        "Latency of requests to OpenRosa servers",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"operation"})
	m.xformCacheLookups = m.counterVec("xform_cache_lookups_total",
		"XForm cache lookups by result", "result")
	m.xformCacheEntries = m.gauge("xform_cache_entries",
		"Number of XForms currently cached")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by route and method", "route", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})
	m.errorsByType = m.counterVec("errors_by_type_total",
		"Errors returned to clients by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordViewRendered counts a rendered webform view; an empty type is the plain webform.
func RecordViewRendered(viewType string) {
	if viewType == "" {
		viewType = "webform"
	}
	globalManager.viewsRendered.WithLabelValues(viewType).Inc()
}

// RecordDeviceID counts an issued device-id cookie.
func RecordDeviceID(isNew bool) {
	kind := "returning"
	if isNew {
		kind = "new"
	}
	globalManager.deviceIDsIssued.WithLabelValues(kind).Inc()
}

// RecordLogoRejection counts a custom logo validation error for a parameter.
func RecordLogoRejection(param string) {
	globalManager.logoRejections.WithLabelValues(param).Inc()
}

// RecordSurveyLookup counts a survey store lookup: found, not_found, inactive, error.
func RecordSurveyLookup(outcome string) {
	globalManager.surveyLookups.WithLabelValues(outcome).Inc()
}

// RecordCommunicatorRequest records an OpenRosa request and its latency.
func RecordCommunicatorRequest(operation, statusCode string, latencyMs float64) {
	globalManager.communicatorRequests.WithLabelValues(operation, statusCode).Inc()
	globalManager.communicatorLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordXFormCacheLookup counts an XForm cache hit or miss.
func RecordXFormCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.xformCacheLookups.WithLabelValues(result).Inc()
}

// UpdateXFormCacheEntries sets the number of cached XForms.
func UpdateXFormCacheEntries(count int) {
	globalManager.xformCacheEntries.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(route, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(route, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
