// Package metrics provides Prometheus metrics for the postura monitoring service.
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

// Manager manages all Prometheus metrics for the postura service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core Detection Metrics
	framesProcessed   prometheus.Counter
	framesSkipped     prometheus.Counter
	postureScore      prometheus.Gauge
	smoothedScore     prometheus.Gauge
	issuesDetected    *prometheus.CounterVec
	comparisonLatency prometheus.Histogram

	// Calibration Metrics
	calibrationSamples   prometheus.Gauge
	calibrationsComplete prometheus.Counter
	calibrationsFailed   prometheus.Counter

	// Alerting Metrics
	alertsSent prometheus.Counter

	// Queue Metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Baseline Store Metrics
	baselineSaves      prometheus.Counter
	baselineSaveErrors prometheus.Counter
	baselineLoadErrors prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Stream Metrics - websocket collaborators
	streamClients prometheus.Gauge

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "postura",
		subsystem:        "monitor",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_processed_total",
		Help:      "Total number of landmark frames successfully scored",
	})

	m.framesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_skipped_total",
		Help:      "Total number of frames skipped for insufficient landmark visibility",
	})

	m.postureScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posture_score",
		Help:      "Latest raw posture score (0-100)",
	})

	m.smoothedScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posture_score_smoothed",
		Help:      "Latest smoothed posture score (0-100)",
	})

	m.issuesDetected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "issues_detected_total",
			Help:      "Total number of posture issues detected by label",
		},
		[]string{"label"},
	)

	m.comparisonLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comparison_latency_milliseconds",
		Help:      "Histogram of extract+compare latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.calibrationSamples = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_samples",
		Help:      "Number of samples collected in the active calibration session",
	})

	m.calibrationsComplete = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibrations_completed_total",
		Help:      "Total number of completed calibration sessions",
	})

	m.calibrationsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibrations_failed_total",
		Help:      "Total number of calibration sessions that ended with insufficient data",
	})

	m.alertsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_sent_total",
		Help:      "Total number of sustained-bad-posture alerts delivered",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_queue_size",
		Help:      "Current size of the frame queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_queue_capacity",
		Help:      "Maximum frame queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_queue_utilization_ratio",
		Help:      "Frame queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_queue_enqueue_total",
		Help:      "Total number of frames enqueued",
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_queue_dequeue_total",
		Help:      "Total number of frames dequeued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_queue_enqueue_errors_total",
		Help:      "Total number of enqueue failures (backpressure or closed queue)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of monitor workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Worker frame processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker errors",
	})

	m.baselineSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_saves_total",
		Help:      "Total number of baseline records persisted",
	})

	m.baselineSaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_save_errors_total",
		Help:      "Total number of baseline persistence failures",
	})

	m.baselineLoadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_load_errors_total",
		Help:      "Total number of baseline load failures (missing or corrupt record)",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.streamClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_clients",
		Help:      "Number of connected websocket collaborators (frame producers and score consumers)",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordFrameProcessed increments the processed frames counter.
func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

// RecordFrameSkipped increments the skipped frames counter.
func RecordFrameSkipped() {
	globalManager.framesSkipped.Inc()
}

// UpdatePostureScore sets the latest raw posture score.
func UpdatePostureScore(score int) {
	globalManager.postureScore.Set(float64(score))
}

// UpdateSmoothedScore sets the latest smoothed posture score.
func UpdateSmoothedScore(score int) {
	globalManager.smoothedScore.Set(float64(score))
}

// RecordIssueDetected increments the issue counter for a label.
func RecordIssueDetected(label string) {
	globalManager.issuesDetected.WithLabelValues(label).Inc()
}

// RecordComparisonLatency records extract+compare latency in milliseconds.
func RecordComparisonLatency(latencyMs float64) {
	globalManager.comparisonLatency.Observe(latencyMs)
}

// UpdateCalibrationSamples sets the active calibration sample count.
func UpdateCalibrationSamples(count int) {
	globalManager.calibrationSamples.Set(float64(count))
}

// RecordCalibrationComplete increments the completed calibrations counter.
func RecordCalibrationComplete() {
	globalManager.calibrationsComplete.Inc()
}

// RecordCalibrationFailed increments the failed calibrations counter.
func RecordCalibrationFailed() {
	globalManager.calibrationsFailed.Inc()
}

// RecordAlertSent increments the alerts counter.
func RecordAlertSent() {
	globalManager.alertsSent.Inc()
}

// UpdateQueueSize sets the current frame queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum frame queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the frame queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordBaselineSave increments the baseline saves counter.
func RecordBaselineSave() {
	globalManager.baselineSaves.Inc()
}

// RecordBaselineSaveError increments the baseline save error counter.
func RecordBaselineSaveError() {
	globalManager.baselineSaveErrors.Inc()
}

// RecordBaselineLoadError increments the baseline load error counter.
func RecordBaselineLoadError() {
	globalManager.baselineLoadErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// StreamClientConnected increments the connected stream client gauge.
func StreamClientConnected() {
	globalManager.streamClients.Inc()
}

// StreamClientDisconnected decrements the connected stream client gauge.
func StreamClientDisconnected() {
	globalManager.streamClients.Dec()
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
