// Package metrics provides Prometheus metrics for the bingonight game service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the game service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Game Metrics
	ballsDrawn       prometheus.Counter
	prizesClaimed    *prometheus.CounterVec
	claimConflicts   *prometheus.CounterVec
	marksRejected    prometheus.Counter
	answers          *prometheus.CounterVec
	questionsExpired prometheus.Counter
	roundsEnded      prometheus.Counter
	playersJoined    prometheus.Counter
	activeSessions   prometheus.Gauge

	// Timer Metrics
	pendingTimers prometheus.Gauge
	timerErrors   prometheus.Counter

	// Store Metrics
	storeLatency *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Outbox Queue / Worker Metrics
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error Metrics
	errorsByComponent *prometheus.CounterVec

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
		namespace:        "bingonight",
		subsystem:        "game",
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

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge snapshots should be taken.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.ballsDrawn = m.counter("balls_drawn_total", "Total number of balls drawn across sessions")
	m.prizesClaimed = m.counterVec("prizes_claimed_total", "Prizes claimed by win type", "win_type")
	m.claimConflicts = m.counterVec("claim_conflicts_total", "Claims that lost the race for a prize", "win_type")
	m.marksRejected = m.counter("marks_rejected_total", "Cell marks dropped during validation")
	m.answers = m.counterVec("answers_total", "Trivia answers by correctness", "correct")
	m.questionsExpired = m.counter("questions_expired_total", "Questions resolved by their expiry timer")
	m.roundsEnded = m.counter("rounds_ended_total", "Rounds advanced")
	m.playersJoined = m.counter("players_joined_total", "New players created")
	m.activeSessions = m.gauge("active_sessions", "Sessions currently known to the store")

	m.pendingTimers = m.gauge("pending_timers", "Question expiry timers currently scheduled")
	m.timerErrors = m.counter("timer_errors_total", "Expiry callbacks that failed")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.queueSize = m.gauge("outbox_queue_size", "Events waiting in the outbox queue")
	m.queueCapacity = m.gauge("outbox_queue_capacity", "Outbox queue capacity")
	m.queueEnqueued = m.counter("outbox_enqueued_total", "Events accepted by the outbox")
	m.queueDequeued = m.counter("outbox_dequeued_total", "Events handed to outbox workers")
	m.queueEnqueueErrors = m.counter("outbox_enqueue_errors_total", "Events dropped by the outbox")
	m.workerActiveCount = m.gauge("outbox_workers", "Running outbox workers")
	m.workerProcessingLatency = m.histogram("outbox_processing_latency_milliseconds", "Time spent publishing one event to sinks", m.histogramBuckets)
	m.workerErrors = m.counter("outbox_worker_errors_total", "Sink publish failures")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and kind", "component", "kind")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Game Metrics Functions.

// RecordBallDrawn increments the balls drawn counter.
func RecordBallDrawn() {
	globalManager.ballsDrawn.Inc()
}

// RecordPrizeClaimed counts a successful prize claim.
func RecordPrizeClaimed(winType string) {
	globalManager.prizesClaimed.WithLabelValues(winType).Inc()
}

// RecordClaimConflict counts a claim that found the prize already taken.
func RecordClaimConflict(winType string) {
	globalManager.claimConflicts.WithLabelValues(winType).Inc()
}

// RecordMarksRejected adds n dropped marks.
func RecordMarksRejected(n int) {
	if n > 0 {
		globalManager.marksRejected.Add(float64(n))
	}
}

// RecordAnswer counts a trivia answer.
func RecordAnswer(correct bool) {
	globalManager.answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// RecordQuestionExpired counts a question resolved by its timer.
func RecordQuestionExpired() {
	globalManager.questionsExpired.Inc()
}

// RecordRoundEnded counts a round advance.
func RecordRoundEnded() {
	globalManager.roundsEnded.Inc()
}

// RecordPlayerJoined counts a new player.
func RecordPlayerJoined() {
	globalManager.playersJoined.Inc()
}

// UpdateActiveSessions sets the session gauge.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// Timer Metrics Functions.

// UpdatePendingTimers sets the number of scheduled expiry timers.
func UpdatePendingTimers(count int) {
	globalManager.pendingTimers.Set(float64(count))
}

// RecordTimerError counts a failed expiry callback.
func RecordTimerError() {
	globalManager.timerErrors.Inc()
}

// Store Metrics Functions.

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current outbox queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// System Performance Metrics Functions.

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
