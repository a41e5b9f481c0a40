// Package metrics provides Prometheus metrics for the rally rotation service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons for courts that received no team.
const (
	ReasonNoCourts                = "no_courts"
	ReasonInsufficientPool        = "insufficient_pool"
	ReasonConstraintUnsatisfiable = "constraint_unsatisfiable"
)

// Manager manages all Prometheus metrics for the rally service.
type Manager struct {
	namespace   string
	subsystem   string
	constLabels prometheus.Labels
	registry    prometheus.Registerer

	latencyBuckets []float64
	// combinationBuckets cover the per-court candidate search, which is
	// bounded by the max combinations setting.
	combinationBuckets []float64

	// Allocation
	gamesAllocated        prometheus.Counter
	courtsAllocated       prometheus.Counter
	courtsSkipped         *prometheus.CounterVec
	combinationsEvaluated prometheus.Histogram
	allocationLatency     prometheus.Histogram
	validationFindings    *prometheus.CounterVec

	// Session
	gamesCompleted          prometheus.Counter
	gamesCompletedDuplicate prometheus.Counter
	sessionResets           prometheus.Counter
	participants            prometheus.Gauge
	activeCourts            prometheus.Gauge
	pairingHistorySize      prometheus.Gauge

	// Rotation quality
	gamesSpread        prometheus.Gauge
	fairnessScore      prometheus.Gauge
	balanceScore       prometheus.Gauge
	rotationEfficiency prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var (
	globalManager *Manager     //nolint:gochecknoglobals // singleton metrics manager
	globalMu      sync.RWMutex //nolint:gochecknoglobals // guards globalManager

	// Custom registry to avoid default Go metrics.
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:          "rally",
		subsystem:          "rotation",
		constLabels:        prometheus.Labels{},
		registry:           prometheus.DefaultRegisterer,
		latencyBuckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		combinationBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
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

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.gamesAllocated = m.counter("games_allocated_total", "Total number of allocation invocations")
	m.courtsAllocated = m.counter("courts_allocated_total", "Total number of courts that received a team")
	m.courtsSkipped = m.counterVec("courts_skipped_total", "Courts left without a team, by reason", "reason")
	m.combinationsEvaluated = m.histogram("combinations_evaluated",
		"Distinct candidate teams scored per court", m.combinationBuckets)
	m.allocationLatency = m.histogram("allocation_latency_milliseconds",
		"Allocation latency in milliseconds", m.latencyBuckets)
	m.validationFindings = m.counterVec("validation_findings_total",
		"Validation violations and warnings by kind", "kind")

	m.gamesCompleted = m.counter("games_completed_total", "Total number of games whose results were applied")
	m.gamesCompletedDuplicate = m.counter("games_completed_duplicate_total",
		"Completions ignored because the game was already applied")
	m.sessionResets = m.counter("session_resets_total", "Total number of session resets")
	m.participants = m.gauge("participants", "Participants in the pool")
	m.activeCourts = m.gauge("active_courts", "Courts currently active")
	m.pairingHistorySize = m.gauge("pairing_history_size", "Distinct teams in the pairing history")

	m.gamesSpread = m.gauge("games_spread", "Difference between most and fewest games played")
	m.fairnessScore = m.gauge("fairness_score", "Rotation fairness on a 0-10 scale")
	m.balanceScore = m.gauge("balance_score", "Skill balance of the last allocation on a 0-10 scale")
	m.rotationEfficiency = m.gauge("rotation_efficiency", "Rotation efficiency on a 0-10 scale")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
}

// RecordAllocation records one allocation invocation.
func (m *Manager) RecordAllocation(courts int, latency time.Duration) {
	m.gamesAllocated.Inc()
	m.courtsAllocated.Add(float64(courts))
	m.allocationLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// RecordCourtSkipped counts a court left without a team.
func (m *Manager) RecordCourtSkipped(reason string) {
	m.courtsSkipped.WithLabelValues(reason).Inc()
}

// RecordCombinationsEvaluated observes the size of one court's search.
func (m *Manager) RecordCombinationsEvaluated(n int) {
	m.combinationsEvaluated.Observe(float64(n))
}

// RecordValidationFinding counts a validation violation or warning.
func (m *Manager) RecordValidationFinding(kind string) {
	m.validationFindings.WithLabelValues(kind).Inc()
}

// RecordGameCompleted counts an applied completion; duplicates are counted
// separately.
func (m *Manager) RecordGameCompleted(duplicate bool) {
	if duplicate {
		m.gamesCompletedDuplicate.Inc()
		return
	}
	m.gamesCompleted.Inc()
}

// RecordSessionReset counts a session reset.
func (m *Manager) RecordSessionReset() {
	m.sessionResets.Inc()
}

// UpdatePool sets the participant and active court gauges.
func (m *Manager) UpdatePool(participants, activeCourts int) {
	m.participants.Set(float64(participants))
	m.activeCourts.Set(float64(activeCourts))
}

// UpdatePairingHistorySize sets the pairing history gauge.
func (m *Manager) UpdatePairingHistorySize(n int) {
	m.pairingHistorySize.Set(float64(n))
}

// UpdateRotationQuality sets the rotation quality gauges.
func (m *Manager) UpdateRotationQuality(spread int, fairness, efficiency float64) {
	m.gamesSpread.Set(float64(spread))
	m.fairnessScore.Set(fairness)
	m.rotationEfficiency.Set(efficiency)
}

// UpdateBalanceScore sets the balance gauge.
func (m *Manager) UpdateBalanceScore(score float64) {
	m.balanceScore.Set(score)
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func global() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// SetGlobal replaces the manager behind the package level recorders and
// returns the previous one.
func SetGlobal(m *Manager) *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := globalManager
	if m != nil {
		globalManager = m
	}
	return prev
}

// RecordAllocation records one allocation invocation.
func RecordAllocation(courts int, latency time.Duration) { global().RecordAllocation(courts, latency) }

// RecordCourtSkipped counts a court left without a team.
func RecordCourtSkipped(reason string) { global().RecordCourtSkipped(reason) }

// RecordCombinationsEvaluated observes the size of one court's search.
func RecordCombinationsEvaluated(n int) { global().RecordCombinationsEvaluated(n) }

// RecordValidationFinding counts a validation violation or warning.
func RecordValidationFinding(kind string) { global().RecordValidationFinding(kind) }

// RecordGameCompleted counts an applied or duplicate completion.
func RecordGameCompleted(duplicate bool) { global().RecordGameCompleted(duplicate) }

// RecordSessionReset counts a session reset.
func RecordSessionReset() { global().RecordSessionReset() }

// UpdatePool sets the participant and active court gauges.
func UpdatePool(participants, activeCourts int) { global().UpdatePool(participants, activeCourts) }

// UpdatePairingHistorySize sets the pairing history gauge.
func UpdatePairingHistorySize(n int) { global().UpdatePairingHistorySize(n) }

// UpdateRotationQuality sets the rotation quality gauges.
func UpdateRotationQuality(spread int, fairness, efficiency float64) {
	global().UpdateRotationQuality(spread, fairness, efficiency)
}

// UpdateBalanceScore sets the balance gauge.
func UpdateBalanceScore(score float64) { global().UpdateBalanceScore(score) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	global().RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	global().RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	global().RecordErrorByComponent(component, errorType)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
