package flow

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics collection for workflow
// execution monitoring.
//
// Metrics exposed (all namespaced with "tripgraph_"):
//
// 1. phase_latency_ms (histogram): Phase execution duration in milliseconds.
// Labels: run_id, phase, status (success/error).
// Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000].
//
// 2. runs_total (counter): Workflow runs started.
// Labels: outcome (completed/paused/error).
//
// 3. pauses_total (counter): Runs suspended awaiting external input.
// Labels: run_id, phase.
//
// 4. tool_calls_total (counter): Collaborator tool invocations.
// Labels: tool, status (ok/skipped/error).
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewMetrics(registry)
//	engine := flow.New(reducer, st, emitter, flow.Options{Metrics: metrics})
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: prometheus collectors handle concurrent updates.
type Metrics struct {
	phaseLatency *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	pauses       *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics creates and registers all workflow metrics with the provided
// Prometheus registry. A nil registry falls back to the global default.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		enabled:  true,
	}

	m.phaseLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripgraph",
		Name:      "phase_latency_ms",
		Help:      "Phase execution duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"run_id", "phase", "status"})

	m.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripgraph",
		Name:      "runs_total",
		Help:      "Workflow runs by final outcome",
	}, []string{"outcome"}) // outcome: completed, paused, error

	m.pauses = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripgraph",
		Name:      "pauses_total",
		Help:      "Runs suspended awaiting external review input",
	}, []string{"run_id", "phase"})

	m.toolCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripgraph",
		Name:      "tool_calls_total",
		Help:      "Collaborator tool invocations by outcome",
	}, []string{"tool", "status"}) // status: ok, skipped, error

	return m
}

// ObservePhase records the execution duration of a phase.
//
// Parameters:
//   - runID: workflow execution identifier
//   - phase: phase that was executed
//   - latency: execution duration
//   - status: execution outcome ("success", "error")
func (m *Metrics) ObservePhase(runID, phase string, latency time.Duration, status string) {
	if !m.recording() {
		return
	}
	m.phaseLatency.WithLabelValues(runID, phase, status).Observe(float64(latency.Milliseconds()))
}

// IncRun increments the run counter for the given final outcome
// ("completed", "paused", "error").
func (m *Metrics) IncRun(outcome string) {
	if !m.recording() {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// IncPause increments the pause counter for a run suspended at a phase.
func (m *Metrics) IncPause(runID, phase string) {
	if !m.recording() {
		return
	}
	m.pauses.WithLabelValues(runID, phase).Inc()
}

// IncToolCall increments the tool invocation counter
// ("ok", "skipped", "error").
func (m *Metrics) IncToolCall(tool, status string) {
	if !m.recording() {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) recording() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Disable temporarily disables metric recording (useful for testing).
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable re-enables metric recording after Disable().
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
