// Package metrics exposes the diagnosis engine's counters, histograms, and
// a point-in-time health snapshot, all registered against a private
// Prometheus registry rather than the global default so this package can be
// constructed more than once (tests, multiple engine instances) without
// colliding registrations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter and histogram the orchestration engine emits.
type Metrics struct {
	Registry *prometheus.Registry

	TotalRequests  prometheus.Counter
	ChatRequests   prometheus.Counter
	WorkflowSuccess prometheus.Counter
	WorkflowErrors prometheus.Counter
	ExpertFailures *prometheus.CounterVec
	ParseFailures  *prometheus.CounterVec

	RequestDuration  prometheus.Histogram
	WorkflowDuration prometheus.Histogram
	ExpertLatency    *prometheus.HistogramVec

	startedAt time.Time

	mu               sync.Mutex
	activeSessions   int
	activeAlerts     int
	expertOutcomes   map[string]*outcomeWindow
	outcomeWindowLen int
}

// outcomeWindow keeps the last N pass/fail outcomes for one expert, enough
// to compute a rolling success rate for the health snapshot without an
// unbounded history.
type outcomeWindow struct {
	outcomes []bool
	next     int
	filled   bool
}

const defaultOutcomeWindow = 50

// New builds a Metrics instance and registers every collector against its
// own private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		TotalRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_total_requests",
			Help: "Total turns received by the engine.",
		}),
		ChatRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_chat_requests",
			Help: "Total chat turns handed to the workflow engine.",
		}),
		WorkflowSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_workflow_success_total",
			Help: "Turns that produced a non-degraded recommendation.",
		}),
		WorkflowErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_workflow_errors_total",
			Help: "Turns that ended in a workflow-level error.",
		}),
		ExpertFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_expert_failures_total",
			Help: "Expert adapter failures, by expert name and error kind.",
		}, []string{"expert", "kind"}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_parse_failures_total",
			Help: "Moderator phase JSON parse failures, by phase.",
		}, []string{"phase"}),

		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_request_duration_seconds",
			Help:    "End-to-end request handling latency.",
			Buckets: prometheus.DefBuckets,
		}),
		WorkflowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_workflow_duration_seconds",
			Help:    "Classify-through-moderate turn latency.",
			Buckets: prometheus.DefBuckets,
		}),
		ExpertLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_expert_latency_seconds",
			Help:    "Per-expert adapter call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"expert"}),

		startedAt:        time.Now(),
		expertOutcomes:   make(map[string]*outcomeWindow),
		outcomeWindowLen: defaultOutcomeWindow,
	}

	m.Registry.MustRegister(
		m.TotalRequests, m.ChatRequests, m.WorkflowSuccess, m.WorkflowErrors,
		m.ExpertFailures, m.ParseFailures,
		m.RequestDuration, m.WorkflowDuration, m.ExpertLatency,
	)

	return m
}

// RecordExpertOutcome records one expert call's pass/fail outcome into its
// rolling window, feeding the health snapshot's per-expert success rate.
func (m *Metrics) RecordExpertOutcome(expertName string, succeeded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.expertOutcomes[expertName]
	if !ok {
		w = &outcomeWindow{outcomes: make([]bool, m.outcomeWindowLen)}
		m.expertOutcomes[expertName] = w
	}
	w.outcomes[w.next] = succeeded
	w.next = (w.next + 1) % len(w.outcomes)
	if w.next == 0 {
		w.filled = true
	}
}

// SetActiveSessions records the current count of active sessions for the
// next health snapshot.
func (m *Metrics) SetActiveSessions(n int) {
	m.mu.Lock()
	m.activeSessions = n
	m.mu.Unlock()
}

// SetActiveAlerts records the current count of active alerts for the next
// health snapshot.
func (m *Metrics) SetActiveAlerts(n int) {
	m.mu.Lock()
	m.activeAlerts = n
	m.mu.Unlock()
}

// Snapshot is a point-in-time health read.
type Snapshot struct {
	Uptime             time.Duration
	ActiveSessions     int
	ActiveAlerts       int
	ExpertSuccessRates map[string]float64
}

// Snapshot builds a health snapshot from the engine's current state.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	rates := make(map[string]float64, len(m.expertOutcomes))
	for name, w := range m.expertOutcomes {
		n := len(w.outcomes)
		if !w.filled {
			n = w.next
		}
		if n == 0 {
			rates[name] = 0
			continue
		}
		var passed int
		for i := 0; i < n; i++ {
			if w.outcomes[i] {
				passed++
			}
		}
		rates[name] = float64(passed) / float64(n)
	}

	return Snapshot{
		Uptime:             time.Since(m.startedAt),
		ActiveSessions:     m.activeSessions,
		ActiveAlerts:       m.activeAlerts,
		ExpertSuccessRates: rates,
	}
}
