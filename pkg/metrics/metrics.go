// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration for the ops API.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SessionsStarted tracks sessions created, by persona.
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_sessions_started_total",
			Help: "Simulated sessions started",
		},
		[]string{"persona"},
	)

	// SessionsTerminal tracks sessions reaching a terminal phase.
	SessionsTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_sessions_terminal_total",
			Help: "Simulated sessions ended, by persona and outcome",
		},
		[]string{"persona", "outcome"},
	)

	// MessagesTotal tracks simulated messages, by persona and direction.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_messages_total",
			Help: "Simulated messages exchanged",
		},
		[]string{"persona", "direction"},
	)

	// PhaseTransitions tracks state machine transitions.
	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_phase_transitions_total",
			Help: "Conversation phase transitions",
		},
		[]string{"from", "to"},
	)

	// ScheduledEvents tracks the scheduler's pending queue depth.
	ScheduledEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_scheduled_events",
			Help: "Outstanding scheduled events",
		},
	)

	// WorkersBusy tracks scheduler workers currently running a step.
	WorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_workers_busy",
			Help: "Scheduler workers executing session steps",
		},
	)

	// CollaboratorDuration tracks transport/NLG call latency.
	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sim_collaborator_duration_seconds",
			Help:    "External collaborator call duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"collaborator", "status"},
	)

	// Retries tracks backoff retries, by persona.
	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_retries_total",
			Help: "Transient collaborator failures retried with backoff",
		},
		[]string{"persona"},
	)

	// EventsDropped tracks lifecycle events dropped by the recorder's
	// bounded buffer.
	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_analytics_events_dropped_total",
			Help: "Lifecycle events dropped due to a full recorder buffer",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCollaborator records one transport or NLG call.
func RecordCollaborator(collaborator, status string, seconds float64) {
	CollaboratorDuration.WithLabelValues(collaborator, status).Observe(seconds)
}
