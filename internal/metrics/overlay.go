package metrics

import "github.com/prometheus/client_golang/prometheus"

// Overlay holds Prometheus metrics for the overlay coordinator.
// All methods are safe to call on a nil *Overlay.
type Overlay struct {
	SessionsStarted prometheus.Counter
	SpawnFailures   prometheus.Counter
	Restores        *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	Joins           *prometheus.CounterVec
	CommandsSent    *prometheus.CounterVec
	CommandsDropped *prometheus.CounterVec
	SessionActive   prometheus.Gauge
}

// NewOverlay creates and registers overlay metrics on the given registry.
func NewOverlay(reg prometheus.Registerer) *Overlay {
	m := &Overlay{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "sessions_started_total",
			Help:      "Total number of overlay sessions that reached active.",
		}),
		SpawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "spawn_failures_total",
			Help:      "Total number of failed overlay worker spawns.",
		}),
		Restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "restores_total",
			Help:      "Total number of restores executed, by exit reason.",
		}, []string{"reason"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "transitions_total",
			Help:      "Total number of lifecycle transitions, by edge.",
		}, []string{"from", "to"}),
		Joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "worker_joins_total",
			Help:      "Total number of worker joins, by outcome.",
		}, []string{"outcome"}),
		CommandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "commands_dispatched_total",
			Help:      "Total number of commands dispatched to the worker, by kind.",
		}, []string{"kind"}),
		CommandsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "commands_dropped_total",
			Help:      "Total number of commands dropped because the worker channel was full or gone, by kind.",
		}, []string{"kind"}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "overlay",
			Name:      "session_active",
			Help:      "1 while an overlay session is active, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		m.SessionsStarted,
		m.SpawnFailures,
		m.Restores,
		m.Transitions,
		m.Joins,
		m.CommandsSent,
		m.CommandsDropped,
		m.SessionActive,
	)
	return m
}

// SessionStarted counts a session that reached active.
func (m *Overlay) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// SpawnFailed counts a failed spawn.
func (m *Overlay) SpawnFailed() {
	if m == nil {
		return
	}
	m.SpawnFailures.Inc()
}

// Restored counts an executed restore.
func (m *Overlay) Restored(reason string) {
	if m == nil {
		return
	}
	m.Restores.WithLabelValues(reason).Inc()
}

// Transitioned counts a lifecycle edge and tracks the active gauge.
func (m *Overlay) Transitioned(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
	switch to {
	case "active":
		m.SessionActive.Set(1)
	case "idle":
		m.SessionActive.Set(0)
	}
}

// Joined counts a worker join outcome.
func (m *Overlay) Joined(outcome string) {
	if m == nil {
		return
	}
	m.Joins.WithLabelValues(outcome).Inc()
}

// CommandDispatched counts a command handed to the worker.
func (m *Overlay) CommandDispatched(kind string) {
	if m == nil {
		return
	}
	m.CommandsSent.WithLabelValues(kind).Inc()
}

// CommandDropped counts a command the worker channel refused.
func (m *Overlay) CommandDropped(kind string) {
	if m == nil {
		return
	}
	m.CommandsDropped.WithLabelValues(kind).Inc()
}
