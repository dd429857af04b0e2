// Package metrics exposes the process's Prometheus collectors: command
// latency, active-session count, and successful-command volume per resulting
// phase (counted on every successful command, whether or not the phase
// changed).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	CommandLatency   *prometheus.HistogramVec
	ActiveSessions   prometheus.Gauge
	PhaseTransitions *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		CommandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nightwatch",
			Name:      "command_duration_seconds",
			Help:      "Time to authorize, apply and project one dispatched command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nightwatch",
			Name:      "active_sessions",
			Help:      "Number of sessions currently held by the registry.",
		}),
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nightwatch",
			Name:      "phase_transitions_total",
			Help:      "Count of successful commands, by the phase the session is in afterwards.",
		}, []string{"phase"}),
	}

	reg.MustRegister(m.CommandLatency, m.ActiveSessions, m.PhaseTransitions)
	return m
}

// ObserveCommand records one dispatched command's latency and outcome.
func (m *Metrics) ObserveCommand(action string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CommandLatency.WithLabelValues(action, outcome).Observe(duration.Seconds())
}

func (m *Metrics) ObservePhase(phase string) {
	m.PhaseTransitions.WithLabelValues(phase).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
