// ABOUTME: Prometheus counters for the reminder daemon.
// ABOUTME: Uses a private registry served on an optional /metrics endpoint.
package reminder

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks daemon activity.
type Metrics struct {
	registry   *prometheus.Registry
	fired      *prometheus.CounterVec
	suppressed prometheus.Counter
	pending    prometheus.Gauge
	ticks      prometheus.Counter
}

// NewMetrics creates and registers the daemon's collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medlog",
			Subsystem: "reminders",
			Name:      "fired_total",
			Help:      "Reminders delivered, by alarm kind.",
		}, []string{"kind"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medlog",
			Subsystem: "reminders",
			Name:      "suppressed_total",
			Help:      "Follow-up reminders skipped because the dose was already logged.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "medlog",
			Subsystem: "reminders",
			Name:      "pending",
			Help:      "Alarms waiting to fire after the last tick.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medlog",
			Subsystem: "reminders",
			Name:      "ticks_total",
			Help:      "Due-alarm checks performed.",
		}),
	}
	m.registry.MustRegister(m.fired, m.suppressed, m.pending, m.ticks)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
