package globals

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for a globals file provider.
type Metrics struct {
	reloadsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globals_reloads_total",
				Help: "Total number of globals file reload attempts by status",
			},
			[]string{"status"},
		),
		registry: registry,
	}

	registry.MustRegister(m.reloadsTotal)
	return m
}

// RecordReload records the outcome of one reload attempt.
func (m *Metrics) RecordReload(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.reloadsTotal.WithLabelValues(status).Inc()
}

// Handler returns an HTTP handler exposing the provider metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
