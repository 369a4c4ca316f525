package devserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dev server's Prometheus collectors.
//
// Each server owns its registry so tests can run servers side by side
// without collector name collisions.
type Metrics struct {
	registry *prometheus.Registry

	// ChunkRequests counts chunk requests by outcome.
	ChunkRequests *prometheus.CounterVec
	// ChunkMisses counts requests for files no deployment serves —
	// stale clients asking for replaced chunks show up here.
	ChunkMisses prometheus.Counter
	// Deploys counts deployment activations.
	Deploys prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		ChunkRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keel_chunk_requests_total",
				Help: "Total chunk requests served",
			},
			[]string{"status"},
		),
		ChunkMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keel_chunk_miss_total",
				Help: "Requests for chunk files absent from the active deployment",
			},
		),
		Deploys: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keel_deploys_total",
				Help: "Total deployment activations",
			},
		),
	}
	registry.MustRegister(m.ChunkRequests, m.ChunkMisses, m.Deploys)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
