// Package telemetry exposes Prometheus metrics for the catalog API.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Duplicate-check result labels
const (
	ResultCacheHit = "cache_hit"
	ResultExists   = "exists"
	ResultMiss     = "miss"
)

// Metrics holds the Prometheus collectors for the API
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	DuplicateChecks *prometheus.CounterVec
	DroppedTasks    *prometheus.CounterVec
}

// NewMetrics creates and registers the API collectors on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "toolgrid",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		DuplicateChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgrid",
			Name:      "duplicate_checks_total",
			Help:      "Duplicate check outcomes.",
		}, []string{"result"}),
		DroppedTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgrid",
			Name:      "async_tasks_dropped_total",
			Help:      "Fire-and-forget tasks dropped because the queue was full.",
		}, []string{"task"}),
	}

	registry.MustRegister(m.RequestDuration, m.DuplicateChecks, m.DroppedTasks)
	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one request sample
func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}

// CountDuplicateCheck records a duplicate check outcome
func (m *Metrics) CountDuplicateCheck(result string) {
	m.DuplicateChecks.WithLabelValues(result).Inc()
}

// CountDroppedTask records a dropped fire-and-forget task
func (m *Metrics) CountDroppedTask(task string) {
	m.DroppedTasks.WithLabelValues(task).Inc()
}
