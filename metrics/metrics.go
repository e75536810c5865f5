// Package metrics exposes Prometheus instrumentation for the artifact
// tree: gauges for the current population by type and status, counters
// for transitions and validation failures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airsdlc/airtrack/artifact"
)

// Metrics holds the collectors for one tracker instance.
type Metrics struct {
	registry *prometheus.Registry

	artifacts          *prometheus.GaugeVec
	transitionsTotal   *prometheus.CounterVec
	validationFailures prometheus.Counter
	watchEventsTotal   *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		artifacts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "airtrack",
			Name:      "artifacts",
			Help:      "Current number of artifacts by type and status.",
		}, []string{"type", "status"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airtrack",
			Name:      "transitions_total",
			Help:      "Status transitions performed, by artifact type and target status.",
		}, []string{"type", "to"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airtrack",
			Name:      "validation_failures_total",
			Help:      "Documents that failed validation.",
		}),
		watchEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airtrack",
			Name:      "watch_events_total",
			Help:      "Filesystem events observed on the artifact tree, by operation.",
		}, []string{"op"}),
	}

	registry.MustRegister(m.artifacts, m.transitionsTotal, m.validationFailures, m.watchEventsTotal)
	return m
}

// Handler returns the /metrics HTTP handler for this instance.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetPopulation replaces the artifact population gauges from a snapshot.
func (m *Metrics) SetPopulation(artifacts []*artifact.Artifact) {
	m.artifacts.Reset()
	for _, a := range artifacts {
		m.artifacts.WithLabelValues(a.Type.String(), a.Status.String()).Inc()
	}
}

// ObserveTransition records a completed status transition.
func (m *Metrics) ObserveTransition(t artifact.Type, to artifact.Status) {
	m.transitionsTotal.WithLabelValues(t.String(), to.String()).Inc()
}

// ObserveValidationFailure records a document that failed validation.
func (m *Metrics) ObserveValidationFailure() {
	m.validationFailures.Inc()
}

// ObserveWatchEvent records a filesystem event on the tree.
func (m *Metrics) ObserveWatchEvent(op string) {
	m.watchEventsTotal.WithLabelValues(op).Inc()
}
