// Package metrics exposes Prometheus collectors for endpoint discovery and
// request dispatch. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assistant"

// Metrics groups the collectors registered for one client instance.
type Metrics struct {
	ProbesTotal        *prometheus.CounterVec
	ResolutionsTotal   *prometheus.CounterVec
	InvalidationsTotal prometheus.Counter
	SweepDuration      *prometheus.HistogramVec
	RequestsTotal      *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "probes_total",
				Help:      "Health probes issued, by outcome",
			},
			[]string{"result"},
		),
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "resolutions_total",
				Help:      "Completed resolutions, by winning source or none",
			},
			[]string{"source"},
		),
		InvalidationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "invalidations_total",
				Help:      "Times the trusted endpoint was discarded",
			},
		),
		SweepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "discovery",
				Name:      "sweep_duration_seconds",
				Help:      "Subnet sweep wall time",
				Buckets:   []float64{0.1, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"result"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Application requests, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// ObserveProbe counts a probe outcome.
func (m *Metrics) ObserveProbe(healthy bool) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(healthLabel(healthy)).Inc()
}

// ObserveResolution counts a resolution result. Use "none" for failures.
func (m *Metrics) ObserveResolution(source string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(source).Inc()
}

// ObserveInvalidation counts a discarded endpoint.
func (m *Metrics) ObserveInvalidation() {
	if m == nil {
		return
	}
	m.InvalidationsTotal.Inc()
}

// ObserveSweep records how long a sweep ran and whether it found a host.
func (m *Metrics) ObserveSweep(elapsed time.Duration, found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.SweepDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveRequest counts an application request outcome.
func (m *Metrics) ObserveRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func healthLabel(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
