// Package metrics provides Prometheus metrics collection for storagemeter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for storagemeter.
type Collector struct {
	// Operation metrics
	OperationsTotal *prometheus.CounterVec
	ApplyDuration   *prometheus.HistogramVec

	// Billing metrics
	ReportsGenerated prometheus.Counter
	UnitsRegistered  prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector registered on the default registerer.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a collector registered on a custom registry.
// Used by tests to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storagemeter",
				Name:      "operations_total",
				Help:      "Total number of operations applied, by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		ApplyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "storagemeter",
				Name:      "apply_duration_seconds",
				Help:      "Operation apply duration in seconds",
				Buckets:   []float64{.000001, .00001, .0001, .001, .01, .1},
			},
			[]string{"kind"},
		),
		ReportsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storagemeter",
				Name:      "reports_generated_total",
				Help:      "Total number of monthly fee reports computed",
			},
		),
		UnitsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "storagemeter",
				Name:      "units_registered",
				Help:      "Number of storage units currently registered",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storagemeter",
				Name:      "config_reloads_total",
				Help:      "Total number of successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storagemeter",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed configuration reloads",
			},
		),
	}
}

// RecordOperation increments the operation counter for one apply outcome.
func (c *Collector) RecordOperation(kind, status string, seconds float64) {
	c.OperationsTotal.WithLabelValues(kind, status).Inc()
	c.ApplyDuration.WithLabelValues(kind).Observe(seconds)
}
