// Package metrics exposes Prometheus metrics and health probes for the
// server over a small HTTP endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the authkeeper-specific collectors.
type Metrics struct {
	Operations   *prometheus.CounterVec
	HashDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authkeeper_operations_total",
				Help: "Account operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authkeeper_password_hash_seconds",
			Help:    "Time spent in bcrypt hash and verify calls",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	reg.MustRegister(m.Operations, m.HashDuration)
	return m
}

// ObserveOperation counts one finished operation.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHash records one bcrypt computation.
func (m *Metrics) ObserveHash(d time.Duration) {
	m.HashDuration.Observe(d.Seconds())
}
