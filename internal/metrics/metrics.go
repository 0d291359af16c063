// Package metrics provides internal Prometheus collectors for the
// generation loop. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the loop's metrics. Construct with a dedicated registry
// in tests; passing nil registers on the default registry.
type Collector struct {
	generateTotal    *prometheus.CounterVec
	generateDuration *prometheus.HistogramVec
	requestRounds    prometheus.Histogram
	toolDispatches   *prometheus.CounterVec
	failures         *prometheus.CounterVec
}

// NewCollector creates and registers the collectors under namespace.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		generateTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_requests_total",
			Help:      "Generate calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		generateDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Wall time of generate calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"provider"}),
		requestRounds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_rounds",
			Help:      "Model request rounds consumed per generate call.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		toolDispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_dispatches_total",
			Help:      "Inspection tool dispatches by tool name.",
		}, []string{"tool"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_failures_total",
			Help:      "Generate failures by classified kind.",
		}, []string{"kind"}),
	}
}

// ObserveGenerate records one finished generate call.
func (c *Collector) ObserveGenerate(provider, outcome string, rounds int, elapsed time.Duration) {
	c.generateTotal.WithLabelValues(provider, outcome).Inc()
	c.generateDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	c.requestRounds.Observe(float64(rounds))
}

// ObserveDispatch records one inspection tool dispatch.
func (c *Collector) ObserveDispatch(tool string) {
	c.toolDispatches.WithLabelValues(tool).Inc()
}

// ObserveFailure records one classified failure.
func (c *Collector) ObserveFailure(kind string) {
	c.failures.WithLabelValues(kind).Inc()
}
