package metrics

import "github.com/prometheus/client_golang/prometheus"

// NATSMetrics holds Prometheus metrics for JetStream publishing.
type NATSMetrics struct {
	PublishTotal        *prometheus.CounterVec
	PublishDuration     prometheus.Histogram
	CircuitBreakerState prometheus.Gauge
}

// NewNATSMetrics creates and registers NATS metrics on the given registry.
func NewNATSMetrics(reg prometheus.Registerer) *NATSMetrics {
	m := &NATSMetrics{
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nats",
			Name:      "publish_total",
			Help:      "Total number of JetStream publishes, by entry type and status.",
		}, []string{"type", "status"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nats",
			Name:      "publish_duration_seconds",
			Help:      "Duration of JetStream publishes including the server ack.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nats",
			Name:      "circuit_breaker_state",
			Help:      "NATS publish circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.PublishTotal, m.PublishDuration, m.CircuitBreakerState)
	return m
}
