package metrics

import "github.com/prometheus/client_golang/prometheus"

// DiagnosticsMetrics holds Prometheus metrics for the diagnostic log pipeline.
type DiagnosticsMetrics struct {
	EntriesWritten *prometheus.CounterVec
	EntriesDropped *prometheus.CounterVec
	WriteErrors    *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
}

// NewDiagnosticsMetrics creates and registers diagnostic sink metrics on the given registry.
func NewDiagnosticsMetrics(reg prometheus.Registerer) *DiagnosticsMetrics {
	m := &DiagnosticsMetrics{
		EntriesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "diagnostics",
			Name:      "entries_written_total",
			Help:      "Total number of diagnostic entries written, by entry type.",
		}, []string{"type"}),
		EntriesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "diagnostics",
			Name:      "entries_dropped_total",
			Help:      "Total number of diagnostic entries dropped because the queue was full, by entry type.",
		}, []string{"type"}),
		WriteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "diagnostics",
			Name:      "write_errors_total",
			Help:      "Total number of diagnostic entries the sink failed to write, by entry type.",
		}, []string{"type"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "diagnostics",
			Name:      "queue_depth",
			Help:      "Number of diagnostic entries waiting to be written.",
		}),
	}

	reg.MustRegister(m.EntriesWritten, m.EntriesDropped, m.WriteErrors, m.QueueDepth)
	return m
}
