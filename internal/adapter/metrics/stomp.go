package metrics

import "github.com/prometheus/client_golang/prometheus"

// StompMetrics holds Prometheus metrics for the per-connection protocol engine.
type StompMetrics struct {
	FramesReceived      *prometheus.CounterVec
	FramesSent          *prometheus.CounterVec
	MalformedFrames     prometheus.Counter
	SendErrors          prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	SnapshotsStarted    *prometheus.CounterVec
	SnapshotsCompleted  *prometheus.CounterVec
	SnapshotRecordsSent *prometheus.CounterVec
	LiveUpdatesSent     *prometheus.CounterVec
	IdentityMismatches  prometheus.Counter
	SessionPanics       prometheus.Counter
}

// NewStompMetrics creates and registers protocol metrics on the given registry.
func NewStompMetrics(reg prometheus.Registerer) *StompMetrics {
	m := &StompMetrics{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stomp",
			Name:      "frames_received_total",
			Help:      "Total number of STOMP frames received, by command.",
		}, []string{"command"}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stomp",
			Name:      "frames_sent_total",
			Help:      "Total number of STOMP frames sent, by command.",
		}, []string{"command"}),
		MalformedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stomp",
			Name:      "malformed_frames_total",
			Help:      "Total number of inbound frames that could not be parsed.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stomp",
			Name:      "send_errors_total",
			Help:      "Total number of outbound frames the transport refused.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stomp",
			Name:      "active_subscriptions",
			Help:      "Number of subscriptions across all connections.",
		}),
		SnapshotsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "started_total",
			Help:      "Total number of snapshot streams started, by kind.",
		}, []string{"kind"}),
		SnapshotsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "completed_total",
			Help:      "Total number of snapshot streams that reached completion, by kind.",
		}, []string{"kind"}),
		SnapshotRecordsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "records_sent_total",
			Help:      "Total number of snapshot records delivered, by kind.",
		}, []string{"kind"}),
		LiveUpdatesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "updates_sent_total",
			Help:      "Total number of live updates delivered, by kind.",
		}, []string{"kind"}),
		IdentityMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "identity_mismatches_total",
			Help:      "Total number of live updates suppressed because the record identity changed.",
		}),
		SessionPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stomp",
			Name:      "session_panics_total",
			Help:      "Total number of recovered panics in session actors.",
		}),
	}

	reg.MustRegister(
		m.FramesReceived, m.FramesSent, m.MalformedFrames, m.SendErrors,
		m.ActiveSubscriptions, m.SnapshotsStarted, m.SnapshotsCompleted,
		m.SnapshotRecordsSent, m.LiveUpdatesSent, m.IdentityMismatches, m.SessionPanics,
	)
	return m
}
