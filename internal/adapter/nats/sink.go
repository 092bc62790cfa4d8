package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/domain"
)

// publisher is the subset of jetstream.JetStream the sink needs.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Sink publishes diagnostic entries as JSON. A circuit breaker stops
// publishing while the server keeps failing.
type Sink struct {
	js      publisher
	cb      circuitbreaker.CircuitBreaker[any]
	metrics *metrics.NATSMetrics
	closeFn func()
}

var _ domain.DiagnosticSink = (*Sink)(nil)

// NewSink creates a Sink. closeFn runs on Close and may be nil.
func NewSink(js publisher, m *metrics.NATSMetrics, closeFn func()) *Sink {
	return &Sink{
		js:      js,
		cb:      newBreaker(m),
		metrics: m,
		closeFn: closeFn,
	}
}

// newBreaker opens at a 60% failure rate over at least 5 publishes in 10s and
// lets one probe through after 30s.
func newBreaker(m *metrics.NATSMetrics) circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "nats",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if m != nil {
				m.CircuitBreakerState.Set(stateToFloat(e.NewState))
			}
		}).
		Build()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

func (s *Sink) RecordRequest(ctx context.Context, e domain.RequestEntry) error {
	return s.publish(ctx, "request", RequestsSubject, e)
}

func (s *Sink) RecordDelivery(ctx context.Context, e domain.DeliveryEntry) error {
	return s.publish(ctx, "delivery", DeliveriesSubject(e.Kind.String()), e)
}

func (s *Sink) publish(ctx context.Context, entryType, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", entryType, err)
	}

	if !s.cb.TryAcquirePermit() {
		s.count(entryType, "rejected")
		return fmt.Errorf("publish %s: %w", subject, circuitbreaker.ErrOpen)
	}

	start := time.Now()
	_, err = s.js.Publish(ctx, subject, data)
	if s.metrics != nil {
		s.metrics.PublishDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.cb.RecordError(err)
		s.count(entryType, "error")
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	s.cb.RecordSuccess()
	s.count(entryType, "success")
	return nil
}

func (s *Sink) count(entryType, status string) {
	if s.metrics != nil {
		s.metrics.PublishTotal.WithLabelValues(entryType, status).Inc()
	}
}

// State reports the publish circuit breaker state.
func (s *Sink) State() circuitbreaker.State {
	return s.cb.State()
}

func (s *Sink) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
