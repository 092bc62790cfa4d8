// Package diagnostics decouples sessions from diagnostic sink latency.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/domain"
)

const (
	entryRequest  = "request"
	entryDelivery = "delivery"

	writeTimeout = 5 * time.Second
)

var ErrQueueClosed = errors.New("diagnostic queue closed")

type item struct {
	request  *domain.RequestEntry
	delivery *domain.DeliveryEntry
}

func (it item) entryType() string {
	if it.request != nil {
		return entryRequest
	}
	return entryDelivery
}

// Queue is a DiagnosticSink that hands entries to a single writer goroutine.
// Entries that do not fit in the buffer are dropped and counted.
type Queue struct {
	sink    domain.DiagnosticSink
	metrics *metrics.DiagnosticsMetrics

	mu      sync.RWMutex
	closed  bool
	entries chan item
	done    chan struct{}
}

var _ domain.DiagnosticSink = (*Queue)(nil)

// NewQueue starts the writer for sink with room for size pending entries.
func NewQueue(sink domain.DiagnosticSink, size int, m *metrics.DiagnosticsMetrics) *Queue {
	q := &Queue{
		sink:    sink,
		metrics: m,
		entries: make(chan item, max(size, 1)),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) RecordRequest(_ context.Context, e domain.RequestEntry) error {
	return q.enqueue(item{request: &e})
}

func (q *Queue) RecordDelivery(_ context.Context, e domain.DeliveryEntry) error {
	return q.enqueue(item{delivery: &e})
}

func (q *Queue) enqueue(it item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.entries <- it:
		q.metrics.QueueDepth.Set(float64(len(q.entries)))
	default:
		q.metrics.EntriesDropped.WithLabelValues(it.entryType()).Inc()
		slog.Debug("Diagnostic queue full, dropping entry", "type", it.entryType())
	}
	return nil
}

func (q *Queue) run() {
	defer close(q.done)
	for it := range q.entries {
		q.metrics.QueueDepth.Set(float64(len(q.entries)))
		q.write(it)
	}
}

func (q *Queue) write(it item) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	if it.request != nil {
		err = q.sink.RecordRequest(ctx, *it.request)
	} else {
		err = q.sink.RecordDelivery(ctx, *it.delivery)
	}
	if err != nil {
		q.metrics.WriteErrors.WithLabelValues(it.entryType()).Inc()
		slog.Warn("Failed to write diagnostic entry", "type", it.entryType(), "error", err)
		return
	}
	q.metrics.EntriesWritten.WithLabelValues(it.entryType()).Inc()
}

// Close stops accepting entries, drains what is queued and closes the
// underlying sink.
func (q *Queue) Close() error {
	return q.Shutdown(context.Background())
}

// Shutdown is Close bounded by ctx. The sink is closed even when draining
// is cut short.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.entries)
	}
	q.mu.Unlock()

	var drainErr error
	select {
	case <-q.done:
	case <-ctx.Done():
		drainErr = fmt.Errorf("drain diagnostic queue: %w", ctx.Err())
	}

	if err := q.sink.Close(); err != nil {
		return errors.Join(drainErr, fmt.Errorf("close diagnostic sink: %w", err))
	}
	return drainErr
}

// Discard accepts and ignores every entry.
var Discard domain.DiagnosticSink = discard{}

type discard struct{}

func (discard) RecordRequest(context.Context, domain.RequestEntry) error   { return nil }
func (discard) RecordDelivery(context.Context, domain.DeliveryEntry) error { return nil }
func (discard) Close() error                                               { return nil }
