package diagnostics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu         sync.Mutex
	requests   []domain.RequestEntry
	deliveries []domain.DeliveryEntry
	closed     bool
	err        error
	gate       chan struct{}
}

func (r *recordingSink) RecordRequest(_ context.Context, e domain.RequestEntry) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.requests = append(r.requests, e)
	return nil
}

func (r *recordingSink) RecordDelivery(_ context.Context, e domain.DeliveryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.deliveries = append(r.deliveries, e)
	return nil
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func newMetrics() *metrics.DiagnosticsMetrics {
	return metrics.NewDiagnosticsMetrics(prometheus.NewRegistry())
}

func TestQueue_WritesInOrderAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	m := newMetrics()
	q := NewQueue(sink, 16, m)
	ctx := context.Background()

	for _, c := range []string{"a", "b", "c"} {
		require.NoError(t, q.RecordRequest(ctx, domain.RequestEntry{ConnectionID: c}))
	}
	require.NoError(t, q.RecordDelivery(ctx, domain.DeliveryEntry{Kind: domain.KindTrades, IDs: []string{"T1"}}))
	require.NoError(t, q.Close())

	require.Len(t, sink.requests, 3)
	assert.Equal(t, "a", sink.requests[0].ConnectionID)
	assert.Equal(t, "c", sink.requests[2].ConnectionID)
	require.Len(t, sink.deliveries, 1)
	assert.True(t, sink.closed)

	assert.InDelta(t, 3.0, testutil.ToFloat64(m.EntriesWritten.WithLabelValues("request")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.EntriesWritten.WithLabelValues("delivery")), 0)
}

func TestQueue_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	m := newMetrics()
	q := NewQueue(sink, 2, m)
	ctx := context.Background()

	// The writer holds one entry at the gate; two more fill the buffer.
	require.NoError(t, q.RecordRequest(ctx, domain.RequestEntry{ConnectionID: "held"}))
	require.Eventually(t, func() bool { return len(q.entries) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.RecordRequest(ctx, domain.RequestEntry{ConnectionID: "1"}))
	require.NoError(t, q.RecordRequest(ctx, domain.RequestEntry{ConnectionID: "2"}))
	require.NoError(t, q.RecordRequest(ctx, domain.RequestEntry{ConnectionID: "dropped"}))

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.EntriesDropped.WithLabelValues("request")), 0)

	close(sink.gate)
	require.NoError(t, q.Close())
	assert.Len(t, sink.requests, 3)
}

func TestQueue_CountsWriteErrors(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	m := newMetrics()
	q := NewQueue(sink, 4, m)

	require.NoError(t, q.RecordDelivery(context.Background(), domain.DeliveryEntry{Kind: domain.KindPositions}))
	require.NoError(t, q.Close())

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.WriteErrors.WithLabelValues("delivery")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.EntriesWritten.WithLabelValues("delivery")), 0)
}

func TestQueue_RejectsAfterClose(t *testing.T) {
	q := NewQueue(&recordingSink{}, 4, newMetrics())
	require.NoError(t, q.Close())

	err := q.RecordRequest(context.Background(), domain.RequestEntry{})
	require.ErrorIs(t, err, ErrQueueClosed)
	require.NoError(t, q.Close())
}

func TestQueue_ShutdownDeadline(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	defer close(sink.gate)
	q := NewQueue(sink, 4, newMetrics())
	require.NoError(t, q.RecordRequest(context.Background(), domain.RequestEntry{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, sink.closed)
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Discard.RecordRequest(ctx, domain.RequestEntry{}))
	assert.NoError(t, Discard.RecordDelivery(ctx, domain.DeliveryEntry{}))
	assert.NoError(t, Discard.Close())
}
