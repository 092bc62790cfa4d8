package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/record"
	"github.com/nndrao/stomp-server/internal/stomp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeTransport decodes every payload back into frames for inspection.
type fakeTransport struct {
	frames    chan *stomp.Frame
	closed    chan struct{}
	closeOnce sync.Once
	sendErr   error

	// When hold is set the next Send reports on held and waits for release.
	hold    atomic.Bool
	held    chan struct{}
	release chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		frames:  make(chan *stomp.Frame, 4096),
		closed:  make(chan struct{}),
		held:    make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (f *fakeTransport) Send(payload []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.hold.CompareAndSwap(true, false) {
		f.held <- struct{}{}
		<-f.release
	}
	frames, errs := stomp.Parse(payload)
	if len(errs) > 0 {
		return errs[0]
	}
	for _, fr := range frames {
		f.frames <- fr
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// recordingSink captures diagnostic entries.
type recordingSink struct {
	mu         sync.Mutex
	requests   []domain.RequestEntry
	deliveries []domain.DeliveryEntry
}

func (r *recordingSink) RecordRequest(_ context.Context, e domain.RequestEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, e)
	return nil
}

func (r *recordingSink) RecordDelivery(_ context.Context, e domain.DeliveryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, e)
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) snapshot() ([]domain.RequestEntry, []domain.DeliveryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RequestEntry(nil), r.requests...), append([]domain.DeliveryEntry(nil), r.deliveries...)
}

type testEnv struct {
	session   *Session
	transport *fakeTransport
	clock     *clockwork.FakeClock
	sink      *recordingSink
	metrics   *metrics.StompMetrics
	picks     chan int
}

func positions(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range n {
		out[i] = &record.Position{
			PositionID:     fmt.Sprintf("POS-%04d", i),
			AsOfDate:       "2024-01-01T00:00:00.000Z",
			Quantity:       1000,
			NotionalAmount: 1_000_000,
			CurrentPrice:   100,
			MarketValue:    1_000_000,
			BookValue:      990_000,
		}
	}
	return out
}

func trades(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range n {
		out[i] = &record.Trade{
			TradeID:   fmt.Sprintf("TRD-%04d", i),
			TradeDate: "2024-01-01T00:00:00.000Z",
			Side:      record.SideBuy,
			Quantity:  100,
			Price:     99.5,
			Yield:     4.2,
		}
	}
	return out
}

func newTestEnv(t *testing.T, positionCount, tradeCount int, opts ...func(*Deps)) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testEpoch)
	transport := newFakeTransport()
	sink := &recordingSink{}
	m := metrics.NewStompMetrics(prometheus.NewRegistry())
	picks := make(chan int, 4096)

	deps := Deps{
		Datasets: domain.Datasets{
			domain.KindPositions: domain.NewDataset(domain.KindPositions, positions(positionCount)),
			domain.KindTrades:    domain.NewDataset(domain.KindTrades, trades(tradeCount)),
		},
		Mutator: record.NewMutator(clock, nil),
		Sink:    sink,
		Clock:   clock,
		Metrics: m,
		Pick: func(n int) int {
			picks <- n
			return n - 1
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	s := New("conn-1", transport, deps)
	t.Cleanup(s.Close)

	return &testEnv{session: s, transport: transport, clock: clock, sink: sink, metrics: m, picks: picks}
}

func (te *testEnv) deliver(t *testing.T, frames ...string) {
	t.Helper()
	require.NoError(t, te.session.Deliver([]byte(strings.Join(frames, ""))))
}

func (te *testEnv) next(t *testing.T) *stomp.Frame {
	t.Helper()
	select {
	case f := <-te.transport.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func (te *testEnv) expectNone(t *testing.T) {
	t.Helper()
	select {
	case f := <-te.transport.frames:
		t.Fatalf("unexpected frame %s: %s", f.Command, f.Body)
	case <-time.After(50 * time.Millisecond):
	}
}

// sync round-trips a CONNECT so every earlier frame is known to be processed.
func (te *testEnv) sync(t *testing.T) {
	t.Helper()
	te.deliver(t, connectFrame)
	f := te.next(t)
	require.Equal(t, stomp.CommandConnected, f.Command)
}

func (te *testEnv) nextRecords(t *testing.T, kind domain.Kind) []domain.Record {
	t.Helper()
	f := te.next(t)
	require.Equal(t, stomp.CommandMessage, f.Command)
	assert.Equal(t, "application/json", f.Value(stomp.HeaderContentType))
	recs, err := record.DecodeArray(kind, f.Body)
	require.NoError(t, err)
	return recs
}

const connectFrame = "CONNECT\naccept-version:1.2\nhost:localhost\n\n\x00"

func subscribeFrame(id, destination string) string {
	return fmt.Sprintf("SUBSCRIBE\nid:%s\ndestination:%s\n\n\x00", id, destination)
}

func sendFrame(destination, body string) string {
	return fmt.Sprintf("SEND\ndestination:%s\n\n%s\x00", destination, body)
}

func TestSession_ConnectHandshake(t *testing.T) {
	te := newTestEnv(t, 0, 0)

	te.deliver(t, connectFrame)

	f := te.next(t)
	assert.Equal(t, stomp.CommandConnected, f.Command)
	assert.Equal(t, "1.2", f.Value(stomp.HeaderVersion))
	assert.Equal(t, "session-conn-1", f.Value(stomp.HeaderSession))
	assert.Equal(t, "stomp-fixed-income/1.0.0", f.Value(stomp.HeaderServer))
	assert.Equal(t, "0,0", f.Value(stomp.HeaderHeartBeat))
}

func TestSession_StompCommandAlsoConnects(t *testing.T) {
	te := newTestEnv(t, 0, 0)

	te.deliver(t, "STOMP\n\n\x00")

	assert.Equal(t, stomp.CommandConnected, te.next(t).Command)
}

func TestSession_SnapshotBatchesCompletionAndLive(t *testing.T) {
	te := newTestEnv(t, 250, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"))
	te.next(t)

	te.deliver(t, sendFrame("/snapshot/positions/1000", ""))

	// rate 1000 → batch size 100, first batch immediately.
	batch1 := te.nextRecords(t, domain.KindPositions)
	require.Len(t, batch1, 100)
	te.expectNone(t)

	te.clock.Advance(10 * time.Millisecond)
	batch2 := te.nextRecords(t, domain.KindPositions)
	require.Len(t, batch2, 100)

	te.clock.Advance(10 * time.Millisecond)
	batch3 := te.nextRecords(t, domain.KindPositions)
	require.Len(t, batch3, 50)

	delivered := append(append(batch1, batch2...), batch3...)
	for i, r := range delivered {
		assert.Equal(t, fmt.Sprintf("POS-%04d", i), r.Identity())
	}

	te.clock.Advance(10 * time.Millisecond)
	done := te.next(t)
	assert.Equal(t, stomp.CommandMessage, done.Command)
	assert.Equal(t, "Success: All 250 positions snapshot records delivered. Starting live updates...", string(done.Body))
	_, hasContentType := done.Get(stomp.HeaderContentType)
	assert.False(t, hasContentType)
	assert.Equal(t, "sub-1", done.Value(stomp.HeaderSubscription))

	// Live interval at rate 1000 is 1ms.
	te.clock.Advance(time.Millisecond)
	update := te.nextRecords(t, domain.KindPositions)
	require.Len(t, update, 1)
	assert.Equal(t, "POS-0249", update[0].Identity())
	assert.Equal(t, 250, <-te.picks)

	assert.InDelta(t, 250, testutil.ToFloat64(te.metrics.SnapshotRecordsSent.WithLabelValues("positions")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(te.metrics.SnapshotsCompleted.WithLabelValues("positions")), 0)
}

func TestSession_SnapshotRefreshesTimestamps(t *testing.T) {
	te := newTestEnv(t, 3, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/10", ""))
	te.next(t)

	batch := te.nextRecords(t, domain.KindPositions)
	require.Len(t, batch, 1)
	assert.Equal(t, "2025-03-14T09:30:00.000Z", batch[0].(*record.Position).AsOfDate)
}

func TestSession_ExplicitBatchSize(t *testing.T) {
	te := newTestEnv(t, 0, 60)

	te.deliver(t, connectFrame, subscribeFrame("trades-sub", "/snapshot/trades"), sendFrame("/snapshot/trades/1000/25", ""))
	te.next(t)

	assert.Len(t, te.nextRecords(t, domain.KindTrades), 25)
	te.clock.Advance(10 * time.Millisecond)
	assert.Len(t, te.nextRecords(t, domain.KindTrades), 25)
	te.clock.Advance(10 * time.Millisecond)
	assert.Len(t, te.nextRecords(t, domain.KindTrades), 10)
	te.clock.Advance(10 * time.Millisecond)
	assert.Equal(t, "Success: All 60 trades snapshot records delivered. Starting live updates...", string(te.next(t).Body))
}

func TestSession_LiveSpacingFollowsRate(t *testing.T) {
	te := newTestEnv(t, 5, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/200/5", ""))
	te.next(t)
	require.Len(t, te.nextRecords(t, domain.KindPositions), 5)

	te.clock.Advance(10 * time.Millisecond)
	require.True(t, strings.HasPrefix(string(te.next(t).Body), "Success"))

	for range 3 {
		te.clock.BlockUntilContext(context.Background(), 1) //nolint:errcheck
		te.clock.Advance(4 * time.Millisecond)
		te.expectNone(t)

		te.clock.Advance(time.Millisecond)
		assert.Len(t, te.nextRecords(t, domain.KindPositions), 1)
	}
}

func TestSession_TriggerFromBody(t *testing.T) {
	te := newTestEnv(t, 30, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/app/request", "/snapshot/positions/100"))
	te.next(t)

	// rate 100 → batch size 10.
	assert.Len(t, te.nextRecords(t, domain.KindPositions), 10)
}

func TestSession_UnmatchedTriggerIsLoggedButIgnored(t *testing.T) {
	te := newTestEnv(t, 10, 10)

	te.deliver(t,
		connectFrame,
		subscribeFrame("sub-1", "/snapshot/positions"),
		sendFrame("/snapshot/bonds/10", ""),
		sendFrame("/snapshot/positions/0", ""),
		sendFrame("/snapshot/trades/10", ""), // no subscription for trades
	)
	te.next(t)
	te.sync(t)
	te.expectNone(t)

	requests, _ := te.sink.snapshot()
	require.Len(t, requests, 3)
	assert.Equal(t, "conn-1", requests[0].ConnectionID)
	assert.Equal(t, "/snapshot/bonds/10", requests[0].Destination)
	assert.Equal(t, "/snapshot/bonds/10", requests[0].Headers["destination"])
	assert.True(t, requests[0].Timestamp.Equal(testEpoch))
}

func TestSession_FirstSubscriptionForDestinationWins(t *testing.T) {
	te := newTestEnv(t, 5, 0)

	te.deliver(t,
		connectFrame,
		subscribeFrame("first", "/snapshot/positions"),
		subscribeFrame("second", "/snapshot/positions"),
		sendFrame("/snapshot/positions/50", ""),
	)
	te.next(t)

	f := te.next(t)
	assert.Equal(t, "first", f.Value(stomp.HeaderSubscription))
	assert.Equal(t, "/snapshot/positions", f.Value(stomp.HeaderDestination))
	assert.True(t, strings.HasPrefix(f.Value(stomp.HeaderMessageID), "msg-"))
}

func TestSession_GeneratedSubscriptionID(t *testing.T) {
	te := newTestEnv(t, 1, 0)

	te.deliver(t,
		connectFrame,
		"SUBSCRIBE\ndestination:/snapshot/positions\n\n\x00",
		sendFrame("/snapshot/positions/10", ""),
	)
	te.next(t)

	f := te.next(t)
	assert.Equal(t, fmt.Sprintf("sub-%d", testEpoch.UnixMilli()), f.Value(stomp.HeaderSubscription))
}

func TestSession_DeliveryLogAfterCompletion(t *testing.T) {
	te := newTestEnv(t, 4, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/20", ""))
	te.next(t)
	te.nextRecords(t, domain.KindPositions)
	te.clock.Advance(10 * time.Millisecond)
	te.nextRecords(t, domain.KindPositions)
	te.clock.Advance(10 * time.Millisecond)
	te.next(t)
	te.sync(t)

	_, deliveries := te.sink.snapshot()
	require.Len(t, deliveries, 1)
	d := deliveries[0]
	assert.Equal(t, domain.KindPositions, d.Kind)
	assert.Equal(t, "sub-1", d.SubscriptionID)
	assert.Equal(t, "conn-1", d.ConnectionID)
	assert.Equal(t, 4, d.TotalCount)
	assert.Equal(t, []string{"POS-0000", "POS-0001", "POS-0002", "POS-0003"}, d.IDs)
}

func TestSession_EmptyDatasetCompletesImmediately(t *testing.T) {
	te := newTestEnv(t, 0, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/100", ""))
	te.next(t)

	assert.Equal(t, "Success: All 0 positions snapshot records delivered. Starting live updates...", string(te.next(t).Body))

	// Live ticks on an empty pool send nothing but keep re-arming.
	for range 3 {
		te.clock.BlockUntilContext(context.Background(), 1) //nolint:errcheck
		te.clock.Advance(10 * time.Millisecond)
	}
	te.expectNone(t)
	assert.Empty(t, te.picks)
}

func TestSession_UnsubscribeStopsLiveUpdates(t *testing.T) {
	te := newTestEnv(t, 2, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/1000", ""))
	te.next(t)
	te.nextRecords(t, domain.KindPositions)
	te.clock.Advance(10 * time.Millisecond)
	te.next(t)
	te.clock.Advance(time.Millisecond)
	te.nextRecords(t, domain.KindPositions)

	te.deliver(t, "UNSUBSCRIBE\nid:sub-1\n\n\x00")
	te.sync(t)

	te.clock.Advance(time.Second)
	te.expectNone(t)
	assert.InDelta(t, 0, testutil.ToFloat64(te.metrics.ActiveSubscriptions), 0)
}

func TestSession_RetriggerRestartsSnapshot(t *testing.T) {
	te := newTestEnv(t, 30, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/100", ""))
	te.next(t)
	first := te.nextRecords(t, domain.KindPositions)
	assert.Equal(t, "POS-0000", first[0].Identity())

	te.deliver(t, sendFrame("/snapshot/positions/100", ""))
	restarted := te.nextRecords(t, domain.KindPositions)
	assert.Equal(t, "POS-0000", restarted[0].Identity())

	// Only the new schedule remains armed.
	te.clock.Advance(10 * time.Millisecond)
	second := te.nextRecords(t, domain.KindPositions)
	assert.Equal(t, "POS-0010", second[0].Identity())
	te.expectNone(t)

	te.clock.Advance(10 * time.Millisecond)
	te.nextRecords(t, domain.KindPositions)
	te.clock.Advance(10 * time.Millisecond)
	assert.Equal(t, "Success: All 30 positions snapshot records delivered. Starting live updates...", string(te.next(t).Body))
}

func TestSession_ResubscribeCancelsTimer(t *testing.T) {
	te := newTestEnv(t, 30, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/100", ""))
	te.next(t)
	te.nextRecords(t, domain.KindPositions)

	te.deliver(t, subscribeFrame("sub-1", "/snapshot/positions"))
	te.sync(t)

	te.clock.Advance(100 * time.Millisecond)
	te.expectNone(t)
	assert.InDelta(t, 1, testutil.ToFloat64(te.metrics.ActiveSubscriptions), 0)
}

// A tick from the replaced subscription's timer can already sit in the event
// queue behind the SUBSCRIBE that replaces it and the trigger that restarts
// the new subscription. It must not drive the new schedule.
func TestSession_ResubscribeIgnoresQueuedTickOfReplacedSubscription(t *testing.T) {
	te := newTestEnv(t, 30, 0)

	te.deliver(t, connectFrame, subscribeFrame("s1", "/snapshot/positions"), sendFrame("/snapshot/positions/10/1", ""))
	te.next(t)
	assert.Equal(t, "POS-0000", te.nextRecords(t, domain.KindPositions)[0].Identity())

	// Hold the actor inside the second batch send; its next timer is armed.
	te.transport.hold.Store(true)
	te.clock.Advance(10 * time.Millisecond)
	select {
	case <-te.transport.held:
	case <-time.After(2 * time.Second):
		t.Fatal("send was not held")
	}

	// Queue the replacement and restart, then let the old timer fire behind them.
	te.deliver(t, subscribeFrame("s1", "/snapshot/positions"), sendFrame("/snapshot/positions/10/1", ""))
	te.clock.Advance(10 * time.Millisecond)
	require.Eventually(t, func() bool { return len(te.session.events) == 2 }, 2*time.Second, time.Millisecond)

	close(te.transport.release)
	assert.Equal(t, "POS-0001", te.nextRecords(t, domain.KindPositions)[0].Identity())
	assert.Equal(t, "POS-0000", te.nextRecords(t, domain.KindPositions)[0].Identity())
	te.expectNone(t)

	// One batch per cadence from the single remaining timer.
	te.clock.Advance(10 * time.Millisecond)
	assert.Equal(t, "POS-0001", te.nextRecords(t, domain.KindPositions)[0].Identity())
	te.expectNone(t)
}

func TestSession_DisconnectClosesTransport(t *testing.T) {
	te := newTestEnv(t, 10, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/10", ""))
	te.next(t)
	te.nextRecords(t, domain.KindPositions)

	te.deliver(t, "DISCONNECT\nreceipt:77\n\n\x00")

	select {
	case <-te.transport.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("transport was not closed")
	}
	select {
	case <-te.session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not exit")
	}

	te.clock.Advance(time.Second)
	te.expectNone(t)
	assert.ErrorIs(t, te.session.Deliver([]byte(connectFrame)), ErrClosed)
}

func TestSession_CloseStopsTimers(t *testing.T) {
	te := newTestEnv(t, 10, 0)

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/10", ""))
	te.next(t)
	te.nextRecords(t, domain.KindPositions)

	te.session.Close()
	<-te.session.Done()

	te.clock.Advance(time.Second)
	te.expectNone(t)

	// Second close is a no-op.
	te.session.Close()
}

func TestSession_IdentityMismatchIsNotSent(t *testing.T) {
	te := newTestEnv(t, 1, 0, func(d *Deps) {
		d.Mutator = renamingMutator{Mutator: d.Mutator}
	})

	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/1000", ""))
	te.next(t)
	te.nextRecords(t, domain.KindPositions)
	te.clock.Advance(10 * time.Millisecond)
	te.next(t)

	te.clock.Advance(time.Millisecond)
	<-te.picks
	te.sync(t)
	te.expectNone(t)
	assert.InDelta(t, 1, testutil.ToFloat64(te.metrics.IdentityMismatches), 0)
}

func TestSession_LiveUpdatesRequireConnect(t *testing.T) {
	te := newTestEnv(t, 1, 0)

	te.deliver(t, subscribeFrame("sub-1", "/snapshot/positions"), sendFrame("/snapshot/positions/1000", ""))
	te.nextRecords(t, domain.KindPositions)
	te.clock.Advance(10 * time.Millisecond)
	require.True(t, strings.HasPrefix(string(te.next(t).Body), "Success"))

	te.clock.Advance(10 * time.Millisecond)
	te.expectNone(t)
	assert.Empty(t, te.picks)
}

func TestSession_MalformedFramesAreDropped(t *testing.T) {
	te := newTestEnv(t, 0, 0)

	te.deliver(t, ":bad\n\n\x00", "FOO\n\n\x00", connectFrame)

	assert.Equal(t, stomp.CommandConnected, te.next(t).Command)
	assert.InDelta(t, 1, testutil.ToFloat64(te.metrics.MalformedFrames), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(te.metrics.FramesReceived.WithLabelValues("UNKNOWN")), 0)
}

func TestSession_SendErrorsAreCounted(t *testing.T) {
	te := newTestEnv(t, 0, 0)
	te.transport.sendErr = errors.New("broken pipe")

	te.deliver(t, connectFrame)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(te.metrics.SendErrors) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessions_AreIndependent(t *testing.T) {
	te := newTestEnv(t, 5, 0)
	te.deliver(t, connectFrame, subscribeFrame("sub-1", "/snapshot/positions"))
	te.next(t)

	other := newFakeTransport()
	s2 := New("conn-2", other, Deps{
		Datasets: domain.Datasets{domain.KindPositions: domain.NewDataset(domain.KindPositions, positions(5))},
		Mutator:  record.NewMutator(te.clock, nil),
		Clock:    te.clock,
	})
	t.Cleanup(s2.Close)

	// A fresh connection has no subscriptions, so its trigger is a no-op.
	require.NoError(t, s2.Deliver([]byte(connectFrame+sendFrame("/snapshot/positions/10", ""))))
	f := <-other.frames
	assert.Equal(t, "session-conn-2", f.Value(stomp.HeaderSession))

	select {
	case f := <-other.frames:
		t.Fatalf("unexpected frame %s", f.Command)
	case <-time.After(50 * time.Millisecond):
	}
}

// renamingMutator breaks the identity contract to exercise the guard.
type renamingMutator struct {
	Mutator
}

func (m renamingMutator) Mutate(prev domain.Record) (domain.Record, error) {
	next, err := m.Mutator.Mutate(prev)
	if err != nil {
		return nil, err
	}
	p := *next.(*record.Position)
	p.PositionID = "OTHER"
	return &p, nil
}
