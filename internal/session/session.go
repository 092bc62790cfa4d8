package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/diagnostics"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/correlation"
	"github.com/nndrao/stomp-server/internal/stomp"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	eventBufferSize = 256
	closeTimeout    = 5 * time.Second

	protocolVersion = "1.2"
	serverName      = "stomp-fixed-income/1.0.0"
	heartBeat       = "0,0"
)

var ErrClosed = errors.New("session closed")

// Transport delivers encoded frames to the peer.
type Transport interface {
	Send(payload []byte) error
	Close() error
}

// Mutator produces live updates and refreshes snapshot timestamps.
type Mutator interface {
	Mutate(prev domain.Record) (domain.Record, error)
	Refresh(r domain.Record) domain.Record
}

// Deps are the collaborators shared by every session on the server.
type Deps struct {
	Datasets domain.Datasets
	Mutator  Mutator
	Sink     domain.DiagnosticSink
	Clock    clockwork.Clock
	Metrics  *metrics.StompMetrics

	// Pick returns a uniform index in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// event is the message type of the Session actor.
type event interface{ isEvent() }

type baseEvent struct{}

func (baseEvent) isEvent() {}

type inboundEvent struct {
	baseEvent
	payload []byte
}

type tickEvent struct {
	baseEvent
	subscriptionID string
	generation     uint64
}

type closeEvent struct {
	baseEvent
}

// Session is the protocol engine of one connection.
type Session struct {
	id        string
	sessionID string
	ctx       context.Context

	transport Transport
	datasets  domain.Datasets
	mutator   Mutator
	sink      domain.DiagnosticSink
	clock     clockwork.Clock
	metrics   *metrics.StompMetrics
	pick      func(n int) int

	events chan event
	done   chan struct{}

	// Owned by the run goroutine.
	connected  bool
	closed     bool
	subs       *table
	generation uint64
}

// New starts the actor for connection id. Frames are written to transport.
func New(id string, transport Transport, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Sink == nil {
		deps.Sink = diagnostics.Discard
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewStompMetrics(prometheus.NewRegistry())
	}
	if deps.Pick == nil {
		deps.Pick = rand.IntN
	}

	s := &Session{
		id:        id,
		sessionID: "session-" + id,
		ctx:       correlation.WithConnection(context.Background(), id),
		transport: transport,
		datasets:  deps.Datasets,
		mutator:   deps.Mutator,
		sink:      deps.Sink,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
		pick:      deps.Pick,
		events:    make(chan event, eventBufferSize),
		done:      make(chan struct{}),
		subs:      newTable(),
	}
	go s.run()
	return s
}

func (s *Session) ID() string { return s.id }

// Done is closed once the actor has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Deliver hands an inbound transport payload to the actor.
func (s *Session) Deliver(payload []byte) error {
	return s.post(inboundEvent{payload: payload})
}

// Close stops every timer and frees the subscriptions. It blocks until the
// actor exits or the close timeout elapses. Safe to call more than once.
func (s *Session) Close() {
	if err := s.post(closeEvent{}); err != nil {
		return
	}

	timer := s.clock.NewTimer(closeTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.Chan():
		slog.WarnContext(s.ctx, "Session close timed out", "timeout", closeTimeout)
	}
}

func (s *Session) post(ev event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(s.ctx, "Session panic recovered", "panic", r)
			s.metrics.SessionPanics.Inc()
			s.cleanup()
			_ = s.transport.Close()
		}
	}()

	for ev := range s.events {
		switch ev := ev.(type) {
		case inboundEvent:
			s.handlePayload(ev.payload)
		case tickEvent:
			s.handleTick(ev)
		case closeEvent:
			s.cleanup()
			return
		}

		if s.closed {
			return
		}
	}
}

func (s *Session) handlePayload(payload []byte) {
	frames, errs := stomp.Parse(payload)
	for _, err := range errs {
		s.metrics.MalformedFrames.Inc()
		slog.DebugContext(s.ctx, "Dropping malformed frame", "error", err)
	}

	for _, frame := range frames {
		if s.closed {
			return
		}
		s.dispatch(frame)
	}
}

func (s *Session) dispatch(f *stomp.Frame) {
	if !f.Command.Known() {
		s.metrics.FramesReceived.WithLabelValues("UNKNOWN").Inc()
		slog.DebugContext(s.ctx, "Ignoring unknown command", "command", f.Command)
		return
	}
	s.metrics.FramesReceived.WithLabelValues(string(f.Command)).Inc()

	switch f.Command {
	case stomp.CommandConnect, stomp.CommandStomp:
		s.handleConnect()
	case stomp.CommandSubscribe:
		s.handleSubscribe(f)
	case stomp.CommandSend:
		s.handleSend(f)
	case stomp.CommandUnsubscribe:
		s.handleUnsubscribe(f)
	case stomp.CommandDisconnect:
		s.handleDisconnect()
	default:
		slog.DebugContext(s.ctx, "Ignoring server-side command from client", "command", f.Command)
	}
}

func (s *Session) handleConnect() {
	s.connected = true
	frame := stomp.NewFrame(stomp.CommandConnected).
		Set(stomp.HeaderVersion, protocolVersion).
		Set(stomp.HeaderSession, s.sessionID).
		Set(stomp.HeaderServer, serverName).
		Set(stomp.HeaderHeartBeat, heartBeat)
	s.send(frame)
	slog.InfoContext(s.ctx, "Client connected")
}

func (s *Session) handleSubscribe(f *stomp.Frame) {
	id := f.Value(stomp.HeaderID)
	if id == "" {
		id = fmt.Sprintf("sub-%d", s.clock.Now().UnixMilli())
	}
	destination := f.Value(stomp.HeaderDestination)

	sub := newSubscription(id, destination, f.Value(stomp.HeaderAck), s.nextGeneration())
	if kind, ok := kindOf(destination); ok {
		sub.kind = kind
	}

	if prev := s.subs.put(sub); prev != nil {
		prev.stop(s.nextGeneration())
	} else {
		s.metrics.ActiveSubscriptions.Inc()
	}

	slog.InfoContext(s.ctx, "Client subscribed",
		"subscription_id", id,
		"destination", destination,
	)
}

func (s *Session) handleSend(f *stomp.Frame) {
	destination := f.Value(stomp.HeaderDestination)
	body := string(f.Body)

	entry := domain.RequestEntry{
		Timestamp:    s.clock.Now().UTC(),
		ConnectionID: s.id,
		Destination:  destination,
		Headers:      f.HeaderMap(),
		Body:         body,
	}
	if err := s.sink.RecordRequest(s.ctx, entry); err != nil {
		slog.WarnContext(s.ctx, "Failed to record request", "error", err)
	}

	trigger, ok := ParseTrigger(destination, body)
	if !ok {
		slog.DebugContext(s.ctx, "SEND did not match a snapshot trigger", "destination", destination)
		return
	}

	sub, ok := s.subs.byDestination(trigger.Kind.Destination())
	if !ok {
		slog.DebugContext(s.ctx, "No subscription for snapshot trigger", "kind", trigger.Kind)
		return
	}

	s.startSnapshot(sub, trigger)
}

func (s *Session) handleUnsubscribe(f *stomp.Frame) {
	id := f.Value(stomp.HeaderID)
	sub, ok := s.subs.remove(id)
	if !ok {
		return
	}
	sub.stop(s.nextGeneration())
	s.metrics.ActiveSubscriptions.Dec()
	slog.InfoContext(s.ctx, "Client unsubscribed",
		"subscription_id", id,
		"destination", sub.destination,
	)
}

func (s *Session) handleDisconnect() {
	s.cleanup()
	if err := s.transport.Close(); err != nil {
		slog.DebugContext(s.ctx, "Transport close after DISCONNECT failed", "error", err)
	}
	slog.InfoContext(s.ctx, "Client disconnected")
}

// cleanup cancels every timer and drops all subscriptions. After it returns
// no frame is sent on this session.
func (s *Session) cleanup() {
	if s.closed {
		return
	}
	for _, sub := range s.subs.all() {
		sub.stop(s.nextGeneration())
	}
	s.metrics.ActiveSubscriptions.Sub(float64(s.subs.len()))
	s.subs.clear()
	s.connected = false
	s.closed = true
}

func (s *Session) handleTick(ev tickEvent) {
	sub, ok := s.subs.get(ev.subscriptionID)
	if !ok || sub.generation != ev.generation {
		return
	}
	sub.timer = nil

	switch st := sub.state.(type) {
	case *snapshotState:
		s.advanceSnapshot(sub, st)
	case *liveState:
		s.liveTick(sub, st)
	}
}

// nextGeneration hands out schedule generations unique within the session.
func (s *Session) nextGeneration() uint64 {
	s.generation++
	return s.generation
}

// schedule arms the subscription's single timer. The callback only posts a
// tick; the actor decides what the tick means.
func (s *Session) schedule(sub *subscription, d time.Duration) {
	if sub.timer != nil {
		sub.timer.Stop()
	}
	id, gen := sub.id, sub.generation
	sub.timer = s.clock.AfterFunc(d, func() {
		_ = s.post(tickEvent{subscriptionID: id, generation: gen})
	})
}

func (s *Session) send(frame *stomp.Frame) {
	if s.closed {
		return
	}
	if err := s.transport.Send(frame.Encode()); err != nil {
		s.metrics.SendErrors.Inc()
		slog.WarnContext(s.ctx, "Failed to send frame", "command", frame.Command, "error", err)
		return
	}
	s.metrics.FramesSent.WithLabelValues(string(frame.Command)).Inc()
}

func (s *Session) newMessage(sub *subscription) *stomp.Frame {
	return stomp.NewFrame(stomp.CommandMessage).
		Set(stomp.HeaderSubscription, sub.id).
		Set(stomp.HeaderMessageID, newMessageID()).
		Set(stomp.HeaderDestination, sub.destination)
}

// kindOf maps a /snapshot/<kind> destination to its kind.
func kindOf(destination string) (domain.Kind, bool) {
	name, ok := strings.CutPrefix(destination, snapshotPrefix)
	if !ok {
		return "", false
	}
	kind, err := domain.ParseKind(name)
	if err != nil {
		return "", false
	}
	return kind, true
}
