package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/record"
	"github.com/nndrao/stomp-server/internal/stomp"
)

const (
	// snapshotCadence is fixed and independent of the requested rate.
	snapshotCadence = 10 * time.Millisecond
	minLiveInterval = time.Millisecond

	contentTypeJSON = "application/json"
)

// startSnapshot (re)starts delivery on sub. Any running schedule is cancelled
// and the delivered pool starts empty.
func (s *Session) startSnapshot(sub *subscription, t Trigger) {
	sub.stop(s.nextGeneration())

	dataset := s.datasets[t.Kind]
	sub.kind = t.Kind
	sub.delivered = make([]domain.Record, 0, dataset.Len())
	st := &snapshotState{dataset: dataset, rate: t.Rate, batchSize: t.BatchSize}
	sub.state = st

	s.metrics.SnapshotsStarted.WithLabelValues(t.Kind.String()).Inc()
	slog.InfoContext(s.ctx, "Snapshot started",
		"subscription_id", sub.id,
		"kind", t.Kind,
		"rate", t.Rate,
		"batch_size", t.BatchSize,
		"records", dataset.Len(),
	)

	s.advanceSnapshot(sub, st)
}

func (s *Session) advanceSnapshot(sub *subscription, st *snapshotState) {
	if st.cursor >= st.dataset.Len() {
		s.completeSnapshot(sub, st)
		return
	}

	batch := st.dataset.Slice(st.cursor, st.cursor+st.batchSize)
	refreshed := make([]domain.Record, len(batch))
	for i, r := range batch {
		refreshed[i] = s.mutator.Refresh(r)
	}
	st.cursor += len(batch)
	st.batchNumber++
	sub.delivered = append(sub.delivered, refreshed...)

	s.schedule(sub, snapshotCadence)
	if s.sendRecords(sub, refreshed) {
		s.metrics.SnapshotRecordsSent.WithLabelValues(sub.kind.String()).Add(float64(len(refreshed)))
	}

	slog.DebugContext(s.ctx, "Snapshot batch sent",
		"subscription_id", sub.id,
		"kind", sub.kind,
		"batch", st.batchNumber,
		"batch_size", len(refreshed),
		"progress", st.cursor,
		"total", st.dataset.Len(),
	)
}

func (s *Session) completeSnapshot(sub *subscription, st *snapshotState) {
	total := len(sub.delivered)
	live := &liveState{rate: st.rate, interval: liveInterval(st.rate)}
	sub.state = live
	s.schedule(sub, live.interval)

	frame := s.newMessage(sub)
	frame.Body = []byte(completionMessage(total, sub.kind))
	s.send(frame)

	s.recordDelivery(sub)
	s.metrics.SnapshotsCompleted.WithLabelValues(sub.kind.String()).Inc()
	slog.InfoContext(s.ctx, "Snapshot complete, starting live updates",
		"subscription_id", sub.id,
		"kind", sub.kind,
		"records", total,
		"rate", live.rate,
		"interval", live.interval,
	)
}

func (s *Session) recordDelivery(sub *subscription) {
	ids := make([]string, len(sub.delivered))
	for i, r := range sub.delivered {
		ids[i] = r.Identity()
	}
	entry := domain.DeliveryEntry{
		Timestamp:      s.clock.Now().UTC(),
		Kind:           sub.kind,
		ConnectionID:   s.id,
		SubscriptionID: sub.id,
		TotalCount:     len(ids),
		IDs:            ids,
	}
	if err := s.sink.RecordDelivery(s.ctx, entry); err != nil {
		slog.WarnContext(s.ctx, "Failed to record delivery", "kind", sub.kind, "error", err)
	}
}

func (s *Session) liveTick(sub *subscription, st *liveState) {
	if !s.connected {
		sub.state = idleState{}
		slog.InfoContext(s.ctx, "Live updates stopped, client not connected", "subscription_id", sub.id)
		return
	}

	s.schedule(sub, st.interval)
	if len(sub.delivered) == 0 {
		return
	}

	prev := sub.delivered[s.pick(len(sub.delivered))]
	next, err := s.mutator.Mutate(prev)
	if err != nil {
		slog.ErrorContext(s.ctx, "Failed to mutate record", "subscription_id", sub.id, "error", err)
		return
	}
	if next.Identity() != prev.Identity() {
		s.metrics.IdentityMismatches.Inc()
		slog.ErrorContext(s.ctx, "Live update changed record identity",
			"subscription_id", sub.id,
			"kind", sub.kind,
			"expected", prev.Identity(),
			"got", next.Identity(),
		)
		return
	}

	st.updates++
	if s.sendRecords(sub, []domain.Record{next}) {
		s.metrics.LiveUpdatesSent.WithLabelValues(sub.kind.String()).Inc()
	}
	slog.DebugContext(s.ctx, "Live update sent",
		"subscription_id", sub.id,
		"kind", sub.kind,
		"update", st.updates,
		"record_id", next.Identity(),
	)
}

// sendRecords writes records as one JSON-array MESSAGE. It reports whether
// the frame was handed to the transport.
func (s *Session) sendRecords(sub *subscription, records []domain.Record) bool {
	body, err := record.EncodeArray(records)
	if err != nil {
		slog.ErrorContext(s.ctx, "Failed to encode records", "subscription_id", sub.id, "error", err)
		return false
	}
	if s.closed {
		return false
	}

	frame := s.newMessage(sub).Set(stomp.HeaderContentType, contentTypeJSON)
	frame.Body = body
	if err := s.transport.Send(frame.Encode()); err != nil {
		s.metrics.SendErrors.Inc()
		slog.WarnContext(s.ctx, "Failed to send records", "subscription_id", sub.id, "error", err)
		return false
	}
	s.metrics.FramesSent.WithLabelValues(string(stomp.CommandMessage)).Inc()
	return true
}

// liveInterval is one second divided by rate, never below a millisecond.
func liveInterval(rate int) time.Duration {
	return max(time.Second/time.Duration(rate), minLiveInterval)
}

func completionMessage(total int, kind domain.Kind) string {
	return fmt.Sprintf("Success: All %d %s snapshot records delivered. Starting live updates...", total, kind)
}

func newMessageID() string {
	return "msg-" + uuid.NewString()
}
