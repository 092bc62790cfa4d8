package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nndrao/stomp-server/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	RequestsStream   = "stomp:requests"
	DeliveriesStream = "stomp:deliveries"

	// DefaultMaxLen caps each stream; trimming is approximate.
	DefaultMaxLen = 10_000

	lastDeliveryTTL = 24 * time.Hour
)

// LastDeliveryKey holds the most recent delivery entry for kind, mirroring the
// overwrite-per-snapshot file log.
func LastDeliveryKey(kind domain.Kind) string {
	return "stomp:delivered:" + kind.String()
}

// Sink appends diagnostic entries to capped Redis streams.
type Sink struct {
	rdb    *goredis.Client
	maxLen int64
}

var _ domain.DiagnosticSink = (*Sink)(nil)

func NewSink(rdb *goredis.Client, maxLen int64) *Sink {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Sink{rdb: rdb, maxLen: maxLen}
}

func (s *Sink) RecordRequest(ctx context.Context, e domain.RequestEntry) error {
	headers, err := json.Marshal(e.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}

	err = s.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: RequestsStream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"timestamp":   e.Timestamp.Format(time.RFC3339Nano),
			"client_id":   e.ConnectionID,
			"destination": e.Destination,
			"headers":     string(headers),
			"body":        e.Body,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", RequestsStream, err)
	}
	return nil
}

func (s *Sink) RecordDelivery(ctx context.Context, e domain.DeliveryEntry) error {
	ids, err := json.Marshal(e.IDs)
	if err != nil {
		return fmt.Errorf("encode ids: %w", err)
	}
	entry, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: DeliveriesStream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"timestamp":       e.Timestamp.Format(time.RFC3339Nano),
			"kind":            e.Kind.String(),
			"client_id":       e.ConnectionID,
			"subscription_id": e.SubscriptionID,
			"total_count":     e.TotalCount,
			"ids":             string(ids),
		},
	})
	pipe.Set(ctx, LastDeliveryKey(e.Kind), entry, lastDeliveryTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record delivery pipeline failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Sink) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
