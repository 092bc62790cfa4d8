package domain

import (
	"context"
	"time"
)

// RequestEntry captures an inbound SEND frame.
type RequestEntry struct {
	Timestamp    time.Time         `json:"timestamp"`
	ConnectionID string            `json:"clientId"`
	Destination  string            `json:"destination"`
	Headers      map[string]string `json:"headers"`
	Body         string            `json:"body"`
}

// DeliveryEntry captures the identities delivered by one completed snapshot.
type DeliveryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Kind           Kind      `json:"kind"`
	ConnectionID   string    `json:"clientId"`
	SubscriptionID string    `json:"subscriptionId"`
	TotalCount     int       `json:"totalCount"`
	IDs            []string  `json:"ids"`
}

// DiagnosticSink receives request and delivery logs. Implementations must not
// block the caller for long; failures are the sink's own concern.
type DiagnosticSink interface {
	RecordRequest(ctx context.Context, entry RequestEntry) error
	RecordDelivery(ctx context.Context, entry DeliveryEntry) error
	Close() error
}
