// Package filesink writes diagnostic entries to local files: an append-only
// request log and one delivery log per kind, overwritten on every completed
// snapshot.
package filesink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nndrao/stomp-server/internal/domain"
)

const (
	RequestsFile = "requests.log"

	entrySeparator = "\n---\n"
)

// DeliveryFile names the delivery log for kind.
func DeliveryFile(kind domain.Kind) string {
	return "delivered-" + kind.String() + ".log"
}

type deliveryRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ClientID       string    `json:"clientId"`
	SubscriptionID string    `json:"subscriptionId"`
	TotalCount     int       `json:"totalCount"`
	PositionIDs    *[]string `json:"positionIds,omitempty"`
	TradeIDs       *[]string `json:"tradeIds,omitempty"`
}

// Sink is safe for concurrent use.
type Sink struct {
	dir string

	mu       sync.Mutex
	requests *os.File
}

var _ domain.DiagnosticSink = (*Sink)(nil)

// Open creates dir if needed and opens the request log for appending.
func Open(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostic dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, RequestsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open request log: %w", err)
	}
	return &Sink{dir: dir, requests: f}, nil
}

func (s *Sink) RecordRequest(_ context.Context, e domain.RequestEntry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode request entry: %w", err)
	}
	data = append(data, entrySeparator...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests == nil {
		return os.ErrClosed
	}
	if _, err := s.requests.Write(data); err != nil {
		return fmt.Errorf("append request log: %w", err)
	}
	return nil
}

func (s *Sink) RecordDelivery(_ context.Context, e domain.DeliveryEntry) error {
	rec := deliveryRecord{
		Timestamp:      e.Timestamp,
		ClientID:       e.ConnectionID,
		SubscriptionID: e.SubscriptionID,
		TotalCount:     e.TotalCount,
	}
	ids := e.IDs
	if ids == nil {
		ids = []string{}
	}
	switch e.Kind {
	case domain.KindPositions:
		rec.PositionIDs = &ids
	case domain.KindTrades:
		rec.TradeIDs = &ids
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownKind, e.Kind)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode delivery entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(filepath.Join(s.dir, DeliveryFile(e.Kind)), data, 0o644); err != nil {
		return fmt.Errorf("write delivery log: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests == nil {
		return nil
	}
	err := s.requests.Close()
	s.requests = nil
	if err != nil {
		return fmt.Errorf("close request log: %w", err)
	}
	return nil
}
