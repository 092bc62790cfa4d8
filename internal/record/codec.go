package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nndrao/stomp-server/internal/domain"
)

var ErrMissingIdentity = errors.New("record has no identity")

// DecodeOne parses a single JSON object of the given kind.
func DecodeOne(kind domain.Kind, data []byte) (domain.Record, error) {
	switch kind {
	case domain.KindPositions:
		var p Position
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode position: %w", err)
		}
		if p.PositionID == "" {
			return nil, ErrMissingIdentity
		}
		return &p, nil
	case domain.KindTrades:
		var t Trade
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to decode trade: %w", err)
		}
		if t.TradeID == "" {
			return nil, ErrMissingIdentity
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
}

// DecodeArray parses a JSON array of records of the given kind.
func DecodeArray(kind domain.Kind, data []byte) ([]domain.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s array: %w", kind, err)
	}

	records := make([]domain.Record, 0, len(raw))
	for i, item := range raw {
		r, err := DecodeOne(kind, item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// EncodeArray serializes records as a JSON array, the body format of MESSAGE frames.
func EncodeArray(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return data, nil
}
