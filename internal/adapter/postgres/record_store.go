package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/record"
)

const upsertRecordSQL = `
INSERT INTO records (kind, record_id, ordinal, body)
VALUES ($1, $2, $3, $4)
ON CONFLICT (kind, record_id) DO UPDATE
SET ordinal = EXCLUDED.ordinal, body = EXCLUDED.body, updated_at = now()`

// RecordStore persists positions and trades as JSONB rows ordered by ordinal.
type RecordStore struct {
	pool *pgxpool.Pool
}

var _ domain.RecordStore = (*RecordStore)(nil)

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// LoadAll reads every record of kind in load order.
func (s *RecordStore) LoadAll(ctx context.Context, kind domain.Kind) (*domain.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM records WHERE kind = $1 ORDER BY ordinal, record_id`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}

	bodies, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}

	records := make([]domain.Record, 0, len(bodies))
	for i, body := range bodies {
		r, err := record.DecodeOne(kind, body)
		if err != nil {
			return nil, fmt.Errorf("decode %s row %d: %w", kind, i, err)
		}
		records = append(records, r)
	}
	return domain.NewDataset(kind, records), nil
}

// Upsert writes records in one transaction. A record's position in the slice
// becomes its ordinal. It returns the number of rows written.
func (s *RecordStore) Upsert(ctx context.Context, kind domain.Kind, records []domain.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i, r := range records {
		if r.Kind() != kind {
			return 0, fmt.Errorf("record %s is %s, not %s: %w", r.Identity(), r.Kind(), kind, domain.ErrUnknownKind)
		}
		body, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", r.Identity(), err)
		}
		batch.Queue(upsertRecordSQL, kind.String(), r.Identity(), int64(i), body)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := tx.SendBatch(ctx, batch)
	var written int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("upsert %s: %w", kind, err)
		}
		written += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// Replace deletes every record of kind and bulk-copies records in their place.
func (s *RecordStore) Replace(ctx context.Context, kind domain.Kind, records []domain.Record) (int64, error) {
	rows := make([][]any, 0, len(records))
	for i, r := range records {
		body, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", r.Identity(), err)
		}
		rows = append(rows, []any{kind.String(), r.Identity(), int64(i), body})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM records WHERE kind = $1`, kind.String()); err != nil {
		return 0, fmt.Errorf("clear %s: %w", kind, err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"records"},
		[]string{"kind", "record_id", "ordinal", "body"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return copied, nil
}

func (s *RecordStore) Count(ctx context.Context, kind domain.Kind) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM records WHERE kind = $1`, kind.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func (s *RecordStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
