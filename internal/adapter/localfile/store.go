// Package localfile reads and writes the <kind>.json dataset files used when
// the database is disabled or unreachable.
package localfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/record"
)

// ErrMissingFile is returned when a dataset file does not exist.
var ErrMissingFile = errors.New("dataset file not found")

// Store serves datasets from JSON arrays in a directory.
type Store struct {
	dir string
}

var _ domain.DataProvider = (*Store)(nil)

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file that holds kind.
func (s *Store) Path(kind domain.Kind) string {
	return filepath.Join(s.dir, kind.String()+".json")
}

func (s *Store) LoadAll(_ context.Context, kind domain.Kind) (*domain.Dataset, error) {
	records, err := s.Read(kind)
	if err != nil {
		return nil, err
	}
	return domain.NewDataset(kind, records), nil
}

// Read decodes the whole file for kind.
func (s *Store) Read(kind domain.Kind) ([]domain.Record, error) {
	path := s.Path(kind)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	records, err := record.DecodeArray(kind, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// Write replaces the file for kind with records as an indented JSON array.
// The file is written to a temporary name first and renamed into place.
func (s *Store) Write(kind domain.Kind, records []domain.Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	raw, err := record.EncodeArray(records)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("indent %s: %w", kind, err)
	}
	buf.WriteByte('\n')

	tmp, err := os.CreateTemp(s.dir, kind.String()+"-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.Path(kind)); err != nil {
		return fmt.Errorf("rename into %s: %w", s.Path(kind), err)
	}
	return nil
}
