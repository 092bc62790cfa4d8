package domain

import "context"

// Dataset is an immutable, ordered collection of records of one kind.
// It is loaded once at startup and shared by every connection.
type Dataset struct {
	kind    Kind
	records []Record
}

// NewDataset copies records so later changes to the caller's slice are not observed.
func NewDataset(kind Kind, records []Record) *Dataset {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Dataset{kind: kind, records: cp}
}

func (d *Dataset) Kind() Kind { return d.kind }

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Slice returns records [from, to) clamped to the dataset bounds.
// The returned slice must not be modified.
func (d *Dataset) Slice(from, to int) []Record {
	if from >= len(d.records) {
		return nil
	}
	if to > len(d.records) {
		to = len(d.records)
	}
	return d.records[from:to:to]
}

// Datasets maps each kind to its loaded dataset.
type Datasets map[Kind]*Dataset

// DataProvider loads a full dataset for a kind.
type DataProvider interface {
	LoadAll(ctx context.Context, kind Kind) (*Dataset, error)
}

// RecordStore is the persistent primary store for records.
type RecordStore interface {
	DataProvider
	Upsert(ctx context.Context, kind Kind, records []Record) (int64, error)
	Count(ctx context.Context, kind Kind) (int64, error)
	Ping(ctx context.Context) error
}

// DataSource names where the served datasets were loaded from.
type DataSource string

const (
	DataSourcePostgres DataSource = "postgres"
	DataSourceLocal    DataSource = "local"
)

// Loaded is the outcome of startup loading.
type Loaded struct {
	Datasets Datasets
	Source   DataSource
}

// Complete reports whether every kind has at least one record.
func (l Loaded) Complete() bool {
	for _, k := range Kinds {
		if l.Datasets[k].Len() == 0 {
			return false
		}
	}
	return true
}
