// Package dataset loads the positions and trades served by every session.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/retry"
)

// Loader reads every kind from a single source: the primary store when one is
// configured, otherwise or on failure the local files.
type Loader struct {
	primary  domain.DataProvider
	fallback domain.DataProvider
	policy   retry.Policy
}

// NewLoader creates a Loader. primary may be nil to load only from fallback.
func NewLoader(primary, fallback domain.DataProvider, policy retry.Policy) *Loader {
	return &Loader{primary: primary, fallback: fallback, policy: policy}
}

// Load returns all datasets. Mixing sources is never done: if any kind fails
// on the primary store, every kind is reloaded from the fallback. When both
// fail the error wraps domain.ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context) (domain.Loaded, error) {
	if l.primary == nil {
		slog.InfoContext(ctx, "Loading datasets from local files only")
		datasets, err := loadAll(ctx, l.fallback)
		if err != nil {
			return domain.Loaded{}, fmt.Errorf("%w: local files: %w", domain.ErrDataUnavailable, err)
		}
		logLoaded(ctx, domain.DataSourceLocal, datasets)
		return domain.Loaded{Datasets: datasets, Source: domain.DataSourceLocal}, nil
	}

	datasets, primaryErr := retry.Do(ctx, l.policy, retry.Transient, func(ctx context.Context) (domain.Datasets, error) {
		return loadAll(ctx, l.primary)
	})
	if primaryErr == nil {
		logLoaded(ctx, domain.DataSourcePostgres, datasets)
		return domain.Loaded{Datasets: datasets, Source: domain.DataSourcePostgres}, nil
	}
	if errors.Is(primaryErr, context.Canceled) {
		return domain.Loaded{}, primaryErr
	}

	slog.WarnContext(ctx, "Primary store unavailable, falling back to local files", "error", primaryErr)

	datasets, localErr := loadAll(ctx, l.fallback)
	if localErr != nil {
		return domain.Loaded{}, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, errors.Join(
			fmt.Errorf("primary store: %w", primaryErr),
			fmt.Errorf("local files: %w", localErr),
		))
	}
	logLoaded(ctx, domain.DataSourceLocal, datasets)
	return domain.Loaded{Datasets: datasets, Source: domain.DataSourceLocal}, nil
}

func loadAll(ctx context.Context, p domain.DataProvider) (domain.Datasets, error) {
	if p == nil {
		return nil, errors.New("no provider configured")
	}
	out := make(domain.Datasets, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		ds, err := p.LoadAll(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		out[kind] = ds
	}
	return out, nil
}

func logLoaded(ctx context.Context, source domain.DataSource, datasets domain.Datasets) {
	slog.InfoContext(ctx, "Datasets loaded",
		"source", source,
		"positions", datasets[domain.KindPositions].Len(),
		"trades", datasets[domain.KindTrades].Len(),
	)
}
