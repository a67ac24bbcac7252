// Package ingest populates the store from external dataset snapshots. Each
// connector owns one upstream dataset: it upserts its Source citation first,
// attempts a cached network fetch, and falls back to an embedded curated
// snapshot when the upstream is unreachable. Connectors run sequentially in
// dependency order; upserts within a connector are idempotent by natural key.
package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/store"
)

// SyncResult holds the outcome of one connector run.
type SyncResult struct {
	RowsSynced int64          `json:"rows_synced"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SyncOptions carries per-run settings into each connector.
type SyncOptions struct {
	// TempDir is a working directory for downloaded archives.
	TempDir string

	// SnapshotFallback permits a connector whose upstream fetch fails to fall
	// back to its embedded snapshot. When false the fetch error is surfaced
	// and the connector is reported as failed.
	SnapshotFallback bool
}

// Connector is the interface each dataset connector implements.
type Connector interface {
	// Name returns the unique identifier for this connector (e.g. "owid").
	Name() string

	// Table returns the primary target table (e.g. "ghg_factors").
	Table() string

	// Order returns the connector's position in the fixed dependency order.
	// Lower runs first; the seed catalog is 0, global baselines before
	// region-specific factors.
	Order() int

	// Sync upserts the connector's Source citation, downloads and parses the
	// dataset, and upserts its rows.
	Sync(ctx context.Context, st store.Store, f fetcher.Fetcher, opts SyncOptions) (*SyncResult, error)
}

// ConnectorResult records one connector's outcome within a run report.
type ConnectorResult struct {
	Name    string        `json:"name"`
	Table   string        `json:"table"`
	Rows    int64         `json:"rows"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// RunReport is the per-connector success/failure summary of an engine run.
type RunReport struct {
	Results []ConnectorResult `json:"results"`
}

// Failed returns the names of connectors that errored.
func (r *RunReport) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if res.Err != nil {
			names = append(names, res.Name)
		}
	}
	return names
}

// upsertChunkSize bounds how many rows one parallel upsert call carries.
const upsertChunkSize = 200

// upsertParallel splits rows into chunks and upserts them concurrently.
// Safe because every upsert is natural-key idempotent.
func upsertParallel[T any](ctx context.Context, rows []T, upsert func(context.Context, []T) (int64, error)) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	counts := make([]int64, 0, len(rows)/upsertChunkSize+1)
	idx := 0
	for start := 0; start < len(rows); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		counts = append(counts, 0)
		slot := idx
		idx++

		g.Go(func() error {
			n, err := upsert(gctx, chunk)
			if err != nil {
				return err
			}
			counts[slot] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// knownFoods returns the set of food ids currently in the store. Connectors
// use it to skip rows referencing foods outside the catalog.
func knownFoods(ctx context.Context, st store.Store) (map[string]bool, error) {
	foods, err := st.ListFoods(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(foods))
	for _, f := range foods {
		known[f.ID] = true
	}
	return known, nil
}
