package ingest

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/resilience"
	"github.com/sells-group/seasonscope/internal/store"
)

// Engine runs connectors sequentially in dependency order. A failed connector
// is recorded in the report and never aborts its siblings.
type Engine struct {
	store      store.Store
	fetcher    fetcher.Fetcher
	connectors []Connector
	syncOpts   SyncOptions
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Store            store.Store
	Fetcher          fetcher.Fetcher
	TempDir          string
	SnapshotFallback bool
	Backoff          resilience.Backoff
	Breaker          resilience.BreakerConfig
}

// NewEngine creates an engine over the given connectors. The fetcher is
// wrapped with retry and per-host circuit breaking before connectors see it.
func NewEngine(opts EngineOptions, connectors ...Connector) *Engine {
	sorted := make([]Connector, len(connectors))
	copy(sorted, connectors)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order() < sorted[j].Order() })

	return &Engine{
		store:      opts.Store,
		fetcher:    newGuardedFetcher(opts.Fetcher, opts.Backoff, opts.Breaker),
		connectors: sorted,
		syncOpts:   SyncOptions{TempDir: opts.TempDir, SnapshotFallback: opts.SnapshotFallback},
	}
}

// DefaultConnectors returns the full connector set in dependency order:
// seed catalog, global baseline factors, region-specific factors, crop
// calendars, climate-zone fallbacks, water risk, trade origins.
func DefaultConnectors(comtradeKey string) []Connector {
	return []Connector{
		&Seed{},
		&Owid{},
		&Agribalyse{},
		&Fao{},
		&Koppen{},
		&Aqueduct{},
		&Comtrade{APIKey: comtradeKey},
	}
}

// Run executes the selected connectors in order. names restricts the run to
// specific connectors; empty means all.
func (e *Engine) Run(ctx context.Context, names ...string) (*RunReport, error) {
	log := zap.L().With(zap.String("component", "ingest.engine"))

	selected := e.connectors
	if len(names) > 0 {
		want := make(map[string]bool, len(names))
		for _, n := range names {
			want[n] = true
		}
		selected = nil
		for _, c := range e.connectors {
			if want[c.Name()] {
				selected = append(selected, c)
			}
		}
	}

	if len(selected) == 0 {
		log.Info("no connectors selected")
		return &RunReport{}, nil
	}

	log.Info("starting ingest run", zap.Int("connectors", len(selected)))

	report := &RunReport{}
	for _, c := range selected {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		cLog := log.With(zap.String("connector", c.Name()), zap.String("table", c.Table()))
		cLog.Info("starting sync")

		start := time.Now()
		result, err := c.Sync(ctx, e.store, e.fetcher, e.syncOpts)
		elapsed := time.Since(start)

		res := ConnectorResult{Name: c.Name(), Table: c.Table(), Elapsed: elapsed, Err: err}
		if err != nil {
			cLog.Error("sync failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		} else {
			res.Rows = result.RowsSynced
			cLog.Info("sync complete",
				zap.Int64("rows", result.RowsSynced),
				zap.Duration("elapsed", elapsed),
			)
		}
		report.Results = append(report.Results, res)
	}

	var synced, failed int
	for _, r := range report.Results {
		if r.Err != nil {
			failed++
		} else {
			synced++
		}
	}
	log.Info("ingest run complete", zap.Int("synced", synced), zap.Int("failed", failed))

	return report, nil
}
