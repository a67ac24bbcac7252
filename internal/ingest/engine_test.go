package ingest

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/resilience"
	"github.com/sells-group/seasonscope/internal/store"
)

// offlineFetcher fails every request, forcing connectors onto their
// embedded snapshots.
type offlineFetcher struct{}

func (offlineFetcher) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, eris.New("offline")
}

func (offlineFetcher) DownloadToFile(context.Context, string, string) (int64, error) {
	return 0, eris.New("offline")
}

func (offlineFetcher) DownloadIfChanged(context.Context, string, string) (io.ReadCloser, string, bool, error) {
	return nil, "", false, eris.New("offline")
}

var _ fetcher.Fetcher = offlineFetcher{}

type fakeConnector struct {
	name  string
	order int
	err   error
	runs  *[]string
}

func (c *fakeConnector) Name() string  { return c.name }
func (c *fakeConnector) Table() string { return "fake" }
func (c *fakeConnector) Order() int    { return c.order }

func (c *fakeConnector) Sync(context.Context, store.Store, fetcher.Fetcher, SyncOptions) (*SyncResult, error) {
	*c.runs = append(*c.runs, c.name)
	if c.err != nil {
		return nil, c.err
	}
	return &SyncResult{RowsSynced: 1}, nil
}

func testEngineOptions(t *testing.T) EngineOptions {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	return EngineOptions{
		Store:            s,
		Fetcher:          offlineFetcher{},
		TempDir:          t.TempDir(),
		SnapshotFallback: true,
		Backoff:          resilience.Backoff{Attempts: 1, Base: time.Millisecond, Cap: time.Millisecond},
		Breaker:          resilience.DefaultBreakerConfig(),
	}
}

func TestEngineRunsInOrder(t *testing.T) {
	var runs []string
	opts := testEngineOptions(t)
	eng := NewEngine(opts,
		&fakeConnector{name: "third", order: 3, runs: &runs},
		&fakeConnector{name: "first", order: 1, runs: &runs},
		&fakeConnector{name: "second", order: 2, runs: &runs},
	)

	report, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, runs)
	assert.Len(t, report.Results, 3)
	assert.Empty(t, report.Failed())
}

func TestEngineContinuesAfterFailure(t *testing.T) {
	var runs []string
	opts := testEngineOptions(t)
	eng := NewEngine(opts,
		&fakeConnector{name: "ok1", order: 1, runs: &runs},
		&fakeConnector{name: "broken", order: 2, err: eris.New("boom"), runs: &runs},
		&fakeConnector{name: "ok2", order: 3, runs: &runs},
	)

	report, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok1", "broken", "ok2"}, runs)
	assert.Equal(t, []string{"broken"}, report.Failed())
}

func TestEngineNameFilter(t *testing.T) {
	var runs []string
	opts := testEngineOptions(t)
	eng := NewEngine(opts,
		&fakeConnector{name: "a", order: 1, runs: &runs},
		&fakeConnector{name: "b", order: 2, runs: &runs},
	)

	report, err := eng.Run(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, runs)
	assert.Len(t, report.Results, 1)
}

func TestEngineCancelledContext(t *testing.T) {
	var runs []string
	opts := testEngineOptions(t)
	eng := NewEngine(opts, &fakeConnector{name: "a", order: 1, runs: &runs})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runs)
}

func TestSingleConnectorOnFreshStore(t *testing.T) {
	// Running one connector without the seed pass must not trip the source
	// foreign key: each connector upserts its own sources first.
	opts := testEngineOptions(t)
	st := opts.Store
	eng := NewEngine(opts, DefaultConnectors("")...)

	ctx := context.Background()
	report, err := eng.Run(ctx, "aqueduct")
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	risks, err := st.ListWaterRisks(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, risks)

	src, err := st.GetSource(ctx, "wri_aqueduct")
	require.NoError(t, err)
	require.NotNil(t, src)
}

func TestSnapshotFallbackDisabled(t *testing.T) {
	opts := testEngineOptions(t)
	opts.SnapshotFallback = false
	eng := NewEngine(opts, DefaultConnectors("")...)

	// Offline with fallback off: the snapshot-backed connectors must
	// surface their fetch errors instead of silently seeding stale data.
	report, err := eng.Run(context.Background(), "owid")
	require.NoError(t, err)
	assert.Equal(t, []string{"owid"}, report.Failed())
}

func TestFullIngestOffline(t *testing.T) {
	opts := testEngineOptions(t)
	st := opts.Store
	eng := NewEngine(opts, DefaultConnectors("")...)

	ctx := context.Background()
	report, err := eng.Run(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Failed(), "all connectors should fall back to snapshots offline")

	foods, err := st.ListFoods(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, foods)

	factors, err := st.ListFactors(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, factors)

	seasonality, err := st.ListSeasonality(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, seasonality)

	origins, err := st.ListOrigins(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, origins)

	risks, err := st.ListWaterRisks(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, risks)

	// A second run must upsert in place, never duplicate.
	report2, err := eng.Run(ctx)
	require.NoError(t, err)
	require.Empty(t, report2.Failed())

	factors2, err := st.ListFactors(ctx)
	require.NoError(t, err)
	assert.Len(t, factors2, len(factors))

	seasonality2, err := st.ListSeasonality(ctx)
	require.NoError(t, err)
	assert.Len(t, seasonality2, len(seasonality))

	origins2, err := st.ListOrigins(ctx)
	require.NoError(t, err)
	assert.Len(t, origins2, len(origins))
}

func TestValidateAfterFullIngest(t *testing.T) {
	opts := testEngineOptions(t)
	eng := NewEngine(opts, DefaultConnectors("")...)

	ctx := context.Background()
	report, err := eng.Run(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	vr, err := Validate(ctx, opts.Store)
	require.NoError(t, err)
	assert.False(t, vr.Failed(), "checks: %+v", vr.Checks)
}
