package dashboard

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/expenselab/tracking"
)

func newTestStore(t *testing.T) tracking.Store {
	t.Helper()

	store, err := tracking.NewSQLite(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newTestLoader(t *testing.T, store tracking.Store) *Loader {
	t.Helper()
	return NewLoader(store, Options{}, zerolog.Nop())
}

// logRun seeds one finished run, optionally with a summary artifact.
func logRun(t *testing.T, store tracking.Store, experiment string, summary []byte) string {
	t.Helper()
	ctx := context.Background()

	run, err := store.CreateRun(ctx, experiment, "")
	require.NoError(t, err)
	require.NoError(t, store.LogParam(ctx, run.ID, "model_type", "LinearRegression"))
	require.NoError(t, store.LogMetric(ctx, run.ID, "total_expense", 150.25))
	if summary != nil {
		require.NoError(t, store.LogArtifact(ctx, run.ID, tracking.SummaryArtifact, summary))
	}
	require.NoError(t, store.EndRun(ctx, run.ID, tracking.StatusFinished))

	return run.ID
}

func TestEmptyStoreYieldsEmptyTable(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, newTestStore(t))

	table, err := loader.LoadAllRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Columns())
}

func TestFlattenPrefixesFields(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	runID := logRun(t, store, "Expense Report", []byte(`{"top_product_category":"Fruits","num_records":200}`))

	table, err := newTestLoader(t, store).LoadAllRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, runID, row.RunID)
	assert.Equal(t, "Expense Report", row.Experiment)
	assert.Equal(t, "LinearRegression", row.Fields["param.model_type"])
	assert.Equal(t, "150.25", row.Fields["metric.total_expense"])
	assert.Equal(t, "Fruits", row.Fields["summary.top_product_category"])
	assert.Equal(t, "200", row.Fields["summary.num_records"])
}

func TestMissingSummaryKeepsRow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	logRun(t, store, "Expense Report", nil)

	table, err := newTestLoader(t, store).LoadAllRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1, "a run without its summary artifact is still a row")

	row := table.Rows[0]
	assert.Equal(t, "LinearRegression", row.Fields["param.model_type"])
	for k := range row.Fields {
		assert.NotContains(t, k, SummaryPrefix)
	}
}

func TestMalformedSummaryIsIgnored(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	logRun(t, store, "Expense Report", []byte("not json"))

	table, err := newTestLoader(t, store).LoadAllRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
}

func TestCacheUntilInvalidated(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	loader := newTestLoader(t, store)
	ctx := context.Background()

	logRun(t, store, "Expense Report", nil)

	t1, err := loader.LoadAllRuns(ctx)
	require.NoError(t, err)
	require.Len(t, t1.Rows, 1)

	// A new run lands in the store, but the session cache does not see it.
	logRun(t, store, "Expense Report", nil)

	t2, err := loader.LoadAllRuns(ctx)
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	loader.Invalidate()

	t3, err := loader.LoadAllRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, t3.Rows, 2)
}

func TestMaxRunsBoundsRetrieval(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for i := 0; i < 6; i++ {
		logRun(t, store, "Expense Report", nil)
	}

	loader := NewLoader(store, Options{MaxRuns: 4}, zerolog.Nop())
	table, err := loader.LoadAllRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 4)
}

func TestMetricSeriesOrderedByStartTime(t *testing.T) {
	t.Parallel()

	table := &Table{Rows: []Row{
		{StartTime: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), Metrics: map[string]float64{"total_expense": 30}},
		{StartTime: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Metrics: map[string]float64{"total_expense": 10}},
		{StartTime: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), Metrics: map[string]float64{"other": 99}},
	}}

	times, values := table.MetricSeries("total_expense")
	require.Len(t, values, 2)
	assert.Equal(t, []float64{10, 30}, values)
	assert.True(t, times[0].Before(times[1]))
}

func TestSummaryListing(t *testing.T) {
	t.Parallel()

	table := &Table{Rows: []Row{
		{
			StartTime: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
			Fields:    map[string]string{SummaryPrefix + "top_product_category": "Seafood"},
		},
		{
			StartTime: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			Fields:    map[string]string{SummaryPrefix + "top_product_category": "Fruits"},
		},
		{
			StartTime: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
			Fields:    map[string]string{},
		},
	}}

	listing := table.SummaryListing("top_product_category")
	require.Len(t, listing, 2)
	assert.Equal(t, "Fruits", listing[0].Value)
	assert.Equal(t, "Seafood", listing[1].Value)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	logRun(t, store, "Expense Report", []byte(`{"top_product_category":"Fruits"}`))

	table, err := newTestLoader(t, store).LoadAllRuns(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "EXPENSE RUNS")
	assert.Contains(t, out, "param.model_type")
	assert.Contains(t, out, "Fruits")
}

func TestWriteReportEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, &Table{}))
	assert.Contains(t, buf.String(), "no runs recorded yet")
}

func TestRenderChartsProducesHTML(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	logRun(t, store, "Expense Report", nil)

	table, err := newTestLoader(t, store).LoadAllRuns(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderCharts(&buf, table))
	assert.Contains(t, buf.String(), "Total Expense Over Time")
}
