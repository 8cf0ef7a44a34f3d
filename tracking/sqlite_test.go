package tracking

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestGetOrCreateExperimentIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	e1, err := s.GetOrCreateExperiment(ctx, "Expense Report")
	require.NoError(t, err)
	assert.NotEmpty(t, e1.ID)
	assert.Equal(t, "Expense Report", e1.Name)

	e2, err := s.GetOrCreateExperiment(ctx, "Expense Report")
	require.NoError(t, err)
	assert.Equal(t, e1.ID, e2.ID)

	exps, err := s.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Len(t, exps, 1)
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "exp", "weekly")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusRunning, run.Status)
	assert.False(t, run.StartTime.IsZero())

	require.NoError(t, s.EndRun(ctx, run.ID, StatusFinished))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.False(t, got.EndTime.IsZero())
	assert.Equal(t, "exp", got.ExperimentName)
	assert.Equal(t, "weekly", got.Name)
}

func TestEndUnknownRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	err := s.EndRun(context.Background(), "missing", StatusFailed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParamsAndMetricsRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "exp", "")
	require.NoError(t, err)

	require.NoError(t, s.LogParam(ctx, run.ID, "model_type", "LinearRegression"))
	require.NoError(t, s.LogParam(ctx, run.ID, "input_data_file", "expense_data_20250701.csv"))
	require.NoError(t, s.LogMetric(ctx, run.ID, "total_expense", 12345.67))
	require.NoError(t, s.LogMetric(ctx, run.ID, "r2_score", 0.98))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"model_type":      "LinearRegression",
		"input_data_file": "expense_data_20250701.csv",
	}, got.Params)
	assert.Equal(t, map[string]float64{
		"total_expense": 12345.67,
		"r2_score":      0.98,
	}, got.Metrics)
}

func TestArtifactRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "exp", "")
	require.NoError(t, err)

	want := []byte(`{"total_expense": 99.5}`)
	require.NoError(t, s.LogArtifact(ctx, run.ID, SummaryArtifact, want))

	got, err := s.GetArtifact(ctx, run.ID, SummaryArtifact)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.GetArtifact(ctx, run.ID, "absent.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirstBounded(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		run, err := s.CreateRun(ctx, "exp", "")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// ULIDs created later sort higher; newest first.
	assert.Equal(t, ids[4], runs[0].ID)
	assert.Equal(t, ids[3], runs[1].ID)
	assert.Equal(t, ids[2], runs[2].ID)
}

func TestListRunsSpansExperiments(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.CreateRun(ctx, "exp-a", "")
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "exp-b", "")
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	names := []string{runs[0].ExperimentName, runs[1].ExperimentName}
	assert.ElementsMatch(t, []string{"exp-a", "exp-b"}, names)
}

func TestOpenPicksSQLiteForPaths(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*SQLite)
	assert.True(t, ok)
}

func TestOpenPicksClientForHTTP(t *testing.T) {
	t.Parallel()

	store, err := Open("http://localhost:5000")
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*Client)
	assert.True(t, ok)
}
