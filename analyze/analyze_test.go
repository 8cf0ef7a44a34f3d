package analyze

import (
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/expenselab/expense"
	"github.com/rustyeddy/expenselab/generate"
)

func writeDataset(t *testing.T, records []expense.Record) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "expense_data.csv")
	require.NoError(t, expense.WriteFile(path, records))
	return path
}

func record(product, supplier string, qty int, unit float64) expense.Record {
	r := expense.Record{
		Date:          time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		Product:       product,
		Quantity:      qty,
		UnitPrice:     unit,
		Supplier:      supplier,
		PaymentMethod: "Cash",
		Notes:         "None",
	}
	r.ComputeTotal()
	return r
}

func TestAnalyzeMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Analyze(filepath.Join(t.TempDir(), "nope.csv"), zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataNotFound)
}

func TestAnalyzeSingleRowSkipsModel(t *testing.T) {
	t.Parallel()

	path := writeDataset(t, []expense.Record{record("Fruits", "Supplier A", 4, 2.5)})

	rep, err := Analyze(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, ModelNone, rep.Params["model_type"])
	assert.Nil(t, rep.Model)

	// Model metrics must be absent, not zero.
	_, hasRMSE := rep.Metrics["rmse"]
	_, hasR2 := rep.Metrics["r2_score"]
	assert.False(t, hasRMSE)
	assert.False(t, hasR2)

	assert.Equal(t, 10.0, rep.Metrics["total_expense"])
	assert.Equal(t, 2.5, rep.Metrics["avg_price_per_item"])
}

func TestAnalyzeTwoRowsFitsModel(t *testing.T) {
	t.Parallel()

	path := writeDataset(t, []expense.Record{
		record("Fruits", "Supplier A", 2, 1.0),
		record("Seafood", "Supplier B", 3, 4.0),
	})

	rep, err := Analyze(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, ModelLinearRegression, rep.Params["model_type"])
	require.NotNil(t, rep.Model)

	rmse, ok := rep.Metrics["rmse"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, rmse, 0.0)

	r2, ok := rep.Metrics["r2_score"]
	require.True(t, ok)
	assert.LessOrEqual(t, r2, 1.0)
}

func TestAvgPriceIsWeighted(t *testing.T) {
	t.Parallel()

	// Weighted: (2.00 + 12.00) / (2 + 3) = 2.80.
	// A per-row mean of unit prices would be 2.50.
	records := []expense.Record{
		record("Fruits", "Supplier A", 2, 1.0),
		record("Seafood", "Supplier B", 3, 4.0),
	}

	sum := Summarize(records, "x.csv")
	assert.Equal(t, 2.8, sum.AvgPricePerItem)
	assert.Equal(t, 14.0, sum.TotalExpense)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []expense.Record{
		record("Fruits", "Supplier A", 1, 1),
		record("Fruits", "Supplier B", 1, 1),
		record("Seafood", "Supplier A", 1, 1),
	}

	sum := Summarize(records, "weekly.csv")
	assert.Equal(t, "Fruits", sum.TopProductCategory)
	assert.Equal(t, 2, sum.NumSuppliers)
	assert.Equal(t, 3, sum.NumRecords)
	assert.Equal(t, "weekly.csv", sum.DataFileUsed)
}

func TestTopProductTieBreaksOnFirstSeen(t *testing.T) {
	t.Parallel()

	records := []expense.Record{
		record("Seafood", "Supplier A", 1, 1),
		record("Fruits", "Supplier A", 1, 1),
	}
	assert.Equal(t, "Seafood", Summarize(records, "t.csv").TopProductCategory)
}

func TestSplitIsDeterministicAndCoversAllRows(t *testing.T) {
	t.Parallel()

	train1, test1 := split(50)
	train2, test2 := split(50)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	assert.Len(t, test1, 10)
	assert.Len(t, train1, 40)

	all := append(append([]int{}, train1...), test1...)
	slices.Sort(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}
}

func TestSplitHoldoutNeverEmpty(t *testing.T) {
	t.Parallel()

	train, test := split(2)
	assert.Len(t, test, 1)
	assert.Len(t, train, 1)
}

func TestSpendBreakdowns(t *testing.T) {
	t.Parallel()

	r1 := record("Fruits", "Supplier A", 2, 1.0)                          // Wednesday, July
	r2 := record("Fruits", "Supplier A", 1, 3.0)                          // same day
	r3 := r1                                                              // copy, shift to Thursday
	r3.Date = time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

	byDay := SpendByWeekday([]expense.Record{r1, r2, r3})
	assert.Equal(t, 5.0, byDay[time.Wednesday])
	assert.Equal(t, 2.0, byDay[time.Thursday])

	byMonth := SpendByMonth([]expense.Record{r1, r2, r3})
	assert.Equal(t, 7.0, byMonth[time.July])

	// The artifact document carries the same totals under name keys.
	bd := NewBreakdown([]expense.Record{r1, r2, r3})
	assert.Equal(t, 5.0, bd.ByWeekday["Wednesday"])
	assert.Equal(t, 2.0, bd.ByWeekday["Thursday"])
	assert.Equal(t, 7.0, bd.ByMonth["July"])
}

// TestAnalyzeGeneratedDataset is the end-to-end scenario: 200 generated
// rows with seed 42 must analyze cleanly with a fitted model.
func TestAnalyzeGeneratedDataset(t *testing.T) {
	t.Parallel()

	g := generate.New(generate.Options{
		OutDir:  t.TempDir(),
		Records: 200,
		Seed:    42,
		Now:     func() time.Time { return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC) },
	})
	path, err := g.Generate()
	require.NoError(t, err)

	rep, err := Analyze(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, ModelLinearRegression, rep.Params["model_type"])
	assert.Equal(t, "200", rep.Params["num_records_processed"])
	assert.Greater(t, rep.Metrics["total_expense"], 0.0)
	assert.LessOrEqual(t, rep.Summary.NumSuppliers, len(expense.Suppliers))
	assert.True(t, slices.Contains(expense.Products, rep.Summary.TopProductCategory))

	assert.GreaterOrEqual(t, rep.Metrics["rmse"], 0.0)
	assert.LessOrEqual(t, rep.Metrics["r2_score"], 1.0)

	var bdTotal float64
	for _, v := range rep.Breakdown.ByWeekday {
		bdTotal += v
	}
	assert.InDelta(t, rep.Metrics["total_expense"], bdTotal, 0.1)
}
