// Package analyze loads a generated expense dataset, computes the weekly
// summary statistics and, when there is enough data, fits a linear model
// predicting the line total from quantity and unit price.
package analyze

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/expenselab/expense"
	"github.com/rustyeddy/expenselab/regress"
)

// ErrDataNotFound reports a missing input dataset. Callers must surface it;
// a missing file is never treated as an empty table.
var ErrDataNotFound = errors.New("expense data file not found")

// Model type parameter values.
const (
	ModelLinearRegression = "LinearRegression"
	ModelNone             = "none"
)

const (
	// holdoutFraction of rows is held out for evaluation.
	holdoutFraction = 0.2

	// splitSeed fixes the train/holdout partition so repeated analyses of
	// the same file report the same metrics.
	splitSeed = 42
)

// featureNames of the fitted model, in column order.
var featureNames = []string{"quantity", "unit_price"}

// Summary is the per-analysis statistics document, stored as a run artifact
// so the dashboard can surface non-numeric fields like the top product.
type Summary struct {
	TotalExpense       float64 `json:"total_expense"`
	AvgPricePerItem    float64 `json:"avg_price_per_item"`
	TopProductCategory string  `json:"top_product_category"`
	NumSuppliers       int     `json:"num_suppliers"`
	NumRecords         int     `json:"num_records"`
	DataFileUsed       string  `json:"data_file_used"`
}

// Report is the full analyzer output: string params and numeric metrics in
// the shape the tracking store expects, the summary document, and the
// fitted model when one exists.
type Report struct {
	Params  map[string]string
	Metrics map[string]float64
	Summary Summary

	// Breakdown is the per-weekday and per-month spend grouping, persisted
	// alongside the summary.
	Breakdown Breakdown

	// Model is nil when fewer than 2 rows were available.
	Model *regress.Model

	// DataPath is the analyzed file, for optional raw-data artifact upload.
	DataPath string
}

// Analyze reads the dataset at path and produces a Report. A missing file
// returns an error wrapping ErrDataNotFound.
func Analyze(path string, log zerolog.Logger) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	records, err := expense.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Info().Int("records", len(records)).Str("path", path).Msg("loaded expense data")

	summary := Summarize(records, filepath.Base(path))

	rep := &Report{
		Params: map[string]string{
			"input_data_file":       filepath.Base(path),
			"num_records_processed": fmt.Sprintf("%d", len(records)),
			"model_type":            ModelNone,
		},
		Metrics: map[string]float64{
			"total_expense":      summary.TotalExpense,
			"avg_price_per_item": summary.AvgPricePerItem,
		},
		Summary:   summary,
		Breakdown: NewBreakdown(records),
		DataPath:  path,
	}

	if len(records) < 2 {
		// Degraded mode, not an error: the explicit "none" marker makes
		// the skipped fit auditable in the run's params.
		log.Warn().Int("records", len(records)).Msg("not enough data to fit model, skipping")
		return rep, nil
	}

	model, rmse, r2, err := fitAndScore(records)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	rep.Params["model_type"] = ModelLinearRegression
	rep.Metrics["rmse"] = rmse
	rep.Metrics["r2_score"] = r2
	rep.Model = model

	log.Info().Float64("rmse", rmse).Float64("r2", r2).Msg("model fitted")
	return rep, nil
}

// Summarize computes the aggregate statistics for a set of records.
// AvgPricePerItem is the quantity-weighted average (total spend over total
// items), not a mean of per-row prices.
func Summarize(records []expense.Record, sourceFile string) Summary {
	var totalExpense float64
	var totalQty int
	productCounts := make(map[string]int)
	suppliers := make(map[string]struct{})

	for _, r := range records {
		totalExpense += r.TotalPrice
		totalQty += r.Quantity
		productCounts[r.Product]++
		suppliers[r.Supplier] = struct{}{}
	}

	var avg float64
	if totalQty > 0 {
		avg = totalExpense / float64(totalQty)
	}

	return Summary{
		TotalExpense:       expense.Round2(totalExpense),
		AvgPricePerItem:    expense.Round2(avg),
		TopProductCategory: topProduct(records, productCounts),
		NumSuppliers:       len(suppliers),
		NumRecords:         len(records),
		DataFileUsed:       sourceFile,
	}
}

// topProduct returns the most frequent product. Ties break on first
// appearance in the data, keeping the result deterministic.
func topProduct(records []expense.Record, counts map[string]int) string {
	best := ""
	bestCount := 0
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.Product]; ok {
			continue
		}
		seen[r.Product] = struct{}{}
		if counts[r.Product] > bestCount {
			best = r.Product
			bestCount = counts[r.Product]
		}
	}
	return best
}

// fitAndScore splits the records 80/20 with a fixed seed, fits the linear
// model on the training fraction and scores it on the holdout.
func fitAndScore(records []expense.Record) (*regress.Model, float64, float64, error) {
	trainIdx, testIdx := split(len(records))

	trainX, trainY := featurize(records, trainIdx)
	testX, testY := featurize(records, testIdx)

	model, err := regress.Fit(trainX, trainY)
	if err != nil {
		return nil, 0, 0, err
	}
	model.Features = featureNames

	pred, err := model.PredictAll(testX)
	if err != nil {
		return nil, 0, 0, err
	}

	return model, regress.RMSE(pred, testY), regress.R2(pred, testY), nil
}

// split returns train and holdout index sets from a seeded shuffle. The
// holdout always has at least one row.
func split(n int) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	rng := rand.New(rand.NewSource(splitSeed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(float64(n) * holdoutFraction)
	if nTest < 1 {
		nTest = 1
	}
	return idx[nTest:], idx[:nTest]
}

func featurize(records []expense.Record, idx []int) ([][]float64, []float64) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for i, j := range idx {
		r := records[j]
		x[i] = []float64{float64(r.Quantity), r.UnitPrice}
		y[i] = r.TotalPrice
	}
	return x, y
}
