// Package regress implements ordinary least squares linear regression with
// the usual holdout metrics (RMSE, R²). It is a thin layer over gonum's
// dense matrices; nothing here is streaming or incremental.
package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is a fitted linear model: y = Intercept + Σ Coefficients[i]*x[i].
type Model struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Features     []string  `json:"features,omitempty"`
}

// Fit solves least squares for the given samples. x is row-major, one
// sample per inner slice; all samples must have the same width. The solve
// goes through SVD, so rank-deficient and underdetermined systems yield the
// minimum-norm solution instead of an error.
func Fit(x [][]float64, y []float64) (*Model, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("regress: no samples")
	}
	if len(y) != n {
		return nil, fmt.Errorf("regress: %d samples but %d targets", n, len(y))
	}
	p := len(x[0])
	if p == 0 {
		return nil, fmt.Errorf("regress: samples have no features")
	}

	// Design matrix with a leading intercept column.
	a := mat.NewDense(n, p+1, nil)
	for i, row := range x {
		if len(row) != p {
			return nil, fmt.Errorf("regress: sample %d has %d features, want %d", i, len(row), p)
		}
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("regress: SVD factorization failed")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	// coef = V · diag(1/s) · Uᵀ · y, zeroing singular values below the
	// usual machine-epsilon cutoff.
	tol := float64(max(n, p+1)) * s[0] * 2.2e-16
	k := len(s)
	uty := make([]float64, k)
	for i := 0; i < k; i++ {
		if s[i] <= tol {
			continue
		}
		var dot float64
		for r := 0; r < n; r++ {
			dot += u.At(r, i) * y[r]
		}
		uty[i] = dot / s[i]
	}

	coef := make([]float64, p+1)
	for j := 0; j <= p; j++ {
		var dot float64
		for i := 0; i < k; i++ {
			dot += v.At(j, i) * uty[i]
		}
		coef[j] = dot
	}

	return &Model{
		Intercept:    coef[0],
		Coefficients: coef[1:],
	}, nil
}

// Predict evaluates the model for one sample.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("regress: sample has %d features, model has %d", len(x), len(m.Coefficients))
	}
	y := m.Intercept
	for j, c := range m.Coefficients {
		y += c * x[j]
	}
	return y, nil
}

// PredictAll evaluates the model for every sample.
func (m *Model) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		y, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = y
	}
	return out, nil
}

// RMSE is the root mean squared error between predictions and truth.
func RMSE(predicted, actual []float64) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return math.NaN()
	}
	var sum float64
	for i := range predicted {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(predicted)))
}

// R2 is the coefficient of determination on a holdout set. At most 1;
// negative when the model does worse than predicting the mean. A holdout
// with zero target variance (e.g. a single sample) is reported as 0 rather
// than NaN so the metric stays usable downstream.
func R2(predicted, actual []float64) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return math.NaN()
	}

	mean := stat.Mean(actual, nil)
	var sst float64
	for _, v := range actual {
		sst += (v - mean) * (v - mean)
	}
	if sst == 0 {
		return 0
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}
