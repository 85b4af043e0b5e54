package model

import (
	"errors"
	"fmt"
	"math"
)

// ridgeEpsilon keeps the normal-equation system solvable when features
// are collinear or constant.
const ridgeEpsilon = 1e-6

// Linear is ordinary least squares fitted via the normal equations with a
// small ridge term for numerical stability.
type Linear struct {
	// Weights holds one coefficient per feature plus the intercept as the
	// final element.
	Weights []float64 `json:"weights"`
}

// NewLinear creates an unfitted linear model.
func NewLinear() *Linear {
	return &Linear{}
}

// Name returns the model kind.
func (m *Linear) Name() string { return KindLinear }

// Fit solves (XᵀX + εI)w = Xᵀy with an appended bias column.
func (m *Linear) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("linear: empty or mismatched training data")
	}
	d := len(X[0]) + 1 // bias column

	// Normal equation system
	a := make([][]float64, d)
	b := make([]float64, d)
	for i := range a {
		a[i] = make([]float64, d)
	}
	row := make([]float64, d)
	for i := range X {
		copy(row, X[i])
		row[d-1] = 1
		for p := 0; p < d; p++ {
			b[p] += row[p] * y[i]
			for q := 0; q < d; q++ {
				a[p][q] += row[p] * row[q]
			}
		}
	}
	for p := 0; p < d; p++ {
		a[p][p] += ridgeEpsilon
	}

	w, err := solve(a, b)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}
	m.Weights = w
	return nil
}

// Predict returns wᵀx + intercept.
func (m *Linear) Predict(x []float64) float64 {
	if len(m.Weights) == 0 {
		return 0
	}
	sum := m.Weights[len(m.Weights)-1]
	n := len(m.Weights) - 1
	if len(x) < n {
		n = len(x)
	}
	for j := 0; j < n; j++ {
		sum += m.Weights[j] * x[j]
	}
	return sum
}

// solve performs Gaussian elimination with partial pivoting on a copy-free
// in-place system.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular system")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	w := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * w[c]
		}
		w[r] = sum / a[r][r]
	}
	return w, nil
}
