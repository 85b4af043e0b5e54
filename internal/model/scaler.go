package model

import (
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers and scales features to zero mean and unit
// variance. The neural network candidate requires scaled inputs; the
// fitted scaler is persisted with the model so prediction-time scaling
// matches training exactly.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-feature mean and standard deviation.
func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	d := len(X[0])
	s.Mean = make([]float64, d)
	s.Std = make([]float64, d)

	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || len(X) < 2 {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
}

// Transform scales one feature vector. Dimensions beyond the fitted width
// are passed through unchanged.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		if j < len(s.Mean) {
			out[j] = (x[j] - s.Mean[j]) / s.Std[j]
		} else {
			out[j] = x[j]
		}
	}
	return out
}
