package model

import (
	"gonum.org/v1/gonum/stat"
)

// MSE returns the mean squared error of predictions against actuals.
func MSE(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// R2 returns the coefficient of determination. A constant target has no
// variance to explain; that degenerate case scores 0 rather than NaN.
func R2(predicted, actual []float64) float64 {
	if len(actual) < 2 {
		return 0
	}
	if stat.Variance(actual, nil) == 0 {
		return 0
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}

// MeanStd returns the mean and sample standard deviation of xs.
func MeanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	if len(xs) == 1 {
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
