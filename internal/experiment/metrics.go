package experiment

import (
	"errors"
	"math"
)

// Metric errors.
var (
	ErrMetricLengthMismatch = errors.New("actual and predicted must have the same length")
	ErrNoObservations       = errors.New("no observations to score")
)

// MAE computes the mean absolute error.
func MAE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, ErrMetricLengthMismatch
	}

	if len(actual) == 0 {
		return 0, ErrNoObservations
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}

	return sum / float64(len(actual)), nil
}

// RMSE computes the root mean squared error.
func RMSE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, ErrMetricLengthMismatch
	}

	if len(actual) == 0 {
		return 0, ErrNoObservations
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}

	return math.Sqrt(sum / float64(len(actual))), nil
}

// MAPE computes the mean absolute percentage error. Points where the
// actual value is zero are skipped; the skip count is returned so callers
// can report it. If every point is skipped the result is NaN.
func MAPE(actual, predicted []float64) (float64, int, error) {
	if len(actual) != len(predicted) {
		return 0, 0, ErrMetricLengthMismatch
	}

	if len(actual) == 0 {
		return 0, 0, ErrNoObservations
	}

	sum := 0.0
	used := 0

	for i := range actual {
		if actual[i] == 0 {
			continue
		}

		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		used++
	}

	skipped := len(actual) - used
	if used == 0 {
		return math.NaN(), skipped, nil
	}

	return 100 * sum / float64(used), skipped, nil
}
