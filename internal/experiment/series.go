// Package experiment implements the forecasting evaluation stage: dataset
// loading, normalization, the sliding-window transform, statistical
// baselines, and MAE/RMSE/MAPE scoring. Its report feeds the generated
// paper's Results section so quoted metrics are reproducible.
package experiment

import (
	"errors"
	"math"
	"time"
)

// Series errors.
var (
	ErrLengthMismatch = errors.New("timestamps and values must have the same length")
	ErrConstantSeries = errors.New("cannot normalize a constant series")
	ErrEmptySeries    = errors.New("series is empty")
)

// Series represents a univariate time series.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a series from values with synthetic hourly timestamps.
func New(values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	base := time.Now()
	for i := range timestamps {
		timestamps[i] = base.Add(time.Duration(i) * time.Hour)
	}

	return &Series{Timestamps: timestamps, Values: values}
}

// NewWithTimestamps creates a series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, ErrLengthMismatch
	}

	return &Series{Timestamps: timestamps, Values: values}, nil
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}

	return sum / float64(len(s.Values))
}

// Min returns the minimum value, or NaN for an empty series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}

	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}

	return min
}

// Max returns the maximum value, or NaN for an empty series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}

	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}

	return max
}

// Split divides the series into ordered train and test segments. The split
// index is floor(n * ratio); observations never cross the boundary.
func (s *Series) Split(ratio float64) (train, test []float64) {
	n := len(s.Values)
	cut := int(float64(n) * ratio)

	if cut < 0 {
		cut = 0
	}
	if cut > n {
		cut = n
	}

	return s.Values[:cut], s.Values[cut:]
}

// MinMax is an invertible min-max normalizer mapping values to [0, 1].
type MinMax struct {
	Min float64
	Max float64
}

// FitMinMax fits a normalizer to the given values.
func FitMinMax(values []float64) (*MinMax, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}

	s := &Series{Values: values}
	min, max := s.Min(), s.Max()

	if min == max {
		return nil, ErrConstantSeries
	}

	return &MinMax{Min: min, Max: max}, nil
}

// Transform scales values into [0, 1].
func (m *MinMax) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	span := m.Max - m.Min

	for i, v := range values {
		out[i] = (v - m.Min) / span
	}

	return out
}

// Inverse maps normalized values back to the original scale.
func (m *MinMax) Inverse(values []float64) []float64 {
	out := make([]float64, len(values))
	span := m.Max - m.Min

	for i, v := range values {
		out[i] = v*span + m.Min
	}

	return out
}
