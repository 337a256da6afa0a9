package experiment

import (
	"errors"
	"testing"
	"time"
)

func TestSeries_Stats(t *testing.T) {
	s := New([]float64{2, 4, 6, 8})

	if s.Len() != 4 {
		t.Errorf("expected length 4, got %d", s.Len())
	}

	if !floatEquals(s.Mean(), 5, 1e-12) {
		t.Errorf("expected mean 5, got %f", s.Mean())
	}

	if s.Min() != 2 || s.Max() != 8 {
		t.Errorf("expected min 2 max 8, got %f %f", s.Min(), s.Max())
	}
}

func TestSeries_Split(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		ratio     float64
		wantTrain int
	}{
		{"eighty twenty", 10, 0.8, 8},
		{"floor", 5, 0.5, 2},
		{"all train", 4, 1.0, 4},
		{"all test", 4, 0.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float64, tt.n)
			for i := range values {
				values[i] = float64(i)
			}

			train, test := New(values).Split(tt.ratio)

			if len(train) != tt.wantTrain {
				t.Errorf("expected %d train rows, got %d", tt.wantTrain, len(train))
			}

			if len(train)+len(test) != tt.n {
				t.Errorf("split lost observations: %d + %d != %d", len(train), len(test), tt.n)
			}

			// Order must be preserved across the boundary.
			if len(train) > 0 && len(test) > 0 && train[len(train)-1] >= test[0] {
				t.Errorf("split reordered observations: %f >= %f", train[len(train)-1], test[0])
			}
		})
	}
}

func TestNewWithTimestamps_LengthMismatch(t *testing.T) {
	_, err := NewWithTimestamps([]time.Time{time.Now()}, []float64{1, 2})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestMinMax_RoundTrip(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	norm, err := FitMinMax(values)
	if err != nil {
		t.Fatalf("FitMinMax failed: %v", err)
	}

	scaled := norm.Transform(values)

	if !floatEquals(scaled[0], 0, 1e-12) || !floatEquals(scaled[len(scaled)-1], 1, 1e-12) {
		t.Errorf("expected range [0, 1], got [%f, %f]", scaled[0], scaled[len(scaled)-1])
	}

	restored := norm.Inverse(scaled)
	for i := range values {
		if !floatEquals(restored[i], values[i], 1e-9) {
			t.Errorf("round trip mismatch at %d: %f != %f", i, restored[i], values[i])
		}
	}
}

func TestFitMinMax_Errors(t *testing.T) {
	if _, err := FitMinMax(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}

	if _, err := FitMinMax([]float64{3, 3, 3}); !errors.Is(err, ErrConstantSeries) {
		t.Errorf("expected ErrConstantSeries, got %v", err)
	}
}
