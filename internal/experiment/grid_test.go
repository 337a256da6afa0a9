package experiment

import (
	"errors"
	"testing"
)

func TestSelectWindow(t *testing.T) {
	// Strong period-4 seasonality: a window of 4 averages out exactly one
	// full cycle and should win against 2 and 8.
	values := make([]float64, 200)
	cycle := []float64{10, 20, 30, 40}
	for i := range values {
		values[i] = cycle[i%4]
	}

	got, err := SelectWindow(values, []int{2, 4, 8}, 1)
	if err != nil {
		t.Fatalf("SelectWindow failed: %v", err)
	}

	if got != 4 {
		t.Errorf("expected window 4, got %d", got)
	}
}

func TestSelectWindow_Horizon(t *testing.T) {
	// Two-step-ahead selection on the same cycle: the full-cycle window
	// still beats the half-cycle one.
	values := make([]float64, 200)
	cycle := []float64{10, 20, 30, 40}
	for i := range values {
		values[i] = cycle[i%4]
	}

	got, err := SelectWindow(values, []int{2, 4}, 2)
	if err != nil {
		t.Fatalf("SelectWindow failed: %v", err)
	}

	if got != 4 {
		t.Errorf("expected window 4, got %d", got)
	}
}

func TestSelectAROrder(t *testing.T) {
	values := synthAR1(1000, -0.6, 0, 1, 11)

	got, err := SelectAROrder(values, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("SelectAROrder failed: %v", err)
	}

	if got < 1 || got > 3 {
		t.Errorf("selected order %d outside candidate set", got)
	}
}

func TestSelect_Errors(t *testing.T) {
	if _, err := SelectWindow([]float64{1, 2, 3}, nil, 1); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}

	if _, err := SelectAROrder([]float64{1}, []int{1}); !errors.Is(err, ErrTrainTooShort) {
		t.Errorf("expected ErrTrainTooShort, got %v", err)
	}

	// Candidates that cannot fit the data leave nothing to select.
	if _, err := SelectWindow([]float64{1, 2, 3, 4, 5}, []int{100}, 1); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}
