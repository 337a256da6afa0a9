package experiment

import (
	"errors"
	"math"
)

// Grid search errors.
var (
	ErrNoCandidates  = errors.New("no candidate configurations to search")
	ErrTrainTooShort = errors.New("training segment too short for validation split")
)

// validationSplit reserves the last 20% of the training segment for
// candidate selection.
const validationRatio = 0.2

// SelectWindow picks the moving-average window with the lowest RMSE over
// the sliding (input, target) pairs of the training segment, forecasting
// horizon steps past each input.
func SelectWindow(train []float64, windows []int, horizon int) (int, error) {
	if len(windows) == 0 {
		return 0, ErrNoCandidates
	}

	if horizon < 1 {
		horizon = 1
	}

	best, bestScore := 0, math.Inf(1)

	for _, w := range windows {
		pairs, err := SlidingWindows(train, w, horizon)
		if err != nil {
			continue
		}

		model := MovingAverage{Window: w}
		if model.Fit(train) != nil {
			continue
		}

		score, err := windowRMSE(model, pairs, horizon)
		if err != nil {
			continue
		}

		if score < bestScore {
			best, bestScore = w, score
		}
	}

	if best == 0 {
		return 0, ErrNoCandidates
	}

	return best, nil
}

// SelectAROrder picks the AR order with the lowest validation RMSE from
// the candidates.
func SelectAROrder(train []float64, orders []int) (int, error) {
	if len(orders) == 0 {
		return 0, ErrNoCandidates
	}

	fit, val, err := splitValidation(train)
	if err != nil {
		return 0, err
	}

	best, bestScore := 0, math.Inf(1)

	for _, p := range orders {
		model := NewAR(p)
		if model.Fit(fit) != nil {
			continue
		}

		score, err := validationRMSE(model, fit, val)
		if err != nil {
			continue
		}

		if score < bestScore {
			best, bestScore = p, score
		}
	}

	if best == 0 {
		return 0, ErrNoCandidates
	}

	return best, nil
}

func splitValidation(train []float64) (fit, val []float64, err error) {
	cut := int(float64(len(train)) * (1 - validationRatio))
	if cut < 1 || cut >= len(train) {
		return nil, nil, ErrTrainTooShort
	}

	return train[:cut], train[cut:], nil
}

func validationRMSE(f Forecaster, fit, val []float64) (float64, error) {
	preds, err := RollingForecast(f, fit, val)
	if err != nil {
		return 0, err
	}

	return RMSE(val, preds)
}

// windowRMSE scores a forecaster over (input, target) pairs, feeding its
// own predictions back to cover multi-step horizons.
func windowRMSE(f Forecaster, pairs []Window, horizon int) (float64, error) {
	actual := make([]float64, 0, len(pairs)*horizon)
	preds := make([]float64, 0, len(pairs)*horizon)

	for _, p := range pairs {
		steps, err := forecastSteps(f, p.Input, horizon)
		if err != nil {
			return 0, err
		}

		preds = append(preds, steps...)
		actual = append(actual, p.Target...)
	}

	return RMSE(actual, preds)
}
