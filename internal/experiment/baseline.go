package experiment

import (
	"errors"
	"fmt"
)

// Baseline errors.
var (
	ErrNotFitted        = errors.New("model has not been fitted")
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	ErrEmptyHistory     = errors.New("history is empty")
)

// Forecaster produces one-step-ahead forecasts from a history.
type Forecaster interface {
	Name() string
	Fit(train []float64) error
	Forecast(history []float64) (float64, error)
}

// Naive forecasts the last observed value.
type Naive struct{}

// Name returns the model name.
func (Naive) Name() string { return "naive" }

// Fit is a no-op; the naive model has no parameters.
func (Naive) Fit([]float64) error { return nil }

// Forecast returns the last value of the history.
func (Naive) Forecast(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, ErrEmptyHistory
	}

	return history[len(history)-1], nil
}

// SeasonalNaive forecasts the value one season back.
type SeasonalNaive struct {
	Period int
}

// Name returns the model name.
func (m SeasonalNaive) Name() string { return fmt.Sprintf("seasonal-naive(m=%d)", m.Period) }

// Fit validates the period against the training data.
func (m SeasonalNaive) Fit(train []float64) error {
	if m.Period < 1 || len(train) < m.Period {
		return ErrInsufficientData
	}

	return nil
}

// Forecast returns the observation Period steps back, falling back to the
// last value when the history is shorter than one season.
func (m SeasonalNaive) Forecast(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, ErrEmptyHistory
	}

	if m.Period < 1 || len(history) < m.Period {
		return history[len(history)-1], nil
	}

	return history[len(history)-m.Period], nil
}

// MovingAverage forecasts the mean of the last Window values.
type MovingAverage struct {
	Window int
}

// Name returns the model name.
func (m MovingAverage) Name() string { return fmt.Sprintf("moving-average(w=%d)", m.Window) }

// Fit validates the window against the training data.
func (m MovingAverage) Fit(train []float64) error {
	if m.Window < 1 || len(train) < m.Window {
		return ErrInsufficientData
	}

	return nil
}

// Forecast averages the trailing window of the history.
func (m MovingAverage) Forecast(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, ErrEmptyHistory
	}

	w := m.Window
	if w < 1 || w > len(history) {
		w = len(history)
	}

	sum := 0.0
	for _, v := range history[len(history)-w:] {
		sum += v
	}

	return sum / float64(w), nil
}

// AR is an autoregressive model of order p fitted by Yule-Walker.
type AR struct {
	Order     int
	Coeffs    []float64
	Intercept float64
	fitted    bool
	mean      float64
}

// NewAR creates an AR model of the given order.
func NewAR(order int) *AR {
	return &AR{Order: order}
}

// Name returns the model name.
func (m *AR) Name() string { return fmt.Sprintf("ar(p=%d)", m.Order) }

// Fit estimates coefficients from the training segment via the
// Yule-Walker equations (Levinson-Durbin recursion).
func (m *AR) Fit(train []float64) error {
	if m.Order < 1 {
		return ErrInsufficientData
	}

	if len(train) < m.Order+10 {
		return ErrInsufficientData
	}

	acf := autocorrelations(train, m.Order)
	if acf == nil {
		return ErrInsufficientData
	}

	m.Coeffs = yuleWalker(acf, m.Order)

	// Intercept so the process is centered on the training mean.
	mean := 0.0
	for _, v := range train {
		mean += v
	}
	mean /= float64(len(train))
	m.mean = mean

	coeffSum := 0.0
	for _, c := range m.Coeffs {
		coeffSum += c
	}
	m.Intercept = mean * (1 - coeffSum)

	m.fitted = true

	return nil
}

// Forecast predicts the next value from the trailing Order observations.
func (m *AR) Forecast(history []float64) (float64, error) {
	if !m.fitted {
		return 0, ErrNotFitted
	}

	if len(history) < m.Order {
		return 0, fmt.Errorf("%w: need %d observations, have %d", ErrEmptyHistory, m.Order, len(history))
	}

	pred := m.Intercept
	for i := 0; i < m.Order; i++ {
		pred += m.Coeffs[i] * history[len(history)-1-i]
	}

	return pred, nil
}

// autocorrelations computes the sample ACF up to maxLag, index 0 == 1.
func autocorrelations(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 || maxLag >= n {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	c0 := 0.0
	for _, v := range values {
		diff := v - mean
		c0 += diff * diff
	}

	if c0 == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1

	for lag := 1; lag <= maxLag; lag++ {
		sum := 0.0
		for i := lag; i < n; i++ {
			sum += (values[i] - mean) * (values[i-lag] - mean)
		}
		acf[lag] = sum / c0
	}

	return acf
}

// yuleWalker solves the Yule-Walker equations with the Levinson-Durbin
// recursion, returning AR coefficients phi_1..phi_p.
func yuleWalker(acf []float64, p int) []float64 {
	phi := make([]float64, p)
	prev := make([]float64, p)

	e := acf[0]

	for k := 1; k <= p; k++ {
		acc := acf[k]
		for j := 1; j < k; j++ {
			acc -= prev[j-1] * acf[k-j]
		}

		var kappa float64
		if e != 0 {
			kappa = acc / e
		}

		phi[k-1] = kappa
		for j := 1; j < k; j++ {
			phi[j-1] = prev[j-1] - kappa*prev[k-j-1]
		}

		e *= 1 - kappa*kappa

		copy(prev, phi)
	}

	return phi
}

// RollingForecast produces one-step-ahead predictions over the test
// segment. The history starts as the training segment and absorbs each
// actual test value after it is predicted, so no test information leaks
// into its own prediction.
func RollingForecast(f Forecaster, train, test []float64) ([]float64, error) {
	history := make([]float64, len(train), len(train)+len(test))
	copy(history, train)

	preds := make([]float64, len(test))

	for i, actual := range test {
		pred, err := f.Forecast(history)
		if err != nil {
			return nil, fmt.Errorf("%s forecast failed at step %d: %w", f.Name(), i, err)
		}

		preds[i] = pred
		history = append(history, actual)
	}

	return preds, nil
}

// RollingForecastHorizon predicts each test value horizon steps ahead: the
// prediction for test[i] uses only observations ending horizon steps before
// it, with the gap bridged by the model's own forecasts. A horizon of 1 is
// the plain rolling forecast.
func RollingForecastHorizon(f Forecaster, train, test []float64, horizon int) ([]float64, error) {
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}

	if horizon == 1 {
		return RollingForecast(f, train, test)
	}

	full := make([]float64, 0, len(train)+len(test))
	full = append(full, train...)
	full = append(full, test...)

	preds := make([]float64, len(test))

	for i := range test {
		end := len(train) + i + 1 - horizon
		if end < 1 {
			return nil, fmt.Errorf("%s forecast failed at step %d: %w", f.Name(), i, ErrSeriesTooShort)
		}

		steps, err := forecastSteps(f, full[:end], horizon)
		if err != nil {
			return nil, fmt.Errorf("%s forecast failed at step %d: %w", f.Name(), i, err)
		}

		preds[i] = steps[horizon-1]
	}

	return preds, nil
}

// forecastSteps produces a multi-step forecast by appending each prediction
// to the history before the next step.
func forecastSteps(f Forecaster, history []float64, steps int) ([]float64, error) {
	h := make([]float64, len(history), len(history)+steps)
	copy(h, history)

	out := make([]float64, steps)

	for i := range out {
		pred, err := f.Forecast(h)
		if err != nil {
			return nil, err
		}

		out[i] = pred
		h = append(h, pred)
	}

	return out, nil
}
