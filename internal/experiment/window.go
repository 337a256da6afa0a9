package experiment

import "errors"

// Windowing errors.
var (
	ErrInvalidWindow  = errors.New("window length must be at least 1")
	ErrInvalidHorizon = errors.New("horizon must be at least 1")
	ErrSeriesTooShort = errors.New("series shorter than window plus horizon")
)

// Window is one (input, target) training pair produced by the sliding
// window transform.
type Window struct {
	Input  []float64
	Target []float64
}

// SlidingWindows converts a sequence into fixed-length (input, target)
// pairs. For n observations, window w and horizon h the count is exactly
// n - w - h + 1.
func SlidingWindows(values []float64, window, horizon int) ([]Window, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}

	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}

	n := len(values)
	count := n - window - horizon + 1
	if count < 1 {
		return nil, ErrSeriesTooShort
	}

	windows := make([]Window, count)

	for i := 0; i < count; i++ {
		windows[i] = Window{
			Input:  values[i : i+window],
			Target: values[i+window : i+window+horizon],
		}
	}

	return windows, nil
}
