package analytics

const (
	// MinWindow and MaxWindow bound the rolling-average window size callers
	// may request.
	MinWindow = 1
	MaxWindow = 60
)

// ClampWindow forces a requested window size into [MinWindow, MaxWindow].
func ClampWindow(window int) int {
	if window < MinWindow {
		return MinWindow
	}
	if window > MaxWindow {
		return MaxWindow
	}
	return window
}

// RollingPoint is one element of a rolling-average series. Points before the
// window has filled carry Defined false instead of a fabricated zero.
type RollingPoint struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// RollingAverage computes the trailing simple moving average of values with
// the given window size. The first window-1 points are undefined; the output
// keeps the input's length and order.
func RollingAverage(values []float64, window int) []RollingPoint {
	window = ClampWindow(window)
	out := make([]RollingPoint, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = RollingPoint{Value: sum / float64(window), Defined: true}
		}
	}
	return out
}
