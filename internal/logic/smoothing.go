package logic

import (
	"github.com/rben01/covid19-sub000/internal/models"
)

// MovingAverage returns the trailing arithmetic mean of
// values[max(0, end-window+1) .. end]. Missing samples are excluded from
// both the sum and the divisor rather than treated as zero, so early-series
// averages are not biased downward. A window containing no defined samples
// returns not-ok.
func MovingAverage(s models.Series, window, end int) (float64, bool) {
	if window < 1 || end < 0 || end >= s.Len() {
		return 0, false
	}
	start := end - window + 1
	if start < 0 {
		start = 0
	}
	var sum float64
	var n int
	for i := start; i <= end; i++ {
		if v, ok := s.At(i); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// smoothedAt is MovingAverage restricted to full windows: charts emit their
// first smoothed point only once window samples are available, so the output
// sequence is window-1 points shorter at the start.
func smoothedAt(s models.Series, window, i int) (float64, bool) {
	if i < window-1 {
		return 0, false
	}
	return MovingAverage(s, window, i)
}
