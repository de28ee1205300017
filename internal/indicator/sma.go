package indicator

import "github.com/moznion/go-optional"

// SMA calculates the Simple Moving Average aligned with its input: result[i]
// is the mean of values[i-period+1..i], or None until period consecutive
// values are available. A None input restarts the warm-up.
func SMA(values []optional.Option[float64], period int) []optional.Option[float64] {
	if period <= 0 {
		return undefined(len(values))
	}

	result := make([]optional.Option[float64], len(values))

	run := 0 // consecutive known values ending at i
	for i, v := range values {
		if v.IsNone() {
			run = 0
			result[i] = optional.None[float64]()
			continue
		}
		run++
		if run < period {
			result[i] = optional.None[float64]()
			continue
		}

		// Whole-window sum: equal windows give bit-identical means
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += values[j].Unwrap()
		}
		result[i] = optional.Some(sum / float64(period))
	}

	return result
}
