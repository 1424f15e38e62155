package breath

// FilterCycles keeps the candidate peaks that begin a complete breath.
//
// A peak followed by another candidate is kept when the sample after it is
// nonzero and the span up to the next candidate either touches zero or goes
// negative. The last candidate has no successor, so it is kept when a zero
// sample occurs between it and the second to last sample of x.
func FilterCycles(x []float64, peaks []int) []int {
	accepted := make([]int, 0, len(peaks))
	if len(peaks) == 0 {
		return accepted
	}

	for i := 0; i < len(peaks)-1; i++ {
		window := x[peaks[i]:peaks[i+1]]
		started := x[peaks[i]+1] != 0
		if started && (containsZero(window) || containsNegative(window)) {
			accepted = append(accepted, peaks[i])
		}
	}

	last := peaks[len(peaks)-1]
	if containsZero(x[last : len(x)-1]) {
		accepted = append(accepted, last)
	}

	return accepted
}

func containsZero(x []float64) bool {
	for _, v := range x {
		if v == 0 {
			return true
		}
	}
	return false
}

func containsNegative(x []float64) bool {
	for _, v := range x {
		if v < 0 {
			return true
		}
	}
	return false
}
