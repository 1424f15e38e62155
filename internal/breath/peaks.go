package breath

import "sort"

// FindPeaks returns the indices of local maxima of x that satisfy the height,
// distance and prominence thresholds, in ascending order. A flat peak is
// reported at its first sample.
func FindPeaks(x []float64, p Params) []int {
	peaks := localMaxima(x)

	kept := peaks[:0]
	for _, i := range peaks {
		if x[i] >= p.Height {
			kept = append(kept, i)
		}
	}

	kept = selectByDistance(x, kept, p.Distance)

	out := make([]int, 0, len(kept))
	for _, i := range kept {
		if prominence(x, i) >= p.Prominence {
			out = append(out, i)
		}
	}
	return out
}

func localMaxima(x []float64) []int {
	var peaks []int
	last := len(x) - 1

	for i := 1; i < last; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, i)
			i = ahead
		}
	}
	return peaks
}

// selectByDistance drops peaks closer than distance samples to a higher one.
// Equal heights favour the earlier peak.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] > x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}

	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, ok := range keep {
		if ok {
			out = append(out, peaks[i])
		}
	}
	return out
}

// prominence is the height of x[peak] above the higher of the two minima found
// walking outwards until the signal first exceeds the peak or the series ends.
func prominence(x []float64, peak int) float64 {
	leftMin := x[peak]
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
		}
	}

	rightMin := x[peak]
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
		}
	}

	return x[peak] - max(leftMin, rightMin)
}
