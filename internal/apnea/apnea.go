// Package apnea counts pauses in breathing.
package apnea

// GapThreshold is the longest pause between breaths, in seconds, that is not
// counted as an apnea.
const GapThreshold = 10.0

// Count returns the number of adjacent breath times further apart than
// GapThreshold.
func Count(breathTimes []float64) int {
	count := 0
	for i := 1; i < len(breathTimes); i++ {
		if breathTimes[i]-breathTimes[i-1] > GapThreshold {
			count++
		}
	}
	return count
}
