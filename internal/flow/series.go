package flow

import (
	"fmt"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

// Series is a flow signal with its sample times. Time[i] and Flow[i] describe
// the same sample. Consumers treat a Series as read-only.
type Series struct {
	Time []float64 // seconds
	Flow []float64 // m^3/s, positive on inspiration
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.Flow)
}

// Validate checks that Time and Flow are index aligned.
func (s Series) Validate() error {
	if len(s.Time) != len(s.Flow) {
		return errors.New().WithData(errors.ErrMisalignedSeries,
			fmt.Sprintf("%d times, %d flows", len(s.Time), len(s.Flow)))
	}
	return nil
}

// Duration returns the time between the first and last sample.
func (s Series) Duration() float64 {
	if len(s.Time) == 0 {
		return 0
	}
	return s.Time[len(s.Time)-1] - s.Time[0]
}
