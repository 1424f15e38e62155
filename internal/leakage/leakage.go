// Package leakage estimates the net volume of air lost through the mask.
package leakage

import (
	"codeberg.org/mutker/cpapflow/internal/flow"
	"codeberg.org/mutker/cpapflow/internal/logger"
)

const litersPerCubicMeter = 1000

// Integrate returns the net flow volume of s in liters using the left
// rectangle rule. A negative result means more air left than entered; it is
// returned as is and logged.
func Integrate(s flow.Series) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	total := 0.0
	for i := 0; i < len(s.Flow)-1; i++ {
		total += s.Flow[i] * (s.Time[i+1] - s.Time[i])
	}

	liters := total * litersPerCubicMeter
	if liters < 0 {
		logger.Warn().Float64("leakage_l", liters).Msg("Negative leakage detected")
	}

	return liters, nil
}
