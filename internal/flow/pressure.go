// Package flow converts raw sensor codes into pressures and volumetric flow.
package flow

import (
	"math"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

// Sensor calibration: code 1638 reads 0 cmH2O and code 14745 reads 25.4 cmH2O.
const (
	adcZero        = 1638
	adcFullScale   = 14745
	fullScaleCmH2O = 25.4
	pascalPerCmH2O = 98.0665
)

// ADCToPascal converts a sensor code to pressure in pascals. The mapping is
// linear and unclamped; codes outside the sensor range give out of range
// (possibly negative) pressures.
func ADCToPascal(code int32) float64 {
	cmH2O := (fullScaleCmH2O / float64(adcFullScale-adcZero)) * float64(code-adcZero)
	return pascalPerCmH2O * cmH2O
}

// ADCCode converts a validated numeric field to a sensor code. Fractional or
// out of range values are rejected.
func ADCCode(v float64) (int32, error) {
	if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errors.New().WithData(errors.ErrInvalidADC, v)
	}
	return int32(v), nil
}
