package breath

import (
	"fmt"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

const (
	DefaultHeight     = 1.1e-4 // m^3/s
	DefaultDistance   = 49     // samples
	DefaultProminence = 2.5e-4 // m^3/s
)

// Params are the candidate peak thresholds.
type Params struct {
	Height     float64 // minimum peak flow
	Distance   int     // minimum samples between accepted peaks
	Prominence float64 // minimum rise above the higher of the surrounding valleys
}

func DefaultParams() Params {
	return Params{
		Height:     DefaultHeight,
		Distance:   DefaultDistance,
		Prominence: DefaultProminence,
	}
}

func (p Params) Validate() error {
	if p.Distance < 1 || p.Prominence < 0 {
		return errors.New().WithData(errors.ErrInvalidDetector,
			fmt.Sprintf("distance=%d prominence=%g", p.Distance, p.Prominence))
	}
	return nil
}
