package flow

import (
	"fmt"
	"math"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/recording"
)

// Orifice geometry and air density of the flow sensor.
const (
	airDensity       = 1.199    // kg/m^3
	upstreamDiameter = 15 * 1e-3 // m
	throatDiameter   = 12 * 1e-3 // m
)

var (
	upstreamArea = math.Pi * math.Pow(upstreamDiameter/2, 2)
	throatArea   = math.Pi * math.Pow(throatDiameter/2, 2)
	areaTerm     = math.Pow(upstreamArea/throatArea, 2) - 1
)

// Rate returns the volumetric flow in m^3/s through the orifice for an
// upstream pressure p1 and constriction pressure p2, both in pascals.
// It fails with ErrFlowDomain when p1 < p2.
func Rate(p1, p2 float64) (float64, error) {
	arg := (2 / airDensity) * (p1 - p2) / areaTerm
	if arg < 0 {
		return 0, errors.New().WithData(errors.ErrFlowDomain,
			fmt.Sprintf("upstream %.4f Pa below constriction %.4f Pa", p1, p2))
	}
	return upstreamArea * math.Sqrt(arg), nil
}

// Signed returns the flow for one sample. Inspiration is positive and uses the
// inspiratory pressure when it is at least the expiratory one; otherwise the
// flow is negative and uses the expiratory pressure.
func Signed(pConstriction, pInspiratory, pExpiratory float64) (float64, error) {
	if pInspiratory >= pExpiratory {
		return Rate(pInspiratory, pConstriction)
	}
	q, err := Rate(pExpiratory, pConstriction)
	return -q, err
}

// RecordError locates a computation failure in the accepted record sequence.
type RecordError struct {
	Index  int // position among accepted records
	Line   int // 1-based line in the source
	Detail any
}

func (e RecordError) String() string {
	return fmt.Sprintf("record %d (line %d): %v", e.Index, e.Line, e.Detail)
}

// Compute converts accepted records into a flow series, one sample per record.
func Compute(records []recording.RawRecord) (Series, error) {
	errFactory := errors.New()

	s := Series{
		Time: make([]float64, 0, len(records)),
		Flow: make([]float64, 0, len(records)),
	}

	for i, rec := range records {
		q, err := sample(rec)
		if err != nil {
			var detail any = err.Error()
			var e errors.Error
			if errors.As(err, &e) {
				detail = e.GetData()
			}
			return Series{}, errFactory.WithData(errors.CodeOf(err), RecordError{
				Index:  i,
				Line:   rec.Line,
				Detail: detail,
			})
		}
		s.Time = append(s.Time, rec.Time())
		s.Flow = append(s.Flow, q)
	}

	return s, nil
}

func sample(rec recording.RawRecord) (float64, error) {
	var pressures [3]float64
	for i, v := range []float64{rec.Constriction(), rec.Inspiratory(), rec.Expiratory()} {
		code, err := ADCCode(v)
		if err != nil {
			return 0, err
		}
		pressures[i] = ADCToPascal(code)
	}
	return Signed(pressures[0], pressures[1], pressures[2])
}
