// Package metrics aggregates the respiratory analysis of a flow series into a
// single record and publishes it as a JSON artifact.
package metrics

import (
	"fmt"

	"codeberg.org/mutker/cpapflow/internal/apnea"
	"codeberg.org/mutker/cpapflow/internal/breath"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
	"codeberg.org/mutker/cpapflow/internal/leakage"
)

const secondsPerMinute = 60

// Record is the result of one analysis. The JSON field names are the contract
// with the patient record service.
type Record struct {
	Duration      float64   `json:"duration"` // seconds
	BreathCount   uint32    `json:"breaths"`
	BreathRateBPM float64   `json:"breath_rate_bpm"` // breaths per minute
	BreathTimes   []float64 `json:"breath_times"`    // seconds, ascending
	ApneaCount    uint32    `json:"apnea_count"`
	Leakage       float64   `json:"leakage"` // liters, may be negative
}

// Compute runs breath, apnea and leakage analysis over s. It fails when s is
// empty, spans no time or ends before it starts, since the breath rate is
// undefined then. Samples in between need not be ordered.
func Compute(s flow.Series, p breath.Params) (Record, []breath.Event, error) {
	errFactory := errors.New()

	if err := s.Validate(); err != nil {
		return Record{}, nil, err
	}
	if s.Len() == 0 {
		return Record{}, nil, errFactory.New(errors.ErrNoRecords)
	}

	duration := s.Duration()
	switch {
	case duration < 0:
		return Record{}, nil, errFactory.WithData(errors.ErrNegativeDuration,
			fmt.Sprintf("first sample at %gs, last at %gs", s.Time[0], s.Time[s.Len()-1]))
	case duration == 0:
		return Record{}, nil, errFactory.WithData(errors.ErrDegenerateDuration,
			fmt.Sprintf("%d samples spanning %gs", s.Len(), duration))
	}

	events, err := breath.Detect(s, p)
	if err != nil {
		return Record{}, nil, err
	}
	times := breath.Times(events)

	leaked, err := leakage.Integrate(s)
	if err != nil {
		return Record{}, nil, err
	}

	return Record{
		Duration:      duration,
		BreathCount:   uint32(len(events)),
		BreathRateBPM: float64(len(events)) / duration * secondsPerMinute,
		BreathTimes:   times,
		ApneaCount:    uint32(apnea.Count(times)),
		Leakage:       leaked,
	}, events, nil
}
