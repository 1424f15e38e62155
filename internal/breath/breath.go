// Package breath detects inhalation peaks in a flow signal.
//
// Detection runs in two stages. FindPeaks proposes local maxima that clear the
// height, distance and prominence thresholds. FilterCycles then drops
// candidates that are not followed by a return to baseline or an expiratory
// excursion, which removes secondary bumps inside a single breath.
package breath

import (
	"codeberg.org/mutker/cpapflow/internal/flow"
)

// Event is an accepted breath.
type Event struct {
	Index int     // sample index in the flow series
	Time  float64 // seconds
}

// Detect runs both stages over s and returns the accepted breaths in order.
func Detect(s flow.Series, p Params) ([]Event, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	accepted := FilterCycles(s.Flow, FindPeaks(s.Flow, p))

	events := make([]Event, len(accepted))
	for i, idx := range accepted {
		events[i] = Event{Index: idx, Time: s.Time[idx]}
	}
	return events, nil
}

// Times returns the timestamps of events.
func Times(events []Event) []float64 {
	times := make([]float64, len(events))
	for i, e := range events {
		times[i] = e.Time
	}
	return times
}
