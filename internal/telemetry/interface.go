package telemetry

import "time"

// Collector accumulates per-run metrics for one process invocation.
type Collector interface {
	ObserveRun(run Run)
	Flush() error
}

// Outcome of one analysis.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeFailed      Outcome = "failed"
	OutcomeWriteFailed Outcome = "write_failed"
)

// Run summarizes one analysis.
type Run struct {
	Outcome  Outcome
	Accepted int
	Rejected int
	Breaths  int
	Apneas   int
	Elapsed  time.Duration
}
