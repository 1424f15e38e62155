package history

import (
	"context"
	"time"

	"codeberg.org/mutker/cpapflow/internal/metrics"
)

// Recorder is the history service used by the analysis pipeline.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
	Enabled() bool
}

// Repository stores entries.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Entry is one completed analysis run.
type Entry struct {
	RunID        string
	Source       string // input recording path
	AnalyzedAt   time.Time
	Metrics      metrics.Record
	CPAPPressure int // cmH2O, 0 when not set
	ArtifactPath string
	PlotPath     string // empty when plot data was not exported
}
