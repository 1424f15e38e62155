// Package pipeline runs one recording through loading, flow conversion and
// metrics aggregation, and publishes the results.
package pipeline

import (
	"context"
	"time"

	"codeberg.org/mutker/cpapflow/internal/breath"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
	"codeberg.org/mutker/cpapflow/internal/history"
	"codeberg.org/mutker/cpapflow/internal/lock"
	"codeberg.org/mutker/cpapflow/internal/logger"
	"codeberg.org/mutker/cpapflow/internal/metrics"
	"codeberg.org/mutker/cpapflow/internal/plot"
	"codeberg.org/mutker/cpapflow/internal/recording"
	"codeberg.org/mutker/cpapflow/internal/telemetry"
	"github.com/google/uuid"
)

// Options configure one analysis. The zero value plus Detector is usable;
// nil collaborators are skipped.
type Options struct {
	Detector     breath.Params
	OutputDir    string
	PlotData     bool
	CPAPPressure int // cmH2O, 0 when not set

	History   history.Recorder
	Telemetry telemetry.Collector
	Log       logger.Logger
}

// Result is what a caller gets back for one recording: the metrics record,
// the aligned flow series for plotting, and where the artifacts went.
type Result struct {
	RunID        string
	Source       string
	Metrics      metrics.Record
	Series       flow.Series
	Events       []breath.Event
	Accepted     int
	Rejected     int
	ArtifactPath string
	PlotPath     string // empty unless plot data was exported

	// WriteErr is set when the metrics were computed but could not be
	// published. Metrics stays valid.
	WriteErr error
}

// Analyze processes the recording at path. An error is returned only when no
// metrics could be computed; publishing failures are reported in
// Result.WriteErr.
func Analyze(ctx context.Context, path string, opts Options) (*Result, error) {
	errFactory := errors.New()

	log := opts.Log
	if log == nil {
		log = logger.Get()
	}

	if path == "" {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "empty recording path")
	}
	if err := ctx.Err(); err != nil {
		return nil, errFactory.Wrap(errors.ErrCanceled, err)
	}

	start := time.Now()
	res := &Result{
		RunID:  uuid.NewString(),
		Source: path,
	}

	log.Info().
		Str("source", path).
		Str("run_id", res.RunID).
		Msg("Analysis started")

	if err := compute(res, path, opts.Detector); err != nil {
		observe(opts.Telemetry, res, telemetry.OutcomeFailed, start)
		return nil, err
	}

	res.WriteErr = publish(res, opts)
	if res.WriteErr != nil {
		if appErr, ok := res.WriteErr.(errors.Error); ok {
			log.ErrorWithCode(appErr).
				Str("source", path).
				Msg("Failed to publish analysis")
		} else {
			log.Error().Err(res.WriteErr).Str("source", path).Msg("Failed to publish analysis")
		}
	}

	record(ctx, log, opts, res, start)

	outcome := telemetry.OutcomeSuccess
	if res.WriteErr != nil {
		outcome = telemetry.OutcomeWriteFailed
	}
	observe(opts.Telemetry, res, outcome, start)

	log.Info().
		Str("source", path).
		Str("run_id", res.RunID).
		Float64("duration_s", res.Metrics.Duration).
		Uint32("breaths", res.Metrics.BreathCount).
		Float64("breath_rate_bpm", res.Metrics.BreathRateBPM).
		Uint32("apnea_count", res.Metrics.ApneaCount).
		Float64("leakage_l", res.Metrics.Leakage).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis finished")

	return res, nil
}

func compute(res *Result, path string, p breath.Params) error {
	rec, err := recording.Load(path)
	if err != nil {
		return err
	}
	res.Accepted = len(rec.Records)
	res.Rejected = len(rec.Rejected)

	series, err := flow.Compute(rec.Records)
	if err != nil {
		return err
	}

	m, events, err := metrics.Compute(series, p)
	if err != nil {
		return err
	}

	res.Series = series
	res.Events = events
	res.Metrics = m
	return nil
}

// publish writes the metrics artifact and, when asked, the plot data. Both
// share one lock on the metrics artifact path.
func publish(res *Result, opts Options) error {
	artifact := metrics.ArtifactPath(res.Source, opts.OutputDir)

	l, err := lock.Acquire(artifact)
	if err != nil {
		return err
	}
	defer l.Release()

	if err := metrics.WriteArtifact(artifact, res.Metrics); err != nil {
		return err
	}
	res.ArtifactPath = artifact

	if opts.PlotData {
		plotPath := plot.PathFor(res.Source, opts.OutputDir)
		if err := plot.Write(plotPath, res.Series, res.Events); err != nil {
			return err
		}
		res.PlotPath = plotPath
	}

	return nil
}

func record(ctx context.Context, log logger.Logger, opts Options, res *Result, start time.Time) {
	if opts.History == nil || !opts.History.Enabled() {
		return
	}

	entry := &history.Entry{
		RunID:        res.RunID,
		Source:       res.Source,
		AnalyzedAt:   start,
		Metrics:      res.Metrics,
		CPAPPressure: opts.CPAPPressure,
		ArtifactPath: res.ArtifactPath,
		PlotPath:     res.PlotPath,
	}
	if err := opts.History.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("run_id", res.RunID).Msg("Failed to record run history")
	}
}

func observe(c telemetry.Collector, res *Result, outcome telemetry.Outcome, start time.Time) {
	if c == nil {
		return
	}
	c.ObserveRun(telemetry.Run{
		Outcome:  outcome,
		Accepted: res.Accepted,
		Rejected: res.Rejected,
		Breaths:  int(res.Metrics.BreathCount),
		Apneas:   int(res.Metrics.ApneaCount),
		Elapsed:  time.Since(start),
	})
}
