package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"codeberg.org/mutker/cpapflow/internal/config"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/history"
	"codeberg.org/mutker/cpapflow/internal/logger"
	"codeberg.org/mutker/cpapflow/internal/pipeline"
	"codeberg.org/mutker/cpapflow/internal/telemetry"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

const (
	exitOK      = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitFailure
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.LogLevel.String(),
		File:    cfg.LogFile,
		Service: logger.IsService(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer logger.Close()
	logger.Debug().Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	switch cfg.Command {
	case config.CommandHistory:
		return listHistory(ctx, cfg)
	default:
		return analyze(ctx, cfg)
	}
}

func analyze(ctx context.Context, cfg *config.Config) int {
	if len(cfg.Files) == 0 {
		fmt.Fprintln(os.Stderr, "no input files given")
		return exitFailure
	}

	recorder, err := history.NewService(history.Config{
		DBPath:  cfg.HistoryDB,
		Enabled: cfg.History,
	}, logger.Get())
	if err != nil {
		logError(err, "Failed to open run history")
		return exitFailure
	}

	collector, err := telemetry.NewCollector(telemetry.Config{TextfilePath: cfg.MetricsTextfile})
	if err != nil {
		recorder.Close()
		logError(err, "Failed to initialize telemetry")
		return exitFailure
	}

	opts := pipeline.Options{
		Detector:     cfg.Detector.Params(),
		OutputDir:    cfg.OutputDir,
		PlotData:     cfg.PlotData,
		CPAPPressure: cfg.CPAPPressure,
		History:      recorder,
		Telemetry:    collector,
		Log:          logger.Get(),
	}

	failed := runBatch(ctx, cfg.Files, cfg.Jobs, opts)

	if err := multierr.Combine(collector.Flush(), recorder.Close()); err != nil {
		for _, e := range multierr.Errors(err) {
			logError(e, "Shutdown failed")
		}
		failed++
	}

	if failed > 0 {
		logger.Error().Int("failed", failed).Int("total", len(cfg.Files)).Msg("Some recordings could not be processed")
		return exitFailure
	}
	return exitOK
}

// runBatch analyses files with at most jobs in flight and returns how many
// failed or could not publish their artifacts.
func runBatch(ctx context.Context, files []string, jobs int, opts pipeline.Options) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	sem := make(chan struct{}, jobs)
	for _, path := range files {
		select {
		case <-ctx.Done():
			mu.Lock()
			failed++
			mu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := pipeline.Analyze(ctx, path, opts)
			if err == nil && res.WriteErr == nil {
				return
			}
			if err != nil {
				logError(err, "Analysis failed")
			}

			mu.Lock()
			failed++
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	return failed
}

func listHistory(ctx context.Context, cfg *config.Config) int {
	recorder, err := history.NewService(history.Config{
		DBPath:  cfg.HistoryDB,
		Enabled: true,
	}, logger.Get())
	if err != nil {
		logError(err, "Failed to open run history")
		return exitFailure
	}
	defer recorder.Close()

	entries, err := recorder.Recent(ctx, cfg.Limit)
	if err != nil {
		logError(err, "Failed to list run history")
		return exitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ANALYZED\tSOURCE\tDURATION_S\tBREATHS\tBPM\tAPNEAS\tLEAKAGE_L\tCPAP\tRUN_ID")
	for _, e := range entries {
		cpap := "-"
		if e.CPAPPressure > 0 {
			cpap = fmt.Sprintf("%d", e.CPAPPressure)
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%.2f\t%d\t%.3f\t%s\t%s\n",
			e.AnalyzedAt.Local().Format(time.RFC3339),
			e.Source,
			e.Metrics.Duration,
			e.Metrics.BreathCount,
			e.Metrics.BreathRateBPM,
			e.Metrics.ApneaCount,
			e.Metrics.Leakage,
			cpap,
			e.RunID,
		)
	}
	if err := w.Flush(); err != nil {
		logger.Error().Err(err).Msg("Failed to write history listing")
		return exitFailure
	}

	return exitOK
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logError(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}
