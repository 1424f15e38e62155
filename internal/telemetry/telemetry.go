// Package telemetry exports batch run metrics in Prometheus text format.
package telemetry

import (
	"codeberg.org/mutker/cpapflow/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cpapflow"

type promCollector struct {
	path     string
	registry *prometheus.Registry
	analyses *prometheus.CounterVec
	accepted prometheus.Counter
	rejected prometheus.Counter
	breaths  prometheus.Counter
	apneas   prometheus.Counter
	elapsed  prometheus.Histogram
	lastRun  prometheus.Gauge
}

type noopCollector struct{}

// NewCollector returns a Prometheus backed collector, or a no-op one when
// cfg has no textfile path.
func NewCollector(cfg Config) (Collector, error) {
	if !cfg.Enabled() {
		return noopCollector{}, nil
	}

	c := &promCollector{
		path:     cfg.TextfilePath,
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Recordings analysed, by outcome.",
		}, []string{"outcome"}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_accepted_total",
			Help:      "Sensor rows that passed validation.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Sensor rows discarded as malformed.",
		}),
		breaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaths_detected_total",
			Help:      "Breaths accepted by the detector.",
		}),
		apneas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apnea_events_total",
			Help:      "Inter-breath gaps longer than the apnea threshold.",
		}),
		elapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time spent analysing one recording.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the most recent analysis.",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.analyses, c.accepted, c.rejected, c.breaths, c.apneas, c.elapsed, c.lastRun,
	} {
		if err := c.registry.Register(m); err != nil {
			return nil, errors.New().Wrap(ErrRegisterMetrics, err)
		}
	}

	return c, nil
}

func (c *promCollector) ObserveRun(run Run) {
	c.analyses.WithLabelValues(string(run.Outcome)).Inc()
	c.accepted.Add(float64(run.Accepted))
	c.rejected.Add(float64(run.Rejected))
	c.breaths.Add(float64(run.Breaths))
	c.apneas.Add(float64(run.Apneas))
	c.elapsed.Observe(run.Elapsed.Seconds())
	c.lastRun.SetToCurrentTime()
}

// Flush writes the registry to the textfile. The write is atomic.
func (c *promCollector) Flush() error {
	if err := prometheus.WriteToTextfile(c.path, c.registry); err != nil {
		return errors.New().Wrap(ErrWriteTextfile, err)
	}
	return nil
}

func (noopCollector) ObserveRun(Run) {}

func (noopCollector) Flush() error { return nil }
