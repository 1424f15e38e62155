package telemetry

// Config controls where run metrics are exported.
type Config struct {
	// TextfilePath receives the metrics in Prometheus text format on Flush,
	// typically inside a node_exporter textfile collector directory. Empty
	// disables telemetry.
	TextfilePath string
}

func (c Config) Enabled() bool {
	return c.TextfilePath != ""
}
