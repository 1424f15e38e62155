package leakage_test

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
	"codeberg.org/mutker/cpapflow/internal/leakage"
	"codeberg.org/mutker/cpapflow/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrateZeroFlow(t *testing.T) {
	got, err := leakage.Integrate(flow.Series{
		Time: []float64{0, 1, 2, 3},
		Flow: []float64{0, 0, 0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestIntegrateLeftRectangle(t *testing.T) {
	got, err := leakage.Integrate(flow.Series{
		Time: []float64{0, 1, 3, 4},
		Flow: []float64{1e-3, 2e-3, -1e-3, 5},
	})
	require.NoError(t, err)
	// (1e-3*1 + 2e-3*2 - 1e-3*1) m^3; the last sample has no interval
	assert.InDelta(t, 4.0, got, 1e-9)
}

func TestIntegrateNegative(t *testing.T) {
	got, err := leakage.Integrate(flow.Series{
		Time: []float64{0, 2, 4},
		Flow: []float64{-1e-3, -1e-3, 0},
	})
	require.NoError(t, err)
	assert.InDelta(t, -4.0, got, 1e-9)
}

// logEntries captures JSON log output for the duration of fn.
func logEntries(t *testing.T, fn func()) []map[string]any {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cpapflow.log")
	require.NoError(t, logger.Init(logger.Options{Level: "info", File: path, Writer: io.Discard}))
	t.Cleanup(func() {
		_ = logger.Close()
		_ = logger.Init(logger.Options{Level: "error", Writer: io.Discard})
	})

	fn()
	require.NoError(t, logger.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestIntegrateNegativeLogsWarning(t *testing.T) {
	entries := logEntries(t, func() {
		_, err := leakage.Integrate(flow.Series{
			Time: []float64{0, 2, 4},
			Flow: []float64{-1e-3, -1e-3, 0},
		})
		require.NoError(t, err)
	})

	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "Negative leakage detected", entries[0]["message"])
	assert.InDelta(t, -4.0, entries[0]["leakage_l"], 1e-9)
}

func TestIntegratePositiveIsQuiet(t *testing.T) {
	entries := logEntries(t, func() {
		_, err := leakage.Integrate(flow.Series{
			Time: []float64{0, 1},
			Flow: []float64{1e-3, 0},
		})
		require.NoError(t, err)
	})

	assert.Empty(t, entries)
}

func TestIntegrateShortSeries(t *testing.T) {
	got, err := leakage.Integrate(flow.Series{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = leakage.Integrate(flow.Series{Time: []float64{1}, Flow: []float64{1}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestIntegrateMisaligned(t *testing.T) {
	_, err := leakage.Integrate(flow.Series{Time: []float64{0, 1}, Flow: []float64{0}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMisalignedSeries))
}
