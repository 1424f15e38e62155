package plot_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/cpapflow/internal/breath"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
	"codeberg.org/mutker/cpapflow/internal/plot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "night1_flow.csv"), plot.PathFor(filepath.Join("data", "night1.csv"), ""))
	assert.Equal(t, filepath.Join("out", "night1_flow.csv"), plot.PathFor(filepath.Join("data", "night1.csv"), "out"))
	assert.Equal(t, "raw_flow.csv", plot.PathFor("raw", ""))
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "night_flow.csv")
	s := flow.Series{
		Time: []float64{0, 0.1, 0.2},
		Flow: []float64{0, 3.5e-4, -1e-5},
	}

	require.NoError(t, plot.Write(path, s, []breath.Event{{Index: 1, Time: 0.1}}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"time_s", "flow_m3s", "breath"},
		{"0", "0", "0"},
		{"0.1", "0.00035", "1"},
		{"0.2", "-1e-05", "0"},
	}, rows)
}

func TestWriteMisaligned(t *testing.T) {
	err := plot.Write(filepath.Join(t.TempDir(), "x.csv"), flow.Series{Time: []float64{0}}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMisalignedSeries))
}

func TestWriteFailure(t *testing.T) {
	err := plot.Write(filepath.Join(t.TempDir(), "missing", "x.csv"), flow.Series{}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrArtifactWrite))
}
