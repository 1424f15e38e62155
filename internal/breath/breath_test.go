package breath_test

import (
	"testing"

	"codeberg.org/mutker/cpapflow/internal/breath"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cycleLen = 60

// cycle is one clean breath: rise to amp at offset 2, fall through zero into
// expiration and settle at zero.
func cycle(amp float64) []float64 {
	c := make([]float64, cycleLen)
	copy(c, []float64{0, amp / 2, amp, amp / 2, -amp / 4, -amp / 2, -amp / 4})
	return c
}

func signal(amps ...float64) []float64 {
	var x []float64
	for _, a := range amps {
		x = append(x, cycle(a)...)
	}
	return x
}

func series(x []float64, dt float64) flow.Series {
	s := flow.Series{Flow: x, Time: make([]float64, len(x))}
	for i := range x {
		s.Time[i] = float64(i) * dt
	}
	return s
}

func TestFindPeaksThresholds(t *testing.T) {
	p := breath.DefaultParams()

	assert.Empty(t, breath.FindPeaks(nil, p))
	assert.Empty(t, breath.FindPeaks([]float64{1, 2}, p))
	assert.Empty(t, breath.FindPeaks(make([]float64, 100), p))

	// below minimum height
	assert.Empty(t, breath.FindPeaks(signal(1e-4), p))

	assert.Equal(t, []int{2, 62}, breath.FindPeaks(signal(1e-3, 1e-3), p))
}

func TestFindPeaksPlateauUsesFirstSample(t *testing.T) {
	x := make([]float64, 20)
	x[3], x[4], x[5] = 1e-3, 1e-3, 1e-3

	assert.Equal(t, []int{3}, breath.FindPeaks(x, breath.DefaultParams()))
}

func TestFindPeaksDistanceKeepsHigher(t *testing.T) {
	x := make([]float64, 100)
	x[10] = 1e-3
	x[30] = 2e-3
	x[80] = 1e-3

	assert.Equal(t, []int{30, 80}, breath.FindPeaks(x, breath.DefaultParams()))

	// equal heights keep the earlier one
	x[30] = 1e-3
	assert.Equal(t, []int{10, 80}, breath.FindPeaks(x, breath.DefaultParams()))
}

func TestFindPeaksProminence(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = 1e-3
	}
	x[50] = 1.2e-3 // rises only 2e-4 above its surroundings

	assert.Empty(t, breath.FindPeaks(x, breath.DefaultParams()))

	x[50] = 1.3e-3
	assert.Equal(t, []int{50}, breath.FindPeaks(x, breath.DefaultParams()))
}

func TestFilterCycles(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		assert.Empty(t, breath.FilterCycles([]float64{0, 1, 0}, nil))
	})

	t.Run("single candidate followed by zero", func(t *testing.T) {
		x := []float64{0, 1, 0.5, 0, 0}
		assert.Equal(t, []int{1}, breath.FilterCycles(x, []int{1}))
	})

	t.Run("single candidate never returning to zero", func(t *testing.T) {
		x := []float64{0, 1, 0.5, -0.5, -0.5}
		assert.Empty(t, breath.FilterCycles(x, []int{1}))
	})

	t.Run("zero only at the final sample", func(t *testing.T) {
		x := []float64{0, 1, 0.5, 0.2, 0}
		assert.Empty(t, breath.FilterCycles(x, []int{1}))
	})

	t.Run("negative excursion between peaks", func(t *testing.T) {
		x := []float64{0, 1, 0.5, -0.2, 0.5, 1, 0.5, 0, 0}
		assert.Equal(t, []int{1, 5}, breath.FilterCycles(x, []int{1, 5}))
	})

	t.Run("intra breath bump is dropped", func(t *testing.T) {
		x := []float64{0, 1, 0.5, 0.3, 0.5, 1, 0.5, 0, 0}
		assert.Equal(t, []int{5}, breath.FilterCycles(x, []int{1, 5}))
	})

	t.Run("cycle must start after the peak", func(t *testing.T) {
		x := []float64{0, 1, 0, 0, 0.5, 1, 0.5, 0, 0}
		assert.Equal(t, []int{5}, breath.FilterCycles(x, []int{1, 5}))
	})
}

func TestDetect(t *testing.T) {
	s := series(signal(1e-3, 2e-3, 1.5e-3), 0.1)

	events, err := breath.Detect(s, breath.DefaultParams())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, 2, events[0].Index)
	assert.InDelta(t, 0.2, events[0].Time, 1e-9)
	assert.Equal(t, 122, events[2].Index)
	assert.Equal(t, []float64{events[0].Time, events[1].Time, events[2].Time}, breath.Times(events))
}

func TestDetectSecondaryBump(t *testing.T) {
	x := make([]float64, 150)
	x[9], x[10], x[11] = 5e-4, 1e-3, 5e-4
	for i := 12; i < 69; i++ {
		x[i] = 2e-4
	}
	x[69], x[70], x[71] = 5e-4, 1e-3, 5e-4

	events, err := breath.Detect(series(x, 0.1), breath.DefaultParams())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 70, events[0].Index)
}

func TestDetectEmptyAndFlat(t *testing.T) {
	events, err := breath.Detect(flow.Series{}, breath.DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = breath.Detect(series(make([]float64, 4), 1), breath.DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDetectRejectsBadInput(t *testing.T) {
	_, err := breath.Detect(flow.Series{Time: []float64{0}}, breath.DefaultParams())
	assert.True(t, errors.HasCode(err, errors.ErrMisalignedSeries))

	_, err = breath.Detect(flow.Series{}, breath.Params{Distance: 0})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidDetector))
}

func TestBreathCountMonotonicInHeight(t *testing.T) {
	s := series(signal(1.2e-4, 8e-4, 3e-4, 2e-3, 5e-4, 1.5e-4, 1e-3), 0.1)

	prev := -1
	for _, h := range []float64{3e-3, 1.5e-3, 9e-4, 6e-4, 4e-4, 2e-4, 1.1e-4, 5e-5, 0} {
		p := breath.DefaultParams()
		p.Height = h
		p.Prominence = 0

		events, err := breath.Detect(s, p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(events), prev, "height %g", h)
		prev = len(events)
	}
	assert.Equal(t, 7, prev)
}
