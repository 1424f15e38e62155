package flow_test

import (
	"math"
	"testing"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
	"codeberg.org/mutker/cpapflow/internal/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestADCToPascal(t *testing.T) {
	assert.Equal(t, 0.0, flow.ADCToPascal(1638))
	assert.InDelta(t, 25.4*98.0665, flow.ADCToPascal(14745), 1e-9)
	assert.Less(t, flow.ADCToPascal(0), 0.0)

	prev := flow.ADCToPascal(-100)
	for code := int32(-99); code <= 20000; code += 7 {
		cur := flow.ADCToPascal(code)
		require.Greater(t, cur, prev, "code %d", code)
		prev = cur
	}
}

func TestADCCode(t *testing.T) {
	code, err := flow.ADCCode(1700)
	require.NoError(t, err)
	assert.Equal(t, int32(1700), code)

	code, err = flow.ADCCode(-5)
	require.NoError(t, err)
	assert.Equal(t, int32(-5), code)

	for _, v := range []float64{1700.5, 1e12, -1e12} {
		_, err := flow.ADCCode(v)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrInvalidADC))
	}
}

func TestRate(t *testing.T) {
	q, err := flow.Rate(10, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, q)

	// A1 * sqrt((2/1.199) * 100 / ((15/12)^4 - 1))
	a1 := math.Pi * 0.0075 * 0.0075
	want := a1 * math.Sqrt((2/1.199)*100/(math.Pow(15.0/12.0, 4)-1))
	q, err = flow.Rate(150, 50)
	require.NoError(t, err)
	assert.InDelta(t, want, q, 1e-12)

	_, err = flow.Rate(49.9, 50)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrFlowDomain))
}

func TestSigned(t *testing.T) {
	q, err := flow.Signed(0, 100, 20)
	require.NoError(t, err)
	assert.Greater(t, q, 0.0)

	q, err = flow.Signed(0, 20, 100)
	require.NoError(t, err)
	assert.Less(t, q, 0.0)

	expected, err := flow.Rate(100, 0)
	require.NoError(t, err)
	assert.Equal(t, -expected, q)

	// equal upstream pressures take the inspiratory branch
	q, err = flow.Signed(0, 50, 50)
	require.NoError(t, err)
	assert.Greater(t, q, 0.0)

	_, err = flow.Signed(100, 50, 20)
	require.Error(t, err)
	_, err = flow.Signed(100, 20, 50)
	require.Error(t, err)
}

func row(line int, time, constriction, ins, exp float64) recording.RawRecord {
	return recording.RawRecord{Line: line, Fields: [recording.FieldCount]float64{time, constriction, ins, exp}}
}

func TestCompute(t *testing.T) {
	s, err := flow.Compute([]recording.RawRecord{
		row(2, 0, 1638, 1638, 1638),
		row(3, 0.5, 1638, 1658, 1638),
		row(4, 1.0, 1638, 1638, 1658),
	})
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, []float64{0, 0.5, 1.0}, s.Time)
	assert.Equal(t, 0.0, s.Flow[0])
	assert.Greater(t, s.Flow[1], 0.0)
	assert.Equal(t, -s.Flow[1], s.Flow[2])
	assert.Equal(t, 1.0, s.Duration())
}

func TestComputeReportsOffendingRecord(t *testing.T) {
	_, err := flow.Compute([]recording.RawRecord{
		row(2, 0, 1638, 1638, 1638),
		row(4, 0.1, 1700, 1650, 1640),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrFlowDomain))

	var e errors.Error
	require.True(t, errors.As(err, &e))
	rerr, ok := e.GetData().(flow.RecordError)
	require.True(t, ok)
	assert.Equal(t, 1, rerr.Index)
	assert.Equal(t, 4, rerr.Line)
	assert.Contains(t, err.Error(), "record 1 (line 4)")
}

func TestComputeRejectsFractionalADC(t *testing.T) {
	_, err := flow.Compute([]recording.RawRecord{row(2, 0, 1638.5, 1638, 1638)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidADC))
}

func TestSeriesValidate(t *testing.T) {
	assert.NoError(t, flow.Series{}.Validate())
	assert.Equal(t, 0.0, flow.Series{}.Duration())

	err := flow.Series{Time: []float64{0, 1}, Flow: []float64{0}}.Validate()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMisalignedSeries))
}
