package pitchtune

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDifferenceFunction_zeroAtOrigin(t *testing.T) {
	x := []float32{0.1, -0.2, 0.3, -0.4, 0.5}
	d := make([]float64, len(x))
	differenceFunction(x, d)
	assert.Equal(t, 0.0, d[0])
}

func TestDifferenceFunction_zeroForPeriodicSignal(t *testing.T) {
	period := 10
	x := make([]float32, period*4)
	for i := range x {
		x[i] = float32(math.Sin(2 * math.Pi * float64(i%period) / float64(period)))
	}
	d := make([]float64, len(x))
	differenceFunction(x, d)
	assert.InDelta(t, 0, d[period], 1e-6)
	assert.InDelta(t, 0, d[2*period], 1e-6)
}

func TestCumulativeMeanNormalize_oneAtOrigin(t *testing.T) {
	d := []float64{0, 1, 2, 3, 4}
	cm := make([]float64, len(d))
	cumulativeMeanNormalize(d, cm)
	assert.Equal(t, 1.0, cm[0])
}

func TestCumulativeMeanNormalize_handlesZeroRunningSum(t *testing.T) {
	d := []float64{0, 0, 0}
	cm := make([]float64, len(d))
	cumulativeMeanNormalize(d, cm)
	assert.Equal(t, 1.0, cm[1])
	assert.Equal(t, 1.0, cm[2])
}

func TestYinThresholdSearch_findsFirstLocalMinimumBelowThreshold(t *testing.T) {
	cm := []float64{1, 0.9, 0.8, 0.05, 0.02, 0.1, 0.3}
	tau := yinThresholdSearch(cm, 0.15)
	assert.Equal(t, 4, tau)
}

func TestYinThresholdSearch_returnsNegativeOneWhenNoneFound(t *testing.T) {
	cm := []float64{1, 0.9, 0.8, 0.95}
	assert.Equal(t, -1, yinThresholdSearch(cm, 0.1))
}

func TestParabolicInterpolate_clampsAtEdges(t *testing.T) {
	y := []float64{1, 2, 3}
	assert.Equal(t, 0.0, parabolicInterpolate(y, 0))
	assert.Equal(t, 2.0, parabolicInterpolate(y, 2))
}

func TestParabolicInterpolate_flatDenomReturnsT(t *testing.T) {
	y := []float64{1, 1, 1}
	assert.Equal(t, 1.0, parabolicInterpolate(y, 1))
}

func TestParabolicInterpolate_symmetricMinimumIsExact(t *testing.T) {
	y := []float64{2, 0, 2}
	assert.InDelta(t, 1.0, parabolicInterpolate(y, 1), 1e-9)
}

func TestYINEngine_findPitchPanicsOnWrongFrameSize(t *testing.T) {
	e, err := newYINEngine(Config{FrameSize: 256, SampleRate: 16000, YINThreshold: 0.15})
	require.NoError(t, err)
	assert.Panics(t, func() {
		e.FindPitch(make([]float32, 10))
	})
}

func TestYINEngine_rejectsBadThreshold(t *testing.T) {
	_, err := newYINEngine(Config{FrameSize: 1024, SampleRate: 16000, YINThreshold: 1.5})
	assert.Error(t, err)
}

func TestYINEngine_silenceYieldsNoPitch(t *testing.T) {
	e, err := newYINEngine(Config{FrameSize: 1024, SampleRate: 16000, YINThreshold: 0.15})
	require.NoError(t, err)
	hz, clarity := e.FindPitch(make([]float32, 1024))
	assert.Equal(t, float32(0), hz)
	assert.Equal(t, float32(0), clarity)
}

func TestYINEngine_detectsKnownToneWithinATolerance(t *testing.T) {
	const sampleRate = 16000.0
	const freq = 220.0
	e, err := newYINEngine(Config{FrameSize: 1024, SampleRate: sampleRate, YINThreshold: 0.15})
	require.NoError(t, err)

	gen := NewToneGenerator(sampleRate, freq, WaveformSine, 0.8)
	frame := make([]float32, 1024)
	gen.Generate(frame)

	hz, clarity := e.FindPitch(frame)
	require.NotEqual(t, float32(0), hz)
	assert.InDelta(t, freq, hz, 2.0)
	assert.Greater(t, clarity, float32(0.5))
}

func TestYINEngine_nonFiniteFrameYieldsNoPitch(t *testing.T) {
	e, err := newYINEngine(Config{FrameSize: 64, SampleRate: 16000, YINThreshold: 0.15})
	require.NoError(t, err)
	frame := make([]float32, 64)
	frame[10] = float32(math.NaN())
	hz, clarity := e.FindPitch(frame)
	assert.Equal(t, float32(0), hz)
	assert.Equal(t, float32(0), clarity)
}

func TestYINEngine_neverPanicsOnRandomFrames(t *testing.T) {
	e, err := newYINEngine(Config{FrameSize: 128, SampleRate: 16000, YINThreshold: 0.15})
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		frame := make([]float32, 128)
		for i := range frame {
			frame[i] = float32(rapid.Float64Range(-1, 1).Draw(t, "s"))
		}
		hz, clarity := e.FindPitch(frame)
		assert.False(t, math.IsNaN(float64(hz)))
		assert.GreaterOrEqual(t, clarity, float32(0))
		assert.LessOrEqual(t, clarity, float32(1))
	})
}
