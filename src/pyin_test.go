package pitchtune

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pyinTestConfig() Config {
	return Config{
		FrameSize:        1024,
		SampleRate:       16000,
		MinFreq:          80,
		MaxFreq:          1000,
		StepsPerSemitone: 5,
		SwitchProb:       0.01,
		ThresholdBins:    50,
	}
}

func TestNewPYINEngine_rejectsBadSwitchProb(t *testing.T) {
	cfg := pyinTestConfig()
	cfg.SwitchProb = 1
	_, err := newPYINEngine(cfg)
	assert.Error(t, err)
}

func TestNewPYINEngine_rejectsTooFewThresholdBins(t *testing.T) {
	cfg := pyinTestConfig()
	cfg.ThresholdBins = 2
	_, err := newPYINEngine(cfg)
	assert.Error(t, err)
}

func TestPYINEngine_findPitchPanicsOnWrongFrameSize(t *testing.T) {
	e, err := newPYINEngine(pyinTestConfig())
	require.NoError(t, err)
	assert.Panics(t, func() {
		e.FindPitch(make([]float32, 10))
	})
}

func TestPYINEngine_nonFiniteFrameResetsAndYieldsNoPitch(t *testing.T) {
	cfg := pyinTestConfig()
	e, err := newPYINEngine(cfg)
	require.NoError(t, err)
	frame := make([]float32, cfg.FrameSize)
	frame[0] = float32(math.NaN())
	hz, clarity := e.FindPitch(frame)
	assert.Equal(t, float32(0), hz)
	assert.Equal(t, float32(0), clarity)
	assert.False(t, e.started)
}

func TestPYINEngine_detectsKnownToneAfterWarmup(t *testing.T) {
	cfg := pyinTestConfig()
	e, err := newPYINEngine(cfg)
	require.NoError(t, err)

	gen := NewToneGenerator(cfg.SampleRate, 220, WaveformSine, 0.8)
	frame := make([]float32, cfg.FrameSize)

	var hz float32
	for i := 0; i < 3; i++ {
		gen.Generate(frame)
		hz, _ = e.FindPitch(frame)
	}
	require.NotEqual(t, float32(0), hz)
	assert.InDelta(t, 220, hz, 8)
}

func TestPYINEngine_resetClearsStartedFlag(t *testing.T) {
	cfg := pyinTestConfig()
	e, err := newPYINEngine(cfg)
	require.NoError(t, err)
	frame := make([]float32, cfg.FrameSize)
	gen := NewToneGenerator(cfg.SampleRate, 220, WaveformSine, 0.8)
	gen.Generate(frame)
	e.FindPitch(frame)
	assert.True(t, e.started)
	e.Reset()
	assert.False(t, e.started)
}

func TestObservationLogLikelihoods_noCandidatesFavorsUnvoiced(t *testing.T) {
	grid := newPitchStateGrid(80, 1000, 5)
	dst := make([]float64, grid.size())
	observationLogLikelihoods(grid, nil, 0, dst)

	for i := 1; i < len(dst); i++ {
		assert.Greater(t, dst[0], dst[i])
	}
}

func TestObservationLogLikelihoods_favorsStateNearCandidate(t *testing.T) {
	grid := newPitchStateGrid(80, 1000, 5)
	cands := []pyinCandidate{{freq: 220, probability: 0.9}}
	dst := make([]float64, grid.size())
	observationLogLikelihoods(grid, cands, 1, dst)

	bestVoiced := 1
	for i := 2; i < len(dst); i++ {
		if dst[i] > dst[bestVoiced] {
			bestVoiced = i
		}
	}
	assert.InDelta(t, 220, grid.states[bestVoiced].freq, 5)
}
