package pitchtune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_dispatchesToEachAlgorithm(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmYIN, AlgorithmMPM, AlgorithmPYIN, AlgorithmBaseline} {
		cfg := DefaultConfig(alg, 16000)
		e, err := NewEngine(cfg)
		require.NoError(t, err, "algorithm %s", alg)
		assert.Equal(t, cfg.FrameSize, e.FrameSize())
	}
}

func TestNewEngine_rejectsUnknownAlgorithm(t *testing.T) {
	cfg := DefaultConfig(Algorithm("not-a-thing"), 16000)
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestNewEngine_rejectsFrameSizeTooSmall(t *testing.T) {
	cfg := DefaultConfig(AlgorithmYIN, 16000)
	cfg.FrameSize = 64
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestNewEngine_rejectsNonPositiveSampleRate(t *testing.T) {
	cfg := DefaultConfig(AlgorithmYIN, 0)
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestNewEngine_rejectsInvertedFreqRange(t *testing.T) {
	cfg := DefaultConfig(AlgorithmYIN, 16000)
	cfg.MinFreq, cfg.MaxFreq = 1000, 80
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestNewEngine_resetIsNoopForStatelessEngines(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmYIN, AlgorithmMPM, AlgorithmBaseline} {
		e, err := NewEngine(DefaultConfig(alg, 16000))
		require.NoError(t, err)
		assert.NotPanics(t, e.Reset)
	}
}

// TestEngines_agreeOnASteadyToneAcrossAlgorithms exercises the end to
// end scenario from spec.md section 8: a steady 220 Hz tone should be
// recognized as roughly the same pitch by every algorithm in the
// registry.
func TestEngines_agreeOnASteadyToneAcrossAlgorithms(t *testing.T) {
	const sampleRate = 16000.0
	const freq = 220.0

	for _, alg := range []Algorithm{AlgorithmYIN, AlgorithmMPM, AlgorithmBaseline} {
		cfg := DefaultConfig(alg, sampleRate)
		e, err := NewEngine(cfg)
		require.NoError(t, err, "algorithm %s", alg)

		gen := NewToneGenerator(sampleRate, freq, WaveformSine, 0.8)
		frame := make([]float32, cfg.FrameSize)
		gen.Generate(frame)

		hz, _ := e.FindPitch(frame)
		assert.InDelta(t, freq, hz, 3.0, "algorithm %s", alg)
	}

	pCfg := DefaultConfig(AlgorithmPYIN, sampleRate)
	pe, err := NewEngine(pCfg)
	require.NoError(t, err)
	gen := NewToneGenerator(sampleRate, freq, WaveformSine, 0.8)
	frame := make([]float32, pCfg.FrameSize)
	var hz float32
	for i := 0; i < 3; i++ {
		gen.Generate(frame)
		hz, _ = pe.FindPitch(frame)
	}
	assert.InDelta(t, freq, hz, 8.0)
}
