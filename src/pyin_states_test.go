package pitchtune

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidiFreqRoundTrip(t *testing.T) {
	for _, f := range []float64{55, 110, 220, 440, 880} {
		m := midiFromFreq(f)
		assert.InDelta(t, f, freqFromMIDI(m), 1e-9)
	}
}

func TestMidiFromFreq_a440IsMidi69(t *testing.T) {
	assert.InDelta(t, 69, midiFromFreq(440), 1e-9)
}

func TestNewPitchStateGrid_firstStateIsUnvoiced(t *testing.T) {
	g := newPitchStateGrid(80, 1000, 5)
	assert.False(t, g.states[0].voiced)
	assert.Equal(t, g.size()-1, g.numVoiced)
}

func TestNewPitchStateGrid_voicedStatesIncreaseInFrequency(t *testing.T) {
	g := newPitchStateGrid(80, 1000, 5)
	for i := 2; i < g.size(); i++ {
		assert.Greater(t, g.states[i].freq, g.states[i-1].freq)
	}
}

func TestNewPitchStateGrid_spansRequestedRange(t *testing.T) {
	g := newPitchStateGrid(100, 800, 10)
	first := g.states[1]
	last := g.states[g.size()-1]
	assert.GreaterOrEqual(t, first.freq, 100.0)
	assert.LessOrEqual(t, last.freq, 800.0*math.Pow(2, 1.0/10/2))
}

func TestNewPitchStateGrid_deterministic(t *testing.T) {
	a := newPitchStateGrid(80, 1000, 5)
	b := newPitchStateGrid(80, 1000, 5)
	assert.Equal(t, a.size(), b.size())
	for i := range a.states {
		assert.Equal(t, a.states[i], b.states[i])
	}
}

func TestNewPitchStateGrid_finerStepsYieldMoreStates(t *testing.T) {
	coarse := newPitchStateGrid(80, 1000, 5)
	fine := newPitchStateGrid(80, 1000, 10)
	assert.Greater(t, fine.size(), coarse.size())
}
