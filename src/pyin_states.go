package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Build the pYIN pitch-state grid: one unvoiced state plus
 *		voiced states uniformly spaced on a log-frequency (MIDI
 *		cents) grid between min_freq and max_freq.
 *
 * Description:	Every voiced state caches log2(freq) so the inner
 *		observation loop (pyin.go) never calls math.Log2 in the
 *		hot path — the same "precompute once, index in the hot
 *		loop" discipline the teacher's sin_table/cos_table in
 *		gen_tone.go uses for tone generation.
 *
 *------------------------------------------------------------------*/

import "math"

// pyinState is one state of the HMM: either the single unvoiced state
// or one voiced state on the MIDI grid.
type pyinState struct {
	voiced  bool
	freq    float64 // Hz; meaningless when !voiced
	log2Hz  float64 // cached log2(freq)
	midi    float64 // MIDI note number, cached for cents math
}

// pyinStateGrid is the ordered sequence of states: index 0 is always
// the unvoiced state, followed by voiced states in increasing
// frequency order.
type pyinStateGrid struct {
	states     []pyinState
	numVoiced  int
}

func midiFromFreq(f float64) float64 {
	return 69 + 12*math.Log2(f/440)
}

func freqFromMIDI(m float64) float64 {
	return 440 * math.Pow(2, (m-69)/12)
}

// newPitchStateGrid builds the grid described in spec.md section
// 4.7.1: voiced MIDI values span ceil(midi(min_freq)*steps)/steps up
// to midi(max_freq) inclusive, at increments of 1/steps semitones.
// Identical parameters always yield a byte-identical grid.
func newPitchStateGrid(minFreq, maxFreq float64, stepsPerSemitone int) *pyinStateGrid {
	steps := float64(stepsPerSemitone)
	startMIDI := math.Ceil(midiFromFreq(minFreq)*steps) / steps
	endMIDI := midiFromFreq(maxFreq)

	g := &pyinStateGrid{
		states: []pyinState{{voiced: false}},
	}
	for m := startMIDI; m <= endMIDI+1e-9; m += 1 / steps {
		f := freqFromMIDI(m)
		g.states = append(g.states, pyinState{
			voiced: true,
			freq:   f,
			log2Hz: math.Log2(f),
			midi:   m,
		})
	}
	g.numVoiced = len(g.states) - 1
	return g
}

func (g *pyinStateGrid) size() int { return len(g.states) }
