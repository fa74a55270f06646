package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Synthetic tone generation for testing and for the
 *		command-line test-signal utility.
 *
 * Description:	A direct-digital-synthesis phase accumulator, same
 *		fixed-point-free idea as the teacher's gen_tone.go sine
 *		table + phase accumulator (tone_phase, sine_table) but in
 *		plain float64 radians instead of a quantized 256-entry
 *		table driven by a 32-bit fixed-point phase register — the
 *		teacher needed that quantization to hit an 8-bit/16-bit
 *		audio device's sample format in real time from C; this
 *		package only ever needs a []float32 buffer.
 *
 *------------------------------------------------------------------*/

import "math"

// Waveform selects the shape generated by a ToneGenerator.
type Waveform int

const (
	WaveformSine Waveform = iota
	WaveformSquare
	WaveformHarmonic // fundamental + 2nd and 3rd harmonics, decaying amplitude
)

// ToneGenerator produces a continuous synthetic signal at a fixed
// frequency and sample rate, for exercising resamplers, AGC, and
// pitch engines without real audio hardware.
type ToneGenerator struct {
	sampleRate float64
	freq       float64
	waveform   Waveform
	amplitude  float64
	phase      float64 // radians, wrapped to [0, 2*pi)
}

// NewToneGenerator returns a generator for freq Hz at sampleRate,
// amplitude in [0,1].
func NewToneGenerator(sampleRate, freq float64, waveform Waveform, amplitude float64) *ToneGenerator {
	return &ToneGenerator{
		sampleRate: sampleRate,
		freq:       freq,
		waveform:   waveform,
		amplitude:  amplitude,
	}
}

// Generate fills dst with the next len(dst) samples, advancing the
// phase accumulator across calls so consecutive calls produce a
// continuous waveform.
func (g *ToneGenerator) Generate(dst []float32) {
	step := 2 * math.Pi * g.freq / g.sampleRate
	for i := range dst {
		dst[i] = float32(g.amplitude * g.sample(g.phase))
		g.phase += step
		if g.phase >= 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}
}

func (g *ToneGenerator) sample(phase float64) float64 {
	switch g.waveform {
	case WaveformSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	case WaveformHarmonic:
		return math.Sin(phase) + 0.5*math.Sin(2*phase) + 0.25*math.Sin(3*phase)
	default:
		return math.Sin(phase)
	}
}

// Reset zeroes the phase accumulator, so the next Generate call starts
// a fresh cycle at phase 0.
func (g *ToneGenerator) Reset() {
	g.phase = 0
}

// AddNoise adds uniform noise of the given peak amplitude to every
// sample in dst, using the supplied source so callers control
// reproducibility (a fixed-seed math/rand.Rand for tests, crypto/rand
// sourced for anything else).
func AddNoise(dst []float32, amplitude float64, next func() float64) {
	for i := range dst {
		dst[i] += float32(amplitude * (2*next() - 1))
	}
}
