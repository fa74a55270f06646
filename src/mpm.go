package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	McLeod Pitch Method (MPM): normalized square difference
 *		function (NSDF), peak picking, key-peak selection, and
 *		parabolic refinement.
 *
 * Description:	The NSDF's normalizer m(tau) is computed in O(N) from a
 *		running sum of squares rather than recomputed per lag —
 *		the same amortize-the-O(N^2)-into-O(N) trick the teacher
 *		leans on when it builds a filter kernel once at
 *		construction instead of per sample (dsp.go's gen_lowpass/
 *		gen_bandpass).
 *
 *------------------------------------------------------------------*/

import "math"

// mpmEngine implements Engine using the McLeod Pitch Method described
// in spec.md section 4.6.
type mpmEngine struct {
	n          int
	sampleRate float64
	thresholdK float64

	r        []float64 // autocorrelation, r(tau)
	m        []float64 // normalization factor, m(tau)
	nsdf     []float64 // NSDF, n(tau)
	sqPrefix []float64 // cumulative sum of squares, length n+1

	peaks    []mpmPeak // scratch for pickPeaks, capacity n/2+1
	numPeaks int
}

func newMPMEngine(cfg Config) (*mpmEngine, error) {
	k := cfg.MPMThresholdK
	if k <= 0 {
		k = 0.93
	}
	if k < 0 || k > 1 {
		return nil, newConfigError("MPM", "MPMThresholdK", "must be in [0,1]")
	}
	n := cfg.FrameSize
	return &mpmEngine{
		n:          n,
		sampleRate: cfg.SampleRate,
		thresholdK: k,
		r:          make([]float64, n),
		m:          make([]float64, n),
		nsdf:       make([]float64, n),
		sqPrefix:   make([]float64, n+1),
		peaks:      make([]mpmPeak, n/2+1),
	}, nil
}

func (e *mpmEngine) FrameSize() int { return e.n }
func (e *mpmEngine) Reset()         {}

// mpmPeak is a single picked local maximum of the NSDF.
type mpmPeak struct {
	lag   int
	value float64
}

func (e *mpmEngine) FindPitch(frame []float32) (float32, float32) {
	if len(frame) != e.n {
		panic((&ShapeError{Component: "MPM", Want: e.n, Got: len(frame)}).Error())
	}
	if !allFinite(frame) {
		return 0, 0
	}
	if rms(frame) < 1e-3 {
		return 0, 0
	}

	n := e.n
	e.sqPrefix[0] = 0
	for j := 0; j < n; j++ {
		f := float64(frame[j])
		e.sqPrefix[j+1] = e.sqPrefix[j] + f*f
	}

	for tau := 0; tau < n; tau++ {
		var acc float64
		for j := 0; j < n-tau; j++ {
			acc += float64(frame[j]) * float64(frame[j+tau])
		}
		e.r[tau] = acc

		headSq := e.sqPrefix[n-tau]            // sum_{j=0}^{n-1-tau} x[j]^2
		tailSq := e.sqPrefix[n] - e.sqPrefix[tau] // sum_{j=tau}^{n-1} x[j]^2
		e.m[tau] = headSq + tailSq

		if e.m[tau] == 0 {
			e.nsdf[tau] = 0
		} else {
			e.nsdf[tau] = 2 * e.r[tau] / e.m[tau]
		}
	}

	e.pickPeaks()
	if e.numPeaks == 0 {
		return 0, 0
	}
	peaks := e.peaks[:e.numPeaks]

	maxVal := peaks[0].value
	for _, p := range peaks[1:] {
		if p.value > maxVal {
			maxVal = p.value
		}
	}

	// The peak holding maxVal itself always satisfies value >= k*maxVal
	// (k <= 1), so this always finds a candidate before falling off
	// the end of peaks.
	chosen := peaks[0]
	for _, p := range peaks {
		if p.value >= e.thresholdK*maxVal {
			chosen = p
			break
		}
	}

	refined := parabolicInterpolate(e.nsdf, chosen.lag)
	offset := refined - float64(chosen.lag)
	if offset < -0.5 {
		offset = -0.5
	}
	if offset > 0.5 {
		offset = 0.5
	}
	refined = float64(chosen.lag) + offset
	if refined <= 0 {
		return 0, 0
	}

	hz := e.sampleRate / refined
	clarity := clamp(chosen.value, 0, 1)
	if !validPitch(hz, e.sampleRate) {
		return 0, 0
	}
	return float32(hz), float32(clarity)
}

// pickPeaks implements spec.md 4.6 step 4: skip the initial positive
// lobe at zero lag, skip the first negative region, then in each
// subsequent positive region record its single highest point provided
// it is also a strict local maximum relative to its immediate
// neighbors. Writes into e.peaks/e.numPeaks; no allocation.
func (e *mpmEngine) pickPeaks() {
	n := len(e.nsdf)
	e.numPeaks = 0

	tau := 0
	for tau < n && e.nsdf[tau] > 0 {
		tau++
	}
	for tau < n && e.nsdf[tau] <= 0 {
		tau++
	}

	for tau < n {
		regionStart := tau
		bestLag := -1
		bestVal := 0.0
		for tau < n && e.nsdf[tau] > 0 {
			if e.nsdf[tau] > bestVal || bestLag == -1 {
				bestVal = e.nsdf[tau]
				bestLag = tau
			}
			tau++
		}
		if bestLag >= regionStart && bestLag > 0 && bestLag < n-1 &&
			e.nsdf[bestLag] > e.nsdf[bestLag-1] && e.nsdf[bestLag] > e.nsdf[bestLag+1] {
			if e.numPeaks < len(e.peaks) {
				e.peaks[e.numPeaks] = mpmPeak{lag: bestLag, value: bestVal}
				e.numPeaks++
			}
		}
		for tau < n && e.nsdf[tau] <= 0 {
			tau++
		}
	}
}

func rms(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range frame {
		f := float64(s)
		sumSq += f * f
	}
	return math.Sqrt(sumSq / float64(len(frame)))
}
