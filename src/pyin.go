package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	pYIN: YIN's difference/CMNDF front end, threshold-
 *		distribution candidate weighting, and an online
 *		log-domain HMM Viterbi decoder over the pitch-state grid.
 *
 * Description:	The realtime decoder keeps exactly two length-S float
 *		buffers (current and next path log-probabilities) and
 *		swaps between them every frame — no per-frame allocation,
 *		same non-allocating-hot-loop discipline spec.md section
 *		4.4 demands of every engine and the teacher's own
 *		scratch-buffer-per-channel convention in demod.go (one
 *		demodulator_state_s per channel, reused for the life of
 *		the stream).
 *
 *------------------------------------------------------------------*/

import "math"

const pyinSigmaObsCents = 50.0
const pyinMaxCandidates = 100

// PYINEngine implements Engine using the algorithm in spec.md section
// 4.7.
type PYINEngine struct {
	n          int
	sampleRate float64
	minFreq    float64
	maxFreq    float64
	bins       int

	grid  *pyinStateGrid
	trans *pyinTransition

	d  []float64
	cm []float64

	troughs []pyinTrough
	probs   []float64
	cands   []pyinCandidate

	obs     []float64
	logV    []float64
	logVNxt []float64
	started bool
}

func newPYINEngine(cfg Config) (*PYINEngine, error) {
	steps := cfg.StepsPerSemitone
	if steps <= 0 {
		steps = 5
	}
	switchProb := cfg.SwitchProb
	if switchProb <= 0 {
		switchProb = 0.01
	}
	if switchProb < 0 || switchProb >= 1 {
		return nil, newConfigError("pYIN", "SwitchProb", "must be in [0,1)")
	}
	bins := cfg.ThresholdBins
	if bins <= 0 {
		bins = 50
	}
	if bins < 10 {
		return nil, newConfigError("pYIN", "ThresholdBins", "must be >= 10")
	}

	grid := newPitchStateGrid(cfg.MinFreq, cfg.MaxFreq, steps)
	trans := newPYINTransition(grid, switchProb)
	s := grid.size()

	return &PYINEngine{
		n:          cfg.FrameSize,
		sampleRate: cfg.SampleRate,
		minFreq:    cfg.MinFreq,
		maxFreq:    cfg.MaxFreq,
		bins:       bins,
		grid:       grid,
		trans:      trans,
		d:          make([]float64, cfg.FrameSize),
		cm:         make([]float64, cfg.FrameSize),
		troughs:    make([]pyinTrough, pyinMaxTroughs),
		probs:      make([]float64, pyinMaxTroughs),
		cands:      make([]pyinCandidate, pyinMaxCandidates),
		obs:        make([]float64, s),
		logV:       make([]float64, s),
		logVNxt:    make([]float64, s),
	}, nil
}

func (e *PYINEngine) FrameSize() int { return e.n }

func (e *PYINEngine) Reset() { e.started = false }

// observationLogLikelihoods fills dst (length grid.size()) with the
// per-state log-likelihood of the current frame's candidates, per
// spec.md section 4.7.3.
func observationLogLikelihoods(grid *pyinStateGrid, cands []pyinCandidate, count int, dst []float64) {
	var voicingMass float64
	for i := 0; i < count; i++ {
		voicingMass += cands[i].probability
	}
	if voicingMass > 1 {
		voicingMass = 1
	}
	dst[0] = math.Log(math.Max(1e-15, 1-voicingMass))

	const k = -1.0 / (2 * pyinSigmaObsCents * pyinSigmaObsCents)
	for s := 1; s < grid.size(); s++ {
		st := grid.states[s]
		if count == 0 {
			dst[s] = math.Log(1e-15)
			continue
		}
		best := math.Inf(-1)
		for i := 0; i < count; i++ {
			cents := 1200 * (math.Log2(cands[i].freq) - st.log2Hz)
			ll := math.Log(cands[i].probability) + cents*cents*k
			if ll > best {
				best = ll
			}
		}
		dst[s] = best
	}
}

func (e *PYINEngine) FindPitch(frame []float32) (float32, float32) {
	if len(frame) != e.n {
		panic((&ShapeError{Component: "pYIN", Want: e.n, Got: len(frame)}).Error())
	}
	if !allFinite(frame) {
		e.Reset()
		return 0, 0
	}

	differenceFunction(frame, e.d)
	cumulativeMeanNormalize(e.d, e.cm)

	count := extractCandidates(e.cm, e.sampleRate, e.minFreq, e.maxFreq, e.bins, e.troughs, e.probs, e.cands)
	observationLogLikelihoods(e.grid, e.cands, count, e.obs)

	e.step()

	best := 0
	for s := 1; s < len(e.logV); s++ {
		if e.logV[s] > e.logV[best] {
			best = s
		}
	}
	if !e.grid.states[best].voiced {
		return 0, 0
	}

	var sumVoiced, sumAll float64
	for s, v := range e.logV {
		p := math.Exp(v)
		sumAll += p
		if e.grid.states[s].voiced {
			sumVoiced += p
		}
	}
	clarity := 0.0
	if sumAll > 0 {
		clarity = sumVoiced / sumAll
	}

	hz := e.grid.states[best].freq
	if !validPitch(hz, e.sampleRate) {
		return 0, 0
	}
	return float32(hz), float32(clamp(clarity, 0, 1))
}

// step runs one online Viterbi update, per spec.md section 4.7.5.
func (e *PYINEngine) step() {
	s := len(e.logV)
	if !e.started {
		numVoiced := e.grid.numVoiced
		for i, st := range e.grid.states {
			if st.voiced {
				e.logV[i] = math.Log(0.5/float64(numVoiced)) + e.obs[i]
			} else {
				e.logV[i] = math.Log(0.5) + e.obs[i]
			}
		}
		e.started = true
	} else {
		for dst := 0; dst < s; dst++ {
			best := math.Inf(-1)
			for prev := 0; prev < s; prev++ {
				v := e.logV[prev] + e.trans.at(prev, dst)
				if v > best {
					best = v
				}
			}
			e.logVNxt[dst] = best + e.obs[dst]
		}
		e.logV, e.logVNxt = e.logVNxt, e.logV
	}

	maxV := math.Inf(-1)
	for _, v := range e.logV {
		if v > maxV {
			maxV = v
		}
	}
	for i := range e.logV {
		e.logV[i] -= maxV
	}
}
