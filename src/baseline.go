package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Baseline pitch estimator: plain normalized autocorrelation,
 *		no NSDF normalizer and no CMNDF detrending. The reference
 *		engine every other engine's registry entry is measured
 *		against.
 *
 * Description:	Deliberately the simplest engine in the registry — one
 *		autocorrelation buffer, a single peak search, parabolic
 *		refinement shared with YIN. Grounded the same way the
 *		teacher keeps multiple demodulator variants side by side
 *		(afsk demodulator alongside the 9600-baud one) so a change
 *		in one can be checked against the others' behavior.
 *
 *------------------------------------------------------------------*/

// baselineEngine implements Engine using plain normalized
// autocorrelation, per spec.md section 4.8.
type baselineEngine struct {
	n          int
	sampleRate float64
	minFreq    float64
	maxFreq    float64

	ac []float64 // raw autocorrelation, ac(tau)
}

func newBaselineEngine(cfg Config) (*baselineEngine, error) {
	return &baselineEngine{
		n:          cfg.FrameSize,
		sampleRate: cfg.SampleRate,
		minFreq:    cfg.MinFreq,
		maxFreq:    cfg.MaxFreq,
		ac:         make([]float64, cfg.FrameSize),
	}, nil
}

func (e *baselineEngine) FrameSize() int { return e.n }
func (e *baselineEngine) Reset()         {}

func (e *baselineEngine) FindPitch(frame []float32) (float32, float32) {
	if len(frame) != e.n {
		panic((&ShapeError{Component: "baseline", Want: e.n, Got: len(frame)}).Error())
	}
	if !allFinite(frame) || isSilent(frame) {
		return 0, 0
	}

	n := e.n
	tauMin := int(e.sampleRate / e.maxFreq)
	if tauMin < 1 {
		tauMin = 1
	}
	tauMax := int(e.sampleRate / e.minFreq)
	if tauMax > n-1 {
		tauMax = n - 1
	}
	if tauMax <= tauMin {
		return 0, 0
	}

	ac0 := autocorrelate(frame, 0)
	if ac0 == 0 {
		return 0, 0
	}
	e.ac[0] = 1
	for tau := 1; tau <= tauMax; tau++ {
		e.ac[tau] = autocorrelate(frame, tau) / ac0
	}

	best := -1
	bestVal := 0.0
	for tau := tauMin; tau <= tauMax; tau++ {
		if tau <= 0 || tau >= n-1 {
			continue
		}
		if e.ac[tau] < e.ac[tau-1] || e.ac[tau] < e.ac[tau+1] {
			continue
		}
		if best == -1 || e.ac[tau] > bestVal {
			best = tau
			bestVal = e.ac[tau]
		}
	}
	if best == -1 {
		return 0, 0
	}

	refined := parabolicInterpolate(e.ac[:tauMax+1], best)
	if refined <= 0 {
		return 0, 0
	}
	hz := e.sampleRate / refined
	clarity := clamp(bestVal, 0, 1)
	if !validPitch(hz, e.sampleRate) {
		return 0, 0
	}
	return float32(hz), float32(clarity)
}

// autocorrelate computes sum_{j=0}^{N-1-tau} x[j]*x[j+tau].
func autocorrelate(x []float32, tau int) float64 {
	var sum float64
	for j := 0; j < len(x)-tau; j++ {
		sum += float64(x[j]) * float64(x[j+tau])
	}
	return sum
}
