package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Classical YIN pitch estimator: difference function,
 *		cumulative mean normalized difference (CMNDF), threshold
 *		search, and parabolic refinement.
 *
 * Description:	The O(N^2) difference-function inner loop is the
 *		textbook cache-sensitive hot path in this whole package —
 *		same shape as the teacher's gen_lowpass/gen_bandpass FIR
 *		kernel builders in dsp.go: a tight double loop over plain
 *		float64 scratch, no allocation, written once at
 *		construction and run unchanged every frame.
 *
 *------------------------------------------------------------------*/

import "math"

// yinEngine implements Engine using the classical YIN algorithm
// described in spec.md section 4.5.
type yinEngine struct {
	n          int
	sampleRate float64
	threshold  float64

	d  []float64 // difference function, d(tau)
	cm []float64 // CMNDF, d'(tau)
}

func newYINEngine(cfg Config) (*yinEngine, error) {
	th := cfg.YINThreshold
	if th <= 0 {
		th = 0.15
	}
	if th < 0 || th > 1 {
		return nil, newConfigError("YIN", "YINThreshold", "must be in [0,1]")
	}
	return &yinEngine{
		n:          cfg.FrameSize,
		sampleRate: cfg.SampleRate,
		threshold:  th,
		d:          make([]float64, cfg.FrameSize),
		cm:         make([]float64, cfg.FrameSize),
	}, nil
}

func (e *yinEngine) FrameSize() int { return e.n }
func (e *yinEngine) Reset()         {}

// differenceFunction computes d(0)=0, d(tau) = sum_{j=0}^{N-1-tau} (x[j]-x[j+tau])^2
// for tau in [1,N), writing into dst (length N). O(N^2).
func differenceFunction(x []float32, dst []float64) {
	n := len(x)
	dst[0] = 0
	for tau := 1; tau < n; tau++ {
		var sum float64
		for j := 0; j < n-tau; j++ {
			diff := float64(x[j]) - float64(x[j+tau])
			sum += diff * diff
		}
		dst[tau] = sum
	}
}

// cumulativeMeanNormalize computes CMNDF from a difference function:
// d'(0)=1; for tau>=1, d'(tau) = d(tau) * tau / sum_{j=1}^{tau} d(j),
// or 1 if that running sum is 0.
func cumulativeMeanNormalize(d, dst []float64) {
	dst[0] = 1
	var running float64
	for tau := 1; tau < len(d); tau++ {
		running += d[tau]
		if running == 0 {
			dst[tau] = 1
			continue
		}
		dst[tau] = d[tau] * float64(tau) / running
	}
}

// yinThresholdSearch implements spec.md 4.5 step 3: starting at tau=2,
// advance until d'(tau) < threshold, then return the first tau from
// there where d'(tau) < d'(tau+1) (a local minimum). Returns -1 if no
// candidate is found.
func yinThresholdSearch(cm []float64, threshold float64) int {
	n := len(cm)
	for tau := 2; tau < n; tau++ {
		if cm[tau] >= threshold {
			continue
		}
		for tau+1 < n && cm[tau+1] < cm[tau] {
			tau++
		}
		return tau
	}
	return -1
}

// parabolicInterpolate fits a parabola through (t-1,y[t-1]), (t,y[t]),
// (t+1,y[t+1]) and returns the sub-sample location of its vertex (a
// minimum or a maximum, depending on the curvature). It returns t
// itself when t has no neighbor on one side, the three points are
// collinear, or the vertex lies more than one sample from t.
func parabolicInterpolate(y []float64, t int) float64 {
	if t <= 0 || t >= len(y)-1 {
		return float64(t)
	}
	y0, y1, y2 := y[t-1], y[t], y[t+1]
	denom := y0 + y2 - 2*y1
	if denom == 0 {
		return float64(t)
	}
	shift := 0.5 * (y0 - y2) / denom
	if shift < -1 || shift > 1 {
		return float64(t)
	}
	return float64(t) + shift
}

func (e *yinEngine) FindPitch(frame []float32) (float32, float32) {
	if len(frame) != e.n {
		panic((&ShapeError{Component: "YIN", Want: e.n, Got: len(frame)}).Error())
	}
	if !allFinite(frame) || isSilent(frame) {
		return 0, 0
	}

	differenceFunction(frame, e.d)
	cumulativeMeanNormalize(e.d, e.cm)

	tau := yinThresholdSearch(e.cm, e.threshold)
	if tau < 0 {
		return 0, 0
	}

	refined := parabolicInterpolate(e.cm, tau)
	if refined <= 0 {
		return 0, 0
	}
	hz := e.sampleRate / refined
	clarity := 1 - e.cm[tau]
	if clarity < 0 {
		clarity = 0
	}
	if clarity > 1 {
		clarity = 1
	}
	if !validPitch(hz, e.sampleRate) {
		return 0, 0
	}
	return float32(hz), float32(clarity)
}

// allFinite reports whether every sample is finite.
func allFinite(frame []float32) bool {
	for _, s := range frame {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// isSilent reports whether a frame is exactly all-zero.
func isSilent(frame []float32) bool {
	for _, s := range frame {
		if s != 0 {
			return false
		}
	}
	return true
}

// validPitch reports whether hz is a valid voiced-pitch postcondition:
// finite and in (0, fs/2).
func validPitch(hz, sampleRate float64) bool {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return false
	}
	return hz > 0 && hz < sampleRate/2
}
