package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Stateful windowed-sinc resampler, decimating (or, in
 *		general, converting) an arbitrary device sample rate to
 *		the fixed internal analysis rate.
 *
 * Description:	Acts as an ideal low-pass anti-alias filter evaluated
 *		directly at the output sample instants (a polyphase-less
 *		direct-form implementation — fine for the frame rates
 *		this package cares about; a production resampler
 *		wanting to run on a slower device would precompute a
 *		polyphase filter bank instead). Kernel shape follows the
 *		same sinc * window construction the teacher's
 *		gen_lowpass used for its FIR prefilters, just evaluated
 *		at a non-integer ratio instead of baked into fixed taps.
 *
 *		Chunking must not matter: the concatenation of outputs
 *		from processing a stream in arbitrary pieces equals,
 *		up to numerical error, processing the whole stream at
 *		once. That is why the last 2*K input samples survive
 *		between calls in 'history' — the kernel can look back
 *		across a chunk boundary exactly as it would if the
 *		boundary were not there.
 *
 *------------------------------------------------------------------*/

import "math"

// DefaultKernelRadius is the number of input samples the sinc kernel
// looks in each direction; spec.md fixes this at 32.
const DefaultKernelRadius = 32

// Resampler is a streaming, arbitrary-ratio windowed-sinc low-pass
// resampler. It is not safe for concurrent use; per the concurrency
// model in spec.md section 5, the callback thread owns it exclusively.
type Resampler struct {
	inRate, outRate float64
	ratio           float64 // outRate / inRate
	fc              float64 // normalized cutoff, ratio/2
	kernelRadius    int

	history  []float64 // last 2*kernelRadius input samples seen so far
	inputPos float64   // continuous cursor into the input stream, in input samples
}

// NewResampler constructs a resampler converting inRate Hz to outRate
// Hz. kernelRadius defaults to DefaultKernelRadius when 0 is passed.
func NewResampler(inRate, outRate int, kernelRadius int) (*Resampler, error) {
	if inRate <= 0 {
		return nil, newConfigError("Resampler", "inRate", "must be positive")
	}
	if outRate <= 0 {
		return nil, newConfigError("Resampler", "outRate", "must be positive")
	}
	if kernelRadius == 0 {
		kernelRadius = DefaultKernelRadius
	}
	if kernelRadius < 1 {
		return nil, newConfigError("Resampler", "kernelRadius", "must be positive")
	}

	r := &Resampler{
		inRate:       float64(inRate),
		outRate:      float64(outRate),
		ratio:        float64(outRate) / float64(inRate),
		kernelRadius: kernelRadius,
		history:      make([]float64, 2*kernelRadius),
	}
	r.fc = r.ratio / 2
	return r, nil
}

// blackmanWindow implements 0.42 + 0.5*cos(pi*n/K) + 0.08*cos(2*pi*n/K)
// for |n| < K, zero outside — the same three-term window gen_lowpass
// used for the teacher's FIR prefilter, just parameterized on a
// continuous n rather than an integer tap index.
func blackmanWindow(n float64, K int) float64 {
	Kf := float64(K)
	if n <= -Kf || n >= Kf {
		return 0
	}
	return 0.42 + 0.5*math.Cos(math.Pi*n/Kf) + 0.08*math.Cos(2*math.Pi*n/Kf)
}

// normSinc is the normalized sinc function, sin(pi*x)/(pi*x), with the
// removable singularity at 0 filled in with its limit, 1.
func normSinc(x float64) float64 {
	if math.Abs(x) < 1e-9 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// at returns the input sample at global (all-time) input index k, or 0
// if k falls before the start of the stream (implicit zero-padding) or
// outside the current history+chunk window.
func (r *Resampler) at(k int64, in []float32, chunkStart int64) float64 {
	if k >= chunkStart {
		idx := k - chunkStart
		if idx >= 0 && int(idx) < len(in) {
			return float64(in[idx])
		}
		return 0
	}
	histStart := chunkStart - int64(len(r.history))
	if k >= histStart {
		return r.history[k-histStart]
	}
	return 0
}

// Process resamples one chunk of input. Given a stream partitioned
// into arbitrary-length chunks, the concatenation of Process outputs
// equals, up to numerical error, resampling the concatenation of
// inputs in a single call. Empty input yields empty output.
func (r *Resampler) Process(in []float32) []float32 {
	L := len(in)
	if L == 0 {
		return nil
	}

	K := r.kernelRadius
	chunkStart := int64(math.Round(r.inputPos))

	// Output k sits at input time k*inRate/outRate; the bounds are
	// compared in integers so float drift cannot move a boundary sample
	// from one chunk to the next.
	inR, outR := int64(r.inRate), int64(r.outRate)
	end := chunkStart + int64(L)
	var out []float32
	for k := (chunkStart*outR + inR - 1) / inR; k*inR < end*outR; k++ {
		t := float64(k) / r.ratio
		lo := int64(math.Floor(t)) - int64(K)
		hi := int64(math.Ceil(t)) + int64(K)

		var acc float64
		for k := lo; k <= hi; k++ {
			n := float64(k) - t
			w := blackmanWindow(n, K)
			if w == 0 {
				continue
			}
			acc += r.at(k, in, chunkStart) * normSinc(2*r.fc*n) * w
		}
		out = append(out, float32(acc*2*r.fc))
	}

	r.advance(in, chunkStart)
	return out
}

// advance updates the cursor and the look-back history after a chunk.
// extended = history ++ in always has length len(history)+L > len(history),
// so the new history is always just its final len(history) samples.
func (r *Resampler) advance(in []float32, chunkStart int64) {
	L := len(in)
	K2 := len(r.history)

	extended := make([]float64, 0, K2+L)
	extended = append(extended, r.history...)
	for _, s := range in {
		extended = append(extended, float64(s))
	}
	copy(r.history, extended[len(extended)-K2:])

	r.inputPos += float64(L)
	_ = chunkStart
}

// InRate and OutRate report the configured sample rates, in Hz.
func (r *Resampler) InRate() float64  { return r.inRate }
func (r *Resampler) OutRate() float64 { return r.outRate }
