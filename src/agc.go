package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Real-time automatic gain control preceding pitch
 *		analysis: an envelope follower with per-sample gain
 *		smoothing, attack/release asymmetry, and hard clamps.
 *
 * Description:	Shaped after the teacher's own envelope-follower idiom
 *		in demod_9600.go's agc() helper (peak/valley tracking
 *		with separate fast-attack/slow-decay coefficients for a
 *		9600 baud demodulator's slicing AGC) — generalized here
 *		from a per-sample peak/valley tracker to a per-chunk RMS
 *		envelope, because a tuner's AGC target is "keep the
 *		analysis window in a sane amplitude range", not "find
 *		the slicing midpoint of an eye pattern".
 *
 *------------------------------------------------------------------*/

import "math"

const (
	agcNoiseFloor  = 1e-10
	agcEnvelopeMax = 10
	gainSmoothTime = 5e-3 // fixed 5 ms time constant, spec.md section 4.2
)

// AGCParams is the subset of {target_level, attack_time, release_time,
// max_gain, min_gain} a control message may update; nil entries leave
// the corresponding parameter unchanged. This is the typed command
// record spec.md section 6 calls for, in the same spirit as the
// teacher's DCDConfig tunable-parameter struct in pll_dcd.go.
type AGCParams struct {
	TargetLevel *float64
	AttackTime  *float64
	ReleaseTime *float64
	MaxGain     *float64
	MinGain     *float64
}

// AGCStats is the throttled statistics message spec.md section 6
// describes: {rms, envelope, gain, target_gain, gain_reduction_dB}.
type AGCStats struct {
	RMS             float64
	Envelope        float64
	Gain            float64
	TargetGain      float64
	GainReductionDB float64
}

// AGC is a stateful, single-threaded envelope-following gain control
// stage. It is owned exclusively by the callback thread; see the
// concurrency model in spec.md section 5.
type AGC struct {
	sampleRate float64

	targetLevel float64
	attackTime  float64
	releaseTime float64
	maxGain     float64
	minGain     float64

	attackCoeff  float64
	releaseCoeff float64
	gainCoeff    float64

	envelope    float64
	currentGain float64
	targetGain  float64
	lastRMS     float64
	prevEnabled bool
}

// NewAGC constructs an AGC stage for the given sample rate with the
// supplied time constants and gain bounds. Defaults in spec.md section
// 6: target 0.3, attack 3ms, release 100ms. Both gain bounds are
// required and each must be greater than 0.01.
func NewAGC(sampleRate float64, targetLevel, attackTime, releaseTime, maxGain, minGain float64) (*AGC, error) {
	if sampleRate <= 0 {
		return nil, newConfigError("AGC", "sampleRate", "must be positive")
	}
	a := &AGC{
		sampleRate:  sampleRate,
		currentGain: 1,
	}
	if err := a.applyTarget(targetLevel); err != nil {
		return nil, err
	}
	if err := a.applyAttack(attackTime); err != nil {
		return nil, err
	}
	if err := a.applyRelease(releaseTime); err != nil {
		return nil, err
	}
	if err := a.applyMaxGain(maxGain); err != nil {
		return nil, err
	}
	if err := a.applyMinGain(minGain); err != nil {
		return nil, err
	}
	a.gainCoeff = timeConstantCoeff(gainSmoothTime, sampleRate)
	return a, nil
}

// timeConstantCoeff derives a per-sample smoothing coefficient from a
// time constant tau (seconds) at sample rate fs, per spec.md 4.2:
// coeff = 1 - exp(clamp(-2.2/(tau*fs), -50, -1e-3)), clamped to
// [1e-3, 0.999].
func timeConstantCoeff(tau, fs float64) float64 {
	x := -2.2 / (tau * fs)
	x = clamp(x, -50, -1e-3)
	c := 1 - math.Exp(x)
	return clamp(c, 1e-3, 0.999)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (a *AGC) applyTarget(v float64) error {
	if v < 0.01 || v > 1 {
		return newConfigError("AGC", "target_level", "must be in [0.01, 1]")
	}
	a.targetLevel = v
	return nil
}

func (a *AGC) applyAttack(v float64) error {
	if v < 0.5e-3 {
		return newConfigError("AGC", "attack_time", "must be >= 0.5ms")
	}
	a.attackTime = v
	a.attackCoeff = timeConstantCoeff(v, a.sampleRate)
	return nil
}

func (a *AGC) applyRelease(v float64) error {
	if v < 1e-3 {
		return newConfigError("AGC", "release_time", "must be >= 1ms")
	}
	a.releaseTime = v
	a.releaseCoeff = timeConstantCoeff(v, a.sampleRate)
	return nil
}

func (a *AGC) applyMaxGain(v float64) error {
	if v <= 0.01 {
		return newConfigError("AGC", "max_gain", "must be > 0.01")
	}
	a.maxGain = v
	return nil
}

func (a *AGC) applyMinGain(v float64) error {
	if v <= 0.01 {
		return newConfigError("AGC", "min_gain", "must be > 0.01")
	}
	a.minGain = v
	return nil
}

// Update applies a partial parameter set and returns the acknowledgment
// message carrying the resulting full parameter set.
func (a *AGC) Update(p AGCParams) (AGCParams, error) {
	if p.TargetLevel != nil {
		if err := a.applyTarget(*p.TargetLevel); err != nil {
			return AGCParams{}, err
		}
	}
	if p.AttackTime != nil {
		if err := a.applyAttack(*p.AttackTime); err != nil {
			return AGCParams{}, err
		}
	}
	if p.ReleaseTime != nil {
		if err := a.applyRelease(*p.ReleaseTime); err != nil {
			return AGCParams{}, err
		}
	}
	if p.MaxGain != nil {
		if err := a.applyMaxGain(*p.MaxGain); err != nil {
			return AGCParams{}, err
		}
	}
	if p.MinGain != nil {
		if err := a.applyMinGain(*p.MinGain); err != nil {
			return AGCParams{}, err
		}
	}
	return AGCParams{
		TargetLevel: &a.targetLevel,
		AttackTime:  &a.attackTime,
		ReleaseTime: &a.releaseTime,
		MaxGain:     &a.maxGain,
		MinGain:     &a.minGain,
	}, nil
}

// Process applies gain control to one chunk of samples. When enabled
// is false, it is a pure passthrough; it never hard-mutes the signal,
// per the error handling policy in spec.md section 7.
func (a *AGC) Process(samples []float32, enabled bool) []float32 {
	if enabled && !a.prevEnabled {
		a.envelope = 0
		a.currentGain = 1
	}
	a.prevEnabled = enabled

	out := make([]float32, len(samples))
	if !enabled {
		copy(out, samples)
		return out
	}

	var sum, sumSq float64
	var n int
	for _, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		sum += f
		sumSq += f * f
		n++
	}
	var rms float64
	if n > 0 {
		mean := sum / float64(n)
		rms = math.Sqrt(math.Max(0, sumSq/float64(n)-mean*mean))
	}
	a.lastRMS = rms

	alpha := a.releaseCoeff
	if rms > a.envelope {
		alpha = a.attackCoeff
	}
	a.envelope = (1-alpha)*a.envelope + alpha*math.Max(rms, agcNoiseFloor)
	a.envelope = clamp(a.envelope, agcNoiseFloor, agcEnvelopeMax)

	if a.envelope > 1e-8 {
		a.targetGain = clamp(a.targetLevel/a.envelope, a.minGain, a.maxGain)
	} else {
		a.targetGain = 1
	}

	for i, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 10 {
			out[i] = 0
			continue
		}
		a.currentGain = (1-a.gainCoeff)*a.currentGain + a.gainCoeff*a.targetGain
		a.currentGain = clamp(a.currentGain, a.minGain, a.maxGain)
		v := f * a.currentGain
		out[i] = float32(clamp(v, -1, 1))
	}
	return out
}

// Stats reports the current throttled statistics message.
func (a *AGC) Stats() AGCStats {
	reduction := 20 * math.Log10(math.Max(a.currentGain, 1e-12))
	return AGCStats{
		RMS:             a.lastRMS,
		Envelope:        a.envelope,
		Gain:            a.currentGain,
		TargetGain:      a.targetGain,
		GainReductionDB: reduction,
	}
}
