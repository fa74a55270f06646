package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Uniform pitch-detection engine contract, plus the
 *		detector registry that selects and constructs one engine
 *		by name.
 *
 * Description:	Re-architected from the teacher's dynamic-dispatch-by-
 *		string modem selection (multi_modem.go picks among AFSK,
 *		9600 baud, and PSK demodulators by config) into a Go
 *		interface plus a small constructor registry — a tagged
 *		variant over engines implementing one capability, no
 *		inheritance, per the design note in spec.md section 9.
 *
 *------------------------------------------------------------------*/

import "fmt"

// Algorithm names a pitch-detection engine implementation.
type Algorithm string

const (
	AlgorithmYIN      Algorithm = "yin"
	AlgorithmMPM      Algorithm = "mpm"
	AlgorithmPYIN     Algorithm = "pyin"
	AlgorithmBaseline Algorithm = "baseline"
)

// Engine is the uniform contract every pitch-detection engine
// implements. find_pitch (Go: FindPitch) consumes one frame and
// produces (hz, clarity). Implementations precompute all scratch
// buffers at construction time; FindPitch must not allocate.
type Engine interface {
	// FindPitch returns (0, 0) for unvoiced / insufficient signal.
	// frame must have exactly FrameSize() samples, all finite.
	FindPitch(frame []float32) (hz float32, clarity float32)

	// FrameSize is the fixed analysis window length N this engine was
	// constructed for.
	FrameSize() int

	// Reset clears any cross-frame state (only meaningful for pYIN's
	// HMM; a no-op for the other engines).
	Reset()
}

// Config carries the engine-neutral construction parameters from
// spec.md section 6: algorithm choice, frame size, frequency range,
// and algorithm-specific tuning.
type Config struct {
	Algorithm Algorithm
	FrameSize int
	SampleRate float64
	MinFreq, MaxFreq float64

	// YIN / pYIN front end.
	YINThreshold float64 // default 0.1-0.2

	// MPM.
	MPMThresholdK float64 // default 0.93

	// pYIN.
	StepsPerSemitone int     // default 5
	SwitchProb       float64 // default 0.01
	ThresholdBins    int     // 50 online / 100 batch
}

// DefaultConfig returns the spec.md section 6 "Algorithm defaults"
// table, for the given algorithm and sample rate.
func DefaultConfig(alg Algorithm, sampleRate float64) Config {
	return Config{
		Algorithm:        alg,
		FrameSize:        2048,
		SampleRate:       sampleRate,
		MinFreq:          80,
		MaxFreq:          800,
		YINThreshold:     0.15,
		MPMThresholdK:    0.93,
		StepsPerSemitone: 5,
		SwitchProb:       0.01,
		ThresholdBins:    50,
	}
}

// NewEngine constructs the selected engine, applying cfg. This is the
// detector registry: one variant is owned per stream, rebuilt whenever
// the caller wants a different algorithm.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.FrameSize < 256 {
		return nil, newConfigError("Engine", "FrameSize", "must be >= 256")
	}
	if cfg.SampleRate <= 0 {
		return nil, newConfigError("Engine", "SampleRate", "must be positive")
	}
	if cfg.MinFreq <= 0 || cfg.MaxFreq <= cfg.MinFreq {
		return nil, newConfigError("Engine", "MinFreq/MaxFreq", "must satisfy 0 < min < max")
	}

	switch cfg.Algorithm {
	case AlgorithmYIN:
		return newYINEngine(cfg)
	case AlgorithmMPM:
		return newMPMEngine(cfg)
	case AlgorithmPYIN:
		return newPYINEngine(cfg)
	case AlgorithmBaseline:
		return newBaselineEngine(cfg)
	default:
		return nil, newConfigError("Engine", "Algorithm", fmt.Sprintf("unknown algorithm %q", cfg.Algorithm))
	}
}
