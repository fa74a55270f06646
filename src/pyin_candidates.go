package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	pYIN candidate extraction: find CMNDF local minima within
 *		the configured lag range, then integrate them over a
 *		Beta(2,18) threshold distribution to get a weighted set
 *		of frequency/probability candidates.
 *
 * Description:	Fixed-capacity scratch buffers for the local minima,
 *		same "prototype objects become a pre-allocated array of
 *		small records, indices not references" re-architecture
 *		the design notes call for (spec.md section 9) and the
 *		same shape the teacher uses for its small per-slot record
 *		types (D.slicer[slice] in pll_dcd.go) rather than
 *		allocating a fresh struct per candidate.
 *
 *------------------------------------------------------------------*/

import "math"

const pyinMaxTroughs = 200

// pyinCandidate is one extracted frequency/probability pair, emitted
// by the threshold-distribution integration in spec.md section 4.7.2.
type pyinCandidate struct {
	freq        float64
	probability float64
}

// pyinTrough is one local minimum of the CMNDF, found within the
// configured lag range.
type pyinTrough struct {
	tau   int
	value float64
}

// betaCDF218 is the threshold-prior CDF used for the Beta(2,18)
// weighting: 1 - (1-x)^18 * (1 + 17x), clamped to 0 below x=0 and 1
// above x=1. Its derivative is (1-x)^17 * (1 + 323x), which is 1 at
// x=0. spec.md section 9 Open Question 1 notes a second variant using
// (1+18x) in some historical sources; SPEC_FULL.md adopts (1+17x) and
// flags the other as a bug. See beta_cdf_test.go.
func betaCDF218(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return 1 - math.Pow(1-x, 18)*(1+17*x)
}

// findLocalMinima scans d' over [tauMin, tauMax] for strict local
// minima (non-increase on both sides is the spec's wording; this
// requires a strict decrease into the point and a strict increase out
// of it, which is the useful definition — a flat run never produces a
// spurious trough). Results are written into dst (capacity
// pyinMaxTroughs) in increasing lag order and the count is returned.
func findLocalMinima(cm []float64, tauMin, tauMax int, dst []pyinTrough) int {
	n := 0
	for tau := tauMin; tau <= tauMax && tau < len(cm)-1; tau++ {
		if tau < 1 {
			continue
		}
		if cm[tau] < cm[tau-1] && cm[tau] < cm[tau+1] {
			if n >= len(dst) {
				break
			}
			dst[n] = pyinTrough{tau: tau, value: cm[tau]}
			n++
		}
	}
	return n
}

// boltzmannWeight returns rho^j / sum_{k<c} rho^k for the Boltzmann
// sub-weighting in spec.md section 4.7.2, using the closed-form
// geometric-series denominator (1-rho^c)/(1-rho).
func boltzmannWeight(j, c int, rho float64) float64 {
	if c <= 0 {
		return 0
	}
	denom := (1 - math.Pow(rho, float64(c))) / (1 - rho)
	return math.Pow(rho, float64(j)) / denom
}

const pyinBoltzmannRho = 0.1353352832366127 // e^-2

// extractCandidates implements spec.md section 4.7.2 in full: find
// local minima of d' in the lag range implied by [minFreq,maxFreq],
// integrate over T threshold bins of Beta(2,18), refine each
// surviving trough's lag by a stabilized parabolic fit, and emit
// candidates. dst must have capacity >= number of troughs found;
// returns the number of candidates written.
func extractCandidates(cm []float64, sampleRate, minFreq, maxFreq float64, bins int, troughScratch []pyinTrough, probScratch []float64, dst []pyinCandidate) int {
	n := len(cm)
	tauMin := int(math.Floor(sampleRate / maxFreq))
	if tauMin < 1 {
		tauMin = 1
	}
	tauMax := int(math.Ceil(sampleRate / minFreq))
	if tauMax > n-1 {
		tauMax = n - 1
	}
	if tauMax < tauMin {
		return 0
	}

	troughCount := findLocalMinima(cm, tauMin, tauMax, troughScratch)
	if troughCount == 0 {
		return 0
	}
	for i := 0; i < troughCount; i++ {
		probScratch[i] = 0
	}

	var prevCDF float64
	for bin := 1; bin <= bins; bin++ {
		theta := float64(bin) / float64(bins)
		cdf := betaCDF218(theta)
		w := cdf - prevCDF
		prevCDF = cdf

		c := 0
		for i := 0; i < troughCount; i++ {
			if troughScratch[i].value < theta {
				c++
			}
		}
		if c == 0 {
			continue
		}
		j := 0
		for i := 0; i < troughCount; i++ {
			if troughScratch[i].value < theta {
				probScratch[i] += w * boltzmannWeight(j, c, pyinBoltzmannRho)
				j++
			}
		}
	}

	count := 0
	for i := 0; i < troughCount; i++ {
		if probScratch[i] <= 0 {
			continue
		}
		refined := stabilizedParabolic(cm, troughScratch[i].tau)
		if refined <= 0 {
			continue
		}
		if count >= len(dst) {
			break
		}
		dst[count] = pyinCandidate{freq: sampleRate / refined, probability: probScratch[i]}
		count++
	}
	return count
}

// stabilizedParabolic implements the stabilized parabolic fit in
// spec.md section 4.7.2 step 3: a = y3+y1-2y2, b = (y3-y1)/2; accept
// the offset x0 = -b/a only when |b| < |a| and a != 0 and |x0| < 1.
// Returns the integer lag tau unchanged when the fit is rejected or tau
// has no neighbor on one side.
func stabilizedParabolic(cm []float64, tau int) float64 {
	if tau <= 0 || tau >= len(cm)-1 {
		return float64(tau)
	}
	y1, y2, y3 := cm[tau-1], cm[tau], cm[tau+1]
	a := y3 + y1 - 2*y2
	b := (y3 - y1) / 2
	if a == 0 || math.Abs(b) >= math.Abs(a) {
		return float64(tau)
	}
	x0 := -b / a
	if math.Abs(x0) >= 1 {
		return float64(tau)
	}
	return float64(tau) + x0
}
