package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Build the dense S x S log-probability transition matrix
 *		over the pYIN pitch-state grid.
 *
 * Description:	Stored as one contiguous row-major []float64 indexed
 *		i*S+j, per the design note in spec.md section 9 ("HMM
 *		represented as nested arrays" -> "a single contiguous S*S
 *		float array ... row-major, column inner loop"). The O(S^2)
 *		build happens once at construction and is amortized over
 *		every subsequent frame, exactly like the teacher building
 *		a FIR kernel once in dsp.go and reusing it every sample.
 *
 *------------------------------------------------------------------*/

import "math"

const (
	pyinSigmaTransCents = 25.0
	logFloor            = -69.07755278982137 // log(1e-30)
)

// pyinTransition is the dense transition matrix, row-major i*S+j in
// log space.
type pyinTransition struct {
	s   int
	log []float64
}

// newPYINTransition builds the transition matrix described in
// spec.md section 4.7.4. switchProb is the total probability mass
// (p_switch) that leaves a state's voicing group on each step.
func newPYINTransition(grid *pyinStateGrid, switchProb float64) *pyinTransition {
	s := grid.size()
	t := &pyinTransition{s: s, log: make([]float64, s*s)}

	var voicedIdx, unvoicedIdx []int
	for i, st := range grid.states {
		if st.voiced {
			voicedIdx = append(voicedIdx, i)
		} else {
			unvoicedIdx = append(unvoicedIdx, i)
		}
	}

	final := make([]float64, s) // reused per row; construction-time only
	for i := 0; i < s; i++ {
		same := sameGroup(grid, i)
		opposite := oppositeGroup(grid, i, voicedIdx, unvoicedIdx)

		for j := range final {
			final[j] = 0
		}

		var sSame float64
		for _, j := range same {
			sSame += rawTransitionWeight(grid, i, j)
		}
		if sSame > 0 {
			for _, j := range same {
				p := rawTransitionWeight(grid, i, j)
				final[j] = (1 - switchProb) * p / sSame
			}
		}
		if len(opposite) > 0 {
			share := switchProb / float64(len(opposite))
			for _, j := range opposite {
				final[j] += share
			}
		}

		for j := 0; j < s; j++ {
			t.log[i*s+j] = math.Log(math.Max(1e-30, final[j]))
		}
	}
	return t
}

func sameGroup(grid *pyinStateGrid, i int) []int {
	var out []int
	voiced := grid.states[i].voiced
	for j, st := range grid.states {
		if st.voiced == voiced {
			out = append(out, j)
		}
	}
	return out
}

func oppositeGroup(grid *pyinStateGrid, i int, voicedIdx, unvoicedIdx []int) []int {
	if grid.states[i].voiced {
		return unvoicedIdx
	}
	return voicedIdx
}

// rawTransitionWeight computes the unnormalized weight between origin
// i and same-voicing destination j, per spec.md section 4.7.4: a
// Gaussian over cents for voiced-voiced pairs, uniform for
// unvoiced-unvoiced pairs.
func rawTransitionWeight(grid *pyinStateGrid, i, j int) float64 {
	si, sj := grid.states[i], grid.states[j]
	if si.voiced && sj.voiced {
		cents := 1200 * (sj.log2Hz - si.log2Hz)
		return math.Exp(-(cents * cents) / (2 * pyinSigmaTransCents * pyinSigmaTransCents))
	}
	// unvoiced-unvoiced: uniform over however many unvoiced states
	// exist (just 1 in this grid, but written generally).
	var count int
	for _, st := range grid.states {
		if !st.voiced {
			count++
		}
	}
	return 1 / float64(count)
}

// at returns log P(i -> j).
func (t *pyinTransition) at(i, j int) float64 {
	return t.log[i*t.s+j]
}
