package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Offline (batch) Viterbi decoding over a full pYIN
 *		pitch-state sequence: forward pass with backpointers,
 *		followed by traceback.
 *
 * Description:	Unlike the online decoder in pyin.go, which only ever
 *		needs the best path ending at the current frame, batch
 *		decoding needs the single best path through the *whole*
 *		recording — so it keeps an F x S backpointer table instead
 *		of discarding history every frame. Used for fixture
 *		validation and any caller analyzing a recording after the
 *		fact rather than streaming it live.
 *
 *------------------------------------------------------------------*/

import "math"

// PYINFrame is one frame's pitch/clarity estimate from batch decoding.
type PYINFrame struct {
	Hz      float32
	Clarity float32
}

// DecodeBatch implements spec.md section 4.7.6: run the full forward
// Viterbi pass over every frame, keep an F x S backpointer table, then
// traceback from the single best final state. frames must each have
// exactly e.FrameSize() samples. Unlike FindPitch, DecodeBatch is not
// part of the real-time hot path and is free to allocate.
func (e *PYINEngine) DecodeBatch(frames [][]float32) ([]PYINFrame, error) {
	f := len(frames)
	if f == 0 {
		return nil, nil
	}
	s := e.grid.size()

	for _, frame := range frames {
		if len(frame) != e.n {
			return nil, &ShapeError{Component: "pYIN batch", Want: e.n, Got: len(frame)}
		}
	}

	logV := make([]float64, s)
	logVNxt := make([]float64, s)
	back := make([][]int, f)
	obs := make([]float64, s)

	for t, frame := range frames {
		back[t] = make([]int, s)

		if allFinite(frame) {
			differenceFunction(frame, e.d)
			cumulativeMeanNormalize(e.d, e.cm)
			count := extractCandidates(e.cm, e.sampleRate, e.minFreq, e.maxFreq, e.bins, e.troughs, e.probs, e.cands)
			observationLogLikelihoods(e.grid, e.cands, count, obs)
		} else {
			obs[0] = 0
			for i := 1; i < s; i++ {
				obs[i] = math.Log(1e-15)
			}
		}

		if t == 0 {
			numVoiced := e.grid.numVoiced
			for i, st := range e.grid.states {
				if st.voiced {
					logV[i] = math.Log(0.5/float64(numVoiced)) + obs[i]
				} else {
					logV[i] = math.Log(0.5) + obs[i]
				}
				back[t][i] = -1
			}
		} else {
			for dst := 0; dst < s; dst++ {
				best := math.Inf(-1)
				bestPrev := 0
				for prev := 0; prev < s; prev++ {
					v := logV[prev] + e.trans.at(prev, dst)
					if v > best {
						best = v
						bestPrev = prev
					}
				}
				logVNxt[dst] = best + obs[dst]
				back[t][dst] = bestPrev
			}
			logV, logVNxt = logVNxt, logV
		}

		maxV := math.Inf(-1)
		for _, v := range logV {
			if v > maxV {
				maxV = v
			}
		}
		for i := range logV {
			logV[i] -= maxV
		}
	}

	final := 0
	for i := 1; i < s; i++ {
		if logV[i] > logV[final] {
			final = i
		}
	}

	path := make([]int, f)
	path[f-1] = final
	for t := f - 1; t > 0; t-- {
		path[t-1] = back[t][path[t]]
	}

	out := make([]PYINFrame, f)
	for t, stateIdx := range path {
		st := e.grid.states[stateIdx]
		if !st.voiced || !validPitch(st.freq, e.sampleRate) {
			continue
		}
		out[t] = PYINFrame{Hz: float32(st.freq), Clarity: 1}
	}
	return out, nil
}
