package ft8

import (
	"math"
)

/*
 * Symbol Demodulation
 * Converts the 58 data symbols of a candidate into 174 soft bit
 * log-likelihood ratios. Pure function of the waterfall and the candidate.
 */

// ExtractLikelihoods reads the candidate's symbol grid and returns one
// log-likelihood ratio per codeword bit. Positive values favor bit 1. The
// result is owned by the caller; the LDPC decoder mutates it in place.
func ExtractLikelihoods(wf *Waterfall, cand *Candidate) []float32 {
	llr := make([]float32, CodewordBits)

	for k := 0; k < NumDataSymbols; k++ {
		// Data symbols sit between the three sync blocks:
		// 7 sync, 29 data, 7 sync, 29 data, 7 sync.
		symIdx := k + SyncLength
		if k >= 29 {
			symIdx += SyncLength
		}

		bitIdx := 3 * k
		block := int(cand.TimeOffset) + symIdx
		if block < 0 || block >= wf.NumBlocks {
			// Symbol outside the capture: no information.
			continue
		}
		extractSymbol(wf, cand, block, llr[bitIdx:bitIdx+3])
	}

	normalizeLikelihoods(llr)
	return llr
}

// extractSymbol converts the 8 tone-bin energies of one symbol into 3 soft
// bits. Each bit splits the Gray-mapped tones into two groups of four; the
// LLR is the strongest bit=1 tone minus the strongest bit=0 tone.
func extractSymbol(wf *Waterfall, cand *Candidate, block int, logl []float32) {
	var s [NumTones]float32
	for j := 0; j < NumTones; j++ {
		tone := int(GrayMap[j])
		mag := wf.Mag8(block, int(cand.FreqOffset)+tone, int(cand.TimeSub), int(cand.FreqSub))
		s[j] = float32(mag)*0.5 - 120.0
	}

	logl[0] = max4(s[4], s[5], s[6], s[7]) - max4(s[0], s[1], s[2], s[3])
	logl[1] = max4(s[2], s[3], s[6], s[7]) - max4(s[0], s[1], s[4], s[5])
	logl[2] = max4(s[1], s[3], s[5], s[7]) - max4(s[0], s[2], s[4], s[6])
}

// normalizeLikelihoods scales the LLR distribution to a fixed variance so
// the belief propagation operating point doesn't depend on signal level.
func normalizeLikelihoods(llr []float32) {
	var sum, sum2 float32
	for _, v := range llr {
		sum += v
		sum2 += v * v
	}

	invN := 1.0 / float32(len(llr))
	variance := (sum2 - sum*sum*invN) * invN
	if variance <= 0 {
		return
	}

	norm := float32(math.Sqrt(float64(24.0 / variance)))
	for i := range llr {
		llr[i] *= norm
	}
}

func max2(a, b float32) float32 {
	if a >= b {
		return a
	}
	return b
}

func max4(a, b, c, d float32) float32 {
	return max2(max2(a, b), max2(c, d))
}
