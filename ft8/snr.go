package ft8

import (
	"math"
)

/*
 * SNR Estimation
 * Signal power at the decoded tone positions against the fitted noise
 * floor, reported in the conventional 2500 Hz reference bandwidth.
 */

const minSNR = -24.0

// EstimateSNR measures the decoded signal's SNR from the waterfall. The
// codeword gives the transmitted tone at every symbol, so signal power is
// summed exactly where the transmitter put it.
func EstimateSNR(wf *Waterfall, cand *Candidate, codeword *[CodewordBits]uint8) float32 {
	tones := TonesFromCodeword(codeword)

	var xsig float64
	valid := 0
	for i, tone := range tones {
		block := int(cand.TimeOffset) + i
		if block < 0 || block >= wf.NumBlocks {
			continue
		}
		mag := wf.Mag8(block, int(cand.FreqOffset)+tone, int(cand.TimeSub), int(cand.FreqSub))
		db := (float64(mag) - 240.0) / 2.0
		xsig += math.Pow(10.0, db/10.0)
		valid++
	}

	xbase := noiseFloorAt(wf, cand)
	snr := minSNR
	if xbase > 0 && valid > 0 {
		arg := xsig/xbase/3.0e6 - 1.0
		if arg > 0.1 {
			snr = 10.0*math.Log10(arg) - 27.0
		}
	}
	if snr < minSNR {
		snr = minSNR
	}
	return float32(snr)
}

// SNRFromSyncScore is the coarse pre-decode estimate, the inverse of
// Config.MinScore.
func SNRFromSyncScore(score int) float32 {
	snr := float64(score)/2.0 - 22.0
	if snr < minSNR {
		snr = minSNR
	}
	return float32(snr)
}

// noiseFloorAt evaluates the fitted baseline at the candidate's frequency
// and converts it to linear power.
func noiseFloorAt(wf *Waterfall, cand *Candidate) float64 {
	if wf.NumBlocks == 0 {
		return 0
	}

	savg := make([]float64, wf.NumBins)
	for block := 0; block < wf.NumBlocks; block++ {
		for bin := 0; bin < wf.NumBins; bin++ {
			mag := wf.Mag8(block, bin, int(cand.TimeSub), int(cand.FreqSub))
			db := (float64(mag) - 240.0) / 2.0
			savg[bin] += math.Pow(10.0, db/10.0)
		}
	}
	for i := range savg {
		savg[i] /= float64(wf.NumBlocks)
	}

	sbase := fitBaseline(savg)

	bin := int(cand.FreqOffset)
	if bin < 0 {
		bin = 0
	}
	if bin >= len(sbase) {
		bin = len(sbase) - 1
	}
	return math.Pow(10.0, (sbase[bin]-40.0)/10.0)
}

// TonesFromCodeword reconstructs the 79 transmitted tones: three Costas
// sync blocks with the Gray-coded data symbols between them.
func TonesFromCodeword(codeword *[CodewordBits]uint8) [NumSymbols]int {
	var tones [NumSymbols]int
	for i := 0; i < SyncLength; i++ {
		tones[i] = int(CostasPattern[i])
		tones[SyncOffset+i] = int(CostasPattern[i])
		tones[NumSymbols-SyncLength+i] = int(CostasPattern[i])
	}

	k := SyncLength
	for j := 0; j < NumDataSymbols; j++ {
		if j == 29 {
			k += SyncLength
		}
		i := 3 * j
		idx := int(codeword[i])<<2 | int(codeword[i+1])<<1 | int(codeword[i+2])
		tones[k] = int(GrayMap[idx])
		k++
	}
	return tones
}
