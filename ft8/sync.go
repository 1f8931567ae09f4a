package ft8

import (
	"math"
	"sort"
)

/*
 * Costas Sync Detection
 * Scans the waterfall's time/frequency grid for the 7x7x7 sync pattern and
 * scores candidate lock points
 */

// Candidate is a hypothesized sync lock point on the waterfall grid.
type Candidate struct {
	Score      int16 // Sync correlation score, higher is better
	TimeOffset int16 // Symbol-block index of the first sync symbol
	FreqOffset int16 // Tone-spacing bin index of tone 0
	TimeSub    uint8 // Time subdivision
	FreqSub    uint8 // Frequency subdivision
}

// Frequency returns the candidate's audio base frequency in Hz.
func (c *Candidate) Frequency(wf *Waterfall) float64 {
	fftBin := float64(wf.MinBin) + float64(int(c.FreqOffset)*wf.FreqOSR+int(c.FreqSub))
	return fftBin * wf.BinWidthHz
}

// TimeOffsetSeconds returns the candidate's start offset from the capture
// start in seconds. The analysis frame trails the incoming audio by one
// symbol block, so one block is subtracted to report true signal time.
func (c *Candidate) TimeOffsetSeconds(wf *Waterfall) float64 {
	return (float64(c.TimeOffset) - 1 + float64(c.TimeSub)/float64(wf.TimeOSR)) * SymbolSeconds
}

// Candidate time offsets searched, in symbol blocks relative to the capture
// start. Negative offsets catch transmissions that started before the
// window opened.
const (
	searchTimeMin = -10
	searchTimeMax = 20
)

// FindCandidates scans the waterfall and returns up to maxCandidates lock
// points scoring at least minScore, sorted by descending score and coarsely
// deduplicated so overlapping hypotheses of one signal don't multiply the
// downstream decode work. An empty result is a quiet cycle, not an error.
func FindCandidates(wf *Waterfall, cfg Config) []Candidate {
	candidates := make([]Candidate, 0, cfg.MaxCandidates)
	minScore := cfg.MinScore()

	for timeSub := 0; timeSub < wf.TimeOSR; timeSub++ {
		for freqSub := 0; freqSub < wf.FreqOSR; freqSub++ {
			for timeOffset := searchTimeMin; timeOffset < searchTimeMax; timeOffset++ {
				for freqOffset := 0; freqOffset+NumTones-1 < wf.NumBins; freqOffset++ {
					score := syncScore(wf, timeOffset, freqOffset, timeSub, freqSub)
					if score < minScore {
						continue
					}
					candidates = insertCandidate(candidates, Candidate{
						Score:      int16(score),
						TimeOffset: int16(timeOffset),
						FreqOffset: int16(freqOffset),
						TimeSub:    uint8(timeSub),
						FreqSub:    uint8(freqSub),
					}, cfg.MaxCandidates)
				}
			}
		}
	}

	return dedupCandidates(wf, candidates, cfg)
}

// syncScore correlates the waterfall against the Costas pattern at one
// (time, frequency) hypothesis. The score accumulates the margin of the
// expected tone over its time and frequency neighbors, averaged over all
// in-range sync symbols.
func syncScore(wf *Waterfall, timeOffset, freqOffset, timeSub, freqSub int) int {
	score := 0
	num := 0

	for m := 0; m < NumSyncBlocks; m++ {
		for k := 0; k < SyncLength; k++ {
			block := timeOffset + SyncOffset*m + k
			if block < 0 {
				continue
			}
			if block >= wf.NumBlocks {
				break
			}

			tone := int(CostasPattern[k])
			expected := int(wf.Mag8(block, freqOffset+tone, timeSub, freqSub))

			if tone > 0 {
				score += expected - int(wf.Mag8(block, freqOffset+tone-1, timeSub, freqSub))
				num++
			}
			if tone < NumTones-1 {
				score += expected - int(wf.Mag8(block, freqOffset+tone+1, timeSub, freqSub))
				num++
			}
			if k > 0 && block > 0 {
				score += expected - int(wf.Mag8(block-1, freqOffset+tone, timeSub, freqSub))
				num++
			}
			if k+1 < SyncLength && block+1 < wf.NumBlocks {
				score += expected - int(wf.Mag8(block+1, freqOffset+tone, timeSub, freqSub))
				num++
			}
		}
	}

	if num > 0 {
		return score / num
	}
	return score
}

// insertCandidate keeps the candidate list sorted by descending score and
// bounded at maxCandidates.
func insertCandidate(candidates []Candidate, cand Candidate, maxCandidates int) []Candidate {
	if len(candidates) < maxCandidates {
		candidates = append(candidates, cand)
	} else if cand.Score > candidates[len(candidates)-1].Score {
		candidates[len(candidates)-1] = cand
	} else {
		return candidates
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// dedupCandidates suppresses hypotheses that overlap a stronger one within
// the configured frequency and time distances. The list is already sorted
// by descending score, so a linear sweep keeping first-seen wins.
func dedupCandidates(wf *Waterfall, candidates []Candidate, cfg Config) []Candidate {
	if len(candidates) < 2 {
		return candidates
	}

	freqDist := cfg.DedupFreqHz
	timeDist := cfg.DedupTimeSeconds

	kept := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		dup := false
		for i := range kept {
			df := math.Abs(cand.Frequency(wf) - kept[i].Frequency(wf))
			dt := math.Abs(cand.TimeOffsetSeconds(wf) - kept[i].TimeOffsetSeconds(wf))
			if df <= freqDist && dt <= timeDist {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, cand)
		}
	}
	return kept
}
