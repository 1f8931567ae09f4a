package ft8

import (
	"math"
	"sort"
)

/*
 * Per-Cycle Result Aggregation
 * Overlapping candidates of one transmission decode to the same message at
 * nearly the same frequency and time. The aggregator collapses them to a
 * single result per signal.
 */

// Aggregate deduplicates one cycle's decodes and returns them sorted by
// ascending frequency. Two results with identical message text within the
// configured frequency and time distances are one signal; the higher SNR
// wins.
func Aggregate(results []DecodeResult, cfg Config) []DecodeResult {
	kept := make([]DecodeResult, 0, len(results))

	for _, r := range results {
		dup := -1
		for i := range kept {
			if kept[i].Message.String() != r.Message.String() {
				continue
			}
			df := math.Abs(kept[i].Frequency - r.Frequency)
			dt := math.Abs(kept[i].TimeOffset - r.TimeOffset)
			if df <= cfg.DedupFreqHz && dt <= cfg.DedupTimeSeconds {
				dup = i
				break
			}
		}
		if dup < 0 {
			kept = append(kept, r)
		} else if r.SNR > kept[dup].SNR {
			kept[dup] = r
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Frequency < kept[j].Frequency
	})
	return kept
}
