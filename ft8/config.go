package ft8

import (
	"fmt"
	"runtime"
	"time"
)

/*
 * Decoder Configuration
 * Scalar parameters consumed by the capture-and-decode pipeline
 */

// Config contains all tunable parameters of the decode pipeline. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	SampleRate     int     // Decode sample rate in Hz (fixed-rate analysis grid)
	RecordSeconds  float64 // Capture window length per cycle
	AdvanceSeconds float64 // Capture lead time before the slot boundary
	MinFreq        float64 // Lower edge of the sync search range (Hz)
	MaxFreq        float64 // Upper edge of the sync search range (Hz)
	ThresholdDB    float64 // Candidate acceptance threshold, dB-equivalent SNR
	MaxCandidates  int     // Upper bound on candidates decoded per cycle
	LDPCIterations int     // Belief propagation iteration budget
	Workers        int     // Concurrent per-candidate decode workers

	// Analysis oversampling of the waterfall grid.
	TimeOSR int
	FreqOSR int

	// Deduplication distances. Two decodes of the same message closer than
	// this in both dimensions are considered one signal.
	DedupFreqHz      float64 // One tone bin by default
	DedupTimeSeconds float64 // One symbol period by default
}

// DefaultConfig returns the standard FT8 decode parameters.
func DefaultConfig() Config {
	return Config{
		SampleRate:       12000,
		RecordSeconds:    13.5,
		AdvanceSeconds:   0.2,
		MinFreq:          500,
		MaxFreq:          3000,
		ThresholdDB:      -26,
		MaxCandidates:    140,
		LDPCIterations:   25,
		Workers:          runtime.NumCPU(),
		TimeOSR:          2,
		FreqOSR:          2,
		DedupFreqHz:      ToneSpacingHz,
		DedupTimeSeconds: SymbolSeconds,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate %d Hz too low (need at least 8000)", c.SampleRate)
	}
	if c.RecordSeconds < MinRecordSeconds() {
		return fmt.Errorf("record window %.2f s shorter than minimum %.2f s", c.RecordSeconds, MinRecordSeconds())
	}
	if c.RecordSeconds > SlotSeconds {
		return fmt.Errorf("record window %.2f s exceeds the %.0f s slot", c.RecordSeconds, SlotSeconds)
	}
	if c.AdvanceSeconds < 0 || c.AdvanceSeconds >= SlotSeconds {
		return fmt.Errorf("advance %.2f s out of range", c.AdvanceSeconds)
	}
	if c.MinFreq < 0 || c.MaxFreq <= c.MinFreq {
		return fmt.Errorf("invalid search range %.0f-%.0f Hz", c.MinFreq, c.MaxFreq)
	}
	if c.MaxFreq > float64(c.SampleRate)/2 {
		return fmt.Errorf("max frequency %.0f Hz above Nyquist for %d Hz", c.MaxFreq, c.SampleRate)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive")
	}
	if c.LDPCIterations <= 0 {
		return fmt.Errorf("LDPC iteration budget must be positive")
	}
	if c.TimeOSR < 1 || c.FreqOSR < 1 {
		return fmt.Errorf("oversampling rates must be at least 1")
	}
	return nil
}

// MinScore converts the configured dB threshold into the integer sync score
// used by the candidate search. Sync scores map to estimated SNR as
// snr = score/2 - 22. Silence scores exactly zero at every grid position, so
// the score is floored at 1 regardless of how low the threshold is set.
func (c Config) MinScore() int {
	score := int((c.ThresholdDB + 22.0) * 2.0)
	if score < 1 {
		score = 1
	}
	return score
}

// RecordDuration returns the capture window as a time.Duration.
func (c Config) RecordDuration() time.Duration {
	return time.Duration(c.RecordSeconds * float64(time.Second))
}

// AdvanceDuration returns the capture lead time as a time.Duration.
func (c Config) AdvanceDuration() time.Duration {
	return time.Duration(c.AdvanceSeconds * float64(time.Second))
}

// MinRecordSeconds is the shortest capture a decode will be attempted on:
// one symbol less than the full 79-symbol transmission. Anything shorter is
// rejected as insufficient audio; the missing tail within that one-symbol
// tolerance is zero-padded.
func MinRecordSeconds() float64 {
	return SymbolSeconds * float64(NumSymbols-1)
}
