package ft8

import "time"

// AudioFrame is one cycle's worth of mono audio at the decode sample rate.
// A frame is owned by the pipeline stage that produced it and is treated as
// immutable once captured; candidates reference it read-only.
type AudioFrame struct {
	Samples []float32 // Mono samples normalized to +/-1.0
	Rate    int       // Samples per second
	Start   time.Time // UTC capture start (the cycle's slot boundary minus advance)
}

// Duration returns the frame length in seconds.
func (f *AudioFrame) Duration() float64 {
	if f.Rate == 0 {
		return 0
	}
	return float64(len(f.Samples)) / float64(f.Rate)
}

// CycleStart returns the slot boundary this frame belongs to, given the
// capture lead time it was recorded with.
func (f *AudioFrame) CycleStart(advance time.Duration) time.Time {
	return f.Start.Add(advance)
}
