package ft8

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixChannelSelect(t *testing.T) {
	pcm := []int16{100, -200, 300, -400, 500, -600}

	left := MixChannel(pcm, 2, 0)
	require.Len(t, left, 3)
	assert.InDelta(t, 100.0/32768, left[0], 1e-6)
	assert.InDelta(t, 500.0/32768, left[2], 1e-6)

	right := MixChannel(pcm, 2, 1)
	assert.InDelta(t, -200.0/32768, right[0], 1e-6)
}

func TestMixChannelAverage(t *testing.T) {
	pcm := []int16{1000, 3000, -2000, 2000}
	mono := MixChannel(pcm, 2, -1)
	require.Len(t, mono, 2)
	assert.InDelta(t, 2000.0/32768, mono[0], 1e-6)
	assert.InDelta(t, 0.0, mono[1], 1e-6)
}

func TestResampleDeterministic(t *testing.T) {
	in := make([]float32, 4800)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / 48000))
	}

	a := Resample(in, 48000, 12000)
	b := Resample(in, 48000, 12000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 1200)
}

func TestResampleSameRateCopies(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out := Resample(in, 12000, 12000)
	assert.Equal(t, in, out)
	out[0] = 9
	assert.Equal(t, float32(0.1), in[0], "output aliases the input")
}

func TestResamplePreservesLevel(t *testing.T) {
	// DC input survives the kernel normalization.
	in := make([]float32, 2400)
	for i := range in {
		in[i] = 0.5
	}
	out := Resample(in, 48000, 12000)
	for i := resampleTaps; i < len(out)-resampleTaps; i++ {
		assert.InDelta(t, 0.5, out[i], 1e-3)
	}
}

func TestBuildFrameTooShort(t *testing.T) {
	cfg := DefaultConfig()
	pcm := make([]int16, 5*12000)

	_, err := BuildFrame(pcm, 12000, 1, 0, time.Now(), cfg)
	assert.ErrorIs(t, err, ErrInsufficientAudio)
}

func TestBuildFramePadsMissingTail(t *testing.T) {
	cfg := DefaultConfig()
	full := int(SymbolSeconds * float64(NumSymbols) * float64(cfg.SampleRate))

	// 12.55 s: above the one-symbol-short minimum, below a full transmission.
	pcm := make([]int16, int(12.55*float64(cfg.SampleRate)))
	for i := range pcm {
		pcm[i] = 1000
	}

	start := time.Date(2026, 8, 28, 12, 0, 14, int(800*time.Millisecond), time.UTC)
	frame, err := BuildFrame(pcm, cfg.SampleRate, 1, 0, start, cfg)
	require.NoError(t, err)
	assert.Len(t, frame.Samples, full)
	assert.Equal(t, cfg.SampleRate, frame.Rate)
	assert.Equal(t, start, frame.Start)

	// The padded tail is silence.
	for i := full - 100; i < full; i++ {
		assert.Zero(t, frame.Samples[i])
	}
}

func TestBuildFrameMinimumBoundary(t *testing.T) {
	cfg := DefaultConfig()
	minSamples := int(math.Ceil(MinRecordSeconds() * float64(cfg.SampleRate)))

	_, err := BuildFrame(make([]int16, minSamples-1), cfg.SampleRate, 1, 0, time.Now(), cfg)
	assert.ErrorIs(t, err, ErrInsufficientAudio)

	frame, err := BuildFrame(make([]int16, minSamples), cfg.SampleRate, 1, 0, time.Now(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, frame)
}
