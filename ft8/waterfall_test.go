package ft8

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorGrid(t *testing.T) {
	m := NewMonitor(DefaultConfig())

	assert.Equal(t, 1920, m.BlockSize)
	assert.Equal(t, 3840, m.NFFT)
	assert.InDelta(t, 3.125, m.Waterfall.BinWidthHz, 1e-9)
	assert.Equal(t, 160, m.Waterfall.MinBin) // 500 Hz
	assert.Equal(t, 400, m.Waterfall.NumBins)
	// A 15 s slot holds 93 full symbol blocks plus the trailing partial.
	assert.Equal(t, 94, m.Waterfall.MaxBlocks)
}

func TestMonitorStoresToneEnergy(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMonitor(cfg)

	// Six blocks of a steady 1500 Hz tone, exactly on an FFT bin.
	samples := make([]float32, 6*m.BlockSize)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*1500.0*float64(i)/float64(cfg.SampleRate)))
	}
	frame := &AudioFrame{Samples: samples, Rate: cfg.SampleRate, Start: time.Now()}

	m.ProcessFrame(frame)
	require.Equal(t, 6, m.Waterfall.NumBlocks)

	fftBin := int(math.Round(1500.0 / m.Waterfall.BinWidthHz))
	toneBin := (fftBin - m.Waterfall.MinBin) / cfg.FreqOSR
	on := m.Waterfall.Mag8(4, toneBin, 0, 0)
	off := m.Waterfall.Mag8(4, toneBin+40, 0, 0) // 250 Hz away
	assert.Greater(t, on, uint8(200))
	assert.Less(t, off, on)

	// Out-of-range reads are zero, not panics.
	assert.Zero(t, m.Waterfall.Mag8(-1, toneBin, 0, 0))
	assert.Zero(t, m.Waterfall.Mag8(6, toneBin, 0, 0))
	assert.Zero(t, m.Waterfall.Mag8(0, -1, 0, 0))
	assert.Zero(t, m.Waterfall.Mag8(0, m.Waterfall.NumBins, 0, 0))
}

func TestMonitorReset(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMonitor(cfg)

	m.Process(make([]float32, m.BlockSize))
	require.Equal(t, 1, m.Waterfall.NumBlocks)

	m.Reset()
	assert.Zero(t, m.Waterfall.NumBlocks)
}

func TestMonitorCapsAtMaxBlocks(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMonitor(cfg)

	frame := &AudioFrame{
		Samples: make([]float32, (m.Waterfall.MaxBlocks+5)*m.BlockSize),
		Rate:    cfg.SampleRate,
		Start:   time.Now(),
	}
	m.ProcessFrame(frame)
	assert.Equal(t, m.Waterfall.MaxBlocks, m.Waterfall.NumBlocks)
}
