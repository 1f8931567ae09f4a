package ft8

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineDecodesSynthesizedSignal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	_, frame := monitorFrame(t, packStandardPayload("CQ", "K1ABC", "FN42"), 1500.0, 2)

	report, err := p.DecodeFrame(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Greater(t, report.Candidates, 0)

	res := report.Results[0]
	assert.Equal(t, "CQ K1ABC FN42", res.Message.String())
	assert.Equal(t, TypeStandard, res.Message.Type)
	assert.InDelta(t, 1500.0, res.Frequency, 3.0)
	// Signal starts two symbol blocks into a capture that opened 0.2 s
	// before the slot boundary.
	assert.InDelta(t, 2*SymbolSeconds-cfg.AdvanceSeconds, res.TimeOffset, 0.1)
	assert.Equal(t, frame.CycleStart(cfg.AdvanceDuration()), res.CycleStart)
}

func TestPipelineDecodeIsRepeatable(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	_, frame := monitorFrame(t, packStandardPayload("W9XYZ", "K1ABC", "EN37"), 2100.0, 2)

	first, err := p.DecodeFrame(context.Background(), frame)
	require.NoError(t, err)
	second, err := p.DecodeFrame(context.Background(), frame)
	require.NoError(t, err)

	require.Len(t, first.Results, 1)
	require.Len(t, second.Results, 1)
	assert.Equal(t, first.Results[0].Message, second.Results[0].Message)
	assert.Equal(t, first.Results[0].Frequency, second.Results[0].Frequency)
	assert.Equal(t, first.Results[0].SNR, second.Results[0].SNR)
}

func TestPipelineNoiseYieldsNothing(t *testing.T) {
	cfg := DefaultConfig()
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	samples := make([]float32, int(cfg.RecordSeconds*float64(cfg.SampleRate)))
	for i := range samples {
		samples[i] = float32(rng.NormFloat64()) * 0.05
	}
	frame := &AudioFrame{Samples: samples, Rate: cfg.SampleRate, Start: time.Now().UTC()}

	report, err := p.DecodeFrame(context.Background(), frame)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	// Any spurious candidates must have been counted as failures, not
	// promoted to results.
	assert.Equal(t, report.Candidates-report.LDPCFailures-report.CRCFailures-report.Unknown, 0)
}

func TestPipelineReportsUnknownTypeTags(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	// A structurally valid transmission carrying the unassigned type i3=7.
	var payload [10]uint8
	putBits(payload[:], 0, 0x1234567890ABC, 50)
	putBits(payload[:], 74, 7, 3)

	_, frame := monitorFrame(t, payload, 1200.0, 2)
	report, err := p.DecodeFrame(context.Background(), frame)
	require.NoError(t, err)

	assert.Empty(t, report.Results)
	require.Equal(t, 1, report.Unknown)
	require.Len(t, report.UnknownTags, 1)
	assert.Equal(t, uint8(7), report.UnknownTags[0].I3)
}

func TestPipelineRejectsWrongRate(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	frame := &AudioFrame{Samples: make([]float32, 48000), Rate: 48000, Start: time.Now()}
	_, err = p.DecodeFrame(context.Background(), frame)
	assert.Error(t, err)
}

func TestNewPipelineValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFreq = 100 // below MinFreq
	_, err := NewPipeline(cfg)
	assert.Error(t, err)
}

// stubSource serves one pre-captured frame, then reports end of input by
// blocking until cancellation.
type stubSource struct {
	frame *AudioFrame
	done  chan struct{}
}

func (s *stubSource) Capture(ctx context.Context, window CaptureWindow) (*AudioFrame, error) {
	select {
	case <-s.done:
		<-ctx.Done()
		return nil, ctx.Err()
	default:
		close(s.done)
		return s.frame, nil
	}
}

func TestPipelineRunEmitsAndStops(t *testing.T) {
	cfg := DefaultConfig()
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	_, frame := monitorFrame(t, packStandardPayload("CQ", "K1ABC", "FN42"), 1500.0, 2)
	source := &stubSource{frame: frame, done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	reports := make(chan *CycleReport, 1)

	runErr := make(chan error, 1)
	go func() {
		runErr <- p.Run(ctx, source, func(r *CycleReport) {
			select {
			case reports <- r:
			default:
			}
		})
	}()

	// The scheduler waits out the current slot before the stub delivers.
	select {
	case r := <-reports:
		require.Len(t, r.Results, 1)
		assert.Equal(t, "CQ K1ABC FN42", r.Results[0].Message.String())
	case <-time.After(20 * time.Second):
		t.Fatal("no cycle report emitted")
	}

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err, "cancellation is a clean shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
