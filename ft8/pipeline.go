package ft8

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

/*
 * Capture-and-Decode Pipeline
 * Drives the cycle loop: wait for the slot window, capture audio, decode.
 * Decoding of cycle N overlaps capture of cycle N+1 through a capacity-1
 * handoff; a cycle whose decode cannot start in time is dropped whole.
 */

// DecodeResult is one decoded transmission.
type DecodeResult struct {
	Message    Message
	Frequency  float64 // Audio base frequency, Hz
	TimeOffset float64 // Start relative to the slot boundary, seconds
	SNR        float32
	Score      int       // Sync score of the winning candidate
	CycleStart time.Time // Slot boundary of the cycle
}

// CycleReport is the complete outcome of one cycle's decode, emitted as a
// single batch.
type CycleReport struct {
	CycleStart   time.Time
	Results      []DecodeResult
	Candidates   int // Lock points that passed the sync threshold
	LDPCFailures int
	CRCFailures  int
	Unknown      int               // Valid codewords with an unhandled message type
	UnknownTags  []UnknownTypeError // The i3/n3 tags of those codewords
	Elapsed      time.Duration
}

// SampleSource delivers the PCM for one capture window. Capture blocks
// until the window's audio is complete or ctx is done.
type SampleSource interface {
	Capture(ctx context.Context, window CaptureWindow) (*AudioFrame, error)
}

// Pipeline owns the per-cycle decode state. One Pipeline serves one
// receive channel; the callsign hash table persists across cycles.
type Pipeline struct {
	cfg    Config
	hashes *CallsignHashTable
}

// NewPipeline validates the configuration and builds a pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	return &Pipeline{
		cfg:    cfg,
		hashes: NewCallsignHashTable(0),
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// HashTableSize returns the number of callsigns held for hash resolution.
func (p *Pipeline) HashTableSize() int {
	return p.hashes.Size()
}

// DecodeFrame runs the full decode chain on one captured frame and returns
// the cycle's complete result batch. Per-candidate failures are counted,
// not returned; the error covers conditions that fail the whole cycle.
func (p *Pipeline) DecodeFrame(ctx context.Context, frame *AudioFrame) (*CycleReport, error) {
	started := time.Now()

	if frame.Rate != p.cfg.SampleRate {
		return nil, fmt.Errorf("frame rate %d Hz, decoder runs at %d Hz", frame.Rate, p.cfg.SampleRate)
	}

	mon := NewMonitor(p.cfg)
	mon.ProcessFrame(frame)
	wf := mon.Waterfall

	candidates := FindCandidates(wf, p.cfg)

	report := &CycleReport{
		CycleStart: frame.CycleStart(p.cfg.AdvanceDuration()),
		Candidates: len(candidates),
	}

	var (
		mu      sync.Mutex
		results []DecodeResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range candidates {
		cand := &candidates[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := p.decodeCandidate(wf, cand, report.CycleStart)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				results = append(results, res)
			case errors.Is(err, ErrLDPCFailed):
				report.LDPCFailures++
			case errors.Is(err, ErrCRCMismatch):
				report.CRCFailures++
			default:
				var ute *UnknownTypeError
				if errors.As(err, &ute) {
					report.Unknown++
					report.UnknownTags = append(report.UnknownTags, *ute)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Cancelled mid-cycle: partial results are discarded.
		return nil, err
	}

	report.Results = Aggregate(results, p.cfg)
	report.Elapsed = time.Since(started)
	return report, nil
}

// decodeCandidate runs one candidate through demodulation, LDPC, CRC and
// unpacking.
func (p *Pipeline) decodeCandidate(wf *Waterfall, cand *Candidate, cycleStart time.Time) (DecodeResult, error) {
	llr := ExtractLikelihoods(wf, cand)

	codeword, parityErrors := DecodeLDPC(llr, p.cfg.LDPCIterations)
	if parityErrors > 0 {
		return DecodeResult{}, fmt.Errorf("%w: %d parity errors", ErrLDPCFailed, parityErrors)
	}
	// The all-zero codeword satisfies every check of a linear code; a quiet
	// channel converges to it.
	allZero := true
	for _, b := range codeword {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return DecodeResult{}, fmt.Errorf("%w: trivial codeword", ErrLDPCFailed)
	}

	a91 := PackBits(codeword[:MessageBits])
	if !CheckCRC(a91) {
		return DecodeResult{}, ErrCRCMismatch
	}

	var payload [10]uint8
	copy(payload[:], a91[:10])
	msg, err := Unpack(payload, p.hashes)
	if err != nil {
		return DecodeResult{}, err
	}

	return DecodeResult{
		Message:    msg,
		Frequency:  cand.Frequency(wf),
		TimeOffset: cand.TimeOffsetSeconds(wf) - p.cfg.AdvanceSeconds,
		SNR:        EstimateSNR(wf, cand, &codeword),
		Score:      int(cand.Score),
		CycleStart: cycleStart,
	}, nil
}

// Run drives the capture/decode loop until ctx is cancelled. Each cycle's
// report is delivered through emit from the decode goroutine; emit must not
// block for long or cycles will be dropped.
func (p *Pipeline) Run(ctx context.Context, source SampleSource, emit func(*CycleReport)) error {
	sched := NewScheduler(p.cfg)
	frames := make(chan *AudioFrame, 1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for frame := range frames {
			report, err := p.DecodeFrame(gctx, frame)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("[FT8] decode failed for cycle %s: %v",
					frame.CycleStart(p.cfg.AdvanceDuration()).Format("15:04:05"), err)
				continue
			}
			emit(report)
		}
		return nil
	})

	g.Go(func() error {
		defer close(frames)
		for {
			window, err := sched.Wait(gctx)
			if err != nil {
				return err
			}

			frame, err := source.Capture(gctx, window)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("[FT8] capture failed: %v", err)
				continue
			}

			select {
			case frames <- frame:
			default:
				// Previous cycle still decoding: drop this one whole.
				log.Printf("[FT8] decoder busy, dropping cycle %s",
					window.Boundary.Format("15:04:05"))
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
