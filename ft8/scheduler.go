package ft8

import (
	"context"
	"time"
)

/*
 * Cycle Scheduler
 * Aligns capture windows to the 15-second UTC slot grid
 */

// CaptureWindow delimits one cycle's recording interval.
type CaptureWindow struct {
	Boundary time.Time     // The nominal slot start (a 15 s UTC multiple)
	Start    time.Time     // Boundary minus the configured advance
	Duration time.Duration // Length of the capture
}

// End returns the instant the capture window closes.
func (w CaptureWindow) End() time.Time {
	return w.Start.Add(w.Duration)
}

// Scheduler computes slot boundaries and blocks until capture windows open.
// It carries no mutable state: every boundary is recomputed from the clock
// passed in, which keeps cycles independently testable. If the caller's
// clock is more than one slot out of sync, cycles silently shift by a full
// slot; time-sync correctness is the host's responsibility.
type Scheduler struct {
	Advance time.Duration // Capture lead before the boundary
	Record  time.Duration // Capture length

	// now is the clock source, overridable in tests. Nil means time.Now.
	now func() time.Time
}

// NewScheduler builds a scheduler from the pipeline configuration.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{
		Advance: cfg.AdvanceDuration(),
		Record:  cfg.RecordDuration(),
	}
}

// NextBoundary returns the first slot boundary strictly after t. Boundaries
// sit on 15-second multiples of the UTC epoch regardless of when the
// scheduler is asked.
func (s *Scheduler) NextBoundary(t time.Time) time.Time {
	slot := int64(SlotSeconds)
	sec := t.Unix()
	next := (sec/slot + 1) * slot
	return time.Unix(next, 0).UTC()
}

// NextWindow returns the next capture window whose start is not before t.
// The window opens Advance before the boundary so transmissions arriving a
// few hundred milliseconds early are not clipped.
func (s *Scheduler) NextWindow(t time.Time) CaptureWindow {
	boundary := s.NextBoundary(t)
	start := boundary.Add(-s.Advance)
	if start.Before(t) {
		boundary = s.NextBoundary(boundary)
		start = boundary.Add(-s.Advance)
	}
	return CaptureWindow{Boundary: boundary, Start: start, Duration: s.Record}
}

// Wait blocks until the next capture window opens and returns it. A
// cancelled context aborts the wait with no side effects.
func (s *Scheduler) Wait(ctx context.Context) (CaptureWindow, error) {
	clock := s.now
	if clock == nil {
		clock = time.Now
	}

	w := s.NextWindow(clock())
	timer := time.NewTimer(w.Start.Sub(clock()))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return CaptureWindow{}, ctx.Err()
	case <-timer.C:
		return w, nil
	}
}
