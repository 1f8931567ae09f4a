package ft8

import (
	"errors"
	"fmt"
)

// Per-cycle and per-candidate failure conditions. Candidate-level failures
// (LDPC, CRC, unknown type) never abort the cycle; only insufficient audio
// or cancellation does.
var (
	// ErrInsufficientAudio means the capture window was too short to hold a
	// complete transmission. The cycle is skipped.
	ErrInsufficientAudio = errors.New("insufficient audio for a full transmission")

	// ErrLDPCFailed means the iteration budget was exhausted without
	// satisfying all parity checks.
	ErrLDPCFailed = errors.New("ldpc decode failed")

	// ErrCRCMismatch means the parity checks passed but the embedded CRC
	// did not match: a false sync lock.
	ErrCRCMismatch = errors.New("crc mismatch")
)

// UnknownTypeError reports a structurally valid payload whose message type
// tag matches no known variant. Surfaced, not dropped, so that new message
// types show up in diagnostics.
type UnknownTypeError struct {
	I3 uint8
	N3 uint8
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unrecognized message type %d.%d", e.I3, e.N3)
}
