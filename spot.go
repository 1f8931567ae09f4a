package main

import (
	"time"

	"github.com/cwsl/ft8skimmer/ft8"
)

// Spot is the published form of one decoded transmission.
type Spot struct {
	Time       time.Time `json:"time"`        // Cycle slot boundary, UTC
	Band       string    `json:"band,omitempty"`
	Frequency  uint64    `json:"frequency"`   // RF frequency in Hz (dial + audio offset)
	AudioFreq  float64   `json:"audio_freq"`  // Audio offset in Hz
	SNR        float32   `json:"snr"`         // dB in 2500 Hz reference bandwidth
	DT         float64   `json:"dt"`          // Start offset from the slot boundary, seconds
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	CallTo     string    `json:"call_to,omitempty"`
	CallDe     string    `json:"call_de,omitempty"`
	Locator    string    `json:"locator,omitempty"`
	DistanceKm float64   `json:"distance_km,omitempty"`
	BearingDeg float64   `json:"bearing_deg,omitempty"`
}

// CycleBatch is one cycle's complete spot set, published as a unit.
type CycleBatch struct {
	CycleStart   time.Time `json:"cycle_start"`
	Spots        []Spot    `json:"spots"`
	Candidates   int       `json:"candidates"`
	LDPCFailures int       `json:"ldpc_failures"`
	CRCFailures  int       `json:"crc_failures"`
	ElapsedMs    int64     `json:"elapsed_ms"`
}

// BuildBatch converts a cycle report into the published batch, enriching
// spots with RF frequency and distance/bearing from the station locator.
func BuildBatch(report *ft8.CycleReport, cfg *Config) *CycleBatch {
	batch := &CycleBatch{
		CycleStart:   report.CycleStart,
		Spots:        make([]Spot, 0, len(report.Results)),
		Candidates:   report.Candidates,
		LDPCFailures: report.LDPCFailures,
		CRCFailures:  report.CRCFailures,
		ElapsedMs:    report.Elapsed.Milliseconds(),
	}

	for _, r := range report.Results {
		spot := Spot{
			Time:      r.CycleStart,
			Band:      cfg.Source.Band,
			Frequency: cfg.Source.DialFrequency + uint64(r.Frequency+0.5),
			AudioFreq: r.Frequency,
			SNR:       r.SNR,
			DT:        r.TimeOffset,
			Message:   r.Message.String(),
			Type:      r.Message.Type.String(),
			CallTo:    r.Message.CallTo,
			CallDe:    r.Message.CallDe,
		}
		if looksLikeLocator(r.Message.Extra) {
			spot.Locator = r.Message.Extra
			if cfg.Station.Locator != "" {
				if dist, brg, err := DistanceFromLocators(cfg.Station.Locator, spot.Locator); err == nil {
					spot.DistanceKm = dist
					spot.BearingDeg = brg
				}
			}
		}
		batch.Spots = append(batch.Spots, spot)
	}
	return batch
}
