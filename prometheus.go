package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cwsl/ft8skimmer/ft8"
)

// Metrics holds the Prometheus collectors for the decode pipeline.
type Metrics struct {
	cyclesTotal      prometheus.Counter
	decodesTotal     *prometheus.CounterVec
	decodesPerCycle  prometheus.Gauge
	candidatesTotal  prometheus.Counter
	ldpcFailures     prometheus.Counter
	crcFailures      prometheus.Counter
	unknownTypes     prometheus.Counter
	decodeSeconds    prometheus.Histogram
	wsClients        prometheus.Gauge
	hashTableEntries prometheus.Gauge
}

// NewMetrics registers all collectors on the default registry.
func NewMetrics(band string) *Metrics {
	labels := prometheus.Labels{"band": band}

	return &Metrics{
		cyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "ft8_cycles_total",
			Help:        "Decode cycles completed",
			ConstLabels: labels,
		}),
		decodesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "ft8_decodes_total",
			Help:        "Decoded messages by message type",
			ConstLabels: labels,
		}, []string{"type"}),
		decodesPerCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "ft8_decodes_per_cycle",
			Help:        "Decoded messages in the most recent cycle",
			ConstLabels: labels,
		}),
		candidatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "ft8_candidates_total",
			Help:        "Sync candidates above threshold",
			ConstLabels: labels,
		}),
		ldpcFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "ft8_ldpc_failures_total",
			Help:        "Candidates that exhausted the LDPC iteration budget",
			ConstLabels: labels,
		}),
		crcFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "ft8_crc_failures_total",
			Help:        "Valid codewords rejected by CRC (false sync locks)",
			ConstLabels: labels,
		}),
		unknownTypes: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "ft8_unknown_types_total",
			Help:        "Valid codewords with an unrecognized message type tag",
			ConstLabels: labels,
		}),
		decodeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "ft8_decode_duration_seconds",
			Help:        "Wall time of one cycle's decode",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
		wsClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "ft8_websocket_clients",
			Help:        "Connected WebSocket subscribers",
			ConstLabels: labels,
		}),
		hashTableEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "ft8_callsign_hash_entries",
			Help:        "Callsigns held for hash resolution",
			ConstLabels: labels,
		}),
	}
}

// ObserveCycle records one cycle's report.
func (m *Metrics) ObserveCycle(report *ft8.CycleReport) {
	m.cyclesTotal.Inc()
	m.decodesPerCycle.Set(float64(len(report.Results)))
	m.candidatesTotal.Add(float64(report.Candidates))
	m.ldpcFailures.Add(float64(report.LDPCFailures))
	m.crcFailures.Add(float64(report.CRCFailures))
	m.unknownTypes.Add(float64(report.Unknown))
	m.decodeSeconds.Observe(report.Elapsed.Seconds())
	for _, r := range report.Results {
		m.decodesTotal.WithLabelValues(r.Message.Type.String()).Inc()
	}
}
