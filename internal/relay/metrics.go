package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments for the relay.
// Pass to components that need to record metrics.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	RequestsTotal     *prometheus.CounterVec
	HandshakeFailures prometheus.Counter
	ActiveSessions    prometheus.Gauge
	FramesEchoedTotal *prometheus.CounterVec
	FrameRoundTrip    prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "echorelay",
				Name:      "connections_total",
				Help:      "Total number of accepted connections",
			},
		),
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echorelay",
				Name:      "requests_total",
				Help:      "Total number of requests by dispatch path",
			},
			[]string{"path"}, // path=http/upgrade/upgrade_failed
		),
		HandshakeFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "echorelay",
				Name:      "handshake_failures_total",
				Help:      "Total number of rejected upgrade attempts",
			},
		),
		ActiveSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "echorelay",
				Name:      "active_sessions",
				Help:      "Number of live streaming sessions",
			},
		),
		FramesEchoedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echorelay",
				Name:      "frames_echoed_total",
				Help:      "Total frames echoed back on streaming sessions",
			},
			[]string{"opcode"}, // opcode=text/binary
		),
		FrameRoundTrip: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "echorelay",
				Name:      "frame_round_trip_seconds",
				Help:      "Per-frame read-to-write round trip duration",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
