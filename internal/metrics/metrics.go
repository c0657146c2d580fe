package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges for the poll loop and the peer session. Registered
// once at package init on the default registry; the status server exposes
// them on /metrics.
var (
	Ticks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicord_ticks_total",
		Help: "Total number of poll loop ticks",
	})
	Publishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicord_publishes_total",
		Help: "Total number of presence updates sent to the peer",
	})
	Clears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicord_clears_total",
		Help: "Total number of presence clears sent to the peer",
	})
	ProbeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicord_probe_failures_total",
		Help: "Total number of failed media player probes",
	})
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicord_publish_failures_total",
		Help: "Total number of failed publish or clear attempts",
	})
	Handshakes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musicord_handshakes_total",
		Help: "Total number of successful peer handshakes",
	})
	PeerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "musicord_peer_connected",
		Help: "Whether a peer session is currently established (0 or 1)",
	})
)
