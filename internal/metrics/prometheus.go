// Package metrics wires the broadcast engine's events into Prometheus
// collectors and the periodic structured-log summary, and samples process
// resource usage for operability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups every Prometheus series this server exports. A single
// instance is created per process and registered with a dedicated
// registry (never the global one, so tests can construct independent
// instances without collisions).
type Collectors struct {
	Registry *prometheus.Registry

	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	DisconnectsTotal  *prometheus.CounterVec

	EnvelopesProduced prometheus.Counter
	DropsTotal        *prometheus.CounterVec
	QueueDepth        *prometheus.GaugeVec

	E2ELatencySeconds prometheus.Histogram

	ResidentMemoryBytes prometheus.Gauge
	CPUPercent          prometheus.Gauge
}

// NewCollectors constructs and registers every series.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		Registry: reg,
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fanout_connections_active",
			Help: "Currently registered client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanout_connections_total",
			Help: "Total client connections admitted since startup.",
		}),
		DisconnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_disconnects_total",
			Help: "Total client disconnects, labeled by reason.",
		}, []string{"reason"}),
		EnvelopesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanout_envelopes_produced_total",
			Help: "Total envelopes produced by the publisher.",
		}),
		DropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_drops_total",
			Help: "Total drop-oldest evictions performed, labeled by client id.",
		}, []string{"client_id"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fanout_queue_depth",
			Help: "Current per-client queue depth.",
		}, []string{"client_id"}),
		E2ELatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fanout_e2e_latency_seconds",
			Help:    "End-to-end latency reported via client acks.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		ResidentMemoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fanout_process_resident_memory_bytes",
			Help: "Resident memory of the server process.",
		}),
		CPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fanout_process_cpu_percent",
			Help: "Process CPU utilization percent, sampled periodically.",
		}),
	}

	reg.MustRegister(
		c.ConnectionsActive,
		c.ConnectionsTotal,
		c.DisconnectsTotal,
		c.EnvelopesProduced,
		c.DropsTotal,
		c.QueueDepth,
		c.E2ELatencySeconds,
		c.ResidentMemoryBytes,
		c.CPUPercent,
	)

	return c
}

// RecordAckLatency feeds an end-to-end latency sample into the
// histogram. d is expected to already be clamped to a non-negative
// duration by the caller.
func (c *Collectors) RecordAckLatency(d time.Duration) {
	c.E2ELatencySeconds.Observe(d.Seconds())
}
