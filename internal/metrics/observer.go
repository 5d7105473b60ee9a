package metrics

import (
	"strconv"
	"time"
)

// Observer implements broadcast.Observer by forwarding every lifecycle
// and delivery event into the Prometheus collectors and the latency
// ring. It satisfies the interface structurally, so the broadcast
// package never imports metrics; cmd/fanout passes it to both
// broadcast.NewServer and transport.NewServer.
type Observer struct {
	collectors *Collectors
	latencies  *LatencyRing
}

// NewObserver builds an Observer backed by the given collectors and
// latency ring.
func NewObserver(c *Collectors, ring *LatencyRing) *Observer {
	return &Observer{collectors: c, latencies: ring}
}

func (o *Observer) ClientAdmitted(id int64) {
	o.collectors.ConnectionsTotal.Inc()
	o.collectors.ConnectionsActive.Inc()
}

func (o *Observer) ClientEvicted(id int64, reason string) {
	o.collectors.ConnectionsActive.Dec()
	o.collectors.DisconnectsTotal.WithLabelValues(reason).Inc()
	o.collectors.QueueDepth.DeleteLabelValues(strconv.FormatInt(id, 10))
	o.collectors.DropsTotal.DeleteLabelValues(strconv.FormatInt(id, 10))
}

func (o *Observer) EnvelopeProduced(seq uint64) {
	o.collectors.EnvelopesProduced.Inc()
}

func (o *Observer) EnvelopeDropped(id int64) {
	o.collectors.DropsTotal.WithLabelValues(strconv.FormatInt(id, 10)).Inc()
}

func (o *Observer) AckReceived(latency time.Duration) {
	if latency < 0 {
		latency = 0
	}
	o.latencies.Record(latency)
	o.collectors.RecordAckLatency(latency)
}

// SetQueueDepth updates the per-client queue depth gauge. Called by the
// reporter on each tick rather than on every enqueue, since the gauge
// only needs to be accurate at observation granularity.
func (o *Observer) SetQueueDepth(id int64, depth int) {
	o.collectors.QueueDepth.WithLabelValues(strconv.FormatInt(id, 10)).Set(float64(depth))
}

// Percentiles exposes the latency ring's p50/p95 for the structured
// summary log line.
func (o *Observer) Percentiles() (p50, p95 time.Duration) {
	return o.latencies.Percentiles()
}
