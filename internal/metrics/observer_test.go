package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserver_ClientEvictedRemovesPerClientLabels(t *testing.T) {
	c := NewCollectors()
	o := NewObserver(c, NewLatencyRing(8))

	o.ClientAdmitted(1)
	o.SetQueueDepth(1, 5)
	o.EnvelopeDropped(1)

	assert.Equal(t, 1, testutil.CollectAndCount(c.QueueDepth))

	o.ClientEvicted(1, "slow_client")

	assert.Equal(t, 0, testutil.CollectAndCount(c.QueueDepth))
	assert.Equal(t, 0, testutil.CollectAndCount(c.DropsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.ConnectionsActive))
}

func TestObserver_AckReceivedClampsNegativeLatency(t *testing.T) {
	c := NewCollectors()
	ring := NewLatencyRing(8)
	o := NewObserver(c, ring)

	o.AckReceived(-5 * time.Millisecond)

	p50, _ := ring.Percentiles()
	assert.Equal(t, time.Duration(0), p50)
}
