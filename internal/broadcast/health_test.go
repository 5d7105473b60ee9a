package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newClientForHealth() *ClientState {
	return newClientState(1, &fakeConn{})
}

// P7 — drops older than 10s do not count toward the drop-limit decision.
func TestHealthPolicy_DropWindowPruning(t *testing.T) {
	cs := newClientForHealth()
	base := time.Now()

	cs.recordDrop(base.Add(-20 * time.Second))
	cs.recordDrop(base.Add(-15 * time.Second))
	cs.recordDrop(base.Add(-1 * time.Second))

	policy := HealthPolicy{DropLimit: 1, FullTimeout: time.Hour}
	evict := policy.Evaluate(cs, base)

	assert.False(t, evict, "only one drop is within the trailing 10s window")
	assert.Equal(t, 1, cs.dropCount())
}

// S4-style: exceeding drop_limit within the window triggers eviction.
func TestHealthPolicy_EvictsOnDropLimitExceeded(t *testing.T) {
	cs := newClientForHealth()
	now := time.Now()

	for i := 0; i < 6; i++ {
		cs.recordDrop(now)
	}

	policy := HealthPolicy{DropLimit: 5, FullTimeout: time.Hour}
	assert.True(t, policy.Evaluate(cs, now))
}

// S5-style: a queue that has been continuously full past full_timeout
// triggers eviction even with an enormous drop_limit.
func TestHealthPolicy_EvictsOnFullTimeoutExceeded(t *testing.T) {
	cs := newClientForHealth()
	start := time.Now()
	cs.recordDrop(start)

	policy := HealthPolicy{DropLimit: 1_000_000, FullTimeout: time.Second}

	assert.False(t, policy.Evaluate(cs, start.Add(500*time.Millisecond)))
	assert.True(t, policy.Evaluate(cs, start.Add(1100*time.Millisecond)))
}

// P6 — full_since resets to null once the queue is observed non-full.
func TestClientState_ClearFullSinceResetsToNull(t *testing.T) {
	cs := newClientForHealth()
	now := time.Now()
	cs.recordDrop(now)

	full, _ := cs.fullSince()
	assert.True(t, full)

	cs.clearFullSince()
	full, since := cs.fullSince()
	assert.False(t, full)
	assert.True(t, since.IsZero())
}
