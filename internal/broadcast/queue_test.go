package broadcast

import (
	"testing"

	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(seq uint64) envelope.Envelope {
	return envelope.Envelope{Seq: seq, PayloadB64: "x"}
}

// S1 — drop-oldest basic.
func TestQueue_DropOldestBasic(t *testing.T) {
	q := NewQueue(2)

	require.False(t, q.Enqueue(env(1)))
	require.False(t, q.Enqueue(env(2)))
	dropped := q.Enqueue(env(3))

	assert.True(t, dropped)
	assert.Equal(t, []envelope.Envelope{env(2), env(3)}, q.Snapshot())
}

// S2 — enqueueing up to exactly capacity never drops.
func TestQueue_FillsToCapacityWithoutDropping(t *testing.T) {
	q := NewQueue(2)

	d1 := q.Enqueue(env(1))
	d2 := q.Enqueue(env(2))

	assert.False(t, d1)
	assert.False(t, d2)
	assert.Equal(t, 2, q.Len())
}

// S3 — drain then refill behaves like a fresh insert, not a drop.
func TestQueue_DrainThenRefillDoesNotDrop(t *testing.T) {
	q := NewQueue(1)

	require.False(t, q.Enqueue(env(1))) // full, no drop
	require.True(t, q.Enqueue(env(2)))  // drop "1", keep "2"

	_, ok := q.Dequeue()
	require.True(t, ok)

	dropped := q.Enqueue(env(3))
	assert.False(t, dropped)
	assert.Equal(t, []envelope.Envelope{env(3)}, q.Snapshot())
}

// P2 — bounded queue: depth never exceeds capacity regardless of burst size.
func TestQueue_NeverExceedsCapacity(t *testing.T) {
	q := NewQueue(3)
	for i := uint64(1); i <= 50; i++ {
		q.Enqueue(env(i))
		require.LessOrEqual(t, q.Len(), 3)
	}
	assert.Equal(t, 3, q.Len())
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewQueue(4)
	done := make(chan envelope.Envelope, 1)

	go func() {
		e, ok := q.Dequeue()
		if ok {
			done <- e
		}
	}()

	q.Enqueue(env(7))
	e := <-done
	assert.Equal(t, uint64(7), e.Seq)
}

func TestQueue_CloseUnblocksDequeue(t *testing.T) {
	q := NewQueue(4)
	result := make(chan bool, 1)

	go func() {
		_, ok := q.Dequeue()
		result <- ok
	}()

	q.Close()
	assert.False(t, <-result)
}

func TestQueue_EnqueueAfterCloseIsNoop(t *testing.T) {
	q := NewQueue(2)
	q.Close()

	dropped := q.Enqueue(env(1))
	assert.False(t, dropped)
	assert.Equal(t, 0, q.Len())
}
