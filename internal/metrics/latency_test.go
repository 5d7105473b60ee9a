package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyRing_PercentilesEmpty(t *testing.T) {
	r := NewLatencyRing(8)
	p50, p95 := r.Percentiles()
	assert.Zero(t, p50)
	assert.Zero(t, p95)
}

func TestLatencyRing_PercentilesOrdered(t *testing.T) {
	r := NewLatencyRing(100)
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i) * time.Millisecond)
	}
	p50, p95 := r.Percentiles()
	assert.Equal(t, 51*time.Millisecond, p50)
	assert.Equal(t, 96*time.Millisecond, p95)
}

func TestLatencyRing_WrapsWhenFull(t *testing.T) {
	r := NewLatencyRing(3)
	r.Record(1 * time.Millisecond)
	r.Record(2 * time.Millisecond)
	r.Record(3 * time.Millisecond)
	r.Record(100 * time.Millisecond) // overwrites the 1ms sample

	p50, _ := r.Percentiles()
	assert.GreaterOrEqual(t, p50, 2*time.Millisecond)
}
