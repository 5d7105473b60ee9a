package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerClient_NewLimiterEnforcesBurst(t *testing.T) {
	f := NewPerClient(10, 2)
	limiter := f.New()

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow(), "third immediate call should exceed the burst of 2")
}

func TestPerClient_IndependentLimitersPerClient(t *testing.T) {
	f := NewPerClient(10, 1)
	a := f.New()
	b := f.New()

	assert.True(t, a.Allow())
	assert.False(t, a.Allow())
	assert.True(t, b.Allow(), "a separate client's limiter must not be affected by a's consumption")
}
