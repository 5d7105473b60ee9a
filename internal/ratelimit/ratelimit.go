// Package ratelimit bounds how often a single client's inbound frames
// are parsed, so a client flooding garbage frames cannot burn CPU in
// the JSON decoder. It is an ambient protection, not part of the
// broadcast algorithm itself: rejected frames are handled exactly like
// malformed ones (silently dropped).
package ratelimit

import (
	"golang.org/x/time/rate"
)

// PerClient is a factory for per-connection token buckets, each
// permitting r parses/second with burst b.
type PerClient struct {
	r rate.Limit
	b int
}

// NewPerClient builds a factory using the given rate (parses/sec) and
// burst allowance.
func NewPerClient(ratePerSec float64, burst int) *PerClient {
	return &PerClient{r: rate.Limit(ratePerSec), b: burst}
}

// New allocates a fresh limiter for one client connection.
func (f *PerClient) New() *rate.Limiter {
	return rate.NewLimiter(f.r, f.b)
}
