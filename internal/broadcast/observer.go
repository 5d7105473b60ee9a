package broadcast

import "time"

// Observer receives lifecycle and delivery events for external reporting
// (metrics, structured logs). Implementations must not block meaningfully
// since every call happens inline on the Server's single owning goroutine
// (or, for AckReceived, on an inbound-reader goroutine).
type Observer interface {
	ClientAdmitted(id int64)
	ClientEvicted(id int64, reason string)
	EnvelopeProduced(seq uint64)
	EnvelopeDropped(id int64)
	AckReceived(latency time.Duration)
}

// NopObserver implements Observer with no-ops, so a Server can always be
// constructed without a real metrics backend (handy in tests).
type NopObserver struct{}

func (NopObserver) ClientAdmitted(int64)        {}
func (NopObserver) ClientEvicted(int64, string) {}
func (NopObserver) EnvelopeProduced(uint64)      {}
func (NopObserver) EnvelopeDropped(int64)        {}
func (NopObserver) AckReceived(time.Duration)    {}
