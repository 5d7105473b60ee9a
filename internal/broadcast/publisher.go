package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/envelope"
)

// TickHook is invoked once per publish tick, after dispatch and health
// checks for that tick have completed, on Run's own goroutine.
// cmd/fanout passes nil; internal/metrics.Reporter does not use this
// hook and reads clients through Server.Snapshot on its own goroutine.
type TickHook func(s *Server)

// Run starts the Publisher/Broadcaster cadence and blocks until ctx is
// cancelled. On cancellation it evicts every remaining client and
// returns. tick, if non-nil, is called after every publish tick.
func (s *Server) Run(ctx context.Context, tick TickHook) error {
	payload, err := envelope.GeneratePayload(s.cfg.PayloadBytes)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	s.payload = payload

	interval := time.Duration(float64(time.Second) / s.cfg.Rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().
		Str("strategy", s.cfg.Strategy.String()).
		Float64("rate", s.cfg.Rate).
		Dur("interval", interval).
		Msg("publisher started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil

		case req := <-s.admitCh:
			s.handleAdmit(req)

		case req := <-s.evictCh:
			s.handleEvict(req)

		case <-ticker.C:
			s.produceAndDispatch(time.Now())
			if tick != nil {
				tick(s)
			}
		}
	}
}

// produceAndDispatch runs exactly one publish tick: assign the next
// seq, dispatch via the configured strategy, then run the Health
// Monitor sweep (isolated mode only) and drain any evictions that
// resulted.
func (s *Server) produceAndDispatch(now time.Time) {
	s.seq++
	env := envelope.Envelope{
		Seq:        s.seq,
		TsSend:     envelope.NowSeconds(now),
		PayloadB64: s.payload,
	}
	s.observer.EnvelopeProduced(env.Seq)

	switch s.cfg.Strategy {
	case StrategyNaive:
		s.dispatchNaive(env)
	default:
		s.dispatchIsolated(env, now)
	}

	s.drainEvictions()
}

// dispatchNaive writes directly to every client's socket in sequence,
// awaiting each write before moving to the next (§4.2). A client whose
// write fails is scheduled for eviction after the full pass completes,
// never mid-pass.
func (s *Server) dispatchNaive(env envelope.Envelope) {
	payload, err := env.Marshal()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal envelope")
		return
	}

	var failed []int64
	for id, cs := range s.clients {
		if err := cs.Conn.WriteMessage(payload); err != nil {
			failed = append(failed, id)
		}
	}

	for _, id := range failed {
		s.RequestEvict(id, "write_error")
	}
}

// dispatchIsolated enqueues env into every client's bounded queue via
// the drop-oldest primitive, never touching a socket directly (I6),
// then consults the Health Monitor for each client (§4.3, §4.5).
func (s *Server) dispatchIsolated(env envelope.Envelope, now time.Time) {
	for id, cs := range s.clients {
		if cs.Queue.Enqueue(env) {
			cs.recordDrop(now)
			s.observer.EnvelopeDropped(id)
		} else {
			cs.clearFullSince()
		}

		if s.cfg.Policy.Evaluate(cs, now) {
			s.logger.Info().
				Int64("client_id", id).
				Int64("drops_total", cs.DropsTotal()).
				Msg("auto-disconnecting slow client")
			s.RequestEvict(id, "slow_client")
		}
	}
}

// shutdown cancels every relay and evicts every remaining client. Run
// calls this exactly once, on ctx cancellation.
func (s *Server) shutdown() {
	s.logger.Info().Int("clients", len(s.clients)).Msg("publisher shutting down")
	for id := range s.clients {
		s.handleEvict(evictRequest{id: id, reason: "shutdown"})
	}
}
