package broadcast

import (
	"context"
	"time"

	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/envelope"
	"github.com/rs/zerolog"
)

type dequeueResult struct {
	e  envelope.Envelope
	ok bool
}

// runRelay drains cs.Queue and writes each envelope to cs.Conn. It is
// the only goroutine, in isolated mode, that writes envelopes to the
// client's socket (I6). It exits on cancellation, a closed queue, or any
// transport error. onTerminate is called exactly once, regardless of
// which exit path is taken, so the caller can unregister idempotently.
func runRelay(ctx context.Context, cs *ClientState, logger zerolog.Logger, onTerminate func(reason string)) {
	defer close(cs.relayDone)

	for {
		resultCh := make(chan dequeueResult, 1)
		go func() {
			e, ok := cs.Queue.Dequeue()
			resultCh <- dequeueResult{e: e, ok: ok}
		}()

		select {
		case <-ctx.Done():
			cs.Queue.Close()
			onTerminate("evicted")
			return
		case res := <-resultCh:
			if !res.ok {
				onTerminate("queue_closed")
				return
			}
			payload, err := res.e.Marshal()
			if err != nil {
				logger.Error().Int64("client_id", cs.ID).Err(err).Msg("failed to marshal envelope for relay")
				continue
			}
			start := time.Now()
			if err := cs.Conn.WriteMessage(payload); err != nil {
				logger.Info().Int64("client_id", cs.ID).Err(err).Msg("relay write failed, disconnecting client")
				onTerminate("write_error")
				return
			}
			cs.recordSendTime(time.Since(start))
		}
	}
}
