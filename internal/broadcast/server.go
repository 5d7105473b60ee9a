// Package broadcast implements the fanout engine: the publisher cadence,
// the naive and isolated broadcast strategies, the bounded per-client
// queue with drop-oldest semantics, the health policy, and client
// lifecycle. It is transport-agnostic — callers supply a Conn and get a
// *ClientState back.
package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/config"
	"github.com/rs/zerolog"
)

// Strategy selects how the Broadcaster fans envelopes out to clients.
type Strategy int

const (
	StrategyNaive Strategy = iota
	StrategyIsolated
)

// Config holds the subset of configuration the broadcast engine needs,
// decoupled from internal/config so this package has no dependency on
// environment parsing.
type Config struct {
	Strategy     Strategy
	Rate         float64
	PayloadBytes int
	MaxSize      int
	Policy       HealthPolicy
}

// NewConfigFromEnv adapts a loaded config.Config into broadcast.Config.
func NewConfigFromEnv(c *config.Config) Config {
	strategy := StrategyIsolated
	if config.Mode(c.Mode) == config.ModeNaive {
		strategy = StrategyNaive
	}
	return Config{
		Strategy:     strategy,
		Rate:         c.Rate,
		PayloadBytes: c.PayloadBytes,
		MaxSize:      c.MaxSize,
		Policy: HealthPolicy{
			DropLimit:   c.DropLimit,
			FullTimeout: time.Duration(c.FullTimeout * float64(time.Second)),
		},
	}
}

type admitRequest struct {
	conn Conn
	resp chan *ClientState
}

type evictRequest struct {
	id     int64
	reason string
}

// Server owns the Client Registry and drives the Publisher/Broadcaster
// cadence from a single goroutine (Run). The registry map below is
// mutated only by that goroutine; every other goroutine communicates
// admit/evict intents through channels (SPEC_FULL.md §5, design option
// (a)).
type Server struct {
	cfg      Config
	logger   zerolog.Logger
	observer Observer

	// clientsMu guards clients for the benefit of concurrent readers
	// (the Metrics worker, a real separate goroutine per SPEC_FULL.md
	// §5). It is taken for writing only by handleAdmit/handleEvict,
	// which both run exclusively on Run's goroutine — so this is not a
	// general-purpose lock protecting arbitrary mutation, just the
	// narrow read/write boundary between Run and Metrics.
	clientsMu sync.RWMutex
	clients   map[int64]*ClientState
	nextID    int64
	admitCh   chan admitRequest
	evictCh   chan evictRequest
	seq       uint64
	payload   string

	disconnectsMu sync.Mutex
	disconnects   int64
}

// NewServer constructs a Server. observer may be nil, in which case a
// no-op observer is used.
func NewServer(cfg Config, logger zerolog.Logger, observer Observer) *Server {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		clients:  make(map[int64]*ClientState),
		admitCh:  make(chan admitRequest),
		evictCh:  make(chan evictRequest, 256),
	}
}

// Admit registers a new connection and, in isolated mode, starts its
// Relay. It is safe to call from any goroutine (typically the HTTP
// upgrade handler); the actual map mutation happens on Run's goroutine.
func (s *Server) Admit(ctx context.Context, conn Conn) (*ClientState, error) {
	req := admitRequest{conn: conn, resp: make(chan *ClientState, 1)}
	select {
	case s.admitCh <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case cs := <-req.resp:
		return cs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RequestEvict asynchronously schedules a client for eviction. Safe to
// call from any goroutine, any number of times for the same client
// (idempotent — P4).
func (s *Server) RequestEvict(id int64, reason string) {
	select {
	case s.evictCh <- evictRequest{id: id, reason: reason}:
	default:
		// Channel is large and drained every tick; a full channel here
		// means the server is already shutting down or badly overloaded,
		// in which case dropping a duplicate eviction request is safe.
	}
}

// DisconnectCount returns the cumulative number of evictions/disconnects
// since startup.
func (s *Server) DisconnectCount() int64 {
	s.disconnectsMu.Lock()
	defer s.disconnectsMu.Unlock()
	return s.disconnects
}

// Snapshot returns the currently registered clients. Safe to call from
// any goroutine, including the independent Metrics worker.
func (s *Server) Snapshot() []*ClientState {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	out := make([]*ClientState, 0, len(s.clients))
	for _, cs := range s.clients {
		out = append(out, cs)
	}
	return out
}

// ClientCount returns the number of registered clients. Safe to call
// from any goroutine.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleAdmit(req admitRequest) {
	id := s.nextID + 1
	s.nextID = id

	cs := newClientState(id, req.conn)

	if s.cfg.Strategy == StrategyIsolated {
		cs.Queue = NewQueue(s.cfg.MaxSize)
		ctx, cancel := context.WithCancel(context.Background())
		cs.relayCancel = cancel
		cs.relayDone = make(chan struct{})
		go runRelay(ctx, cs, s.logger, func(reason string) {
			s.RequestEvict(id, reason)
		})
	}

	s.clientsMu.Lock()
	s.clients[id] = cs
	total := len(s.clients)
	s.clientsMu.Unlock()

	s.observer.ClientAdmitted(id)
	s.logger.Info().Int64("client_id", id).Int("total_clients", total).Msg("client connected")

	req.resp <- cs
}

// handleEvict removes a client from the registry. It is idempotent: a
// client already absent from the map (because a prior evict request was
// already processed) is a silent no-op, satisfying P4.
func (s *Server) handleEvict(req evictRequest) {
	s.clientsMu.Lock()
	cs, present := s.clients[req.id]
	if present {
		delete(s.clients, req.id)
	}
	remaining := len(s.clients)
	s.clientsMu.Unlock()

	if !present {
		return
	}

	cs.closeOnce.Do(func() {
		_ = cs.Conn.Close()
		if cs.relayCancel != nil {
			cs.relayCancel()
			<-cs.relayDone
		}
		if cs.Queue != nil {
			cs.Queue.Close()
		}
	})

	s.disconnectsMu.Lock()
	s.disconnects++
	s.disconnectsMu.Unlock()

	s.observer.ClientEvicted(req.id, req.reason)
	s.logger.Info().
		Int64("client_id", req.id).
		Str("reason", req.reason).
		Int64("drops_total", cs.DropsTotal()).
		Int("remaining_clients", remaining).
		Msg("client disconnected")
}

// drainEvictions processes every evict request currently queued without
// blocking, so a tick's eviction sweep never waits on new arrivals.
func (s *Server) drainEvictions() {
	for {
		select {
		case req := <-s.evictCh:
			s.handleEvict(req)
		default:
			return
		}
	}
}

// String is used in log lines and error messages for the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyNaive:
		return "naive"
	case StrategyIsolated:
		return "queue"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}
