// Package transport wires the broadcast engine to real WebSocket sockets:
// the upgrade handler, per-client ping/read pumps, and inbound ack
// parsing. The broadcast package never imports this one — Conn keeps
// the dependency pointing the other way.
package transport

import (
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/broadcast"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/envelope"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/ratelimit"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds the subset of ambient configuration the transport layer
// needs: keepalive cadence. The inbound rate limits arrive separately,
// as the ratelimit.PerClient passed to NewServer.
type Config struct {
	PingInterval time.Duration
	PingTimeout  time.Duration
}

// Server upgrades HTTP connections to WebSocket and admits them into a
// broadcast.Server, then runs the per-client ping and read pumps for
// the lifetime of the connection.
type Server struct {
	cfg      Config
	engine   *broadcast.Server
	observer broadcast.Observer
	limiters *ratelimit.PerClient
	logger   zerolog.Logger
}

// NewServer constructs a transport Server. observer receives AckReceived
// calls parsed off the inbound socket — pass the same Observer given to
// the broadcast.Server so ack latency and the rest of the lifecycle
// events land on one collector.
func NewServer(cfg Config, engine *broadcast.Server, observer broadcast.Observer, limiters *ratelimit.PerClient, logger zerolog.Logger) *Server {
	if observer == nil {
		observer = broadcast.NopObserver{}
	}
	return &Server{cfg: cfg, engine: engine, observer: observer, limiters: limiters, logger: logger}
}

// Handler returns the /ws upgrade handler.
func (s *Server) Handler() http.HandlerFunc {
	return s.handleWebSocket
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	cs, err := s.engine.Admit(r.Context(), newWSConn(conn))
	if err != nil {
		s.logger.Debug().Err(err).Msg("admission failed, closing connection")
		conn.Close()
		return
	}

	limiter := s.limiters.New()

	go s.pingPump(cs)
	go s.readPump(cs, limiter)
}

// pingPump sends a control ping every PingInterval so idle-but-alive
// clients are distinguishable from ones whose socket has wedged. A
// write failure here is treated the same as any other write failure:
// the client gets evicted.
func (s *Server) pingPump(cs *broadcast.ClientState) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	conn := cs.Conn.(*wsConn)
	for range ticker.C {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.PingTimeout))
		if err := conn.WritePing(); err != nil {
			s.engine.RequestEvict(cs.ID, "write_error")
			return
		}
	}
}

// readPump consumes inbound frames: client acks (used to measure
// end-to-end latency) and keepalive traffic. Any read error — including
// the socket closing because handleEvict closed it — ends the pump.
// Frames arriving faster than the configured rate are silently dropped,
// identically to malformed ones.
func (s *Server) readPump(cs *broadcast.ClientState, limiter *rate.Limiter) {
	conn := cs.Conn.(*wsConn)
	conn.SetReadDeadline(time.Now().Add(s.cfg.PingTimeout))

	for {
		msg, op, err := wsutil.ReadClientData(conn.Conn)
		if err != nil {
			s.engine.RequestEvict(cs.ID, "read_error")
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.PingTimeout))

		if op != ws.OpText {
			continue
		}
		if !limiter.Allow() {
			continue
		}

		ts, ok := envelope.ParseAck(msg)
		if !ok {
			continue
		}
		sentAt := envelope.NowSeconds(time.Now())
		latency := time.Duration((sentAt - ts) * float64(time.Second))
		s.observer.AckReceived(latency)
	}
}
