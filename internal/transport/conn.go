package transport

import (
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// wsConn adapts a raw gobwas/ws connection to broadcast.Conn. Writes go
// straight to the socket rather than through a buffered writer: the
// Broadcaster already batches at the queue/relay level (one message per
// dequeue), so a second batching layer here would only add latency.
//
// writeMu serializes every frame written to the socket. Data frames
// (from the relay or dispatchNaive, via WriteMessage) and control pings
// (from pingPump, via WritePing) land on different goroutines; without
// this lock a ping can interleave its header/payload writes with an
// in-flight text frame and corrupt the WebSocket stream.
type wsConn struct {
	net.Conn
	writeMu sync.Mutex
}

func newWSConn(c net.Conn) *wsConn {
	return &wsConn{Conn: c}
}

func (c *wsConn) WriteMessage(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsutil.WriteServerMessage(c.Conn, ws.OpText, payload)
}

// WritePing writes a control ping frame, serialized against WriteMessage
// through the same lock.
func (c *wsConn) WritePing() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsutil.WriteServerMessage(c.Conn, ws.OpPing, nil)
}

func (c *wsConn) Close() error {
	return c.Conn.Close()
}
