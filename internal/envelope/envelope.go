// Package envelope defines the wire message broadcast to every subscriber
// and the inbound acknowledgement clients may send back.
package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the unit broadcast to every connected client. Field names
// match the wire contract exactly; do not rename without updating clients.
type Envelope struct {
	Seq        uint64  `json:"seq"`
	TsSend     float64 `json:"ts_send"`
	PayloadB64 string  `json:"payload_b64"`
}

// Marshal serializes the envelope. In naive mode the Broadcaster calls it
// once per tick and reuses the bytes for every client; in isolated mode
// each client's relay calls it on every envelope it dequeues.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Ack is the only inbound message shape the server understands. All other
// fields and malformed frames are ignored silently.
type Ack struct {
	AckTs float64 `json:"ack_ts"`
}

// ParseAck extracts ack_ts from a raw inbound frame. It returns ok=false for
// malformed JSON or a frame missing ack_ts, never an error — per the error
// taxonomy, malformed inbound content is not a reportable condition.
func ParseAck(raw []byte) (ts float64, ok bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, false
	}
	field, present := probe["ack_ts"]
	if !present {
		return 0, false
	}
	if err := json.Unmarshal(field, &ts); err != nil {
		return 0, false
	}
	return ts, true
}

// NowSeconds returns wall-clock time as floating-point seconds, the unit
// ts_send and ack_ts are both expressed in.
func NowSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// GeneratePayload produces a base64-encoded blob of approximately n
// pre-base64 bytes. Called once at startup; the Publisher reuses the
// result for every envelope so payload construction cost never affects
// throughput.
func GeneratePayload(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("envelope: negative payload size %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("envelope: generate payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
