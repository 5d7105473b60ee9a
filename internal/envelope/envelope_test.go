package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAck_Valid(t *testing.T) {
	ts, ok := ParseAck([]byte(`{"ack_ts": 1234.5}`))
	require.True(t, ok)
	assert.Equal(t, 1234.5, ts)
}

func TestParseAck_MissingField(t *testing.T) {
	_, ok := ParseAck([]byte(`{"other": 1}`))
	assert.False(t, ok)
}

func TestParseAck_MalformedJSON(t *testing.T) {
	_, ok := ParseAck([]byte(`not json`))
	assert.False(t, ok)
}

func TestParseAck_WrongType(t *testing.T) {
	_, ok := ParseAck([]byte(`{"ack_ts": "nope"}`))
	assert.False(t, ok)
}

func TestEnvelope_MarshalFieldNames(t *testing.T) {
	e := Envelope{Seq: 1, TsSend: 2.5, PayloadB64: "abc"}
	b, err := e.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":1,"ts_send":2.5,"payload_b64":"abc"}`, string(b))
}

func TestGeneratePayload_Length(t *testing.T) {
	p, err := GeneratePayload(64)
	require.NoError(t, err)
	// 64 bytes -> 22 base64 groups of 4 characters (with padding).
	assert.Len(t, p, 88)
}

func TestGeneratePayload_NegativeSize(t *testing.T) {
	_, err := GeneratePayload(-1)
	assert.Error(t, err)
}
