package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientState_MeanSendTime(t *testing.T) {
	cs := newClientState(1, &fakeConn{})

	assert.Equal(t, time.Duration(0), cs.MeanSendTime())

	cs.recordSendTime(10 * time.Millisecond)
	cs.recordSendTime(20 * time.Millisecond)

	assert.Equal(t, 15*time.Millisecond, cs.MeanSendTime())
}

func TestClientState_SendTimesRingIsBounded(t *testing.T) {
	cs := newClientState(1, &fakeConn{})
	for i := 0; i < sendTimesCap+20; i++ {
		cs.recordSendTime(time.Millisecond)
	}
	assert.Len(t, cs.sendTimes, sendTimesCap)
}
