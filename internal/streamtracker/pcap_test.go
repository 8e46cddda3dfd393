package streamtracker

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error { b.closed = true; return nil }

func TestPcapNgAgentWritesPackets(t *testing.T) {
	buf := &bufCloser{}
	agent, err := NewPcapNgAgent(buf, layers.LinkTypeEthernet, 65535, 0, 0)
	require.NoError(t, err)

	n, err := agent.WritePacket([]byte{1, 2, 3, 4}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Greater(t, buf.Len(), 0)
}

func TestPcapNgAgentStopStreamClosesUnderlying(t *testing.T) {
	buf := &bufCloser{}
	agent, err := NewPcapNgAgent(buf, layers.LinkTypeEthernet, 65535, 0, 0)
	require.NoError(t, err)

	require.NoError(t, agent.StopStream())
	assert.True(t, buf.closed)

	_, err = agent.WritePacket([]byte{1}, time.Now())
	assert.Error(t, err)
}

func TestPcapNgAgentChecksOverCaps(t *testing.T) {
	buf := &bufCloser{}
	agent, err := NewPcapNgAgent(buf, layers.LinkTypeEthernet, 65535, 10, 1)
	require.NoError(t, err)

	assert.False(t, agent.CheckOverSize())
	assert.False(t, agent.CheckOverPackets())

	_, err = agent.WritePacket([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, time.Now())
	require.NoError(t, err)

	assert.True(t, agent.CheckOverSize())
	assert.True(t, agent.CheckOverPackets())
}
