package streamtracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	stopped    bool
	overSize   bool
	overPacket bool
}

func (f *fakeAgent) StopStream() error     { f.stopped = true; return nil }
func (f *fakeAgent) CheckOverSize() bool   { return f.overSize }
func (f *fakeAgent) CheckOverPackets() bool { return f.overPacket }

func TestRegisterThenInfo(t *testing.T) {
	tr := New()
	agent := &fakeAgent{}
	id := tr.Register(agent, "test-stream", "pcapng", "/tmp/test.pcapng", "unit test stream")

	info, err := tr.Info(id)
	require.NoError(t, err)
	assert.Equal(t, "test-stream", info.Name)
	assert.False(t, info.Paused)
}

func TestRemoveStopsAgentAndDropsRecord(t *testing.T) {
	tr := New()
	agent := &fakeAgent{}
	id := tr.Register(agent, "s", "pcapng", "/tmp/x", "")

	require.NoError(t, tr.Remove(id))
	assert.True(t, agent.stopped)

	_, err := tr.Info(id)
	assert.ErrorIs(t, err, ErrNoSuchStream)
}

func TestCancelStreamsStopsEverything(t *testing.T) {
	tr := New()
	a1, a2 := &fakeAgent{}, &fakeAgent{}
	tr.Register(a1, "a", "t", "p", "")
	tr.Register(a2, "b", "t", "p", "")

	tr.CancelStreams()

	assert.True(t, a1.stopped)
	assert.True(t, a2.stopped)
	assert.Empty(t, tr.AllStreams())
}

func TestPauseResume(t *testing.T) {
	tr := New()
	id := tr.Register(&fakeAgent{}, "s", "t", "p", "")
	s, ok := tr.Stream(id)
	require.True(t, ok)

	s.Pause()
	assert.True(t, s.Paused())
	s.Resume()
	assert.False(t, s.Paused())
}

func TestRecordPacketReportsOverCaps(t *testing.T) {
	agent := &fakeAgent{}
	s := &Stream{ID: "x", Agent: agent, MaxPackets: 2, MaxBytes: 100}

	overSize, overPackets := s.RecordPacket(40)
	assert.False(t, overSize)
	assert.False(t, overPackets)

	overSize, overPackets = s.RecordPacket(40)
	assert.False(t, overSize)
	assert.True(t, overPackets)
}
