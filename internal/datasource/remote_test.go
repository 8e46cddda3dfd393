package datasource

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kismetwireless/kismet-core/internal/config"
)

// fakeRemoteConn stands in for a real TCP/WebSocket transport in tests
// that exercise Tracker.openRemote without opening a real socket.
type fakeRemoteConn struct{ closed bool }

func (c *fakeRemoteConn) Close() error {
	c.closed = true
	return nil
}

func TestParseHandshakeJSON(t *testing.T) {
	id := uuid.New()
	raw, err := json.Marshal(handshakeJSON{
		Definition: "eth0",
		SourceType: "rtl433",
		UUID:       id.String(),
	})
	require.NoError(t, err)

	rec, err := parseHandshake(raw)
	require.NoError(t, err)
	assert.Equal(t, "eth0", rec.Definition)
	assert.Equal(t, "rtl433", rec.SourceType)
	assert.Equal(t, id, rec.UUID)
}

func TestParseHandshakeJSONRejectsBadUUID(t *testing.T) {
	raw := []byte(`{"definition":"eth0","sourcetype":"rtl433","uuid":"not-a-uuid"}`)
	_, err := parseHandshake(raw)
	assert.ErrorIs(t, err, ErrMalformedDefinition)
}

func buildLegacyHandshake(definition, sourcetype, id string) []byte {
	var b []byte
	b = protowire.AppendTag(b, legacyFieldDefinition, protowire.BytesType)
	b = protowire.AppendString(b, definition)
	b = protowire.AppendTag(b, legacyFieldSourceType, protowire.BytesType)
	b = protowire.AppendString(b, sourcetype)
	b = protowire.AppendTag(b, legacyFieldUUID, protowire.BytesType)
	b = protowire.AppendString(b, id)
	return b
}

func TestParseHandshakeProtobuf(t *testing.T) {
	id := uuid.New()
	raw := buildLegacyHandshake("eth0", "rtl433", id.String())

	rec, err := parseHandshake(raw)
	require.NoError(t, err)
	assert.Equal(t, "eth0", rec.Definition)
	assert.Equal(t, "rtl433", rec.SourceType)
	assert.Equal(t, id, rec.UUID)
}

func TestParseHandshakeProtobufIgnoresUnknownFields(t *testing.T) {
	id := uuid.New()
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = append(b, buildLegacyHandshake("eth0", "rtl433", id.String())...)

	rec, err := parseHandshake(b)
	require.NoError(t, err)
	assert.Equal(t, id, rec.UUID)
}

func TestOpenRemoteClaimsRemoteCapableDriver(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig(), nil)
	drv := &fakeDriver{class: "rtl433", remote: true, handle: &Handle{}}
	require.NoError(t, tr.RegisterDriver(drv))

	rec := HandshakeRecord{Definition: "rtl0", SourceType: "rtl433", UUID: uuid.New()}
	src, err := tr.openRemote(context.Background(), rec, &fakeRemoteConn{})
	require.NoError(t, err)
	assert.Equal(t, rec.UUID, src.UUID)
	assert.Equal(t, SourceRunning, src.State())
}

func TestOpenRemoteFailsWithNoRemoteCapableDriver(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig(), nil)
	require.NoError(t, tr.RegisterDriver(&fakeDriver{class: "rtl433", remote: false}))

	rec := HandshakeRecord{Definition: "rtl0", SourceType: "rtl433", UUID: uuid.New()}
	_, err := tr.openRemote(context.Background(), rec, &fakeRemoteConn{})
	assert.ErrorIs(t, err, ErrNoRemoteDriver)
}

func TestOpenRemoteReconnectsExistingUUID(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig(), nil)
	drv := &fakeDriver{class: "rtl433", remote: true, handle: &Handle{}}
	require.NoError(t, tr.RegisterDriver(drv))

	id := uuid.New()
	rec := HandshakeRecord{Definition: "rtl0", SourceType: "rtl433", UUID: id}

	first, err := tr.openRemote(context.Background(), rec, &fakeRemoteConn{})
	require.NoError(t, err)
	require.Equal(t, id, first.UUID)

	second, err := tr.openRemote(context.Background(), rec, &fakeRemoteConn{})
	require.NoError(t, err)
	assert.Equal(t, id, second.UUID)
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, SourceRunning, second.State())
}
