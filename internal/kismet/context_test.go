package kismet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresEverySubsystem(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Devices)
	assert.NotNil(t, c.Views)
	assert.NotNil(t, c.Sources)
	assert.NotNil(t, c.Streams)
	assert.NotNil(t, c.GPS)
	assert.NotNil(t, c.IPC)
	assert.NotNil(t, c.HTTP)
	assert.NotEmpty(t, c.Registry.AllFields())
}

func TestNewPersistsServerUUIDAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server_uuid")

	c1, err := New(Options{ServerUUIDPath: path})
	require.NoError(t, err)
	c1.Close()

	c2, err := New(Options{ServerUUIDPath: path})
	require.NoError(t, err)
	defer c2.Close()

	assert.Equal(t, c1.ServerUUID, c2.ServerUUID)
}

func TestNewRejectsUnreadableConfig(t *testing.T) {
	_, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	c.Close()
	assert.NotPanics(t, func() { c.Close() })
}

func TestLoadOrCreateServerUUIDEphemeralWhenPathEmpty(t *testing.T) {
	id1, err := loadOrCreateServerUUID("")
	require.NoError(t, err)
	id2, err := loadOrCreateServerUUID("")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestLoadOrCreateServerUUIDIgnoresGarbageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server_uuid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-uuid"), 0o644))

	id, err := loadOrCreateServerUUID(path)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", id.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), id.String())
}
