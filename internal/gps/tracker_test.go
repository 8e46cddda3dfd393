package gps

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kismetwireless/kismet-core/internal/config"
)

func TestTrackerOpenVirtualRegistersSource(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())
	src, err := tr.Open(context.Background(), "virtual:lat=48.0,lon=11.0", 0, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, src)

	assert.Len(t, tr.Sources(), 1)
}

func TestTrackerOpenRejectsUnknownScheme(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())
	_, err := tr.Open(context.Background(), "bogus:foo=bar", 0, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestTrackerBestLocationSkipsDataOnlyAndInvalid(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())

	dataOnlySrc, err := tr.Open(context.Background(), "virtual:lat=1,lon=1,data_only=true", 0, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, dataOnlySrc)

	_, err = tr.Open(context.Background(), "virtual:lat=48.0,lon=11.0", 1, uuid.New())
	require.NoError(t, err)

	loc, ok := tr.BestLocation(time.Now())
	require.True(t, ok)
	assert.Equal(t, 48.0, loc.Lat)
}

func TestTrackerBestLocationOrdersByPriority(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())
	_, err := tr.Open(context.Background(), "virtual:lat=2,lon=2", 5, uuid.New())
	require.NoError(t, err)
	_, err = tr.Open(context.Background(), "virtual:lat=1,lon=1", 0, uuid.New())
	require.NoError(t, err)

	loc, ok := tr.BestLocation(time.Now())
	require.True(t, ok)
	assert.Equal(t, 1.0, loc.Lat)
}

func TestTrackerRemoveDropsSource(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())
	src, err := tr.Open(context.Background(), "virtual:lat=1,lon=1", 0, uuid.New())
	require.NoError(t, err)

	tr.Remove(src)
	assert.Empty(t, tr.Sources())
}

func TestLocationForPacketSkipsWhenAlreadyHasLocationOrNoGPSMarker(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())
	_, err := tr.Open(context.Background(), "virtual:lat=1,lon=1", 0, uuid.New())
	require.NoError(t, err)

	assert.Nil(t, tr.LocationForPacket(time.Now(), true, false))
	assert.Nil(t, tr.LocationForPacket(time.Now(), false, true))

	loc := tr.LocationForPacket(time.Now(), false, false)
	require.NotNil(t, loc)
	assert.Equal(t, 1.0, loc.Lat)
}

func TestTrackerRunPublishesLocationEvents(t *testing.T) {
	tr := NewTracker(config.EmptyTuningConfig())
	_, err := tr.Open(context.Background(), "virtual:lat=1,lon=1", 0, uuid.New())
	require.NoError(t, err)

	_, ch := tr.Events().Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	select {
	case ev := <-ch:
		assert.True(t, ev.Valid)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a location event within 2s")
	}
}
