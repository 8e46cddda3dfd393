package gps

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kismetwireless/kismet-core/internal/config"
)

func TestParseDefinitionSplitsSchemeAndOptions(t *testing.T) {
	def, err := ParseDefinition("serial:device=/dev/ttyUSB0,baud=4800,name=gps0,reconnect=true")
	require.NoError(t, err)
	assert.Equal(t, "serial", def.Scheme)
	assert.Equal(t, "gps0", def.Name)
	assert.True(t, def.Reconnect)
	assert.Equal(t, "/dev/ttyUSB0", def.Options["device"])
	assert.Equal(t, "4800", def.Options["baud"])
}

func TestParseDefinitionRejectsMissingScheme(t *testing.T) {
	_, err := ParseDefinition("no-colon-here")
	assert.Error(t, err)
}

// fakeConn feeds a fixed sequence of lines, then blocks until ctx is
// canceled, mimicking a Conn that has gone quiet.
type fakeConn struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (c *fakeConn) ReadLine(ctx context.Context) (string, error) {
	c.mu.Lock()
	if len(c.lines) > 0 {
		line := c.lines[0]
		c.lines = c.lines[1:]
		c.mu.Unlock()
		return line, nil
	}
	c.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func TestDriverIngestsGGAIntoLocation(t *testing.T) {
	conn := &fakeConn{lines: []string{"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"}}
	dial := func(ctx context.Context, def Definition) (Conn, error) { return conn, nil }

	def := Definition{Scheme: "tcp", Options: map[string]string{}}
	cfg := config.EmptyTuningConfig()
	d := NewDriver(def, dial, cfg, uuid.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.Eventually(t, func() bool {
		return d.Location().Fix >= 2
	}, time.Second, 5*time.Millisecond)

	loc := d.Location()
	assert.InDelta(t, 48.1173, loc.Lat, 0.001)
	d.Close()
	assert.True(t, conn.closed)
}

func TestDriverLocationValidRespectsAge(t *testing.T) {
	d := &Driver{cfg: config.EmptyTuningConfig(), def: Definition{Scheme: "tcp"}}
	d.current.Fix = 3
	d.current.Time = time.Now().Add(-time.Hour)
	assert.False(t, d.LocationValid(time.Now()))

	d.current.Time = time.Now()
	assert.True(t, d.LocationValid(time.Now()))
}

func TestDriverWaitReconnectFalseWhenNotConfigured(t *testing.T) {
	d := &Driver{cfg: config.EmptyTuningConfig(), def: Definition{Reconnect: false}, stop: make(chan struct{})}
	assert.False(t, d.waitReconnect(context.Background()))
}

func TestDialTCPRejectsMissingHost(t *testing.T) {
	_, err := dialTCP(context.Background(), Definition{Options: map[string]string{}})
	assert.Error(t, err)
}

func TestDialSerialRejectsMissingDevice(t *testing.T) {
	_, err := dialSerial(context.Background(), Definition{Options: map[string]string{}})
	assert.Error(t, err)
}

func TestBearingComputesHeadingBetweenTwoPoints(t *testing.T) {
	brg, ok := bearing(48.0, 11.0, 48.1, 11.0)
	require.True(t, ok)
	assert.InDelta(t, 0, brg, 1) // due north

	_, ok = bearing(48.0, 11.0, 48.0, 11.0)
	assert.False(t, ok)
}
