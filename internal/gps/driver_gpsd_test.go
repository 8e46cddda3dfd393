package gps

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kismetwireless/kismet-core/internal/config"
)

func newTestGpsdSource() *GpsdSource {
	return NewGpsdSource(Definition{Options: map[string]string{}}, config.EmptyTuningConfig(), uuid.New())
}

func TestGpsdIngestJSONTPVSetsLocation(t *testing.T) {
	g := newTestGpsdSource()
	g.ingest(`{"class":"TPV","mode":3,"lat":48.1,"lon":11.5,"alt":500,"track":90,"speed":5}`)

	loc := g.Location()
	assert.Equal(t, 48.1, loc.Lat)
	assert.Equal(t, 5.0, loc.SpeedMps)
	assert.Equal(t, 90.0, loc.HeadingTrue)
}

func TestGpsdIngestJSONTPVWithNoFixIsIgnored(t *testing.T) {
	g := newTestGpsdSource()
	g.ingest(`{"class":"TPV","mode":1,"lat":48.1,"lon":11.5}`)
	assert.Equal(t, 0.0, g.Location().Lat)
}

func TestGpsdIngestJSONATTSetsHeading(t *testing.T) {
	g := newTestGpsdSource()
	g.ingest(`{"class":"TPV","mode":3,"lat":1,"lon":2,"track":0}`)
	g.ingest(`{"class":"ATT","heading":123.4}`)
	assert.InDelta(t, 123.4, g.Location().HeadingTrue, 0.01)
}

func TestGpsdIngestLegacyOParsesLatLon(t *testing.T) {
	g := newTestGpsdSource()
	g.ingest("GPSD,O=GPS 1234567890.000 48.100000 11.500000 500.0 0.0 0.0 0.0 0.0 2.5 0.0 3 5")
	loc := g.Location()
	assert.InDelta(t, 48.1, loc.Lat, 0.0001)
	assert.InDelta(t, 11.5, loc.Lon, 0.0001)
}

func TestGpsdIngestRawNMEAFallback(t *testing.T) {
	g := newTestGpsdSource()
	g.ingest("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	loc := g.Location()
	assert.InDelta(t, 48.1173, loc.Lat, 0.001)
}
