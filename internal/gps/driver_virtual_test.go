package gps

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVirtualSourceRequiresLatLon(t *testing.T) {
	_, err := NewVirtualSource(Definition{Options: map[string]string{}}, uuid.New())
	assert.Error(t, err)

	_, err = NewVirtualSource(Definition{Options: map[string]string{"lat": "1.0"}}, uuid.New())
	assert.Error(t, err)
}

func TestVirtualSourceReturnsConstantLocation(t *testing.T) {
	def := Definition{Options: map[string]string{"lat": "48.1", "lon": "11.5", "alt": "500"}}
	v, err := NewVirtualSource(def, uuid.New())
	require.NoError(t, err)

	assert.True(t, v.LocationValid(time.Now()))
	loc := v.Location()
	assert.Equal(t, 48.1, loc.Lat)
	assert.Equal(t, 11.5, loc.Lon)
	assert.Equal(t, 500.0, loc.Alt)
	assert.False(t, v.DataOnly())
}
