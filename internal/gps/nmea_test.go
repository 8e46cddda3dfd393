package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderGGASetsLatLonAltFix(t *testing.T) {
	d := NewDecoder()
	sample, ok, err := d.Feed("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 48.1173, sample.Lat, 0.001)
	assert.InDelta(t, 11.516667, sample.Lon, 0.001)
	assert.InDelta(t, 545.4, sample.Alt, 0.01)
	assert.Equal(t, 2, sample.Fix)
}

func TestDecoderGGAInheritsSpeedHeadingFromPriorVTG(t *testing.T) {
	d := NewDecoder()
	d.feedVTG([]string{"VTG", "084.4", "T", "077.4", "M", "022.4", "N", "041.5", "K"})
	sample, ok, err := d.Feed("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 41.5, sample.SpeedKmh, 0.01)
	assert.InDelta(t, 84.4, sample.HeadingTrue, 0.01)
}

func TestDecoderRMCInvalidFixReturnsNotOK(t *testing.T) {
	d := NewDecoder()
	_, ok, err := d.Feed("$GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecoderRMCConvertsKnotsToKmh(t *testing.T) {
	d := NewDecoder()
	sample, ok, err := d.Feed("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 22.4*1.852, sample.SpeedKmh, 0.01)
	assert.InDelta(t, 84.4, sample.HeadingTrue, 0.01)
}

func TestDecoderVTGInheritsLatLonFromPriorGGA(t *testing.T) {
	d := NewDecoder()
	_, ok, err := d.Feed("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.NoError(t, err)
	require.True(t, ok)

	d.feedVTG([]string{"VTG", "084.4", "T", "077.4", "M", "022.4", "N", "041.5", "K"})
	assert.InDelta(t, 48.1173, d.lat, 0.001)
	assert.InDelta(t, 41.5, d.speedKmh, 0.01)
}

func TestDecoderGSAOverridesFixOnlyWhenStricter(t *testing.T) {
	d := NewDecoder()
	d.fix = 2
	d.feedGSA([]string{"GPGSA", "A", "2", "04", "05"})
	assert.Equal(t, 2, d.fix)

	d.feedGSA([]string{"GPGSA", "A", "3", "04", "05"})
	assert.Equal(t, 3, d.fix)
}

func TestDecoderGSVDoesNotProduceSample(t *testing.T) {
	d := NewDecoder()
	_, ok, err := d.Feed("$GPGSV,3,1,11,03,03,111,00,04,15,270,00*75")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 11, d.satellitesInView)
}

func TestDecoderNonPrintableFirstCharWarnsOnce(t *testing.T) {
	d := NewDecoder()
	_, _, err := d.Feed(string([]byte{0x01, 'x'}))
	assert.ErrorIs(t, err, ErrFramingNoise)

	_, _, err = d.Feed(string([]byte{0x01, 'y'}))
	assert.NoError(t, err)
}

func TestDecoderEmptyLineIsIgnored(t *testing.T) {
	d := NewDecoder()
	_, ok, err := d.Feed("")
	require.NoError(t, err)
	assert.False(t, ok)
}
