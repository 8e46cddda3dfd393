package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefinitionSplitsIfaceAndOptions(t *testing.T) {
	def, err := ParseDefinition("wlan1:type=linuxwifi,channel=6")
	require.NoError(t, err)
	assert.Equal(t, "wlan1", def.Iface)
	assert.Equal(t, "linuxwifi", def.Type)
	assert.Equal(t, "6", def.Options["channel"])
}

func TestParseDefinitionNoOptionsLeavesTypeEmpty(t *testing.T) {
	def, err := ParseDefinition("wlan1")
	require.NoError(t, err)
	assert.Equal(t, "wlan1", def.Iface)
	assert.Equal(t, "", def.Type)
}

func TestParseDefinitionRejectsCommaBeforeColon(t *testing.T) {
	_, err := ParseDefinition("wlan1,type=linuxwifi:channel=6")
	assert.ErrorIs(t, err, ErrMalformedDefinition)
}

func TestParseDefinitionAllowsCommaAfterColon(t *testing.T) {
	_, err := ParseDefinition("wlan1:type=linuxwifi,channel=6,channel=11")
	assert.NoError(t, err)
}
