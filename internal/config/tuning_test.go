package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	assert.Equal(t, time.Duration(0), cfg.GetDeviceIdleTimeout())
	assert.Equal(t, 0, cfg.GetMaxDevices())
	assert.Equal(t, 60*time.Second, cfg.GetIdleSweepInterval())
	assert.Equal(t, 5*time.Second, cfg.GetOverflowSweepInterval())
	assert.Equal(t, 10*time.Second, cfg.GetProbeTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetListerTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetRemoteHandshakeTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetGPSReconnectDelay())
	assert.Equal(t, 30*time.Second, cfg.GetGPSIdleReopenDelay())
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	body, err := json.Marshal(map[string]any{
		"device_idle_timeout_seconds": 60,
		"max_devices":                 500,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.GetDeviceIdleTimeout())
	assert.Equal(t, 500, cfg.GetMaxDevices())
	// untouched fields keep their defaults
	assert.Equal(t, 10*time.Second, cfg.GetProbeTimeout())
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := LoadTuningConfig(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadDuration(t *testing.T) {
	bad := "not-a-duration"
	cfg := &TuningConfig{ProbeTimeout: &bad}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsNegativeMaxDevices(t *testing.T) {
	neg := -1
	cfg := &TuningConfig{MaxDevices: &neg}
	err := cfg.Validate()
	assert.Error(t, err)
}
