// Package config holds the server's tuning knobs: device-tracker
// eviction thresholds, data-source probe/hop timing, and GPS reconnect
// timing. Pointer fields with omitempty so a partial JSON file only
// overrides what it names, with Get* accessors that fall back to a
// documented default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the canonical tuning defaults file searched for
// by MustLoadDefaultConfig.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for server tuning parameters.
type TuningConfig struct {
	// Device tracker
	DeviceIdleTimeoutSeconds *int64 `json:"device_idle_timeout_seconds,omitempty"`
	DeviceIdleMinPackets     *int64 `json:"device_idle_min_packets,omitempty"`
	MaxDevices               *int   `json:"max_devices,omitempty"`
	IdleSweepInterval         *string `json:"idle_sweep_interval,omitempty"`
	OverflowSweepInterval     *string `json:"overflow_sweep_interval,omitempty"`

	// Data-source tracker
	ProbeTimeout           *string `json:"probe_timeout,omitempty"`
	ListerTimeout          *string `json:"lister_timeout,omitempty"`
	RemoteHandshakeTimeout *string `json:"remote_handshake_timeout,omitempty"`
	DefaultHopRate         *float64 `json:"default_hop_rate,omitempty"`
	SplitSameSourceChannels *bool   `json:"split_same_source_channels,omitempty"`
	SourceStaggerThreshold  *int    `json:"source_stagger_threshold,omitempty"`
	SourceLaunchGroup       *int    `json:"source_launch_group,omitempty"`
	SourceLaunchDelay       *string `json:"source_launch_delay,omitempty"`
	CleanupSweepInterval    *string `json:"cleanup_sweep_interval,omitempty"`

	// GPS subsystem
	GPSReconnectDelay  *string `json:"gps_reconnect_delay,omitempty"`
	GPSIdleReopenDelay *string `json:"gps_idle_reopen_delay,omitempty"`
	GPSValidAge        *string `json:"gps_valid_age,omitempty"`
	GPSWebValidAge     *string `json:"gps_web_valid_age,omitempty"`
	GPSBearingMinGap   *string `json:"gps_bearing_min_gap,omitempty"`

	// IPC tracker
	IPCReaperInterval *string `json:"ipc_reaper_interval,omitempty"`
	IPCSoftKillDelay  *string `json:"ipc_soft_kill_delay,omitempty"`
	IPCMaxKillDelay   *string `json:"ipc_max_kill_delay,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with every field nil, so
// every Get* falls through to its compiled-in default.
func EmptyTuningConfig() *TuningConfig { return &TuningConfig{} }

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields
// omitted from the file keep their documented defaults, so partial
// configs are always safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults, searching
// upward from the current directory. Panics if the file is missing;
// intended for tests and binaries that already validated availability.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from the repository root")
}

// Validate checks that any set duration strings actually parse.
func (c *TuningConfig) Validate() error {
	durations := map[string]*string{
		"idle_sweep_interval":       c.IdleSweepInterval,
		"overflow_sweep_interval":   c.OverflowSweepInterval,
		"probe_timeout":             c.ProbeTimeout,
		"lister_timeout":            c.ListerTimeout,
		"remote_handshake_timeout":  c.RemoteHandshakeTimeout,
		"source_launch_delay":       c.SourceLaunchDelay,
		"cleanup_sweep_interval":    c.CleanupSweepInterval,
		"gps_reconnect_delay":       c.GPSReconnectDelay,
		"gps_idle_reopen_delay":     c.GPSIdleReopenDelay,
		"gps_valid_age":             c.GPSValidAge,
		"gps_web_valid_age":         c.GPSWebValidAge,
		"gps_bearing_min_gap":       c.GPSBearingMinGap,
		"ipc_reaper_interval":       c.IPCReaperInterval,
		"ipc_soft_kill_delay":       c.IPCSoftKillDelay,
		"ipc_max_kill_delay":        c.IPCMaxKillDelay,
	}
	for name, v := range durations {
		if v == nil || *v == "" {
			continue
		}
		if _, err := time.ParseDuration(*v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, *v, err)
		}
	}
	if c.MaxDevices != nil && *c.MaxDevices < 0 {
		return fmt.Errorf("max_devices must be non-negative, got %d", *c.MaxDevices)
	}
	return nil
}

func durationOrDefault(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

func (c *TuningConfig) GetDeviceIdleTimeout() time.Duration {
	if c.DeviceIdleTimeoutSeconds == nil {
		return 0 // disabled by default, per 
	}
	return time.Duration(*c.DeviceIdleTimeoutSeconds) * time.Second
}

func (c *TuningConfig) GetDeviceIdleMinPackets() int64 {
	if c.DeviceIdleMinPackets == nil {
		return 0
	}
	return *c.DeviceIdleMinPackets
}

func (c *TuningConfig) GetMaxDevices() int {
	if c.MaxDevices == nil {
		return 0 // disabled by default
	}
	return *c.MaxDevices
}

func (c *TuningConfig) GetIdleSweepInterval() time.Duration {
	return durationOrDefault(c.IdleSweepInterval, 60*time.Second)
}

func (c *TuningConfig) GetOverflowSweepInterval() time.Duration {
	return durationOrDefault(c.OverflowSweepInterval, 5*time.Second)
}

func (c *TuningConfig) GetProbeTimeout() time.Duration {
	return durationOrDefault(c.ProbeTimeout, 10*time.Second)
}

func (c *TuningConfig) GetListerTimeout() time.Duration {
	return durationOrDefault(c.ListerTimeout, 5*time.Second)
}

func (c *TuningConfig) GetRemoteHandshakeTimeout() time.Duration {
	return durationOrDefault(c.RemoteHandshakeTimeout, 5*time.Second)
}

func (c *TuningConfig) GetDefaultHopRate() float64 {
	if c.DefaultHopRate == nil {
		return 5.0 // channels/sec
	}
	return *c.DefaultHopRate
}

func (c *TuningConfig) GetSplitSameSourceChannels() bool {
	if c.SplitSameSourceChannels == nil {
		return true
	}
	return *c.SplitSameSourceChannels
}

func (c *TuningConfig) GetSourceStaggerThreshold() int {
	if c.SourceStaggerThreshold == nil {
		return 5
	}
	return *c.SourceStaggerThreshold
}

func (c *TuningConfig) GetSourceLaunchGroup() int {
	if c.SourceLaunchGroup == nil {
		return 2
	}
	return *c.SourceLaunchGroup
}

func (c *TuningConfig) GetSourceLaunchDelay() time.Duration {
	return durationOrDefault(c.SourceLaunchDelay, 1*time.Second)
}

func (c *TuningConfig) GetCleanupSweepInterval() time.Duration {
	return durationOrDefault(c.CleanupSweepInterval, 1*time.Second)
}

func (c *TuningConfig) GetGPSReconnectDelay() time.Duration {
	return durationOrDefault(c.GPSReconnectDelay, 10*time.Second)
}

func (c *TuningConfig) GetGPSIdleReopenDelay() time.Duration {
	return durationOrDefault(c.GPSIdleReopenDelay, 30*time.Second)
}

func (c *TuningConfig) GetGPSValidAge() time.Duration {
	return durationOrDefault(c.GPSValidAge, 10*time.Second)
}

func (c *TuningConfig) GetGPSWebValidAge() time.Duration {
	return durationOrDefault(c.GPSWebValidAge, 30*time.Second)
}

func (c *TuningConfig) GetGPSBearingMinGap() time.Duration {
	return durationOrDefault(c.GPSBearingMinGap, 5*time.Second)
}

func (c *TuningConfig) GetIPCReaperInterval() time.Duration {
	return durationOrDefault(c.IPCReaperInterval, 1*time.Second)
}

func (c *TuningConfig) GetIPCSoftKillDelay() time.Duration {
	return durationOrDefault(c.IPCSoftKillDelay, 5*time.Second)
}

func (c *TuningConfig) GetIPCMaxKillDelay() time.Duration {
	return durationOrDefault(c.IPCMaxKillDelay, 15*time.Second)
}
