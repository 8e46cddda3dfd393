package gps

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/geo"
)

// MetaSource passes through a location already supplied by a remote
// data source's own packet headers ('s "meta" driver), for
// remote capture sources that report their own GPS on each packet
// instead of this server reading a dedicated receiver.
type MetaSource struct {
	name         string
	cfg          *config.TuningConfig
	producerUUID uuid.UUID

	mu  sync.RWMutex
	loc geo.Location
}

// NewMetaSource builds a MetaSource.
func NewMetaSource(def Definition, cfg *config.TuningConfig, producerUUID uuid.UUID) *MetaSource {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	name := def.Name
	if name == "" {
		name = "meta"
	}
	return &MetaSource{name: name, cfg: cfg, producerUUID: producerUUID}
}

// Observe records a location reported alongside an inbound packet.
func (m *MetaSource) Observe(loc geo.Location) {
	loc.ProducerUUID = m.producerUUID
	loc.ProducerName = m.name
	if loc.Time.IsZero() {
		loc.Time = time.Now()
	}
	m.mu.Lock()
	m.loc = loc
	m.mu.Unlock()
}

func (m *MetaSource) Name() string   { return m.name }
func (m *MetaSource) DataOnly() bool { return false }
func (m *MetaSource) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loc.Time.IsZero() {
		return StateIdle
	}
	return StateReading
}
func (m *MetaSource) Location() geo.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loc
}
func (m *MetaSource) LocationValid(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loc.Valid(now, m.cfg.GetGPSValidAge())
}
func (m *MetaSource) Close() {}
