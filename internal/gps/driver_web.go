package gps

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/config"
	"github.com/kismetwireless/kismet-core/internal/geo"
)

// WebFix is the JSON body the HTTP handler decodes from a POST or
// WebSocket push: {"lat":..,"lon":..,"alt":..,"spd":..}.
type WebFix struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
	Spd float64 `json:"spd"`
}

// WebSource is fed externally by an HTTP handler rather than pulling
// from a Conn; Push is called once per POST/WebSocket message.
type WebSource struct {
	name         string
	cfg          *config.TuningConfig
	producerUUID uuid.UUID

	mu  sync.RWMutex
	loc geo.Location
}

// NewWebSource builds a WebSource. cfg supplies the looser validity
// window web pushes get.
func NewWebSource(def Definition, cfg *config.TuningConfig, producerUUID uuid.UUID) *WebSource {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	name := def.Name
	if name == "" {
		name = "web"
	}
	return &WebSource{name: name, cfg: cfg, producerUUID: producerUUID}
}

// Push records a new fix pushed by the HTTP layer.
func (w *WebSource) Push(fix WebFix) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loc = geo.Location{
		Lat: fix.Lat, Lon: fix.Lon, Alt: fix.Alt,
		SpeedMps:     fix.Spd,
		Fix:          geo.Fix3D,
		Time:         time.Now(),
		ProducerUUID: w.producerUUID,
		ProducerName: w.name,
	}
}

func (w *WebSource) Name() string   { return w.name }
func (w *WebSource) DataOnly() bool { return false }
func (w *WebSource) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.loc.Time.IsZero() {
		return StateIdle
	}
	return StateReading
}
func (w *WebSource) Location() geo.Location {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loc
}
func (w *WebSource) LocationValid(now time.Time) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loc.Valid(now, w.cfg.GetGPSWebValidAge())
}
func (w *WebSource) Close() {}
