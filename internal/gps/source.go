package gps

import (
	"time"

	"github.com/kismetwireless/kismet-core/internal/geo"
)

// Source is anything the tracker can hold a priority slot for: the
// line-oriented *Driver (serial, tcp) and the three drivers that don't
// fit that shape (virtual, web, meta). gpsd also implements Source
// directly since its framing is its own state machine, not raw NMEA
// lines, for most of its life.
type Source interface {
	Name() string
	DataOnly() bool
	State() State
	Location() geo.Location
	LocationValid(now time.Time) bool
	Close()
}
