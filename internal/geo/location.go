// Package geo defines the location value shared between the GPS
// subsystem and the device tracker, so neither package
// needs to import the other to pass a fix around.
package geo

import (
	"time"

	"github.com/google/uuid"
)

// Fix quality, per : 0 none, 2 2-D, 3 3-D.
type Fix int

const (
	FixNone Fix = 0
	Fix2D   Fix = 2
	Fix3D   Fix = 3
)

// Location is one GPS fix: lat/lon/alt, speed, true and magnetic
// heading, fix quality, error estimates, and its producer.
type Location struct {
	Lat, Lon, Alt    float64
	SpeedMps         float64
	HeadingTrue      float64
	HeadingMagnetic  float64
	Fix              Fix
	ErrorLat         float64
	ErrorLon         float64
	ErrorAlt         float64
	Time             time.Time
	ProducerUUID     uuid.UUID
	ProducerName     string
}

// Valid reports whether the fix is usable for attachment to a packet:
// fix >= 2 and not stale. maxAge lets callers use a looser threshold
// for push-based producers (the "web" GPS driver, ).
func (l *Location) Valid(now time.Time, maxAge time.Duration) bool {
	if l == nil || l.Fix < Fix2D {
		return false
	}
	return now.Sub(l.Time) < maxAge
}
