package gps

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/geo"
)

// VirtualSource emits a single constant location, parsed once from its
// definition's lat=/lon=/optional alt= ('s "virtual" driver).
// Useful for fixed installations with no real receiver.
type VirtualSource struct {
	name         string
	loc          geo.Location
	producerUUID uuid.UUID
	dataOnly     bool
}

// NewVirtualSource builds a VirtualSource from a parsed Definition.
func NewVirtualSource(def Definition, producerUUID uuid.UUID) (*VirtualSource, error) {
	latStr, ok := def.Options["lat"]
	if !ok {
		return nil, fmt.Errorf("virtual gps definition requires lat=")
	}
	lonStr, ok := def.Options["lon"]
	if !ok {
		return nil, fmt.Errorf("virtual gps definition requires lon=")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("virtual gps lat=%q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("virtual gps lon=%q: %w", lonStr, err)
	}
	var alt float64
	if altStr, ok := def.Options["alt"]; ok {
		alt, _ = strconv.ParseFloat(altStr, 64)
	}

	name := def.Name
	if name == "" {
		name = "virtual"
	}
	return &VirtualSource{
		name:         name,
		producerUUID: producerUUID,
		dataOnly:     def.DataOnly,
		loc: geo.Location{
			Lat: lat, Lon: lon, Alt: alt,
			Fix:          geo.Fix3D,
			ProducerUUID: producerUUID,
			ProducerName: name,
		},
	}, nil
}

func (v *VirtualSource) Name() string     { return v.name }
func (v *VirtualSource) DataOnly() bool   { return v.dataOnly }
func (v *VirtualSource) State() State     { return StateOpen }
func (v *VirtualSource) Location() geo.Location {
	loc := v.loc
	loc.Time = time.Now() // never stale: it's a fixed install location
	return loc
}
func (v *VirtualSource) LocationValid(now time.Time) bool { return true }
func (v *VirtualSource) Close()                           {}
