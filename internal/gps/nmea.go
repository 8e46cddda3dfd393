package gps

import (
	"fmt"
	"strconv"
	"strings"
)

// Decoder accumulates NMEA sentences into a running location, the way
// original_source's gpsnmea_v2.cc does: GGA sets lat/lon/alt/fix-count
// and inherits speed/heading from the prior sample; RMC sets validity
// and lat/lon/speed and takes heading from its track-made-good field when
// present, otherwise inheriting it; VTG sets true/magnetic track
// and speed directly; GSA overrides the fix mode when it reports a
// stricter fix; GSV is parsed (for satellite count bookkeeping) but not
// otherwise consumed.
type Decoder struct {
	lat, lon, alt    float64
	haveFix          bool
	fix              int // 0 none, 2 2-D, 3 3-D
	speedKmh         float64
	headingTrue      float64
	headingMagnetic  float64
	satellitesInView int
	warnedNonPrintable bool
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Sample is one decoded snapshot, returned after a sentence that
// carries positional data (GGA or RMC).
type Sample struct {
	Lat, Lon, Alt   float64
	Fix             int
	SpeedKmh        float64
	HeadingTrue     float64
	HeadingMagnetic float64
}

// Feed parses one line of input. ok is true only after GGA or RMC,
// matching the original decoder's "a position sentence completes a
// sample" behavior; VTG and GSA update state consumed by the next
// position sentence.
func (d *Decoder) Feed(line string) (Sample, bool, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Sample{}, false, nil
	}
	if line[0] < 0x20 || line[0] > 0x7e {
		if !d.warnedNonPrintable {
			d.warnedNonPrintable = true
			return Sample{}, false, fmt.Errorf("%w: non-printable NMEA framing noise", ErrFramingNoise)
		}
		return Sample{}, false, nil
	}
	if !strings.HasPrefix(line, "$") {
		return Sample{}, false, nil
	}

	body := line[1:]
	if star := strings.IndexByte(body, '*'); star >= 0 {
		body = body[:star]
	}
	fields := strings.Split(body, ",")
	if len(fields) == 0 || len(fields[0]) < 5 {
		return Sample{}, false, nil
	}
	sentence := fields[0][2:] // strip 2-char talker ID

	switch sentence {
	case "GGA":
		return d.feedGGA(fields)
	case "RMC":
		return d.feedRMC(fields)
	case "VTG":
		d.feedVTG(fields)
	case "GSA":
		d.feedGSA(fields)
	case "GSV":
		d.feedGSV(fields)
	}
	return Sample{}, false, nil
}

func parseLatLon(value, hemi string, lonScale bool) (float64, bool) {
	if value == "" || hemi == "" {
		return 0, false
	}
	degreeDigits := 2
	if lonScale {
		degreeDigits = 3
	}
	if len(value) < degreeDigits+3 {
		return 0, false
	}
	deg, err := strconv.ParseFloat(value[:degreeDigits], 64)
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(value[degreeDigits:], 64)
	if err != nil {
		return 0, false
	}
	v := deg + min/60.0
	if hemi == "S" || hemi == "W" {
		v = -v
	}
	return v, true
}

func (d *Decoder) feedGGA(f []string) (Sample, bool, error) {
	if len(f) < 10 {
		return Sample{}, false, fmt.Errorf("%w: short GGA sentence", ErrMalformedSentence)
	}
	lat, okLat := parseLatLon(f[2], f[3], false)
	lon, okLon := parseLatLon(f[4], f[5], true)
	quality, _ := strconv.Atoi(f[6])
	alt, _ := strconv.ParseFloat(f[9], 64)

	if !okLat || !okLon {
		return Sample{}, false, nil
	}
	d.lat, d.lon, d.alt = lat, lon, alt
	if quality > 0 {
		d.haveFix = true
		if d.fix < 2 {
			d.fix = 2
		}
	} else {
		d.haveFix = false
		d.fix = 0
	}
	// GGA does not report speed/heading: inherit the prior sample.
	return d.snapshot(), true, nil
}

func (d *Decoder) feedRMC(f []string) (Sample, bool, error) {
	if len(f) < 10 {
		return Sample{}, false, fmt.Errorf("%w: short RMC sentence", ErrMalformedSentence)
	}
	valid := f[2] == "A"
	lat, okLat := parseLatLon(f[3], f[4], false)
	lon, okLon := parseLatLon(f[5], f[6], true)
	knots, _ := strconv.ParseFloat(f[7], 64)

	if !valid || !okLat || !okLon {
		d.haveFix = false
		d.fix = 0
		return Sample{}, false, nil
	}
	d.lat, d.lon = lat, lon
	d.speedKmh = knots * 1.852
	d.haveFix = true
	if d.fix < 2 {
		d.fix = 2
	}
	// RMC does not report heading directly: inherit the prior sample
	// unless track-made-good is present.
	if f[8] != "" {
		if track, err := strconv.ParseFloat(f[8], 64); err == nil {
			d.headingTrue = track
		}
	}
	return d.snapshot(), true, nil
}

func (d *Decoder) feedVTG(f []string) {
	if len(f) < 9 {
		return
	}
	if f[1] != "" {
		if v, err := strconv.ParseFloat(f[1], 64); err == nil {
			d.headingTrue = v
		}
	}
	if f[3] != "" {
		if v, err := strconv.ParseFloat(f[3], 64); err == nil {
			d.headingMagnetic = v
		}
	}
	if f[7] != "" {
		if v, err := strconv.ParseFloat(f[7], 64); err == nil {
			d.speedKmh = v
		}
	}
}

func (d *Decoder) feedGSA(f []string) {
	if len(f) < 3 {
		return
	}
	mode, err := strconv.Atoi(f[2])
	if err != nil {
		return
	}
	// GSA overrides the fix only when it is stricter than what we
	// already have (: "overrides 2/3-D when stricter").
	if mode > d.fix {
		d.fix = mode
	}
}

func (d *Decoder) feedGSV(f []string) {
	if len(f) < 4 {
		return
	}
	if n, err := strconv.Atoi(f[3]); err == nil {
		d.satellitesInView = n
	}
}

func (d *Decoder) snapshot() Sample {
	return Sample{
		Lat: d.lat, Lon: d.lon, Alt: d.alt, Fix: d.fix,
		SpeedKmh: d.speedKmh, HeadingTrue: d.headingTrue, HeadingMagnetic: d.headingMagnetic,
	}
}
