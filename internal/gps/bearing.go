package gps

import "math"

// bearing computes the initial great-circle bearing from (lat1,lon1)
// to (lat2,lon2) in degrees, used to infer heading when a driver's
// sentence set doesn't report one directly.
func bearing(lat1, lon1, lat2, lon2 float64) (float64, bool) {
	if lat1 == 0 && lon1 == 0 {
		return 0, false
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0, false
	}
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(rlat2)
	x := math.Cos(rlat1)*math.Sin(rlat2) - math.Sin(rlat1)*math.Cos(rlat2)*math.Cos(dLon)
	theta := math.Atan2(y, x)
	deg := math.Mod(theta*180/math.Pi+360, 360)
	return deg, true
}
