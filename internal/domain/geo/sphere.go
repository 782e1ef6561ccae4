package geo

import "math"

// EarthRadiusMeters is the WGS84 mean radius (2a + b) / 3 used for great-circle distance.
var EarthRadiusMeters = (2*WGS84.SemiMajor + WGS84.SemiMinor) / 3

// Haversine returns the great-circle distance in meters between two positions.
// Altitude is ignored.
func Haversine(p1, p2 LLA) float64 {
	lat1 := p1.Lat * degToRad
	lat2 := p2.Lat * degToRad
	dLat := (p2.Lat - p1.Lat) * degToRad
	dLon := (p2.Lon - p1.Lon) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}
