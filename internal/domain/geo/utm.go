package geo

import "math"

// UTM scale and false origin.
const (
	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

// Band letters from 80°S in 8° steps; X stretches to 84°N.
const utmBands = "CDEFGHJKLMNPQRSTUVWX"

// UTM is a projected position. Altitude is copied from the geodetic input.
type UTM struct {
	Easting     float64
	Northing    float64
	Alt         float64
	Zone        int
	Band        string
	Convergence float64 // meridian convergence, degrees
}

// UTMZoneNumber returns the 6° UTM zone (1..60) for the position, including
// the Norway (32V) and Svalbard (31X..37X) exceptions. Longitude wraps, so
// 180° is zone 1.
func UTMZoneNumber(lon, lat float64) int {
	if lat >= 56 && lat < 64 && lon >= 3 && lon < 12 {
		return 32
	}
	if lat >= 72 && lat <= 84 && lon >= 0 {
		switch {
		case lon < 9:
			return 31
		case lon < 21:
			return 33
		case lon < 33:
			return 35
		case lon < 42:
			return 37
		}
	}

	wrapped := math.Mod(lon+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return int(wrapped/6) + 1
}

// UTMZoneLetter returns the latitude band letter, or "" outside [-80, 84].
func UTMZoneLetter(lat float64) string {
	if lat < -80 || lat > 84 {
		return ""
	}
	i := int((lat + 80) / 8)
	if i >= len(utmBands) {
		i = len(utmBands) - 1
	}
	return utmBands[i : i+1]
}

// centralMeridian returns the central longitude of zone, in degrees.
func centralMeridian(zone int) float64 {
	return float64(zone-1)*6 - 180 + 3
}

// ToUTM projects a WGS84 position with the Snyder transverse Mercator series
// into the zone chosen by UTMZoneNumber. Southern latitudes get the
// 10 000 km false northing.
func ToUTM(p LLA) UTM {
	zone := UTMZoneNumber(p.Lon, p.Lat)
	e2 := WGS84.Eccentricity
	ep2 := e2 / (1 - e2)
	e4 := e2 * e2
	e6 := e4 * e2

	lat := p.Lat * degToRad
	sinLat, cosLat := math.Sincos(lat)
	tanLat := sinLat / cosLat
	t := tanLat * tanLat
	dLon := math.Remainder(p.Lon-centralMeridian(zone), 360) * degToRad

	n := WGS84.SemiMajor / math.Sqrt(1-e2*sinLat*sinLat)
	c := ep2 * cosLat * cosLat
	a := cosLat * dLon
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	m := WGS84.SemiMajor * ((1-e2/4-3*e4/64-5*e6/256)*lat -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*lat) +
		(15*e4/256+45*e6/1024)*math.Sin(4*lat) -
		(35*e6/3072)*math.Sin(6*lat))

	easting := utmScale*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120) + utmFalseEasting

	northing := utmScale * (m + n*tanLat*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	if p.Lat < 0 {
		northing += utmFalseNorthing
	}

	return UTM{
		Easting:     easting,
		Northing:    northing,
		Alt:         p.Alt,
		Zone:        zone,
		Band:        UTMZoneLetter(p.Lat),
		Convergence: math.Atan(math.Tan(dLon)*sinLat) * radToDeg,
	}
}
