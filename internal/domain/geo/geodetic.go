// Package geo converts between ECEF, WGS84 geodetic and UTM coordinates.
//
// Inputs are never validated: out-of-range angles, NaN and Inf flow through
// the formulas and come out as whatever IEEE-754 arithmetic yields.
package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// LLA is a geodetic position: longitude and latitude in degrees, altitude in
// meters above the WGS84 ellipsoid.
type LLA struct {
	Lon float64
	Lat float64
	Alt float64
}

// radiusNormal is the prime vertical radius of curvature at latitude lat (radians).
func (e Ellipsoid) radiusNormal(lat float64) float64 {
	s := math.Sin(lat)
	return e.SemiMajor / math.Sqrt(1-e.Eccentricity*s*s)
}

// GeodeticToECEF converts a WGS84 geodetic position to ECEF meters.
func GeodeticToECEF(p LLA) r3.Vec {
	return WGS84.ToECEF(p)
}

// ECEFToGeodetic converts ECEF meters to a WGS84 geodetic position.
func ECEFToGeodetic(p r3.Vec) LLA {
	return WGS84.FromECEF(p)
}

// ToECEF converts a geodetic position on e to ECEF meters.
func (e Ellipsoid) ToECEF(p LLA) r3.Vec {
	lat := p.Lat * degToRad
	lon := p.Lon * degToRad
	n := e.radiusNormal(lat)
	ratio := e.SemiMinor / e.SemiMajor

	return r3.Vec{
		X: (n + p.Alt) * math.Cos(lat) * math.Cos(lon),
		Y: (n + p.Alt) * math.Cos(lat) * math.Sin(lon),
		Z: (n*ratio*ratio + p.Alt) * math.Sin(lat),
	}
}

// FromECEF converts ECEF meters to a geodetic position on e.
//
// Closed form from You (2000), "Transformation of Cartesian to geodetic
// coordinates without iterations", with one correction of the reduced
// latitude. Altitude error stays below a millimeter near the surface.
// Points inside the ellipsoid get a negative altitude.
func (e Ellipsoid) FromECEF(p r3.Vec) LLA {
	a, b := e.SemiMajor, e.SemiMinor
	x, y, z := p.X, p.Y, p.Z

	r := math.Sqrt(x*x + y*y + z*z)
	linearEcc := math.Sqrt(a*a - b*b)
	ee := linearEcc * linearEcc
	v := r*r - ee
	u := math.Sqrt(0.5*v + 0.5*math.Sqrt(v*v+4*ee*z*z))

	q := math.Sqrt(x*x + y*y)
	huE := math.Sqrt(u*u + ee)

	var beta float64
	switch {
	case q != 0:
		beta = math.Atan(huE / u * z / q)
	case z > 0:
		beta = math.Pi / 2
	case z < 0:
		beta = -math.Pi / 2
	}

	eps := ((b*u - a*huE + ee) * math.Sin(beta)) /
		(a*huE/math.Cos(beta) - ee*math.Cos(beta))
	beta += eps

	lat := math.Atan(a / b * math.Tan(beta))
	lon := math.Atan2(y, x)

	dz := z - b*math.Sin(beta)
	dq := q - a*math.Cos(beta)
	alt := math.Sqrt(dz*dz + dq*dq)

	if x*x/(a*a)+y*y/(a*a)+z*z/(b*b) < 1 {
		alt = -alt
	}

	return LLA{Lon: lon * radToDeg, Lat: lat * radToDeg, Alt: alt}
}
