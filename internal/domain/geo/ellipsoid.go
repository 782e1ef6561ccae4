package geo

// Ellipsoid is a reference ellipsoid of revolution.
type Ellipsoid struct {
	SemiMajor    float64 // a, meters
	SemiMinor    float64 // b, meters
	Flattening   float64 // f = (a - b) / a
	Eccentricity float64 // e², first eccentricity squared
}

// NewEllipsoid derives the remaining parameters from a and f.
func NewEllipsoid(semiMajor, flattening float64) Ellipsoid {
	b := semiMajor * (1 - flattening)
	return Ellipsoid{
		SemiMajor:    semiMajor,
		SemiMinor:    b,
		Flattening:   flattening,
		Eccentricity: (semiMajor*semiMajor - b*b) / (semiMajor * semiMajor),
	}
}

// WGS84 is the reference ellipsoid for every geodetic conversion in this package.
var WGS84 = NewEllipsoid(6378137.0, 1/298.257223563)
