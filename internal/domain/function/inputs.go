package function

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/geo"
	"github.com/kailas-cloud/geoframe/internal/domain/metric"
	"github.com/kailas-cloud/geoframe/internal/domain/rotation"
)

// Field sets shared by argument definitions.
var (
	fieldsXY     = []string{"x", "y"}
	fieldsXYZ    = []string{"x", "y", "z"}
	fieldsXYZW   = []string{"x", "y", "z", "w"}
	fieldsLonLat = []string{"lon", "lat"}
	fieldsLLA    = []string{"lon", "lat", "alt"}
	fieldsQuad   = []string{"x0", "y0", "x1", "y1", "x2", "y2", "x3", "y3"}
)

// Inputs are the gathered argument values of one row, indexed by argument
// position.
type Inputs struct {
	floats [][]float64
	uints  []uint64
}

func (in Inputs) vec2(i int) r2.Vec {
	v := in.floats[i]
	return r2.Vec{X: v[0], Y: v[1]}
}

func (in Inputs) vec3(i int) r3.Vec {
	v := in.floats[i]
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func (in Inputs) quat(i int) rotation.Quaternion {
	v := in.floats[i]
	return rotation.Quaternion{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

func (in Inputs) lonLat(i int) (lon, lat float64) {
	v := in.floats[i]
	return v[0], v[1]
}

func (in Inputs) lla(i int) geo.LLA {
	v := in.floats[i]
	return geo.LLA{Lon: v[0], Lat: v[1], Alt: v[2]}
}

func (in Inputs) quad(i int) metric.Quad {
	v := in.floats[i]
	var q metric.Quad
	for k := range q {
		q[k] = r2.Vec{X: v[2*k], Y: v[2*k+1]}
	}
	return q
}

func (in Inputs) cell(i int) cell.ID { return cell.ID(in.uints[i]) }

// XYZ is a Cartesian output.
type XYZ struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LonLat is a degree pair output.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// LLA is a geodetic output.
type LLA struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// UTM is a projected output.
type UTM struct {
	Easting     float64 `json:"easting"`
	Northing    float64 `json:"northing"`
	Alt         float64 `json:"alt"`
	Zone        int     `json:"zone"`
	Band        string  `json:"band"`
	Convergence float64 `json:"convergence"`
}

// Euler is a roll/pitch/yaw output in radians.
type Euler struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

func fromVec(v r3.Vec) XYZ { return XYZ{X: v.X, Y: v.Y, Z: v.Z} }
