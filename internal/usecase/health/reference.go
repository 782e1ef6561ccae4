package health

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/frame"
	"github.com/kailas-cloud/geoframe/internal/domain/geo"
	"github.com/kailas-cloud/geoframe/internal/domain/metric"
	"github.com/kailas-cloud/geoframe/internal/domain/rotation"
)

// ReferenceChecks recompute known vectors through the geometry core.
func ReferenceChecks() []Checker {
	return []Checker{
		CheckFunc{CheckName: "frame", Fn: checkFrame},
		CheckFunc{CheckName: "geodetic", Fn: checkGeodetic},
		CheckFunc{CheckName: "cell", Fn: checkCell},
		CheckFunc{CheckName: "quad_distance", Fn: checkQuad},
	}
}

var (
	refMap    = r3.Vec{X: -97066.730132, Y: 122807.787398, Z: -1888.737721}
	refQuat   = rotation.Quaternion{X: 0.13007119, Y: 0.26472049, Z: 0.85758219, W: 0.42137553}
	refOffset = r3.Vec{X: 2852423.40536658, Y: 2201848.41975346, Z: 5245234.74365368}
	refECEF   = r3.Vec{X: 2830593.6327610738, Y: 2062375.5703225536, Z: 5312896.0721501345}
	refLLA    = geo.LLA{Lon: 36.077147686805766, Lat: 56.783927007002866, Alt: 165.8986865637805}
)

const refCell = cell.ID(5095400969591719543)

func checkFrame(_ context.Context) error {
	got, err := frame.MapToECEF(refMap, refQuat, refOffset)
	if err != nil {
		return err
	}
	if r3.Norm(r3.Sub(got, refECEF)) > 1e-6 {
		return fmt.Errorf("map to ECEF: got %v, want %v", got, refECEF)
	}
	return nil
}

func checkGeodetic(_ context.Context) error {
	got := geo.ECEFToGeodetic(refECEF)
	if math.Abs(got.Lon-refLLA.Lon) > 1e-9 || math.Abs(got.Lat-refLLA.Lat) > 1e-9 || math.Abs(got.Alt-refLLA.Alt) > 1e-6 {
		return fmt.Errorf("ECEF to geodetic: got %+v, want %+v", got, refLLA)
	}
	return nil
}

func checkCell(_ context.Context) error {
	got, err := cell.FromLonLat(refLLA.Lon, refLLA.Lat, cell.MaxLevel)
	if err != nil {
		return err
	}
	if got != refCell {
		return fmt.Errorf("lon/lat to cell: got %d, want %d", got, refCell)
	}
	return nil
}

func checkQuad(_ context.Context) error {
	a := metric.Quad{{X: 2, Y: 0}, {X: 0, Y: 3}, {X: 2, Y: 4}, {X: 4, Y: 1}}
	b := metric.Quad{{X: 3, Y: 5}, {X: 3, Y: 8}, {X: 5, Y: 8}, {X: 5, Y: 5}}
	if got := metric.QuadMinDistance(a, b); got != 1.41421 {
		return fmt.Errorf("quad distance: got %v, want 1.41421", got)
	}
	return nil
}
