package geoframe

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/frame"
	"github.com/kailas-cloud/geoframe/internal/domain/geo"
	"github.com/kailas-cloud/geoframe/internal/domain/metric"
	"github.com/kailas-cloud/geoframe/internal/domain/rotation"
)

// Direct, single-value counterparts of the registered functions. They
// return the same errors Evaluate reports per row.

func vec3(p XYZ) r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: p.Z} }
func fromVec3(v r3.Vec) XYZ { return XYZ{X: v.X, Y: v.Y, Z: v.Z} }
func vec2(p XY) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }
func lla(p LLA) geo.LLA { return geo.LLA{Lon: p.Lon, Lat: p.Lat, Alt: p.Alt} }

func frameOp(op func(r3.Vec, rotation.Quaternion, r3.Vec) (r3.Vec, error), p XYZ, q Quaternion, t XYZ) (XYZ, error) {
	v, err := op(vec3(p), q, vec3(t))
	if err != nil {
		return XYZ{}, err
	}
	return fromVec3(v), nil
}

// MapToECEF moves a local map point into ECEF: R(q)·p + offset.
func MapToECEF(p XYZ, q Quaternion, offset XYZ) (XYZ, error) {
	return frameOp(frame.MapToECEF, p, q, offset)
}

// ECEFToMap is the inverse of MapToECEF.
func ECEFToMap(p XYZ, q Quaternion, offset XYZ) (XYZ, error) {
	return frameOp(frame.ECEFToMap, p, q, offset)
}

// ENUToECEF moves an East-North-Up point into ECEF.
func ENUToECEF(p XYZ, q Quaternion, offset XYZ) (XYZ, error) {
	return frameOp(frame.ENUToECEF, p, q, offset)
}

// ECEFToENU is the inverse of ENUToECEF.
func ECEFToENU(p XYZ, q Quaternion, offset XYZ) (XYZ, error) {
	return frameOp(frame.ECEFToENU, p, q, offset)
}

// RotateMapCoords returns p + R(q)·scale.
func RotateMapCoords(p XYZ, q Quaternion, scale XYZ) (XYZ, error) {
	return frameOp(frame.RotateMapOffset, p, q, scale)
}

// InterpolateLinear returns coef·a + (1-coef)·b. coef is not clamped.
func InterpolateLinear(a, b XYZ, coef float64) XYZ {
	return fromVec3(frame.Lerp(vec3(a), vec3(b), coef))
}

// ECEFToLLA converts ECEF meters to WGS84 degrees and meters.
func ECEFToLLA(p XYZ) LLA {
	g := geo.ECEFToGeodetic(vec3(p))
	return LLA{Lon: g.Lon, Lat: g.Lat, Alt: g.Alt}
}

// LLAToECEF converts WGS84 degrees and meters to ECEF meters.
func LLAToECEF(p LLA) XYZ {
	return fromVec3(geo.GeodeticToECEF(lla(p)))
}

// LLAToUTM projects a WGS84 position onto its UTM zone.
func LLAToUTM(p LLA) UTM {
	u := geo.ToUTM(lla(p))
	return UTM{
		Easting:     u.Easting,
		Northing:    u.Northing,
		Alt:         u.Alt,
		Zone:        u.Zone,
		Band:        u.Band,
		Convergence: u.Convergence,
	}
}

// UTMZoneNumber returns the UTM zone for a position, honoring the Norway and
// Svalbard exceptions.
func UTMZoneNumber(lon, lat float64) int {
	return geo.UTMZoneNumber(lon, lat)
}

// QuatToEulerAngles returns roll, pitch and yaw in radians.
func QuatToEulerAngles(q Quaternion) (EulerAngles, error) {
	a, err := rotation.EulerAngles(q)
	if err != nil {
		return EulerAngles{}, err
	}
	return EulerAngles{Roll: a.Roll, Pitch: a.Pitch, Yaw: a.Yaw}, nil
}

// RotationMatrix returns the row-major 4x4 homogeneous transform of q and offset.
func RotationMatrix(q Quaternion, offset XYZ) ([16]float64, error) {
	return rotation.Homogeneous(q, vec3(offset))
}

// CellID returns the S2 cell at level containing the position.
func CellID(lon, lat float64, level int) (uint64, error) {
	id, err := cell.FromLonLat(lon, lat, level)
	return uint64(id), err
}

// CellCenter returns the center of a cell.
func CellCenter(id uint64) (LonLat, error) {
	c, err := cell.ToLonLat(cell.ID(id))
	if err != nil {
		return LonLat{}, err
	}
	return LonLat{Lon: c.Lon, Lat: c.Lat}, nil
}

// CellContains reports whether the cell contains the position.
func CellContains(id uint64, p LonLat) (bool, error) {
	return cell.ContainsPoint(cell.ID(id), p.Lon, p.Lat)
}

// CellVertices returns the four corners of a cell in counter-clockwise order.
func CellVertices(id uint64) ([4]LonLat, error) {
	vs, err := cell.Vertices(cell.ID(id))
	if err != nil {
		return [4]LonLat{}, err
	}
	var out [4]LonLat
	for i, v := range vs {
		out[i] = LonLat{Lon: v.Lon, Lat: v.Lat}
	}
	return out, nil
}

// CellArea returns the approximate cell area in steradians.
func CellArea(id uint64) (float64, error) {
	return cell.Area(cell.ID(id))
}

// CellToken returns the compact hex token of a cell id.
func CellToken(id uint64) string {
	return cell.Token(cell.ID(id))
}

// CellFromToken parses a hex token.
func CellFromToken(token string) (uint64, error) {
	id, err := cell.FromToken(token)
	return uint64(id), err
}

// Euclidean2D is the planar distance between a and b.
func Euclidean2D(a, b XY) float64 { return metric.Euclidean2D(vec2(a), vec2(b)) }

// Euclidean3D is the distance between a and b.
func Euclidean3D(a, b XYZ) float64 { return metric.Euclidean3D(vec3(a), vec3(b)) }

// CosineSimilarity2D returns 0 when either vector is zero.
func CosineSimilarity2D(a, b XY) float64 { return metric.CosineSimilarity2D(vec2(a), vec2(b)) }

// CosineSimilarity3D returns 0 when either vector is zero.
func CosineSimilarity3D(a, b XYZ) float64 { return metric.CosineSimilarity3D(vec3(a), vec3(b)) }

// PointToSegment is the distance from p to the segment start-end. For a
// degenerate segment (start == end) it returns the squared distance.
func PointToSegment(p, start, end XY) float64 {
	return metric.PointToSegment(vec2(p), vec2(start), vec2(end))
}

// QuadDistance is the minimum edge-to-vertex distance between two quads,
// rounded to 5 decimal places.
func QuadDistance(a, b Quad) float64 {
	var qa, qb metric.Quad
	for i := range a {
		qa[i] = vec2(a[i])
		qb[i] = vec2(b[i])
	}
	return metric.QuadMinDistance(qa, qb)
}

// Haversine is the great-circle distance in meters between two positions.
func Haversine(a, b LonLat) float64 {
	return geo.Haversine(geo.LLA{Lon: a.Lon, Lat: a.Lat}, geo.LLA{Lon: b.Lon, Lat: b.Lat})
}
