// Package cell maps longitude/latitude to S2 cell identifiers and back.
//
// An S2 cell id packs the cube face, the Hilbert-curve position on that face
// and the subdivision level into 64 bits. Level 30 cells are about a
// centimeter across; level 0 is a whole face.
package cell

import (
	"fmt"

	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geom"

	"github.com/kailas-cloud/geoframe/internal/domain"
)

// MaxLevel is the finest subdivision level.
const MaxLevel = s2.MaxLevel

// ID is a 64-bit S2 cell identifier.
type ID uint64

// LonLat is a point in degrees.
type LonLat struct {
	Lon float64
	Lat float64
}

// ValidateLevel returns ErrInvalidLevel (as *domain.LevelError) when level is
// outside [0, MaxLevel].
func ValidateLevel(level int) error {
	if level < 0 || level > MaxLevel {
		return domain.NewLevelError(level)
	}
	return nil
}

func (id ID) cellID() (s2.CellID, error) {
	c := s2.CellID(id)
	if !c.IsValid() {
		return 0, fmt.Errorf("cell %d: %w", uint64(id), domain.ErrInvalidCell)
	}
	return c, nil
}

// Token returns the compact hex form of the id.
func Token(id ID) string { return s2.CellID(id).ToToken() }

// FromToken parses a hex token produced by Token.
func FromToken(token string) (ID, error) {
	c := s2.CellIDFromToken(token)
	if !c.IsValid() {
		return 0, fmt.Errorf("cell token %q: %w", token, domain.ErrInvalidCell)
	}
	return ID(c), nil
}

// FromLonLat returns the cell at level containing the point.
func FromLonLat(lon, lat float64, level int) (ID, error) {
	if err := ValidateLevel(level); err != nil {
		return 0, err
	}
	leaf := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return ID(leaf.Parent(level)), nil
}

// ToLonLat returns the center of the cell. Decoding then re-encoding at the
// same level yields the same id, but the original point is only recovered to
// within the cell's footprint.
func ToLonLat(id ID) (LonLat, error) {
	c, err := id.cellID()
	if err != nil {
		return LonLat{}, err
	}
	ll := c.LatLng()
	return LonLat{Lon: ll.Lng.Degrees(), Lat: ll.Lat.Degrees()}, nil
}

// Level returns the subdivision level encoded in the id.
func Level(id ID) (int, error) {
	c, err := id.cellID()
	if err != nil {
		return 0, err
	}
	return c.Level(), nil
}

// ContainsPoint reports whether the point lies inside the cell's spherical
// quadrilateral. Points on the boundary are contained by every cell that
// shares it.
func ContainsPoint(id ID, lon, lat float64) (bool, error) {
	c, err := id.cellID()
	if err != nil {
		return false, err
	}
	return s2.CellFromCellID(c).ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))), nil
}

// Vertices returns the four corners in counter-clockwise order as seen from
// outside the sphere.
func Vertices(id ID) ([4]LonLat, error) {
	c, err := id.cellID()
	if err != nil {
		return [4]LonLat{}, err
	}
	cl := s2.CellFromCellID(c)

	var out [4]LonLat
	for k := range out {
		ll := s2.LatLngFromPoint(cl.Vertex(k))
		out[k] = LonLat{Lon: ll.Lng.Degrees(), Lat: ll.Lat.Degrees()}
	}
	return out, nil
}

// Area returns the approximate cell area in steradians.
func Area(id ID) (float64, error) {
	c, err := id.cellID()
	if err != nil {
		return 0, err
	}
	return s2.CellFromCellID(c).ApproxArea(), nil
}

// Polygon returns the cell boundary as a closed lon/lat ring.
func Polygon(id ID) (*geom.Polygon, error) {
	vs, err := Vertices(id)
	if err != nil {
		return nil, err
	}
	ring := make([]geom.Coord, 0, len(vs)+1)
	for _, v := range vs {
		ring = append(ring, geom.Coord{v.Lon, v.Lat})
	}
	ring = append(ring, ring[0])
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring}), nil
}
