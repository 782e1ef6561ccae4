package metric

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Quad is a closed quadrilateral 0→1→2→3→0. Vertex order and
// self-intersection are not checked.
type Quad [4]r2.Vec

// quadPrecision is the number of decimals QuadMinDistance rounds to.
const quadPrecision = 5

// QuadMinDistance approximates the minimum distance between two
// quadrilaterals as the smallest vertex-to-edge distance in either direction,
// rounded half away from zero to 5 decimals.
//
// Crossing edges with no vertex near the other shape are not detected, so
// overlapping quads can report a positive distance.
func QuadMinDistance(a, b Quad) float64 {
	best := math.MaxFloat64
	best = math.Min(best, edgesToVertices(a, b))
	best = math.Min(best, edgesToVertices(b, a))
	return round(best, quadPrecision)
}

func edgesToVertices(edges, vertices Quad) float64 {
	best := math.MaxFloat64
	for i := range edges {
		start, end := edges[i], edges[(i+1)%len(edges)]
		for _, p := range vertices {
			best = math.Min(best, PointToSegment(p, start, end))
		}
	}
	return best
}

func round(v float64, decimals int) float64 {
	m := math.Pow(10, float64(decimals))
	return math.Round(v*m) / m
}
