// Package metric provides distances and similarities between 2D/3D points and
// between quadrilaterals.
package metric

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Euclidean2D returns the L2 distance between a and b.
func Euclidean2D(a, b r2.Vec) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Euclidean3D returns the L2 distance between a and b.
func Euclidean3D(a, b r3.Vec) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// CosineSimilarity2D returns a·b / (|a||b|), or exactly 0 when either vector
// has zero magnitude.
func CosineSimilarity2D(a, b r2.Vec) float64 {
	return cosine(r2.Dot(a, b), math.Sqrt(r2.Dot(a, a)), math.Sqrt(r2.Dot(b, b)))
}

// CosineSimilarity3D returns a·b / (|a||b|), or exactly 0 when either vector
// has zero magnitude.
func CosineSimilarity3D(a, b r3.Vec) float64 {
	return cosine(r3.Dot(a, b), math.Sqrt(r3.Dot(a, a)), math.Sqrt(r3.Dot(b, b)))
}

func cosine(dot, m1, m2 float64) float64 {
	if m1 == 0 || m2 == 0 {
		return 0
	}
	return dot / (m1 * m2)
}

// PointToSegment returns the distance from p to the closest point of the
// segment [start, end].
//
// For a zero-length segment the result is the SQUARED distance from p to
// start. Callers comparing against ordinary distances must account for it.
func PointToSegment(p, start, end r2.Vec) float64 {
	seg := r2.Sub(end, start)
	l2 := seg.X*seg.X + seg.Y*seg.Y
	if l2 == 0 {
		d := Euclidean2D(p, start)
		return d * d
	}

	t := r2.Dot(r2.Sub(p, start), seg) / l2
	t = math.Max(0, math.Min(1, t))
	return Euclidean2D(p, r2.Add(start, r2.Scale(t, seg)))
}
