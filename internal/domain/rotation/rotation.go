// Package rotation turns orientation quaternions into rotation operators.
package rotation

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kailas-cloud/geoframe/internal/domain"
)

// normEpsilon is the smallest quaternion norm accepted as an orientation.
const normEpsilon = 1e-12

// Quaternion is an orientation in x, y, z, w order. It does not need to be unit.
type Quaternion struct {
	X, Y, Z, W float64
}

// Identity is the zero rotation.
var Identity = Quaternion{W: 1}

// Number converts q to a gonum quaternion (W is the real part).
func (q Quaternion) Number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Normalize returns q scaled to unit norm.
// Returns ErrInvalidOrientation if the norm is zero or below 1e-12.
func (q Quaternion) Normalize() (Quaternion, error) {
	n := quat.Abs(q.Number())
	if n < normEpsilon {
		return Quaternion{}, fmt.Errorf("quaternion norm %g: %w", n, domain.ErrInvalidOrientation)
	}
	return Quaternion{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}, nil
}

// Rotation is a 3x3 orthonormal matrix, row-major.
type Rotation struct {
	m [3][3]float64
}

// FromQuaternion normalizes q and builds the equivalent rotation matrix.
// The same Quaternion always yields the same matrix; nothing is cached.
func FromQuaternion(q Quaternion) (Rotation, error) {
	u, err := q.Normalize()
	if err != nil {
		return Rotation{}, err
	}

	x, y, z, w := u.X, u.Y, u.Z, u.W
	ww, xx, yy, zz := w*w, x*x, y*y, z*z
	xy, wz, wy := x*y*2, w*z*2, w*y*2
	xz, yz, wx := x*z*2, y*z*2, w*x*2

	return Rotation{m: [3][3]float64{
		{ww + xx - yy - zz, xy - wz, wy + xz},
		{wz + xy, ww - xx + yy - zz, yz - wx},
		{xz - wy, wx + yz, ww - xx - yy + zz},
	}}, nil
}

// At returns the element at row i, column j.
func (r Rotation) At(i, j int) float64 {
	return r.m[i][j]
}

// Apply rotates v. No translation is applied.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r.m[0][0]*v.X + r.m[0][1]*v.Y + r.m[0][2]*v.Z,
		Y: r.m[1][0]*v.X + r.m[1][1]*v.Y + r.m[1][2]*v.Z,
		Z: r.m[2][0]*v.X + r.m[2][1]*v.Y + r.m[2][2]*v.Z,
	}
}

// Inverse returns the transpose, which is the inverse of an orthonormal matrix.
func (r Rotation) Inverse() Rotation {
	var t Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.m[i][j] = r.m[j][i]
		}
	}
	return t
}

// Det returns the determinant. A proper rotation has Det ≈ 1.
func (r Rotation) Det() float64 {
	m := r.m
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Homogeneous builds the 4x4 transform with the rotation of q in the upper-left
// block and t in the bottom row, flattened column-major:
//
//	r00 r10 r20 tx | r01 r11 r21 ty | r02 r12 r22 tz | 0 0 0 1
func Homogeneous(q Quaternion, t r3.Vec) ([16]float64, error) {
	r, err := FromQuaternion(q)
	if err != nil {
		return [16]float64{}, err
	}
	m := r.m
	return [16]float64{
		m[0][0], m[1][0], m[2][0], t.X,
		m[0][1], m[1][1], m[2][1], t.Y,
		m[0][2], m[1][2], m[2][2], t.Z,
		0, 0, 0, 1,
	}, nil
}
