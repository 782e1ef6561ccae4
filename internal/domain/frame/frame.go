// Package frame moves Cartesian points between a local map or ENU frame and ECEF.
//
// Every transform builds a fresh rotation from the supplied orientation; a
// zero-norm orientation returns domain.ErrInvalidOrientation.
package frame

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kailas-cloud/geoframe/internal/domain/rotation"
)

// MapToECEF returns R(q)·p + offset.
func MapToECEF(p r3.Vec, q rotation.Quaternion, offset r3.Vec) (r3.Vec, error) {
	r, err := rotation.FromQuaternion(q)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Add(r.Apply(p), offset), nil
}

// ECEFToMap returns R(q)ᵀ·(p - offset), the inverse of MapToECEF.
func ECEFToMap(p r3.Vec, q rotation.Quaternion, offset r3.Vec) (r3.Vec, error) {
	r, err := rotation.FromQuaternion(q)
	if err != nil {
		return r3.Vec{}, err
	}
	return r.Inverse().Apply(r3.Sub(p, offset)), nil
}

// ENUToECEF is MapToECEF for an East-North-Up frame whose orientation and
// origin are given by q and offset.
func ENUToECEF(p r3.Vec, q rotation.Quaternion, offset r3.Vec) (r3.Vec, error) {
	return MapToECEF(p, q, offset)
}

// ECEFToENU is the inverse of ENUToECEF.
func ECEFToENU(p r3.Vec, q rotation.Quaternion, offset r3.Vec) (r3.Vec, error) {
	return ECEFToMap(p, q, offset)
}

// RotateMapOffset returns p + R(q)·scale. The frame does not change.
func RotateMapOffset(p r3.Vec, q rotation.Quaternion, scale r3.Vec) (r3.Vec, error) {
	r, err := rotation.FromQuaternion(q)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Add(p, r.Apply(scale)), nil
}

// Lerp returns coef·a + (1-coef)·b. coef is not clamped, so values outside
// [0, 1] extrapolate along the line.
func Lerp(a, b r3.Vec, coef float64) r3.Vec {
	return r3.Add(r3.Scale(coef, a), r3.Scale(1-coef, b))
}
