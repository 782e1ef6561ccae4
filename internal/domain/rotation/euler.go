package rotation

import "math"

// Angles holds roll, pitch and yaw in radians.
type Angles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// EulerAngles decomposes the orientation so that R = Rz(yaw)·Ry(pitch)·Rx(roll):
// roll about the fixed X axis first, then pitch about Y, then yaw about Z.
// At gimbal lock (|pitch| = π/2) yaw is pinned to 0 and roll absorbs it.
func EulerAngles(q Quaternion) (Angles, error) {
	r, err := FromQuaternion(q)
	if err != nil {
		return Angles{}, err
	}
	m := r.m

	switch {
	case math.Abs(m[2][0]) < 1:
		pitch := -math.Asin(m[2][0])
		c := math.Cos(pitch)
		return Angles{
			Roll:  math.Atan2(m[2][1]/c, m[2][2]/c),
			Pitch: pitch,
			Yaw:   math.Atan2(m[1][0]/c, m[0][0]/c),
		}, nil
	case m[2][0] <= -1:
		return Angles{Roll: math.Atan2(m[0][1], m[0][2]), Pitch: math.Pi / 2}, nil
	default:
		return Angles{Roll: -math.Atan2(-m[0][1], -m[0][2]), Pitch: -math.Pi / 2}, nil
	}
}
