package orientation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FromQuaternion converts a unit quaternion (i, j, k, real) into device-orientation angles.
// The rotation is decomposed as Rz(alpha)·Rx(beta)·Ry(gamma).
// Alpha is returned in [0, 360), Beta in [-180, 180] and Gamma in [-90, 90].
// The quaternion is normalized first; a zero quaternion yields the zero event.
//
// Parameters:
//   - i, j, k: the vector part
//   - real: the scalar part
//
// Returns:
//   - Event: the equivalent orientation angles in degrees
func FromQuaternion(i, j, k, real float64) Event {
	q := mgl64.Quat{W: real, V: mgl64.Vec3{i, j, k}}
	if q.Len() == 0 {
		return Event{}
	}
	m := q.Normalize().Mat4()

	m01, m11 := m.At(0, 1), m.At(1, 1)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	// cos(beta) takes the sign that keeps gamma inside [-90, 90].
	sign := 1.0
	if m22 < 0 {
		sign = -1.0
	}
	cb := sign * math.Hypot(m20, m22)

	beta := math.Atan2(m21, cb)
	gamma := math.Atan2(-m20*sign, m22*sign)
	alpha := math.Atan2(-m01*sign, m11*sign)

	return Event{
		Alpha: normalizeDegrees(mgl64.RadToDeg(alpha)),
		Beta:  mgl64.RadToDeg(beta),
		Gamma: mgl64.RadToDeg(gamma),
	}
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}
