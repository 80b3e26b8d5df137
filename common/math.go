package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matrices in this package are flat column-major float32 slices of
// length 16, the layout WGSL expects for mat4x4<f32>.

// Identity overwrites m with the identity matrix.
func Identity(m []float32) {
	clear(m[:16])
	for i := 0; i < 16; i += 5 {
		m[i] = 1
	}
}

// Mul4 stores a*b in out. out may alias a or b.
func Mul4(out, a, b []float32) {
	var res [16]float32
	for col := range 4 {
		for row := range 4 {
			var acc float32
			for k := range 4 {
				acc += a[k*4+row] * b[col*4+k]
			}
			res[col*4+row] = acc
		}
	}
	copy(out, res[:])
}

// Perspective writes a right-handed projection that maps view depth
// [-near, -far] onto clip depth [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near, far: clip plane distances, 0 < near < far
func Perspective(out []float32, fovY, aspect, near, far float32) {
	clear(out[:16])
	cot := float32(1 / math.Tan(float64(fovY)/2))
	depth := near - far

	out[0] = cot / aspect
	out[5] = cot
	out[10] = far / depth
	out[11] = -1
	out[14] = near * far / depth
}

// LookAt writes the view matrix for an eye at (eyeX, eyeY, eyeZ) facing
// (centerX, centerY, centerZ). A degenerate eye == center input yields
// the translation-only matrix instead of NaNs.
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	eye := mgl32.Vec3{eyeX, eyeY, eyeZ}
	center := mgl32.Vec3{centerX, centerY, centerZ}
	if eye.ApproxEqual(center) {
		Identity(out)
		out[12], out[13], out[14] = -eyeX, -eyeY, -eyeZ
		return
	}
	view := mgl32.LookAtV(eye, center, mgl32.Vec3{upX, upY, upZ})
	copy(out, view[:])
}

func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Clamp bounds v to [lo, hi].
func Clamp[T ~float32 | ~float64 | ~int](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
