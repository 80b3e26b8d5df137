package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-panorama/common"
)

func near(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

// project maps a world point through the column-major m into NDC.
func project(m []float32, x, y, z float32) (float32, float32, float32) {
	w := m[3]*x + m[7]*y + m[11]*z + m[15]
	return (m[0]*x + m[4]*y + m[8]*z + m[12]) / w,
		(m[1]*x + m[5]*y + m[9]*z + m[13]) / w,
		(m[2]*x + m[6]*y + m[10]*z + m[14]) / w
}

func TestFocalLengthFromFov(t *testing.T) {
	cam := NewCamera(WithFov(float32(common.DegToRad(75))), WithAspect(1))

	want := float32(0.5 * 35 / math.Tan(common.DegToRad(75)/2))
	if got := cam.FocalLength(); !near(got, want, 1e-3) {
		t.Fatalf("FocalLength() = %v, want %v", got, want)
	}
}

func TestSetFocalLengthRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		aspect float32
		focal  float32
	}{
		{"square", 1, 23},
		{"landscape", 16.0 / 9.0, 5},
		{"portrait", 0.5, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(WithAspect(tt.aspect))
			cam.SetFocalLength(tt.focal)
			if got := cam.FocalLength(); !near(got, tt.focal, 1e-3) {
				t.Fatalf("FocalLength() = %v, want %v", got, tt.focal)
			}
		})
	}
}

func TestLongerFocalLengthNarrowsFov(t *testing.T) {
	cam := NewCamera(WithAspect(1.5))
	cam.SetFocalLength(10)
	wide := cam.Fov()
	cam.SetFocalLength(20)
	if narrow := cam.Fov(); narrow >= wide {
		t.Fatalf("fov at 20mm (%v) not narrower than at 10mm (%v)", narrow, wide)
	}
}

func TestLandscapeAspectUsesScaledFilm(t *testing.T) {
	cam := NewCamera(WithAspect(2))
	cam.SetFocalLength(17.5 / 2)
	// filmHeight = 35/2, so 0.5*filmHeight == focal length gives a 90 degree fov.
	if got := cam.Fov(); !near(got, math.Pi/2, 1e-4) {
		t.Fatalf("Fov() = %v, want pi/2", got)
	}
}

func TestViewProjectionCentersTarget(t *testing.T) {
	ctrl := NewLookController(WithTarget(500, 0, 0))
	cam := NewCamera(
		WithFov(float32(common.DegToRad(75))),
		WithAspect(4.0/3.0),
		WithClipPlanes(1, 1100),
		WithController(ctrl),
	)

	vp := cam.ViewProjectionMatrix()
	x, y, z := project(vp[:], 500, 0, 0)
	if !near(x, 0, 1e-4) || !near(y, 0, 1e-4) {
		t.Fatalf("target projected to (%v, %v), want screen center", x, y)
	}
	if z < 0 || z > 1 {
		t.Fatalf("target depth %v outside clip range", z)
	}

	ctrl.SetTarget(0, 0, 500)
	cam.Update()
	vp = cam.ViewProjectionMatrix()
	x, y, _ = project(vp[:], 0, 0, 500)
	if !near(x, 0, 1e-4) || !near(y, 0, 1e-4) {
		t.Fatalf("moved target projected to (%v, %v), want screen center", x, y)
	}
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	cam := NewCamera(WithAspect(1))
	before := cam.ProjectionMatrix()
	cam.SetAspect(2)
	after := cam.ProjectionMatrix()

	if cam.Aspect() != 2 {
		t.Fatalf("Aspect() = %v, want 2", cam.Aspect())
	}
	if !near(after[0], before[0]/2, 1e-6) {
		t.Fatalf("x scale = %v, want %v", after[0], before[0]/2)
	}
}

func TestUniformMarshal(t *testing.T) {
	cam := NewCamera()
	u := cam.Uniform()
	buf := u.Marshal()
	if len(buf) != 64 {
		t.Fatalf("uniform size = %d, want 64", len(buf))
	}
}

func TestBindGroupProviderNamesAreUnique(t *testing.T) {
	a := NewCamera().BindGroupProvider().Label()
	b := NewCamera().BindGroupProvider().Label()
	if a == b {
		t.Fatalf("two cameras share bind group provider label %q", a)
	}
}
