package camera

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/chewxy/math32"
)

// DefaultFilmGauge is the 35mm film frame height, in millimetres, behind
// the focal length <-> field of view conversion.
const DefaultFilmGauge float32 = 35

var cameraSeq atomic.Uint64

// Camera is a perspective camera whose eye and look-at point come from a
// CameraController. Matrices are recomputed whenever a lens setting
// changes or Update is called.
type Camera interface {
	// Fov is the vertical field of view in radians.
	Fov() float32
	Aspect() float32
	Near() float32
	Far() float32

	// FocalLength derives the focal length in millimetres from the field
	// of view. Landscape frames shrink the film height by the aspect ratio.
	FocalLength() float32

	// SetFocalLength is the inverse of FocalLength: it rewrites the field
	// of view so FocalLength reports focalLength afterwards.
	//
	// Parameters:
	//   - focalLength: millimetres, > 0
	SetFocalLength(focalLength float32)

	// SetAspect stores width / height and rebuilds the projection.
	SetAspect(aspect float32)

	ProjectionMatrix() [16]float32
	ViewProjectionMatrix() [16]float32

	// Uniform snapshots the view-projection matrix for upload.
	Uniform() GPUCameraUniform

	// Controller may be nil.
	Controller() CameraController

	// Update re-reads the controller. No-op without one.
	Update()

	BindGroupProvider() bind_group_provider.BindGroupProvider
}

type lens struct {
	fov, aspect float32
	near, far   float32
	filmGauge   float32
}

// filmHeight keeps the full gauge for portrait frames.
func (l lens) filmHeight() float32 {
	return l.filmGauge / max(l.aspect, 1)
}

type cameraImpl struct {
	mu *sync.Mutex

	lens lens
	up   [3]float32

	view, proj, viewProj [16]float32

	controller CameraController
	provider   bind_group_provider.BindGroupProvider
}

var _ Camera = &cameraImpl{}

// NewCamera returns a camera with a 50 degree field of view, square
// aspect and clip planes at 0.1 and 2000. The view matrix is the identity
// until a controller is attached.
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu: &sync.Mutex{},
		lens: lens{
			fov:       50 * math32.Pi / 180,
			aspect:    1,
			near:      0.1,
			far:       2000,
			filmGauge: DefaultFilmGauge,
		},
		up:       [3]float32{0, 1, 0},
		provider: bind_group_provider.NewBindGroupProvider(fmt.Sprintf("camera_%d", cameraSeq.Add(1))),
	}
	common.Identity(c.view[:])
	for _, opt := range options {
		opt(c)
	}
	c.rebuild()
	return c
}

func (c *cameraImpl) lensSnapshot() lens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens
}

func (c *cameraImpl) Fov() float32    { return c.lensSnapshot().fov }
func (c *cameraImpl) Aspect() float32 { return c.lensSnapshot().aspect }
func (c *cameraImpl) Near() float32   { return c.lensSnapshot().near }
func (c *cameraImpl) Far() float32    { return c.lensSnapshot().far }

func (c *cameraImpl) FocalLength() float32 {
	l := c.lensSnapshot()
	return l.filmHeight() / 2 / math32.Tan(l.fov/2)
}

func (c *cameraImpl) SetFocalLength(focalLength float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens.fov = 2 * math32.Atan(c.lens.filmHeight()/2/focalLength)
	c.rebuild()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens.aspect = aspect
	c.rebuild()
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proj
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProj
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	return GPUCameraUniform{ViewProj: c.ViewProjectionMatrix()}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller != nil {
		c.rebuild()
	}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.provider
}

// rebuild recomputes every matrix. Caller holds mu.
func (c *cameraImpl) rebuild() {
	if ctrl := c.controller; ctrl != nil {
		px, py, pz := ctrl.Position()
		tx, ty, tz := ctrl.Target()
		common.LookAt(c.view[:], px, py, pz, tx, ty, tz, c.up[0], c.up[1], c.up[2])
	}
	l := c.lens
	common.Perspective(c.proj[:], l.fov, l.aspect, l.near, l.far)
	common.Mul4(c.viewProj[:], c.proj[:], c.view[:])
}
