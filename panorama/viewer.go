// Package panorama implements a 360° panorama viewer: a camera at the center of a textured
// sky box, steered by pointer drags, touches, the wheel, device orientation and auto-rotation.
package panorama

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/host"
	"github.com/Carmen-Shannon/oxy-panorama/orientation"
)

const (
	// TileCount is the number of images a panorama is built from.
	TileCount = 6

	// DefaultFov is the vertical field of view in degrees.
	DefaultFov = 75.0

	MinFocalLength = 5.0
	MaxFocalLength = 30.0

	NearPlane = 1.0
	FarPlane  = 1100.0

	// TargetRadius is the distance of the look-at point from the camera.
	TargetRadius = 500.0

	// LatLimit bounds the latitude in both directions, keeping the camera off the poles.
	LatLimit = 85.0

	// AutoRotateStep is the longitude advance per frame while animated.
	AutoRotateStep = 0.1

	// DragSensitivity converts pointer pixels into degrees.
	DragSensitivity = 0.1
)

var (
	ErrContainerNotFound = errors.New("panorama: container not found")
	ErrTileCount         = errors.New("panorama: exactly six tile images are required")
)

// Coordinates is the viewing direction. Lon and Lat are in degrees, Phi and Theta in radians
// and derived from them on every frame.
type Coordinates struct {
	Lon   float64
	Lat   float64
	Phi   float64
	Theta float64
}

// Touch is one contact point of a touch event in container pixels.
type Touch struct {
	ID   int
	X, Y float64
}

// Viewer renders a panorama into a host container and maps input onto the viewing direction.
// Input methods and render ticks are expected on the host's loop thread; the state is also
// guarded so other goroutines may call the query methods.
type Viewer interface {
	// IncreaseFocalLength zooms in by one step, up to MaxFocalLength.
	//
	// Returns:
	//   - float64: the camera's effective focal length afterwards
	IncreaseFocalLength() float64

	// DecreaseFocalLength zooms out by one step, down to MinFocalLength.
	//
	// Returns:
	//   - float64: the camera's effective focal length afterwards
	DecreaseFocalLength() float64

	// FocalLength returns the camera's effective focal length.
	FocalLength() float64

	// IsAnimated reports whether auto-rotation is on.
	IsAnimated() bool

	// SetAnimated turns auto-rotation on or off.
	SetAnimated(animated bool)

	// Resize matches the camera aspect and render surface to the container's current size.
	Resize()

	// PointerDown starts a drag at (x, y). Ignored while another gesture is in progress.
	PointerDown(x, y float64)

	// PointerMove steers the view while a pointer drag is in progress.
	PointerMove(x, y float64)

	// PointerUp ends a pointer drag and restores the auto-rotation state it suspended.
	PointerUp()

	// TouchStart starts a drag from the first touch.
	TouchStart(touches []Touch)

	// TouchMove steers the view from the first touch.
	TouchMove(touches []Touch)

	// TouchEnd ends a touch drag.
	TouchEnd(touches []Touch)

	// Wheel zooms: a positive delta zooms in, anything else zooms out.
	//
	// Returns:
	//   - bool: always true; the host should not apply its own scrolling
	Wheel(deltaY float64) bool

	// HandleOrientation applies a device-orientation reading relative to the previous one.
	// The first reading after start or reset only records the baseline.
	HandleOrientation(alpha, beta float64)

	// ResetOrientation forgets the device-orientation baseline.
	ResetOrientation()

	// Orientation returns the current viewing direction.
	Orientation() Coordinates

	// SetOrientation points the view at lon/lat in degrees. Lat is clamped on the next frame.
	SetOrientation(lon, lat float64)

	// Target returns the point the camera looks at.
	Target() (x, y, z float64)

	// Camera returns the viewer's camera.
	Camera() camera.Camera

	// Start schedules the render loop. No-op while running.
	Start()

	// Stop cancels the render loop. Frames already queued are dropped.
	Stop()

	// Running reports whether the render loop is scheduled.
	Running() bool

	// Release stops the loop, detaches the orientation source and frees the renderer.
	Release()
}

type gestureSource int

const (
	gesturePointer gestureSource = iota + 1
	gestureTouch
)

// gesture is the state captured when a drag starts and consulted until it ends.
type gesture struct {
	source       gestureSource
	startX       float64
	startY       float64
	startLon     float64
	startLat     float64
	wasAnimating bool
}

// orientationBaseline is the last device-orientation reading.
type orientationBaseline struct {
	alpha float64
	beta  float64
}

type viewer struct {
	mu *sync.Mutex

	container host.Container
	scheduler host.Scheduler
	camera    camera.Camera
	renderer  Renderer

	coords      Coordinates
	target      [3]float64
	focalLength float64
	animated    bool
	gesture     *gesture
	baseline    *orientationBaseline

	running    bool
	generation uint64
	frameErr   bool

	cancelOrientation func()

	// construction settings
	autoStart         bool
	rendererFactory   RendererFactory
	tileLoader        TileLoader
	orientationSource orientation.Source
	loadContext       context.Context
}

var _ Viewer = &viewer{}

// NewViewer builds a viewer inside the container registered under containerID.
// Images are six locators in tile-index order. TileOrder decides which box
// face shows each tile, so they are not passed in face order.
// On any failure everything built so far is released and nothing is scheduled.
//
// Parameters:
//   - h: the host providing the container and the scheduler
//   - containerID: the container identifier
//   - images: the six tile locators (paths or http(s) URLs)
//   - options: variadic list of ViewerBuilderOption functions
//
// Returns:
//   - Viewer: the running viewer
//   - error: ErrContainerNotFound, ErrTileCount, or a wrapped load/renderer error
func NewViewer(h host.Host, containerID string, images []string, options ...ViewerBuilderOption) (Viewer, error) {
	v := &viewer{
		mu:          &sync.Mutex{},
		autoStart:   true,
		loadContext: context.Background(),
	}
	for _, opt := range options {
		opt(v)
	}

	c, ok := h.Container(containerID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrContainerNotFound, containerID)
	}
	if len(images) != TileCount {
		return nil, fmt.Errorf("%w: got %d", ErrTileCount, len(images))
	}
	v.container = c
	v.scheduler = h.Scheduler()

	tileLoader := v.tileLoader
	if tileLoader == nil {
		l := newDefaultTileLoader()
		defer l.Close()
		tileLoader = l
	}
	tiles, err := tileLoader.Load(v.loadContext, images)
	if err != nil {
		return nil, fmt.Errorf("panorama: load tiles: %w", err)
	}

	v.camera = camera.NewCamera(
		camera.WithFov(float32(common.DegToRad(DefaultFov))),
		camera.WithAspect(float32(aspectOf(c.Width(), c.Height()))),
		camera.WithClipPlanes(NearPlane, FarPlane),
		camera.WithController(camera.NewLookController(camera.WithPosition(0, 0, 0))),
	)
	v.focalLength = float64(v.camera.FocalLength())
	v.updateTarget()

	factory := v.rendererFactory
	if factory == nil {
		factory = SkyBoxRendererFactory(nil)
	}
	r, err := factory(c, v.camera, tiles)
	if err != nil {
		return nil, fmt.Errorf("panorama: renderer: %w", err)
	}
	v.renderer = r
	if w, h := r.Size(); w != c.Width() || h != c.Height() {
		r.Resize(c.Width(), c.Height())
	}

	if v.orientationSource != nil {
		v.cancelOrientation = v.orientationSource.Subscribe(func(ev orientation.Event) {
			v.scheduler.Dispatch(func() { v.HandleOrientation(ev.Alpha, ev.Beta) })
		})
	}

	if v.autoStart {
		v.Start()
	}
	return v, nil
}

func (v *viewer) IncreaseFocalLength() float64 {
	return v.zoom(1)
}

func (v *viewer) DecreaseFocalLength() float64 {
	return v.zoom(-1)
}

func (v *viewer) zoom(step float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	// A very wide container seeds a focal length below the range; a step
	// that clamping would turn around is dropped.
	next := common.Clamp(v.focalLength+step, MinFocalLength, MaxFocalLength)
	if (next-v.focalLength)*step > 0 {
		v.focalLength = next
		v.camera.SetFocalLength(float32(next))
	}
	return float64(v.camera.FocalLength())
}

func (v *viewer) FocalLength() float64 {
	return float64(v.camera.FocalLength())
}

func (v *viewer) IsAnimated() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.animated
}

func (v *viewer) SetAnimated(animated bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.animated = animated
}

func (v *viewer) Resize() {
	v.mu.Lock()
	r := v.renderer
	v.mu.Unlock()
	if r == nil {
		return
	}
	w, h := v.container.Width(), v.container.Height()
	v.camera.SetAspect(float32(aspectOf(w, h)))
	r.Resize(w, h)
}

func (v *viewer) PointerDown(x, y float64) {
	v.beginGesture(gesturePointer, x, y)
}

func (v *viewer) PointerMove(x, y float64) {
	v.moveGesture(gesturePointer, x, y)
}

func (v *viewer) PointerUp() {
	v.endGesture(gesturePointer)
}

func (v *viewer) TouchStart(touches []Touch) {
	if len(touches) == 0 {
		return
	}
	v.beginGesture(gestureTouch, touches[0].X, touches[0].Y)
}

func (v *viewer) TouchMove(touches []Touch) {
	if len(touches) == 0 {
		return
	}
	v.moveGesture(gestureTouch, touches[0].X, touches[0].Y)
}

func (v *viewer) TouchEnd([]Touch) {
	v.endGesture(gestureTouch)
}

func (v *viewer) beginGesture(src gestureSource, x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gesture != nil {
		return
	}
	v.gesture = &gesture{
		source:       src,
		startX:       x,
		startY:       y,
		startLon:     v.coords.Lon,
		startLat:     v.coords.Lat,
		wasAnimating: v.animated,
	}
	v.animated = false
}

func (v *viewer) moveGesture(src gestureSource, x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	g := v.gesture
	if g == nil || g.source != src {
		return
	}
	v.coords.Lon = (g.startX-x)*DragSensitivity + g.startLon
	v.coords.Lat = (y-g.startY)*DragSensitivity + g.startLat
}

func (v *viewer) endGesture(src gestureSource) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gesture == nil || v.gesture.source != src {
		return
	}
	v.animated = v.gesture.wasAnimating
	v.gesture = nil
}

func (v *viewer) Wheel(deltaY float64) bool {
	if deltaY > 0 {
		v.IncreaseFocalLength()
	} else {
		v.DecreaseFocalLength()
	}
	return true
}

func (v *viewer) HandleOrientation(alpha, beta float64) {
	if !isFinite(alpha) || !isFinite(beta) {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	// math.Mod keeps the sign of the dividend, so a wrap from 359 to 1 moves by -358.
	if b := v.baseline; b != nil {
		v.coords.Lon += math.Mod(alpha-b.alpha, 360)
		v.coords.Lat += math.Mod(beta-b.beta, 180)
	}
	v.baseline = &orientationBaseline{alpha: alpha, beta: beta}
}

func (v *viewer) ResetOrientation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.baseline = nil
}

func (v *viewer) Orientation() Coordinates {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.coords
}

func (v *viewer) SetOrientation(lon, lat float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.coords.Lon = lon
	v.coords.Lat = lat
}

func (v *viewer) Target() (x, y, z float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.target[0], v.target[1], v.target[2]
}

func (v *viewer) Camera() camera.Camera {
	return v.camera
}

func (v *viewer) Start() {
	v.mu.Lock()
	if v.running {
		v.mu.Unlock()
		return
	}
	v.running = true
	v.generation++
	v.baseline = nil
	gen := v.generation
	v.mu.Unlock()

	v.scheduler.RequestFrame(func() { v.tick(gen) })
}

func (v *viewer) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.running {
		return
	}
	v.running = false
	v.generation++
}

func (v *viewer) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

func (v *viewer) Release() {
	v.Stop()
	if v.cancelOrientation != nil {
		v.cancelOrientation()
		v.cancelOrientation = nil
	}
	v.mu.Lock()
	r := v.renderer
	v.renderer = nil
	v.mu.Unlock()
	if r != nil {
		r.Release()
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// tick advances the view by one frame, draws it and schedules the next frame.
func (v *viewer) tick(gen uint64) {
	v.mu.Lock()
	if !v.running || gen != v.generation {
		v.mu.Unlock()
		return
	}
	if v.animated {
		v.coords.Lon += AutoRotateStep
	}
	v.updateTarget()
	r := v.renderer
	v.mu.Unlock()

	if err := r.Draw(); err != nil {
		v.logFrameError(err)
	} else {
		v.frameErr = false
	}

	v.mu.Lock()
	next := v.running && gen == v.generation
	v.mu.Unlock()
	if next {
		v.scheduler.RequestFrame(func() { v.tick(gen) })
	}
}

// updateTarget clamps the latitude, derives the spherical angles and points the camera.
// Callers hold v.mu.
func (v *viewer) updateTarget() {
	v.coords.Lat = common.Clamp(v.coords.Lat, -LatLimit, LatLimit)
	v.coords.Phi = common.DegToRad(90 - v.coords.Lat)
	v.coords.Theta = common.DegToRad(v.coords.Lon)
	v.target = SphericalTarget(v.coords.Phi, v.coords.Theta)

	if ctrl := v.camera.Controller(); ctrl != nil {
		ctrl.SetTarget(float32(v.target[0]), float32(v.target[1]), float32(v.target[2]))
	}
}

// logFrameError logs the first of a run of failing frames.
func (v *viewer) logFrameError(err error) {
	if v.frameErr {
		return
	}
	v.frameErr = true
	log.Printf("[Viewer] draw %s: %v", v.container.ID(), err)
}

// SphericalTarget converts polar angle phi and azimuth theta (radians) into the look-at point
// on the sphere of radius TargetRadius.
//
// Parameters:
//   - phi: angle from the +Y axis
//   - theta: angle around the Y axis, measured from +X towards +Z
//
// Returns:
//   - [3]float64: the target point
func SphericalTarget(phi, theta float64) [3]float64 {
	sinPhi := math.Sin(phi)
	return [3]float64{
		TargetRadius * sinPhi * math.Cos(theta),
		TargetRadius * math.Cos(phi),
		TargetRadius * sinPhi * math.Sin(theta),
	}
}

func aspectOf(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float64(width) / float64(height)
}
