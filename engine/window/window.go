package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotSpawned is returned when an operation needs the platform window
// and none was created.
var ErrNotSpawned = errors.New("window: platform window not created")

// Window is a native window with a WebGPU-compatible surface and the input
// events the viewer reacts to. All methods are called from the thread that
// created it.
type Window interface {
	ID() string

	// Width and Height are the framebuffer size in pixels, which differs
	// from the window size on high-DPI displays.
	Width() int
	Height() int

	// SetUpdateCallback installs the function ProcessMessages calls once
	// per loop iteration.
	SetUpdateCallback(callback func())
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback receives wheel offsets. Positive yoff scrolls away
	// from the user.
	SetScrollCallback(callback func(xoff, yoff float64))

	// SetKeyDownCallback fires on press and on auto-repeat with the GLFW
	// key code.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetMouseDownCallback, SetMouseUpCallback and SetMouseMoveCallback
	// report the cursor in screen coordinates. Only the primary button is
	// reported.
	SetMouseDownCallback(callback func(x, y float64))
	SetMouseUpCallback(callback func(x, y float64))
	SetMouseMoveCallback(callback func(x, y float64))

	// SurfaceDescriptor is nil before the platform window exists.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ProcessMessages polls events until the window closes.
	ProcessMessages()
	IsRunning() bool
	RequestClose()

	Fullscreen() bool
	ToggleFullscreen()

	// Close destroys the platform window.
	//
	// Returns:
	//   - error: ErrNotSpawned if there is nothing to close
	Close() error
}

// platform is the native half of a window.
type platform interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	poll()
	running() bool
	requestClose()
	setFullscreen(on bool) bool
	destroy()
}

type handlers struct {
	update    func()
	resize    func(width, height int)
	scroll    func(xoff, yoff float64)
	keyDown   func(keyCode uint32)
	mouseDown func(x, y float64)
	mouseUp   func(x, y float64)
	mouseMove func(x, y float64)
}

type sizeLimits struct {
	minWidth, minHeight int
	maxWidth, maxHeight int
}

func (l sizeLimits) clamp(width, height int) (int, int) {
	return min(max(width, l.minWidth), l.maxWidth), min(max(height, l.minHeight), l.maxHeight)
}

type engineWindow struct {
	id, title     string
	limits        sizeLimits
	width, height int
	fullscreen    bool

	on     handlers
	native platform
}

var _ Window = &engineWindow{}

// NewWindow creates the window and shows it. It panics when the platform
// refuses to create one.
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := spawn(w); err != nil {
		panic(fmt.Sprintf("window %q: %v", w.id, err))
	}
	return w
}

// newEngineWindow resolves options without creating a platform window.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		id:     "main",
		title:  "Panorama",
		limits: sizeLimits{minWidth: 320, minHeight: 240, maxWidth: 7680, maxHeight: 4320},
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	w.width, w.height = w.limits.clamp(w.width, w.height)
	return w
}

func (w *engineWindow) ID() string       { return w.id }
func (w *engineWindow) Width() int       { return w.width }
func (w *engineWindow) Height() int      { return w.height }
func (w *engineWindow) Fullscreen() bool { return w.fullscreen }

func (w *engineWindow) SetUpdateCallback(callback func())                   { w.on.update = callback }
func (w *engineWindow) SetResizeCallback(callback func(width, height int))  { w.on.resize = callback }
func (w *engineWindow) SetScrollCallback(callback func(xoff, yoff float64)) { w.on.scroll = callback }
func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32))    { w.on.keyDown = callback }
func (w *engineWindow) SetMouseDownCallback(callback func(x, y float64))    { w.on.mouseDown = callback }
func (w *engineWindow) SetMouseUpCallback(callback func(x, y float64))      { w.on.mouseUp = callback }
func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float64))    { w.on.mouseMove = callback }

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && w.native.running()
}

func (w *engineWindow) RequestClose() {
	if w.native != nil {
		w.native.requestClose()
	}
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.native.poll()
		if !w.IsRunning() {
			return
		}
		if w.on.update != nil {
			w.on.update()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) ToggleFullscreen() {
	if w.native != nil && w.native.setFullscreen(!w.fullscreen) {
		w.fullscreen = !w.fullscreen
	}
}

func (w *engineWindow) Close() error {
	if w.native == nil {
		return ErrNotSpawned
	}
	w.native.destroy()
	w.native = nil
	return nil
}

// framebufferResized records a new framebuffer size and notifies the
// resize callback.
func (w *engineWindow) framebufferResized(width, height int) {
	w.width, w.height = width, height
	if w.on.resize != nil {
		w.on.resize(width, height)
	}
}
