package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type glfwPlatform struct {
	win    *glfw.Window
	closed bool

	// placement restored when leaving fullscreen
	restoreX, restoreY int
	restoreW, restoreH int
}

var _ platform = &glfwPlatform{}

// spawn opens a GLFW window for w without a client API, since WebGPU
// brings its own, and routes GLFW input into w's handlers.
func spawn(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("glfw create window: %w", err)
	}
	l := w.limits
	win.SetSizeLimits(l.minWidth, l.minHeight, l.maxWidth, l.maxHeight)

	p := &glfwPlatform{win: win}
	w.native = p

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Release && w.on.keyDown != nil {
			w.on.keyDown(uint32(key))
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.on.scroll != nil {
			w.on.scroll(xoff, yoff)
		}
	})
	win.SetMouseButtonCallback(func(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		cb := w.on.mouseUp
		if action == glfw.Press {
			cb = w.on.mouseDown
		}
		if cb != nil {
			cb(gw.GetCursorPos())
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.on.mouseMove != nil {
			w.on.mouseMove(x, y)
		}
	})
	// Framebuffer size, not window size: they differ on Retina displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.framebufferResized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()

	if w.fullscreen {
		w.fullscreen = p.setFullscreen(true)
	}
	return nil
}

func (p *glfwPlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(p.win)
}

func (p *glfwPlatform) poll() { glfw.PollEvents() }

func (p *glfwPlatform) running() bool {
	return !p.closed && !p.win.ShouldClose()
}

func (p *glfwPlatform) requestClose() {
	p.closed = true
	p.win.SetShouldClose(true)
}

// setFullscreen moves the window onto the primary monitor at its current
// video mode, or back to where it was. It reports whether the switch
// happened.
func (p *glfwPlatform) setFullscreen(on bool) bool {
	if !on {
		p.win.SetMonitor(nil, p.restoreX, p.restoreY, p.restoreW, p.restoreH, 0)
		return true
	}
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return false
	}
	p.restoreX, p.restoreY = p.win.GetPos()
	p.restoreW, p.restoreH = p.win.GetSize()
	mode := monitor.GetVideoMode()
	p.win.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	return true
}

func (p *glfwPlatform) destroy() {
	p.requestClose()
	p.win.Destroy()
	glfw.Terminate()
}
