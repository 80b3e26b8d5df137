package window

type WindowBuilderOption func(w *engineWindow)

// WithID names the window. Defaults to "main".
func WithID(id string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.id = id
	}
}

func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth and WithHeight set the requested framebuffer size. It is
// clamped to the size limits.
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithMinSize sets the smallest size the user can drag the window to.
// Defaults to 320x240.
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits.minWidth, w.limits.minHeight = width, height
	}
}

// WithMaxSize caps the window size. Defaults to 7680x4320.
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits.maxWidth, w.limits.maxHeight = width, height
	}
}

// WithFullscreen opens the window fullscreen on the primary monitor.
func WithFullscreen(fullscreen bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.fullscreen = fullscreen
	}
}
