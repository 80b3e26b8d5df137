package camera

type CameraBuilderOption func(*cameraImpl)

// WithFov sets the vertical field of view in radians.
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.fov = fov
	}
}

// WithAspect sets width / height.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.aspect = aspect
	}
}

// WithClipPlanes sets the near and far plane distances.
//
// Parameters:
//   - near: > 0
//   - far: > near
//
// Returns:
//   - CameraBuilderOption: the option
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.near, c.lens.far = near, far
	}
}

// WithController attaches ctrl. NewCamera derives the first view matrix
// from it once all options have run.
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
