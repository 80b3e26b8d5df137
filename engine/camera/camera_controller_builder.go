package camera

type CameraControllerOption func(*lookControllerImpl)

// WithPosition places the eye.
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(lc *lookControllerImpl) {
		lc.eye = [3]float32{x, y, z}
	}
}

// WithTarget sets the initial look-at point.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: the option
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(lc *lookControllerImpl) {
		lc.target = [3]float32{x, y, z}
	}
}
