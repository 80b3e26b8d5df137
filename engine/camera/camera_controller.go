package camera

// CameraController holds where a camera sits and what it looks at. The
// Camera only reads it, on construction and on Update.
type CameraController interface {
	Position() (x, y, z float32)
	Target() (x, y, z float32)

	// SetTarget moves the look-at point and leaves the eye alone.
	SetTarget(x, y, z float32)
	SetPosition(x, y, z float32)
}
