package camera

import "sync"

// lookControllerImpl keeps the eye fixed and turns by moving the target,
// which is what a camera at the center of a sky box needs.
type lookControllerImpl struct {
	mu     *sync.Mutex
	eye    [3]float32
	target [3]float32
}

var _ CameraController = &lookControllerImpl{}

// NewLookController starts at the origin facing -Z.
func NewLookController(options ...CameraControllerOption) CameraController {
	lc := &lookControllerImpl{mu: &sync.Mutex{}, target: [3]float32{0, 0, -1}}
	for _, opt := range options {
		opt(lc)
	}
	return lc
}

func (lc *lookControllerImpl) Position() (x, y, z float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.eye[0], lc.eye[1], lc.eye[2]
}

func (lc *lookControllerImpl) Target() (x, y, z float32) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.target[0], lc.target[1], lc.target[2]
}

func (lc *lookControllerImpl) SetTarget(x, y, z float32) {
	lc.mu.Lock()
	lc.target = [3]float32{x, y, z}
	lc.mu.Unlock()
}

func (lc *lookControllerImpl) SetPosition(x, y, z float32) {
	lc.mu.Lock()
	lc.eye = [3]float32{x, y, z}
	lc.mu.Unlock()
}
