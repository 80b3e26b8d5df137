package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene renders frames. Scenes are active by default.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithCameraVarName sets the WGSL variable name of the camera uniform the scene looks for
// in each pipeline's vertex shader. Defaults to "camera".
//
// Parameters:
//   - name: the variable name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCameraVarName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.cameraVarName = name
	}
}
