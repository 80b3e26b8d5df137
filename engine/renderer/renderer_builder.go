package renderer

type RendererBuilderOption func(*renderer)

// WithPresentMode picks vsync or uncapped presentation.
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.presentMode = mode
	}
}

// WithMSAA sets the sample count. MSAA4x unless overridden.
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.msaa = count
	}
}

// WithClearColor sets the color each frame starts from.
//
// Parameters:
//   - red, green, blue, alpha: components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: the option
func WithClearColor(red, green, blue, alpha float64) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.clearColor = [4]float64{red, green, blue, alpha}
	}
}

// WithForceSoftwareRenderer requests the fallback (CPU) adapter. Needs a
// software Vulkan driver such as lavapipe or SwiftShader.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.fallbackAdapter = force
	}
}
