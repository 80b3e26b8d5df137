package skybox

import "github.com/Carmen-Shannon/oxy-panorama/common"

// SkyBoxBuilderOption is a functional option for configuring a sky box via NewSkyBox.
type SkyBoxBuilderOption func(*skyBox)

// WithEdge sets the edge length of the cube. Defaults to DefaultEdge.
//
// Parameters:
//   - edge: the edge length in world units
//
// Returns:
//   - SkyBoxBuilderOption: a function that applies the edge option
func WithEdge(edge float32) SkyBoxBuilderOption {
	return func(s *skyBox) {
		if edge > 0 {
			s.edge = edge
		}
	}
}

// WithName sets the model name and the prefix of the face material names.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - SkyBoxBuilderOption: a function that applies the name option
func WithName(name string) SkyBoxBuilderOption {
	return func(s *skyBox) {
		s.name = name
	}
}

// WithSampler sets the sampler used by every face. Zero fields fall back to clamp-to-edge
// addressing with linear filtering.
//
// Parameters:
//   - sampler: the sampler configuration
//
// Returns:
//   - SkyBoxBuilderOption: a function that applies the sampler option
func WithSampler(sampler common.SamplerStagingData) SkyBoxBuilderOption {
	return func(s *skyBox) {
		s.sampler = sampler
	}
}
