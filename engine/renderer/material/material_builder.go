package material

import (
	"github.com/Carmen-Shannon/oxy-panorama/common"
)

// MaterialBuilderOption is a functional option used to configure a Material during construction.
type MaterialBuilderOption func(*material)

// WithSampler overrides the sampler configuration. Zero fields keep the renderer's defaults.
//
// Parameters:
//   - sampler: the sampler configuration
//
// Returns:
//   - MaterialBuilderOption: a function that sets the sampler of the material
func WithSampler(sampler common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.sampler = sampler
	}
}

// WithPipelineKey sets the render pipeline the material is drawn with.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: a function that sets the pipeline key of the material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}
