package pipeline

import (
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type PipelineBuilderOption func(*pipeline)

// WithVertexShader and WithFragmentShader attach the two stages. Both are
// required before the renderer will register the pipeline.
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return withStage(shader.ShaderTypeVertex, s)
}

func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return withStage(shader.ShaderTypeFragment, s)
}

func withStage(t shader.ShaderType, s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shaders[t] = s
	}
}

// WithDepth toggles the depth test and depth writes.
//
// Parameters:
//   - test: compare against the depth buffer
//   - write: store fragment depth
//
// Returns:
//   - PipelineBuilderOption: the option
func WithDepth(test, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.depthTest, p.state.depthWrite = test, write
	}
}

func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.cull = mode
	}
}

func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.frontFace = frontFace
	}
}

func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.topology = topology
	}
}

// WithBlendState turns blending on. nil turns it off.
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.blend = blendState
	}
}
