package pipeline

import (
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline pairs a vertex and a fragment shader with the fixed-function
// state the renderer needs to build a GPU render pipeline. The GPU object
// itself is attached by the renderer on registration.
type Pipeline interface {
	// PipelineKey is the renderer's cache key.
	PipelineKey() string

	// Shader returns the stage's shader, nil if unset.
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline is nil until registered.
	RenderPipeline() *wgpu.RenderPipeline

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// BlendState is nil when blending is off.
	BlendState() *wgpu.BlendState

	// SetRenderPipeline attaches rp and releases whatever it replaces.
	SetRenderPipeline(rp *wgpu.RenderPipeline)
	Release()
}

type fixedState struct {
	depthTest, depthWrite bool
	cull                  wgpu.CullMode
	topology              wgpu.PrimitiveTopology
	frontFace             wgpu.FrontFace
	writeMask             wgpu.ColorWriteMask
	blend                 *wgpu.BlendState
}

type pipeline struct {
	key     string
	shaders map[shader.ShaderType]shader.Shader
	state   fixedState
	gpu     *wgpu.RenderPipeline
}

var _ Pipeline = &pipeline{}

// NewPipeline describes a pipeline under key. Unless overridden it depth
// tests and writes, culls nothing, draws counter-clockwise triangle lists
// and does not blend.
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:     key,
		shaders: make(map[shader.ShaderType]shader.Shader, 2),
		state: fixedState{
			depthTest:  true,
			depthWrite: true,
			cull:       wgpu.CullModeNone,
			topology:   wgpu.PrimitiveTopologyTriangleList,
			frontFace:  wgpu.FrontFaceCCW,
			writeMask:  wgpu.ColorWriteMaskAll,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string                      { return p.key }
func (p *pipeline) Shader(t shader.ShaderType) shader.Shader { return p.shaders[t] }
func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline     { return p.gpu }

func (p *pipeline) DepthTestEnabled() bool           { return p.state.depthTest }
func (p *pipeline) DepthWriteEnabled() bool          { return p.state.depthWrite }
func (p *pipeline) CullMode() wgpu.CullMode          { return p.state.cull }
func (p *pipeline) Topology() wgpu.PrimitiveTopology { return p.state.topology }
func (p *pipeline) FrontFace() wgpu.FrontFace        { return p.state.frontFace }
func (p *pipeline) WriteMask() wgpu.ColorWriteMask   { return p.state.writeMask }
func (p *pipeline) BlendState() *wgpu.BlendState     { return p.state.blend }

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	if p.gpu != nil && p.gpu != rp {
		p.gpu.Release()
	}
	p.gpu = rp
}

func (p *pipeline) Release() {
	p.SetRenderPipeline(nil)
}
