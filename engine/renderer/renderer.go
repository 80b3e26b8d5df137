package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceTarget is anything a GPU surface can be created on, such as a
// window.Window.
type SurfaceTarget interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// Renderer owns the GPU device and surface. It caches pipelines by key and
// records every frame as a single render pass:
//
//	BeginFrame, DrawCall..., EndFrame, Present
type Renderer interface {
	// Pipeline returns the cached pipeline for key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates and caches each pipeline. Keys that are
	// already cached are skipped.
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface. Zero sizes park it until the next
	// non-zero Resize.
	Resize(width, height int)
	Size() (int, int)

	// InitMeshBuffers uploads a mesh onto provider.
	//
	// Parameters:
	//   - provider: receives the vertex and index buffers
	//   - vertexData: packed vertices
	//   - indexData: little-endian uint32 indices
	//   - indexCount: number of indices in indexData
	//
	// Returns:
	//   - error: empty data or a buffer allocation failure
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup builds provider's bind group for descriptor, creating
	// any uniform or storage buffer it lacks. Textures and samplers have
	// to be set up first.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame returns ErrSurfaceUnavailable while the surface has no area.
	BeginFrame() error

	// DrawCall draws indexCount indices from firstIndex with the pipeline
	// cached under pipelineKey. bindGroups[i] is bound at @group(i).
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, firstIndex, indexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	EndFrame()
	Present()

	// Release frees the cached pipelines and the device.
	Release()
}

type settings struct {
	presentMode     PresentMode
	msaa            MSAASampleCount
	clearColor      [4]float64
	fallbackAdapter bool
}

type renderer struct {
	mu        *sync.Mutex
	pipelines map[string]pipeline.Pipeline
	settings  settings
	backend   backend
}

var _ Renderer = &renderer{}

// NewRenderer opens a WebGPU device on target and configures the surface
// at the target's current size. It panics when no adapter or device can
// be obtained.
func NewRenderer(target SurfaceTarget, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:        &sync.Mutex{},
		pipelines: make(map[string]pipeline.Pipeline),
		settings: settings{
			presentMode: PresentModeVSync,
			msaa:        MSAA4x,
			clearColor:  [4]float64{0.02, 0.02, 0.02, 1},
		},
	}
	// The adapter request reads the settings, so options go first.
	for _, opt := range options {
		opt(r)
	}

	r.backend = newWGPUBackend(target.SurfaceDescriptor(), r.settings)
	r.backend.ConfigureSurface(target.Width(), target.Height())
	return r
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if r.pipelines[key] != nil {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelines[key] = p
	}
	return nil
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, firstIndex, indexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("draw: pipeline %q is not registered", pipelineKey)
	}
	r.backend.DrawCall(p, meshProvider, firstIndex, indexCount, bindGroups)
	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelines {
		p.Release()
		delete(r.pipelines, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}

func (r *renderer) Resize(width, height int) { r.backend.ConfigureSurface(width, height) }
func (r *renderer) Size() (int, int)         { return r.backend.SurfaceSize() }
func (r *renderer) BeginFrame() error        { return r.backend.BeginFrame() }
func (r *renderer) EndFrame()                { r.backend.EndFrame() }
func (r *renderer) Present()                 { r.backend.Present() }

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	return r.backend.InitBindGroup(provider, descriptor)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}
