package renderer

import (
	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode selects how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank: no tearing, capped at the refresh rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// ParsePresentMode reads "vsync" or "uncapped". Anything else is VSync.
func ParsePresentMode(s string) PresentMode {
	if s == "uncapped" {
		return PresentModeUncapped
	}
	return PresentModeVSync
}

func (m PresentMode) surfaceMode() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// MSAASampleCount is the multisample count. WebGPU only guarantees 1 and 4.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// backend is the GPU-facing half of the renderer. The renderer owns the
// pipeline cache and forwards everything else.
type backend interface {
	// ConfigureSurface sizes the swapchain and its attachments. A zero
	// dimension is remembered but leaves the attachments alone.
	ConfigureSurface(width, height int)
	SurfaceSize() (int, int)

	// RegisterRenderPipeline compiles p's shaders and stores the GPU
	// pipeline on p.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	BeginFrame() error
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, firstIndex, indexCount uint32, bindGroups []bind_group_provider.BindGroupProvider)
	EndFrame()
	Present()

	Release()
}
