package material

import (
	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
)

// Binding indices of a textured material's bind group.
const (
	TextureBinding = 0
	SamplerBinding = 1
)

// Material is one image and the way it is sampled. The pixels are staged
// on the CPU at construction and uploaded when the scene prepares the
// material; the GPU objects then live on its bind group provider.
type Material interface {
	Name() string
	Texture() common.TextureStagingData
	Sampler() common.SamplerStagingData

	// PipelineKey names the pipeline that draws this material.
	PipelineKey() string
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// ReleaseStaging drops the CPU pixels after upload.
	ReleaseStaging()
	Release()
}

type material struct {
	name        string
	texture     common.TextureStagingData
	sampler     common.SamplerStagingData
	pipelineKey string
	provider    bind_group_provider.BindGroupProvider
}

var _ Material = &material{}

// NewMaterial stages texture under name. The name doubles as the GPU
// debug label.
func NewMaterial(name string, texture common.TextureStagingData, options ...MaterialBuilderOption) Material {
	m := &material{
		name:    name,
		texture: texture,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.provider == nil {
		m.provider = bind_group_provider.NewBindGroupProvider("material_" + name)
	}
	return m
}

func (m *material) Name() string                       { return m.name }
func (m *material) Texture() common.TextureStagingData { return m.texture }
func (m *material) Sampler() common.SamplerStagingData { return m.sampler }
func (m *material) PipelineKey() string                { return m.pipelineKey }

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.provider
}

func (m *material) ReleaseStaging() {
	m.texture.Pixels = nil
}

func (m *material) Release() {
	m.provider.Release()
}
