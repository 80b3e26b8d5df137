package model

import (
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/material"
)

// Group is a run of Count indices starting at Start, drawn with
// Materials()[MaterialIndex].
type Group struct {
	Start         int
	Count         int
	MaterialIndex int
}

// Model is an indexed triangle mesh split into material groups. Its mesh
// provider receives the vertex and index buffers once the renderer has
// uploaded them.
type Model interface {
	Name() string

	// VertexData and IndexData are the mesh packed for upload.
	VertexData() []byte
	IndexData() []byte
	IndexCount() int

	// Groups are in draw order.
	Groups() []Group
	Materials() []material.Material

	MeshProvider() bind_group_provider.BindGroupProvider

	// Release frees the mesh buffers and every material.
	Release()
}

type model struct {
	name      string
	vertices  []GPUVertex
	indices   []uint32
	groups    []Group
	materials []material.Material
	mesh      bind_group_provider.BindGroupProvider
}

var _ Model = &model{}

// NewModel builds a model. Without WithGroups the whole index buffer is
// one group using material 0.
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.groups == nil && len(m.indices) > 0 {
		m.groups = []Group{{Count: len(m.indices)}}
	}
	m.mesh = bind_group_provider.NewBindGroupProvider("mesh_"+m.name, bind_group_provider.WithIndexCount(len(m.indices)))
	return m
}

func (m *model) Name() string                                        { return m.name }
func (m *model) VertexData() []byte                                  { return MarshalVertices(m.vertices) }
func (m *model) IndexData() []byte                                   { return MarshalIndices(m.indices) }
func (m *model) IndexCount() int                                     { return len(m.indices) }
func (m *model) Groups() []Group                                     { return m.groups }
func (m *model) Materials() []material.Material                      { return m.materials }
func (m *model) MeshProvider() bind_group_provider.BindGroupProvider { return m.mesh }

func (m *model) Release() {
	m.mesh.Release()
	for _, mat := range m.materials {
		mat.Release()
	}
}
