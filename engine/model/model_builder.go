package model

import "github.com/Carmen-Shannon/oxy-panorama/engine/renderer/material"

type ModelBuilderOption func(*model)

func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
	}
}

// WithIndices sets the triangle list indices.
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
	}
}

// WithGroups splits the index buffer between materials.
//
// Parameters:
//   - groups: ranges in draw order, each naming a material index
//
// Returns:
//   - ModelBuilderOption: the option
func WithGroups(groups []Group) ModelBuilderOption {
	return func(m *model) {
		m.groups = groups
	}
}

// WithMaterials sets the materials groups refer to by index.
func WithMaterials(mats []material.Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = mats
	}
}
