package shader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which render stage a shader entry point belongs to.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

// String returns the WGSL attribute name of the stage.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ErrNoEntryPoint means the source has no function for the requested stage.
var ErrNoEntryPoint = errors.New("shader: no entry point for stage")

// Shader is one reflected stage of a WGSL program: its entry point, its
// vertex inputs and the resources it binds.
type Shader interface {
	Key() string
	Source() string
	ShaderType() ShaderType
	EntryPoint() string

	// BindGroupLayoutDescriptor is empty for groups the stage never declares.
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupFromVarName finds the @binding of the variable named
	// varName in group.
	//
	// Parameters:
	//   - group: @group index
	//   - varName: WGSL variable name
	//
	// Returns:
	//   - int: the binding, -1 when absent
	//   - bool: whether it was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts is nil for fragment shaders.
	VertexLayouts() []wgpu.VertexBufferLayout
}

type shader struct {
	key        string
	source     string
	stage      ShaderType
	entryPoint string

	groups   map[int]wgpu.BindGroupLayoutDescriptor
	varNames map[int]map[int]string
	vertices []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader reflects the shaderType stage of source. A file holding both
// entry points is passed once per stage.
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	entry := parseEntryPoint(source, shaderType)
	if entry == "" {
		return nil, fmt.Errorf("%w %s in %q", ErrNoEntryPoint, shaderType, key)
	}

	s := &shader{key: key, source: source, stage: shaderType, entryPoint: entry}
	visibility := wgpu.ShaderStageFragment
	if shaderType == ShaderTypeVertex {
		visibility = wgpu.ShaderStageVertex
		s.vertices = parseVertexLayouts(source)
	}
	s.groups, s.varNames = parseBindGroupLayouts(source, visibility)
	return s, nil
}

func (s *shader) Key() string                              { return s.key }
func (s *shader) Source() string                           { return s.source }
func (s *shader) ShaderType() ShaderType                   { return s.stage }
func (s *shader) EntryPoint() string                       { return s.entryPoint }
func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout { return s.vertices }

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.groups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.varNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

// MergeBindGroupLayouts unions the layouts of a vertex and a fragment
// stage. A binding both stages declare keeps the vertex entry with the
// visibility of both.
func MergeBindGroupLayouts(vertex, fragment Shader) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, s := range []Shader{vertex, fragment} {
		for g, desc := range s.BindGroupLayoutDescriptors() {
			entries := merged[g].Entries
			for _, e := range desc.Entries {
				i := slices.IndexFunc(entries, func(have wgpu.BindGroupLayoutEntry) bool {
					return have.Binding == e.Binding
				})
				if i < 0 {
					entries = append(entries, e)
					continue
				}
				entries[i].Visibility |= e.Visibility
			}
			merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
		}
	}
	for g, desc := range merged {
		sortByBinding(desc.Entries)
		merged[g] = desc
	}
	return merged
}
