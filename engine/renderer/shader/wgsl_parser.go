package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

type attrFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// typeLayout is the host-shareable size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

type structMember struct {
	name     string
	typeName string
	location int // -1 without @location
	builtin  bool
}

type structDecl struct {
	name    string
	members []structMember
}

var vertexAttrFormats = map[string]attrFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

var textureDims = map[string]wgpu.TextureViewDimension{
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_cube":     wgpu.TextureViewDimensionCube,
	"texture_3d":       wgpu.TextureViewDimension3D,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	structRe   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRe = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRe  = regexp.MustCompile(`@builtin\(\w+\)`)
	memberRe   = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)
	stageRe    = regexp.MustCompile(`(?s)@(vertex|fragment)\b\s*fn\s+(\w+)`)

	// @group(G) @binding(B) var<space> name: Type;
	resourceRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the first function tagged with the stage
// attribute for shaderType, or "".
func parseEntryPoint(source string, shaderType ShaderType) string {
	stage := shaderType.String()
	for _, m := range stageRe.FindAllStringSubmatch(stripComments(source), -1) {
		if m[1] == stage {
			return m[2]
		}
	}
	return ""
}

// parseVertexLayouts turns each struct made only of @location members into
// a tightly packed vertex buffer layout, keeping declaration order.
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var out []wgpu.VertexBufferLayout
	for _, decl := range findStructs(stripComments(source)) {
		if !isVertexInput(decl) {
			continue
		}
		layout, ok := vertexLayoutOf(decl)
		if ok {
			out = append(out, layout)
		}
	}
	return out
}

// parseBindGroupLayouts reflects the resource declarations of source.
//
// Parameters:
//   - source: WGSL source
//   - visibility: stage flags stamped on every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors by group, entries ordered by binding
//   - map[int]map[int]string: declared variable names by group then binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	src := stripComments(source)
	structLayouts := layoutStructs(findStructs(src))

	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	for _, m := range resourceRe.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := strings.TrimSpace(m[5])

		entry := classifyResource(uint32(binding), visibility, strings.TrimSpace(m[3]), typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := resolveTypeLayout(typeName, structLayouts); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		if _, dup := names[group][binding]; dup {
			entries[group] = slices.DeleteFunc(entries[group], func(e wgpu.BindGroupLayoutEntry) bool {
				return e.Binding == entry.Binding
			})
		}
		entries[group] = append(entries[group], entry)
		names[group][binding] = strings.TrimSpace(m[4])
	}

	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, list := range entries {
		sortByBinding(list)
		descriptors[g] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return descriptors, names
}

func sortByBinding(entries []wgpu.BindGroupLayoutEntry) {
	slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
		return cmp.Compare(a.Binding, b.Binding)
	})
}

func findStructs(source string) []structDecl {
	var decls []structDecl
	for _, m := range structRe.FindAllStringSubmatch(source, -1) {
		decls = append(decls, structDecl{name: m[1], members: parseMembers(m[2])})
	}
	return decls
}

func parseMembers(body string) []structMember {
	var members []structMember
	for _, raw := range splitTopLevel(body) {
		raw = strings.TrimSpace(raw)
		m := memberRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		loc := -1
		if l := locationRe.FindStringSubmatch(raw); l != nil {
			loc, _ = strconv.Atoi(l[1])
		}
		members = append(members, structMember{
			name:     m[1],
			typeName: strings.TrimSpace(m[2]),
			location: loc,
			builtin:  builtinRe.MatchString(raw),
		})
	}
	return members
}

// isVertexInput rejects empty structs and anything carrying a @builtin,
// which filters out vertex outputs.
func isVertexInput(decl structDecl) bool {
	if len(decl.members) == 0 {
		return false
	}
	return !slices.ContainsFunc(decl.members, func(m structMember) bool {
		return m.builtin || m.location < 0
	})
}

func vertexLayoutOf(decl structDecl) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	for _, m := range decl.members {
		f, ok := vertexAttrFormats[m.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         f.format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(m.location),
		})
		layout.ArrayStride += f.size
	}
	return layout, true
}
