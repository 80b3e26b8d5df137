package shader

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// builtinLayouts follows https://www.w3.org/TR/WGSL/#alignment-and-size
var builtinLayouts = map[string]typeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},
	"vec2<u32>": {8, 8},
	"vec4<u32>": {16, 16},

	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// alignUp rounds n up to a multiple of the power-of-two a.
func alignUp(a, n uint64) uint64 {
	if a == 0 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}

// resolveTypeLayout looks typeName up among the builtin layouts and the
// structs resolved so far, and also handles fixed-size arrays of either.
// Runtime-sized arrays and unknown names report false.
func resolveTypeLayout(typeName string, structs map[string]typeLayout) (typeLayout, bool) {
	if l, ok := builtinLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := structs[typeName]; ok {
		return l, true
	}

	base, params := splitTypeParams(typeName)
	elemName, countText, found := strings.Cut(params, ",")
	if base != "array" || !found {
		return typeLayout{}, false
	}
	elem, ok := resolveTypeLayout(strings.TrimSpace(elemName), structs)
	if !ok {
		return typeLayout{}, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(countText), 10, 64)
	if err != nil {
		return typeLayout{}, false
	}
	stride := alignUp(elem.align, elem.size)
	return typeLayout{size: n * stride, align: elem.align}, true
}

func layoutStruct(decl structDecl, structs map[string]typeLayout) (typeLayout, bool) {
	var end uint64
	align := uint64(1)
	for _, m := range decl.members {
		if m.builtin {
			continue
		}
		l, ok := resolveTypeLayout(m.typeName, structs)
		if !ok {
			return typeLayout{}, false
		}
		end = alignUp(l.align, end) + l.size
		align = max(align, l.align)
	}
	return typeLayout{size: alignUp(align, end), align: align}, true
}

// layoutStructs resolves decls in as many passes as it takes for nested
// structs to settle. Structs that never resolve are left out.
func layoutStructs(decls []structDecl) map[string]typeLayout {
	out := make(map[string]typeLayout, len(decls))
	pending := slices.Clone(decls)
	for progress := true; progress && len(pending) > 0; {
		progress = false
		kept := pending[:0]
		for _, d := range pending {
			l, ok := layoutStruct(d, out)
			if !ok {
				kept = append(kept, d)
				continue
			}
			out[d.name] = l
			progress = true
		}
		pending = kept
	}
	return out
}

// classifyResource builds the layout entry for one declaration. An address
// space makes it a buffer, otherwise the type decides between sampler and
// sampled texture.
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
		e.Buffer.Type = wgpu.BufferBindingTypeStorage
	case strings.HasPrefix(addressSpace, "storage"):
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case typeName == "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case strings.HasPrefix(typeName, "texture_"):
		base, scalar := splitTypeParams(typeName)
		e.Texture.ViewDimension = textureDims[base]
		e.Texture.SampleType = wgpu.TextureSampleTypeFloat
		if st, ok := sampleTypes[scalar]; ok {
			e.Texture.SampleType = st
		}
	}
	return e
}

// splitTypeParams turns "texture_2d<f32>" into ("texture_2d", "f32").
func splitTypeParams(typeName string) (base, params string) {
	base, rest, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(rest, ">"))
}

// stripComments drops // comments and nestable /* */ comments. Line
// comments keep their newline so later regexes still see line breaks.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	nested := 0
	for i := 0; i < len(src); i++ {
		pair := ""
		if i+1 < len(src) {
			pair = src[i : i+2]
		}
		switch {
		case pair == "/*":
			nested++
			i++
		case pair == "*/" && nested > 0:
			nested--
			i++
		case pair == "//" && nested == 0:
			if end := strings.IndexByte(src[i:], '\n'); end >= 0 {
				i += end - 1
			} else {
				i = len(src)
			}
		case nested == 0:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

// splitTopLevel splits s on commas that sit outside <...>.
func splitTopLevel(s string) []string {
	var parts []string
	depth, from := 0, 0
	for i, c := range s {
		switch {
		case c == '<':
			depth++
		case c == '>' && depth > 0:
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[from:i])
			from = i + 1
		}
	}
	return append(parts, s[from:])
}
