// Package skybox builds the inward-facing textured cube a panorama is projected on.
package skybox

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/model"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/skybox.wgsl
var skyboxSource string

// DefaultEdge is the edge length of the sky box cube.
const DefaultEdge float32 = 1000

// PipelineKey identifies the sky box render pipeline.
const PipelineKey = "skybox"

// FaceCount is the number of tiles a sky box needs.
const FaceCount = 6

// TileOrder maps each box plane, in +X, -X, +Y, -Y, +Z, -Z order before the z mirror, to
// the index of the tile it shows. Tiles arrive in tile-index order, not face order: plane
// +Y shows tile 3.
var TileOrder = [FaceCount]int{1, 0, 3, 2, 4, 5}

// Source returns the complete WGSL of the sky box shader.
func Source() string {
	return camera.GPUCameraUniformSource + "\n" + model.GPUVertexSource + "\n" + skyboxSource
}

// NewPipeline reflects the sky box shader and describes its render pipeline.
// Back faces are culled; the mirrored cube winds every face toward its center.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the shader could not be reflected
func NewPipeline() (pipeline.Pipeline, error) {
	src := Source()
	vs, err := shader.NewShader(PipelineKey+"_vs", shader.ShaderTypeVertex, src)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(PipelineKey+"_fs", shader.ShaderTypeFragment, src)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(PipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithDepth(true, true),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithFrontFace(wgpu.FrontFaceCCW),
	), nil
}

// NewSkyBox builds the sky box model. tiles are given in logical order and assigned to
// faces through TileOrder.
//
// Parameters:
//   - tiles: exactly six decoded tiles
//   - options: functional options to configure the sky box
//
// Returns:
//   - model.Model: the sky box mesh with one group and one material per face
//   - error: an error if the tile count is wrong or a tile is malformed
func NewSkyBox(tiles []common.TextureStagingData, options ...SkyBoxBuilderOption) (model.Model, error) {
	if len(tiles) != FaceCount {
		return nil, fmt.Errorf("sky box needs %d tiles, got %d", FaceCount, len(tiles))
	}
	sb := &skyBox{edge: DefaultEdge, name: PipelineKey}
	for _, opt := range options {
		opt(sb)
	}

	materials := make([]material.Material, FaceCount)
	for face, tileIndex := range TileOrder {
		tile := tiles[tileIndex]
		if !tile.Valid() {
			return nil, fmt.Errorf("tile %d (%s) is malformed", tileIndex, tile.Name)
		}
		materials[face] = material.NewMaterial(
			fmt.Sprintf("%s_face_%d", sb.name, face),
			tile,
			material.WithSampler(sb.sampler),
			material.WithPipelineKey(PipelineKey),
		)
	}

	vertices, indices, groups := Geometry(sb.edge)
	return model.NewModel(
		model.WithName(sb.name),
		model.WithVertices(vertices),
		model.WithIndices(indices),
		model.WithGroups(groups),
		model.WithMaterials(materials),
	), nil
}

type skyBox struct {
	name    string
	edge    float32
	sampler common.SamplerStagingData
}

// plane describes one face the way a box geometry lays it out: the axes the face spans (u, v),
// the axis it sits on (w), the directions of u and v, and the face extents.
type plane struct {
	u, v, w       int
	udir, vdir    float32
	width, height float32
	depth         float32
}

// Geometry returns the vertices, indices and per-face groups of a unit-segment cube of the
// given edge, mirrored on z so each face is wound toward the center.
// Planes are emitted in +X, -X, +Y, -Y, +Z, -Z order before the mirror; group i uses material i.
func Geometry(edge float32) ([]model.GPUVertex, []uint32, []model.Group) {
	const x, y, z = 0, 1, 2
	planes := [FaceCount]plane{
		{u: z, v: y, w: x, udir: -1, vdir: -1, width: edge, height: edge, depth: edge},
		{u: z, v: y, w: x, udir: 1, vdir: -1, width: edge, height: edge, depth: -edge},
		{u: x, v: z, w: y, udir: 1, vdir: 1, width: edge, height: edge, depth: edge},
		{u: x, v: z, w: y, udir: 1, vdir: -1, width: edge, height: edge, depth: -edge},
		{u: x, v: y, w: z, udir: 1, vdir: -1, width: edge, height: edge, depth: edge},
		{u: x, v: y, w: z, udir: -1, vdir: -1, width: edge, height: edge, depth: -edge},
	}
	mirror := mgl32.Scale3D(1, 1, -1)

	vertices := make([]model.GPUVertex, 0, FaceCount*4)
	indices := make([]uint32, 0, FaceCount*6)
	groups := make([]model.Group, 0, FaceCount)

	for face, p := range planes {
		base := uint32(len(vertices))
		for iy := 0; iy <= 1; iy++ {
			for ix := 0; ix <= 1; ix++ {
				var pos mgl32.Vec3
				pos[p.u] = (float32(ix)*p.width - p.width/2) * p.udir
				pos[p.v] = (float32(iy)*p.height - p.height/2) * p.vdir
				pos[p.w] = p.depth / 2
				world := mirror.Mul4x1(pos.Vec4(1)).Vec3()
				vertices = append(vertices, model.GPUVertex{
					Position: [3]float32{world.X(), world.Y(), world.Z()},
					// texture rows run top to bottom
					TexCoord: [2]float32{float32(ix), float32(iy)},
				})
			}
		}
		a, b, c, d := base, base+2, base+3, base+1
		groups = append(groups, model.Group{Start: len(indices), Count: 6, MaterialIndex: face})
		indices = append(indices, a, b, d, b, c, d)
	}
	return vertices, indices, groups
}
