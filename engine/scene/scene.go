package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/model"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Scene draws models through a camera. Each frame it uploads the camera
// uniform and issues one draw per model group with that group's material
// bound. Safe for concurrent use.
type Scene interface {
	Name() string

	// Active scenes draw. Draw on an inactive scene does nothing.
	Active() bool
	SetActive(active bool)

	Camera() camera.Camera
	Renderer() renderer.Renderer

	// Add registers p, uploads m's mesh and materials and appends m to the
	// draw list. The first pipeline that declares the camera uniform sets
	// up the camera bind group.
	//
	// Parameters:
	//   - m: model to draw
	//   - p: pipeline for m's materials
	//
	// Returns:
	//   - error: the first GPU resource that failed, or a pipeline without the camera uniform
	Add(m model.Model, p pipeline.Pipeline) error

	// Models are in draw order.
	Models() []model.Model

	// Draw renders one frame. A surface with no area skips the frame and
	// returns nil.
	Draw() error

	Resize(width, height int)
	Size() (int, int)

	// Release frees every model, the camera's GPU objects and the renderer.
	Release()
}

// entry is a model plus the bind group layout it was uploaded against.
type entry struct {
	model         model.Model
	pipelineKey   string
	cameraGroup   int
	materialGroup int
	groupCount    int
}

type scene struct {
	mu     *sync.RWMutex
	name   string
	active bool
	cam    camera.Camera
	r      renderer.Renderer

	cameraVarName string
	cameraBinding int
	cameraReady   bool

	entries []entry

	// reused every frame
	writes []bind_group_provider.BufferWrite
	groups []bind_group_provider.BindGroupProvider
}

var _ Scene = &scene{}

// NewScene panics on a nil camera or renderer.
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:            &sync.RWMutex{},
		name:          name,
		active:        true,
		cam:           cam,
		r:             r,
		cameraVarName: "camera",
		writes:        make([]bind_group_provider.BufferWrite, 0, 1),
		groups:        make([]bind_group_provider.BindGroupProvider, 0, 2),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) Models() []model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	models := make([]model.Model, len(s.entries))
	for i, e := range s.entries {
		models[i] = e.model
	}
	return models
}

func (s *scene) Add(m model.Model, p pipeline.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.r.RegisterPipelines(p); err != nil {
		return err
	}

	vs := p.Shader(shader.ShaderTypeVertex)
	fs := p.Shader(shader.ShaderTypeFragment)
	layouts := shader.MergeBindGroupLayouts(vs, fs)

	e := entry{
		model:         m,
		pipelineKey:   p.PipelineKey(),
		cameraGroup:   -1,
		materialGroup: -1,
		groupCount:    len(layouts),
	}
	for g := range layouts {
		if binding, ok := vs.BindGroupFromVarName(g, s.cameraVarName); ok {
			e.cameraGroup = g
			if !s.cameraReady {
				s.cameraBinding = binding
			}
		} else {
			e.materialGroup = g
		}
	}
	if e.cameraGroup < 0 {
		return fmt.Errorf("scene %q: pipeline %q declares no %q uniform", s.name, e.pipelineKey, s.cameraVarName)
	}

	if !s.cameraReady {
		if err := s.r.InitBindGroup(s.cam.BindGroupProvider(), layouts[e.cameraGroup]); err != nil {
			return fmt.Errorf("scene %q: camera bind group: %w", s.name, err)
		}
		s.cameraReady = true
	}

	if meshBGP := m.MeshProvider(); meshBGP.VertexBuffer() == nil {
		if err := s.r.InitMeshBuffers(meshBGP, m.VertexData(), m.IndexData(), m.IndexCount()); err != nil {
			return fmt.Errorf("scene %q: mesh %q: %w", s.name, m.Name(), err)
		}
	}

	if e.materialGroup >= 0 {
		for _, mat := range m.Materials() {
			if err := s.uploadMaterial(mat, layouts[e.materialGroup]); err != nil {
				return fmt.Errorf("scene %q: material %q: %w", s.name, mat.Name(), err)
			}
		}
	}

	s.entries = append(s.entries, e)
	return nil
}

// uploadMaterial builds mat's texture, sampler and bind group, then drops
// the staged pixels. Caller holds mu.
func (s *scene) uploadMaterial(mat material.Material, layout wgpu.BindGroupLayoutDescriptor) error {
	bgp := mat.BindGroupProvider()
	if bgp.BindGroup() != nil {
		return nil
	}
	if err := s.r.InitTextureView(bgp, material.TextureBinding, mat.Texture()); err != nil {
		return err
	}
	if err := s.r.InitSampler(bgp, material.SamplerBinding, mat.Sampler()); err != nil {
		return err
	}
	if err := s.r.InitBindGroup(bgp, layout); err != nil {
		return err
	}
	mat.ReleaseStaging()
	return nil
}

func (s *scene) Draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}

	s.cam.Update()
	if s.cameraReady {
		uniform := s.cam.Uniform()
		s.writes = append(s.writes[:0], bind_group_provider.BufferWrite{
			Provider: s.cam.BindGroupProvider(),
			Binding:  s.cameraBinding,
			Data:     uniform.Marshal(),
		})
		s.r.WriteBuffers(s.writes)
	}

	if err := s.r.BeginFrame(); err != nil {
		if errors.Is(err, renderer.ErrSurfaceUnavailable) {
			return nil
		}
		return fmt.Errorf("scene %q: begin frame: %w", s.name, err)
	}

	var drawErr error
	for _, e := range s.entries {
		mats := e.model.Materials()
		for _, g := range e.model.Groups() {
			if g.Count == 0 || g.MaterialIndex < 0 || g.MaterialIndex >= len(mats) {
				continue
			}

			// s.groups[i] is bound at @group(i)
			s.groups = s.groups[:0]
			for i := range e.groupCount {
				bgp := mats[g.MaterialIndex].BindGroupProvider()
				if i == e.cameraGroup {
					bgp = s.cam.BindGroupProvider()
				}
				s.groups = append(s.groups, bgp)
			}

			if err := s.r.DrawCall(e.pipelineKey, e.model.MeshProvider(), uint32(g.Start), uint32(g.Count), s.groups); err != nil {
				drawErr = errors.Join(drawErr, err)
			}
		}
	}

	s.r.EndFrame()
	s.r.Present()
	return drawErr
}

func (s *scene) Resize(width, height int) {
	s.r.Resize(width, height)
}

func (s *scene) Size() (int, int) {
	return s.r.Size()
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		e.model.Release()
	}
	s.entries = nil
	if bgp := s.cam.BindGroupProvider(); bgp != nil {
		bgp.Release()
	}
	s.cameraReady = false
	s.r.Release()
}
