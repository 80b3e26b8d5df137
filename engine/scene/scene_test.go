package scene

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-panorama/engine/skybox"
	"github.com/cogentcore/webgpu/wgpu"
)

type drawRecord struct {
	pipelineKey string
	firstIndex  uint32
	indexCount  uint32
	groups      []string
}

// fakeRenderer records the calls a scene makes without touching a GPU.
type fakeRenderer struct {
	pipelines    map[string]pipeline.Pipeline
	bindGroups   []string
	textures     int
	samplers     int
	meshes       int
	writes       []bind_group_provider.BufferWrite
	draws        []drawRecord
	beginErr     error
	frames       int
	presents     int
	width        int
	height       int
	released     bool
	registerErr  error
	bindGroupErr error
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline { return f.pipelines[key] }

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) Resize(width, height int) { f.width, f.height = width, height }

func (f *fakeRenderer) Size() (int, int) { return f.width, f.height }

func (f *fakeRenderer) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	f.meshes++
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor) error {
	if f.bindGroupErr != nil {
		return f.bindGroupErr
	}
	f.bindGroups = append(f.bindGroups, provider.Label())
	return nil
}

func (f *fakeRenderer) InitTextureView(bind_group_provider.BindGroupProvider, int, common.TextureStagingData) error {
	f.textures++
	return nil
}

func (f *fakeRenderer) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	f.samplers++
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeRenderer) BeginFrame() error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.frames++
	return nil
}

func (f *fakeRenderer) DrawCall(pipelineKey string, _ bind_group_provider.BindGroupProvider, firstIndex, indexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	labels := make([]string, len(bindGroups))
	for i, bg := range bindGroups {
		labels[i] = bg.Label()
	}
	f.draws = append(f.draws, drawRecord{pipelineKey, firstIndex, indexCount, labels})
	return nil
}

func (f *fakeRenderer) EndFrame() {}

func (f *fakeRenderer) Present() { f.presents++ }

func (f *fakeRenderer) Release() { f.released = true }

func testTiles() []common.TextureStagingData {
	tiles := make([]common.TextureStagingData, skybox.FaceCount)
	for i := range tiles {
		tiles[i] = common.TextureStagingData{Name: fmt.Sprintf("t%d", i), Pixels: make([]byte, 4), Width: 1, Height: 1}
	}
	return tiles
}

func newSkyBoxScene(t *testing.T) (Scene, *fakeRenderer, camera.Camera) {
	t.Helper()
	r := newFakeRenderer()
	cam := camera.NewCamera(camera.WithController(camera.NewLookController()))
	s := NewScene("test", cam, r)

	sb, err := skybox.NewSkyBox(testTiles(), skybox.WithName("sky"))
	if err != nil {
		t.Fatalf("NewSkyBox: %v", err)
	}
	p, err := skybox.NewPipeline()
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := s.Add(sb, p); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return s, r, cam
}

func TestAddUploadsEverything(t *testing.T) {
	s, r, cam := newSkyBoxScene(t)

	if r.Pipeline(skybox.PipelineKey) == nil {
		t.Fatal("sky box pipeline was not registered")
	}
	if r.meshes != 1 || r.textures != 6 || r.samplers != 6 {
		t.Fatalf("meshes=%d textures=%d samplers=%d", r.meshes, r.textures, r.samplers)
	}
	// camera first, then one bind group per face
	if len(r.bindGroups) != 7 || r.bindGroups[0] != cam.BindGroupProvider().Label() {
		t.Fatalf("unexpected bind group order %v", r.bindGroups)
	}
	for _, mat := range s.Models()[0].Materials() {
		if mat.Texture().Pixels != nil {
			t.Fatalf("material %q kept its staged pixels", mat.Name())
		}
	}
}

func TestDrawIssuesOneCallPerFace(t *testing.T) {
	s, r, cam := newSkyBoxScene(t)

	if err := s.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if r.frames != 1 || r.presents != 1 {
		t.Fatalf("frames=%d presents=%d", r.frames, r.presents)
	}
	if len(r.writes) != 1 || len(r.writes[0].Data) != 64 {
		t.Fatalf("expected one 64 byte camera write, got %+v", r.writes)
	}
	if len(r.draws) != 6 {
		t.Fatalf("expected 6 draws, got %d", len(r.draws))
	}
	mats := s.Models()[0].Materials()
	for i, d := range r.draws {
		if d.firstIndex != uint32(i*6) || d.indexCount != 6 {
			t.Fatalf("draw %d covers [%d,+%d)", i, d.firstIndex, d.indexCount)
		}
		if len(d.groups) != 2 || d.groups[0] != cam.BindGroupProvider().Label() || d.groups[1] != mats[i].BindGroupProvider().Label() {
			t.Fatalf("draw %d bound %v", i, d.groups)
		}
	}
}

func TestDrawSkipsUnavailableSurface(t *testing.T) {
	s, r, _ := newSkyBoxScene(t)
	r.beginErr = renderer.ErrSurfaceUnavailable

	if err := s.Draw(); err != nil {
		t.Fatalf("expected minimized surface to be skipped, got %v", err)
	}
	if len(r.draws) != 0 {
		t.Fatalf("expected no draws, got %d", len(r.draws))
	}

	r.beginErr = errors.New("lost")
	if err := s.Draw(); err == nil {
		t.Fatal("expected begin frame error")
	}
}

func TestInactiveSceneDoesNotDraw(t *testing.T) {
	s, r, _ := newSkyBoxScene(t)
	s.SetActive(false)
	if err := s.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if r.frames != 0 {
		t.Fatalf("inactive scene rendered %d frames", r.frames)
	}
}

func TestAddPropagatesErrors(t *testing.T) {
	r := newFakeRenderer()
	r.bindGroupErr = errors.New("layout mismatch")
	s := NewScene("broken", camera.NewCamera(), r)

	sb, _ := skybox.NewSkyBox(testTiles())
	p, _ := skybox.NewPipeline()
	if err := s.Add(sb, p); err == nil {
		t.Fatal("expected bind group error")
	}
	if len(s.Models()) != 0 {
		t.Fatal("failed model was added")
	}
}

func TestResizeAndRelease(t *testing.T) {
	s, r, _ := newSkyBoxScene(t)
	s.Resize(640, 480)
	if w, h := s.Size(); w != 640 || h != 480 {
		t.Fatalf("size = %dx%d", w, h)
	}
	s.Release()
	if !r.released || len(s.Models()) != 0 {
		t.Fatal("release did not clear the scene")
	}
}
