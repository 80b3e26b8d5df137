package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewMaterial(t *testing.T) {
	tex := common.TextureStagingData{Name: "left.png", Pixels: make([]byte, 16), Width: 2, Height: 2}
	m := NewMaterial("face_0", tex,
		WithPipelineKey("skybox"),
		WithSampler(common.SamplerStagingData{MagFilter: wgpu.FilterModeNearest}),
	)

	if m.Name() != "face_0" || m.PipelineKey() != "skybox" {
		t.Fatalf("name/pipeline = %q/%q", m.Name(), m.PipelineKey())
	}
	if m.Texture().Width != 2 || !m.Texture().Valid() {
		t.Fatalf("texture not staged: %+v", m.Texture())
	}
	if m.Sampler().MagFilter != wgpu.FilterModeNearest {
		t.Fatalf("sampler override not applied")
	}
	if m.BindGroupProvider().Label() != "material_face_0" {
		t.Fatalf("provider label = %q", m.BindGroupProvider().Label())
	}

	m.ReleaseStaging()
	if m.Texture().Pixels != nil {
		t.Fatalf("pixels kept after ReleaseStaging")
	}
	if m.Texture().Width != 2 {
		t.Fatalf("dimensions dropped by ReleaseStaging")
	}
	m.Release()
}
