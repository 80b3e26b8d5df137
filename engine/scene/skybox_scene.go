package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer"
	"github.com/Carmen-Shannon/oxy-panorama/engine/skybox"
)

// NewSkyBoxScene creates a renderer on target and a scene holding a sky box built from tiles.
// Everything created is released again when any step fails.
//
// Parameters:
//   - target: the surface to render to
//   - cam: the camera the sky box is viewed through
//   - tiles: six decoded tiles in logical order
//   - skyBoxOptions: options for the sky box model
//   - rendererOptions: options for the renderer
//
// Returns:
//   - Scene: the ready scene
//   - error: an error if the sky box or any GPU resource could not be created
func NewSkyBoxScene(
	target renderer.SurfaceTarget,
	cam camera.Camera,
	tiles []common.TextureStagingData,
	skyBoxOptions []skybox.SkyBoxBuilderOption,
	rendererOptions ...renderer.RendererBuilderOption,
) (Scene, error) {
	sb, err := skybox.NewSkyBox(tiles, skyBoxOptions...)
	if err != nil {
		return nil, err
	}
	p, err := skybox.NewPipeline()
	if err != nil {
		return nil, err
	}

	r := renderer.NewRenderer(target, rendererOptions...)
	s := NewScene(sb.Name(), cam, r)
	if err := s.Add(sb, p); err != nil {
		sb.Release()
		p.Release()
		s.Release()
		return nil, fmt.Errorf("sky box scene: %w", err)
	}
	return s, nil
}
