package panorama

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/host"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer"
	"github.com/Carmen-Shannon/oxy-panorama/engine/scene"
	"github.com/Carmen-Shannon/oxy-panorama/engine/skybox"
)

// ErrNoSurface is returned by the sky box renderer factory when a container cannot be drawn into.
var ErrNoSurface = errors.New("panorama: container has no drawable surface")

// Renderer draws the sky box as seen by the viewer's camera.
type Renderer interface {
	// Draw renders one frame.
	Draw() error

	// Resize reconfigures the render surface to width x height pixels.
	Resize(width, height int)

	// Size returns the render surface size in pixels.
	Size() (int, int)

	// Release frees every GPU resource held by the renderer.
	Release()
}

var _ Renderer = scene.Scene(nil)

// RendererFactory builds the renderer for a container once the tiles are decoded.
// The tiles arrive in logical order; the factory maps them onto the box faces.
type RendererFactory func(c host.Container, cam camera.Camera, tiles []common.TextureStagingData) (Renderer, error)

// TileLoader decodes the six tile images.
type TileLoader interface {
	Load(ctx context.Context, locators []string) ([]common.TextureStagingData, error)
}

// SkyBoxRendererFactory returns a RendererFactory that renders a sky box scene onto the
// container's surface. The container must also be a renderer.SurfaceTarget.
//
// Parameters:
//   - skyBoxOptions: options for the sky box model
//   - rendererOptions: options for the WebGPU renderer
//
// Returns:
//   - RendererFactory: the factory
func SkyBoxRendererFactory(skyBoxOptions []skybox.SkyBoxBuilderOption, rendererOptions ...renderer.RendererBuilderOption) RendererFactory {
	return func(c host.Container, cam camera.Camera, tiles []common.TextureStagingData) (Renderer, error) {
		target, ok := c.(renderer.SurfaceTarget)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoSurface, c.ID())
		}
		s, err := scene.NewSkyBoxScene(target, cam, tiles, skyBoxOptions, rendererOptions...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
