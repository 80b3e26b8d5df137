package panorama

import (
	"context"

	"github.com/Carmen-Shannon/oxy-panorama/engine/loader"
	"github.com/Carmen-Shannon/oxy-panorama/orientation"
)

// ViewerBuilderOption configures a viewer under construction.
type ViewerBuilderOption func(*viewer)

// WithAutoStart sets whether NewViewer schedules the render loop. Defaults to true.
func WithAutoStart(start bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.autoStart = start
	}
}

// WithAnimated sets the initial auto-rotation state.
func WithAnimated(animated bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.animated = animated
	}
}

// WithInitialOrientation sets the starting longitude and latitude in degrees.
func WithInitialOrientation(lon, lat float64) ViewerBuilderOption {
	return func(v *viewer) {
		v.coords.Lon = lon
		v.coords.Lat = lat
	}
}

// WithRendererFactory replaces the WebGPU sky box renderer.
//
// Parameters:
//   - factory: builds the renderer from the container, camera and decoded tiles
//
// Returns:
//   - ViewerBuilderOption: a function that sets the factory
func WithRendererFactory(factory RendererFactory) ViewerBuilderOption {
	return func(v *viewer) {
		v.rendererFactory = factory
	}
}

// WithTileLoader replaces the default tile loader. The caller keeps ownership of it.
func WithTileLoader(l TileLoader) ViewerBuilderOption {
	return func(v *viewer) {
		v.tileLoader = l
	}
}

// WithLoadContext bounds tile loading during construction.
func WithLoadContext(ctx context.Context) ViewerBuilderOption {
	return func(v *viewer) {
		if ctx != nil {
			v.loadContext = ctx
		}
	}
}

// WithOrientationSource subscribes the viewer to device-orientation events.
// Events are dispatched onto the host's loop thread.
func WithOrientationSource(src orientation.Source) ViewerBuilderOption {
	return func(v *viewer) {
		v.orientationSource = src
	}
}

func newDefaultTileLoader() loader.TileLoader {
	return loader.NewTileLoader()
}
