// Command panorama opens a window showing a 360° panorama built from six tile images.
//
// Usage:
//
//	panorama -config panorama.yaml
//
// Drag with the left mouse button to look around, scroll or press +/- to zoom, Space toggles
// auto-rotation, F toggles fullscreen, R resets the device-orientation baseline and Esc quits.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/config"
	"github.com/Carmen-Shannon/oxy-panorama/engine"
	"github.com/Carmen-Shannon/oxy-panorama/engine/loader"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer"
	"github.com/Carmen-Shannon/oxy-panorama/engine/window"
	"github.com/Carmen-Shannon/oxy-panorama/orientation"
	"github.com/Carmen-Shannon/oxy-panorama/panorama"
	"github.com/Carmen-Shannon/oxy-panorama/remote"
)

func main() {
	configPath := flag.String("config", "panorama.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Engine + Window ─────────────────────────────────────────────
	win := window.NewWindow(
		window.WithID(cfg.Window.ID),
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithFullscreen(cfg.Window.Fullscreen),
	)
	defer win.Close()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithProfiling(cfg.Profiling.Enabled),
		engine.WithProfileInterval(cfg.Profiling.Interval),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
	)

	// ── Orientation sources ─────────────────────────────────────────
	// Serial IMU and phone remote both feed the same stream.
	var sensors orientation.Feed

	if cfg.Serial.Port != "" {
		imu := orientation.NewSerialSource(cfg.Serial.Port,
			orientation.WithBaudRate(cfg.Serial.Baud),
			orientation.WithRetryDelay(cfg.Serial.RetryDelay),
		)
		imu.Subscribe(sensors.Publish)
		go func() {
			if err := imu.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[Serial] %v", err)
			}
		}()
	}

	// ── Viewer ──────────────────────────────────────────────────────
	tiles := loader.NewTileLoader(
		loader.WithHTTPClient(&http.Client{Timeout: cfg.Loader.Timeout}),
		loader.WithWorkers(cfg.Loader.Workers),
		loader.WithTileEdge(cfg.Loader.TileEdge),
	)
	c := cfg.Renderer.ClearColor
	viewer, err := panorama.NewViewer(eng, cfg.Window.ID, cfg.Tiles,
		panorama.WithTileLoader(tiles),
		panorama.WithLoadContext(ctx),
		panorama.WithAnimated(cfg.Viewer.AutoRotate),
		panorama.WithInitialOrientation(cfg.Viewer.Lon, cfg.Viewer.Lat),
		panorama.WithOrientationSource(&sensors),
		panorama.WithRendererFactory(panorama.SkyBoxRendererFactory(nil,
			renderer.WithPresentMode(renderer.ParsePresentMode(cfg.Renderer.PresentMode)),
			renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAA)),
			renderer.WithClearColor(c[0], c[1], c[2], c[3]),
			renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
		)),
	)
	tiles.Close()
	if err != nil {
		log.Fatal(err)
	}
	defer viewer.Release()

	if cfg.Remote.Enabled {
		srv := remote.NewServer(viewer, eng.Scheduler(), remote.WithAddr(cfg.Remote.Addr))
		srv.Subscribe(sensors.Publish)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Printf("[Remote] %v", err)
			}
		}()
	}

	// ── Input ───────────────────────────────────────────────────────
	win.SetMouseDownCallback(viewer.PointerDown)
	win.SetMouseMoveCallback(viewer.PointerMove)
	win.SetMouseUpCallback(func(x, y float64) { viewer.PointerUp() })
	// GLFW reports wheel-away as positive; the viewer zooms in on a positive (towards the user) delta.
	win.SetScrollCallback(func(_, yoff float64) { viewer.Wheel(-yoff) })
	win.SetResizeCallback(func(width, height int) { viewer.Resize() })
	win.SetKeyDownCallback(func(key uint32) {
		switch key {
		case common.KeyEqual, common.KeyKPAdd:
			viewer.IncreaseFocalLength()
		case common.KeyMinus, common.KeyKPSubtract:
			viewer.DecreaseFocalLength()
		case common.KeySpace:
			viewer.SetAnimated(!viewer.IsAnimated())
		case common.KeyF:
			win.ToggleFullscreen()
		case common.KeyR:
			viewer.ResetOrientation()
		case common.KeyEsc:
			eng.Quit()
		}
	})

	go func() {
		select {
		case <-ctx.Done():
			eng.Quit()
		case <-eng.Done():
		}
	}()

	eng.Run()
	stop()
}
