package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const tilesYAML = `
tiles:
  - left.jpg
  - right.jpg
  - top.jpg
  - bottom.jpg
  - https://example.com/front.jpg
  - /srv/pano/back.jpg
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(tilesYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def := Default()
	if cfg.Window != def.Window || cfg.Renderer != def.Renderer || cfg.Serial != def.Serial {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if len(cfg.Tiles) != 6 {
		t.Fatalf("expected 6 tiles, got %d", len(cfg.Tiles))
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(tilesYAML + `
window:
  title: Lobby
  width: 1920
  fullscreen: true
viewer:
  auto_rotate: true
  lon: 90
renderer:
  present_mode: uncapped
  msaa: 1
  frame_limit: 60
loader:
  workers: 3
  tile_edge: 1024
  timeout: 5s
profiling:
  enabled: true
  interval: 250ms
remote:
  enabled: true
  addr: 127.0.0.1:9000
serial:
  port: /dev/ttyUSB0
  baud: 9600
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Window.Title != "Lobby" || cfg.Window.Width != 1920 || cfg.Window.Height != 720 || !cfg.Window.Fullscreen {
		t.Fatalf("unexpected window %+v", cfg.Window)
	}
	if !cfg.Viewer.AutoRotate || cfg.Viewer.Lon != 90 {
		t.Fatalf("unexpected viewer %+v", cfg.Viewer)
	}
	if cfg.Renderer.PresentMode != "uncapped" || cfg.Renderer.MSAA != 1 || cfg.Renderer.FrameLimit != 60 {
		t.Fatalf("unexpected renderer %+v", cfg.Renderer)
	}
	if cfg.Loader.Workers != 3 || cfg.Loader.TileEdge != 1024 || cfg.Loader.Timeout != 5*time.Second {
		t.Fatalf("unexpected loader %+v", cfg.Loader)
	}
	if !cfg.Profiling.Enabled || cfg.Profiling.Interval != 250*time.Millisecond {
		t.Fatalf("unexpected profiling %+v", cfg.Profiling)
	}
	if !cfg.Remote.Enabled || cfg.Remote.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected remote %+v", cfg.Remote)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.Baud != 9600 || cfg.Serial.RetryDelay != 5*time.Second {
		t.Fatalf("unexpected serial %+v", cfg.Serial)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "empty", yaml: "", want: "tiles"},
		{name: "five tiles", yaml: "tiles: [a, b, c, d, e]", want: "expected 6"},
		{name: "blank tile", yaml: `tiles: [a, b, "", d, e, f]`, want: "tiles[2]"},
		{name: "unknown key", yaml: tilesYAML + "colour: red\n", want: "colour"},
		{name: "present mode", yaml: tilesYAML + "renderer:\n  present_mode: turbo\n", want: "present_mode"},
		{name: "msaa", yaml: tilesYAML + "renderer:\n  msaa: 8\n", want: "msaa"},
		{name: "clear color", yaml: tilesYAML + "renderer:\n  clear_color: [0, 0, 2, 1]\n", want: "clear_color[2]"},
		{name: "remote without addr", yaml: tilesYAML + "remote:\n  enabled: true\n  addr: \"\"\n", want: "remote.addr"},
		{name: "serial baud", yaml: tilesYAML + "serial:\n  port: COM3\n  baud: 0\n", want: "serial.baud"},
		{name: "bad duration", yaml: tilesYAML + "loader:\n  timeout: soon\n", want: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Renderer.MSAA = 2
	cfg.Renderer.PresentMode = "fast"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"tiles", "msaa", "present_mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadResolvesRelativeTiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panorama.yaml")
	if err := os.WriteFile(path, []byte(tilesYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tiles[0] != filepath.Join(dir, "left.jpg") {
		t.Fatalf("expected relative tile resolved, got %q", cfg.Tiles[0])
	}
	if cfg.Tiles[4] != "https://example.com/front.jpg" {
		t.Fatalf("expected URL kept, got %q", cfg.Tiles[4])
	}
	if cfg.Tiles[5] != "/srv/pano/back.jpg" {
		t.Fatalf("expected absolute path kept, got %q", cfg.Tiles[5])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
