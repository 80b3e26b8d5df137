// Package config loads the panorama viewer's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete viewer configuration.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Tiles     []string        `yaml:"tiles"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Loader    LoaderConfig    `yaml:"loader"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Remote    RemoteConfig    `yaml:"remote"`
	Serial    SerialConfig    `yaml:"serial"`
}

type WindowConfig struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
}

type ViewerConfig struct {
	AutoRotate bool    `yaml:"auto_rotate"`
	Lon        float64 `yaml:"lon"`
	Lat        float64 `yaml:"lat"`
}

type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `yaml:"present_mode"`

	// MSAA is the sample count, 1 or 4.
	MSAA int `yaml:"msaa"`

	ClearColor [4]float64 `yaml:"clear_color"`

	// FrameLimit caps the frame rate; 0 means no cap.
	FrameLimit float64 `yaml:"frame_limit"`

	ForceSoftware bool `yaml:"force_software"`
}

type LoaderConfig struct {
	// Workers is the decode pool size; 0 picks one per spare CPU.
	Workers int `yaml:"workers"`

	// TileEdge resamples every tile to a square of this many pixels; 0 keeps the source size.
	TileEdge int `yaml:"tile_edge"`

	Timeout time.Duration `yaml:"timeout"`
}

type ProfilingConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SerialConfig describes an optional IMU on a serial port. An empty Port disables it.
type SerialConfig struct {
	Port       string        `yaml:"port"`
	Baud       int           `yaml:"baud"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Default returns the configuration used for every field a file leaves out.
func Default() Config {
	return Config{
		Window: WindowConfig{
			ID:     "main",
			Title:  "Panorama",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			MSAA:        4,
			ClearColor:  [4]float64{0.02, 0.02, 0.02, 1},
		},
		Loader: LoaderConfig{
			Timeout: 30 * time.Second,
		},
		Profiling: ProfilingConfig{
			Interval: time.Second,
		},
		Remote: RemoteConfig{
			Addr: ":8080",
		},
		Serial: SerialConfig{
			Baud:       115200,
			RetryDelay: 5 * time.Second,
		},
	}
}

// Load reads and validates the configuration file at path.
// Relative tile paths are resolved against the file's directory.
//
// Parameters:
//   - path: the YAML file to read
//
// Returns:
//   - Config: the configuration with defaults applied
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.ResolveTiles(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML onto the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if len(c.Tiles) != 6 {
		errs = append(errs, fmt.Errorf("tiles: expected 6 images in tile-index order, got %d", len(c.Tiles)))
	}
	for i, t := range c.Tiles {
		if t == "" {
			errs = append(errs, fmt.Errorf("tiles[%d]: empty locator", i))
		}
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		errs = append(errs, fmt.Errorf("window: negative size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.PresentMode != "vsync" && c.Renderer.PresentMode != "uncapped" {
		errs = append(errs, fmt.Errorf("renderer.present_mode: %q is not vsync or uncapped", c.Renderer.PresentMode))
	}
	if c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4 {
		errs = append(errs, fmt.Errorf("renderer.msaa: %d is not 1 or 4", c.Renderer.MSAA))
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("renderer.clear_color[%d]: %v outside [0, 1]", i, v))
		}
	}
	if c.Renderer.FrameLimit < 0 {
		errs = append(errs, errors.New("renderer.frame_limit: must not be negative"))
	}
	if c.Loader.Workers < 0 || c.Loader.TileEdge < 0 || c.Loader.Timeout < 0 {
		errs = append(errs, errors.New("loader: workers, tile_edge and timeout must not be negative"))
	}
	if c.Profiling.Enabled && c.Profiling.Interval <= 0 {
		errs = append(errs, errors.New("profiling.interval: must be positive"))
	}
	if c.Remote.Enabled && c.Remote.Addr == "" {
		errs = append(errs, errors.New("remote.addr: required when the remote is enabled"))
	}
	if c.Serial.Port != "" && c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud: %d must be positive", c.Serial.Baud))
	}
	return errors.Join(errs...)
}

// ResolveTiles rewrites relative file tiles as paths under dir. URLs and absolute paths are kept.
func (c *Config) ResolveTiles(dir string) {
	for i, t := range c.Tiles {
		if u, err := url.Parse(t); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
			continue
		}
		if filepath.IsAbs(t) {
			continue
		}
		c.Tiles[i] = filepath.Join(dir, t)
	}
}
