// Package config loads the TOML settings shared by the command-line renderer,
// the web server and the interactive viewer.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/df07/go-thinlens/pkg/camera"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid config")

// Config holds all settings
type Config struct {
	Scene     string       `toml:"scene"`
	OutputDir string       `toml:"output_dir"`
	Camera    CameraConfig `toml:"camera"`
	Render    RenderConfig `toml:"render"`
	Log       LogConfig    `toml:"log"`
}

// CameraConfig configures the thin-lens camera
type CameraConfig struct {
	LensSize     float64 `toml:"lens_size"`
	Step         float64 `toml:"step"`
	FocusBounces int     `toml:"focus_bounces"`
}

// RenderConfig configures the preview renderer
type RenderConfig struct {
	Width    int   `toml:"width"`
	Height   int   `toml:"height"`
	Samples  int   `toml:"samples"`
	TileSize int   `toml:"tile_size"`
	Workers  int   `toml:"workers"` // 0 = use CPU count
	Seed     int64 `toml:"seed"`
	Scale    int   `toml:"scale"` // Upscale factor for saved images
}

// LogConfig configures logging
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns sensible default values
func Default() Config {
	return Config{
		Scene:     "default",
		OutputDir: "output",
		Camera: CameraConfig{
			LensSize:     camera.DefaultLensSize,
			Step:         camera.DefaultStep,
			FocusBounces: 0,
		},
		Render: RenderConfig{
			Width:    400,
			Height:   225,
			Samples:  8,
			TileSize: 32,
			Workers:  0,
			Seed:     42,
			Scale:    1,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.config/thinlens/config.toml
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "thinlens", "config.toml"), nil
}

// Load reads a TOML file on top of the defaults and validates the result.
// A leading ~ in path is expanded.
func Load(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns the defaults when the file does not exist
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes TOML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders the config as TOML
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return data, nil
}

// Validate checks ranges of all settings
func (c Config) Validate() error {
	switch {
	case c.Render.Width <= 0 || c.Render.Height <= 0:
		return fmt.Errorf("config: render size %dx%d: %w", c.Render.Width, c.Render.Height, ErrInvalid)
	case c.Render.Samples <= 0:
		return fmt.Errorf("config: render samples %d: %w", c.Render.Samples, ErrInvalid)
	case c.Render.TileSize <= 0:
		return fmt.Errorf("config: tile size %d: %w", c.Render.TileSize, ErrInvalid)
	case c.Render.Workers < 0:
		return fmt.Errorf("config: workers %d: %w", c.Render.Workers, ErrInvalid)
	case c.Render.Scale < 1:
		return fmt.Errorf("config: scale %d: %w", c.Render.Scale, ErrInvalid)
	case c.Camera.LensSize < 0:
		return fmt.Errorf("config: lens size %g: %w", c.Camera.LensSize, ErrInvalid)
	case c.Camera.Step <= 0:
		return fmt.Errorf("config: step %g: %w", c.Camera.Step, ErrInvalid)
	case c.Camera.FocusBounces < 0:
		return fmt.Errorf("config: focus bounces %d: %w", c.Camera.FocusBounces, ErrInvalid)
	}
	return nil
}

// CameraOptions converts the camera settings to camera options
func (c Config) CameraOptions() []camera.Option {
	return []camera.Option{
		camera.WithLensSize(c.Camera.LensSize),
		camera.WithStep(c.Camera.Step),
		camera.WithFocusBounces(c.Camera.FocusBounces),
	}
}
