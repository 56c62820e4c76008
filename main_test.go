package main

import (
	"context"
	"errors"
	"go/build"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/config"
	"github.com/df07/go-thinlens/pkg/logx"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
	"github.com/df07/go-thinlens/pkg/script"
)

func TestSceneDirName(t *testing.T) {
	tests := []struct {
		name      string
		sceneType string
		expected  string
	}{
		{"built-in scene", "default", "default"},
		{"built-in scene mixed case", " Mirrors ", "mirrors"},
		{"scene file", "scenes/room.yaml", "room"},
		{"nested scene file", "scenes/subdir/my-scene.yml", "my-scene"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sceneDirName(tt.sceneType); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestCreateOutputDir(t *testing.T) {
	root := t.TempDir()

	outputDir, err := createOutputDir(root, "scenes/room.yaml")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outputDir != filepath.Join(root, "room") {
		t.Errorf("Expected output directory %s, got %s", filepath.Join(root, "room"), outputDir)
	}
	if info, err := os.Stat(outputDir); err != nil || !info.IsDir() {
		t.Errorf("Expected %s to be a directory", outputDir)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "scene = \"mirrors\"\n[render]\nsamples = 2\nwidth = 64\nheight = 48\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(options{configPath: path, samples: 4, output: "renders"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Scene != "mirrors" {
		t.Errorf("Expected scene from file, got '%s'", cfg.Scene)
	}
	if cfg.Render.Samples != 4 {
		t.Errorf("Expected flag to override samples, got %d", cfg.Render.Samples)
	}
	if cfg.Render.Width != 64 || cfg.Render.Height != 48 {
		t.Errorf("Expected size 64x48 from file, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.OutputDir != "renders" {
		t.Errorf("Expected output dir 'renders', got '%s'", cfg.OutputDir)
	}

	_, err = loadConfig(options{configPath: filepath.Join(t.TempDir(), "missing.toml")})
	if err == nil {
		t.Error("Expected error for an explicit config path that does not exist")
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[render]\nsamples = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(options{configPath: bad}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

func testPreview(t *testing.T) (*scene.Scene, *camera.Camera, *renderer.Preview) {
	t.Helper()
	sc := scene.NewMirrorScene()
	cam := camera.NewCamera(32, 24, sc.World, sc.CameraOptions()...)
	config := renderer.DefaultConfig()
	config.Samples = 1
	config.TileSize = 8
	return sc, cam, renderer.NewPreview(cam, sc.World, config, logx.Discard())
}

func TestRenderStill(t *testing.T) {
	_, _, preview := testPreview(t)
	dir := t.TempDir()

	filename, err := renderStill(context.Background(), preview, dir, 2, logx.Discard())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(filename), "render_") || filepath.Ext(filename) != ".png" {
		t.Errorf("Unexpected file name %s", filename)
	}
	if _, err := os.Stat(filename); err != nil {
		t.Errorf("Expected %s to exist: %v", filename, err)
	}
}

func TestFlyThrough(t *testing.T) {
	sc, cam, preview := testPreview(t)
	s, err := script.Compile([]byte(`commands = ["forward"]; done = frame >= 3`))
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "flight")

	frames, err := flyThrough(context.Background(), s, cam, sc.World, preview, dir, 1, 100, logx.Discard())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if frames != 3 {
		t.Errorf("Expected 3 frames, got %d", frames)
	}
	if z := cam.Position().Z; math.Abs(z-3.7) > 1e-9 {
		t.Errorf("Expected camera at z=3.7 after three steps, got %f", z)
	}
	for _, name := range []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}

func TestFlyThrough_MaxFrames(t *testing.T) {
	sc, cam, preview := testPreview(t)
	s, err := script.Compile([]byte(`commands = ["look_left"]`))
	if err != nil {
		t.Fatal(err)
	}

	frames, err := flyThrough(context.Background(), s, cam, sc.World, preview, t.TempDir(), 1, 2, logx.Discard())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if frames != 2 {
		t.Errorf("Expected frame limit of 2, got %d", frames)
	}
}

func TestFlyThrough_BadCommand(t *testing.T) {
	sc, cam, preview := testPreview(t)
	s, err := script.Compile([]byte(`commands = ["barrel_roll"]`))
	if err != nil {
		t.Fatal(err)
	}

	_, err = flyThrough(context.Background(), s, cam, sc.World, preview, t.TempDir(), 1, 5, logx.Discard())
	if !errors.Is(err, script.ErrBadCommand) {
		t.Errorf("Expected ErrBadCommand, got %v", err)
	}
}

// moduleImports returns every import reachable from dir through packages of this module
func moduleImports(t *testing.T, dir string) map[string]bool {
	t.Helper()
	const module = "github.com/df07/go-thinlens/"
	seen := make(map[string]bool)
	queue := []string{dir}
	visited := make(map[string]bool)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if visited[d] {
			continue
		}
		visited[d] = true

		pkg, err := build.ImportDir(d, 0)
		if err != nil {
			t.Fatalf("Failed to read package %s: %v", d, err)
		}
		for _, imp := range pkg.Imports {
			seen[imp] = true
			if strings.HasPrefix(imp, module) {
				queue = append(queue, filepath.FromSlash(strings.TrimPrefix(imp, module)))
			}
		}
	}
	return seen
}

func TestHeadlessBinariesSkipWindowing(t *testing.T) {
	for _, dir := range []string{".", "web", "web/server", "pkg/script"} {
		for imp := range moduleImports(t, dir) {
			if strings.HasPrefix(imp, "github.com/hajimehoshi/ebiten") || strings.HasPrefix(imp, "golang.design/x/clipboard") {
				t.Errorf("%s reaches windowing package %s", dir, imp)
			}
		}
	}
}
