// Package scene provides the worlds the camera looks into: a few built-in
// layouts and YAML scene files.
package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/core"
	"github.com/df07/go-thinlens/pkg/geometry"
)

var (
	// ErrUnknownScene is returned by Create for names that are neither built-in nor a scene file
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidScene is wrapped by every scene file validation error
	ErrInvalidScene = errors.New("invalid scene")
)

// Scene contains everything needed to point a camera at a world
type Scene struct {
	Name        string
	Description string
	Width       int   // 0 = use the render config
	Height      int   // 0 = use the render config
	Camera      *Pose // nil = camera defaults
	World       *geometry.World
}

// Pose is the initial camera placement stored with a scene
type Pose struct {
	Position core.Vec3
	Target   core.Vec3
	LensSize float64 // 0 = keep the configured lens size
}

// CameraOptions returns the options that place a camera as the scene asks.
// They are meant to be applied after the configured options.
func (s *Scene) CameraOptions() []camera.Option {
	if s.Camera == nil {
		return nil
	}
	opts := []camera.Option{camera.WithPose(s.Camera.Position, s.Camera.Target)}
	if s.Camera.LensSize > 0 {
		opts = append(opts, camera.WithLensSize(s.Camera.LensSize))
	}
	return opts
}

// Size returns the scene's image size, falling back to the given defaults
func (s *Scene) Size(defaultWidth, defaultHeight int) (int, int) {
	if s.Width > 0 && s.Height > 0 {
		return s.Width, s.Height
	}
	return defaultWidth, defaultHeight
}

var builtins = map[string]func() *Scene{
	"default": NewDefaultScene,
	"mirrors": NewMirrorScene,
	"empty":   NewEmptyScene,
}

// Names lists the built-in scenes in alphabetical order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create returns the built-in scene with the given name, or loads nameOrPath
// as a scene file when it ends in .yaml or .yml.
func Create(nameOrPath string) (*Scene, error) {
	if IsSceneFile(nameOrPath) {
		return Load(nameOrPath)
	}
	build, ok := builtins[strings.ToLower(strings.TrimSpace(nameOrPath))]
	if !ok {
		return nil, fmt.Errorf("scene: %q (built-ins: %s): %w", nameOrPath, strings.Join(Names(), ", "), ErrUnknownScene)
	}
	return build(), nil
}

// IsSceneFile reports whether path names a YAML scene file
func IsSceneFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
