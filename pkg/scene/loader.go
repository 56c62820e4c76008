package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-thinlens/pkg/core"
	"github.com/df07/go-thinlens/pkg/geometry"
	"github.com/df07/go-thinlens/pkg/loaders"
)

// FileSpec is the YAML layout of a scene file
type FileSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Width       int          `yaml:"width"`
	Height      int          `yaml:"height"`
	Camera      *CameraSpec  `yaml:"camera"`
	Objects     []ObjectSpec `yaml:"objects"`

	dir string // Mesh files are relative to this directory
}

// CameraSpec places the camera
type CameraSpec struct {
	Position VecSpec `yaml:"position"`
	Target   VecSpec `yaml:"target"`
	LensSize float64 `yaml:"lens_size"`
}

// ObjectSpec holds exactly one shape
type ObjectSpec struct {
	Sphere   *SphereSpec   `yaml:"sphere"`
	Plane    *PlaneSpec    `yaml:"plane"`
	Triangle *TriangleSpec `yaml:"triangle"`
	Mesh     *MeshSpec     `yaml:"mesh"`
}

// SurfaceSpec is shared by all shapes. Surface defaults to diffuse.
type SurfaceSpec struct {
	Surface string  `yaml:"surface"`
	IOR     float64 `yaml:"ior"`
}

type SphereSpec struct {
	Center      VecSpec `yaml:"center"`
	Radius      float64 `yaml:"radius"`
	SurfaceSpec `yaml:",inline"`
}

type PlaneSpec struct {
	Point       VecSpec `yaml:"point"`
	Normal      VecSpec `yaml:"normal"`
	SurfaceSpec `yaml:",inline"`
}

type TriangleSpec struct {
	A           VecSpec `yaml:"a"`
	B           VecSpec `yaml:"b"`
	C           VecSpec `yaml:"c"`
	SurfaceSpec `yaml:",inline"`
}

// MeshSpec places a PLY triangle mesh. Every vertex is multiplied by Scale
// (default 1) and moved by Offset.
type MeshSpec struct {
	File        string  `yaml:"file"`
	Scale       float64 `yaml:"scale"`
	Offset      VecSpec `yaml:"offset"`
	SurfaceSpec `yaml:",inline"`
}

// VecSpec is written as a three element list: [x, y, z]
type VecSpec []float64

func (v VecSpec) vec(field string) (core.Vec3, error) {
	if len(v) != 3 {
		return core.Vec3{}, fmt.Errorf("%s needs 3 components, got %d: %w", field, len(v), ErrInvalidScene)
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}

// Load reads and builds a scene file. A file without a name is named after
// its base name.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	s, err := parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse builds a scene from YAML. Unknown keys are rejected. Mesh files are
// looked up relative to the working directory.
func Parse(data []byte) (*Scene, error) {
	return parse(data, ".")
}

func parse(data []byte, dir string) (*Scene, error) {
	spec := FileSpec{dir: dir}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return spec.Build()
}

// Build validates the spec and creates the scene
func (f FileSpec) Build() (*Scene, error) {
	if f.Width < 0 || f.Height < 0 {
		return nil, fmt.Errorf("size %dx%d: %w", f.Width, f.Height, ErrInvalidScene)
	}

	s := &Scene{
		Name:        f.Name,
		Description: f.Description,
		Width:       f.Width,
		Height:      f.Height,
		World:       geometry.NewWorld(),
	}

	if f.Camera != nil {
		pose, err := f.Camera.pose()
		if err != nil {
			return nil, fmt.Errorf("camera: %w", err)
		}
		s.Camera = pose
	}

	for i, obj := range f.Objects {
		shapes, err := obj.shapes(f.dir)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		s.World.Add(shapes...)
	}

	return s, nil
}

func (c CameraSpec) pose() (*Pose, error) {
	position, err := c.Position.vec("position")
	if err != nil {
		return nil, err
	}
	target, err := c.Target.vec("target")
	if err != nil {
		return nil, err
	}
	if position == target {
		return nil, fmt.Errorf("position and target are both %v: %w", position, ErrInvalidScene)
	}
	if c.LensSize < 0 {
		return nil, fmt.Errorf("lens size %g: %w", c.LensSize, ErrInvalidScene)
	}
	return &Pose{Position: position, Target: target, LensSize: c.LensSize}, nil
}

func (o ObjectSpec) shapes(dir string) ([]geometry.Shape, error) {
	set := 0
	for _, present := range []bool{o.Sphere != nil, o.Plane != nil, o.Triangle != nil, o.Mesh != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("want exactly one of sphere, plane, triangle or mesh, got %d: %w", set, ErrInvalidScene)
	}

	if o.Mesh != nil {
		return o.Mesh.build(dir)
	}

	var shape geometry.Shape
	var err error
	switch {
	case o.Sphere != nil:
		shape, err = o.Sphere.build()
	case o.Plane != nil:
		shape, err = o.Plane.build()
	default:
		shape, err = o.Triangle.build()
	}
	if err != nil {
		return nil, err
	}
	return []geometry.Shape{shape}, nil
}

func (m MeshSpec) build(dir string) ([]geometry.Shape, error) {
	if m.File == "" {
		return nil, fmt.Errorf("mesh needs a file: %w", ErrInvalidScene)
	}
	scale := m.Scale
	switch {
	case scale == 0:
		scale = 1
	case scale < 0:
		return nil, fmt.Errorf("mesh scale %g: %w", m.Scale, ErrInvalidScene)
	}
	var offset core.Vec3
	if m.Offset != nil {
		v, err := m.Offset.vec("offset")
		if err != nil {
			return nil, err
		}
		offset = v
	}
	surface, err := m.surface()
	if err != nil {
		return nil, err
	}

	path := m.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	mesh, err := loaders.LoadPLY(path)
	if err != nil {
		return nil, err
	}
	shapes := mesh.Triangles(scale, offset, surface)
	if len(shapes) == 0 {
		return nil, fmt.Errorf("mesh %s has no triangles: %w", m.File, ErrInvalidScene)
	}
	return shapes, nil
}

func (s SphereSpec) build() (geometry.Shape, error) {
	center, err := s.Center.vec("center")
	if err != nil {
		return nil, err
	}
	if s.Radius <= 0 {
		return nil, fmt.Errorf("sphere radius %g: %w", s.Radius, ErrInvalidScene)
	}
	surface, err := s.surface()
	if err != nil {
		return nil, err
	}
	return geometry.NewSphere(center, s.Radius, surface), nil
}

func (p PlaneSpec) build() (geometry.Shape, error) {
	point, err := p.Point.vec("point")
	if err != nil {
		return nil, err
	}
	normal, err := p.Normal.vec("normal")
	if err != nil {
		return nil, err
	}
	if normal.IsZero() {
		return nil, fmt.Errorf("plane normal is zero: %w", ErrInvalidScene)
	}
	surface, err := p.surface()
	if err != nil {
		return nil, err
	}
	return geometry.NewPlane(point, normal, surface), nil
}

func (t TriangleSpec) build() (geometry.Shape, error) {
	var corners [3]core.Vec3
	for i, spec := range []VecSpec{t.A, t.B, t.C} {
		v, err := spec.vec(string(rune('a' + i)))
		if err != nil {
			return nil, err
		}
		corners[i] = v
	}
	surface, err := t.surface()
	if err != nil {
		return nil, err
	}
	tri := geometry.NewTriangle(corners[0], corners[1], corners[2], surface)
	if tri.Normal().IsZero() {
		return nil, fmt.Errorf("triangle is degenerate: %w", ErrInvalidScene)
	}
	return tri, nil
}

func (s SurfaceSpec) surface() (core.Surface, error) {
	if s.IOR < 0 {
		return core.Surface{}, fmt.Errorf("ior %g: %w", s.IOR, ErrInvalidScene)
	}
	switch strings.ToLower(strings.TrimSpace(s.Surface)) {
	case "", "diffuse":
		return core.Surface{Kind: core.Diffuse}, nil
	case "mirror":
		return core.Surface{Kind: core.Mirror}, nil
	case "glass":
		return core.Surface{Kind: core.Glass, IOR: s.IOR}, nil
	default:
		return core.Surface{}, fmt.Errorf("surface %q: %w", s.Surface, ErrInvalidScene)
	}
}
