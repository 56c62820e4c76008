package core

import "math/rand"

// SurfaceKind classifies how a surface redirects a focus probe
type SurfaceKind int

const (
	Diffuse SurfaceKind = iota // stops the probe
	Mirror                     // reflects the probe
	Glass                      // refracts or reflects the probe
)

// String returns the name used in scene files
func (k SurfaceKind) String() string {
	switch k {
	case Mirror:
		return "mirror"
	case Glass:
		return "glass"
	default:
		return "diffuse"
	}
}

// Surface tags a shape with the optical properties the camera cares about
type Surface struct {
	Kind SurfaceKind
	IOR  float64 // Index of refraction, Glass only
}

// HitRecord contains information about a ray-surface intersection
type HitRecord struct {
	T         float64 // Parametric distance along the ray
	Point     Vec3    // Intersection point
	Normal    Vec3    // Unit normal, always facing against the ray
	FrontFace bool    // Whether the ray hit the outward-facing side
	Surface   Surface
}

// SetFaceNormal orients the normal against the incoming ray
func (h *HitRecord) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Intersector finds the closest surface struck by a ray within (0, ray.TMax]
type Intersector interface {
	Intersect(ray Ray) (*HitRecord, bool)
}

// IntersectorFunc adapts a plain function to the Intersector interface
type IntersectorFunc func(ray Ray) (*HitRecord, bool)

// Intersect calls f(ray)
func (f IntersectorFunc) Intersect(ray Ray) (*HitRecord, bool) {
	return f(ray)
}

// HitDistance returns the distance to the closest hit, or ray.TMax when
// nothing is struck. A nil world hits nothing.
func HitDistance(world Intersector, ray Ray) float64 {
	if world == nil {
		return ray.TMax
	}
	if hit, ok := world.Intersect(ray); ok {
		return hit.T
	}
	return ray.TMax
}

// Sampler produces uniform random samples in [0, 1).
// A Sampler is owned by a single goroutine; concurrent callers each hold their own.
type Sampler interface {
	Get1D() float64
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSampler creates a deterministic sampler from a seed
func NewSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}
