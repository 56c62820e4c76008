package geometry

import (
	"math"

	"github.com/df07/go-thinlens/pkg/core"
)

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point   core.Vec3 // A point on the plane
	Normal  core.Vec3 // Unit normal
	Surface core.Surface
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3, surface core.Surface) *Plane {
	return &Plane{
		Point:   point,
		Normal:  normal.Normalize(),
		Surface: surface,
	}
}

// Hit tests if a ray intersects with the plane
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Parallel rays never meet the plane
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hit := &core.HitRecord{
		T:       t,
		Point:   ray.At(t),
		Surface: p.Surface,
	}
	hit.SetFaceNormal(ray, p.Normal)

	return hit, true
}
