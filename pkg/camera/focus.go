package camera

import (
	"math"

	"github.com/df07/go-thinlens/pkg/core"
)

const defaultGlassIOR = 1.5

// probeFocus casts a ray along the view axis and returns the distance to the
// surface that should be in focus. Without focus bounces that is the first
// surface hit. With bounces, mirrors and glass pass the probe on and the
// distance is summed along the path until a diffuse surface is reached.
func (c *Camera) probeFocus(world core.Intersector) float64 {
	ray := core.NewRay(c.position, c.viewDirection)
	if c.focusBounces == 0 || world == nil {
		return core.HitDistance(world, ray)
	}

	distance := 0.0
	for bounce := 0; ; bounce++ {
		hit, ok := world.Intersect(ray)
		if !ok {
			if distance == 0 {
				return ray.TMax
			}
			return distance
		}
		distance += hit.T
		if hit.Surface.Kind == core.Diffuse || bounce == c.focusBounces {
			return distance
		}
		ray = core.NewRay(hit.Point, redirect(ray.Direction, hit))
	}
}

// redirect returns the direction a probe takes after striking a specular
// surface. Glass picks the more likely of reflection and refraction so the
// focal distance stays deterministic.
func redirect(direction core.Vec3, hit *core.HitRecord) core.Vec3 {
	if hit.Surface.Kind == core.Mirror {
		return direction.Reflect(hit.Normal)
	}

	ior := hit.Surface.IOR
	if ior <= 0 {
		ior = defaultGlassIOR
	}
	n1, n2 := 1.0, ior
	if !hit.FrontFace {
		n1, n2 = n2, n1
	}

	refracted, ok := direction.Refract(hit.Normal, n1/n2)
	if !ok || schlick(direction, hit.Normal, n1, n2) > 0.5 {
		return direction.Reflect(hit.Normal)
	}
	return refracted
}

// schlick approximates the Fresnel reflectance at an interface
func schlick(direction, normal core.Vec3, n1, n2 float64) float64 {
	r0 := (n1 - n2) / (n1 + n2)
	r0 *= r0
	cosI := -direction.Dot(normal)
	return r0 + (1-r0)*math.Pow(1-cosI, 5)
}
