package core

// RayMaxDistance is the "effectively unbounded" travel distance given to
// focus probes and primary rays.
const RayMaxDistance = 1e34

// Ray represents a ray with an origin, a direction and a maximum travel distance
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMax      float64
}

// NewRay creates a new ray whose maximum distance is RayMaxDistance
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMax: RayMaxDistance}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}
