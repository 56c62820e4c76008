package geometry

import "github.com/df07/go-thinlens/pkg/core"

// MinHitDistance keeps rays leaving a surface from hitting it again
const MinHitDistance = 1e-4

// World is a flat list of shapes answering closest-hit queries
type World struct {
	shapes []Shape
}

// NewWorld creates a world from the given shapes
func NewWorld(shapes ...Shape) *World {
	return &World{shapes: shapes}
}

// Add appends shapes to the world
func (w *World) Add(shapes ...Shape) {
	w.shapes = append(w.shapes, shapes...)
}

// Shapes returns the shapes in the world
func (w *World) Shapes() []Shape {
	return w.shapes
}

// Len returns the number of shapes
func (w *World) Len() int {
	return len(w.shapes)
}

// Intersect returns the closest hit in [MinHitDistance, ray.TMax]
func (w *World) Intersect(ray core.Ray) (*core.HitRecord, bool) {
	_, hit, ok := w.Closest(ray)
	return hit, ok
}

// Closest is Intersect that also returns the shape that was hit
func (w *World) Closest(ray core.Ray) (Shape, *core.HitRecord, bool) {
	var closestShape Shape
	var closestHit *core.HitRecord
	closestSoFar := ray.TMax

	for _, shape := range w.shapes {
		if hit, isHit := shape.Hit(ray, MinHitDistance, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
			closestShape = shape
		}
	}

	return closestShape, closestHit, closestHit != nil
}

var _ core.Intersector = (*World)(nil)
