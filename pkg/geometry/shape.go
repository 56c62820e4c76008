// Package geometry provides the shapes a scene is built from and World, the
// closest-hit query the camera probes for its focal distance.
package geometry

import "github.com/df07/go-thinlens/pkg/core"

// Shape interface for objects that can be hit by rays
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool)
}
