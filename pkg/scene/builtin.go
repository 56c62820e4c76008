package scene

import (
	"github.com/df07/go-thinlens/pkg/core"
	"github.com/df07/go-thinlens/pkg/geometry"
)

var (
	diffuse = core.Surface{Kind: core.Diffuse}
	mirror  = core.Surface{Kind: core.Mirror}
	glass   = core.Surface{Kind: core.Glass, IOR: 1.5}
)

// NewDefaultScene creates spheres over a ground plane. The camera keeps its
// default pose, which looks at the large sphere about 3.5 units away.
func NewDefaultScene() *Scene {
	world := geometry.NewWorld(
		// Ground
		geometry.NewPlane(core.NewVec3(0, -0.5, 0), core.NewVec3(0, 1, 0), diffuse),

		// Focus subject on the default view axis
		geometry.NewSphere(core.NewVec3(1.056, 0.005, 0.122), 0.5, diffuse),

		// Near and far neighbours to show the depth of field
		geometry.NewSphere(core.NewVec3(-0.6, -0.25, -1.8), 0.25, diffuse),
		geometry.NewSphere(core.NewVec3(2.4, 0.5, 3.5), 1.0, diffuse),
		geometry.NewSphere(core.NewVec3(-0.8, 0.0, 1.2), 0.5, mirror),

		// Backdrop
		geometry.NewTriangle(
			core.NewVec3(-4, -0.5, 8),
			core.NewVec3(6, -0.5, 8),
			core.NewVec3(1, 5, 8),
			diffuse,
		),
	)

	return &Scene{
		Name:        "default",
		Description: "Spheres over a ground plane",
		World:       world,
	}
}

// NewMirrorScene creates a mirror sphere and a glass sphere in front of a wall.
// With focus bounces enabled the focal distance follows the reflections.
func NewMirrorScene() *Scene {
	world := geometry.NewWorld(
		geometry.NewPlane(core.NewVec3(0, -0.5, 0), core.NewVec3(0, 1, 0), diffuse),
		geometry.NewPlane(core.NewVec3(0, 0, -6), core.NewVec3(0, 0, 1), diffuse),
		geometry.NewSphere(core.NewVec3(0, 0.5, 0), 1.0, mirror),
		geometry.NewSphere(core.NewVec3(2.2, 0.3, -1), 0.8, glass),
		geometry.NewSphere(core.NewVec3(-2.2, 0.0, -2), 0.5, diffuse),
	)

	return &Scene{
		Name:        "mirrors",
		Description: "Mirror and glass spheres in front of a wall",
		Width:       400,
		Height:      300,
		Camera: &Pose{
			Position: core.NewVec3(0, 0.5, 4),
			Target:   core.NewVec3(0, 0.5, 0),
			LensSize: 0.08,
		},
		World: world,
	}
}

// NewEmptyScene creates a world with nothing in it, so the focal distance
// always sits at the maximum.
func NewEmptyScene() *Scene {
	return &Scene{
		Name:        "empty",
		Description: "Nothing to focus on",
		World:       geometry.NewWorld(),
	}
}
