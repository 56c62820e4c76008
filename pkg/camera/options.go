package camera

import "github.com/df07/go-thinlens/pkg/core"

const (
	// DefaultLensSize is the aperture size used unless WithLensSize is given
	DefaultLensSize = 0.04
	// DefaultStep is the distance covered by one movement command
	DefaultStep = 0.1
	// JumpStep is the distance covered by JumpForward and JumpBack
	JumpStep = 10.0
	// MaxFocalDistance caps the focal distance found by the focus probe
	MaxFocalDistance = 20.0
)

var (
	defaultPosition = core.NewVec3(-0.94, -0.037, -3.342)
	defaultTarget   = core.NewVec3(-0.418, -0.026, -2.435)
)

// Option configures a Camera at construction
type Option func(*Camera)

// WithLensSize sets the aperture size. Zero gives a pinhole camera.
func WithLensSize(size float64) Option {
	return func(c *Camera) {
		c.lensSize = size
	}
}

// WithPose replaces the built-in initial position and target.
// Equal points are ignored and the default pose is kept.
func WithPose(position, target core.Vec3) Option {
	return func(c *Camera) {
		if position == target {
			return
		}
		c.position = position
		c.target = target
	}
}

// WithStep sets the distance covered by one movement command
func WithStep(step float64) Option {
	return func(c *Camera) {
		if step > 0 {
			c.step = step
		}
	}
}

// WithFocusBounces lets the focus probe continue through up to n mirror or
// glass surfaces before it settles on a focal distance.
func WithFocusBounces(n int) Option {
	return func(c *Camera) {
		c.focusBounces = max(0, n)
	}
}
