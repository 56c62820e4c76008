// Package camera implements an interactive thin-lens camera: a look-at view
// basis, a focal distance found by probing the scene, and stochastic primary
// rays for anti-aliasing and depth of field.
//
// A Camera is plain mutable state. GenerateRay only reads it and may be called
// from many goroutines at once as long as each one supplies its own Sampler.
// HandleMovement, SetPose and Recompute write it and must not overlap with ray
// generation; move the camera between frames.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-thinlens/pkg/core"
)

// ErrDegenerateView is reported when position and target coincide and no view
// direction can be derived.
var ErrDegenerateView = errors.New("position and target coincide")

// basisEpsilon is the smallest |worldUp x view| accepted before the basis
// falls back to another reference axis.
const basisEpsilon = 1e-6

// Camera generates primary rays through a virtual screen placed on the focus plane
type Camera struct {
	position      core.Vec3
	target        core.Vec3
	viewDirection core.Vec3
	up            core.Vec3
	right         core.Vec3
	focalDistance float64

	// Virtual screen on the focus plane; bottom-right is implied
	topLeft    core.Vec3
	topRight   core.Vec3
	bottomLeft core.Vec3

	lensSize     float64
	width        int
	height       int
	aspectRatio  float64
	step         float64
	focusBounces int
}

// NewCamera creates a camera for a width x height screen, looking from the
// built-in initial pose unless WithPose is given, and computes its geometry
// against world.
func NewCamera(width, height int, world core.Intersector, opts ...Option) *Camera {
	c := &Camera{
		position:    defaultPosition,
		target:      defaultTarget,
		lensSize:    DefaultLensSize,
		width:       width,
		height:      height,
		aspectRatio: float64(width) / float64(height),
		step:        DefaultStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Recompute(world)
	return c
}

// HandleMovement applies the active commands and recomputes the camera
// geometry. It returns false, without touching any state, when cmds is empty.
func (c *Camera) HandleMovement(cmds Commands, world core.Intersector) bool {
	if cmds.Empty() {
		return false
	}

	// Translation and rotation both work from a target one unit ahead
	c.target = c.position.Add(c.viewDirection)

	right := c.right.Multiply(c.step)
	up := c.up.Multiply(c.step)
	forward := c.viewDirection.Multiply(c.step)
	jump := c.viewDirection.Multiply(JumpStep)

	if cmds.Has(StrafeLeft) {
		c.position = c.position.Subtract(right)
		c.target = c.target.Subtract(right)
	}
	if cmds.Has(StrafeRight) {
		c.position = c.position.Add(right)
		c.target = c.target.Add(right)
	}
	if cmds.Has(MoveForward) {
		c.position = c.position.Add(forward)
	}
	if cmds.Has(MoveBack) {
		c.position = c.position.Subtract(forward)
	}
	if cmds.Has(JumpForward) {
		c.position = c.position.Add(jump)
		c.target = c.target.Add(jump)
	}
	if cmds.Has(JumpBack) {
		c.position = c.position.Subtract(jump)
		c.target = c.target.Subtract(jump)
	}
	if cmds.Has(MoveUp) {
		c.position = c.position.Add(up)
		c.target = c.target.Add(up)
	}
	if cmds.Has(MoveDown) {
		c.position = c.position.Subtract(up)
		c.target = c.target.Subtract(up)
	}
	if cmds.Has(LookUp) {
		c.target = c.target.Subtract(up)
	}
	if cmds.Has(LookDown) {
		c.target = c.target.Add(up)
	}
	if cmds.Has(LookLeft) {
		c.target = c.target.Subtract(right)
	}
	if cmds.Has(LookRight) {
		c.target = c.target.Add(right)
	}

	c.Recompute(world)
	return true
}

// SetPose moves the camera to an explicit position and look-at target and
// recomputes its geometry.
func (c *Camera) SetPose(position, target core.Vec3, world core.Intersector) error {
	if position == target {
		return fmt.Errorf("camera: set pose %v: %w", position, ErrDegenerateView)
	}
	c.position = position
	c.target = target
	c.Recompute(world)
	return nil
}

// Recompute rebuilds the view basis, probes world for the focal distance and
// places the virtual screen. It panics if position equals target.
func (c *Camera) Recompute(world core.Intersector) {
	view := c.target.Subtract(c.position)
	if view.IsZero() {
		panic(fmt.Errorf("camera: recompute at %v: %w", c.position, ErrDegenerateView))
	}
	c.viewDirection = view.Normalize()
	c.right = c.rightAxis(c.viewDirection)
	c.up = c.viewDirection.Cross(c.right).Normalize()

	c.focalDistance = math.Min(MaxFocalDistance, c.probeFocus(world))

	center := c.position.Add(c.viewDirection.Multiply(c.focalDistance))
	halfWidth := c.right.Multiply(0.5 * c.focalDistance * c.aspectRatio)
	halfHeight := c.up.Multiply(0.5 * c.focalDistance)

	c.topLeft = center.Subtract(halfWidth).Add(halfHeight)
	c.topRight = center.Add(halfWidth).Add(halfHeight)
	c.bottomLeft = center.Subtract(halfWidth).Subtract(halfHeight)
}

// rightAxis returns normalize(worldUp x view). When view is (nearly) vertical
// it keeps the previous right axis projected onto the new view plane, and
// failing that uses the world Z axis as reference.
func (c *Camera) rightAxis(view core.Vec3) core.Vec3 {
	right := core.WorldUp.Cross(view)
	if right.Length() >= basisEpsilon {
		return right.Normalize()
	}

	if !c.right.IsZero() {
		projected := c.right.Subtract(view.Multiply(c.right.Dot(view)))
		if projected.Length() >= basisEpsilon {
			return projected.Normalize()
		}
	}

	return core.NewVec3(0, 0, 1).Cross(view).Normalize()
}

// GenerateRay returns a primary ray for pixel (x, y), jittered inside the
// pixel footprint and across the lens aperture. It does not modify the camera.
func (c *Camera) GenerateRay(sampler core.Sampler, x, y int) core.Ray {
	r0 := sampler.Get1D()
	r1 := sampler.Get1D()
	r2 := sampler.Get1D() - 0.5
	r3 := sampler.Get1D() - 0.5

	// Sub-pixel position on the focus plane
	u := (float64(x) + r0) / float64(c.width)
	v := (float64(y) + r1) / float64(c.height)
	target := c.topLeft.
		Add(c.topRight.Subtract(c.topLeft).Multiply(u)).
		Add(c.bottomLeft.Subtract(c.topLeft).Multiply(v))

	// Position on the (square) aperture
	origin := c.position.Add(c.right.Multiply(r2).Add(c.up.Multiply(r3)).Multiply(c.lensSize))

	return core.NewRay(origin, target.Subtract(origin).Normalize())
}

// Position returns the lens position
func (c *Camera) Position() core.Vec3 { return c.position }

// Target returns the look-at point
func (c *Camera) Target() core.Vec3 { return c.target }

// ViewDirection returns the unit view direction
func (c *Camera) ViewDirection() core.Vec3 { return c.viewDirection }

// Up returns the unit up axis of the view basis
func (c *Camera) Up() core.Vec3 { return c.up }

// Right returns the unit right axis of the view basis
func (c *Camera) Right() core.Vec3 { return c.right }

// FocalDistance returns the distance from the lens to the focus plane
func (c *Camera) FocalDistance() float64 { return c.focalDistance }

// LensSize returns the aperture size
func (c *Camera) LensSize() float64 { return c.lensSize }

// AspectRatio returns width / height
func (c *Camera) AspectRatio() float64 { return c.aspectRatio }

// Width returns the screen width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the screen height in pixels
func (c *Camera) Height() int { return c.height }

// ScreenCorners returns the stored corners of the virtual screen
func (c *Camera) ScreenCorners() (topLeft, topRight, bottomLeft core.Vec3) {
	return c.topLeft, c.topRight, c.bottomLeft
}

// BottomRight returns the implied fourth corner of the virtual screen
func (c *Camera) BottomRight() core.Vec3 {
	return c.topRight.Add(c.bottomLeft).Subtract(c.topLeft)
}
