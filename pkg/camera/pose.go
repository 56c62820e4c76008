package camera

import (
	"fmt"

	"github.com/df07/go-thinlens/pkg/core"
)

// Pose is a snapshot of where the camera is and what it is looking at
type Pose struct {
	Position      core.Vec3 `json:"position"`
	Target        core.Vec3 `json:"target"`
	Direction     core.Vec3 `json:"direction"`
	FocalDistance float64   `json:"focalDistance"`
}

// Pose returns the current pose
func (c *Camera) Pose() Pose {
	return Pose{
		Position:      c.position,
		Target:        c.target,
		Direction:     c.viewDirection,
		FocalDistance: c.focalDistance,
	}
}

// String formats the pose for logs and the clipboard
func (p Pose) String() string {
	return fmt.Sprintf("position: %v, direction: %v, focal distance: %.3f",
		p.Position, p.Direction, p.FocalDistance)
}
