// Package input turns keyboard state into camera commands.
package input

import (
	"fmt"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/df07/go-thinlens/pkg/camera"
)

// Binding ties one key to one camera command
type Binding struct {
	Key     ebiten.Key
	Command camera.Command
}

// Keymap is an ordered list of bindings. A command may have several keys.
type Keymap []Binding

// DefaultKeymap returns the standard fly-through bindings
func DefaultKeymap() Keymap {
	return Keymap{
		{ebiten.KeyA, camera.StrafeLeft},
		{ebiten.KeyD, camera.StrafeRight},
		{ebiten.KeyW, camera.MoveForward},
		{ebiten.KeyS, camera.MoveBack},
		{ebiten.KeyR, camera.MoveUp},
		{ebiten.KeyF, camera.MoveDown},
		{ebiten.KeyArrowUp, camera.LookUp},
		{ebiten.KeyArrowDown, camera.LookDown},
		{ebiten.KeyArrowLeft, camera.LookLeft},
		{ebiten.KeyArrowRight, camera.LookRight},
		{ebiten.KeyE, camera.JumpForward},
		{ebiten.KeyQ, camera.JumpBack},
	}
}

// Poll returns the commands whose keys are currently down.
// Pass ebiten.IsKeyPressed while the game loop runs.
func (k Keymap) Poll(pressed func(ebiten.Key) bool) camera.Commands {
	var cmds camera.Commands
	for _, b := range k {
		if pressed(b.Key) {
			cmds = cmds.With(b.Command)
		}
	}
	return cmds
}

// Help returns one "key: command" line per binding, sorted by command name
func (k Keymap) Help() []string {
	lines := make([]string, 0, len(k))
	for _, b := range k {
		lines = append(lines, fmt.Sprintf("%s: %s", b.Command, b.Key))
	}
	sort.Strings(lines)
	return lines
}
