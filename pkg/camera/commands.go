package camera

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by ParseCommands for names no command answers to
var ErrUnknownCommand = errors.New("unknown command")

// Command is a single movement or look command
type Command uint16

const (
	StrafeLeft Command = 1 << iota
	StrafeRight
	MoveForward
	MoveBack
	MoveUp
	MoveDown
	LookUp
	LookDown
	LookLeft
	LookRight
	JumpForward // +10 units along the view direction
	JumpBack    // -10 units along the view direction
)

var commandNames = []struct {
	cmd  Command
	name string
}{
	{StrafeLeft, "strafe_left"},
	{StrafeRight, "strafe_right"},
	{MoveForward, "forward"},
	{MoveBack, "back"},
	{MoveUp, "up"},
	{MoveDown, "down"},
	{LookUp, "look_up"},
	{LookDown, "look_down"},
	{LookLeft, "look_left"},
	{LookRight, "look_right"},
	{JumpForward, "jump_forward"},
	{JumpBack, "jump_back"},
}

// String returns the command's name, e.g. "look_left"
func (c Command) String() string {
	for _, cn := range commandNames {
		if cn.cmd == c {
			return cn.name
		}
	}
	return "unknown"
}

// CommandByName looks up a command by its String form
func CommandByName(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, cn := range commandNames {
		if cn.name == name {
			return cn.cmd, true
		}
	}
	return 0, false
}

// ParseCommands maps command names such as "forward" or "look_left" to a
// command set. Names are case-insensitive. All unknown names are reported.
func ParseCommands(names []string) (Commands, error) {
	var cmds Commands
	var errs []error
	for _, name := range names {
		cmd, ok := CommandByName(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%q: %w", name, ErrUnknownCommand))
			continue
		}
		cmds = cmds.With(cmd)
	}
	if err := errors.Join(errs...); err != nil {
		return 0, fmt.Errorf("camera: %w", err)
	}
	return cmds, nil
}

// Commands is the set of commands active during one frame
type Commands uint16

// NewCommands builds a command set
func NewCommands(cmds ...Command) Commands {
	var set Commands
	for _, c := range cmds {
		set = set.With(c)
	}
	return set
}

// With returns the set with c added
func (s Commands) With(c Command) Commands {
	return s | Commands(c)
}

// Has reports whether c is active
func (s Commands) Has(c Command) bool {
	return s&Commands(c) != 0
}

// Empty reports whether no command is active
func (s Commands) Empty() bool {
	return s == 0
}

// Names lists the active commands in declaration order
func (s Commands) Names() []string {
	var names []string
	for _, cn := range commandNames {
		if s.Has(cn.cmd) {
			names = append(names, cn.name)
		}
	}
	return names
}
