// Package script runs tengo fly-through scripts. A script is executed once
// per frame with the global `frame` set to the frame number and answers by
// assigning the global `commands`, an array of command names. Setting
// `done = true` ends the fly-through.
//
//	commands = frame < 20 ? ["forward"] : ["look_left"]
//	done = frame >= 60
package script

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/df07/go-thinlens/pkg/camera"
)

// ErrBadCommand is returned when a script produces something other than
// a list of known command names
var ErrBadCommand = errors.New("bad command")

// Script is a compiled fly-through script. It is safe for concurrent use,
// runs are serialized.
type Script struct {
	mu       sync.Mutex
	compiled *tengo.Compiled
	name     string
	done     bool
}

// Load reads and compiles a script file
func Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	s, err := Compile(src)
	if err != nil {
		return nil, fmt.Errorf("script: %s: %w", path, err)
	}
	s.name = path
	return s, nil
}

// Compile compiles tengo source. The text and math modules are importable.
func Compile(src []byte) (*Script, error) {
	ts := tengo.NewScript(src)
	if err := addGlobals(ts); err != nil {
		return nil, err
	}
	ts.SetImports(stdlib.GetModuleMap("math", "text", "rand"))

	compiled, err := ts.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return &Script{compiled: compiled, name: "script"}, nil
}

// addGlobals declares the variables the runner sets and reads every frame
func addGlobals(ts *tengo.Script) error {
	globals := []struct {
		name  string
		value interface{}
	}{
		{"frame", 0},
		{"commands", []interface{}{}},
		{"done", false},
	}
	for _, g := range globals {
		if err := ts.Add(g.name, g.value); err != nil {
			return fmt.Errorf("declare %s: %w", g.name, err)
		}
	}
	return nil
}

// Commands runs the script for one frame and returns the command set it asked for
func (s *Script) Commands(frame int) (camera.Commands, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.compiled.Set("frame", frame); err != nil {
		return 0, err
	}
	if err := s.compiled.Set("commands", []interface{}{}); err != nil {
		return 0, err
	}
	if err := s.compiled.Set("done", false); err != nil {
		return 0, err
	}
	if err := s.compiled.Run(); err != nil {
		return 0, fmt.Errorf("%s: frame %d: %w", s.name, frame, err)
	}

	s.done = s.compiled.Get("done").Bool()

	names, err := commandNames(s.compiled.Get("commands").Value())
	if err != nil {
		return 0, fmt.Errorf("%s: frame %d: %w", s.name, frame, err)
	}
	cmds, err := camera.ParseCommands(names)
	if err != nil {
		return 0, fmt.Errorf("%s: frame %d: %w: %w", s.name, frame, ErrBadCommand, err)
	}
	return cmds, nil
}

// Done reports whether the last run set done
func (s *Script) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// commandNames accepts an array of strings or a single string
func commandNames(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []interface{}:
		names := make([]string, 0, len(v))
		for i, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("commands[%d] is %T, want string: %w", i, item, ErrBadCommand)
			}
			names = append(names, name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("commands is %T, want array of strings: %w", value, ErrBadCommand)
	}
}
