package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/logx"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
	"github.com/df07/go-thinlens/pkg/script"
)

// keys is a fake keyboard
type keys struct {
	down map[ebiten.Key]bool
	just map[ebiten.Key]bool
}

func (k *keys) pressed(key ebiten.Key) bool     { return k.down[key] }
func (k *keys) justPressed(key ebiten.Key) bool { return k.just[key] }

func newTestGame(t *testing.T, sc *scene.Scene) (*Game, *keys) {
	t.Helper()
	cam := camera.NewCamera(32, 24, sc.World, sc.CameraOptions()...)
	config := renderer.DefaultConfig()
	config.Samples = 2
	config.TileSize = 8

	g := NewGame(sc, cam, config, logx.Discard())
	k := &keys{down: map[ebiten.Key]bool{}, just: map[ebiten.Key]bool{}}
	g.pressed = k.pressed
	g.justPressed = k.justPressed
	return g, k
}

func TestUpdate_PreviewThenRefine(t *testing.T) {
	g, _ := newTestGame(t, scene.NewMirrorScene())

	require.NoError(t, g.Update())
	require.NotNil(t, g.frameImage)
	assert.Equal(t, 32*24, g.stats.TotalSamples, "first frame is a one-ray preview")
	assert.True(t, g.refine)

	require.NoError(t, g.Update())
	assert.Equal(t, 2*32*24, g.stats.TotalSamples, "still camera is refined")
	assert.False(t, g.refine)

	previous := g.frameImage
	require.NoError(t, g.Update())
	assert.Same(t, previous, g.frameImage, "nothing to do once refined")
}

func TestUpdate_Movement(t *testing.T) {
	g, k := newTestGame(t, scene.NewMirrorScene())
	require.NoError(t, g.Update())
	require.NoError(t, g.Update())

	k.down[ebiten.KeyW] = true
	require.NoError(t, g.Update())
	assert.InDelta(t, 3.9, g.camera.Position().Z, 1e-9)
	assert.InDelta(t, 2.9, g.camera.FocalDistance(), 1e-9)
	assert.Equal(t, 32*24, g.stats.TotalSamples)

	k.down[ebiten.KeyW] = false
	k.down[ebiten.KeyE] = true
	require.NoError(t, g.Update())
	assert.InDelta(t, -6.1, g.camera.Position().Z, 1e-9)
}

func TestUpdate_PrintPose(t *testing.T) {
	g, k := newTestGame(t, scene.NewMirrorScene())

	var copied string
	g.copyText = func(text string) error {
		copied = text
		return nil
	}
	k.just[keyPrintPose] = true
	require.NoError(t, g.Update())

	assert.Equal(t, g.camera.Pose().String(), copied)
	assert.Equal(t, "pose copied", g.status)

	g.copyText = nil
	require.NoError(t, g.Update())
	assert.Equal(t, "pose logged", g.status)
}

func TestUpdate_Help(t *testing.T) {
	g, k := newTestGame(t, scene.NewMirrorScene())

	assert.Contains(t, g.hud(), "H: help")
	k.just[keyHelp] = true
	require.NoError(t, g.Update())
	assert.True(t, g.showHelp)
	assert.Contains(t, g.hud(), "forward: W")
}

func TestUpdate_Script(t *testing.T) {
	g, k := newTestGame(t, scene.NewMirrorScene())
	s, err := script.Compile([]byte(`commands = ["back"]; done = frame >= 2`))
	require.NoError(t, err)
	g.SetScript(s, "")

	for i := 0; i < 4; i++ {
		require.NoError(t, g.Update())
	}
	assert.Equal(t, 2, g.frame)
	assert.InDelta(t, 4.2, g.camera.Position().Z, 1e-9)

	// Pausing stops the script but not the keyboard
	g.SetScript(s, "")
	k.just[keyPause] = true
	k.down[ebiten.KeyS] = true
	require.NoError(t, g.Update())
	assert.True(t, g.paused)
	assert.Equal(t, 0, g.frame)
	assert.InDelta(t, 4.3, g.camera.Position().Z, 1e-9)
}

func TestUpdate_BadScriptStops(t *testing.T) {
	g, _ := newTestGame(t, scene.NewMirrorScene())
	s, err := script.Compile([]byte(`commands = ["spin"]`))
	require.NoError(t, err)
	g.SetScript(s, "")

	require.NoError(t, g.Update())
	assert.Nil(t, g.script)
	assert.InDelta(t, 4.0, g.camera.Position().Z, 1e-9)
}

const wallYAML = `
name: wall
camera:
  position: [0, 0, 0]
  target: [0, 0, -1]
objects:
  - plane: {point: [0, 0, %s], normal: [0, 0, 1]}
`

func writeWall(t *testing.T, path, z string) {
	t.Helper()
	data := []byte(fmt.Sprintf(wallYAML, z))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestReloadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.yaml")
	writeWall(t, path, "-5")
	sc, err := scene.Load(path)
	require.NoError(t, err)

	g, k := newTestGame(t, sc)
	g.scenePath = path
	events := make(chan string, 1)
	g.events = events

	// Fly a little so the reload has a pose to keep
	k.down[ebiten.KeyW] = true
	require.NoError(t, g.Update())
	k.down[ebiten.KeyW] = false
	assert.InDelta(t, 4.9, g.camera.FocalDistance(), 1e-9)

	writeWall(t, path, "-3")
	events <- path
	require.NoError(t, g.Update())

	assert.Equal(t, "scene reloaded", g.status)
	assert.InDelta(t, -0.1, g.camera.Position().Z, 1e-9)
	assert.InDelta(t, 2.9, g.camera.FocalDistance(), 1e-9)
	assert.InDelta(t, -1.0, g.camera.ViewDirection().Z, 1e-9)

	// A broken file keeps the last good scene
	require.NoError(t, os.WriteFile(path, []byte("objects: [{}]"), 0644))
	events <- path
	require.NoError(t, g.Update())
	assert.Contains(t, g.status, "scene error")
	assert.InDelta(t, 2.9, g.camera.FocalDistance(), 1e-9)

	close(events)
	require.NoError(t, g.Update())
	assert.Nil(t, g.events)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"scenes", "scripts"}, dedupe([]string{"scenes", "./scenes", "scripts/"}))
}
