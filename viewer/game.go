package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/input"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
	"github.com/df07/go-thinlens/pkg/script"
)

// Keys handled by the viewer itself rather than the camera
const (
	keyPrintPose = ebiten.KeyP
	keyHelp      = ebiten.KeyH
	keyPause     = ebiten.KeySpace
)

// Game is the interactive viewer. Each Update applies the pressed keys (and
// the fly-through script, if any) to the camera; a moving camera is previewed
// with one ray per pixel and refined to the full sample count once it stops.
type Game struct {
	logger *slog.Logger
	keymap input.Keymap
	render renderer.Config

	scenePath string // Set when the scene came from a file
	scene     *scene.Scene
	camera    *camera.Camera

	script     *script.Script
	scriptPath string
	frame      int
	paused     bool

	// Replaced in tests
	pressed     func(ebiten.Key) bool
	justPressed func(ebiten.Key) bool
	copyText    func(string) error // nil when the clipboard is unavailable
	events      <-chan string

	frameImage *image.RGBA
	screen     *ebiten.Image
	stats      renderer.RenderStats
	dirty      bool // Needs a quick preview
	refine     bool // Needs a full-quality render
	showHelp   bool
	status     string
}

// NewGame creates a viewer looking into sc with cam
func NewGame(sc *scene.Scene, cam *camera.Camera, render renderer.Config, logger *slog.Logger) *Game {
	return &Game{
		logger: logger,
		keymap: input.DefaultKeymap(),
		render: render,
		scene:  sc,
		camera: cam,
		dirty:  true,
	}
}

// SetScript plays s as a fly-through on top of keyboard input
func (g *Game) SetScript(s *script.Script, path string) {
	g.script = s
	g.scriptPath = path
	g.frame = 0
}

func (g *Game) Update() error {
	g.handleReloads()

	if g.justPressed(keyHelp) {
		g.showHelp = !g.showHelp
	}
	if g.justPressed(keyPause) && g.script != nil {
		g.paused = !g.paused
	}
	if g.justPressed(keyPrintPose) {
		g.printPose()
	}

	cmds := g.keymap.Poll(g.pressed)
	if g.script != nil && !g.paused && !g.script.Done() {
		scripted, err := g.script.Commands(g.frame)
		if err != nil {
			g.logger.Error("script stopped", "err", err)
			g.script = nil
		} else if !g.script.Done() {
			cmds |= scripted
			g.frame++
		}
	}

	if g.camera.HandleMovement(cmds, g.scene.World) {
		g.dirty = true
	}

	switch {
	case g.dirty:
		g.renderFrame(1)
		g.dirty = false
		g.refine = true
	case g.refine:
		g.renderFrame(g.render.Samples)
		g.refine = false
	}
	return nil
}

// renderFrame renders the current view with the given rays per pixel
func (g *Game) renderFrame(samples int) {
	config := g.render
	config.Samples = samples
	img, stats, err := renderer.NewPreview(g.camera, g.scene.World, config, g.logger).RenderFrame(context.Background())
	if err != nil {
		g.logger.Error("render failed", "err", err)
		return
	}
	g.frameImage = img
	g.stats = stats
	g.logger.Debug("frame rendered", "samples", samples, "duration", stats.Duration, "focal_distance", stats.FocalDistance)
}

// handleReloads drains pending file change events
func (g *Game) handleReloads() {
	for {
		select {
		case path, ok := <-g.events:
			if !ok {
				g.events = nil
				return
			}
			g.reload(path)
		default:
			return
		}
	}
}

func (g *Game) reload(path string) {
	switch {
	case g.scenePath != "" && samePath(path, g.scenePath):
		sc, err := scene.Load(g.scenePath)
		if err != nil {
			g.logger.Warn("scene reload failed", "file", path, "err", err)
			g.status = "scene error: " + err.Error()
			return
		}
		// Keep the pose the user flew to; only the focus depends on the world
		g.scene = sc
		g.camera.Recompute(sc.World)
		g.status = "scene reloaded"
		g.dirty = true
		g.logger.Info("scene reloaded", "scene", sc.Name, "shapes", sc.World.Len())

	case g.scriptPath != "" && samePath(path, g.scriptPath):
		s, err := script.Load(g.scriptPath)
		if err != nil {
			g.logger.Warn("script reload failed", "file", path, "err", err)
			g.status = "script error: " + err.Error()
			return
		}
		g.SetScript(s, g.scriptPath)
		g.status = "script restarted"
		g.logger.Info("script reloaded", "file", path)
	}
}

// printPose logs the pose and copies it to the clipboard
func (g *Game) printPose() {
	pose := g.camera.Pose()
	g.logger.Info("camera pose",
		"position", pose.Position.String(),
		"target", pose.Target.String(),
		"focal_distance", pose.FocalDistance)

	if g.copyText == nil {
		g.status = "pose logged"
		return
	}
	if err := g.copyText(pose.String()); err != nil {
		g.logger.Warn("clipboard write failed", "err", err)
		g.status = "pose logged"
		return
	}
	g.status = "pose copied"
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.frameImage != nil {
		b := g.frameImage.Bounds()
		if g.screen == nil || g.screen.Bounds().Dx() != b.Dx() || g.screen.Bounds().Dy() != b.Dy() {
			g.screen = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.screen.WritePixels(g.frameImage.Pix)
		screen.DrawImage(g.screen, nil)
	}
	ebitenutil.DebugPrint(screen, g.hud())
}

// hud returns the text drawn over the frame
func (g *Game) hud() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  FPS: %.1f\n", g.scene.Name, ebiten.ActualFPS())
	fmt.Fprintf(&sb, "focus %.3f  hits %.0f%%\n", g.camera.FocalDistance(), 100*g.stats.HitRatio())
	if g.script != nil {
		state := "playing"
		if g.paused {
			state = "paused"
		}
		fmt.Fprintf(&sb, "script frame %d (%s)\n", g.frame, state)
	}
	if g.status != "" {
		sb.WriteString(g.status + "\n")
	}
	if g.showHelp {
		for _, line := range g.keymap.Help() {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("pose: P\npause script: Space\n")
	} else {
		sb.WriteString("H: help\n")
	}
	return sb.String()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.camera.Width(), g.camera.Height()
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
