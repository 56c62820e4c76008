package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/config"
	"github.com/df07/go-thinlens/pkg/logx"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
	"github.com/df07/go-thinlens/pkg/script"
	"github.com/df07/go-thinlens/pkg/watch"
)

func main() {
	configPath := flag.String("config", "", "Config file (default ~/.config/thinlens/config.toml)")
	sceneName := flag.String("scene", "", "Built-in scene name or .yaml file (reloaded on change)")
	scriptPath := flag.String("script", "", "Tengo fly-through script (reloaded on change)")
	zoom := flag.Int("zoom", 2, "Window pixels per rendered pixel")
	verbose := flag.Bool("v", false, "Verbose logging")
	debug := flag.Bool("vv", false, "Debug logging")
	quiet := flag.Bool("q", false, "Only log errors")
	flag.Parse()

	logger := logx.New(os.Stderr, logx.LevelFromFlags(*debug, *verbose, *quiet))

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else if path, pathErr := config.DefaultPath(); pathErr != nil {
		err = pathErr
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}

	sc, err := scene.Create(cfg.Scene)
	if err != nil {
		logger.Error("scene", "err", err)
		os.Exit(1)
	}
	width, height := sc.Size(cfg.Render.Width, cfg.Render.Height)
	cam := camera.NewCamera(width, height, sc.World, append(cfg.CameraOptions(), sc.CameraOptions()...)...)

	render := renderer.DefaultConfig()
	render.TileSize = cfg.Render.TileSize
	render.Samples = cfg.Render.Samples
	render.NumWorkers = cfg.Render.Workers
	render.Seed = cfg.Render.Seed

	game := NewGame(sc, cam, render, logger)
	game.pressed = ebiten.IsKeyPressed
	game.justPressed = inpututil.IsKeyJustPressed

	if err := clipboard.Init(); err != nil {
		logger.Warn("clipboard unavailable, poses are only logged", "err", err)
	} else {
		game.copyText = func(text string) error {
			clipboard.Write(clipboard.FmtText, []byte(text))
			return nil
		}
	}

	var watched []string
	if scene.IsSceneFile(cfg.Scene) {
		game.scenePath = cfg.Scene
		watched = append(watched, filepath.Dir(cfg.Scene))
	}
	if *scriptPath != "" {
		s, err := script.Load(*scriptPath)
		if err != nil {
			logger.Error("script", "err", err)
			os.Exit(1)
		}
		game.SetScript(s, *scriptPath)
		watched = append(watched, filepath.Dir(*scriptPath))
	}
	if len(watched) > 0 {
		w, err := watch.New(dedupe(watched)...)
		if err != nil {
			logger.Warn("file watching disabled", "err", err)
		} else {
			defer w.Close()
			game.events = w.Events
			go func() {
				for err := range w.Errors {
					logger.Warn("watch", "err", err)
				}
			}()
		}
	}

	ebiten.SetWindowSize(width*(*zoom), height*(*zoom))
	ebiten.SetWindowTitle("thinlens - " + sc.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("viewer", "err", err)
		os.Exit(1)
	}
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
