package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/df07/go-thinlens/pkg/config"
	"github.com/df07/go-thinlens/pkg/logx"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
	"github.com/df07/go-thinlens/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	configPath := flag.String("config", "", "Config file (default ~/.config/thinlens/config.toml)")
	sceneName := flag.String("scene", "", "Initial scene: built-in name or .yaml file")
	sceneDir := flag.String("scenes", "scenes", "Directory of scene files offered by /api/scenes")
	staticDir := flag.String("static", "", "Directory of static files served at /")
	verbose := flag.Bool("v", false, "Verbose logging")
	debug := flag.Bool("vv", false, "Debug logging")
	quiet := flag.Bool("q", false, "Only log errors")
	flag.Parse()

	bootLogger := logx.New(os.Stderr, logx.LevelFromFlags(*debug, *verbose, *quiet))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLogger.Error("config", "err", err)
		os.Exit(1)
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}

	level, err := logx.ParseLevel(cfg.Log.Level)
	if err != nil {
		bootLogger.Error("config", "err", err)
		os.Exit(1)
	}
	if *verbose || *debug || *quiet {
		level = logx.LevelFromFlags(*debug, *verbose, *quiet)
	}

	// Everything logged also reaches /api/console
	console := server.NewConsole()
	logger := slog.New(server.NewConsoleHandler(logx.NewHandler(os.Stderr, level), console))

	sc, err := scene.Create(cfg.Scene)
	if err != nil {
		logger.Error("scene", "err", err)
		os.Exit(1)
	}

	render := renderer.DefaultConfig()
	render.TileSize = cfg.Render.TileSize
	render.Samples = cfg.Render.Samples
	render.NumWorkers = cfg.Render.Workers
	render.Seed = cfg.Render.Seed

	webServer := server.NewServer(server.Options{
		Port:          *port,
		Scene:         sc,
		Width:         cfg.Render.Width,
		Height:        cfg.Render.Height,
		CameraOptions: cfg.CameraOptions(),
		Render:        render,
		SceneDir:      *sceneDir,
		StaticDir:     *staticDir,
		Logger:        logger,
		Console:       console,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("thin-lens camera web server", "scene", sc.Name, "pose", webServer.Pose().String())
	if err := webServer.Start(ctx); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path, err := config.DefaultPath()
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadOrDefault(path)
}
