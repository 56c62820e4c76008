package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/config"
	"github.com/df07/go-thinlens/pkg/core"
	"github.com/df07/go-thinlens/pkg/logx"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
	"github.com/df07/go-thinlens/pkg/script"
)

// options collects the command line flags. Zero values leave the config alone.
type options struct {
	configPath string
	scene      string
	output     string
	width      int
	height     int
	samples    int
	workers    int
	scale      int
	script     string
	frames     int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/thinlens/config.toml)")
	flag.StringVar(&opts.scene, "scene", "", "Built-in scene name or path to a .yaml scene file")
	flag.StringVar(&opts.output, "output", "", "Output directory")
	flag.IntVar(&opts.width, "width", 0, "Image width in pixels")
	flag.IntVar(&opts.height, "height", 0, "Image height in pixels")
	flag.IntVar(&opts.samples, "samples", 0, "Primary rays per pixel")
	flag.IntVar(&opts.workers, "workers", 0, "Render workers (0 = CPU count)")
	flag.IntVar(&opts.scale, "scale", 0, "Upscale factor for saved images")
	flag.StringVar(&opts.script, "script", "", "Tengo fly-through script; renders one image per frame")
	flag.IntVar(&opts.frames, "frames", 600, "Maximum number of fly-through frames")
	verbose := flag.Bool("v", false, "Verbose logging")
	debug := flag.Bool("vv", false, "Debug logging")
	quiet := flag.Bool("q", false, "Only log errors")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := logx.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose || *debug || *quiet {
		level = logx.LevelFromFlags(*debug, *verbose, *quiet)
	}
	logger := logx.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Thin-lens camera renderer")
	fmt.Println("Usage: thinlens [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, name := range scene.Names() {
		sc, _ := scene.Create(name)
		fmt.Printf("  %-8s - %s\n", name, sc.Description)
	}
	fmt.Println("  <file>.yaml - scene file")
	fmt.Println()
	fmt.Println("Output will be saved to <output>/<scene>/render_<timestamp>.png")
	fmt.Println("Fly-throughs are saved to <output>/<scene>/flight_<timestamp>/frame_NNNN.png")
}

// loadConfig reads the config file and applies the flag overrides
func loadConfig(opts options) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		path, pathErr := config.DefaultPath()
		if pathErr != nil {
			return config.Config{}, pathErr
		}
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return config.Config{}, err
	}

	if opts.scene != "" {
		cfg.Scene = opts.scene
	}
	if opts.output != "" {
		cfg.OutputDir = opts.output
	}
	if opts.width > 0 {
		cfg.Render.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Render.Height = opts.height
	}
	if opts.samples > 0 {
		cfg.Render.Samples = opts.samples
	}
	if opts.workers > 0 {
		cfg.Render.Workers = opts.workers
	}
	if opts.scale > 0 {
		cfg.Render.Scale = opts.scale
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config, opts options, logger *slog.Logger) error {
	sc, err := scene.Create(cfg.Scene)
	if err != nil {
		return err
	}

	// Scene size wins unless the size was given on the command line
	width, height := sc.Size(cfg.Render.Width, cfg.Render.Height)
	if opts.width > 0 && opts.height > 0 {
		width, height = opts.width, opts.height
	}

	cam := camera.NewCamera(width, height, sc.World, append(cfg.CameraOptions(), sc.CameraOptions()...)...)
	logger.Info("scene ready", "scene", sc.Name, "width", width, "height", height, "shapes", sc.World.Len())
	logger.Debug("camera", "pose", cam.Pose().String())

	outputDir, err := createOutputDir(cfg.OutputDir, cfg.Scene)
	if err != nil {
		return err
	}

	preview := renderer.NewPreview(cam, sc.World, renderConfig(cfg), logger)

	if opts.script == "" {
		_, err := renderStill(ctx, preview, outputDir, cfg.Render.Scale, logger)
		return err
	}

	s, err := script.Load(opts.script)
	if err != nil {
		return err
	}
	flightDir := filepath.Join(outputDir, "flight_"+time.Now().Format("20060102_150405"))
	_, err = flyThrough(ctx, s, cam, sc.World, preview, flightDir, cfg.Render.Scale, opts.frames, logger)
	return err
}

// renderConfig maps the render settings onto the preview renderer
func renderConfig(cfg config.Config) renderer.Config {
	rc := renderer.DefaultConfig()
	rc.TileSize = cfg.Render.TileSize
	rc.Samples = cfg.Render.Samples
	rc.NumWorkers = cfg.Render.Workers
	rc.Seed = cfg.Render.Seed
	return rc
}

// sceneDirName returns the output directory name for a scene name or scene file path
func sceneDirName(nameOrPath string) string {
	if scene.IsSceneFile(nameOrPath) {
		base := filepath.Base(nameOrPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ToLower(strings.TrimSpace(nameOrPath))
}

// createOutputDir creates <root>/<scene> and returns its path
func createOutputDir(root, nameOrPath string) (string, error) {
	outputDir := filepath.Join(root, sceneDirName(nameOrPath))
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return outputDir, nil
}

// renderStill renders one frame to a timestamped PNG and returns its path
func renderStill(ctx context.Context, preview *renderer.Preview, outputDir string, scale int, logger *slog.Logger) (string, error) {
	img, stats, err := preview.RenderFrame(ctx)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := renderer.SavePNG(img, filename, scale); err != nil {
		return "", err
	}

	logger.Info("render saved",
		"file", filename,
		"duration", stats.Duration,
		"focal_distance", stats.FocalDistance,
		"hit_ratio", fmt.Sprintf("%.3f", stats.HitRatio()))
	return filename, nil
}

// flyThrough asks the script for each frame's commands, moves the camera and
// renders frame_NNNN.png until the script is done or maxFrames is reached.
// It returns the number of frames written.
func flyThrough(ctx context.Context, s *script.Script, cam *camera.Camera, world core.Intersector,
	preview *renderer.Preview, dir string, scale, maxFrames int, logger *slog.Logger) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create flight directory: %w", err)
	}

	start := time.Now()
	frames := 0
	for frame := 0; frame < maxFrames; frame++ {
		cmds, err := s.Commands(frame)
		if err != nil {
			return frames, err
		}
		if s.Done() {
			break
		}
		if cam.HandleMovement(cmds, world) {
			logger.Debug("camera moved", "frame", frame, "commands", cmds.Names(), "focal_distance", cam.FocalDistance())
		}

		img, _, err := preview.RenderFrame(ctx)
		if err != nil {
			return frames, err
		}
		filename := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", frame))
		if err := renderer.SavePNG(img, filename, scale); err != nil {
			return frames, err
		}
		frames++
	}

	logger.Info("fly-through saved", "dir", dir, "frames", frames, "duration", time.Since(start), "pose", cam.Pose().String())
	return frames, nil
}
