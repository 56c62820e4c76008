// Package renderer turns a camera into images by tracing its primary rays:
// a depth view of the world in which pixels lying on the focal plane are
// tinted, so focus and depth of field can be checked by eye.
package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/core"
)

// Config contains configuration for preview rendering
type Config struct {
	TileSize       int     // Size of each tile
	Samples        int     // Primary rays per pixel
	NumWorkers     int     // Number of parallel workers (0 = use CPU count)
	Seed           int64   // Base seed for the tile samplers
	FocusTolerance float64 // Relative depth band around the focal distance that is tinted (0 = off)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:       32,
		Samples:        8,
		NumWorkers:     0,
		Seed:           42,
		FocusTolerance: 0.05,
	}
}

// depthFalloff controls how quickly gray fades with depth
const depthFalloff = 0.25

// Preview renders depth frames of a world as seen by a camera
type Preview struct {
	camera *camera.Camera
	world  core.Intersector
	config Config
	logger *slog.Logger
}

// NewPreview creates a preview renderer. The camera must not be moved while
// RenderFrame runs.
func NewPreview(cam *camera.Camera, world core.Intersector, config Config, logger *slog.Logger) *Preview {
	return &Preview{
		camera: cam,
		world:  world,
		config: config,
		logger: logger,
	}
}

// RenderFrame renders one frame using parallel tile workers. Cancelling ctx
// stops the frame between tiles and returns ctx.Err().
func (p *Preview) RenderFrame(ctx context.Context) (*image.RGBA, RenderStats, error) {
	start := time.Now()
	width, height := p.camera.Width(), p.camera.Height()

	tiles := NewTileGrid(width, height, p.config.TileSize, p.config.Seed)

	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}

	pool := NewWorkerPool(NewTileRenderer(p.camera, p.world, p.config.Samples), p.config.NumWorkers, len(tiles))
	pool.Start(ctx)
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i, PixelStats: pixelStats})
	}

	stats := RenderStats{FocalDistance: p.camera.FocalDistance()}
	var firstErr error
	for range tiles {
		result, ok := pool.GetResult()
		if !ok {
			firstErr = fmt.Errorf("renderer: worker pool closed unexpectedly")
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.Add(result.Stats)
	}
	pool.Stop()

	if firstErr != nil {
		p.logger.Debug("frame cancelled", "err", firstErr)
		return nil, RenderStats{}, firstErr
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c, inFocus := p.shade(&pixelStats[y][x], stats.FocalDistance)
			img.SetRGBA(x, y, c)
			if inFocus {
				stats.InFocusPixels++
			}
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	stats.Duration = time.Since(start)

	p.logger.Debug("frame rendered",
		"width", width,
		"height", height,
		"tiles", len(tiles),
		"workers", pool.NumWorkers(),
		"hit_ratio", stats.HitRatio(),
		"in_focus", stats.InFocusPixels,
		"duration", stats.Duration,
	)

	return img, stats, nil
}

// shade maps a pixel's mean depth to gray, near = bright, scaled by the
// fraction of rays that hit. Pixels on the focal plane are tinted red.
func (p *Preview) shade(ps *PixelStats, focalDistance float64) (color.RGBA, bool) {
	depth, ok := ps.MeanDepth()
	if !ok {
		return color.RGBA{A: 255}, false
	}

	gray := ps.Coverage() / (1 + math.Max(0, depth)*depthFalloff)
	c := core.NewVec3(gray, gray, gray)

	inFocus := p.config.FocusTolerance > 0 &&
		math.Abs(depth-focalDistance) <= p.config.FocusTolerance*focalDistance
	if inFocus {
		c = core.NewVec3(0.5+0.5*gray, 0.25*gray, 0.25*gray)
	}

	return toRGBA(c), inFocus
}

// toRGBA converts a Vec3 color in [0,1] to RGBA with clamping
func toRGBA(c core.Vec3) color.RGBA {
	c = c.Clamp(0.0, 1.0)
	return color.RGBA{
		R: uint8(255 * c.X),
		G: uint8(255 * c.Y),
		B: uint8(255 * c.Z),
		A: 255,
	}
}
