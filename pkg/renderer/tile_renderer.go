package renderer

import (
	"image"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/core"
)

// TileRenderer traces the primary rays of individual tiles. It only reads
// the camera, so one renderer may serve many workers.
type TileRenderer struct {
	camera  *camera.Camera
	world   core.Intersector
	samples int
}

// NewTileRenderer creates a tile renderer taking samples rays per pixel
func NewTileRenderer(cam *camera.Camera, world core.Intersector, samples int) *TileRenderer {
	return &TileRenderer{
		camera:  cam,
		world:   world,
		samples: max(1, samples),
	}
}

// RenderTileBounds traces every pixel within bounds into pixelStats, which is
// indexed in image coordinates. Tiles never overlap, so workers may share
// pixelStats.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler) RenderStats {
	stats := RenderStats{TotalPixels: bounds.Dx() * bounds.Dy()}

	position := tr.camera.Position()
	view := tr.camera.ViewDirection()

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			ps := &pixelStats[j][i]
			for s := 0; s < tr.samples; s++ {
				ray := tr.camera.GenerateRay(sampler, i, j)
				if tr.world == nil {
					ps.AddSample(0, false)
					continue
				}
				hit, ok := tr.world.Intersect(ray)
				if !ok {
					ps.AddSample(0, false)
					continue
				}
				// Depth along the view axis, comparable to the focal distance
				ps.AddSample(hit.Point.Subtract(position).Dot(view), true)
				stats.Hits++
			}
			stats.TotalSamples += tr.samples
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}
