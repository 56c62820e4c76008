package renderer

import (
	"image"
	"testing"
)

func TestNewTileGrid(t *testing.T) {
	// Test tile grid generation for a 400x225 image with 64x64 tiles
	width, height, tileSize := 400, 225, 64
	tiles := NewTileGrid(width, height, tileSize, 42)

	expectedTilesX := (width + tileSize - 1) / tileSize   // 7 tiles
	expectedTilesY := (height + tileSize - 1) / tileSize  // 4 tiles
	expectedTotalTiles := expectedTilesX * expectedTilesY // 28 tiles

	if len(tiles) != expectedTotalTiles {
		t.Errorf("Expected %d tiles, got %d", expectedTotalTiles, len(tiles))
	}

	// Tiles must cover the image without gaps or overlaps
	covered := make([][]bool, height)
	for y := range covered {
		covered[y] = make([]bool, width)
	}

	for i, tile := range tiles {
		if tile.ID != i {
			t.Errorf("Expected tile %d to have ID %d, got %d", i, i, tile.ID)
		}
		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				if x >= width || y >= height {
					t.Errorf("Tile %d extends beyond image bounds at (%d,%d)", tile.ID, x, y)
					continue
				}
				if covered[y][x] {
					t.Errorf("Pixel (%d,%d) is covered by multiple tiles", x, y)
				}
				covered[y][x] = true
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !covered[y][x] {
				t.Errorf("Pixel (%d,%d) is not covered by any tile", x, y)
			}
		}
	}
}

func TestNewTileGrid_NoTileSize(t *testing.T) {
	tiles := NewTileGrid(30, 20, 0, 1)
	if len(tiles) != 1 {
		t.Fatalf("Expected a single tile, got %d", len(tiles))
	}
	if tiles[0].Bounds != image.Rect(0, 0, 30, 20) {
		t.Errorf("Expected full image bounds, got %v", tiles[0].Bounds)
	}
}

func TestTileDeterministicSampler(t *testing.T) {
	bounds := image.Rect(0, 0, 64, 64)
	tile1 := NewTile(42, bounds, 7)
	tile2 := NewTile(42, bounds, 7)

	val1 := tile1.Sampler.Get1D()
	val2 := tile2.Sampler.Get1D()
	if val1 != val2 {
		t.Errorf("Tiles with same ID should produce same random values: %f != %f", val1, val2)
	}

	tile3 := NewTile(43, bounds, 7)
	if val1 == tile3.Sampler.Get1D() {
		t.Error("Tiles with different IDs should produce different random values")
	}

	tile4 := NewTile(42, bounds, 8)
	if val1 == tile4.Sampler.Get1D() {
		t.Error("Tiles with different seeds should produce different random values")
	}
}
