package renderer

import "time"

// RenderStats contains statistics about a rendered frame or tile
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of primary rays traced
	Hits           int           // Rays that hit something
	InFocusPixels  int           // Pixels whose mean depth lies on the focal plane
	FocalDistance  float64       // Camera focal distance at render time
	AverageSamples float64       // Average samples per pixel
	Duration       time.Duration // Wall time for the frame
}

// Add merges tile statistics into s
func (s *RenderStats) Add(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
	s.Hits += other.Hits
	s.InFocusPixels += other.InFocusPixels
}

// HitRatio returns the fraction of rays that hit something
func (s RenderStats) HitRatio() float64 {
	if s.TotalSamples == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalSamples)
}

// PixelStats accumulates the depth samples of a single pixel
type PixelStats struct {
	DepthAccum  float64 // Sum of depths along the view axis, hits only
	Hits        int     // Samples that hit something
	SampleCount int     // Number of samples taken
}

// AddSample records one primary ray. Depth is ignored for misses.
func (ps *PixelStats) AddSample(depth float64, hit bool) {
	ps.SampleCount++
	if hit {
		ps.Hits++
		ps.DepthAccum += depth
	}
}

// MeanDepth returns the average depth over the samples that hit, and false
// when none did
func (ps *PixelStats) MeanDepth() (float64, bool) {
	if ps.Hits == 0 {
		return 0, false
	}
	return ps.DepthAccum / float64(ps.Hits), true
}

// Coverage returns the fraction of samples that hit
func (ps *PixelStats) Coverage() float64 {
	if ps.SampleCount == 0 {
		return 0
	}
	return float64(ps.Hits) / float64(ps.SampleCount)
}
