package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-thinlens/pkg/renderer"
)

// handleFrame renders one depth preview of the current camera as PNG.
// Query parameters: samples (1-256) and scale (1-8).
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	config := s.opts.Render

	var err error
	if config.Samples, err = parseIntParam(r.URL.Query(), "samples", max(1, config.Samples), 1, 256); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scale, err := parseIntParam(r.URL.Query(), "scale", 1, 1, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The camera must not move while its rays are traced
	s.mu.RLock()
	preview := renderer.NewPreview(s.camera, s.scene.World, config, s.logger)
	img, stats, err := preview.RenderFrame(r.Context())
	s.mu.RUnlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := renderer.EncodePNG(&buf, img, scale); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Focal-Distance", strconv.FormatFloat(stats.FocalDistance, 'f', 3, 64))
	w.Header().Set("X-Hit-Ratio", strconv.FormatFloat(stats.HitRatio(), 'f', 3, 64))
	w.Header().Set("X-Render-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	_, _ = w.Write(buf.Bytes())
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
