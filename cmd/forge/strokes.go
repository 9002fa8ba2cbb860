package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"gioui.org/f32"

	"visionforge/internal/mask"
	"visionforge/internal/session"
)

// point is one pointer position relative to the displayed image's top-left
// corner.
type point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// loadStrokes reads a JSON array of strokes, each an array of points.
func loadStrokes(path string) ([][]point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var strokes [][]point
	if err := json.Unmarshal(data, &strokes); err != nil {
		return nil, fmt.Errorf("parse strokes %s: %w", path, err)
	}
	return strokes, nil
}

// parseDisplay parses "WxH". An empty value means strokes are in image pixels.
func parseDisplay(raw string) (mask.Geometry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(raw), "x")
	if !ok {
		return nil, fmt.Errorf("invalid -display %q, want WxH", raw)
	}
	width, err := strconv.ParseFloat(w, 32)
	if err != nil || width <= 0 {
		return nil, fmt.Errorf("invalid -display width %q", w)
	}
	height, err := strconv.ParseFloat(h, 32)
	if err != nil || height <= 0 {
		return nil, fmt.Errorf("invalid -display height %q", h)
	}
	return mask.FixedGeometry{X: float32(width), Y: float32(height)}, nil
}

// paint replays strokes through the session's painter the way pointer events
// would arrive from the page.
func paint(s *session.Session, strokes [][]point, geom mask.Geometry, radius int) error {
	p := s.Painter()
	p.SetGeometry(geom)
	p.SetBrushRadius(radius)
	if !p.Active() {
		if _, err := s.ToggleBrush(); err != nil {
			return err
		}
	}
	for i, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		if err := p.BeginStroke(f32.Point(stroke[0])); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
		for _, pt := range stroke[1:] {
			p.ExtendStroke(f32.Point(pt))
		}
		if err := p.EndStroke(); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return nil
}

// brushSummary describes the brush in image pixels and, with a display
// geometry, the diameter of the on-screen cursor that matches it.
func brushSummary(p *mask.Painter, geom mask.Geometry) string {
	r := p.BrushRadius()
	if geom == nil {
		return fmt.Sprintf("brush radius %d px", r)
	}
	return fmt.Sprintf("brush radius %d px, %.1f px wide on a %.0f px wide display",
		r, p.PreviewDiameter(geom.DisplaySize().X), geom.DisplaySize().X)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
