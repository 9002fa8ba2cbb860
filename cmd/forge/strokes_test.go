package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"visionforge/internal/mask"
	"visionforge/internal/session"
)

func TestParseDisplay(t *testing.T) {
	geom, err := parseDisplay("400x300")
	if err != nil {
		t.Fatalf("parseDisplay: %v", err)
	}
	if got := geom.DisplaySize(); got.X != 400 || got.Y != 300 {
		t.Fatalf("display size = %v", got)
	}
	if geom, err := parseDisplay(""); err != nil || geom != nil {
		t.Fatalf("empty display = %v, %v", geom, err)
	}
	for _, bad := range []string{"400", "0x300", "ax300", "400x-1"} {
		if _, err := parseDisplay(bad); err == nil {
			t.Fatalf("parseDisplay(%q) succeeded", bad)
		}
	}
}

func TestLoadStrokesAndPaint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strokes.json")
	if err := os.WriteFile(path, []byte(`[[{"x":50,"y":50}],[{"x":10,"y":10},{"x":90,"y":10}],[]]`), 0o644); err != nil {
		t.Fatalf("write strokes: %v", err)
	}
	strokes, err := loadStrokes(path)
	if err != nil {
		t.Fatalf("loadStrokes: %v", err)
	}
	if len(strokes) != 3 {
		t.Fatalf("strokes = %d", len(strokes))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 200, 200))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := session.New(nil, zerolog.Nop())
	if err := s.Load("photo.png", buf.Bytes()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := paint(s, strokes, mask.FixedGeometry{X: 100, Y: 100}, 5); err != nil {
		t.Fatalf("paint: %v", err)
	}
	p := s.Painter()
	if !p.Painted() {
		t.Fatal("nothing painted")
	}
	// display (50,50) maps to bitmap (100,100).
	if a := p.Mask().NRGBAAt(100, 100).A; a != 0 {
		t.Fatalf("mask alpha at dot = %d", a)
	}
	if a := p.Mask().NRGBAAt(100, 20).A; a != 0 {
		t.Fatalf("mask alpha on band = %d", a)
	}
	if a := p.Mask().NRGBAAt(100, 60).A; a != 0xff {
		t.Fatalf("mask alpha off stroke = %d", a)
	}

	out := filepath.Join(dir, "overlay.png")
	if err := writePNG(out, p.Overlay()); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open overlay: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil || cfg.Width != 200 || cfg.Height != 200 {
		t.Fatalf("overlay config = %+v, %v", cfg, err)
	}
}

func TestBrushSummary(t *testing.T) {
	p := mask.NewPainter(nil)
	if err := p.Resize(1000, 500); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	p.SetBrushRadius(40)

	if got := brushSummary(p, nil); got != "brush radius 40 px" {
		t.Fatalf("brushSummary(nil) = %q", got)
	}
	want := "brush radius 40 px, 40.0 px wide on a 500 px wide display"
	if got := brushSummary(p, mask.FixedGeometry{X: 500, Y: 250}); got != want {
		t.Fatalf("brushSummary = %q, want %q", got, want)
	}
}
