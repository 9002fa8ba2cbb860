// Package mask turns freehand brush strokes drawn over a displayed image into
// a PNG edit mask at the image's native resolution.
//
// The mask starts fully opaque. Every finished stroke cuts a transparent
// band into it; transparent pixels mark the region the image provider may
// edit, opaque pixels are preserved. A translucent overlay bitmap of the same
// size records the strokes for on-screen feedback.
package mask

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"gioui.org/f32"
)

const (
	MinBrushRadius     = 5
	MaxBrushRadius     = 100
	DefaultBrushRadius = 50

	// coverageThreshold is the stroke coverage at which a mask pixel is cut out.
	coverageThreshold = 0x80
)

var (
	ErrNoImage        = errors.New("mask: no image loaded")
	ErrInactive       = errors.New("mask: brush is not active")
	ErrNothingToClear = errors.New("mask: nothing to clear")
	ErrInvalidSize    = errors.New("mask: invalid bitmap size")
)

// OverlayColor tints painted regions on the visible overlay.
var OverlayColor = color.NRGBA{R: 0, G: 200, B: 255, A: 102}

// Geometry reports the on-screen size of the element displaying the image.
// It is consulted on every coordinate mapping so viewport changes never
// distort strokes.
type Geometry interface {
	DisplaySize() f32.Point
}

// FixedGeometry is a Geometry with a constant display size.
type FixedGeometry f32.Point

func (g FixedGeometry) DisplaySize() f32.Point { return f32.Point(g) }

type state int

const (
	idle state = iota
	stroking
)

// Painter owns the mask and overlay bitmaps of one image. It is not safe for
// concurrent use.
type Painter struct {
	geom   Geometry
	radius int
	active bool
	state  state
	last   f32.Point

	mask    *image.NRGBA
	overlay *image.NRGBA
	stroke  *image.Alpha
	dirty   image.Rectangle

	painted  bool
	snapshot []byte
}

// NewPainter returns a painter with the default brush radius. geom may be nil,
// in which case display space equals bitmap space.
func NewPainter(geom Geometry) *Painter {
	return &Painter{geom: geom, radius: DefaultBrushRadius}
}

// SetGeometry swaps the display geometry without touching painted content.
func (p *Painter) SetGeometry(geom Geometry) {
	p.geom = geom
}

// Resize allocates fresh bitmaps at the image's native resolution. The mask is
// filled opaque and all prior strokes are discarded.
func (p *Painter) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r := image.Rect(0, 0, width, height)
	p.mask = image.NewNRGBA(r)
	p.overlay = image.NewNRGBA(r)
	p.stroke = image.NewAlpha(r)
	p.fillOpaque()
	p.state = idle
	p.dirty = image.Rectangle{}
	p.painted = false
	p.snapshot = nil
	return nil
}

// Loaded reports whether Resize has been called.
func (p *Painter) Loaded() bool { return p.mask != nil }

// Bounds returns the bitmap bounds, empty when no image is loaded.
func (p *Painter) Bounds() image.Rectangle {
	if p.mask == nil {
		return image.Rectangle{}
	}
	return p.mask.Bounds()
}

func (p *Painter) SetActive(active bool) {
	p.active = active
	if !active {
		p.cancelStroke()
	}
}

func (p *Painter) Active() bool { return p.active }

// SetBrushRadius clamps r to [MinBrushRadius, MaxBrushRadius] and returns the
// radius in effect.
func (p *Painter) SetBrushRadius(r int) int {
	p.radius = min(max(r, MinBrushRadius), MaxBrushRadius)
	return p.radius
}

func (p *Painter) BrushRadius() int { return p.radius }

// PreviewDiameter is the on-screen diameter of the brush cursor for an image
// displayed displayWidth units wide. It matches the painted band width.
func (p *Painter) PreviewDiameter(displayWidth float32) float32 {
	b := p.Bounds()
	if b.Dx() == 0 {
		return float32(2 * p.radius)
	}
	return float32(2*p.radius) * displayWidth / float32(b.Dx())
}

// MapPoint projects a point relative to the display element's top-left corner
// into bitmap pixel space. Each axis is scaled independently.
func (p *Painter) MapPoint(pt f32.Point) f32.Point {
	b := p.Bounds()
	if p.geom == nil || b.Empty() {
		return pt
	}
	disp := p.geom.DisplaySize()
	sx, sy := float32(1), float32(1)
	if disp.X > 0 {
		sx = float32(b.Dx()) / disp.X
	}
	if disp.Y > 0 {
		sy = float32(b.Dy()) / disp.Y
	}
	return f32.Point{X: pt.X * sx, Y: pt.Y * sy}
}

// BeginStroke starts a stroke at a display-space point and paints a dot there.
func (p *Painter) BeginStroke(pt f32.Point) error {
	if p.mask == nil {
		return ErrNoImage
	}
	if !p.active {
		return ErrInactive
	}
	p.cancelStroke()
	p.state = stroking
	p.last = p.MapPoint(pt)
	p.stamp(p.last, p.last)
	return nil
}

// ExtendStroke appends a segment from the previous point. It is a no-op when
// no stroke is in progress.
func (p *Painter) ExtendStroke(pt f32.Point) {
	if p.state != stroking {
		return
	}
	next := p.MapPoint(pt)
	p.stamp(p.last, next)
	p.last = next
}

// EndStroke cuts the finished stroke out of the mask, tints it on the overlay
// and refreshes the PNG snapshot. It is a no-op when no stroke is in progress.
func (p *Painter) EndStroke() error {
	if p.state != stroking {
		return nil
	}
	p.state = idle
	r := p.dirty
	p.dirty = image.Rectangle{}
	if r.Empty() {
		return nil
	}
	draw.DrawMask(p.overlay, r, image.NewUniform(OverlayColor), image.Point{}, p.stroke, r.Min, draw.Over)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			off := p.stroke.PixOffset(x, y)
			a := p.stroke.Pix[off]
			if a == 0 {
				continue
			}
			if a >= coverageThreshold {
				p.mask.SetNRGBA(x, y, color.NRGBA{})
			}
			p.stroke.Pix[off] = 0
		}
	}
	p.painted = true
	data, err := p.EncodePNG()
	if err != nil {
		return err
	}
	p.snapshot = data
	return nil
}

// Clear restores the mask to fully opaque. It reports ErrNothingToClear when
// nothing was painted since the last resize or clear; the bitmaps are reset
// either way.
func (p *Painter) Clear() error {
	if p.mask == nil {
		return ErrNoImage
	}
	p.cancelStroke()
	wasPainted := p.painted
	p.fillOpaque()
	draw.Draw(p.overlay, p.overlay.Bounds(), image.Transparent, image.Point{}, draw.Src)
	p.painted = false
	p.snapshot = nil
	if !wasPainted {
		return ErrNothingToClear
	}
	return nil
}

// Painted reports whether at least one stroke has been applied.
func (p *Painter) Painted() bool { return p.painted }

// Snapshot returns the PNG encoding produced by the last finished stroke, or
// nil when nothing is painted.
func (p *Painter) Snapshot() []byte { return p.snapshot }

// Mask returns the live mask bitmap.
func (p *Painter) Mask() *image.NRGBA { return p.mask }

// Overlay returns the live overlay bitmap.
func (p *Painter) Overlay() *image.NRGBA { return p.overlay }

// EncodePNG encodes the current mask.
func (p *Painter) EncodePNG() ([]byte, error) {
	if p.mask == nil {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.mask); err != nil {
		return nil, fmt.Errorf("mask: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Painter) stamp(from, to f32.Point) {
	touched := stampSegment(p.stroke, from, to, float32(p.radius))
	p.dirty = p.dirty.Union(touched)
}

func (p *Painter) cancelStroke() {
	if p.stroke != nil && !p.dirty.Empty() {
		draw.Draw(p.stroke, p.dirty, image.Transparent, image.Point{}, draw.Src)
	}
	p.dirty = image.Rectangle{}
	p.state = idle
}

func (p *Painter) fillOpaque() {
	draw.Draw(p.mask, p.mask.Bounds(), image.White, image.Point{}, draw.Src)
}
