package mask

import (
	"image"
	"image/draw"
	"math"

	"gioui.org/f32"
	"golang.org/x/image/vector"
)

// kappa places cubic control points so that four curves approximate a circle.
const kappa = 0.5522847498

// stampSegment accumulates the coverage of a round-capped segment of the given
// radius into dst and returns the rectangle it touched.
func stampSegment(dst *image.Alpha, from, to f32.Point, radius float32) image.Rectangle {
	bounds := segmentBounds(from, to, radius).Intersect(dst.Bounds())
	if bounds.Empty() {
		return image.Rectangle{}
	}
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.DrawOp = draw.Over
	off := f32.Point{X: float32(bounds.Min.X), Y: float32(bounds.Min.Y)}
	capsule(z, from.Sub(off), to.Sub(off), radius)
	z.Draw(dst, bounds, image.Opaque, image.Point{})
	return bounds
}

// capsule adds the outline of a line segment with round caps. A zero-length
// segment degenerates into a circle.
func capsule(z *vector.Rasterizer, from, to f32.Point, r float32) {
	d := to.Sub(from)
	length := float32(math.Hypot(float64(d.X), float64(d.Y)))
	u := f32.Point{X: 1}
	if length > 1e-4 {
		u = d.Mul(1 / length)
	}
	n := f32.Point{X: -u.Y, Y: u.X}
	neg := func(p f32.Point) f32.Point { return p.Mul(-1) }

	start := from.Add(n.Mul(r))
	z.MoveTo(start.X, start.Y)
	end := to.Add(n.Mul(r))
	z.LineTo(end.X, end.Y)
	quarter(z, to, n, u, r)
	quarter(z, to, u, neg(n), r)
	back := from.Add(neg(n).Mul(r))
	z.LineTo(back.X, back.Y)
	quarter(z, from, neg(n), neg(u), r)
	quarter(z, from, neg(u), n, r)
	z.ClosePath()
}

// quarter draws a quarter arc around c from c+a*r to c+b*r, where a and b are
// perpendicular unit vectors.
func quarter(z *vector.Rasterizer, c, a, b f32.Point, r float32) {
	c1 := c.Add(a.Add(b.Mul(kappa)).Mul(r))
	c2 := c.Add(b.Add(a.Mul(kappa)).Mul(r))
	end := c.Add(b.Mul(r))
	z.CubeTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
}

func segmentBounds(from, to f32.Point, r float32) image.Rectangle {
	minX := math.Floor(float64(min(from.X, to.X) - r))
	minY := math.Floor(float64(min(from.Y, to.Y) - r))
	maxX := math.Ceil(float64(max(from.X, to.X) + r))
	maxY := math.Ceil(float64(max(from.Y, to.Y) + r))
	return image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
}
