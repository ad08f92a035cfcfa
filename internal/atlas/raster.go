package atlas

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"
)

// kappa places cubic Bézier control points for a quarter ellipse.
const kappa = 0.5522847498307936

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	b := dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

func paint(dst *image.RGBA, z *vector.Rasterizer, c color.Color) {
	z.DrawOp = draw.Over
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func fillEllipse(dst *image.RGBA, x0, y0, x1, y1 float64, c color.Color) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	cx, cy := (x0+x1)/2, (y0+y1)/2
	rx, ry := (x1-x0)/2, (y1-y0)/2
	kx, ky := rx*kappa, ry*kappa

	z := newRasterizer(dst)
	z.MoveTo(f32(cx+rx), f32(cy))
	z.CubeTo(f32(cx+rx), f32(cy+ky), f32(cx+kx), f32(cy+ry), f32(cx), f32(cy+ry))
	z.CubeTo(f32(cx-kx), f32(cy+ry), f32(cx-rx), f32(cy+ky), f32(cx-rx), f32(cy))
	z.CubeTo(f32(cx-rx), f32(cy-ky), f32(cx-kx), f32(cy-ry), f32(cx), f32(cy-ry))
	z.CubeTo(f32(cx+kx), f32(cy-ry), f32(cx+rx), f32(cy-ky), f32(cx+rx), f32(cy))
	z.ClosePath()
	paint(dst, z, c)
}

func fillRect(dst *image.RGBA, x0, y0, x1, y1 float64, c color.Color) {
	fillPolygon(dst, [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}, c)
}

func fillPolygon(dst *image.RGBA, pts [][2]float64, c color.Color) {
	if len(pts) < 3 {
		return
	}
	z := newRasterizer(dst)
	z.MoveTo(f32(pts[0][0]), f32(pts[0][1]))
	for _, p := range pts[1:] {
		z.LineTo(f32(p[0]), f32(p[1]))
	}
	z.ClosePath()
	paint(dst, z, c)
}

// strokeHorizontal draws a horizontal line of the given width centred on y.
func strokeHorizontal(dst *image.RGBA, x0, x1, y, width float64, c color.Color) {
	half := width / 2
	fillRect(dst, x0, y-half, x1, y+half, c)
}

func f32(v float64) float32 { return float32(v) }
