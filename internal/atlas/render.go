package atlas

import (
	"image"
	"image/color"
	"image/draw"

	"lipsync/internal/mouth"
)

// RendererVersion changes whenever mouth geometry or rasterization changes,
// invalidating materialized atlases.
const RendererVersion = 1

// RenderMouth draws symbol's mouth onto a copy of base. base is not modified
// and the same inputs always yield identical pixels.
func RenderMouth(base image.Image, symbol mouth.Symbol) *image.RGBA {
	b := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)

	shape := Geometry(symbol, out.Bounds())
	switch shape.Kind {
	case ShapeEllipse:
		fillEllipse(out, shape.X0, shape.Y0, shape.X1, shape.Y1, color.Black)
	case ShapeRect:
		fillRect(out, shape.X0, shape.Y0, shape.X1, shape.Y1, color.Black)
	case ShapeLine:
		strokeHorizontal(out, shape.X0, shape.X1, shape.Y0, shape.Stroke, color.Black)
	}
	return out
}

// Render builds an in-memory atlas for every symbol in the alphabet.
func Render(face BaseFace) *Atlas {
	a := newAtlas(face.Tier, face.Image.Bounds(), Fingerprint(face.Image))
	for _, sym := range mouth.All() {
		a.images[sym] = RenderMouth(face.Image, sym)
	}
	return a
}
