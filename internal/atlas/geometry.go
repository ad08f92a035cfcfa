package atlas

import (
	"image"
	"math"

	"lipsync/internal/mouth"
)

// ReferenceSize is the side of the square frame mouth geometry is defined on.
const ReferenceSize = 200.0

// ShapeKind selects how a Shape is drawn.
type ShapeKind int

const (
	ShapeEllipse ShapeKind = iota
	ShapeRect
	ShapeLine
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeEllipse:
		return "ellipse"
	case ShapeRect:
		return "rect"
	case ShapeLine:
		return "line"
	default:
		return "unknown"
	}
}

// Shape is a mouth overlay in pixel coordinates. Ellipses and rectangles fill
// the box (X0,Y0)-(X1,Y1); a line runs from (X0,Y0) to (X1,Y1) with the given
// stroke width.
type Shape struct {
	Kind   ShapeKind
	X0, Y0 float64
	X1, Y1 float64
	Stroke float64
}

type referenceShape struct {
	kind           ShapeKind
	x0, y0, x1, y1 float64
}

// Reference-frame geometry. The mouth sits at y=120 between x=85 and x=115.
var referenceShapes = map[mouth.Symbol]referenceShape{
	mouth.A:    {ShapeEllipse, 85, 120, 115, 140},
	mouth.B:    {ShapeEllipse, 90, 120, 110, 135},
	mouth.C:    {ShapeRect, 85, 120, 115, 130},
	mouth.D:    {ShapeEllipse, 85, 120, 115, 135},
	mouth.E:    {ShapeEllipse, 85, 120, 115, 130},
	mouth.F:    {ShapeRect, 90, 120, 110, 125},
	mouth.G:    {ShapeEllipse, 85, 120, 115, 132},
	mouth.H:    {ShapeEllipse, 85, 120, 115, 128},
	mouth.Rest: {ShapeLine, 85, 125, 115, 125},
}

// Geometry returns the mouth overlay for symbol scaled to bounds. Symbols
// outside the alphabet get the rest shape. The result depends only on the
// bounds size, so doubling both dimensions doubles every coordinate.
func Geometry(symbol mouth.Symbol, bounds image.Rectangle) Shape {
	ref, ok := referenceShapes[symbol]
	if !ok {
		ref = referenceShapes[mouth.Rest]
	}
	sx := float64(bounds.Dx()) / ReferenceSize
	sy := float64(bounds.Dy()) / ReferenceSize
	shape := Shape{
		Kind: ref.kind,
		X0:   ref.x0 * sx,
		Y0:   ref.y0 * sy,
		X1:   ref.x1 * sx,
		Y1:   ref.y1 * sy,
	}
	if ref.kind == ShapeLine {
		shape.Stroke = math.Max(1, 3*sx)
	}
	return shape
}
