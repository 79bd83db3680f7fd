// Package geom provides the rectangle, point and affine helpers shared by the
// tile cache and the reference spatial tree.
//
// Rectangles are seehuhn.de/go/geom rect.Rect values. The cache works in a
// y-down coordinate system, so LLx/LLy hold the minimum corner and URx/URy
// the maximum corner. A rectangle with URx <= LLx or URy <= LLy is empty.
//
// Matrices use the PDF element order [a b c d e f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
package geom

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// maxCoord bounds MaxRect. It is large enough to contain any realistic
// surface while keeping arithmetic on the rect finite.
const maxCoord = 1 << 30

// Rect builds a rectangle from an origin and a size.
func Rect(x, y, w, h float64) rect.Rect {
	return rect.Rect{LLx: x, LLy: y, URx: x + w, URy: y + h}
}

// FromPoints builds the rectangle spanned by two corners.
func FromPoints(p0, p1 vec.Vec2) rect.Rect {
	return rect.Rect{
		LLx: math.Min(p0.X, p1.X),
		LLy: math.Min(p0.Y, p1.Y),
		URx: math.Max(p0.X, p1.X),
		URy: math.Max(p0.Y, p1.Y),
	}
}

// MaxRect returns a rectangle that contains every practical coordinate.
func MaxRect() rect.Rect {
	return rect.Rect{LLx: -maxCoord, LLy: -maxCoord, URx: maxCoord, URy: maxCoord}
}

// Origin returns the minimum corner of r.
func Origin(r rect.Rect) vec.Vec2 {
	return vec.Vec2{X: r.LLx, Y: r.LLy}
}

// IsEmpty reports whether r has no area. Unlike rect.Rect.IsZero it treats
// every inverted or degenerate rect as empty, which Intersect and Union
// rely on.
func IsEmpty(r rect.Rect) bool {
	return !(r.URx > r.LLx && r.URy > r.LLy)
}

// Intersect returns the overlap of a and b. The boolean is false when the
// overlap has no area, in which case the returned rect is the zero rect.
func Intersect(a, b rect.Rect) (rect.Rect, bool) {
	r := rect.Rect{
		LLx: math.Max(a.LLx, b.LLx),
		LLy: math.Max(a.LLy, b.LLy),
		URx: math.Min(a.URx, b.URx),
		URy: math.Min(a.URy, b.URy),
	}
	if IsEmpty(r) {
		return rect.Rect{}, false
	}
	return r, true
}

// Union returns the smallest rectangle containing a and b. Empty inputs are
// ignored.
func Union(a, b rect.Rect) rect.Rect {
	switch {
	case IsEmpty(a):
		return b
	case IsEmpty(b):
		return a
	}
	return rect.Rect{
		LLx: math.Min(a.LLx, b.LLx),
		LLy: math.Min(a.LLy, b.LLy),
		URx: math.Max(a.URx, b.URx),
		URy: math.Max(a.URy, b.URy),
	}
}

// Contains reports whether inner lies completely inside outer.
// An empty inner rectangle is contained in anything.
func Contains(outer, inner rect.Rect) bool {
	if IsEmpty(inner) {
		return true
	}
	return inner.LLx >= outer.LLx && inner.LLy >= outer.LLy &&
		inner.URx <= outer.URx && inner.URy <= outer.URy
}

// Translate moves r by v.
func Translate(r rect.Rect, v vec.Vec2) rect.Rect {
	return rect.Rect{LLx: r.LLx + v.X, LLy: r.LLy + v.Y, URx: r.URx + v.X, URy: r.URy + v.Y}
}

// Scale multiplies every coordinate of r by s.
func Scale(r rect.Rect, s float64) rect.Rect {
	return rect.Rect{LLx: r.LLx * s, LLy: r.LLy * s, URx: r.URx * s, URy: r.URy * s}
}

// Inflate grows r by dx on the left and right and by dy on the top and
// bottom. Empty rectangles stay empty.
func Inflate(r rect.Rect, dx, dy float64) rect.Rect {
	if IsEmpty(r) {
		return r
	}
	return rect.Rect{LLx: r.LLx - dx, LLy: r.LLy - dy, URx: r.URx + dx, URy: r.URy + dy}
}

// Round snaps both corners of r to the nearest integer.
func Round(r rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: math.Round(r.LLx),
		LLy: math.Round(r.LLy),
		URx: math.Round(r.URx),
		URy: math.Round(r.URy),
	}
}

// RoundVec snaps v to the nearest integer point.
func RoundVec(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: math.Round(v.X), Y: math.Round(v.Y)}
}

// FloorVec rounds v down to integer coordinates.
func FloorVec(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: math.Floor(v.X), Y: math.Floor(v.Y)}
}
