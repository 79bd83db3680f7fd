package geom

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// singularEpsilon is the determinant below which a matrix has no inverse.
const singularEpsilon = 1e-10

// Invert returns the inverse of m. The boolean is false for singular or
// non-finite matrices, where m.Inv would panic or produce infinities.
func Invert(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < singularEpsilon || math.IsNaN(det) || math.IsInf(det, 0) {
		return matrix.Matrix{}, false
	}
	return m.Inv(), true
}

// IsAxisAligned reports whether m maps axis-aligned rectangles onto
// axis-aligned rectangles (no rotation or skew).
func IsAxisAligned(m matrix.Matrix) bool {
	return (m[1] == 0 && m[2] == 0) || (m[0] == 0 && m[3] == 0)
}

// TransformRect returns the bounding box of r transformed by m. The boolean
// is false if the result is not finite.
func TransformRect(m matrix.Matrix, r rect.Rect) (rect.Rect, bool) {
	var corners [4]vec.Vec2
	for i, c := range [4][2]float64{{r.LLx, r.LLy}, {r.URx, r.LLy}, {r.LLx, r.URy}, {r.URx, r.URy}} {
		corners[i].X, corners[i].Y = m.Apply(c[0], c[1])
	}

	out := rect.Rect{LLx: corners[0].X, LLy: corners[0].Y, URx: corners[0].X, URy: corners[0].Y}
	for _, c := range corners[1:] {
		out.LLx = math.Min(out.LLx, c.X)
		out.LLy = math.Min(out.LLy, c.Y)
		out.URx = math.Max(out.URx, c.X)
		out.URy = math.Max(out.URy, c.Y)
	}

	for _, v := range [4]float64{out.LLx, out.LLy, out.URx, out.URy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rect.Rect{}, false
		}
	}
	return out, true
}

// IsScaleTranslate reports whether m only scales and translates.
func IsScaleTranslate(m matrix.Matrix) bool {
	return m[1] == 0 && m[2] == 0
}
