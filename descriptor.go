package tilecache

import (
	"math"
	"slices"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/scene"
)

// Sequence is an append-only list that remembers the list it held during
// the previous frame. Comparison between the two is positional.
type Sequence[T comparable] struct {
	prev []T
	cur  []T
}

// Reset makes the current items the previous items and starts an empty
// current list. Whatever was previous before the call is discarded.
func (s *Sequence[T]) Reset() {
	s.prev, s.cur = s.cur, s.prev[:0]
}

// Push appends v.
func (s *Sequence[T]) Push(v T) {
	s.cur = append(s.cur, v)
}

// Extend appends every element of vs.
func (s *Sequence[T]) Extend(vs []T) {
	s.cur = append(s.cur, vs...)
}

// Items returns the current items. The slice is only valid until the next
// Reset.
func (s *Sequence[T]) Items() []T { return s.cur }

// Previous returns the items of the previous frame.
func (s *Sequence[T]) Previous() []T { return s.prev }

// Len returns the number of current items.
func (s *Sequence[T]) Len() int { return len(s.cur) }

// IsUnchanged reports whether the current items equal the previous items
// element by element, in order.
func (s *Sequence[T]) IsUnchanged() bool {
	return slices.Equal(s.prev, s.cur)
}

// PointKey is a point rounded to integer coordinates.
type PointKey struct {
	X, Y int32
}

func pointKey(v vec.Vec2) PointKey {
	return PointKey{X: roundInt32(v.X), Y: roundInt32(v.Y)}
}

// RectKey is a rectangle with corners rounded to integer coordinates.
type RectKey struct {
	X0, Y0, X1, Y1 int32
}

func rectKey(r rect.Rect) RectKey {
	return RectKey{
		X0: roundInt32(r.LLx),
		Y0: roundInt32(r.LLy),
		X1: roundInt32(r.URx),
		Y1: roundInt32(r.URy),
	}
}

func roundInt32(f float64) int32 {
	f = math.Round(f)
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	case math.IsNaN(f):
		return 0
	}
	return int32(f)
}

// PrimitiveDescriptor fingerprints one primitive as seen by one tile.
type PrimitiveDescriptor struct {
	// ID is the content identity of the primitive.
	ID scene.ContentID

	// Origin is the primitive origin relative to the tile's local rect.
	Origin PointKey

	// FirstClip and ClipCount select the primitive's entries in the tile's
	// clip id sequence.
	FirstClip uint16
	ClipCount uint16

	// CullingRect is the clipped world bounds relative to the tile origin.
	CullingRect RectKey
}

// Descriptor is the content fingerprint of a tile: everything that affects
// the pixels the tile would rasterize, in traversal order.
type Descriptor struct {
	Prims           Sequence[PrimitiveDescriptor]
	ClipIDs         Sequence[scene.ContentID]
	ClipVertices    Sequence[PointKey]
	ImageKeys       Sequence[scene.ImageKey]
	OpacityBindings Sequence[scene.OpacityBinding]
	Transforms      Sequence[PointKey]
}

// Reset starts a new frame on every sequence.
func (d *Descriptor) Reset() {
	d.Prims.Reset()
	d.ClipIDs.Reset()
	d.ClipVertices.Reset()
	d.ImageKeys.Reset()
	d.OpacityBindings.Reset()
	d.Transforms.Reset()
}

// IsSameContent reports whether every sequence is unchanged since the
// previous frame.
func (d *Descriptor) IsSameContent() bool {
	return d.Prims.IsUnchanged() &&
		d.ClipIDs.IsUnchanged() &&
		d.ClipVertices.IsUnchanged() &&
		d.ImageKeys.IsUnchanged() &&
		d.OpacityBindings.IsUnchanged() &&
		d.Transforms.IsUnchanged()
}
