package tilecache

import (
	"fmt"
	"image"
	"strings"

	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/tilecache/internal/bitgrid"
	"github.com/gogpu/tilecache/internal/geom"
)

// DirtyRegionRect is one rectangle of a DirtyRegion.
type DirtyRegionRect struct {
	WorldRect rect.Rect
}

// DirtyRegion is the area of a cached surface that must be redrawn this
// frame. Combined is always the union of Rects.
type DirtyRegion struct {
	Rects    []DirtyRegionRect
	Combined rect.Rect
}

// Push adds r to the region.
func (d *DirtyRegion) Push(r rect.Rect) {
	d.Rects = append(d.Rects, DirtyRegionRect{WorldRect: r})
	d.Combined = geom.Union(d.Combined, r)
}

// Clear empties the region.
func (d *DirtyRegion) Clear() {
	d.Rects = d.Rects[:0]
	d.Combined = rect.Rect{}
}

// IsEmpty reports whether the region holds no rectangles.
func (d *DirtyRegion) IsEmpty() bool {
	return len(d.Rects) == 0
}

// Collapse replaces the rectangles with their combined bounds.
func (d *DirtyRegion) Collapse() {
	if len(d.Rects) <= 1 {
		return
	}
	d.Rects = append(d.Rects[:0], DirtyRegionRect{WorldRect: d.Combined})
}

// Inflate returns a copy of the region with every rectangle grown by amount
// on each side.
func (d *DirtyRegion) Inflate(amount float64) DirtyRegion {
	out := DirtyRegion{Rects: make([]DirtyRegionRect, 0, len(d.Rects))}
	for _, r := range d.Rects {
		out.Push(geom.Inflate(r.WorldRect, amount, amount))
	}
	return out
}

// Record converts the region to device pixels.
func (d *DirtyRegion) Record(devicePixelScale float64) RecordedDirtyRegion {
	out := RecordedDirtyRegion{Rects: make([]image.Rectangle, 0, len(d.Rects))}
	for _, r := range d.Rects {
		out.Rects = append(out.Rects, deviceRect(r.WorldRect, devicePixelScale))
	}
	return out
}

// RecordedDirtyRegion is a dirty region snapshot in device pixels.
type RecordedDirtyRegion struct {
	Rects []image.Rectangle
}

// String returns a stable textual form, suitable for comparing against
// expectations in tests.
func (r RecordedDirtyRegion) String() string {
	if len(r.Rects) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, rc := range r.Rects {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%d,%d)-(%d,%d)", rc.Min.X, rc.Min.Y, rc.Max.X, rc.Max.Y)
	}
	b.WriteByte(']')
	return b.String()
}

// deviceRect scales r to device pixels and rounds it to whole pixels.
func deviceRect(r rect.Rect, scale float64) image.Rectangle {
	s := rectKey(geom.Scale(r, scale))
	return image.Rect(int(s.X0), int(s.Y0), int(s.X1), int(s.Y1))
}

// dirtyRegionBuilder merges the tiles flagged in considered into
// non-overlapping rectangles. tiles is row-major with the grid's
// dimensions.
type dirtyRegionBuilder struct {
	tiles      []*Tile
	considered *bitgrid.Grid
}

func (b *dirtyRegionBuilder) isDirty(x, y int) bool {
	// IsSet is false past the right and bottom edges, which ends every scan.
	return b.considered.IsSet(x, y)
}

func (b *dirtyRegionBuilder) columnIsDirty(x, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		if !b.isDirty(x, y) {
			return false
		}
	}
	return true
}

// build scans columns left to right and each column top to bottom. A dirty
// cell starts a run that grows down, then right while whole columns of the
// run are dirty. The consumed block becomes one rectangle.
func (b *dirtyRegionBuilder) build(out *DirtyRegion) {
	if b.considered.IsEmpty() {
		return
	}
	cols, rows := b.considered.Width(), b.considered.Height()
	for x0 := 0; x0 < cols; x0++ {
		for y0 := 0; y0 < rows; y0++ {
			if !b.isDirty(x0, y0) {
				continue
			}
			y1 := y0
			for b.isDirty(x0, y1) {
				y1++
			}
			x1 := x0
			for b.columnIsDirty(x1, y0, y1) {
				x1++
			}
			b.addDirtyRegion(x0, y0, x1, y1, out)
		}
	}
}

func (b *dirtyRegionBuilder) addDirtyRegion(x0, y0, x1, y1 int, out *DirtyRegion) {
	var r rect.Rect
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			b.considered.Unset(x, y)
			r = geom.Union(r, b.tiles[y*b.considered.Width()+x].VisibleRect)
		}
	}
	out.Push(r)
}
