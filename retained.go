package tilecache

import (
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/scene"
)

// RetainedTiles carries tiles and anchor positions from a discarded scene to
// the next one.
type RetainedTiles struct {
	Tiles []*Tile

	// Anchors holds the world positions of the old scene's reference
	// anchors.
	Anchors map[scene.ContentID]vec.Vec2
}

// IsEmpty reports whether the store holds neither tiles nor anchors.
func (r *RetainedTiles) IsEmpty() bool {
	return len(r.Tiles) == 0 && len(r.Anchors) == 0
}

// Merge moves the contents of other into r and leaves other empty. Stores of
// sibling caches are merged this way, so at most one of them may hold
// anything. Merging two non-empty stores panics.
func (r *RetainedTiles) Merge(other *RetainedTiles) {
	if other.IsEmpty() {
		return
	}
	if !r.IsEmpty() {
		panic("tilecache: merging two non-empty retained tile stores")
	}
	r.Tiles, other.Tiles = other.Tiles, nil
	r.Anchors, other.Anchors = other.Anchors, nil
}

// take empties r and returns what it held.
func (r *RetainedTiles) take() ([]*Tile, map[scene.ContentID]vec.Vec2) {
	tiles, anchors := r.Tiles, r.Anchors
	r.Tiles, r.Anchors = nil, nil
	return tiles, anchors
}

// correlateAnchors estimates how far content moved between two scenes. Each
// anchor present in both maps votes for its rounded displacement. The
// winning displacement is accepted when it has at least a quarter of the
// votes the smaller map could cast. Ties go to the smallest offset, ordered
// by x then y.
func correlateAnchors(old, cur map[scene.ContentID]vec.Vec2) (vec.Vec2, bool) {
	votes := make(map[vec.Vec2]int)
	for id, p := range cur {
		q, ok := old[id]
		if !ok {
			continue
		}
		votes[geom.RoundVec(p.Sub(q))]++
	}

	var (
		best  vec.Vec2
		count int
	)
	for off, n := range votes {
		if n > count || (n == count && lessVec(off, best)) {
			best, count = off, n
		}
	}

	if count == 0 || 4*count < min(len(old), len(cur)) {
		return vec.Vec2{}, false
	}
	return best, true
}

func lessVec(a, b vec.Vec2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
