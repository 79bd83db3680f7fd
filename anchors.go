package tilecache

import (
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
)

// ReferenceAnchor is a primitive whose content id is unique within the
// scanned part of a scene. Its world position in two scenes tells how far
// content moved between them.
type ReferenceAnchor struct {
	ID            scene.ContentID
	LocalPosition vec.Vec2
	Spatial       spatial.NodeID
	Count         int
}

// ReferenceAnchorSet is the list of anchors of one scene, in the order the
// primitives were first seen.
type ReferenceAnchorSet struct {
	Anchors []ReferenceAnchor
}

// CollectReferenceAnchors scans at most limit primitives depth first,
// descending into picture children, and keeps the ones whose content id
// occurs exactly once among the scanned primitives.
func CollectReferenceAnchors(prims []scene.Primitive, limit int) ReferenceAnchorSet {
	var (
		order  []ReferenceAnchor
		counts = make(map[scene.ContentID]int)
		seen   int
	)

	var walk func([]scene.Primitive) bool
	walk = func(ps []scene.Primitive) bool {
		for i := range ps {
			if seen >= limit {
				return false
			}
			p := &ps[i]
			seen++
			if counts[p.ID] == 0 {
				order = append(order, ReferenceAnchor{
					ID:            p.ID,
					LocalPosition: geom.Origin(p.LocalRect),
					Spatial:       p.Spatial,
				})
			}
			counts[p.ID]++
			if p.Kind == scene.KindPicture && !walk(p.Children) {
				return false
			}
		}
		return true
	}
	walk(prims)

	set := ReferenceAnchorSet{}
	for _, a := range order {
		if counts[a.ID] == 1 {
			a.Count = 1
			set.Anchors = append(set.Anchors, a)
		}
	}
	return set
}

// Len returns the number of anchors.
func (s *ReferenceAnchorSet) Len() int { return len(s.Anchors) }

// WorldPositions maps every anchor into world space. Anchors whose spatial
// node cannot reach the root are left out.
func (s *ReferenceAnchorSet) WorldPositions(tree spatial.Hierarchy) map[scene.ContentID]vec.Vec2 {
	out := make(map[scene.ContentID]vec.Vec2, len(s.Anchors))
	for _, a := range s.Anchors {
		m, ok := tree.RelativeTransform(a.Spatial, spatial.RootNode)
		if !ok {
			continue
		}
		x, y := m.Apply(a.LocalPosition.X, a.LocalPosition.Y)
		out[a.ID] = vec.Vec2{X: x, Y: y}
	}
	return out
}
