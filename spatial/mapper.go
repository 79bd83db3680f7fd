package spatial

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
)

// Mapper maps geometry between a target node's local space and a fixed
// reference node's space. Changing the target recomputes the transform only
// when the node actually changes.
type Mapper struct {
	tree      Hierarchy
	reference NodeID
	target    NodeID

	m     matrix.Matrix // target -> reference
	mOK   bool
	inv   matrix.Matrix // reference -> target
	invOK bool
}

// NewMapper returns a mapper whose target is initially the reference node.
func NewMapper(tree Hierarchy, reference NodeID) *Mapper {
	return &Mapper{
		tree:      tree,
		reference: reference,
		target:    reference,
		m:         matrix.Identity,
		mOK:       true,
		inv:       matrix.Identity,
		invOK:     true,
	}
}

// Reference returns the node all mappings are relative to.
func (mp *Mapper) Reference() NodeID { return mp.reference }

// Target returns the current target node.
func (mp *Mapper) Target() NodeID { return mp.target }

// SetTarget changes the node whose local space Map takes as input.
func (mp *Mapper) SetTarget(target NodeID) {
	if target == mp.target {
		return
	}
	mp.target = target
	if target == mp.reference {
		mp.m, mp.mOK = matrix.Identity, true
		mp.inv, mp.invOK = matrix.Identity, true
		return
	}
	mp.m, mp.mOK = mp.tree.RelativeTransform(target, mp.reference)
	if mp.mOK {
		mp.inv, mp.invOK = geom.Invert(mp.m)
	} else {
		mp.invOK = false
	}
}

// Map returns the bounding rect of r, given in the target's space, in the
// reference space.
func (mp *Mapper) Map(r rect.Rect) (rect.Rect, bool) {
	if !mp.mOK {
		return rect.Rect{}, false
	}
	if mp.target == mp.reference {
		return r, true
	}
	return geom.TransformRect(mp.m, r)
}

// MapPoint maps a point from the target's space into the reference space.
func (mp *Mapper) MapPoint(p vec.Vec2) (vec.Vec2, bool) {
	if !mp.mOK {
		return vec.Vec2{}, false
	}
	x, y := mp.m.Apply(p.X, p.Y)
	return vec.Vec2{X: x, Y: y}, true
}

// Unmap returns the bounding rect of r, given in the reference space, in the
// target's space.
func (mp *Mapper) Unmap(r rect.Rect) (rect.Rect, bool) {
	if !mp.invOK {
		return rect.Rect{}, false
	}
	if mp.target == mp.reference {
		return r, true
	}
	return geom.TransformRect(mp.inv, r)
}
