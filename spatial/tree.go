// Package spatial provides the transform hierarchy consumed by the tile
// cache.
//
// Nodes form a tree rooted at RootNode. Each node carries a 2D affine
// transform into its parent's space and an optional scroll position. The
// cache only talks to the hierarchy through the Hierarchy interface and the
// Mapper helper, so hosts with their own scene graph can plug it in directly.
package spatial

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
)

// NodeID identifies a node in the transform hierarchy. Parents always have
// smaller ids than their children.
type NodeID uint32

// RootNode is the root of every hierarchy. Its space is world space.
const RootNode NodeID = 0

// CoordinateSystemID groups nodes whose transforms relative to each other
// are only scales and translations. Rectangles stay axis-aligned when mapped
// between nodes of the same coordinate system.
type CoordinateSystemID uint32

// RootCoordinateSystem is the coordinate system of the root node.
const RootCoordinateSystem CoordinateSystemID = 0

// Hierarchy is the capability the tile cache needs from a transform tree.
type Hierarchy interface {
	// RelativeTransform returns the matrix that maps points in from's space
	// into to's space. The boolean is false if no such mapping exists.
	RelativeTransform(from, to NodeID) (matrix.Matrix, bool)

	// IsSameOrAncestor reports whether ancestor is node or one of its
	// ancestors.
	IsSameOrAncestor(ancestor, node NodeID) bool

	// CoordinateSystem returns the coordinate system node belongs to.
	CoordinateSystem(node NodeID) CoordinateSystemID
}

type node struct {
	parent NodeID
	local  matrix.Matrix // node space -> parent space, before scrolling
	scroll vec.Vec2      // scroll position, content moves by -scroll
}

// Tree is an in-memory Hierarchy.
//
// Tree is not safe for concurrent use.
type Tree struct {
	nodes []node
}

// NewTree returns a tree that holds only the root node.
func NewTree() *Tree {
	return &Tree{nodes: []node{{parent: RootNode, local: matrix.Identity}}}
}

// AddReferenceFrame adds a node positioned by m relative to parent.
func (t *Tree) AddReferenceFrame(parent NodeID, m matrix.Matrix) NodeID {
	t.check(parent)
	t.nodes = append(t.nodes, node{parent: parent, local: m})
	return NodeID(len(t.nodes) - 1)
}

// AddScrollFrame adds a scrollable node at origin inside parent.
func (t *Tree) AddScrollFrame(parent NodeID, origin vec.Vec2) NodeID {
	return t.AddReferenceFrame(parent, matrix.Translate(origin.X, origin.Y))
}

// SetTransform replaces the local transform of id.
func (t *Tree) SetTransform(id NodeID, m matrix.Matrix) {
	t.check(id)
	t.nodes[id].local = m
}

// SetScrollPosition scrolls id so that content at pos appears at the node's
// origin.
func (t *Tree) SetScrollPosition(id NodeID, pos vec.Vec2) {
	t.check(id)
	t.nodes[id].scroll = pos
}

// ScrollPosition returns the current scroll position of id.
func (t *Tree) ScrollPosition(id NodeID) vec.Vec2 {
	t.check(id)
	return t.nodes[id].scroll
}

// Parent returns the parent of id. The root is its own parent.
func (t *Tree) Parent(id NodeID) NodeID {
	t.check(id)
	return t.nodes[id].parent
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// toParent returns the full node-to-parent transform including scrolling.
func (t *Tree) toParent(id NodeID) matrix.Matrix {
	n := &t.nodes[id]
	return matrix.Translate(-n.scroll.X, -n.scroll.Y).Mul(n.local)
}

// toWorld returns the transform from id's space into world space.
func (t *Tree) toWorld(id NodeID) matrix.Matrix {
	m := matrix.Identity
	for id != RootNode {
		m = m.Mul(t.toParent(id))
		id = t.nodes[id].parent
	}
	return m
}

// RelativeTransform implements Hierarchy.
func (t *Tree) RelativeTransform(from, to NodeID) (matrix.Matrix, bool) {
	t.check(from)
	t.check(to)
	if from == to {
		return matrix.Identity, true
	}
	inv, ok := geom.Invert(t.toWorld(to))
	if !ok {
		return matrix.Matrix{}, false
	}
	return t.toWorld(from).Mul(inv), true
}

// IsSameOrAncestor implements Hierarchy.
func (t *Tree) IsSameOrAncestor(ancestor, id NodeID) bool {
	t.check(ancestor)
	t.check(id)
	for {
		if id == ancestor {
			return true
		}
		if id == RootNode {
			return false
		}
		id = t.nodes[id].parent
	}
}

// CoordinateSystem implements Hierarchy. A node opens a new coordinate
// system when its local transform rotates or skews.
func (t *Tree) CoordinateSystem(id NodeID) CoordinateSystemID {
	t.check(id)
	for id != RootNode {
		if !geom.IsScaleTranslate(t.nodes[id].local) {
			return CoordinateSystemID(id)
		}
		id = t.nodes[id].parent
	}
	return RootCoordinateSystem
}

func (t *Tree) check(id NodeID) {
	if int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("spatial: node %d out of range (%d nodes)", id, len(t.nodes)))
	}
}
