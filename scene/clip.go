package scene

import (
	"fmt"
	"iter"

	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/spatial"
)

// ClipChainID indexes a node in a ClipStore.
type ClipChainID uint32

// NoClipChain terminates every chain.
const NoClipChain ClipChainID = ^ClipChainID(0)

// ClipKind is the shape of a clip node.
type ClipKind uint8

// Clip shapes.
const (
	ClipRectangle ClipKind = iota
	ClipRoundedRectangle
	ClipImage
	ClipBoxShadow
)

// ClipMode selects whether content inside or outside the shape survives.
type ClipMode uint8

// Clip modes.
const (
	ClipModeClip ClipMode = iota
	ClipModeClipOut
)

// ClipNode is one clip item.
type ClipNode struct {
	ID   ContentID
	Kind ClipKind
	Mode ClipMode

	// Origin and Size give the clip rectangle in the space of Spatial.
	Origin vec.Vec2
	Size   vec.Vec2

	Spatial spatial.NodeID
}

// IsSimpleRect reports whether the node is a plain rectangular clip-in.
func (n *ClipNode) IsSimpleRect() bool {
	return n.Kind == ClipRectangle && n.Mode == ClipModeClip
}

type chainNode struct {
	node   ClipNode
	parent ClipChainID
}

// ClipStore owns clip chain nodes. A chain is a node plus its ancestors.
type ClipStore struct {
	nodes []chainNode
}

// NewClipStore returns an empty store.
func NewClipStore() *ClipStore {
	return &ClipStore{}
}

// Add appends n as a child of parent and returns the new chain id.
func (s *ClipStore) Add(parent ClipChainID, n ClipNode) ClipChainID {
	if parent != NoClipChain {
		s.check(parent)
	}
	s.nodes = append(s.nodes, chainNode{node: n, parent: parent})
	return ClipChainID(len(s.nodes) - 1)
}

// Len returns the number of nodes in the store.
func (s *ClipStore) Len() int { return len(s.nodes) }

// Chain iterates the chain starting at id, innermost node first.
// An id that is not in the store is a programming error and panics.
func (s *ClipStore) Chain(id ClipChainID) iter.Seq2[ClipChainID, ClipNode] {
	return func(yield func(ClipChainID, ClipNode) bool) {
		for id != NoClipChain {
			s.check(id)
			cn := &s.nodes[id]
			if !yield(id, cn.node) {
				return
			}
			id = cn.parent
		}
	}
}

func (s *ClipStore) check(id ClipChainID) {
	if int(id) >= len(s.nodes) {
		panic(fmt.Sprintf("scene: clip chain %d out of range (%d nodes)", id, len(s.nodes)))
	}
}
