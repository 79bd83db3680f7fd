package tilecache

import (
	"iter"

	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
	"github.com/gogpu/tilecache/texcache"
)

// ClipStore walks clip chains. *scene.ClipStore implements it.
type ClipStore interface {
	// Chain yields the nodes of chain id, innermost first.
	Chain(id scene.ClipChainID) iter.Seq2[scene.ClipChainID, scene.ClipNode]
}

// ResourceCache is the persistent texture cache holding tile backing
// stores. *texcache.Cache implements it.
type ResourceCache interface {
	IsAllocated(h texcache.Handle) bool
	Update(h *texcache.Handle, desc texcache.Descriptor)
	Request(h texcache.Handle)
	Item(h texcache.Handle) texcache.Item
	IsImageDirty(key scene.ImageKey) bool
}

// PropertySource provides the current values of animated properties.
// *scene.Properties implements it.
type PropertySource interface {
	FloatProperties() map[scene.PropertyBindingID]float32
}

// SurfaceIndex identifies the render surface a picture is drawn into.
type SurfaceIndex int

// RootSurface is the top-level output surface. Tile caching only runs on
// this surface.
const RootSurface SurfaceIndex = 0

// FrameContext is the read-only state of the frame being built.
type FrameContext struct {
	// ScreenWorldRect is the visible area in world space.
	ScreenWorldRect rect.Rect

	// DevicePixelScale converts world units to device pixels.
	DevicePixelScale float64

	Spatial    spatial.Hierarchy
	Clips      ClipStore
	Properties PropertySource
}

func (fc *FrameContext) scale() float64 {
	if fc.DevicePixelScale <= 0 {
		return 1
	}
	return fc.DevicePixelScale
}

// FrameState is the mutable state shared by everything built in a frame.
type FrameState struct {
	Resources ResourceCache

	// Retained holds tiles of the previous scene. The first cache to run
	// PreUpdate after a scene swap takes them.
	Retained *RetainedTiles
}

// ClipStack holds the clip chains of the pictures enclosing the primitive
// being visited. Every chain on the stack can clip that primitive.
type ClipStack struct {
	chains []scene.ClipChainID
}

// Push enters a picture clipped by id.
func (s *ClipStack) Push(id scene.ClipChainID) {
	s.chains = append(s.chains, id)
}

// Pop leaves the innermost picture. Popping an empty stack panics.
func (s *ClipStack) Pop() {
	if len(s.chains) == 0 {
		panic("tilecache: pop of empty clip stack")
	}
	s.chains = s.chains[:len(s.chains)-1]
}

// Len returns the number of chains on the stack.
func (s *ClipStack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chains)
}

// all yields the stacked chains outermost first, then extra.
func (s *ClipStack) all(extra scene.ClipChainID) iter.Seq[scene.ClipChainID] {
	return func(yield func(scene.ClipChainID) bool) {
		if s != nil {
			for _, id := range s.chains {
				if !yield(id) {
					return
				}
			}
		}
		yield(extra)
	}
}
