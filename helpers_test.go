package tilecache

import (
	"testing"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
	"github.com/gogpu/tilecache/texcache"
)

// harness drives a TileCache over a 256x256 screen with a single scroll
// frame, in testing mode unless overridden.
type harness struct {
	t testing.TB

	tree   *spatial.Tree
	scroll spatial.NodeID
	clips  *scene.ClipStore
	props  *scene.Properties
	res    *texcache.Cache

	fc FrameContext
	fs FrameState

	tc      *TileCache
	picRect rect.Rect
	surface SurfaceIndex

	// dirtyImages are marked in the texture cache at the start of the next
	// frame.
	dirtyImages []scene.ImageKey
}

func newHarness(t testing.TB, opts ...Option) *harness {
	t.Helper()

	tree := spatial.NewTree()
	h := &harness{
		t:       t,
		tree:    tree,
		scroll:  tree.AddScrollFrame(spatial.RootNode, vec.Vec2{}),
		clips:   scene.NewClipStore(),
		props:   scene.NewProperties(),
		res:     texcache.New(0),
		picRect: geom.Rect(0, 0, 256, 1024),
		surface: RootSurface,
	}
	h.fc = FrameContext{
		ScreenWorldRect:  geom.Rect(0, 0, 256, 256),
		DevicePixelScale: 1,
		Spatial:          h.tree,
		Clips:            h.clips,
		Properties:       h.props,
	}
	h.fs = FrameState{Resources: h.res}
	h.tc = h.newCache(ReferenceAnchorSet{}, opts...)
	return h
}

func (h *harness) newCache(anchors ReferenceAnchorSet, opts ...Option) *TileCache {
	h.t.Helper()
	opts = append([]Option{WithTestingMode(true), WithIDSource(NewIDCounter())}, opts...)
	tc, err := New(h.scroll, scene.NoClipChain, anchors, opts...)
	if err != nil {
		h.t.Fatalf("New() error = %v", err)
	}
	return tc
}

// frame runs one full frame over prims and returns the local clip rect.
func (h *harness) frame(prims []scene.Primitive) rect.Rect {
	h.res.BeginFrame()
	for _, key := range h.dirtyImages {
		h.res.MarkImageDirty(key)
	}
	h.dirtyImages = nil

	h.tc.PreUpdate(h.picRect, &h.fc, &h.fs, h.surface)
	for i := range prims {
		h.tc.UpdatePrimDependencies(&prims[i], nil, &h.fc)
	}
	clip := h.tc.PostUpdate(&h.fc, &h.fs)
	h.res.EndFrame()
	return clip
}

// lastRecorded returns the dirty region recorded for the latest frame.
func (h *harness) lastRecorded() string {
	h.t.Helper()
	rec := h.tc.RecordedDirtyRegions()
	if len(rec) == 0 {
		h.t.Fatal("no dirty region recorded")
	}
	return rec[len(rec)-1].String()
}

// rowScene returns n full-width rectangles of height 64 stacked from y=0,
// with content ids 1..n.
func rowScene(n int, node spatial.NodeID) []scene.Primitive {
	prims := make([]scene.Primitive, n)
	for i := range prims {
		prims[i] = scene.Primitive{
			ID:        scene.ContentID(i + 1),
			Kind:      scene.KindRectangle,
			LocalRect: geom.Rect(0, float64(i)*64, 256, 64),
			Spatial:   node,
			ClipChain: scene.NoClipChain,
		}
	}
	return prims
}

func rectPrim(id scene.ContentID, node spatial.NodeID, x, y, w, hgt float64) scene.Primitive {
	return scene.Primitive{
		ID:        id,
		Kind:      scene.KindRectangle,
		LocalRect: geom.Rect(x, y, w, hgt),
		Spatial:   node,
		ClipChain: scene.NoClipChain,
	}
}

// gridTiles builds cols*rows tiles of size w*h whose visible rect is the
// whole tile.
func gridTiles(cols, rows int, w, h float64) []*Tile {
	tiles := make([]*Tile, 0, cols*rows)
	for y := range rows {
		for x := range cols {
			t := newTile(TileID(len(tiles) + 1))
			t.WorldRect = geom.Rect(float64(x)*w, float64(y)*h, w, h)
			t.VisibleRect = t.WorldRect
			tiles = append(tiles, t)
		}
	}
	return tiles
}
