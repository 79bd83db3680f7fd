package tilecache

import (
	"fmt"
	"image"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/bitgrid"
	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
	"github.com/gogpu/tilecache/texcache"
)

// TileBlit copies freshly rendered frame pixels into a tile's backing store.
type TileBlit struct {
	// Target is the backing store.
	Target texcache.Item

	// SrcOffset is the top-left corner, in device pixels, of the region of
	// the rendered frame to copy.
	SrcOffset image.Point

	// DestOffset is where the region lands inside Target.
	DestOffset image.Point

	// Size is the extent of the copy in device pixels.
	Size image.Point
}

// Stats is a snapshot of the cache state after the last frame.
type Stats struct {
	Columns, Rows int

	// Tiles is the number of tiles in the grid.
	Tiles int

	// TilesToDraw is the number of tiles drawn from their backing store.
	TilesToDraw int

	DirtyRects   int
	PendingBlits int

	// TilesCreated and TilesDropped count grid changes made by the last
	// PreUpdate.
	TilesCreated int
	TilesDropped int

	// Realigned reports whether retained tiles were pulled with a
	// correlated offset, and RealignOffset is that offset.
	Realigned     bool
	RealignOffset vec.Vec2
}

type opacityBindingInfo struct {
	value   float32
	changed bool
}

// TileCache caches the rasterized content of one scrollable surface in a
// grid of tiles.
//
// Each frame the host calls PreUpdate, then UpdatePrimDependencies for every
// visible primitive in traversal order, then PostUpdate. When the scene is
// rebuilt the old cache is handed to Destroy and the resulting RetainedTiles
// are passed to the new cache through FrameState.
//
// A TileCache is not safe for concurrent use.
type TileCache struct {
	cfg config

	spatialNode spatial.NodeID
	rootClip    scene.ClipChainID
	anchors     ReferenceAnchorSet

	enabled bool

	// Row-major grid of cols*rows tiles.
	tiles      []*Tile
	cols, rows int

	worldOrigin   vec.Vec2
	worldTileSize vec.Vec2
	scale         float64

	scrollOffset    vec.Vec2
	hasScrollOffset bool

	opacityBindings     map[scene.PropertyBindingID]opacityBindingInfo
	prevOpacityBindings map[scene.PropertyBindingID]opacityBindingInfo

	// surfaceMapper maps between the cache node and world space.
	// primMapper and clipMapper are retargeted per primitive and clip.
	surfaceMapper *spatial.Mapper
	primMapper    *spatial.Mapper
	clipMapper    *spatial.Mapper

	worldBoundingRect rect.Rect

	tilesToDraw   []TileIndex
	dirtyRegion   DirtyRegion
	pendingBlits  []TileBlit
	localClipRect rect.Rect
	considered    *bitgrid.Grid
	recorded      []RecordedDirtyRegion

	scratch primScratch
	stats   Stats
}

// primScratch holds per-primitive buffers reused across calls.
type primScratch struct {
	clipIDs      []scene.ContentID
	clipVertices []vec.Vec2
	clipNodes    map[spatial.NodeID]struct{}
	worldClips   map[rect.Rect]spatial.NodeID
}

// New creates a cache for the picture positioned by spatialNode. rootClip is
// the clip chain applied to the cached picture as a whole; its nodes are
// covered by the cache bounds and never become tile dependencies. anchors
// are the reference anchors of the current scene, see
// CollectReferenceAnchors.
func New(spatialNode spatial.NodeID, rootClip scene.ClipChainID, anchors ReferenceAnchorSet, opts ...Option) (*TileCache, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &TileCache{
		cfg:                 cfg,
		spatialNode:         spatialNode,
		rootClip:            rootClip,
		anchors:             anchors,
		scale:               1,
		opacityBindings:     make(map[scene.PropertyBindingID]opacityBindingInfo),
		prevOpacityBindings: make(map[scene.PropertyBindingID]opacityBindingInfo),
		considered:          bitgrid.New(0, 0),
		scratch: primScratch{
			clipNodes:  make(map[spatial.NodeID]struct{}),
			worldClips: make(map[rect.Rect]spatial.NodeID),
		},
	}, nil
}

// SpatialNode returns the node that positions the cached picture.
func (tc *TileCache) SpatialNode() spatial.NodeID { return tc.spatialNode }

// IsEnabled reports whether caching ran in the current frame.
func (tc *TileCache) IsEnabled() bool { return tc.enabled }

// TileSize returns the tile dimensions in device pixels.
func (tc *TileCache) TileSize() (width, height int) {
	return tc.cfg.tileWidth, tc.cfg.tileHeight
}

// TileCount returns the grid dimensions.
func (tc *TileCache) TileCount() (cols, rows int) { return tc.cols, tc.rows }

// Tiles returns the grid in row-major order.
func (tc *TileCache) Tiles() []*Tile { return tc.tiles }

// Tile returns the tile at column x and row y. It panics if the cell is
// outside the grid.
func (tc *TileCache) Tile(x, y int) *Tile { return tc.tiles[tc.index(x, y)] }

// TilesToDraw returns the tiles that can be drawn from their backing store,
// in grid order.
func (tc *TileCache) TilesToDraw() []TileIndex { return tc.tilesToDraw }

// DirtyRegion returns the area that must be rasterized this frame.
func (tc *TileCache) DirtyRegion() *DirtyRegion { return &tc.dirtyRegion }

// PendingBlits returns the copies to perform after the frame is rendered.
func (tc *TileCache) PendingBlits() []TileBlit { return tc.pendingBlits }

// LocalClipRect returns the clip rect computed by the last PostUpdate.
func (tc *TileCache) LocalClipRect() rect.Rect { return tc.localClipRect }

// WorldBoundingRect returns the world bounds of the primitives seen this
// frame.
func (tc *TileCache) WorldBoundingRect() rect.Rect { return tc.worldBoundingRect }

// RecordedDirtyRegions returns the dirty region of every frame so far. It is
// only populated in testing mode.
func (tc *TileCache) RecordedDirtyRegions() []RecordedDirtyRegion { return tc.recorded }

// Stats returns a snapshot of the cache state.
func (tc *TileCache) Stats() Stats {
	s := tc.stats
	s.Columns, s.Rows = tc.cols, tc.rows
	s.Tiles = len(tc.tiles)
	s.TilesToDraw = len(tc.tilesToDraw)
	s.DirtyRects = len(tc.dirtyRegion.Rects)
	s.PendingBlits = len(tc.pendingBlits)
	return s
}

// Destroy hands the tiles and the world positions of the scene's reference
// anchors to out, so the next scene's cache can reuse them. tree must be the
// spatial tree of the scene being discarded. The cache is empty afterwards.
func (tc *TileCache) Destroy(out *RetainedTiles, tree spatial.Hierarchy) {
	out.Merge(&RetainedTiles{
		Tiles:   tc.tiles,
		Anchors: tc.anchors.WorldPositions(tree),
	})
	Logger().Debug("tilecache: destroyed",
		"node", tc.spatialNode,
		"tiles", len(tc.tiles),
		"anchors", tc.anchors.Len())

	tc.tiles = nil
	tc.cols, tc.rows = 0, 0
	tc.tilesToDraw = nil
	tc.pendingBlits = nil
	tc.dirtyRegion = DirtyRegion{}
	tc.enabled = false
	tc.hasScrollOffset = false
}

// index converts grid coordinates to a position in the tile slice.
func (tc *TileCache) index(x, y int) int {
	if x < 0 || x >= tc.cols || y < 0 || y >= tc.rows {
		panic(fmt.Sprintf("tilecache: tile (%d, %d) outside %dx%d grid", x, y, tc.cols, tc.rows))
	}
	return y*tc.cols + x
}

// tileCoordsForRect returns the half-open range of grid cells covered by
// the world rect r, clamped to the grid.
func (tc *TileCache) tileCoordsForRect(r rect.Rect) (p0, p1 image.Point) {
	ox := r.LLx - tc.worldOrigin.X
	oy := r.LLy - tc.worldOrigin.Y
	w := tc.worldTileSize.X
	h := tc.worldTileSize.Y

	p0 = image.Pt(
		clampTile(math.Floor(ox/w), tc.cols),
		clampTile(math.Floor(oy/h), tc.rows),
	)
	p1 = image.Pt(
		clampTile(math.Ceil((ox+(r.URx-r.LLx))/w), tc.cols),
		clampTile(math.Ceil((oy+(r.URy-r.LLy))/h), tc.rows),
	)
	return p0, p1
}

func clampTile(v float64, n int) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(min(max(v, 0), float64(n)))
}
