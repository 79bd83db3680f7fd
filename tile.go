package tilecache

import (
	"fmt"

	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/spatial"
	"github.com/gogpu/tilecache/texcache"
)

// TileIndex is the position of a tile in the row-major tile slice.
type TileIndex int

// Tile is one cell of a tile cache grid.
type Tile struct {
	// ID identifies the tile in logs. It is never used for lookup.
	ID TileID

	// WorldRect is the tile's area in world space.
	WorldRect rect.Rect

	// LocalRect is WorldRect in the space of the cache's spatial node.
	LocalRect rect.Rect

	// VisibleRect is the part of WorldRect on screen. It is the zero rect
	// when the tile is off screen.
	VisibleRect rect.Rect

	// ValidRect is the tile-relative area, in world units, whose pixels are
	// held by the backing store.
	ValidRect rect.Rect

	Descriptor Descriptor

	// Handle refers to the backing store in the texture cache.
	Handle texcache.Handle

	isValid       bool
	isSameContent bool
	sameFrames    int

	// Dependencies collected during the primitive pass and folded into the
	// descriptor by PostUpdate.
	transforms     map[spatial.NodeID]struct{}
	potentialClips map[rect.Rect]spatial.NodeID
}

func newTile(id TileID) *Tile {
	return &Tile{
		ID:             id,
		transforms:     make(map[spatial.NodeID]struct{}),
		potentialClips: make(map[rect.Rect]spatial.NodeID),
	}
}

// IsValid reports whether the backing store can be drawn instead of
// rasterizing the tile.
func (t *Tile) IsValid() bool { return t.isValid }

// IsSameContent reports whether the tile's content matched the previous
// frame.
func (t *Tile) IsSameContent() bool { return t.isSameContent }

// SameFrames returns how many consecutive frames the content has been
// unchanged.
func (t *Tile) SameFrames() int { return t.sameFrames }

// IsVisible reports whether any part of the tile is on screen.
func (t *Tile) IsVisible() bool { return !geom.IsEmpty(t.VisibleRect) }

// String implements fmt.Stringer.
func (t *Tile) String() string {
	return fmt.Sprintf("Tile#%d{world=%v valid=%t same=%t frames=%d}",
		t.ID, t.WorldRect, t.isValid, t.isSameContent, t.sameFrames)
}

// clear starts dependency accrual for a new frame.
func (t *Tile) clear() {
	t.Descriptor.Reset()
	clear(t.transforms)
	clear(t.potentialClips)
}
