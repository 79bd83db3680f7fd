package tilecache

import (
	"errors"
	"fmt"
)

// Tile size presets, in device pixels.
const (
	// TileWidth is the production tile width.
	TileWidth = 1024

	// TileHeight is the production tile height. Tiles are wide and short
	// because surfaces mostly scroll vertically.
	TileHeight = 256

	// TestingTileSize is the width and height of tiles in testing mode.
	TestingTileSize = 64
)

// Tuning constants.
const (
	// FramesBeforeCaching is how many consecutive frames a tile's content
	// must stay unchanged before it is copied into the texture cache.
	FramesBeforeCaching = 2

	// MaxDirtyRects is the number of dirty rectangles above which the dirty
	// region collapses into its bounding rectangle.
	MaxDirtyRects = 3

	// MaxAnchorSearch caps how many primitives are scanned when selecting
	// reference anchors.
	MaxAnchorSearch = 128

	// InflateTiles is how many tile heights the visible area is grown by,
	// above and below, to keep tiles that just scrolled off screen.
	InflateTiles = 3
)

// Configuration errors returned by New.
var (
	// ErrInvalidTileSize is returned for non-positive tile dimensions.
	ErrInvalidTileSize = errors.New("tilecache: invalid tile size")

	// ErrInvalidThreshold is returned for negative frame thresholds or a
	// dirty rect cap below one.
	ErrInvalidThreshold = errors.New("tilecache: invalid threshold")
)

// Option configures a TileCache during creation.
//
// Example:
//
//	// Production defaults
//	tc, err := tilecache.New(scrollNode, rootClip, anchors)
//
//	// Deterministic invalidation tests
//	tc, err := tilecache.New(scrollNode, rootClip, anchors, tilecache.WithTestingMode(true))
type Option func(*config)

// config holds the resolved options of a TileCache.
type config struct {
	tileWidth           int
	tileHeight          int
	framesBeforeCaching int
	maxDirtyRects       int
	testing             bool
	ids                 IDSource
}

// defaultConfig returns the production configuration.
func defaultConfig() config {
	return config{
		tileWidth:           TileWidth,
		tileHeight:          TileHeight,
		framesBeforeCaching: FramesBeforeCaching,
		maxDirtyRects:       MaxDirtyRects,
		ids:                 defaultIDs,
	}
}

func (c *config) validate() error {
	if c.tileWidth <= 0 || c.tileHeight <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTileSize, c.tileWidth, c.tileHeight)
	}
	if c.framesBeforeCaching < 0 {
		return fmt.Errorf("%w: frames before caching %d", ErrInvalidThreshold, c.framesBeforeCaching)
	}
	if c.maxDirtyRects < 1 {
		return fmt.Errorf("%w: max dirty rects %d", ErrInvalidThreshold, c.maxDirtyRects)
	}
	return nil
}

// WithTileSize overrides the tile size in device pixels.
func WithTileSize(width, height int) Option {
	return func(c *config) {
		c.tileWidth = width
		c.tileHeight = height
	}
}

// WithTestingMode switches to the small testing tile size, caches invalid
// tiles immediately instead of waiting for FramesBeforeCaching, and records
// every frame's dirty region (see TileCache.RecordedDirtyRegions).
//
// Options applied after WithTestingMode can still override the tile size.
func WithTestingMode(enabled bool) Option {
	return func(c *config) {
		c.testing = enabled
		if enabled {
			c.tileWidth = TestingTileSize
			c.tileHeight = TestingTileSize
		}
	}
}

// WithFramesBeforeCaching overrides the content age a tile needs before it
// is cached.
func WithFramesBeforeCaching(n int) Option {
	return func(c *config) {
		c.framesBeforeCaching = n
	}
}

// WithMaxDirtyRects overrides the dirty rect cap.
func WithMaxDirtyRects(n int) Option {
	return func(c *config) {
		c.maxDirtyRects = n
	}
}

// WithIDSource sets the generator for tile ids. Caches that should produce
// distinct ids must share a source. Nil restores the process-wide default.
func WithIDSource(ids IDSource) Option {
	return func(c *config) {
		if ids == nil {
			ids = defaultIDs
		}
		c.ids = ids
	}
}
