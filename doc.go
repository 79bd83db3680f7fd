// Package tilecache caches the rasterized content of a scrollable surface
// in fixed-size tiles and works out, frame by frame, what must be redrawn.
//
// # Overview
//
// A compositor that redraws a large page every frame wastes most of its
// time on pixels that did not change. TileCache splits the surface into a
// grid of tiles, fingerprints everything each tile's content depends on
// (primitives, clips, images, animated opacities, transforms) and compares
// the fingerprint with the previous frame. Unchanged tiles are drawn from a
// backing texture; changed tiles are merged into a short list of dirty
// rectangles for the rasterizer.
//
// # Frame Protocol
//
//	tc.PreUpdate(picRect, fc, fs, tilecache.RootSurface)
//	for i := range prims {
//	    if !tc.UpdatePrimDependencies(&prims[i], &clipStack, fc) {
//	        continue // cannot affect any tile
//	    }
//	}
//	clip := tc.PostUpdate(fc, fs)
//
//	// Rasterize tc.DirtyRegion(), draw tc.TilesToDraw() from their
//	// backing stores, then perform tc.PendingBlits().
//
// # Scene Swaps
//
// When the display list is rebuilt, the old cache's tiles are handed over
// with Destroy. The new cache picks them up in its first PreUpdate and
// lines the old grid up with the new content by comparing the positions of
// reference anchors, primitives that occur exactly once in each scene.
//
// # Caching Policy
//
// A tile is copied into the texture cache only after its content has been
// stable for FramesBeforeCaching frames, so content that changes every frame
// never costs a copy. Testing mode (WithTestingMode) removes the delay and
// records every frame's dirty region.
//
// # Coordinate System
//
// World space is y-down with the origin at the top-left of the root surface.
// Device pixels are world units multiplied by FrameContext.DevicePixelScale.
//
// # Logging
//
// tilecache is silent by default. Use SetLogger to receive per-frame debug
// output.
package tilecache

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
