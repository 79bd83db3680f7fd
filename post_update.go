package tilecache

import (
	"maps"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/texcache"
)

// PostUpdate finishes the frame. It decides which tiles are valid, schedules
// blits for tiles that are ready to be cached and builds the dirty region.
//
// The returned rect clips the picture in the space of the cache's spatial
// node. It is unbounded when caching is disabled and empty when nothing
// cached is on screen.
func (tc *TileCache) PostUpdate(fc *FrameContext, fs *FrameState) rect.Rect {
	tc.dirtyRegion.Clear()
	tc.pendingBlits = tc.pendingBlits[:0]
	tc.tilesToDraw = tc.tilesToDraw[:0]
	defer tc.record()

	if !tc.enabled {
		tc.localClipRect = geom.MaxRect()
		return tc.localClipRect
	}

	if _, ok := geom.Intersect(tc.worldBoundingRect, fc.ScreenWorldRect); !ok {
		tc.localClipRect = rect.Rect{}
		return tc.localClipRect
	}

	localClipRect, ok := tc.surfaceMapper.Unmap(tc.worldBoundingRect)
	if !ok {
		panic("tilecache: cache bounds cannot be mapped to local space")
	}

	tc.considered.Reset()
	for i, t := range tc.tiles {
		tc.resolveTransforms(t, fc)

		// Keep the backing store alive even if the tile is not drawn, it
		// may become visible again.
		if fs.Resources.IsAllocated(t.Handle) {
			fs.Resources.Request(t.Handle)
		} else {
			t.isValid = false
		}

		t.isSameContent = t.isSameContent && t.Descriptor.IsSameContent()
		t.isValid = t.isValid && t.isSameContent

		needed, visible := geom.Intersect(t.VisibleRect, tc.worldBoundingRect)
		tileOrigin := geom.Origin(t.WorldRect)
		neededLocal := geom.Translate(needed, tileOrigin.Mul(-1))
		if visible {
			t.isValid = t.isValid && geom.Contains(t.ValidRect, neededLocal)
		}

		if t.isSameContent {
			t.sameFrames++
		} else {
			t.sameFrames = 0
		}

		if !visible || t.Descriptor.Prims.Len() == 0 {
			continue
		}

		if t.isValid {
			tc.tilesToDraw = append(tc.tilesToDraw, TileIndex(i))
			continue
		}

		if t.sameFrames >= tc.cfg.framesBeforeCaching || tc.cfg.testing {
			if !fs.Resources.IsAllocated(t.Handle) {
				fs.Resources.Update(&t.Handle, texcache.TileDescriptor(tc.cfg.tileWidth, tc.cfg.tileHeight))
			}
			src := deviceRect(needed, tc.scale)
			dst := deviceRect(neededLocal, tc.scale)
			if !dst.Empty() {
				tc.pendingBlits = append(tc.pendingBlits, TileBlit{
					Target:     fs.Resources.Item(t.Handle),
					SrcOffset:  src.Min,
					DestOffset: dst.Min,
					Size:       dst.Size(),
				})
			}
			t.ValidRect = neededLocal
			t.isValid = true
		}

		tc.considered.Set(i%tc.cols, i/tc.cols)
	}

	b := dirtyRegionBuilder{
		tiles:      tc.tiles,
		considered: tc.considered,
	}
	b.build(&tc.dirtyRegion)
	if len(tc.dirtyRegion.Rects) > tc.cfg.maxDirtyRects {
		tc.dirtyRegion.Collapse()
	}

	tc.localClipRect = localClipRect

	Logger().Debug("tilecache: post-update",
		"node", tc.spatialNode,
		"draw", len(tc.tilesToDraw),
		"dirty", len(tc.dirtyRegion.Rects),
		"blits", len(tc.pendingBlits))

	return localClipRect
}

// resolveTransforms folds the tile's transform dependencies into its
// descriptor. Potential clips that do not contain the cache bounds become
// dependencies first. Nodes are visited in id order so the fingerprint does
// not depend on map iteration.
func (tc *TileCache) resolveTransforms(t *Tile, fc *FrameContext) {
	for r, n := range t.potentialClips {
		if !geom.Contains(r, tc.worldBoundingRect) {
			t.transforms[n] = struct{}{}
		}
	}

	for _, n := range slices.Sorted(maps.Keys(t.transforms)) {
		var (
			m  matrix.Matrix
			ok bool
		)
		// Parents have smaller ids, so map from the deeper node.
		if n <= tc.spatialNode {
			m, ok = fc.Spatial.RelativeTransform(tc.spatialNode, n)
		} else {
			m, ok = fc.Spatial.RelativeTransform(n, tc.spatialNode)
		}
		if !ok {
			t.isSameContent = false
			continue
		}
		x, y := m.Apply(0, 0)
		t.Descriptor.Transforms.Push(pointKey(vec.Vec2{X: x, Y: y}))
	}
}

// record appends the current dirty region to the testing log.
func (tc *TileCache) record() {
	if !tc.cfg.testing {
		return
	}
	tc.recorded = append(tc.recorded, tc.dirtyRegion.Record(tc.scale))
}
