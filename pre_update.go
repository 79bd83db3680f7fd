package tilecache

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/spatial"
)

// opacityEpsilon is the smallest opacity change that invalidates tiles.
const opacityEpsilon = 1e-6

// PreUpdate starts a frame. picRect is the bounds of the cached picture in
// the space of the cache's spatial node. fs.Resources must be set.
//
// PreUpdate lays out the tile grid over the visible part of the picture,
// reuses tiles from the previous frame (or from fs.Retained after a scene
// swap), and invalidates tiles whose images or animated opacities changed.
// Caching is disabled for the frame unless surface is RootSurface.
func (tc *TileCache) PreUpdate(picRect rect.Rect, fc *FrameContext, fs *FrameState, surface SurfaceIndex) {
	log := Logger()

	tc.tilesToDraw = tc.tilesToDraw[:0]
	tc.pendingBlits = tc.pendingBlits[:0]
	tc.dirtyRegion.Clear()
	tc.worldBoundingRect = rect.Rect{}
	tc.stats = Stats{}

	tc.enabled = surface == RootSurface
	if !tc.enabled {
		log.Debug("tilecache: disabled on offscreen surface", "node", tc.spatialNode, "surface", surface)
		return
	}

	scale := fc.scale()
	tc.scale = scale
	tileW := float64(tc.cfg.tileWidth)
	tileH := float64(tc.cfg.tileHeight)

	// scrollDelta is how far the cache node moved in world space since the
	// previous frame.
	toWorld, ok := fc.Spatial.RelativeTransform(tc.spatialNode, spatial.RootNode)
	if !ok {
		tc.disable("cache node has no world transform")
		return
	}
	scrollOffset := vec.Vec2{X: toWorld[4], Y: toWorld[5]}
	var scrollDelta vec.Vec2
	if tc.hasScrollOffset {
		scrollDelta = scrollOffset.Sub(tc.scrollOffset)
	}
	tc.scrollOffset, tc.hasScrollOffset = scrollOffset, true

	tc.surfaceMapper = spatial.NewMapper(fc.Spatial, spatial.RootNode)
	tc.surfaceMapper.SetTarget(tc.spatialNode)
	tc.primMapper = spatial.NewMapper(fc.Spatial, spatial.RootNode)
	tc.clipMapper = spatial.NewMapper(fc.Spatial, spatial.RootNode)

	picWorldRect, ok := tc.surfaceMapper.Map(picRect)
	if !ok {
		tc.disable("picture rect cannot be mapped to world space")
		return
	}
	if _, ok := tc.surfaceMapper.Unmap(fc.ScreenWorldRect); !ok {
		tc.disable("world space cannot be mapped to the cache node")
		return
	}

	var worldOffset vec.Vec2
	if len(tc.tiles) == 0 && fs.Retained != nil && !fs.Retained.IsEmpty() {
		tiles, oldAnchors := fs.Retained.take()
		tc.tiles = tiles
		offset, ok := correlateAnchors(oldAnchors, tc.anchors.WorldPositions(fc.Spatial))
		worldOffset = offset
		tc.stats.Realigned = ok
		tc.stats.RealignOffset = offset
		log.Debug("tilecache: pulled retained tiles",
			"node", tc.spatialNode,
			"tiles", len(tiles),
			"correlated", ok,
			"offset", offset)
	}

	tc.diffOpacityBindings(fc.Properties)

	// Cover the visible part of the picture, or the whole screen when the
	// picture is off screen so that tiles survive scrolling back.
	neededWorld, ok := geom.Intersect(fc.ScreenWorldRect, picWorldRect)
	if !ok {
		neededWorld = fc.ScreenWorldRect
	}

	// Without tiles the grid snaps to the visible area. Otherwise it keeps
	// the first tile's alignment, moved by scrollDelta on ordinary frames or
	// by worldOffset on the frame retained tiles are pulled. A new cache has
	// no previous scroll offset, so only worldOffset applies on that frame.
	var refPoint vec.Vec2
	if len(tc.tiles) == 0 {
		refPoint = geom.FloorVec(geom.Origin(neededWorld))
	} else {
		refPoint = geom.Origin(tc.tiles[0].WorldRect).Add(scrollDelta).Add(worldOffset)
	}

	deviceRef := refPoint.Mul(scale)
	neededDevice := geom.Inflate(geom.Scale(neededWorld, scale), 0, InflateTiles*tileH)

	x0 := deviceRef.X + math.Floor((neededDevice.LLx-deviceRef.X)/tileW)*tileW
	y0 := deviceRef.Y + math.Floor((neededDevice.LLy-deviceRef.Y)/tileH)*tileH
	x1 := deviceRef.X + math.Ceil((neededDevice.URx-deviceRef.X)/tileW)*tileW
	y1 := deviceRef.Y + math.Ceil((neededDevice.URy-deviceRef.Y)/tileH)*tileH

	cols := max(int(math.Round((x1-x0)/tileW)), 0)
	rows := max(int(math.Round((y1-y0)/tileH)), 0)

	// Old tiles are keyed by their device position in this frame. Whether
	// their content still matches is decided later by the descriptors.
	// Tiles that round to the same key are dropped, all but the last.
	old := make(map[PointKey]*Tile, len(tc.tiles))
	collisions := 0
	for _, t := range tc.tiles {
		p := geom.Origin(t.WorldRect).Add(scrollDelta).Add(worldOffset).Mul(scale)
		key := pointKey(p)
		if _, ok := old[key]; ok {
			collisions++
		}
		old[key] = t
	}

	tc.worldOrigin = vec.Vec2{X: x0 / scale, Y: y0 / scale}
	tc.worldTileSize = vec.Vec2{X: tileW / scale, Y: tileH / scale}
	tc.cols, tc.rows = cols, rows

	tiles := make([]*Tile, 0, cols*rows)
	for y := range rows {
		for x := range cols {
			px := x0 + float64(x)*tileW
			py := y0 + float64(y)*tileH
			key := pointKey(vec.Vec2{X: px, Y: py})

			t, ok := old[key]
			if ok {
				delete(old, key)
			} else {
				t = newTile(tc.cfg.ids.NextTileID())
				tc.stats.TilesCreated++
			}

			t.WorldRect = geom.Rect(px/scale, py/scale, tc.worldTileSize.X, tc.worldTileSize.Y)
			local, ok := tc.surfaceMapper.Unmap(t.WorldRect)
			if !ok {
				panic("tilecache: tile world rect cannot be mapped to local space")
			}
			t.LocalRect = local
			t.VisibleRect, _ = geom.Intersect(t.WorldRect, fc.ScreenWorldRect)

			tiles = append(tiles, t)
		}
	}
	tc.tiles = tiles
	// Unmatched tiles are dropped. Their backing stores age out of the
	// texture cache.
	tc.stats.TilesDropped = len(old) + collisions
	tc.considered.Resize(cols, rows)

	// Dependencies recorded last frame must be checked before they are
	// cleared below.
	for _, t := range tc.tiles {
		t.isSameContent = true
		for _, key := range t.Descriptor.ImageKeys.Items() {
			if fs.Resources.IsImageDirty(key) {
				t.isSameContent = false
				break
			}
		}
		if t.isSameContent {
			for _, b := range t.Descriptor.OpacityBindings.Items() {
				if !b.Animated {
					continue
				}
				if info, ok := tc.opacityBindings[b.Binding]; !ok || info.changed {
					t.isSameContent = false
					break
				}
			}
		}
		t.clear()
	}

	log.Debug("tilecache: pre-update",
		"node", tc.spatialNode,
		"cols", cols,
		"rows", rows,
		"created", tc.stats.TilesCreated,
		"dropped", tc.stats.TilesDropped,
		"scroll", scrollDelta)
}

// diffOpacityBindings snapshots the animated float properties and flags the
// ones that are new or changed since the previous frame.
func (tc *TileCache) diffOpacityBindings(props PropertySource) {
	tc.opacityBindings, tc.prevOpacityBindings = tc.prevOpacityBindings, tc.opacityBindings
	clear(tc.opacityBindings)
	if props == nil {
		return
	}
	for id, v := range props.FloatProperties() {
		prev, ok := tc.prevOpacityBindings[id]
		changed := !ok || math.Abs(float64(prev.value-v)) > opacityEpsilon
		tc.opacityBindings[id] = opacityBindingInfo{value: v, changed: changed}
	}
}

// disable turns caching off for the rest of the frame.
func (tc *TileCache) disable(reason string) {
	tc.enabled = false
	Logger().Warn("tilecache: caching disabled for frame", "node", tc.spatialNode, "reason", reason)
}
