package tilecache

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
)

// UpdatePrimDependencies records what prim depends on in every tile it
// overlaps. clips holds the clip chains of the enclosing pictures and may be
// nil. Primitives must be visited in the same order every frame.
//
// The result is false when prim cannot affect any tile and may be culled. A
// disabled cache always returns true.
func (tc *TileCache) UpdatePrimDependencies(prim *scene.Primitive, clips *ClipStack, fc *FrameContext) bool {
	if !tc.enabled {
		return true
	}

	tc.primMapper.SetTarget(prim.Spatial)
	primWorld, ok := tc.primMapper.Map(prim.LocalRect)
	if !ok || geom.IsEmpty(primWorld) {
		return false
	}

	p0, p1 := tc.tileCoordsForRect(primWorld)
	if p0.X >= p1.X || p0.Y >= p1.Y {
		return false
	}

	var (
		opacity []scene.OpacityBinding
		images  []scene.ImageKey
	)
	// Pictures are left out of the bounding rect because their own clip is
	// not known yet. Their children are accounted for individually.
	includeClipRect := true
	switch prim.Kind {
	case scene.KindPicture:
		opacity = prim.Opacity
		includeClipRect = false
	case scene.KindRectangle:
		opacity = prim.Opacity
	case scene.KindImage:
		opacity = prim.Opacity
		images = prim.ImageKeys
	case scene.KindYUVImage, scene.KindImageBorder:
		images = prim.ImageKeys
	}

	sc := &tc.scratch
	sc.clipIDs = sc.clipIDs[:0]
	sc.clipVertices = sc.clipVertices[:0]
	clear(sc.clipNodes)
	clear(sc.worldClips)

	cullingRect := prim.LocalRect
	if prim.LocalClipRect != (rect.Rect{}) {
		cullingRect, _ = geom.Intersect(cullingRect, prim.LocalClipRect)
	}
	worldClipRect := primWorld

	if fc.Clips != nil {
		for chain := range clips.all(prim.ClipChain) {
			for id, node := range fc.Clips.Chain(chain) {
				// The root clip is folded into the cache bounds.
				if id == tc.rootClip {
					continue
				}
				tc.clipMapper.SetTarget(node.Spatial)

				addDependency := true
				if node.IsSimpleRect() && fc.Spatial.CoordinateSystem(node.Spatial) == spatial.RootCoordinateSystem {
					localClip := geom.Rect(node.Origin.X, node.Origin.Y, node.Size.X, node.Size.Y)
					if clipWorld, ok := tc.clipMapper.Map(localClip); ok {
						worldClipRect, _ = geom.Intersect(worldClipRect, clipWorld)
						switch {
						case node.Spatial == prim.Spatial:
							cullingRect, _ = geom.Intersect(cullingRect, localClip)
							addDependency = false
						case !fc.Spatial.IsSameOrAncestor(tc.spatialNode, node.Spatial):
							// Clips outside the scrolled content only
							// matter if they can cut into the cache
							// bounds. That is decided in PostUpdate.
							sc.worldClips[clipWorld] = node.Spatial
							addDependency = false
						}
					}
				}

				if !addDependency {
					continue
				}
				sc.clipIDs = append(sc.clipIDs, node.ID)
				if node.Spatial != tc.spatialNode {
					sc.clipNodes[node.Spatial] = struct{}{}
				}
				if v, ok := tc.clipMapper.MapPoint(node.Origin); ok {
					sc.clipVertices = append(sc.clipVertices, v)
				}
			}
		}
	}

	if includeClipRect {
		tc.worldBoundingRect = geom.Union(tc.worldBoundingRect, worldClipRect)
	}

	var worldCulling rect.Rect
	if mapped, ok := tc.primMapper.Map(cullingRect); ok && !geom.IsEmpty(cullingRect) {
		worldCulling, _ = geom.Intersect(mapped, worldClipRect)
	}

	cacheable := prim.IsCacheable()
	primOrigin := geom.Origin(prim.LocalRect)
	clipCount := clampUint16(len(sc.clipIDs))

	for y := p0.Y; y < p1.Y; y++ {
		for x := p0.X; x < p1.X; x++ {
			t := tc.tiles[tc.index(x, y)]
			d := &t.Descriptor
			tileOrigin := geom.Origin(t.WorldRect)

			t.isSameContent = t.isSameContent && cacheable

			d.ImageKeys.Extend(images)
			d.OpacityBindings.Extend(opacity)
			d.Prims.Push(PrimitiveDescriptor{
				ID:          prim.ID,
				Origin:      pointKey(primOrigin.Sub(geom.Origin(t.LocalRect))),
				FirstClip:   clampUint16(d.ClipIDs.Len()),
				ClipCount:   clipCount,
				CullingRect: tileRelativeKey(worldCulling, tileOrigin),
			})
			d.ClipIDs.Extend(sc.clipIDs)
			for _, v := range sc.clipVertices {
				d.ClipVertices.Push(pointKey(v.Sub(tileOrigin)))
			}

			if prim.Spatial != tc.spatialNode {
				t.transforms[prim.Spatial] = struct{}{}
			}
			for n := range sc.clipNodes {
				t.transforms[n] = struct{}{}
			}
			for r, n := range sc.worldClips {
				t.potentialClips[r] = n
			}
		}
	}

	return true
}

// tileRelativeKey rounds r relative to origin. Empty rects map to the zero
// key wherever they are.
func tileRelativeKey(r rect.Rect, origin vec.Vec2) RectKey {
	if geom.IsEmpty(r) {
		return RectKey{}
	}
	return rectKey(geom.Translate(r, origin.Mul(-1)))
}

func clampUint16(n int) uint16 {
	return uint16(min(n, math.MaxUint16)) //nolint:gosec // clamped above
}
