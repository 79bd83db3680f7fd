package tilecache

import (
	"testing"

	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
)

// =============================================================================
// Reference Anchor Tests
// =============================================================================

func TestCollectReferenceAnchors_UniqueOnly(t *testing.T) {
	prims := []scene.Primitive{
		rectPrim(1, spatial.RootNode, 0, 0, 10, 10),
		rectPrim(2, spatial.RootNode, 0, 10, 10, 10),
		rectPrim(1, spatial.RootNode, 0, 20, 10, 10),
		{
			ID:   3,
			Kind: scene.KindPicture,
			Children: []scene.Primitive{
				rectPrim(4, spatial.RootNode, 5, 5, 1, 1),
				rectPrim(2, spatial.RootNode, 0, 30, 10, 10),
			},
		},
		rectPrim(5, spatial.RootNode, 0, 40, 10, 10),
	}

	set := CollectReferenceAnchors(prims, MaxAnchorSearch)

	want := []scene.ContentID{3, 4, 5}
	if set.Len() != len(want) {
		t.Fatalf("anchors = %+v, want ids %v", set.Anchors, want)
	}
	for i, id := range want {
		a := set.Anchors[i]
		if a.ID != id {
			t.Errorf("Anchors[%d].ID = %d, want %d", i, a.ID, id)
		}
		if a.Count != 1 {
			t.Errorf("Anchors[%d].Count = %d, want 1", i, a.Count)
		}
	}
	if got := set.Anchors[1].LocalPosition; got != (vec.Vec2{X: 5, Y: 5}) {
		t.Errorf("LocalPosition = %v, want (5, 5)", got)
	}
}

func TestCollectReferenceAnchors_Limit(t *testing.T) {
	prims := rowScene(10, spatial.RootNode)
	// A duplicate of id 1 beyond the limit must not disqualify it.
	prims = append(prims, rectPrim(1, spatial.RootNode, 0, 0, 1, 1))

	set := CollectReferenceAnchors(prims, 4)
	if set.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", set.Len())
	}
	if set.Anchors[0].ID != 1 || set.Anchors[3].ID != 4 {
		t.Errorf("anchors = %+v", set.Anchors)
	}
}

func TestReferenceAnchorSet_WorldPositions(t *testing.T) {
	tree := spatial.NewTree()
	node := tree.AddScrollFrame(spatial.RootNode, vec.Vec2{X: 10, Y: 20})
	tree.SetScrollPosition(node, vec.Vec2{Y: 5})

	set := CollectReferenceAnchors([]scene.Primitive{rectPrim(7, node, 1, 2, 3, 3)}, MaxAnchorSearch)
	got := set.WorldPositions(tree)

	if p := got[7]; p != (vec.Vec2{X: 11, Y: 17}) {
		t.Errorf("world position = %v, want (11, 17)", p)
	}
}

// =============================================================================
// Correlation Tests
// =============================================================================

func anchorMap(n int, offset func(i int) vec.Vec2) map[scene.ContentID]vec.Vec2 {
	m := make(map[scene.ContentID]vec.Vec2, n)
	for i := range n {
		m[scene.ContentID(i+1)] = vec.Vec2{X: float64(i * 7), Y: float64(i * 13)}.Add(offset(i))
	}
	return m
}

func TestCorrelateAnchors(t *testing.T) {
	zero := func(int) vec.Vec2 { return vec.Vec2{} }

	tests := []struct {
		name   string
		old    map[scene.ContentID]vec.Vec2
		cur    map[scene.ContentID]vec.Vec2
		want   vec.Vec2
		wantOK bool
	}{
		{
			name:   "uniform shift",
			old:    anchorMap(8, zero),
			cur:    anchorMap(8, func(int) vec.Vec2 { return vec.Vec2{Y: -120} }),
			want:   vec.Vec2{Y: -120},
			wantOK: true,
		},
		{
			name: "quarter agree",
			old:  anchorMap(8, zero),
			cur: anchorMap(8, func(i int) vec.Vec2 {
				if i < 2 {
					return vec.Vec2{X: 30}
				}
				return vec.Vec2{X: float64(100 + 10*i)}
			}),
			want:   vec.Vec2{X: 30},
			wantOK: true,
		},
		{
			name: "scattered",
			old:  anchorMap(8, zero),
			cur: anchorMap(8, func(i int) vec.Vec2 {
				return vec.Vec2{X: float64(i * 11), Y: float64(-i * 3)}
			}),
		},
		{
			name: "scattered five",
			old:  anchorMap(5, zero),
			cur:  anchorMap(5, func(i int) vec.Vec2 { return vec.Vec2{X: float64(10 * i)} }),
		},
		{
			name: "scattered seven",
			old:  anchorMap(7, zero),
			cur:  anchorMap(7, func(i int) vec.Vec2 { return vec.Vec2{X: float64(10 * i)} }),
		},
		{
			// Two of seven is above a quarter.
			name: "two of seven agree",
			old:  anchorMap(7, zero),
			cur: anchorMap(7, func(i int) vec.Vec2 {
				if i >= 5 {
					return vec.Vec2{Y: -40}
				}
				return vec.Vec2{X: float64(100 + 10*i)}
			}),
			want:   vec.Vec2{Y: -40},
			wantOK: true,
		},
		{
			name: "sub-pixel jitter rounds together",
			old:  anchorMap(4, zero),
			cur: anchorMap(4, func(i int) vec.Vec2 {
				return vec.Vec2{Y: 50 + 0.1*float64(i)}
			}),
			want:   vec.Vec2{Y: 50},
			wantOK: true,
		},
		{
			name: "no shared ids",
			old:  map[scene.ContentID]vec.Vec2{1: {}, 2: {}},
			cur:  map[scene.ContentID]vec.Vec2{3: {}, 4: {}},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := correlateAnchors(tt.old, tt.cur)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("offset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCorrelateAnchors_TieBreakIsDeterministic(t *testing.T) {
	old := map[scene.ContentID]vec.Vec2{1: {}, 2: {}}
	cur := map[scene.ContentID]vec.Vec2{1: {X: 5}, 2: {X: -5}}

	for range 20 {
		got, ok := correlateAnchors(old, cur)
		if !ok || got != (vec.Vec2{X: -5}) {
			t.Fatalf("correlateAnchors() = %v, %v, want (-5, 0), true", got, ok)
		}
	}
}

// =============================================================================
// RetainedTiles Tests
// =============================================================================

func TestRetainedTiles_Merge(t *testing.T) {
	var dst RetainedTiles
	src := RetainedTiles{
		Tiles:   []*Tile{newTile(1)},
		Anchors: map[scene.ContentID]vec.Vec2{1: {}},
	}

	dst.Merge(&src)
	if len(dst.Tiles) != 1 || len(dst.Anchors) != 1 {
		t.Errorf("Merge() into empty store = %+v", dst)
	}
	if !src.IsEmpty() {
		t.Error("source not emptied by Merge")
	}

	// Merging an empty store is a no-op.
	dst.Merge(&RetainedTiles{})
	if len(dst.Tiles) != 1 {
		t.Error("merging an empty store changed the destination")
	}
}

func TestRetainedTiles_MergeTwoNonEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	a := RetainedTiles{Tiles: []*Tile{newTile(1)}}
	b := RetainedTiles{Tiles: []*Tile{newTile(2)}}
	a.Merge(&b)
}

// =============================================================================
// Scene Swap Tests
// =============================================================================

func TestTileCache_RetainedTilesRealign(t *testing.T) {
	h := newHarness(t)
	prims := rowScene(16, h.scroll)
	h.tc = h.newCache(CollectReferenceAnchors(prims, MaxAnchorSearch))

	h.frame(prims)
	h.frame(prims)

	var retained RetainedTiles
	h.tc.Destroy(&retained, h.tree)
	if len(h.tc.Tiles()) != 0 {
		t.Fatal("Destroy() left tiles in the cache")
	}
	if len(retained.Anchors) != 16 {
		t.Fatalf("retained %d anchors, want 16", len(retained.Anchors))
	}

	// The rebuilt scene shows the same content scrolled up by two tiles.
	h.tree = spatial.NewTree()
	h.scroll = h.tree.AddScrollFrame(spatial.RootNode, vec.Vec2{Y: -128})
	h.fc.Spatial = h.tree
	h.fs.Retained = &retained

	prims = rowScene(16, h.scroll)
	h.tc = h.newCache(CollectReferenceAnchors(prims, MaxAnchorSearch))
	h.frame(prims)

	st := h.tc.Stats()
	if !st.Realigned || st.RealignOffset != (vec.Vec2{Y: -128}) {
		t.Errorf("Stats() realign = %v %v, want true (0, -128)", st.Realigned, st.RealignOffset)
	}
	if !retained.IsEmpty() {
		t.Error("retained store not consumed")
	}
	// Rows that were on screen before the swap are reused; the two rows
	// that scrolled in were never cached.
	if got := h.lastRecorded(); got != "[(0,128)-(256,256)]" {
		t.Errorf("dirty region = %s, want [(0,128)-(256,256)]", got)
	}
	if got := st.TilesToDraw; got != 8 {
		t.Errorf("TilesToDraw = %d, want 8", got)
	}
}

func TestTileCache_RetainedTilesWithoutCorrelation(t *testing.T) {
	h := newHarness(t)
	prims := rowScene(4, h.scroll)
	h.tc = h.newCache(CollectReferenceAnchors(prims, MaxAnchorSearch))
	h.frame(prims)

	var retained RetainedTiles
	h.tc.Destroy(&retained, h.tree)
	h.fs.Retained = &retained

	// No content ids in common with the old scene.
	fresh := make([]scene.Primitive, 4)
	for i := range fresh {
		fresh[i] = rectPrim(scene.ContentID(100+i), h.scroll, 0, float64(i)*64, 256, 64)
	}
	h.tc = h.newCache(CollectReferenceAnchors(fresh, MaxAnchorSearch))
	h.frame(fresh)

	st := h.tc.Stats()
	if st.Realigned {
		t.Error("Realigned = true without shared anchors")
	}
	if st.RealignOffset != (vec.Vec2{}) {
		t.Errorf("RealignOffset = %v, want zero", st.RealignOffset)
	}
	// Tiles were matched at zero offset, but their content differs.
	if st.TilesCreated != 0 {
		t.Errorf("TilesCreated = %d, want 0", st.TilesCreated)
	}
	if got := h.lastRecorded(); got != "[(0,0)-(256,256)]" {
		t.Errorf("dirty region = %s", got)
	}
	if geom.IsEmpty(h.tc.WorldBoundingRect()) {
		t.Error("empty bounding rect")
	}
}

func TestTileCache_RetainedTilesOnSameCellCountAsDropped(t *testing.T) {
	h := newHarness(t)

	// Both tiles round to the device origin of the same cell.
	a := newTile(1001)
	a.WorldRect = geom.Rect(0, 0, 64, 64)
	b := newTile(1002)
	b.WorldRect = geom.Rect(0.2, 0, 64, 64)
	h.fs.Retained = &RetainedTiles{Tiles: []*Tile{a, b}}

	h.frame(rowScene(4, h.scroll))

	st := h.tc.Stats()
	if st.TilesDropped != 1 {
		t.Errorf("TilesDropped = %d, want 1", st.TilesDropped)
	}
	if want := st.Tiles - 1; st.TilesCreated != want {
		t.Errorf("TilesCreated = %d, want %d", st.TilesCreated, want)
	}
	if got := h.tc.Tile(0, 3).ID; got != b.ID {
		t.Errorf("reused tile ID = %d, want the later tile %d", got, b.ID)
	}
}
