// Command tilecachedemo drives synthetic scrolling scenes through a tile
// cache and reports how much of each frame had to be redrawn.
//
// Each scene scrolls a column of rows by a fixed step per frame. Halfway
// through, the scene is rebuilt from scratch with the same content, and the
// new cache pulls the old tiles through a RetainedTiles store. The dirty
// region of the last frame of every scene is written as a PNG overlay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"

	"golang.org/x/image/vector"
	"golang.org/x/sync/errgroup"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/tilecache"
	"github.com/gogpu/tilecache/internal/geom"
	"github.com/gogpu/tilecache/scene"
	"github.com/gogpu/tilecache/spatial"
	"github.com/gogpu/tilecache/texcache"
)

type options struct {
	width, height int
	scenes        int
	frames        int
	rows          int
	step          float64
	budgetMB      int
	output        string
	testing       bool
}

func main() {
	var (
		opts    options
		verbose = flag.Bool("v", false, "log per-frame cache diagnostics")
	)
	flag.IntVar(&opts.width, "width", 1024, "screen width in pixels")
	flag.IntVar(&opts.height, "height", 768, "screen height in pixels")
	flag.IntVar(&opts.scenes, "scenes", 4, "number of scenes to run concurrently")
	flag.IntVar(&opts.frames, "frames", 60, "frames per scene")
	flag.IntVar(&opts.rows, "rows", 200, "content rows per scene")
	flag.Float64Var(&opts.step, "step", 24, "scroll distance per frame")
	flag.IntVar(&opts.budgetMB, "budget", texcache.DefaultBudgetMB, "texture cache budget in MB")
	flag.StringVar(&opts.output, "output", "dirty", "prefix for PNG overlays, empty to disable")
	flag.BoolVar(&opts.testing, "testing", false, "use small tiles and cache every frame")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tilecache.SetLogger(logger)

	if err := run(context.Background(), logger, opts); err != nil {
		logger.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	if opts.rows <= 0 || opts.scenes <= 0 || opts.width <= 0 || opts.height <= 0 {
		return errors.New("rows, scenes and screen size must be positive")
	}
	ids := tilecache.NewIDCounter()

	g, ctx := errgroup.WithContext(ctx)
	results := make([]summary, opts.scenes)
	for i := range opts.scenes {
		g.Go(func() error {
			s, err := runScene(ctx, i, ids, opts)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range results {
		logger.Info("scene done",
			"scene", i,
			"frames", s.frames,
			"blits", s.blits,
			"drawn", s.drawn,
			"dirtyPixels", s.dirtyPixels,
			"screenPixels", s.screenPixels,
			"realigned", s.realigned)
	}
	return nil
}

type summary struct {
	frames       int
	blits        int
	drawn        int
	dirtyPixels  float64
	screenPixels float64
	realigned    bool
}

// sceneState is one build of a scene: its spatial tree, content and cache.
type sceneState struct {
	tree   *spatial.Tree
	scroll spatial.NodeID
	clips  *scene.ClipStore
	prims  []scene.Primitive
	tc     *tilecache.TileCache
}

func buildScene(rows int, scrollY float64, ids tilecache.IDSource, testing bool) (*sceneState, error) {
	tree := spatial.NewTree()
	scroll := tree.AddScrollFrame(spatial.RootNode, vec.Vec2{})
	tree.SetScrollPosition(scroll, vec.Vec2{Y: scrollY})

	clips := scene.NewClipStore()
	rounded := clips.Add(scene.NoClipChain, scene.ClipNode{
		ID:      1,
		Kind:    scene.ClipRoundedRectangle,
		Origin:  vec.Vec2{X: 16, Y: 16},
		Size:    vec.Vec2{X: 96, Y: 96},
		Spatial: scroll,
	})

	prims := make([]scene.Primitive, 0, rows+1)
	for i := range rows {
		y := float64(i) * 48
		p := scene.Primitive{
			ID:        scene.ContentID(1000 + i),
			Kind:      scene.KindRectangle,
			LocalRect: geom.Rect(0, y, 1024, 40),
			Spatial:   scroll,
			ClipChain: scene.NoClipChain,
		}
		if i%5 == 0 {
			p.Kind = scene.KindImage
			p.LocalRect = geom.Rect(16, y, 128, 40)
			p.ImageKeys = []scene.ImageKey{scene.ImageKey(i)}
			p.ClipChain = rounded
		}
		prims = append(prims, p)
	}
	// A toolbar fixed to the viewport.
	prims = append(prims, scene.Primitive{
		ID:        1,
		Kind:      scene.KindRectangle,
		LocalRect: geom.Rect(0, 0, 1024, 32),
		Spatial:   spatial.RootNode,
		ClipChain: scene.NoClipChain,
	})

	anchors := tilecache.CollectReferenceAnchors(prims, tilecache.MaxAnchorSearch)
	tc, err := tilecache.New(scroll, scene.NoClipChain, anchors,
		tilecache.WithIDSource(ids),
		tilecache.WithTestingMode(testing))
	if err != nil {
		return nil, err
	}

	return &sceneState{tree: tree, scroll: scroll, clips: clips, prims: prims, tc: tc}, nil
}

func runScene(ctx context.Context, index int, ids tilecache.IDSource, opts options) (summary, error) {
	screen := geom.Rect(0, 0, float64(opts.width), float64(opts.height))
	picRect := geom.Rect(0, 0, float64(opts.width), float64(opts.rows)*48)
	res := texcache.New(opts.budgetMB)

	st, err := buildScene(opts.rows, 0, ids, opts.testing)
	if err != nil {
		return summary{}, err
	}

	var (
		sum      = summary{screenPixels: screen.Dx() * screen.Dy()}
		retained tilecache.RetainedTiles
		scrollY  float64
		fs       = tilecache.FrameState{Resources: res, Retained: &retained}
	)
	for frame := range opts.frames {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		// Rebuild the scene once, keeping the scroll position.
		if frame == opts.frames/2 {
			st.tc.Destroy(&retained, st.tree)
			if st, err = buildScene(opts.rows, scrollY, ids, opts.testing); err != nil {
				return sum, err
			}
		}

		scrollY += opts.step
		st.tree.SetScrollPosition(st.scroll, vec.Vec2{Y: scrollY})

		fc := tilecache.FrameContext{
			ScreenWorldRect:  screen,
			DevicePixelScale: 1,
			Spatial:          st.tree,
			Clips:            st.clips,
		}

		res.BeginFrame()
		// Every tenth frame one image updates.
		if frame%10 == 0 {
			res.MarkImageDirty(scene.ImageKey(frame % opts.rows))
		}
		st.tc.PreUpdate(picRect, &fc, &fs, tilecache.RootSurface)
		for i := range st.prims {
			st.tc.UpdatePrimDependencies(&st.prims[i], nil, &fc)
		}
		st.tc.PostUpdate(&fc, &fs)
		res.EndFrame()

		stats := st.tc.Stats()
		sum.frames++
		sum.blits += stats.PendingBlits
		sum.drawn += stats.TilesToDraw
		sum.realigned = sum.realigned || stats.Realigned
		if frame == opts.frames-1 {
			combined := st.tc.DirtyRegion().Combined
			sum.dirtyPixels = combined.Dx() * combined.Dy()
		}
	}

	if opts.output != "" {
		name := fmt.Sprintf("%s-%d.png", opts.output, index)
		if err := writeOverlay(name, opts.width, opts.height, st.tc.DirtyRegion()); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// writeOverlay rasterizes the dirty rects in red over a dark background.
func writeOverlay(name string, width, height int, region *tilecache.DirtyRegion) error {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{R: 24, G: 24, B: 32, A: 255}), image.Point{}, draw.Src)

	if !region.IsEmpty() {
		z := vector.NewRasterizer(width, height)
		for _, r := range region.Rects {
			addRect(z, r.WorldRect)
		}
		src := image.NewUniform(color.RGBA{R: 220, G: 40, B: 40, A: 160})
		z.Draw(dst, dst.Bounds(), src, image.Point{})
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}

func addRect(z *vector.Rasterizer, r rect.Rect) {
	z.MoveTo(float32(r.LLx), float32(r.LLy))
	z.LineTo(float32(r.URx), float32(r.LLy))
	z.LineTo(float32(r.URx), float32(r.URy))
	z.LineTo(float32(r.LLx), float32(r.URy))
	z.ClosePath()
}
