// Package texcache is an in-memory texture cache for tile backing stores.
//
// Entries are addressed through a Handle owned by the caller. A handle stays
// valid until the cache evicts the entry; callers check IsAllocated every
// frame and call Request on entries they still need so that end-of-frame
// eviction skips them. Eviction is least-recently-used under a byte budget.
//
// The cache also records which image resources were updated this frame, so
// that consumers can invalidate content that sampled them.
//
// Cache is not safe for concurrent use.
package texcache

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilecache/internal/lru"
	"github.com/gogpu/tilecache/scene"
)

// DefaultBudgetMB is the default texture memory budget in megabytes.
const DefaultBudgetMB = 256

const (
	bytesPerMB = 1024 * 1024
	// bytesPerPixel covers the 8-bit RGBA/BGRA formats used for tiles.
	bytesPerPixel = 4
)

// Handle refers to a cache entry. The zero Handle is never allocated.
type Handle uint64

// Descriptor describes the texture an entry needs.
type Descriptor struct {
	Size   gputypes.Extent3D
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// TileDescriptor returns the descriptor of a color tile backing store.
func TileDescriptor(width, height int) Descriptor {
	return Descriptor{
		Size: gputypes.Extent3D{
			Width:              uint32(width),  //nolint:gosec // tile sizes are small and positive
			Height:             uint32(height), //nolint:gosec // tile sizes are small and positive
			DepthOrArrayLayers: 1,
		},
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// byteSize returns the memory the descriptor occupies.
func (d Descriptor) byteSize() int64 {
	layers := int64(d.Size.DepthOrArrayLayers)
	if layers == 0 {
		layers = 1
	}
	return int64(d.Size.Width) * int64(d.Size.Height) * layers * bytesPerPixel
}

// Item is the resolved location of an entry, used as a blit target.
type Item struct {
	Texture uint32
	Rect    image.Rectangle
	Format  gputypes.TextureFormat
}

type entry struct {
	desc      Descriptor
	item      Item
	size      int64
	lastFrame uint64
	node      *lru.Node[Handle]
}

// Stats contains cache statistics.
type Stats struct {
	// Entries is the number of allocated entries.
	Entries int
	// Size is the current memory usage in bytes.
	Size int64
	// Budget is the memory budget in bytes.
	Budget int64
	// Allocations counts entries created since the cache was built.
	Allocations uint64
	// Evictions counts entries removed by the budget.
	Evictions uint64
}

// Cache is a budgeted texture cache.
type Cache struct {
	entries map[Handle]*entry
	lru     *lru.List[Handle]

	nextHandle  Handle
	nextTexture uint32
	frame       uint64
	size        int64
	budget      int64

	dirtyImages map[scene.ImageKey]struct{}

	allocations uint64
	evictions   uint64
}

// New creates a cache with a budget in megabytes. Non-positive values use
// DefaultBudgetMB.
func New(budgetMB int) *Cache {
	if budgetMB <= 0 {
		budgetMB = DefaultBudgetMB
	}
	return &Cache{
		entries:     make(map[Handle]*entry),
		lru:         lru.New[Handle](),
		budget:      int64(budgetMB) * bytesPerMB,
		dirtyImages: make(map[scene.ImageKey]struct{}),
	}
}

// BeginFrame starts a new frame and forgets last frame's image updates.
func (c *Cache) BeginFrame() {
	c.frame++
	clear(c.dirtyImages)
}

// EndFrame evicts least recently used entries until the cache fits its
// budget. Entries requested or updated during the current frame are never
// evicted.
func (c *Cache) EndFrame() {
	for n := c.lru.Back(); n != nil && c.size > c.budget; {
		prev := n.Prev()
		if e := c.entries[n.Key]; e.lastFrame != c.frame {
			c.remove(n.Key, e)
			c.evictions++
		}
		n = prev
	}
}

// IsAllocated reports whether h refers to a live entry.
func (c *Cache) IsAllocated(h Handle) bool {
	_, ok := c.entries[h]
	return ok
}

// Update allocates an entry for *h if it has none, or resizes the existing
// entry when the descriptor changed. The entry is marked as used this frame.
func (c *Cache) Update(h *Handle, desc Descriptor) {
	if e, ok := c.entries[*h]; ok {
		if e.desc != desc {
			c.size += desc.byteSize() - e.size
			e.desc = desc
			e.size = desc.byteSize()
			e.item.Rect = itemRect(desc)
			e.item.Format = desc.Format
		}
		c.touch(e)
		return
	}

	c.nextHandle++
	c.nextTexture++
	e := &entry{
		desc: desc,
		item: Item{Texture: c.nextTexture, Rect: itemRect(desc), Format: desc.Format},
		size: desc.byteSize(),
	}
	e.node = c.lru.PushFront(c.nextHandle)
	e.lastFrame = c.frame
	c.entries[c.nextHandle] = e
	c.size += e.size
	c.allocations++
	*h = c.nextHandle
}

// Request marks h as used this frame. Unknown handles are ignored.
func (c *Cache) Request(h Handle) {
	if e, ok := c.entries[h]; ok {
		c.touch(e)
	}
}

// Item returns the location of h. It panics if h is not allocated, since
// callers must check IsAllocated or call Update first.
func (c *Cache) Item(h Handle) Item {
	e, ok := c.entries[h]
	if !ok {
		panic("texcache: item requested for unallocated handle")
	}
	return e.item
}

// Evict removes h immediately.
func (c *Cache) Evict(h Handle) {
	if e, ok := c.entries[h]; ok {
		c.remove(h, e)
	}
}

// MarkImageDirty records that the pixels of key changed this frame.
func (c *Cache) MarkImageDirty(key scene.ImageKey) {
	c.dirtyImages[key] = struct{}{}
}

// IsImageDirty reports whether key was updated this frame.
func (c *Cache) IsImageDirty(key scene.ImageKey) bool {
	_, ok := c.dirtyImages[key]
	return ok
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:     len(c.entries),
		Size:        c.size,
		Budget:      c.budget,
		Allocations: c.allocations,
		Evictions:   c.evictions,
	}
}

func (c *Cache) touch(e *entry) {
	e.lastFrame = c.frame
	c.lru.MoveToFront(e.node)
}

func (c *Cache) remove(h Handle, e *entry) {
	c.lru.Remove(e.node)
	delete(c.entries, h)
	c.size -= e.size
}

func itemRect(d Descriptor) image.Rectangle {
	return image.Rect(0, 0, int(d.Size.Width), int(d.Size.Height))
}
