package tilecache

import "sync/atomic"

// TileID is a diagnostic identifier of a tile. Ids are never reused and
// never take part in equality or lookup.
type TileID uint64

// IDSource hands out tile ids. Implementations must return a distinct id on
// every call, including calls from different goroutines.
type IDSource interface {
	NextTileID() TileID
}

// IDCounter is an IDSource backed by an atomic counter.
// The zero value is ready to use and starts at 1.
type IDCounter struct {
	next atomic.Uint64
}

// NewIDCounter returns a fresh counter.
func NewIDCounter() *IDCounter {
	return &IDCounter{}
}

// NextTileID implements IDSource.
func (c *IDCounter) NextTileID() TileID {
	return TileID(c.next.Add(1))
}

// defaultIDs is shared by caches that do not configure their own source.
var defaultIDs IDSource = NewIDCounter()
