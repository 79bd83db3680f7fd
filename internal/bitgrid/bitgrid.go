// Package bitgrid provides a packed boolean flag per cell of a tile grid.
//
// The tile cache uses it to remember which tiles are still candidates for
// the dirty-rectangle scan. Cells are addressed as (x, y) and stored
// row-major, one bit per cell, 64 cells per word.
//
// A Grid is not safe for concurrent use.
package bitgrid

// Grid is a width×height bitmap.
type Grid struct {
	// Bit index = y*width + x, word = index/64, bit = index%64.
	words  []uint64
	width  int
	height int
}

// New returns a cleared grid. Non-positive dimensions produce an empty grid
// on which every lookup reports false.
func New(width, height int) *Grid {
	g := &Grid{}
	g.Resize(width, height)
	return g
}

// Resize changes the dimensions and clears every cell. The backing storage
// is reused when it is large enough.
func (g *Grid) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		width, height = 0, 0
	}
	n := (width*height + 63) / 64
	if cap(g.words) >= n {
		g.words = g.words[:n]
		clear(g.words)
	} else {
		g.words = make([]uint64, n)
	}
	g.width = width
	g.height = height
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Set marks cell (x, y). Out-of-range cells are ignored.
func (g *Grid) Set(x, y int) {
	if !g.inBounds(x, y) {
		return
	}
	idx := y*g.width + x
	g.words[idx/64] |= 1 << (idx & 63)
}

// Unset clears cell (x, y). Out-of-range cells are ignored.
func (g *Grid) Unset(x, y int) {
	if !g.inBounds(x, y) {
		return
	}
	idx := y*g.width + x
	g.words[idx/64] &^= 1 << (idx & 63)
}

// IsSet reports whether cell (x, y) is marked. Out-of-range cells report
// false, which lets scans run one step past the grid edge.
func (g *Grid) IsSet(x, y int) bool {
	if !g.inBounds(x, y) {
		return false
	}
	idx := y*g.width + x
	return g.words[idx/64]&(1<<(idx&63)) != 0
}

// Reset clears every cell.
func (g *Grid) Reset() {
	clear(g.words)
}

// IsEmpty reports whether no cell is marked.
func (g *Grid) IsEmpty() bool {
	for _, w := range g.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }
