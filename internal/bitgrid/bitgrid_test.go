package bitgrid

import "testing"

// =============================================================================
// Grid Basic Tests
// =============================================================================

func TestGrid_New(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"small", 4, 3, 4, 3},
		{"partial word", 10, 7, 10, 7},
		{"exactly 64", 8, 8, 8, 8},
		{"zero width", 0, 5, 0, 0},
		{"negative", -1, 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.width, tt.height)
			if g.Width() != tt.wantW || g.Height() != tt.wantH {
				t.Errorf("New(%d, %d) size = %dx%d, want %dx%d",
					tt.width, tt.height, g.Width(), g.Height(), tt.wantW, tt.wantH)
			}
			if !g.IsEmpty() {
				t.Error("new grid should be empty")
			}
		})
	}
}

func TestGrid_SetUnset(t *testing.T) {
	g := New(10, 10)

	g.Set(3, 7)
	if !g.IsSet(3, 7) {
		t.Error("IsSet(3, 7) = false after Set")
	}
	if g.IsSet(7, 3) {
		t.Error("IsSet(7, 3) = true, want false")
	}
	if g.IsEmpty() {
		t.Error("IsEmpty() = true after Set")
	}

	g.Unset(3, 7)
	if g.IsSet(3, 7) {
		t.Error("IsSet(3, 7) = true after Unset")
	}
}

func TestGrid_OutOfBounds(t *testing.T) {
	g := New(4, 4)

	// These should not panic and should be no-ops
	g.Set(-1, 0)
	g.Set(0, -1)
	g.Set(4, 0)
	g.Set(0, 4)

	if !g.IsEmpty() {
		t.Error("out of bounds sets should not mark any cell")
	}
	if g.IsSet(4, 0) || g.IsSet(0, 4) {
		t.Error("out of bounds cells must report false")
	}
}

func TestGrid_WordBoundary(t *testing.T) {
	g := New(70, 2)
	g.Set(69, 1)
	g.Set(65, 0)

	for _, c := range [][2]int{{69, 1}, {65, 0}} {
		if !g.IsSet(c[0], c[1]) {
			t.Errorf("IsSet(%d, %d) = false", c[0], c[1])
		}
	}
	g.Unset(69, 1)
	g.Unset(65, 0)
	if !g.IsEmpty() {
		t.Error("grid not empty after unsetting every cell")
	}
}

func TestGrid_ResizeClears(t *testing.T) {
	g := New(8, 8)
	g.Set(1, 1)
	g.Resize(4, 4)

	if !g.IsEmpty() {
		t.Error("Resize should clear the grid")
	}
	g.Set(3, 3)
	if !g.IsSet(3, 3) {
		t.Error("IsSet(3, 3) = false after Resize and Set")
	}

	g.Reset()
	if !g.IsEmpty() {
		t.Error("IsEmpty() = false after Reset")
	}
}
