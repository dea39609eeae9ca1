package core

import "testing"

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Rect
		expected bool
	}{
		{"overlapping", NewRect(0, 0, 10, 10), NewRect(5, 5, 10, 10), true},
		{"separated horizontally", NewRect(0, 0, 10, 10), NewRect(15, 0, 10, 10), false},
		{"separated vertically", NewRect(0, 0, 10, 10), NewRect(0, 15, 10, 10), false},
		{"adjacent edges do not overlap", NewRect(0, 0, 10, 10), NewRect(10, 0, 10, 10), false},
		{"contained", NewRect(0, 0, 20, 20), NewRect(5, 5, 5, 5), true},
		{"single cell overlap", NewRect(0, 0, 10, 10), NewRect(9, 9, 10, 10), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Intersects(tc.b); got != tc.expected {
				t.Errorf("Intersects() = %v, expected %v", got, tc.expected)
			}
			if got := tc.b.Intersects(tc.a); got != tc.expected {
				t.Errorf("Intersects() (reversed) = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestRectExpand(t *testing.T) {
	r := NewRect(5, 5, 2, 2)
	e := r.Expand(3)

	if e.X != 2 || e.Y != 2 || e.W != 8 || e.H != 8 {
		t.Errorf("Expand(3) = %+v, expected {2 2 8 8}", e)
	}

	// A rect outside the original but inside the expanded radius.
	coin := NewRect(8, 5, 1, 1)
	if r.Intersects(coin) {
		t.Error("coin should not intersect the unexpanded rect")
	}
	if !e.Intersects(coin) {
		t.Error("coin should intersect the expanded rect")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tc := range tests {
		if got := Clamp(tc.val, tc.min, tc.max); got != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.min, tc.max, got, tc.expected)
		}
	}
}

func TestClampF(t *testing.T) {
	if got := ClampF(-1.5, 0, 3); got != 0 {
		t.Errorf("ClampF(-1.5, 0, 3) = %f, expected 0", got)
	}
	if got := ClampF(4.2, 0, 3); got != 3 {
		t.Errorf("ClampF(4.2, 0, 3) = %f, expected 3", got)
	}
}
