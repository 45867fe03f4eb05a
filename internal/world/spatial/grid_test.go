package spatial

import "testing"

type box struct {
	r Rect
}

func (b *box) Bounds() Rect { return b.r }

// TestRectIntersects verifies overlap detection including touching edges
func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}

	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlapping", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"contained", Rect{X: 2, Y: 2, W: 4, H: 4}, true},
		{"disjoint", Rect{X: 20, Y: 20, W: 5, H: 5}, false},
		{"touching edge", Rect{X: 10, Y: 0, W: 5, H: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects(%v) = %v, want %v", tt.b, got, tt.want)
			}
		})
	}
}

// TestGridAddRemove verifies registration lifecycle
func TestGridAddRemove(t *testing.T) {
	g := NewGrid(1000, 1000, 100)

	b := &box{r: Rect{X: 150, Y: 150, W: 20, H: 20}}
	g.AddObject(b)

	if !g.Contains(b) {
		t.Fatal("grid should contain the object after AddObject")
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}

	g.RemoveObject(b)
	if g.Contains(b) {
		t.Error("grid should not contain the object after RemoveObject")
	}
	if hits := g.IntersectsHitbox(b.r); len(hits) != 0 {
		t.Errorf("removed object still returned by query: %v", hits)
	}

	// Removing twice is a no-op
	g.RemoveObject(b)
}

// TestGridReAddMovesObject verifies that re-adding after a position change
// refreshes the cell registration instead of leaving dangling entries
func TestGridReAddMovesObject(t *testing.T) {
	g := NewGrid(1000, 1000, 100)

	b := &box{r: Rect{X: 50, Y: 50, W: 20, H: 20}}
	g.AddObject(b)

	oldBounds := b.r
	b.r = Rect{X: 850, Y: 850, W: 20, H: 20}
	g.AddObject(b)

	if len(g.IntersectsHitbox(oldBounds)) != 0 {
		t.Error("stale registration at old position")
	}
	if len(g.IntersectsHitbox(b.r)) != 1 {
		t.Error("object not found at new position")
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after re-add", g.Len())
	}
}

// TestGridSpanningObject verifies objects covering multiple cells are found
// from every covered cell
func TestGridSpanningObject(t *testing.T) {
	g := NewGrid(1000, 1000, 100)

	wall := &box{r: Rect{X: 90, Y: 90, W: 300, H: 20}}
	g.AddObject(wall)

	probes := []Rect{
		{X: 95, Y: 95, W: 5, H: 5},
		{X: 250, Y: 95, W: 5, H: 5},
		{X: 380, Y: 95, W: 5, H: 5},
	}
	for _, p := range probes {
		if len(g.IntersectsHitbox(p)) != 1 {
			t.Errorf("probe %v missed the spanning object", p)
		}
	}
}

// TestGridQueryRadius verifies the distance filter
func TestGridQueryRadius(t *testing.T) {
	g := NewGrid(1000, 1000, 100)

	near := &box{r: Rect{X: 495, Y: 495, W: 10, H: 10}}
	far := &box{r: Rect{X: 900, Y: 900, W: 10, H: 10}}
	g.AddObject(near)
	g.AddObject(far)

	hits := g.IntersectsHitbox(Rect{X: 0, Y: 0, W: 1000, H: 1000})
	if len(hits) != 2 {
		t.Fatalf("full-area query returned %d objects, want 2", len(hits))
	}

	inRange := g.QueryRadius(500, 500, 50)
	if len(inRange) != 1 {
		t.Fatalf("QueryRadius returned %d objects, want 1", len(inRange))
	}
	if inRange[0] != Object(near) {
		t.Error("QueryRadius returned the wrong object")
	}
}

// TestGridOutOfBounds verifies clamping of queries outside the world
func TestGridOutOfBounds(t *testing.T) {
	g := NewGrid(500, 500, 100)

	b := &box{r: Rect{X: 10, Y: 10, W: 20, H: 20}}
	g.AddObject(b)

	if hits := g.IntersectsHitbox(Rect{X: -100, Y: -100, W: 150, H: 150}); len(hits) != 1 {
		t.Errorf("query crossing the world edge returned %d objects, want 1", len(hits))
	}
	if hits := g.IntersectsHitbox(Rect{X: 600, Y: 600, W: 50, H: 50}); len(hits) != 0 {
		t.Errorf("query fully outside returned %d objects, want 0", len(hits))
	}
}
