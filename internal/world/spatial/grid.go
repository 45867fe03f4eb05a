// Package spatial provides the cell grid used for broad-phase collision
// detection and neighbor queries.
//
// Unlike a per-tick rebuilt index, registrations here are persistent: every
// collidable object is inserted once and must be removed explicitly before it
// is mutated out of existence. A dangling entry is a correctness bug.
package spatial

import "math"

// Rect is an axis-aligned hitbox. X/Y is the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Intersects reports whether two rects overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Center returns the rect midpoint.
func (r Rect) Center() (x, y float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Object is anything the grid can index. Bounds must stay stable between
// RemoveObject/AddObject pairs; callers re-register after moving an object.
type Object interface {
	Bounds() Rect
}

// Grid partitions the world rectangle into fixed-size cells. Objects may span
// several cells; the grid keeps an object→cells index so removal is exact.
//
// Memory layout mirrors row-major cells[row*cols+col].
type Grid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       []map[Object]struct{}
	where       map[Object][]int // object -> occupied cell indices
	scratch     []Object         // reusable query buffer
}

// NewGrid creates a grid covering worldWidth x worldHeight. cellSize should be
// close to the largest common query radius.
func NewGrid(worldWidth, worldHeight, cellSize float64) *Grid {
	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldHeight / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([]map[Object]struct{}, cols*rows)
	for i := range cells {
		cells[i] = make(map[Object]struct{})
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		where:       make(map[Object][]int),
		scratch:     make([]Object, 0, 64),
	}
}

// AddObject registers an object in every cell its bounds touch.
// Re-adding an already registered object first removes the old registration,
// so movers can call AddObject after each position change.
func (g *Grid) AddObject(o Object) {
	if _, ok := g.where[o]; ok {
		g.RemoveObject(o)
	}

	idxs := g.cellRange(o.Bounds())
	for _, idx := range idxs {
		g.cells[idx][o] = struct{}{}
	}
	g.where[o] = idxs
}

// RemoveObject deregisters an object. Removing an unknown object is a no-op.
func (g *Grid) RemoveObject(o Object) {
	idxs, ok := g.where[o]
	if !ok {
		return
	}
	for _, idx := range idxs {
		delete(g.cells[idx], o)
	}
	delete(g.where, o)
}

// Contains reports whether the object is currently registered.
func (g *Grid) Contains(o Object) bool {
	_, ok := g.where[o]
	return ok
}

// Len returns the number of registered objects.
func (g *Grid) Len() int {
	return len(g.where)
}

// IntersectsHitbox returns every registered object whose bounds overlap hb.
//
// IMPORTANT: the returned slice is reused on subsequent calls; copy it if
// results must persist across queries.
func (g *Grid) IntersectsHitbox(hb Rect) []Object {
	g.scratch = g.scratch[:0]
	seen := map[Object]struct{}{}

	for _, idx := range g.cellRange(hb) {
		for o := range g.cells[idx] {
			if _, dup := seen[o]; dup {
				continue
			}
			seen[o] = struct{}{}
			if o.Bounds().Intersects(hb) {
				g.scratch = append(g.scratch, o)
			}
		}
	}
	return g.scratch
}

// QueryRadius returns every registered object whose center lies within radius
// of (cx, cy). Shares the scratch buffer with IntersectsHitbox.
func (g *Grid) QueryRadius(cx, cy, radius float64) []Object {
	g.scratch = g.scratch[:0]
	seen := map[Object]struct{}{}

	bounds := Rect{X: cx - radius, Y: cy - radius, W: radius * 2, H: radius * 2}
	for _, idx := range g.cellRange(bounds) {
		for o := range g.cells[idx] {
			if _, dup := seen[o]; dup {
				continue
			}
			seen[o] = struct{}{}
			ox, oy := o.Bounds().Center()
			dx, dy := ox-cx, oy-cy
			if dx*dx+dy*dy <= radius*radius {
				g.scratch = append(g.scratch, o)
			}
		}
	}
	return g.scratch
}

// cellRange computes the cell indices covered by a rect, clamped to grid
// bounds.
func (g *Grid) cellRange(r Rect) []int {
	minCol := int(r.X * g.invCellSize)
	maxCol := int((r.X + r.W) * g.invCellSize)
	minRow := int(r.Y * g.invCellSize)
	maxRow := int((r.Y + r.H) * g.invCellSize)

	if minCol < 0 {
		minCol = 0
	}
	if maxCol >= g.cols {
		maxCol = g.cols - 1
	}
	if minRow < 0 {
		minRow = 0
	}
	if maxRow >= g.rows {
		maxRow = g.rows - 1
	}

	idxs := make([]int, 0, (maxRow-minRow+1)*(maxCol-minCol+1))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idxs = append(idxs, row*g.cols+col)
		}
	}
	return idxs
}
