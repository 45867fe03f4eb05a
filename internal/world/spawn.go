package world

import (
	"fmt"
	"math"
	"math/rand"

	"agent-arena/internal/mapdata"
)

const (
	respawnBandMin   = 200.0 // inner radius of the respawn ring around center
	respawnBandMax   = 600.0
	respawnAttempts  = 24
	spawnProbeMargin = 4.0 // extra clearance around the spawn hitbox
)

// spawnPicker walks the ordered spawn point list, skipping used indices.
// When every index in the requested range has been used the tracker resets
// and duplicates become possible.
type spawnPicker struct {
	points []mapdata.Point
	used   map[int]bool
}

func newSpawnPicker(points []mapdata.Point) *spawnPicker {
	return &spawnPicker{
		points: points,
		used:   make(map[int]bool),
	}
}

// pick returns the first free, collision-free spawn point with index in
// [start, end]. blocked reports whether a candidate position collides.
func (s *spawnPicker) pick(start, end int, blocked func(Vec2) bool) (Vec2, bool) {
	for pass := 0; pass < 2; pass++ {
		for i := start; i <= end; i++ {
			if s.used[i] {
				continue
			}
			p := Vec2{X: s.points[i].X, Y: s.points[i].Y}
			if blocked(p) {
				continue
			}
			s.used[i] = true
			return p, true
		}
		// Range exhausted: reset used tracking for it and retry once,
		// accepting duplicate spawn slots.
		for i := start; i <= end; i++ {
			delete(s.used, i)
		}
	}
	return Vec2{}, false
}

// release frees a spawn slot index so it can be handed out again.
// Spawn slots are the only ids the world ever recycles.
func (s *spawnPicker) release(p Vec2) {
	for i, pt := range s.points {
		if pt.X == p.X && pt.Y == p.Y {
			delete(s.used, i)
			return
		}
	}
}

// colorPool hands out display colors from a fixed palette, recycling released
// colors. When the palette is exhausted it falls back to random colors.
type colorPool struct {
	palette []string
	inUse   map[string]bool
	rng     *rand.Rand
}

var actorPalette = []string{
	"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4",
	"#ffeaa7", "#dfe6e9", "#fd79a8", "#00b894",
	"#6c5ce7", "#fdcb6e", "#e17055", "#00cec9",
}

func newColorPool(rng *rand.Rand) *colorPool {
	return &colorPool{
		palette: actorPalette,
		inUse:   make(map[string]bool),
		rng:     rng,
	}
}

// acquire returns an unused palette color, or a random color once the
// palette is exhausted. Two live actors never share a color while the
// palette has unused entries.
func (c *colorPool) acquire() string {
	for _, col := range c.palette {
		if !c.inUse[col] {
			c.inUse[col] = true
			return col
		}
	}
	return fmt.Sprintf("#%06x", c.rng.Intn(0x1000000))
}

// release returns a color to the pool. Random fallback colors are simply
// forgotten.
func (c *colorPool) release(col string) {
	delete(c.inUse, col)
}

// respawnPoint samples a random angle/radius band around the map center,
// rejecting points outside bounds or colliding with obstacles. After the
// attempt budget it falls back to the exact center.
func (w *World) respawnPoint() Vec2 {
	center := Vec2{X: w.arena.Width / 2, Y: w.arena.Height / 2}
	for i := 0; i < respawnAttempts; i++ {
		angle := w.rng.Float64() * 2 * math.Pi
		radius := respawnBandMin + w.rng.Float64()*(respawnBandMax-respawnBandMin)
		p := Vec2{
			X: center.X + math.Cos(angle)*radius,
			Y: center.Y + math.Sin(angle)*radius,
		}
		if p.X < ActorSize || p.X > w.arena.Width-ActorSize ||
			p.Y < ActorSize || p.Y > w.arena.Height-ActorSize {
			continue
		}
		if w.spawnBlocked(p) {
			continue
		}
		return p
	}
	return center
}

// spawnBlocked reports whether an actor hitbox at p would overlap a solid
// obstacle.
func (w *World) spawnBlocked(p Vec2) bool {
	probe := (&Actor{Pos: p}).Bounds()
	probe.X -= spawnProbeMargin
	probe.Y -= spawnProbeMargin
	probe.W += spawnProbeMargin * 2
	probe.H += spawnProbeMargin * 2
	for _, obj := range w.grid.IntersectsHitbox(probe) {
		if o, ok := obj.(*Obstacle); ok && o.Solid() {
			return true
		}
	}
	return false
}
