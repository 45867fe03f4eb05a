package world

import (
	"math"

	"github.com/google/uuid"

	"agent-arena/internal/world/spatial"
)

const bulletSize = 8.0

// Bullet is a transient projectile. Bullets live in the world's bullet list
// only; they are resolved against the grid each tick and are never registered
// in it themselves.
type Bullet struct {
	ID      string
	Pos     Vec2
	Origin  Vec2
	Vel     Vec2 // units per second
	Gun     Gun
	Shooter entity
	Damage  int
}

func (b *Bullet) bounds() spatial.Rect {
	return spatial.Rect{
		X: b.Pos.X - bulletSize/2,
		Y: b.Pos.Y - bulletSize/2,
		W: bulletSize,
		H: bulletSize,
	}
}

// CreateBullet spawns one bullet from the shooter's position toward dir.
// The caller holds the world lock.
func (w *World) createBullet(shooter entity, gun Gun, dir Vec2, damage int) {
	if len(w.bullets) >= w.limits.MaxBullets {
		return
	}
	dir = dir.Normalize()
	if dir.Len() == 0 {
		return
	}
	a := shooter.base()
	// Muzzle offset keeps the bullet from immediately colliding with the
	// shooter's own hitbox.
	start := a.Pos.Add(dir.Scale(ActorSize))

	w.bullets = append(w.bullets, &Bullet{
		ID:      uuid.NewString(),
		Pos:     start,
		Origin:  start,
		Vel:     dir.Scale(gun.Speed),
		Gun:     gun,
		Shooter: shooter,
		Damage:  damage,
	})
}

// advanceBullet moves a bullet one tick and resolves collisions against
// obstacles and actors. It returns false when the bullet is spent.
//
// Fast bullets are advanced in sub-steps so they cannot tunnel through thin
// walls between ticks.
func (w *World) advanceBullet(b *Bullet, dt float64) bool {
	move := b.Vel.Scale(dt)
	dist := move.Len()
	steps := int(math.Ceil(dist / (bulletSize * 2)))
	if steps < 1 {
		steps = 1
	}
	step := move.Scale(1.0 / float64(steps))

	for i := 0; i < steps; i++ {
		b.Pos = b.Pos.Add(step)

		if b.Pos.DistanceTo(b.Origin) > b.Gun.Range {
			return false
		}
		if b.Pos.X < 0 || b.Pos.X > w.arena.Width || b.Pos.Y < 0 || b.Pos.Y > w.arena.Height {
			return false
		}

		for _, obj := range w.grid.IntersectsHitbox(b.bounds()) {
			switch hit := obj.(type) {
			case *Obstacle:
				if !hit.Solid() {
					continue
				}
				if hit.Damage(b.Damage) {
					w.grid.RemoveObject(hit)
				}
				return false
			case entity:
				if hit == b.Shooter {
					continue
				}
				victim := hit.base()
				if victim.Dead {
					continue
				}
				if victim.TakeDamage(b.Damage) {
					w.onActorDeath(hit, b.Shooter)
				}
				return false
			}
		}
	}
	return true
}
