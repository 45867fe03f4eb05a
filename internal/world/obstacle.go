package world

import (
	"strings"

	"agent-arena/internal/mapdata"
	"agent-arena/internal/world/spatial"
)

// Obstacle is static or destructible world geometry. Obstacles are created at
// world load and never relocated; destruction and gate toggling are the only
// mutations.
type Obstacle struct {
	ID   int
	Rect spatial.Rect

	Destructible bool
	HP           int
	Destroyed    bool

	Gate *Gate
}

// Gate is the unlockable obstacle variant. Speaking the password within
// range opens it; once unlocked it can be toggled via interaction.
type Gate struct {
	password string
	Unlocked bool
	Open     bool
}

func newObstacle(id int, def mapdata.ObstacleDef) *Obstacle {
	o := &Obstacle{
		ID:           id,
		Rect:         spatial.Rect{X: def.X, Y: def.Y, W: def.Width, H: def.Height},
		Destructible: def.Destructible,
		HP:           def.HP,
	}
	if def.Gate != nil {
		o.Gate = &Gate{password: def.Gate.Password}
	}
	return o
}

// Bounds implements spatial.Object.
func (o *Obstacle) Bounds() spatial.Rect {
	return o.Rect
}

// Solid reports whether the obstacle currently blocks movement and bullets.
func (o *Obstacle) Solid() bool {
	if o.Destroyed {
		return false
	}
	if o.Gate != nil && o.Gate.Open {
		return false
	}
	return true
}

// Damage applies damage to a destructible obstacle and reports whether it was
// destroyed by this hit. Indestructible obstacles absorb everything.
func (o *Obstacle) Damage(amount int) bool {
	if !o.Destructible || o.Destroyed {
		return false
	}
	o.HP -= amount
	if o.HP <= 0 {
		o.HP = 0
		o.Destroyed = true
		return true
	}
	return false
}

// TryUnlock opens the gate if the spoken text matches its password.
// The unlock predicate is case-insensitive and whitespace-trimmed.
func (g *Gate) TryUnlock(spoken string) bool {
	if strings.EqualFold(strings.TrimSpace(spoken), strings.TrimSpace(g.password)) {
		g.Unlocked = true
		g.Open = true
		return true
	}
	return false
}

// Toggle flips an unlocked gate between open and closed. Locked gates ignore
// interaction.
func (g *Gate) Toggle() bool {
	if !g.Unlocked {
		return false
	}
	g.Open = !g.Open
	return true
}
