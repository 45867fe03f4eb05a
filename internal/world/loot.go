package world

import (
	"github.com/google/uuid"

	"agent-arena/internal/mapdata"
	"agent-arena/internal/world/spatial"
)

// LootType tags what a pickup grants.
type LootType string

const (
	LootWeapon LootType = "weapon"
	LootAmmo   LootType = "ammo"
	LootXPOrb  LootType = "xp_orb"
)

const lootSize = 20.0

// Loot is a pickup in the world. Picked loot is marked dead and removed from
// the grid; the world prunes dead loot from its list each tick.
type Loot struct {
	ID      string
	Type    LootType
	Weapon  string // gun id for LootWeapon
	Caliber string // for LootAmmo
	Count   int
	Pos     Vec2
	Picked  bool
}

func newLoot(def mapdata.LootDef) *Loot {
	return &Loot{
		ID:      uuid.NewString(),
		Type:    LootType(def.Type),
		Weapon:  def.Weapon,
		Caliber: def.Caliber,
		Count:   def.Count,
		Pos:     Vec2{X: def.X, Y: def.Y},
	}
}

// newXPOrb creates a dynamically dropped experience orb.
func newXPOrb(pos Vec2, count int) *Loot {
	return &Loot{
		ID:    uuid.NewString(),
		Type:  LootXPOrb,
		Count: count,
		Pos:   pos,
	}
}

// Bounds implements spatial.Object.
func (l *Loot) Bounds() spatial.Rect {
	return spatial.Rect{
		X: l.Pos.X - lootSize/2,
		Y: l.Pos.Y - lootSize/2,
		W: lootSize,
		H: lootSize,
	}
}

// apply grants the pickup to an actor. Weapon loot replaces the inactive
// slot; ammo goes to the caliber reserve; orbs grant experience.
func (l *Loot) apply(a *Actor) {
	switch l.Type {
	case LootWeapon:
		slot := 1 - a.ActiveSlot
		a.Weapons[slot] = l.Weapon
		a.Mag[slot] = 0
	case LootAmmo:
		a.Ammo[l.Caliber] += l.Count
	case LootXPOrb:
		a.GainXP(l.Count)
	}
	l.Picked = true
}
