package world

import (
	"math/rand"
	"time"

	"agent-arena/internal/world/spatial"
)

const (
	// ActorSize is the side length of an actor's square hitbox.
	ActorSize = 32.0

	// XPPerLevel controls the derived level curve.
	XPPerLevel = 100

	// KillXP is awarded to the shooter when a victim dies.
	KillXP = 50
)

// Actor is the shared shape of human players and autonomous agents: a movable,
// healthed entity with a two-slot loadout and per-caliber ammo reserve.
//
// Lifecycle: alive -> dead -> scheduled-respawn -> alive. Death never removes
// an actor from the world; only explicit removal (disconnect, deregistration)
// does.
type Actor struct {
	Name  string
	Pos   Vec2
	HP    int
	MaxHP int

	Weapons    [2]string
	ActiveSlot int
	Mag        [2]int         // rounds loaded per slot (melee slots stay 0)
	Ammo       map[string]int // reserve by caliber

	XP    int
	Color string

	Dead     bool
	JustDied bool
	// RespawnAt is the scheduled respawn instant; zero means no deadline has
	// been recorded yet.
	RespawnAt time.Time

	Aim       Vec2 // facing/aim point in world coordinates
	Attacking bool
	Cooldown  float64 // seconds until the active gun may fire again

	Speech    string
	SpeechTTL float64

	PickupIntent bool
}

func newActor(name string, pos Vec2, color string) Actor {
	loadout := DefaultLoadout()
	a := Actor{
		Name:    name,
		Pos:     pos,
		HP:      100,
		MaxHP:   100,
		Weapons: loadout,
		Ammo:    DefaultAmmo(),
		Color:   color,
	}
	for slot, id := range loadout {
		a.loadMagazine(slot, GetGun(id))
	}
	return a
}

// Bounds returns the actor's hitbox centered on its position.
func (a *Actor) Bounds() spatial.Rect {
	return spatial.Rect{
		X: a.Pos.X - ActorSize/2,
		Y: a.Pos.Y - ActorSize/2,
		W: ActorSize,
		H: ActorSize,
	}
}

// Level is derived from accumulated experience.
func (a *Actor) Level() int {
	return 1 + a.XP/XPPerLevel
}

// ActiveGun returns the gun in the active slot.
func (a *Actor) ActiveGun() Gun {
	return GetGun(a.Weapons[a.ActiveSlot])
}

// SwitchWeapon toggles the active slot.
func (a *Actor) SwitchWeapon() {
	a.ActiveSlot = 1 - a.ActiveSlot
}

// GainXP adds experience.
func (a *Actor) GainXP(n int) {
	if n > 0 {
		a.XP += n
	}
}

// TakeDamage applies damage and reports whether the actor just died.
func (a *Actor) TakeDamage(amount int) bool {
	if a.Dead {
		return false
	}
	a.HP -= amount
	if a.HP <= 0 {
		a.HP = 0
		a.Dead = true
		a.JustDied = true
		a.Attacking = false
		return true
	}
	return false
}

// respawnAt brings the actor back to life at pos with full health. Weapons,
// ammo and experience survive death.
func (a *Actor) respawnAt(pos Vec2) {
	a.Pos = pos
	a.HP = a.MaxHP
	a.Dead = false
	a.JustDied = false
	a.RespawnAt = time.Time{}
	a.Cooldown = 0
	a.Attacking = false
}

// Say attaches a transient speech annotation for client display.
func (a *Actor) Say(text string, ttl float64) {
	a.Speech = text
	a.SpeechTTL = ttl
}

// HasRangedAmmo reports whether the given ranged gun can still fire,
// counting both the loaded magazine and the caliber reserve.
func (a *Actor) HasRangedAmmo(slot int) bool {
	gun := GetGun(a.Weapons[slot])
	if gun.Melee {
		return false
	}
	return a.Mag[slot] > 0 || a.Ammo[gun.Caliber] > 0
}

// RangedSlot returns the slot holding a ranged gun, or -1 if both are melee.
func (a *Actor) RangedSlot() int {
	for slot, id := range a.Weapons {
		if !GetGun(id).Melee {
			return slot
		}
	}
	return -1
}

// MeleeSlot returns the slot holding a melee gun, or -1 if both are ranged.
func (a *Actor) MeleeSlot() int {
	for slot, id := range a.Weapons {
		if GetGun(id).Melee {
			return slot
		}
	}
	return -1
}

// Reload refills the active magazine from the caliber reserve. Partial
// reloads are allowed; reloading a melee weapon or with an empty reserve is a
// no-op.
func (a *Actor) Reload() {
	gun := a.ActiveGun()
	if gun.Melee {
		return
	}
	need := gun.Magazine - a.Mag[a.ActiveSlot]
	if need <= 0 {
		return
	}
	have := a.Ammo[gun.Caliber]
	if have <= 0 {
		return
	}
	take := need
	if take > have {
		take = have
	}
	a.Mag[a.ActiveSlot] += take
	a.Ammo[gun.Caliber] -= take
}

func (a *Actor) loadMagazine(slot int, gun Gun) {
	if gun.Melee {
		return
	}
	take := gun.Magazine
	if have := a.Ammo[gun.Caliber]; take > have {
		take = have
	}
	a.Mag[slot] = take
	a.Ammo[gun.Caliber] -= take
}

// rollDamage picks a damage value in the gun's range.
func rollDamage(gun Gun, rng *rand.Rand) int {
	spread := gun.MaxDamage - gun.MinDamage
	if spread <= 0 {
		return gun.MinDamage
	}
	return gun.MinDamage + rng.Intn(spread+1)
}

// tickTimers advances per-second timers by dt.
func (a *Actor) tickTimers(dt float64) {
	if a.Cooldown > 0 {
		a.Cooldown -= dt
	}
	if a.SpeechTTL > 0 {
		a.SpeechTTL -= dt
		if a.SpeechTTL <= 0 {
			a.Speech = ""
		}
	}
}
