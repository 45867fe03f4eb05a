package world

import (
	"math/rand"
	"testing"
)

// TestNewActorLoadout verifies the default loadout and loaded magazines
func TestNewActorLoadout(t *testing.T) {
	a := newActor("test", Vec2{X: 10, Y: 10}, "#ff0000")

	if a.Weapons != DefaultLoadout() {
		t.Errorf("loadout = %v", a.Weapons)
	}
	if a.Mag[0] != GetGun("pistol").Magazine {
		t.Errorf("pistol magazine = %d, want %d", a.Mag[0], GetGun("pistol").Magazine)
	}
	// Loading the magazine consumes reserve.
	if a.Ammo["9mm"] != 36-GetGun("pistol").Magazine {
		t.Errorf("9mm reserve = %d", a.Ammo["9mm"])
	}
	if a.HP != 100 || a.Dead {
		t.Errorf("unexpected initial state hp=%d dead=%v", a.HP, a.Dead)
	}
}

// TestTakeDamage verifies death only triggers once HP is exhausted
func TestTakeDamage(t *testing.T) {
	a := newActor("test", Vec2{}, "")

	if died := a.TakeDamage(40); died {
		t.Error("died at 60 HP")
	}
	if a.HP != 60 {
		t.Errorf("HP = %d, want 60", a.HP)
	}
	if died := a.TakeDamage(60); !died {
		t.Error("did not die at 0 HP")
	}
	if !a.Dead || !a.JustDied {
		t.Error("death markers not set")
	}
	// Damage after death is ignored.
	if died := a.TakeDamage(10); died {
		t.Error("died twice")
	}
}

// TestLevelCurve verifies the derived level
func TestLevelCurve(t *testing.T) {
	a := newActor("test", Vec2{}, "")

	tests := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
	}
	for _, tt := range tests {
		a.XP = tt.xp
		if got := a.Level(); got != tt.level {
			t.Errorf("Level() at %d XP = %d, want %d", tt.xp, got, tt.level)
		}
	}
}

// TestSwitchWeapon verifies slot toggling
func TestSwitchWeapon(t *testing.T) {
	a := newActor("test", Vec2{}, "")

	if a.ActiveGun().ID != "pistol" {
		t.Fatalf("active gun = %s", a.ActiveGun().ID)
	}
	a.SwitchWeapon()
	if a.ActiveGun().ID != "knife" {
		t.Errorf("after switch, active gun = %s", a.ActiveGun().ID)
	}
	a.SwitchWeapon()
	if a.ActiveGun().ID != "pistol" {
		t.Errorf("after second switch, active gun = %s", a.ActiveGun().ID)
	}
}

// TestReloadPartialReserve verifies reloading with less reserve than a full
// magazine
func TestReloadPartialReserve(t *testing.T) {
	a := newActor("test", Vec2{}, "")

	a.Mag[0] = 0
	a.Ammo["9mm"] = 5
	a.Reload()

	if a.Mag[0] != 5 {
		t.Errorf("magazine = %d, want 5", a.Mag[0])
	}
	if a.Ammo["9mm"] != 0 {
		t.Errorf("reserve = %d, want 0", a.Ammo["9mm"])
	}

	// Empty reserve: reload is a no-op.
	a.Reload()
	if a.Mag[0] != 5 {
		t.Errorf("magazine changed on dry reload: %d", a.Mag[0])
	}
}

// TestRangedSlotHelpers verifies slot classification and ammo checks
func TestRangedSlotHelpers(t *testing.T) {
	a := newActor("test", Vec2{}, "")

	if a.RangedSlot() != 0 {
		t.Errorf("RangedSlot() = %d, want 0", a.RangedSlot())
	}
	if a.MeleeSlot() != 1 {
		t.Errorf("MeleeSlot() = %d, want 1", a.MeleeSlot())
	}
	if !a.HasRangedAmmo(0) {
		t.Error("pistol with full magazine reported no ammo")
	}

	a.Mag[0] = 0
	a.Ammo["9mm"] = 0
	if a.HasRangedAmmo(0) {
		t.Error("dry pistol reported ammo")
	}
}

// TestRollDamage verifies damage stays inside the gun's range
func TestRollDamage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	gun := GetGun("rifle")

	for i := 0; i < 200; i++ {
		d := rollDamage(gun, rng)
		if d < gun.MinDamage || d > gun.MaxDamage {
			t.Fatalf("damage %d outside [%d,%d]", d, gun.MinDamage, gun.MaxDamage)
		}
	}
}

// TestSayAndTick verifies the speech annotation expires
func TestSayAndTick(t *testing.T) {
	a := newActor("test", Vec2{}, "")

	a.Say("hello", 0.1)
	if a.Speech != "hello" {
		t.Fatalf("speech = %q", a.Speech)
	}
	for i := 0; i < 10; i++ {
		a.tickTimers(1.0 / 30.0)
	}
	if a.Speech != "" {
		t.Errorf("speech %q did not expire", a.Speech)
	}
}
