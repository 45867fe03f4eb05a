package world

// Gun represents a weapon configuration. Melee guns have no caliber and hit
// directly; ranged guns spawn bullets and draw from the per-caliber ammo pool.
type Gun struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Melee     bool    `json:"melee"`
	Caliber   string  `json:"caliber,omitempty"`
	MinDamage int     `json:"minDamage"`
	MaxDamage int     `json:"maxDamage"`
	Range     float64 `json:"range"`    // melee reach or bullet travel distance
	Cooldown  float64 `json:"cooldown"` // seconds between attacks
	Magazine  int     `json:"magazine"` // rounds per reload, 0 for melee
	Pellets   int     `json:"pellets"`  // bullets per shot, 0 means 1
	Speed     float64 `json:"speed"`    // bullet speed, units per second
	Color     string  `json:"color"`
}

// Guns is the table of all available weapons.
var Guns = map[string]Gun{
	"knife": {
		ID:        "knife",
		Name:      "Knife",
		Melee:     true,
		MinDamage: 12,
		MaxDamage: 22,
		Range:     55,
		Cooldown:  0.35,
		Color:     "#9e9e9e",
	},
	"machete": {
		ID:        "machete",
		Name:      "Machete",
		Melee:     true,
		MinDamage: 18,
		MaxDamage: 32,
		Range:     70,
		Cooldown:  0.5,
		Color:     "#607d8b",
	},
	"pistol": {
		ID:        "pistol",
		Name:      "Pistol",
		Caliber:   "9mm",
		MinDamage: 10,
		MaxDamage: 18,
		Range:     600,
		Cooldown:  0.4,
		Magazine:  12,
		Speed:     900,
		Color:     "#ffeb3b",
	},
	"rifle": {
		ID:        "rifle",
		Name:      "Rifle",
		Caliber:   "7.62mm",
		MinDamage: 18,
		MaxDamage: 30,
		Range:     900,
		Cooldown:  0.25,
		Magazine:  20,
		Speed:     1400,
		Color:     "#2196f3",
	},
	"shotgun": {
		ID:        "shotgun",
		Name:      "Shotgun",
		Caliber:   "12ga",
		MinDamage: 6,
		MaxDamage: 12,
		Range:     280,
		Cooldown:  0.9,
		Magazine:  6,
		Pellets:   5,
		Speed:     750,
		Color:     "#ff5722",
	},
}

// GetGun returns a gun by ID, defaulting to the knife.
func GetGun(id string) Gun {
	if g, ok := Guns[id]; ok {
		return g
	}
	return Guns["knife"]
}

// GetAllGuns returns all guns as a slice.
func GetAllGuns() []Gun {
	guns := make([]Gun, 0, len(Guns))
	for _, g := range Guns {
		guns = append(guns, g)
	}
	return guns
}

// DefaultLoadout is the two-slot loadout every actor spawns with.
func DefaultLoadout() [2]string {
	return [2]string{"pistol", "knife"}
}

// DefaultAmmo is the starting reserve by caliber.
func DefaultAmmo() map[string]int {
	return map[string]int{
		"9mm":    36,
		"7.62mm": 0,
		"12ga":   0,
	}
}
