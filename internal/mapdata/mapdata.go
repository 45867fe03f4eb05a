// Package mapdata loads the static arena definition: world bounds, obstacles,
// initial loot, ordered spawn points and named zones.
//
// The arena ships as embedded YAML so the binary is self-contained; an external
// file can override it for custom arenas.
package mapdata

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed arena.yaml
var defaultArena []byte

// Map is the complete static arena definition.
type Map struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Obstacles   []ObstacleDef  `yaml:"obstacles"`
	Loot        []LootDef      `yaml:"loot"`
	SpawnPoints []Point        `yaml:"spawn_points"`
	Zones       map[string]Zone `yaml:"zones"`
}

// ObstacleDef describes one obstacle. X/Y is the top-left corner.
type ObstacleDef struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Destructible bool `yaml:"destructible"`
	HP           int  `yaml:"hp"`

	// Gate is set for the unlockable gate variant.
	Gate *GateDef `yaml:"gate"`
}

// GateDef carries the spoken-password unlock for gate obstacles.
type GateDef struct {
	Password string `yaml:"password"`
}

// LootDef seeds one pickup at world load.
type LootDef struct {
	Type    string  `yaml:"type"` // "weapon", "ammo", "xp_orb"
	Weapon  string  `yaml:"weapon,omitempty"`
	Caliber string  `yaml:"caliber,omitempty"`
	Count   int     `yaml:"count"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

// Point is a candidate spawn position.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Zone names a sub-range of the spawn point list. Start/End are inclusive
// indices into SpawnPoints.
type Zone struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Load returns the embedded default arena.
func Load() (*Map, error) {
	return parse(defaultArena)
}

// LoadFile loads an arena definition from an external YAML file.
func LoadFile(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("arena yaml: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Map) validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("arena bounds must be positive, got %.0fx%.0f", m.Width, m.Height)
	}
	if len(m.SpawnPoints) == 0 {
		return fmt.Errorf("arena has no spawn points")
	}
	for i, p := range m.SpawnPoints {
		if p.X < 0 || p.X > m.Width || p.Y < 0 || p.Y > m.Height {
			return fmt.Errorf("spawn point %d (%.0f,%.0f) outside arena bounds", i, p.X, p.Y)
		}
	}
	for name, z := range m.Zones {
		if z.Start < 0 || z.End >= len(m.SpawnPoints) || z.Start > z.End {
			return fmt.Errorf("zone %q index range [%d,%d] invalid for %d spawn points",
				name, z.Start, z.End, len(m.SpawnPoints))
		}
	}
	for i, o := range m.Obstacles {
		if o.Width <= 0 || o.Height <= 0 {
			return fmt.Errorf("obstacle %d has non-positive size", i)
		}
		if o.Destructible && o.HP <= 0 {
			return fmt.Errorf("destructible obstacle %d needs positive hp", i)
		}
	}
	for i, l := range m.Loot {
		switch l.Type {
		case "weapon", "ammo", "xp_orb":
		default:
			return fmt.Errorf("loot %d has unknown type %q", i, l.Type)
		}
	}
	return nil
}

// ZoneRange returns the spawn index range for a named zone, or the full range
// when zone is empty. Unknown zones fall back to the full range as well, since
// zone preference is advisory.
func (m *Map) ZoneRange(zone string) (start, end int) {
	if zone != "" {
		if z, ok := m.Zones[zone]; ok {
			return z.Start, z.End
		}
	}
	return 0, len(m.SpawnPoints) - 1
}
