package mapdata

import "testing"

// TestLoadEmbedded verifies the default arena ships valid
func TestLoadEmbedded(t *testing.T) {
	m, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Width <= 0 || m.Height <= 0 {
		t.Errorf("bounds %fx%f", m.Width, m.Height)
	}
	if len(m.SpawnPoints) == 0 {
		t.Fatal("no spawn points")
	}
	if len(m.Zones) == 0 {
		t.Error("no zones defined")
	}

	gates := 0
	for _, o := range m.Obstacles {
		if o.Gate != nil {
			gates++
			if o.Gate.Password == "" {
				t.Error("gate without a password")
			}
		}
	}
	if gates == 0 {
		t.Error("default arena has no gate")
	}
}

// TestParseRejectsBadArenas verifies validation failures
func TestParseRejectsBadArenas(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no bounds", `spawn_points: [{x: 1, y: 1}]`},
		{"no spawns", `{width: 100, height: 100}`},
		{"spawn outside", `{width: 100, height: 100, spawn_points: [{x: 500, y: 1}]}`},
		{"bad zone range", `{width: 100, height: 100, spawn_points: [{x: 1, y: 1}], zones: {a: {start: 0, end: 5}}}`},
		{"zero-size obstacle", `{width: 100, height: 100, spawn_points: [{x: 1, y: 1}], obstacles: [{x: 0, y: 0, width: 0, height: 10}]}`},
		{"destructible without hp", `{width: 100, height: 100, spawn_points: [{x: 1, y: 1}], obstacles: [{x: 0, y: 0, width: 10, height: 10, destructible: true}]}`},
		{"unknown loot type", `{width: 100, height: 100, spawn_points: [{x: 1, y: 1}], loot: [{type: gold, x: 1, y: 1}]}`},
		{"not yaml", `{{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.yaml)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

// TestZoneRange verifies named lookup and the advisory fallback
func TestZoneRange(t *testing.T) {
	m, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	start, end := m.ZoneRange("zone2")
	if start != 6 || end != 11 {
		t.Errorf("zone2 range [%d,%d], want [6,11]", start, end)
	}

	// Unknown zones and the empty zone fall back to the full range.
	for _, zone := range []string{"", "atlantis"} {
		start, end = m.ZoneRange(zone)
		if start != 0 || end != len(m.SpawnPoints)-1 {
			t.Errorf("ZoneRange(%q) = [%d,%d], want full range", zone, start, end)
		}
	}
}
