package config

import "testing"

// TestDefaults verifies the baked-in defaults
func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.World.TickRate != 30 {
		t.Errorf("TickRate = %d, want 30", cfg.World.TickRate)
	}
	if cfg.World.RespawnDelay != 3.0 {
		t.Errorf("RespawnDelay = %v, want 3.0", cfg.World.RespawnDelay)
	}
	if cfg.Limits.MaxPlayers != 100 || cfg.Limits.MaxAgents != 100 {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Server.Port)
	}
}

// TestEnvOverrides verifies environment variables win over defaults
func TestEnvOverrides(t *testing.T) {
	t.Setenv("TICK_RATE", "60")
	t.Setenv("RESPAWN_DELAY", "5.5")
	t.Setenv("MAX_AGENTS", "8")
	t.Setenv("PORT", "9000")

	cfg := Load()

	if cfg.World.TickRate != 60 {
		t.Errorf("TickRate = %d, want 60", cfg.World.TickRate)
	}
	if cfg.World.RespawnDelay != 5.5 {
		t.Errorf("RespawnDelay = %v, want 5.5", cfg.World.RespawnDelay)
	}
	if cfg.Limits.MaxAgents != 8 {
		t.Errorf("MaxAgents = %d, want 8", cfg.Limits.MaxAgents)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
}

// TestEnvGarbageIgnored verifies unparseable values keep the defaults
func TestEnvGarbageIgnored(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("RESPAWN_DELAY", "soon")

	cfg := Load()

	if cfg.World.TickRate != 30 {
		t.Errorf("TickRate = %d, want default 30", cfg.World.TickRate)
	}
	if cfg.World.RespawnDelay != 3.0 {
		t.Errorf("RespawnDelay = %v, want default 3.0", cfg.World.RespawnDelay)
	}
}
