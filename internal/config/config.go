// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation and server settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// WORLD / SIMULATION CONFIGURATION
// =============================================================================

// WorldConfig holds simulation settings shared between the tick engine and
// the network layer.
type WorldConfig struct {
	TickRate     int     // Simulation ticks per second
	RespawnDelay float64 // Seconds a dead actor waits before respawning
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		TickRate:     30,
		RespawnDelay: 3.0,
	}
}

// WorldFromEnv returns world configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if rd := getEnvFloat("RESPAWN_DELAY", 0); rd > 0 {
		cfg.RespawnDelay = rd
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// LimitsConfig controls DoS protection and performance limits.
type LimitsConfig struct {
	MaxPlayers        int // Hard cap on connected human players
	MaxAgents         int // Hard cap on registered autonomous agents
	MaxSpectators     int // Hard cap on spectator connections
	MaxBullets        int // Maximum in-flight bullets
	MaxConnsPerIP     int // Concurrent streaming connections per source IP
	MaxSpeechLen      int // Speech annotation length cap
	RequestsPerSecond float64
	RequestBurst      int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxPlayers:        100,
		MaxAgents:         100,
		MaxSpectators:     200,
		MaxBullets:        256,
		MaxConnsPerIP:     10,
		MaxSpeechLen:      120,
		RequestsPerSecond: 20,
		RequestBurst:      40,
	}
}

// LimitsFromEnv returns limits with environment variable overrides.
func LimitsFromEnv() LimitsConfig {
	cfg := DefaultLimits()

	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}
	if ma := getEnvInt("MAX_AGENTS", 0); ma > 0 {
		cfg.MaxAgents = ma
	}
	if mc := getEnvInt("MAX_CONNS_PER_IP", 0); mc > 0 {
		cfg.MaxConnsPerIP = mc
	}
	if rps := getEnvFloat("REQUESTS_PER_SECOND", 0); rps > 0 {
		cfg.RequestsPerSecond = rps
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 8000,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World  WorldConfig
	Server ServerConfig
	Limits LimitsConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:  WorldFromEnv(),
		Server: ServerFromEnv(),
		Limits: LimitsFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
