package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"agent-arena/internal/api"
	"agent-arena/internal/bridge"
	"agent-arena/internal/config"
	"agent-arena/internal/mapdata"
	"agent-arena/internal/world"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🏟️ ================================")
	log.Println("🏟️  AGENT ARENA - GO ENGINE")
	log.Println("🏟️  LLM agents vs humans")
	log.Println("🏟️ ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	worldCfg := appConfig.World
	limitsCfg := appConfig.Limits
	serverCfg := appConfig.Server

	port := strconv.Itoa(serverCfg.Port)
	log.Printf("🎮 Config: %d Hz tick, %.1fs respawn delay", worldCfg.TickRate, worldCfg.RespawnDelay)
	log.Printf("🛡️ Resource limits: %d players, %d agents, %d spectators, %d bullets",
		limitsCfg.MaxPlayers, limitsCfg.MaxAgents, limitsCfg.MaxSpectators, limitsCfg.MaxBullets)

	// Arena map: embedded by default, overridable for custom maps
	var arena *mapdata.Map
	var err error
	if path := os.Getenv("ARENA_MAP_PATH"); path != "" {
		arena, err = mapdata.LoadFile(path)
		log.Printf("🗺️ Arena map: %s", path)
	} else {
		arena, err = mapdata.Load()
		log.Println("🗺️ Arena map: embedded default")
	}
	if err != nil {
		log.Fatalf("❌ Failed to load arena map: %v", err)
	}

	// Start debug server
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Build the simulation and the agent bridge
	w := world.New(worldCfg, limitsCfg, arena)
	b := bridge.New(w)
	server := api.NewServer(w, b, limitsCfg)

	// Start simulation
	w.Start()
	log.Println("✅ Simulation engine started")

	// Start API server in goroutine
	go func() {
		addr := ":" + port
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🤖 Agent control plane: http://localhost%s/api/agent", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	w.Stop()
	log.Println("👋 Goodbye!")
}
