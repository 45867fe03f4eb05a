package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"agent-arena/internal/bridge"
	"agent-arena/internal/world"
)

// WorldInterface defines the simulation methods used by the API.
// This interface enables mocking for tests without spinning up the full
// tick loop. Keep this minimal - only include methods the API layer
// actually calls.
type WorldInterface interface {
	Stats() world.Stats
	AddAgent(id, displayName, zone string) (world.JoinInfo, error)
	RemoveAgent(id string) error
	AgentState(id string) (world.AgentDetail, error)
}

// BridgeInterface defines the agent-bridge methods used by the API.
type BridgeInterface interface {
	Dispatch(agentID string, act *bridge.Action) error
	Perceive(agentID string) (world.Observation, error)
	Plan(agentID string) string
	Remove(agentID string)
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    World:  w,
//	    Bridge: b,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// World is the simulation (required).
	World WorldInterface

	// Bridge translates agent commands (required).
	Bridge BridgeInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used when RateLimiter is nil. If both are
	// nil, DefaultRateLimitConfig applies.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the default allowed origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for
	// benchmarks and tests).
	DisableLogging bool
}

type routerHandlers struct {
	world  WorldInterface
	bridge BridgeInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - no goroutines are started and no
// listeners are opened, so it is safe to use with httptest.NewServer.
// The websocket endpoint is added by Server, which owns the hub.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - order matters.
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early and save CPU.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		world:  cfg.World,
		bridge: cfg.Bridge,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/weapons", h.handleGetWeapons)

		r.Route("/agent", func(r chi.Router) {
			r.Post("/register", h.handleAgentRegister)
			r.Post("/command", h.handleAgentCommand)
			r.Get("/state/{agentID}", h.handleAgentState)
			r.Get("/perception/{agentID}", h.handleAgentPerception)
			r.Delete("/{agentID}", h.handleAgentDelete)
		})
	})

	return r
}
