package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agent-arena/internal/bridge"
	"agent-arena/internal/config"
	"agent-arena/internal/world"
)

// Server combines the HTTP router with the websocket hub and wires the
// simulation's broadcast into it.
type Server struct {
	world       *world.World
	bridge      *bridge.Bridge
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates the API server. No goroutines are started and no
// listeners are opened until Start, so tests can construct it and use
// Router() with httptest.
func NewServer(w *world.World, b *bridge.Bridge, limits config.LimitsConfig) *Server {
	s := &Server{
		world:  w,
		bridge: b,
		wsHub:  NewWebSocketHub(w, limits.MaxConnsPerIP),
	}

	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: limits.RequestsPerSecond,
		Burst:             limits.RequestBurst,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})

	s.router = NewRouter(RouterConfig{
		World:       w,
		Bridge:      b,
		RateLimiter: s.rateLimiter,
	})

	// The streaming endpoint needs the hub instance, so it cannot live in
	// the pure router factory.
	s.router.Get("/play", s.wsHub.HandleWebSocket)

	return s
}

// Start wires the snapshot broadcast and begins serving. Blocks until the
// listener fails.
func (s *Server) Start(addr string) error {
	s.world.SetBroadcaster(s.wsHub.BroadcastSnapshot)

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🕹️ Stream endpoint: ws://localhost%s/play", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the websocket hub, mainly for tests and stats.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop shuts down background workers owned by the server.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
