// Package metrics holds the process-wide Prometheus instruments. They are
// registered at init time via promauto so any package can record without
// carrying a registry around.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TickDuration tracks how long each simulation tick takes. The tick
	// budget at 30 Hz is ~33ms; buckets are chosen around it.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Wall time of one simulation tick.",
		Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	PlayersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_players_online",
		Help: "Connected human players.",
	})

	AgentsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_agents_online",
		Help: "Registered autonomous agents.",
	})

	BulletsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_bullets_in_flight",
		Help: "Live projectiles at the end of the last tick.",
	})

	Deaths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_deaths_total",
		Help: "Actor deaths since start.",
	})

	AgentCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_agent_commands_total",
		Help: "Agent commands by tool type.",
	}, []string{"tool"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_ws_connections",
		Help: "Open websocket connections.",
	})

	ConnectionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_connections_rejected_total",
		Help: "Rejected connections by reason.",
	}, []string{"reason"})
)
