package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"agent-arena/internal/metrics"
	"agent-arena/internal/world"
)

const (
	// MaxWSConnectionsTotal caps all websocket connections together.
	MaxWSConnectionsTotal = 500

	wsWriteWait  = 5 * time.Second
	wsReadLimit  = 4096
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ websocket connection rejected from origin: %s", origin)
		metrics.ConnectionsRejected.WithLabelValues("origin").Inc()
		return false
	},
}

// HubWorld is the slice of the simulation the hub needs.
type HubWorld interface {
	AddPlayer(name, zone string) (int, world.JoinInfo, error)
	RemovePlayer(id int)
	HandleInput(playerID int, in world.InputState) error
	AddSpectator() error
	RemoveSpectator()
}

// wsClient is one streaming connection. A client is anonymous until it
// joins as a player or spectator; writes go through writeMu so the
// broadcast fan-out and the reader goroutine never interleave frames.
// playerID, ref and spectator are written by the reader goroutine and read
// by the broadcast goroutine, so they are guarded by the hub mutex.
type wsClient struct {
	conn *websocket.Conn
	ip   string

	writeMu sync.Mutex

	playerID  int    // 0 until joined; guarded by hub.mu
	ref       string // "player_N" once joined; guarded by hub.mu
	spectator bool   // guarded by hub.mu
}

func (c *wsClient) send(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// WebSocketHub owns all /play connections and fans the per-tick snapshot
// out to them, merging each player's private view into its own update.
type WebSocketHub struct {
	world HubWorld

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	wsLimiter *WebSocketRateLimiter
}

func NewWebSocketHub(w HubWorld, maxPerIP int) *WebSocketHub {
	return &WebSocketHub{
		world:     w,
		clients:   make(map[*wsClient]struct{}),
		wsLimiter: NewWebSocketRateLimiter(maxPerIP),
	}
}

// ClientCount returns the number of open connections.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// updateMessage is the per-tick frame sent to every client.
type updateMessage struct {
	Type      string               `json:"type"`
	Tick      uint64               `json:"tick"`
	Timestamp int64                `json:"timestamp"`
	Players   []world.ActorView    `json:"players"`
	Bullets   []world.BulletView   `json:"bullets"`
	Obstacles []world.ObstacleView `json:"obstacles"`
	Loot      []world.LootView     `json:"loot"`

	// You is the receiving player's own private state; absent for
	// spectators.
	You *world.PrivateView `json:"you,omitempty"`

	// Spectator marks frames sent to watch-only connections.
	Spectator bool `json:"spectator,omitempty"`
}

// BroadcastSnapshot fans one tick out to every client. A failed write only
// drops that one connection; the tick loop and the other clients never
// notice.
func (h *WebSocketHub) BroadcastSnapshot(snap *world.Snapshot) {
	type recipient struct {
		c         *wsClient
		ref       string
		spectator bool
	}

	h.mu.RLock()
	clients := make([]recipient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, recipient{c: c, ref: c.ref, spectator: c.spectator})
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg := updateMessage{
		Type:      "update",
		Tick:      snap.Tick,
		Timestamp: snap.Timestamp,
		Players:   snap.Players,
		Bullets:   snap.Bullets,
		Obstacles: snap.Obstacles,
		Loot:      snap.Loot,
	}

	for _, rc := range clients {
		frame := msg
		frame.Spectator = rc.spectator
		if rc.ref != "" {
			if pv, ok := snap.Private[rc.ref]; ok {
				frame.You = &pv
			}
		}
		if err := rc.c.send(frame); err != nil {
			h.drop(rc.c)
		}
	}
}

// drop closes and unregisters a client, releasing everything it held.
func (h *WebSocketHub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	playerID, spectator := c.playerID, c.spectator
	h.mu.Unlock()

	c.conn.Close()
	h.wsLimiter.Release(c.ip)
	if playerID != 0 {
		h.world.RemovePlayer(playerID)
	} else if spectator {
		h.world.RemoveSpectator()
	}
	metrics.WSConnections.Set(float64(count))
	log.Printf("📱 client disconnected (%d remaining)", count)
}

// HandleWebSocket upgrades /play connections with DoS protection.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		metrics.ConnectionsRejected.WithLabelValues("ws_total_limit").Inc()
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ websocket connection rejected from %s: per-IP limit reached", ip)
		metrics.ConnectionsRejected.WithLabelValues("ws_ip_limit").Inc()
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	log.Printf("📱 client connected from %s (%d total)", ip, count)

	go h.readLoop(client)
}

// clientMessage is what clients may send: join as a player, spectate, or
// stream input frames once joined.
type clientMessage struct {
	Type       string          `json:"type"`
	PlayerName string          `json:"playerName,omitempty"`
	Name       string          `json:"name,omitempty"` // legacy alias for playerName
	Zone       string          `json:"preferredZone,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func (m *clientMessage) playerName() string {
	if m.PlayerName != "" {
		return m.PlayerName
	}
	return m.Name
}

func (h *WebSocketHub) readLoop(c *wsClient) {
	defer h.drop(c)

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	pingStop := make(chan struct{})
	defer close(pingStop)
	go h.pingLoop(c, pingStop)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send(map[string]string{"type": "error", "error": "invalid message"})
			continue
		}

		switch msg.Type {
		case "join":
			h.handleJoin(c, msg.playerName(), msg.Zone)
		case "spectate":
			h.handleSpectate(c)
		case "input":
			h.handleInput(c, msg.Data)
		default:
			c.send(map[string]string{"type": "error", "error": fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (h *WebSocketHub) pingLoop(c *wsClient, stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHub) handleJoin(c *wsClient, name, zone string) {
	h.mu.Lock()
	if c.playerID != 0 {
		h.mu.Unlock()
		c.send(map[string]string{"type": "error", "error": "already joined"})
		return
	}
	wasSpectator := c.spectator
	c.spectator = false
	h.mu.Unlock()

	if wasSpectator {
		h.world.RemoveSpectator()
	}

	id, info, err := h.world.AddPlayer(name, zone)
	if err != nil {
		c.send(map[string]string{"type": "error", "error": err.Error()})
		return
	}
	h.mu.Lock()
	c.playerID = id
	c.ref = info.ID
	h.mu.Unlock()
	c.send(map[string]interface{}{
		"type":     "init",
		"playerId": id,
		"spawn":    info,
	})
}

func (h *WebSocketHub) handleSpectate(c *wsClient) {
	h.mu.Lock()
	occupied := c.playerID != 0 || c.spectator
	h.mu.Unlock()
	if occupied {
		return
	}
	if err := h.world.AddSpectator(); err != nil {
		c.send(map[string]string{"type": "error", "error": err.Error()})
		return
	}
	h.mu.Lock()
	c.spectator = true
	h.mu.Unlock()
	c.send(map[string]string{"type": "init", "mode": "spectator"})
}

func (h *WebSocketHub) handleInput(c *wsClient, data json.RawMessage) {
	h.mu.RLock()
	playerID := c.playerID
	h.mu.RUnlock()
	if playerID == 0 {
		c.send(map[string]string{"type": "error", "error": "join first"})
		return
	}
	var in world.InputState
	if err := json.Unmarshal(data, &in); err != nil {
		c.send(map[string]string{"type": "error", "error": "invalid input frame"})
		return
	}
	if err := h.world.HandleInput(playerID, in); err != nil {
		c.send(map[string]string{"type": "error", "error": err.Error()})
	}
}
