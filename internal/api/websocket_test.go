package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"agent-arena/internal/config"
	"agent-arena/internal/mapdata"
	"agent-arena/internal/world"
)

// newTestHub wires a hub to a running world broadcasting real ticks.
func newTestHub(t *testing.T) (*WebSocketHub, *httptest.Server) {
	t.Helper()

	arena, err := mapdata.Load()
	if err != nil {
		t.Fatalf("load arena: %v", err)
	}
	w := world.New(config.DefaultWorld(), config.DefaultLimits(), arena)
	hub := NewWebSocketHub(w, 100)
	w.SetBroadcaster(hub.BroadcastSnapshot)
	w.Start()
	t.Cleanup(w.Stop)

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(ts.Close)
	return hub, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame reads until a frame of the wanted type arrives.
func readFrame(t *testing.T, conn *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var m map[string]interface{}
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("reading %q frame: %v", typ, err)
		}
		if m["type"] == typ {
			return m
		}
	}
}

// TestWebSocketJoinWithZone verifies the join message threads the zone
// preference through to spawn placement and that player frames carry the
// private view
func TestWebSocketJoinWithZone(t *testing.T) {
	_, ts := newTestHub(t)
	conn := dialWS(t, ts)

	if err := conn.WriteJSON(map[string]string{
		"type":          "join",
		"playerName":    "alice",
		"preferredZone": "zone2",
	}); err != nil {
		t.Fatalf("send join: %v", err)
	}

	init := readFrame(t, conn, "init")
	if init["playerId"].(float64) < 1 {
		t.Errorf("playerId = %v", init["playerId"])
	}
	spawn := init["spawn"].(map[string]interface{})
	pos := spawn["pos"].(map[string]interface{})
	if pos["x"].(float64) <= 1000 || pos["y"].(float64) >= 750 {
		t.Errorf("zone2 spawn at (%v,%v), want the north-east quadrant", pos["x"], pos["y"])
	}

	update := readFrame(t, conn, "update")
	if update["you"] == nil {
		t.Error("player update frame missing the private view")
	}
	if update["spectator"] == true {
		t.Error("player frame marked as spectator")
	}
}

// TestWebSocketSpectatorFrames verifies spectator updates are marked and
// carry no private view
func TestWebSocketSpectatorFrames(t *testing.T) {
	_, ts := newTestHub(t)
	conn := dialWS(t, ts)

	if err := conn.WriteJSON(map[string]string{"type": "spectate"}); err != nil {
		t.Fatalf("send spectate: %v", err)
	}
	init := readFrame(t, conn, "init")
	if init["mode"] != "spectator" {
		t.Errorf("init mode = %v", init["mode"])
	}

	update := readFrame(t, conn, "update")
	if update["spectator"] != true {
		t.Error("spectator frame missing the spectator marker")
	}
	if update["you"] != nil {
		t.Error("spectator frame carries a private view")
	}
}

// TestWebSocketJoinDuringBroadcast joins several connections while the
// tick broadcast is running; every join must complete and produce frames
func TestWebSocketJoinDuringBroadcast(t *testing.T) {
	hub, ts := newTestHub(t)

	conns := make([]*websocket.Conn, 0, 5)
	for i := 0; i < 5; i++ {
		conns = append(conns, dialWS(t, ts))
	}

	for i, conn := range conns {
		if err := conn.WriteJSON(map[string]string{
			"type":       "join",
			"playerName": "p" + string(rune('a'+i)),
		}); err != nil {
			t.Fatalf("send join %d: %v", i, err)
		}
	}
	for i, conn := range conns {
		readFrame(t, conn, "init")
		if update := readFrame(t, conn, "update"); update["you"] == nil {
			t.Errorf("connection %d got no private view after joining", i)
		}
	}

	if got := hub.ClientCount(); got != 5 {
		t.Errorf("ClientCount = %d, want 5", got)
	}
}
