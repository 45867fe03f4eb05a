package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agent-arena/internal/bridge"
	"agent-arena/internal/world"
)

// maxBodySize bounds control-plane request bodies.
const maxBodySize = 64 * 1024

func (h *routerHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.world.Stats()
	writeJSON(w, map[string]interface{}{
		"online":     true,
		"players":    stats.Players,
		"aiAgents":   stats.Agents,
		"spectators": stats.Spectators,
		"tick":       stats.Tick,
		"uptime":     stats.Uptime.Seconds(),
		"timestamp":  time.Now().UnixMilli(),
	})
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, world.GetAllGuns())
}

func (h *routerHandlers) handleAgentRegister(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var req struct {
		AgentID       string `json:"agent_id"`
		Username      string `json:"username"`
		DisplayName   string `json:"display_name"`
		PreferredZone string `json:"preferredZone"`
		Zone          string `json:"zone"`
	}
	if err := decodeValidated(registerSchema, body, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// username/preferredZone are the documented names; display_name/zone
	// stay accepted for older SDKs.
	name := req.Username
	if name == "" {
		name = req.DisplayName
	}
	zone := req.PreferredZone
	if zone == "" {
		zone = req.Zone
	}

	info, err := h.world.AddAgent(req.AgentID, name, zone)
	switch {
	case errors.Is(err, world.ErrDuplicateAgent):
		writeError(w, "Agent already registered", http.StatusConflict)
		return
	case errors.Is(err, world.ErrWorldFull):
		writeError(w, "Agent limit reached", http.StatusServiceUnavailable)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"agent_id": req.AgentID,
		"position": info.Pos,
		"spawn":    info,
	}
	if obs, err := h.bridge.Perceive(req.AgentID); err == nil {
		resp["perception"] = obs
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *routerHandlers) handleAgentCommand(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var req struct {
		AgentID string `json:"agent_id"`
		Action  struct {
			ToolType   string          `json:"tool_type"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"action"`
	}
	if err := decodeValidated(commandSchema, body, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	act, err := bridge.ParseAction(req.Action.ToolType, req.Action.Parameters)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.bridge.Dispatch(req.AgentID, act); err != nil {
		if errors.Is(err, world.ErrUnknownAgent) {
			writeError(w, "Unknown agent", http.StatusNotFound)
			return
		}
		log.Printf("❌ command dispatch for %s failed: %v", req.AgentID, err)
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"success": true,
		"tool":    act.Tool,
	}
	// The command reply doubles as the agent's next observation so the
	// caller does not need a second round trip.
	if obs, err := h.bridge.Perceive(req.AgentID); err == nil {
		resp["perception"] = obs
	}
	writeJSON(w, resp)
}

func (h *routerHandlers) handleAgentState(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	state, err := h.world.AgentState(agentID)
	if errors.Is(err, world.ErrUnknownAgent) {
		writeError(w, "Unknown agent", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"game_state": state,
		"plan":       h.bridge.Plan(agentID),
	})
}

func (h *routerHandlers) handleAgentPerception(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	obs, err := h.bridge.Perceive(agentID)
	if errors.Is(err, world.ErrUnknownAgent) {
		writeError(w, "Unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, obs)
}

func (h *routerHandlers) handleAgentDelete(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	if err := h.world.RemoveAgent(agentID); err != nil {
		writeError(w, "Unknown agent", http.StatusNotFound)
		return
	}
	h.bridge.Remove(agentID)
	writeJSON(w, map[string]bool{"success": true})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
