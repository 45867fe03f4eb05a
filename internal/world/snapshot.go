package world

import (
	"sort"
	"strconv"
	"time"
)

// ActorView is the public shape of an actor in the broadcast stream.
// Humans and agents share it; IsAgent tells them apart and ID carries the
// target-reference form ("player_3" or the agent's own id).
type ActorView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Pos       Vec2   `json:"pos"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"maxHp"`
	Level     int    `json:"level"`
	Color     string `json:"color"`
	Weapon    string `json:"weapon"`
	Aim       Vec2   `json:"aim"`
	Attacking bool   `json:"attacking"`
	Dead      bool   `json:"dead"`
	Speech    string `json:"speech,omitempty"`
	IsAgent   bool   `json:"isAgent,omitempty"`
}

type BulletView struct {
	ID    string `json:"id"`
	Pos   Vec2   `json:"pos"`
	Color string `json:"color"`
}

type GateView struct {
	Unlocked bool `json:"unlocked"`
	Open     bool `json:"open"`
}

type ObstacleView struct {
	ID           int       `json:"id"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	W            float64   `json:"w"`
	H            float64   `json:"h"`
	Destructible bool      `json:"destructible"`
	HP           int       `json:"hp,omitempty"`
	Destroyed    bool      `json:"destroyed,omitempty"`
	Gate         *GateView `json:"gate,omitempty"`
}

type LootView struct {
	ID      string   `json:"id"`
	Type    LootType `json:"type"`
	Weapon  string   `json:"weapon,omitempty"`
	Caliber string   `json:"caliber,omitempty"`
	Count   int      `json:"count,omitempty"`
	Pos     Vec2     `json:"pos"`
}

// PrivateView is the per-actor state that only its own connection should
// see; the transport layer merges it into that client's update.
type PrivateView struct {
	Weapons    [2]string      `json:"weapons"`
	ActiveSlot int            `json:"activeSlot"`
	Mag        [2]int         `json:"mag"`
	Ammo       map[string]int `json:"ammo"`
	XP         int            `json:"xp"`
}

// Snapshot is one tick's full world state, assembled under the world lock
// and immutable afterwards.
type Snapshot struct {
	Tick      uint64         `json:"tick"`
	Timestamp int64          `json:"timestamp"`
	Players   []ActorView    `json:"players"`
	Bullets   []BulletView   `json:"bullets"`
	Obstacles []ObstacleView `json:"obstacles"`
	Loot      []LootView     `json:"loot"`

	// Private is keyed by actor ref id and personalized by the hub.
	Private map[string]PrivateView `json:"-"`
}

// JoinInfo is what a freshly joined actor needs to render itself.
type JoinInfo struct {
	ID      string      `json:"id"`
	Pos     Vec2        `json:"pos"`
	Color   string      `json:"color"`
	Private PrivateView `json:"private"`
}

func joinInfo(ref string, a *Actor) JoinInfo {
	return JoinInfo{
		ID:      ref,
		Pos:     a.Pos,
		Color:   a.Color,
		Private: privateView(a),
	}
}

func privateView(a *Actor) PrivateView {
	ammo := make(map[string]int, len(a.Ammo))
	for k, v := range a.Ammo {
		ammo[k] = v
	}
	return PrivateView{
		Weapons:    a.Weapons,
		ActiveSlot: a.ActiveSlot,
		Mag:        a.Mag,
		Ammo:       ammo,
		XP:         a.XP,
	}
}

func actorView(ref string, a *Actor, isAgent bool) ActorView {
	return ActorView{
		ID:        ref,
		Name:      a.Name,
		Pos:       a.Pos,
		HP:        a.HP,
		MaxHP:     a.MaxHP,
		Level:     a.Level(),
		Color:     a.Color,
		Weapon:    a.Weapons[a.ActiveSlot],
		Aim:       a.Aim,
		Attacking: a.Attacking,
		Dead:      a.Dead,
		Speech:    a.Speech,
		IsAgent:   isAgent,
	}
}

// buildSnapshot copies the world into a broadcast-safe value. Caller holds
// the lock.
func (w *World) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		Tick:      w.tick,
		Timestamp: time.Now().UnixMilli(),
		Players:   make([]ActorView, 0, len(w.players)+len(w.agents)),
		Private:   make(map[string]PrivateView, len(w.players)+len(w.agents)),
	}

	for _, p := range w.players {
		snap.Players = append(snap.Players, actorView(p.RefID(), &p.Actor, false))
		snap.Private[p.RefID()] = privateView(&p.Actor)
	}
	for _, ag := range w.agents {
		snap.Players = append(snap.Players, actorView(ag.RefID(), &ag.Actor, true))
		snap.Private[ag.RefID()] = privateView(&ag.Actor)
	}
	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].ID < snap.Players[j].ID })

	for _, b := range w.bullets {
		snap.Bullets = append(snap.Bullets, BulletView{ID: b.ID, Pos: b.Pos, Color: b.Gun.Color})
	}
	for _, o := range w.obstacles {
		ov := ObstacleView{
			ID:           o.ID,
			X:            o.Rect.X,
			Y:            o.Rect.Y,
			W:            o.Rect.W,
			H:            o.Rect.H,
			Destructible: o.Destructible,
			HP:           o.HP,
			Destroyed:    o.Destroyed,
		}
		if o.Gate != nil {
			ov.Gate = &GateView{Unlocked: o.Gate.Unlocked, Open: o.Gate.Open}
		}
		snap.Obstacles = append(snap.Obstacles, ov)
	}
	for _, l := range w.loot {
		if l.Picked {
			continue
		}
		snap.Loot = append(snap.Loot, LootView{
			ID:      l.ID,
			Type:    l.Type,
			Weapon:  l.Weapon,
			Caliber: l.Caliber,
			Count:   l.Count,
			Pos:     l.Pos,
		})
	}
	return snap
}

// AgentDetail is the full own-state view served by the control API.
type AgentDetail struct {
	ID         string         `json:"agent_id"`
	Name       string         `json:"name"`
	Pos        Vec2           `json:"pos"`
	HP         int            `json:"hp"`
	MaxHP      int            `json:"maxHp"`
	Level      int            `json:"level"`
	XP         int            `json:"xp"`
	Dead       bool           `json:"dead"`
	Weapons    [2]string      `json:"weapons"`
	ActiveSlot int            `json:"activeSlot"`
	Mag        [2]int         `json:"mag"`
	Ammo       map[string]int `json:"ammo"`
	Attacking  bool           `json:"attacking"`
	Color      string         `json:"color"`
}

func agentDetail(ag *Agent) AgentDetail {
	pv := privateView(&ag.Actor)
	return AgentDetail{
		ID:         ag.ID,
		Name:       ag.Name,
		Pos:        ag.Pos,
		HP:         ag.HP,
		MaxHP:      ag.MaxHP,
		Level:      ag.Level(),
		XP:         ag.XP,
		Dead:       ag.Dead,
		Weapons:    pv.Weapons,
		ActiveSlot: pv.ActiveSlot,
		Mag:        pv.Mag,
		Ammo:       pv.Ammo,
		Attacking:  ag.Attacking,
		Color:      ag.Color,
	}
}

// AgentState returns a copy of one agent's full state.
func (w *World) AgentState(id string) (AgentDetail, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ag, ok := w.agents[id]
	if !ok {
		return AgentDetail{}, ErrUnknownAgent
	}
	return agentDetail(ag), nil
}

// NearbyView is one entity in an agent's perception: a distance-annotated
// read-only observation.
type NearbyView struct {
	Ref      string   `json:"ref"`
	Kind     string   `json:"kind"` // player, agent, obstacle, loot
	Pos      Vec2     `json:"pos"`
	Distance float64  `json:"distance"`
	HP       int      `json:"hp,omitempty"`
	Dead     bool     `json:"dead,omitempty"`
	Speech   string   `json:"speech,omitempty"`
	LootType LootType `json:"lootType,omitempty"`
	Weapon   string   `json:"weapon,omitempty"`
}

// Observation is an agent's view of the world: its own state plus every
// grid object within the detection radius, sorted nearest first.
type Observation struct {
	Self   AgentDetail  `json:"self"`
	Nearby []NearbyView `json:"nearby"`
}

// Observe builds a perception snapshot for the agent. Radius bounds the
// query; observing never mutates the world.
func (w *World) Observe(agentID string, radius float64) (Observation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ag, ok := w.agents[agentID]
	if !ok {
		return Observation{}, ErrUnknownAgent
	}

	obs := Observation{Self: agentDetail(ag)}
	for _, obj := range w.grid.QueryRadius(ag.Pos.X, ag.Pos.Y, radius) {
		switch o := obj.(type) {
		case *Player:
			obs.Nearby = append(obs.Nearby, NearbyView{
				Ref:      o.RefID(),
				Kind:     "player",
				Pos:      o.Pos,
				Distance: ag.Pos.DistanceTo(o.Pos),
				HP:       o.HP,
				Dead:     o.Dead,
				Speech:   o.Speech,
				Weapon:   o.Weapons[o.ActiveSlot],
			})
		case *Agent:
			if o == ag {
				continue
			}
			obs.Nearby = append(obs.Nearby, NearbyView{
				Ref:      o.RefID(),
				Kind:     "agent",
				Pos:      o.Pos,
				Distance: ag.Pos.DistanceTo(o.Pos),
				HP:       o.HP,
				Dead:     o.Dead,
				Speech:   o.Speech,
				Weapon:   o.Weapons[o.ActiveSlot],
			})
		case *Obstacle:
			cx, cy := o.Rect.Center()
			pos := Vec2{X: cx, Y: cy}
			obs.Nearby = append(obs.Nearby, NearbyView{
				Ref:      "obstacle_" + strconv.Itoa(o.ID),
				Kind:     "obstacle",
				Pos:      pos,
				Distance: ag.Pos.DistanceTo(pos),
			})
		case *Loot:
			if o.Picked {
				continue
			}
			obs.Nearby = append(obs.Nearby, NearbyView{
				Ref:      o.ID,
				Kind:     "loot",
				Pos:      o.Pos,
				Distance: ag.Pos.DistanceTo(o.Pos),
				LootType: o.Type,
				Weapon:   o.Weapon,
			})
		}
	}
	sort.Slice(obs.Nearby, func(i, j int) bool { return obs.Nearby[i].Distance < obs.Nearby[j].Distance })
	return obs, nil
}
