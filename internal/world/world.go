package world

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"agent-arena/internal/config"
	"agent-arena/internal/mapdata"
	"agent-arena/internal/metrics"
	"agent-arena/internal/world/spatial"
)

var (
	ErrDuplicateAgent = errors.New("agent id already registered")
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrWorldFull      = errors.New("world is full")
)

const (
	gridCellSize    = 100.0
	pickupRadius    = 48.0
	interactRadius  = 64.0
	gateSpeakRadius = 120.0

	// Pellet spread half-angle for multi-projectile guns, radians.
	pelletSpread = 0.12
)

// entity is anything that occupies the grid with an Actor core: human
// players and autonomous agents. Bullets and loot are not entities.
type entity interface {
	spatial.Object
	base() *Actor
	RefID() string
}

// World is the authoritative simulation. All mutation happens on the tick
// goroutine or under mu; read accessors take the same lock and return
// copies, never internal pointers.
type World struct {
	mu sync.Mutex

	cfg    config.WorldConfig
	limits config.LimitsConfig
	arena  *mapdata.Map

	players    map[int]*Player
	agents     map[string]*Agent
	spectators int

	obstacles []*Obstacle
	loot      []*Loot
	bullets   []*Bullet

	grid    *spatial.Grid
	spawner *spawnPicker
	colors  *colorPool
	rng     *rand.Rand

	// nextPlayerID only grows; ids are never reused within a process.
	nextPlayerID int

	tick      uint64
	startedAt time.Time
	running   bool
	stopCh    chan struct{}
	done      chan struct{}

	// broadcast delivers the per-tick snapshot to the transport layer.
	// Called outside the world lock.
	broadcast func(*Snapshot)
}

// New builds a world from the arena map. The grid is seeded with every
// obstacle; actors register as they join.
func New(cfg config.WorldConfig, limits config.LimitsConfig, arena *mapdata.Map) *World {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	w := &World{
		cfg:          cfg,
		limits:       limits,
		arena:        arena,
		players:      make(map[int]*Player),
		agents:       make(map[string]*Agent),
		grid:         spatial.NewGrid(arena.Width, arena.Height, gridCellSize),
		spawner:      newSpawnPicker(arena.SpawnPoints),
		colors:       newColorPool(rng),
		rng:          rng,
		nextPlayerID: 1,
		startedAt:    time.Now(),
	}

	for i, def := range arena.Obstacles {
		o := newObstacle(i, def)
		w.obstacles = append(w.obstacles, o)
		w.grid.AddObject(o)
	}
	for _, def := range arena.Loot {
		l := newLoot(def)
		w.loot = append(w.loot, l)
		w.grid.AddObject(l)
	}

	log.Printf("🌍 world ready: %dx%d, %d obstacles, %d loot, %d spawn points",
		int(arena.Width), int(arena.Height), len(w.obstacles), len(w.loot), len(arena.SpawnPoints))
	return w
}

// SetBroadcaster installs the snapshot sink. Must be called before Start.
func (w *World) SetBroadcaster(fn func(*Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.broadcast = fn
}

// Start launches the tick loop. Safe to call once; subsequent calls are
// no-ops until Stop.
func (w *World) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.startedAt = time.Now()
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.run()
	log.Printf("🚀 simulation started at %d Hz", w.cfg.TickRate)
}

// Stop halts the tick loop and waits for the current tick to finish.
func (w *World) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.done
	w.mu.Unlock()

	<-done
	log.Printf("🛑 simulation stopped after %d ticks", w.Tick())
}

// run is the engine loop. Each iteration subtracts the tick's own cost from
// the sleep so the rate self-corrects; ticks never overlap because the next
// one only starts after the previous returns.
func (w *World) run() {
	defer close(w.done)
	interval := time.Second / time.Duration(w.cfg.TickRate)
	dt := 1.0 / float64(w.cfg.TickRate)

	for {
		start := time.Now()

		snap := w.doTick(dt)
		if fn := w.broadcaster(); fn != nil {
			fn(snap)
		}

		elapsed := time.Since(start)
		metrics.TickDuration.Observe(elapsed.Seconds())

		delay := interval - elapsed
		if delay < 0 {
			delay = 0
		}
		select {
		case <-w.stopCh:
			return
		case <-time.After(delay):
		}
	}
}

func (w *World) broadcaster() func(*Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.broadcast
}

// doTick advances the simulation one step and returns the snapshot built
// at the end of it. Order is fixed: bullets, players, agents, respawns.
func (w *World) doTick(dt float64) *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	live := w.bullets[:0]
	for _, b := range w.bullets {
		if w.advanceBullet(b, dt) {
			live = append(live, b)
		}
	}
	w.bullets = live

	for _, p := range w.players {
		p.update(w, dt)
	}
	for _, ag := range w.agents {
		ag.update(w, dt)
	}

	w.processRespawns()
	w.pruneLoot()

	metrics.BulletsInFlight.Set(float64(len(w.bullets)))

	snap := w.buildSnapshot()
	w.tick++
	return snap
}

// processRespawns schedules freshly dead actors and revives those whose
// deadline passed.
func (w *World) processRespawns() {
	now := time.Now()
	delay := time.Duration(w.cfg.RespawnDelay * float64(time.Second))

	revive := func(e entity) {
		a := e.base()
		if !a.Dead {
			return
		}
		if a.RespawnAt.IsZero() {
			a.RespawnAt = now.Add(delay)
			a.JustDied = false
			return
		}
		if now.Before(a.RespawnAt) {
			return
		}
		a.respawnAt(w.respawnPoint())
		w.grid.AddObject(e)
		log.Printf("✨ %s respawned at (%.0f,%.0f)", e.RefID(), a.Pos.X, a.Pos.Y)
	}

	for _, p := range w.players {
		revive(p)
	}
	for _, ag := range w.agents {
		revive(ag)
	}
}

func (w *World) pruneLoot() {
	kept := w.loot[:0]
	for _, l := range w.loot {
		if !l.Picked {
			kept = append(kept, l)
		}
	}
	w.loot = kept
}

// AddPlayer joins a human player and returns its id plus spawn-time state.
// The zone preference is advisory; unknown zones fall back to the full
// spawn range.
func (w *World) AddPlayer(name, zone string) (int, JoinInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.players) >= w.limits.MaxPlayers {
		return 0, JoinInfo{}, ErrWorldFull
	}

	start, end := w.arena.ZoneRange(zone)
	pos, ok := w.spawner.pick(start, end, w.spawnBlocked)
	if !ok {
		pos = w.respawnPoint()
	}
	id := w.nextPlayerID
	w.nextPlayerID++
	if name == "" {
		name = fmt.Sprintf("player_%d", id)
	}

	p := &Player{
		Actor: newActor(name, pos, w.colors.acquire()),
		ID:    id,
		spawn: pos,
	}
	w.players[id] = p
	w.grid.AddObject(p)
	metrics.PlayersOnline.Set(float64(len(w.players)))

	log.Printf("👤 player %d (%s) joined at (%.0f,%.0f)", id, name, pos.X, pos.Y)
	return id, joinInfo(p.RefID(), &p.Actor), nil
}

// RemovePlayer drops a player on disconnect. Unknown ids are ignored.
func (w *World) RemovePlayer(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[id]
	if !ok {
		return
	}
	delete(w.players, id)
	w.grid.RemoveObject(p)
	w.colors.release(p.Color)
	w.spawner.release(p.spawn)
	metrics.PlayersOnline.Set(float64(len(w.players)))
	log.Printf("👋 player %d left", id)
}

// AddAgent registers an autonomous agent, spawning it inside the requested
// zone's spawn range. Duplicate ids conflict rather than replace.
func (w *World) AddAgent(id, displayName, zone string) (JoinInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.agents[id]; exists {
		return JoinInfo{}, ErrDuplicateAgent
	}
	if len(w.agents) >= w.limits.MaxAgents {
		return JoinInfo{}, ErrWorldFull
	}

	start, end := w.arena.ZoneRange(zone)
	pos, ok := w.spawner.pick(start, end, w.spawnBlocked)
	if !ok {
		pos = w.respawnPoint()
	}
	if displayName == "" {
		displayName = id
	}

	ag := &Agent{
		Actor:       newActor(displayName, pos, w.colors.acquire()),
		ID:          id,
		DisplayName: displayName,
		spawn:       pos,
	}
	w.agents[id] = ag
	w.grid.AddObject(ag)
	metrics.AgentsOnline.Set(float64(len(w.agents)))

	log.Printf("🤖 agent %s (%s) registered in zone %q at (%.0f,%.0f)", id, displayName, zone, pos.X, pos.Y)
	return joinInfo(ag.RefID(), &ag.Actor), nil
}

// RemoveAgent deregisters an agent.
func (w *World) RemoveAgent(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ag, ok := w.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	delete(w.agents, id)
	w.grid.RemoveObject(ag)
	w.colors.release(ag.Color)
	w.spawner.release(ag.spawn)
	metrics.AgentsOnline.Set(float64(len(w.agents)))
	log.Printf("🗑️ agent %s removed", id)
	return nil
}

// AddSpectator reserves a spectator slot.
func (w *World) AddSpectator() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spectators >= w.limits.MaxSpectators {
		return ErrWorldFull
	}
	w.spectators++
	return nil
}

func (w *World) RemoveSpectator() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spectators > 0 {
		w.spectators--
	}
}

// HandleInput stages a player's input frame for the next tick. Stale
// sequence numbers are dropped inside stageInput.
func (w *World) HandleInput(playerID int, in InputState) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	if len(in.Speech) > w.limits.MaxSpeechLen {
		in.Speech = in.Speech[:w.limits.MaxSpeechLen]
	}
	p.stageInput(in)
	return nil
}

// StageAgentInput replaces the agent's single staged input slot. A command
// arriving before the previous one was consumed overwrites it.
func (w *World) StageAgentInput(agentID string, in AgentInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ag, ok := w.agents[agentID]
	if !ok {
		return ErrUnknownAgent
	}
	if len(in.Speak) > w.limits.MaxSpeechLen {
		in.Speak = in.Speak[:w.limits.MaxSpeechLen]
	}
	ag.stage(in)
	return nil
}

// tryMove attempts to shift an entity by delta, all or nothing. The move is
// rejected when the destination hitbox leaves the arena or overlaps a solid
// obstacle; on success the grid registration is refreshed.
func (w *World) tryMove(e entity, delta Vec2) bool {
	a := e.base()
	cand := a.Pos.Add(delta)
	half := ActorSize / 2.0

	if cand.X-half < 0 || cand.X+half > w.arena.Width ||
		cand.Y-half < 0 || cand.Y+half > w.arena.Height {
		return false
	}

	hb := spatial.Rect{X: cand.X - half, Y: cand.Y - half, W: ActorSize, H: ActorSize}
	for _, obj := range w.grid.IntersectsHitbox(hb) {
		if o, ok := obj.(*Obstacle); ok && o.Solid() {
			return false
		}
	}

	a.Pos = cand
	w.grid.AddObject(e)
	return true
}

// fire performs one attack toward the target point with the active weapon,
// respecting the cooldown. Ranged weapons auto-reload from reserve when the
// magazine runs dry and stay silent if the reserve is empty too.
func (w *World) fire(shooter entity, target Vec2) {
	a := shooter.base()
	if a.Cooldown > 0 {
		return
	}
	gun := a.ActiveGun()
	dir := target.Sub(a.Pos).Normalize()
	if dir.Len() == 0 {
		return
	}

	if gun.Melee {
		w.meleeStrike(shooter, gun, dir)
		a.Cooldown = gun.Cooldown
		return
	}

	slot := a.ActiveSlot
	if a.Mag[slot] <= 0 {
		a.Reload()
		if a.Mag[slot] <= 0 {
			return
		}
	}
	a.Mag[slot]--

	pellets := gun.Pellets
	if pellets < 1 {
		pellets = 1
	}
	for i := 0; i < pellets; i++ {
		shot := dir
		if pellets > 1 {
			shot = rotate(dir, (w.rng.Float64()*2-1)*pelletSpread)
		}
		w.createBullet(shooter, gun, shot, rollDamage(gun, w.rng))
	}
	a.Cooldown = gun.Cooldown
}

// meleeStrike hits the nearest live target within reach in the facing
// half-plane. Destructible obstacles take the hit when no actor is near.
func (w *World) meleeStrike(shooter entity, gun Gun, dir Vec2) {
	a := shooter.base()
	reach := gun.Range + ActorSize/2

	var victim entity
	var victimDist float64
	var crate *Obstacle

	for _, obj := range w.grid.QueryRadius(a.Pos.X, a.Pos.Y, reach) {
		switch hit := obj.(type) {
		case entity:
			if hit == shooter || hit.base().Dead {
				continue
			}
			to := hit.base().Pos.Sub(a.Pos)
			if to.X*dir.X+to.Y*dir.Y < 0 {
				continue
			}
			d := to.Len()
			if victim == nil || d < victimDist {
				victim, victimDist = hit, d
			}
		case *Obstacle:
			if hit.Destructible && !hit.Destroyed && crate == nil {
				crate = hit
			}
		}
	}

	if victim != nil {
		if victim.base().TakeDamage(rollDamage(gun, w.rng)) {
			w.onActorDeath(victim, shooter)
		}
		return
	}
	if crate != nil {
		if crate.Damage(rollDamage(gun, w.rng)) {
			w.grid.RemoveObject(crate)
		}
	}
}

// rotate turns v by angle radians.
func rotate(v Vec2, angle float64) Vec2 {
	sin, cos := math.Sin(angle), math.Cos(angle)
	return Vec2{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// checkPickups collects any loot overlapping the entity's pickup radius.
func (w *World) checkPickups(e entity) {
	a := e.base()

	// QueryRadius reuses a scratch buffer; copy the hits before mutating
	// the grid.
	var hits []*Loot
	for _, obj := range w.grid.QueryRadius(a.Pos.X, a.Pos.Y, pickupRadius) {
		if l, ok := obj.(*Loot); ok && !l.Picked {
			hits = append(hits, l)
		}
	}
	for _, l := range hits {
		l.apply(a)
		w.grid.RemoveObject(l)
		log.Printf("🎁 %s picked up %s", e.RefID(), l.Type)
	}
}

// checkInteractions toggles any unlocked gate within reach.
func (w *World) checkInteractions(e entity) {
	a := e.base()
	for _, obj := range w.grid.QueryRadius(a.Pos.X, a.Pos.Y, interactRadius) {
		if o, ok := obj.(*Obstacle); ok && o.Gate != nil {
			if o.Gate.Toggle() {
				log.Printf("🚪 %s toggled gate %d (open=%v)", e.RefID(), o.ID, o.Gate.Open)
			}
		}
	}
}

// unlockGatesNear tests spoken text against every gate whose center lies
// within the speak radius. Obstacles stay grid-registered whether the gate
// is open or not; only Solid() changes.
func (w *World) unlockGatesNear(pos Vec2, spoken string) {
	for _, o := range w.obstacles {
		if o.Gate == nil || o.Gate.Unlocked {
			continue
		}
		cx, cy := o.Rect.Center()
		if pos.DistanceTo(Vec2{X: cx, Y: cy}) > gateSpeakRadius {
			continue
		}
		if o.Gate.TryUnlock(spoken) {
			log.Printf("🔓 gate %d unlocked by speech near (%.0f,%.0f)", o.ID, pos.X, pos.Y)
		}
	}
}

// onActorDeath handles the kill: the victim leaves the grid until respawn,
// the killer earns experience, and a quarter of the victim's XP drops as an
// orb at the death position.
func (w *World) onActorDeath(victim, killer entity) {
	v := victim.base()
	w.grid.RemoveObject(victim)
	metrics.Deaths.Inc()

	killerRef := "environment"
	if killer != nil && killer != victim {
		killer.base().GainXP(KillXP)
		killerRef = killer.RefID()
	}
	if drop := v.XP / 4; drop > 0 {
		orb := newXPOrb(v.Pos, drop)
		w.loot = append(w.loot, orb)
		w.grid.AddObject(orb)
	}
	log.Printf("💀 %s killed by %s", victim.RefID(), killerRef)
}

// targetPosition resolves a remembered attack target to its current
// position. Dead targets still resolve; firing at a corpse is wasteful but
// not an error.
func (w *World) targetPosition(playerID int, agentID string) (Vec2, bool) {
	if playerID != 0 {
		if p, ok := w.players[playerID]; ok {
			return p.Pos, true
		}
		return Vec2{}, false
	}
	if agentID != "" {
		if ag, ok := w.agents[agentID]; ok {
			return ag.Pos, true
		}
	}
	return Vec2{}, false
}

// Tick returns the current tick counter.
func (w *World) Tick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// Stats summarizes the world for the status endpoint.
type Stats struct {
	Players    int
	Agents     int
	Spectators int
	Tick       uint64
	Uptime     time.Duration
}

func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Players:    len(w.players),
		Agents:     len(w.agents),
		Spectators: w.spectators,
		Tick:       w.tick,
		Uptime:     time.Since(w.startedAt),
	}
}

// CombatView is the bridge-facing combat context for one agent and a
// target reference: enough to choose a weapon slot and detect stalemates
// without a second lock acquisition.
type CombatView struct {
	TargetPlayerID int
	TargetAgentID  string
	TargetFound    bool
	Distance       float64
	Direction      Vec2 // unit vector from the agent toward the target

	ActiveSlot    int
	MeleeSlot     int
	RangedSlot    int
	HasRangedAmmo bool
}

// ResolveCombat resolves an attack-target reference for an agent. The
// "player_N" prefix addresses humans; anything else is tried as an agent
// id.
func (w *World) ResolveCombat(agentID, ref string) (CombatView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ag, ok := w.agents[agentID]
	if !ok {
		return CombatView{}, ErrUnknownAgent
	}

	cv := CombatView{
		ActiveSlot: ag.ActiveSlot,
		MeleeSlot:  ag.MeleeSlot(),
		RangedSlot: ag.RangedSlot(),
	}
	if cv.RangedSlot >= 0 {
		cv.HasRangedAmmo = ag.HasRangedAmmo(cv.RangedSlot)
	}

	var pid int
	var aid string
	if num, isPlayer := strings.CutPrefix(ref, "player_"); isPlayer {
		if n, err := strconv.Atoi(num); err == nil && n > 0 {
			pid = n
		}
	}
	if pid != 0 {
		if _, ok := w.players[pid]; !ok {
			return cv, nil
		}
	} else {
		if _, ok := w.agents[ref]; !ok || ref == agentID {
			return cv, nil
		}
		aid = ref
	}

	pos, ok := w.targetPosition(pid, aid)
	if !ok {
		return cv, nil
	}
	cv.TargetPlayerID = pid
	cv.TargetAgentID = aid
	cv.TargetFound = true
	cv.Distance = ag.Pos.DistanceTo(pos)
	cv.Direction = pos.Sub(ag.Pos).Normalize()
	return cv, nil
}
