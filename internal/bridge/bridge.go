// Package bridge translates agent tool calls into concrete simulation
// input. It owns no game state of its own beyond per-agent command memory:
// the last plan, the current attack target, and the stalemate counter.
package bridge

import (
	"log"
	"sync"

	"agent-arena/internal/metrics"
	"agent-arena/internal/world"
)

const (
	// Weapon-choice thresholds. Inside meleeRange a knife beats reloading;
	// beyond rangedRange a gun is the only option that can connect.
	meleeRange  = 60.0
	rangedRange = 220.0

	// After this many consecutive attacks on the same target without
	// closing distance, the attack is swapped for a move toward it.
	stalemateLimit = 8

	// How far an agent can perceive.
	DetectionRadius = 500.0
)

// commandState is the bridge's memory for one agent. It never touches the
// simulation; plan and search live and die here.
type commandState struct {
	seq        int
	lastTool   string
	plan       string
	searchNote string

	attackTarget string
	sameTarget   int
	lastDist     float64
}

// Bridge converts Actions into world.AgentInput and stages them. One
// instance serves all agents.
type Bridge struct {
	w *world.World

	mu     sync.Mutex
	states map[string]*commandState
}

func New(w *world.World) *Bridge {
	return &Bridge{
		w:      w,
		states: make(map[string]*commandState),
	}
}

func (b *Bridge) state(agentID string) *commandState {
	st, ok := b.states[agentID]
	if !ok {
		st = &commandState{}
		b.states[agentID] = st
	}
	return st
}

// Remove clears the command memory of a deregistered agent.
func (b *Bridge) Remove(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, agentID)
}

// Plan returns the agent's last recorded plan text.
func (b *Bridge) Plan(agentID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[agentID]; ok {
		return st.plan
	}
	return ""
}

// Perceive builds the agent's read-only observation of its surroundings.
func (b *Bridge) Perceive(agentID string) (world.Observation, error) {
	return b.w.Observe(agentID, DetectionRadius)
}

// Dispatch translates one tool call into simulation input and stages it.
// A second call before the next tick overwrites the first; that is the
// contract, not a race.
func (b *Bridge) Dispatch(agentID string, act *Action) error {
	metrics.AgentCommands.WithLabelValues(commandLabel(act.Tool)).Inc()

	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.state(agentID)
	st.seq++
	st.lastTool = act.Tool

	switch act.Tool {
	case ToolPlan:
		// Plans only update command memory.
		st.plan = act.Plan.Plan
		return nil
	case ToolSearch:
		st.searchNote = act.Search.Query
		return nil
	case ToolMove:
		st.resetStalemate()
		return b.w.StageAgentInput(agentID, world.AgentInput{
			Move: &world.Vec2{X: act.Move.X, Y: act.Move.Y},
		})
	case ToolCollect:
		return b.w.StageAgentInput(agentID, world.AgentInput{Pickup: true})
	case ToolSwitchWeapon:
		in := world.AgentInput{}
		if act.SwitchWeapon.Slot != nil {
			slot := *act.SwitchWeapon.Slot
			in.SwitchSlot = &slot
		} else {
			in.SwitchWeapon = true
		}
		return b.w.StageAgentInput(agentID, in)
	case ToolSpeak:
		return b.w.StageAgentInput(agentID, world.AgentInput{Speak: act.Speak.Message})
	case ToolStopAttack:
		st.resetStalemate()
		return b.w.StageAgentInput(agentID, world.AgentInput{StopAttack: true})
	case ToolAttack:
		return b.dispatchAttack(agentID, st, act.Attack.Target())
	}

	// Unknown tool: recorded in command memory above, no simulation effect.
	return nil
}

// dispatchAttack resolves the target reference, picks a weapon slot for
// the range, and breaks stalemates. Caller holds b.mu.
func (b *Bridge) dispatchAttack(agentID string, st *commandState, targetRef string) error {
	cv, err := b.w.ResolveCombat(agentID, targetRef)
	if err != nil {
		return err
	}
	if !cv.TargetFound {
		// Unresolvable target degrades to not attacking.
		log.Printf("🎯 agent %s attack target %q not found, stopping", agentID, targetRef)
		st.resetStalemate()
		return b.w.StageAgentInput(agentID, world.AgentInput{StopAttack: true})
	}

	if targetRef == st.attackTarget {
		// Closing distance means progress; a stuck range means both sides
		// are trading shots without effect.
		if cv.Distance >= st.lastDist-1.0 {
			st.sameTarget++
		} else {
			st.sameTarget = 0
		}
	} else {
		st.attackTarget = targetRef
		st.sameTarget = 0
	}
	st.lastDist = cv.Distance

	if st.sameTarget > stalemateLimit {
		log.Printf("♻️ agent %s stalemated on %s, moving in instead", agentID, targetRef)
		st.sameTarget = 0
		step := cv.Direction.Scale(approachStep(cv.Distance))
		return b.w.StageAgentInput(agentID, world.AgentInput{Move: &step})
	}

	in := world.AgentInput{
		SetTarget:      true,
		TargetPlayerID: cv.TargetPlayerID,
		TargetAgentID:  cv.TargetAgentID,
	}
	if slot := chooseSlot(cv); slot != cv.ActiveSlot {
		in.SwitchSlot = &slot
	}
	return b.w.StageAgentInput(agentID, in)
}

// commandLabel folds unrecognized tool tags into one metric label so
// arbitrary client strings cannot grow the label set.
func commandLabel(tool string) string {
	switch tool {
	case ToolMove, ToolAttack, ToolStopAttack, ToolCollect,
		ToolSwitchWeapon, ToolSpeak, ToolPlan, ToolSearch:
		return tool
	}
	return "unknown"
}

func (st *commandState) resetStalemate() {
	st.attackTarget = ""
	st.sameTarget = 0
	st.lastDist = 0
}

// chooseSlot applies the range heuristic: close targets or an empty ammo
// reserve call for melee, distant targets for the gun, and anything in
// between keeps the current slot.
func chooseSlot(cv world.CombatView) int {
	melee, ranged := cv.MeleeSlot, cv.RangedSlot
	if ranged < 0 || !cv.HasRangedAmmo {
		if melee >= 0 {
			return melee
		}
		return cv.ActiveSlot
	}
	if melee >= 0 && cv.Distance <= meleeRange {
		return melee
	}
	if cv.Distance >= rangedRange {
		return ranged
	}
	return cv.ActiveSlot
}

// approachStep sizes the substitute move toward a stalemated target,
// capped so a single command cannot cross half the arena.
func approachStep(distance float64) float64 {
	step := distance / 2
	if step > 160 {
		step = 160
	}
	return step
}
