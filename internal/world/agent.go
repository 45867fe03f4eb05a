package world

import "log"

// SpeechTTLSeconds is how long a speech annotation stays visible.
const SpeechTTLSeconds = 4.0

// AgentInput is one tick's worth of concrete input staged by the agent
// bridge. It is a single mutex-guarded slot per agent: a second command
// arriving before the next tick silently overwrites the first
// (last-write-wins, deliberate).
type AgentInput struct {
	// Move is a relative offset, applied all-or-nothing with collision
	// rejection.
	Move *Vec2

	// SetTarget aims the agent at a resolved target and marks it attacking.
	SetTarget      bool
	TargetPlayerID int
	TargetAgentID  string
	// StopAttack clears the remembered target.
	StopAttack bool

	// SwitchSlot selects a weapon slot directly (bridge heuristic); nil
	// leaves the slot alone. SwitchWeapon toggles instead.
	SwitchSlot   *int
	SwitchWeapon bool

	Pickup bool
	Speak  string
}

// Agent is an actor driven by an external autonomous agent through the
// bridge. Its id is the external agent's stable identity.
type Agent struct {
	Actor
	ID          string
	DisplayName string

	input *AgentInput
	spawn Vec2

	// Remembered attack target, persists across ticks until replaced.
	TargetPlayerID int
	TargetAgentID  string
}

func (ag *Agent) base() *Actor { return &ag.Actor }

// RefID is the agent's id in the attack-target namespace (unprefixed).
func (ag *Agent) RefID() string { return ag.ID }

// stage replaces the staged input slot.
func (ag *Agent) stage(in AgentInput) {
	ag.input = &in
}

// update consumes the staged bridge input, then runs per-tick combat.
// Caller holds the world lock.
func (ag *Agent) update(w *World, dt float64) {
	ag.tickTimers(dt)
	if ag.Dead {
		return
	}

	in := ag.input
	ag.input = nil
	if in != nil {
		if in.Speak != "" {
			ag.Say(in.Speak, SpeechTTLSeconds)
			w.unlockGatesNear(ag.Pos, in.Speak)
		}
		if in.SwitchWeapon {
			ag.SwitchWeapon()
		}
		if in.SwitchSlot != nil {
			ag.ActiveSlot = *in.SwitchSlot
		}
		if in.Pickup {
			ag.PickupIntent = true
		}
		if in.Move != nil {
			if !w.tryMove(ag, *in.Move) {
				// Movement commands are advisory: a blocked move leaves the
				// position unchanged and is only logged.
				log.Printf("🚧 agent %s move (%.0f,%.0f) blocked", ag.ID, in.Move.X, in.Move.Y)
			}
		}
		if in.StopAttack {
			ag.TargetPlayerID = 0
			ag.TargetAgentID = ""
			ag.Attacking = false
		}
		if in.SetTarget {
			ag.TargetPlayerID = in.TargetPlayerID
			ag.TargetAgentID = in.TargetAgentID
			ag.Attacking = true
		}
	}

	if ag.Attacking {
		if pos, ok := w.targetPosition(ag.TargetPlayerID, ag.TargetAgentID); ok {
			ag.Aim = pos
			gun := ag.ActiveGun()
			if !gun.Melee || ag.Pos.DistanceTo(pos) <= gun.Range+ActorSize {
				w.fire(ag, pos)
			}
		} else {
			// Target left the world; degrade to not attacking.
			ag.TargetPlayerID = 0
			ag.TargetAgentID = ""
			ag.Attacking = false
		}
	}

	if ag.PickupIntent {
		w.checkPickups(ag)
		ag.PickupIntent = false
	}
}
