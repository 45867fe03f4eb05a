package world

import "fmt"

// PlayerSpeed is the human movement speed in units per second.
const PlayerSpeed = 240.0

// Movement is the held-direction state from a client input message.
type Movement struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Actions carries the one-shot action flags from a client input message.
type Actions struct {
	SwitchWeapon bool `json:"switchWeapon"`
	Pickup       bool `json:"pickup"`
	Reload       bool `json:"reload"`
	Interact     bool `json:"interact"`
}

// InputState is one tick's worth of client input. The world keeps a single
// staged slot per player: a second input arriving before the next tick
// overwrites the first.
type InputState struct {
	Seq       int      `json:"seq"`
	Movement  Movement `json:"movement"`
	Mouse     Vec2     `json:"mouse"`
	Attacking bool     `json:"attacking"`
	Actions   Actions  `json:"actions"`
	Speech    string   `json:"speech,omitempty"`
}

// Player is a human-controlled actor.
type Player struct {
	Actor
	ID int

	input   *InputState
	lastSeq int
	spawn   Vec2
}

func (p *Player) base() *Actor { return &p.Actor }

// RefID is the prefixed id used in the attack-target namespace.
func (p *Player) RefID() string { return fmt.Sprintf("player_%d", p.ID) }

// stageInput queues input for the next tick, dropping stale sequence numbers.
func (p *Player) stageInput(in InputState) {
	if in.Seq != 0 && in.Seq <= p.lastSeq {
		return
	}
	p.lastSeq = in.Seq
	p.input = &in
}

// update applies the staged input, then consumes it. Caller holds the world
// lock.
func (p *Player) update(w *World, dt float64) {
	p.tickTimers(dt)
	if p.Dead {
		return
	}

	in := p.input
	p.input = nil
	if in != nil {
		var delta Vec2
		if in.Movement.Up {
			delta.Y -= 1
		}
		if in.Movement.Down {
			delta.Y += 1
		}
		if in.Movement.Left {
			delta.X -= 1
		}
		if in.Movement.Right {
			delta.X += 1
		}
		if delta.X != 0 || delta.Y != 0 {
			delta = delta.Normalize().Scale(PlayerSpeed * dt)
			// Per-axis resolution lets players slide along walls.
			w.tryMove(p, Vec2{X: delta.X})
			w.tryMove(p, Vec2{Y: delta.Y})
		}

		p.Aim = in.Mouse
		p.Attacking = in.Attacking

		if in.Actions.SwitchWeapon {
			p.SwitchWeapon()
		}
		if in.Actions.Reload {
			p.Reload()
		}
		if in.Actions.Pickup {
			p.PickupIntent = true
		}
		if in.Actions.Interact {
			w.checkInteractions(p)
		}
		if in.Speech != "" {
			p.Say(in.Speech, SpeechTTLSeconds)
			w.unlockGatesNear(p.Pos, in.Speech)
		}
	}

	if p.Attacking {
		w.fire(p, p.Aim)
	}
	if p.PickupIntent {
		w.checkPickups(p)
		p.PickupIntent = false
	}
}
