package bridge

import (
	"encoding/json"
	"fmt"
	"log"
)

// Tool types understood by the bridge. Anything else is logged and
// ignored without touching the simulation.
const (
	ToolMove         = "move"
	ToolAttack       = "attack"
	ToolStopAttack   = "stop_attack"
	ToolCollect      = "collect"
	ToolSwitchWeapon = "switch_weapon"
	ToolSpeak        = "speak"
	ToolPlan         = "plan"
	ToolSearch       = "search"
)

type MoveParams struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type AttackParams struct {
	TargetPlayerID string `json:"target_player_id"`
	TargetID       string `json:"target_id"`
}

// Target returns whichever target reference the caller supplied.
func (p *AttackParams) Target() string {
	if p.TargetPlayerID != "" {
		return p.TargetPlayerID
	}
	return p.TargetID
}

type SwitchWeaponParams struct {
	// Slot selects a loadout slot directly; nil toggles.
	Slot *int `json:"slot"`
}

type SpeakParams struct {
	Message string `json:"message"`
}

type PlanParams struct {
	Plan string `json:"plan"`
}

type SearchParams struct {
	Query string `json:"query"`
}

// Action is a decoded agent tool call. Exactly the variant matching Tool is
// non-nil.
type Action struct {
	Tool string

	Move         *MoveParams
	Attack       *AttackParams
	SwitchWeapon *SwitchWeaponParams
	Speak        *SpeakParams
	Plan         *PlanParams
	Search       *SearchParams
}

// ParseAction decodes a {tool_type, parameters} pair into a typed Action.
func ParseAction(tool string, params json.RawMessage) (*Action, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	act := &Action{Tool: tool}

	var err error
	switch tool {
	case ToolMove:
		act.Move = &MoveParams{}
		err = json.Unmarshal(params, act.Move)
	case ToolAttack:
		act.Attack = &AttackParams{}
		err = json.Unmarshal(params, act.Attack)
		if err == nil && act.Attack.Target() == "" {
			err = fmt.Errorf("attack requires target_player_id")
		}
	case ToolStopAttack, ToolCollect:
		// No parameters.
	case ToolSwitchWeapon:
		act.SwitchWeapon = &SwitchWeaponParams{}
		err = json.Unmarshal(params, act.SwitchWeapon)
	case ToolSpeak:
		act.Speak = &SpeakParams{}
		err = json.Unmarshal(params, act.Speak)
		if err == nil && act.Speak.Message == "" {
			err = fmt.Errorf("speak requires message")
		}
	case ToolPlan:
		act.Plan = &PlanParams{}
		err = json.Unmarshal(params, act.Plan)
	case ToolSearch:
		act.Search = &SearchParams{}
		err = json.Unmarshal(params, act.Search)
	default:
		// Unrecognized tools are tolerated so an agent SDK ahead of the
		// server does not break: log and carry the bare tag through.
		log.Printf("🤷 ignoring unknown tool type %q", tool)
	}
	if err != nil {
		return nil, fmt.Errorf("bad %s parameters: %w", tool, err)
	}
	return act, nil
}
