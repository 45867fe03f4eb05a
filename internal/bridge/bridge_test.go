package bridge

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agent-arena/internal/config"
	"agent-arena/internal/mapdata"
	"agent-arena/internal/world"
)

func testArena() *mapdata.Map {
	return &mapdata.Map{
		Width:  1200,
		Height: 900,
		SpawnPoints: []mapdata.Point{
			{X: 100, Y: 100}, {X: 200, Y: 100},
			{X: 1000, Y: 800}, {X: 1100, Y: 800},
		},
		Zones: map[string]mapdata.Zone{
			"west": {Start: 0, End: 1},
			"east": {Start: 2, End: 3},
		},
	}
}

func newTestBridge(t *testing.T) (*Bridge, *world.World) {
	t.Helper()
	w := world.New(config.DefaultWorld(), config.DefaultLimits(), testArena())
	return New(w), w
}

// runTicks lets the simulation consume staged input.
func runTicks(w *world.World, d time.Duration) {
	w.Start()
	time.Sleep(d)
	w.Stop()
}

// TestParseAction verifies the tool-call decoder
func TestParseAction(t *testing.T) {
	act, err := ParseAction(ToolMove, json.RawMessage(`{"x": 20, "y": -5}`))
	if err != nil {
		t.Fatalf("parse move: %v", err)
	}
	if act.Move.X != 20 || act.Move.Y != -5 {
		t.Errorf("move params = %+v", act.Move)
	}

	if _, err := ParseAction(ToolAttack, json.RawMessage(`{}`)); err == nil {
		t.Error("attack without a target should fail")
	}
	attack, err := ParseAction(ToolAttack, json.RawMessage(`{"target_player_id":"player_2"}`))
	if err != nil {
		t.Fatalf("parse attack with target_player_id: %v", err)
	}
	if attack.Attack.Target() != "player_2" {
		t.Errorf("attack target = %q", attack.Attack.Target())
	}
	alias, err := ParseAction(ToolAttack, json.RawMessage(`{"target_id":"bot_2"}`))
	if err != nil {
		t.Fatalf("parse attack with target_id alias: %v", err)
	}
	if alias.Attack.Target() != "bot_2" {
		t.Errorf("alias attack target = %q", alias.Attack.Target())
	}
	if _, err := ParseAction(ToolSpeak, json.RawMessage(`{"message":""}`)); err == nil {
		t.Error("speak without message should fail")
	}
	act, err = ParseAction("teleport", nil)
	if err != nil {
		t.Fatalf("unknown tool should be tolerated: %v", err)
	}
	if act.Tool != "teleport" || act.Move != nil || act.Attack != nil {
		t.Errorf("unknown tool should decode to a bare tag, got %+v", act)
	}
	if _, err := ParseAction(ToolCollect, nil); err != nil {
		t.Errorf("collect with no params: %v", err)
	}
}

// TestDispatchMove verifies move commands reach the simulation
func TestDispatchMove(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")
	before, _ := w.AgentState("bot_1")

	act, _ := ParseAction(ToolMove, json.RawMessage(`{"x": 40, "y": 0}`))
	if err := b.Dispatch("bot_1", act); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	runTicks(w, 100*time.Millisecond)

	after, _ := w.AgentState("bot_1")
	if after.Pos.X != before.Pos.X+40 {
		t.Errorf("agent x = %v, want %v", after.Pos.X, before.Pos.X+40)
	}
}

// TestDispatchUnknownAgent verifies commands for unregistered agents fail
func TestDispatchUnknownAgent(t *testing.T) {
	b, _ := newTestBridge(t)

	act, _ := ParseAction(ToolCollect, nil)
	if err := b.Dispatch("ghost", act); !errors.Is(err, world.ErrUnknownAgent) {
		t.Errorf("got %v, want ErrUnknownAgent", err)
	}
}

// TestDispatchUnknownToolIgnored verifies unrecognized tool kinds are
// accepted but never touch the simulation
func TestDispatchUnknownToolIgnored(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")
	before, _ := w.AgentState("bot_1")

	act, err := ParseAction("teleport", json.RawMessage(`{"x":999,"y":999}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := b.Dispatch("bot_1", act); err != nil {
		t.Fatalf("dispatch unknown tool: %v", err)
	}

	runTicks(w, 80*time.Millisecond)
	after, _ := w.AgentState("bot_1")
	if after.Pos != before.Pos || after.Attacking {
		t.Error("unknown tool changed simulation state")
	}
}

// TestPlanOnlyTouchesCommandState verifies plans never reach the simulation
func TestPlanOnlyTouchesCommandState(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")
	before, _ := w.AgentState("bot_1")

	act, _ := ParseAction(ToolPlan, json.RawMessage(`{"plan":"flank east, then hold the gate"}`))
	if err := b.Dispatch("bot_1", act); err != nil {
		t.Fatalf("dispatch plan: %v", err)
	}
	if got := b.Plan("bot_1"); got != "flank east, then hold the gate" {
		t.Errorf("Plan() = %q", got)
	}

	runTicks(w, 80*time.Millisecond)
	after, _ := w.AgentState("bot_1")
	if after.Pos != before.Pos || after.Attacking {
		t.Error("plan command changed simulation state")
	}
}

// TestAttackUnresolvedTargetStops verifies a missing target degrades to not
// attacking instead of erroring
func TestAttackUnresolvedTargetStops(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")

	act, _ := ParseAction(ToolAttack, json.RawMessage(`{"target_id":"bot_2"}`))
	if err := b.Dispatch("bot_1", act); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	runTicks(w, 80*time.Millisecond)

	state, _ := w.AgentState("bot_1")
	if state.Attacking {
		t.Error("agent attacking a target that does not exist")
	}
}

// TestAttackSetsTarget verifies a resolvable target marks the agent
// attacking across ticks
func TestAttackSetsTarget(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")
	w.AddAgent("bot_2", "", "east")

	act, _ := ParseAction(ToolAttack, json.RawMessage(`{"target_id":"bot_2"}`))
	if err := b.Dispatch("bot_1", act); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	runTicks(w, 80*time.Millisecond)

	state, _ := w.AgentState("bot_1")
	if !state.Attacking {
		t.Error("agent not attacking a live target")
	}

	stop, _ := ParseAction(ToolStopAttack, nil)
	b.Dispatch("bot_1", stop)
	runTicks(w, 80*time.Millisecond)

	state, _ = w.AgentState("bot_1")
	if state.Attacking {
		t.Error("stop_attack did not clear the target")
	}
}

// TestStalemateBreaker verifies repeated attacks at a fixed range swap into
// a move toward the target
func TestStalemateBreaker(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")
	w.AddAgent("bot_2", "", "east")
	before, _ := w.AgentState("bot_1")

	// Neither agent moves between commands, so the distance never closes.
	// The command after the threshold must stage a move instead.
	act, _ := ParseAction(ToolAttack, json.RawMessage(`{"target_id":"bot_2"}`))
	for i := 0; i <= stalemateLimit+1; i++ {
		if err := b.Dispatch("bot_1", act); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	runTicks(w, 100*time.Millisecond)

	after, _ := w.AgentState("bot_1")
	if after.Pos == before.Pos {
		t.Fatal("stalemated agent did not move toward its target")
	}
	// The substitute move heads toward the target in the south-east.
	if after.Pos.X <= before.Pos.X || after.Pos.Y <= before.Pos.Y {
		t.Errorf("moved from %v to %v, away from the target", before.Pos, after.Pos)
	}

	b.mu.Lock()
	count := b.states["bot_1"].sameTarget
	b.mu.Unlock()
	if count != 0 {
		t.Errorf("stalemate counter = %d, want reset to 0", count)
	}
}

// TestChooseSlot verifies the range-based weapon heuristic
func TestChooseSlot(t *testing.T) {
	base := world.CombatView{
		TargetFound: true,
		ActiveSlot:  0,
		MeleeSlot:   1,
		RangedSlot:  0,
	}

	tests := []struct {
		name     string
		dist     float64
		hasAmmo  bool
		wantSlot int
	}{
		{"point blank", 30, true, 1},
		{"mid range keeps current", 120, true, 0},
		{"long range", 400, true, 0},
		{"no ammo at range", 400, false, 1},
		{"no ammo point blank", 30, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := base
			cv.Distance = tt.dist
			cv.HasRangedAmmo = tt.hasAmmo
			if got := chooseSlot(cv); got != tt.wantSlot {
				t.Errorf("chooseSlot(dist=%v ammo=%v) = %d, want %d", tt.dist, tt.hasAmmo, got, tt.wantSlot)
			}
		})
	}
}

// TestPerceive verifies the bridge exposes a sorted observation
func TestPerceive(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")
	w.AddAgent("bot_2", "", "west")

	obs, err := b.Perceive("bot_1")
	if err != nil {
		t.Fatalf("perceive: %v", err)
	}
	if obs.Self.ID != "bot_1" {
		t.Errorf("self = %q", obs.Self.ID)
	}
	found := false
	for _, n := range obs.Nearby {
		if n.Ref == "bot_2" {
			found = true
			if n.Distance != 100 {
				t.Errorf("bot_2 at distance %v, want 100", n.Distance)
			}
		}
	}
	if !found {
		t.Error("neighboring agent not observed")
	}

	if _, err := b.Perceive("ghost"); !errors.Is(err, world.ErrUnknownAgent) {
		t.Errorf("unknown agent: %v", err)
	}
}

// TestRemoveClearsState verifies command memory is dropped with the agent
func TestRemoveClearsState(t *testing.T) {
	b, w := newTestBridge(t)
	w.AddAgent("bot_1", "", "west")

	act, _ := ParseAction(ToolPlan, json.RawMessage(`{"plan":"hide"}`))
	b.Dispatch("bot_1", act)
	w.RemoveAgent("bot_1")
	b.Remove("bot_1")

	if b.Plan("bot_1") != "" {
		t.Error("plan survived agent removal")
	}
}
