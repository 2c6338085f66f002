package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/storage/memory"
	"github.com/user/furusato-strategy/internal/types"
)

// testGame is a started two-player room over an in-memory store with a
// seeded dice roller.
type testGame struct {
	ctx    context.Context
	store  *memory.Store
	engine *Engine
	svc    *RoomService
	room   *types.Room
	alice  *types.Player
	bob    *types.Player
}

func newStartedGame(t *testing.T) *testGame {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	cfg := config.DefaultConfig().Game

	svc := NewRoomService(store, cfg)
	room, alice, err := svc.CreateRoom(ctx, "Alice")
	assert.NoError(t, err)
	_, bob, err := svc.JoinRoom(ctx, room.Code, "Bob")
	assert.NoError(t, err)
	_, err = svc.SetReady(ctx, alice.ID, true)
	assert.NoError(t, err)
	_, err = svc.SetReady(ctx, bob.ID, true)
	assert.NoError(t, err)
	room, err = svc.StartGame(ctx, room.ID)
	assert.NoError(t, err)

	engine := NewEngine(store, cfg)
	engine.SetDiceRoller(NewDiceRollerWithSeed(1))

	return &testGame{
		ctx:    ctx,
		store:  store,
		engine: engine,
		svc:    svc,
		room:   room,
		alice:  alice,
		bob:    bob,
	}
}

// setPhase forces the room into a phase for the given player's turn.
func (g *testGame) setPhase(t *testing.T, phase types.GamePhase, playerID string) {
	t.Helper()
	_, err := g.store.UpdateRoom(g.ctx, g.room.ID, storage.RoomPatch{
		CurrentPhase:    &phase,
		CurrentPlayerID: &playerID,
	})
	assert.NoError(t, err)
}

// setPosition moves a player to a board position directly.
func (g *testGame) setPosition(t *testing.T, playerID string, position int) {
	t.Helper()
	_, err := g.store.UpdatePlayer(g.ctx, playerID, storage.PlayerPatch{Position: &position})
	assert.NoError(t, err)
}

func TestRollAndMove(t *testing.T) {
	g := newStartedGame(t)

	// Test case 1: Current player rolls and moves
	result, err := g.engine.RollAndMove(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, result.DiceValue, 1)
	assert.LessOrEqual(t, result.DiceValue, 6)
	assert.Equal(t, result.DiceValue%20, result.NewPosition)

	player, err := g.store.GetPlayer(g.ctx, g.alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, result.NewPosition, player.Position)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.PhaseMove, room.CurrentPhase)

	// Test case 2: Rolling again in the move phase is rejected
	_, err = g.engine.RollAndMove(g.ctx, g.room.ID, g.alice.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	// Test case 3: The roll is logged
	logs, err := g.store.GetGameLogs(g.ctx, g.room.ID, 1)
	assert.NoError(t, err)
	assert.Contains(t, logs[0].Message, "Alice rolled a")

	// Test case 4: A player out of turn cannot roll
	g.setPhase(t, types.PhaseRoll, g.alice.ID)
	_, err = g.engine.RollAndMove(g.ctx, g.room.ID, g.bob.ID)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestResolveActionCell(t *testing.T) {
	g := newStartedGame(t)
	g.setPosition(t, g.alice.ID, 1)
	g.setPhase(t, types.PhaseMove, g.alice.ID)

	outcome, err := g.engine.ResolveCell(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.NotNil(t, outcome.Card)
	assert.Equal(t, types.CardAction, outcome.Card.Type)
	assert.Nil(t, outcome.Turn)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.PhaseAction, room.CurrentPhase)
}

func TestResolveEventCell(t *testing.T) {
	g := newStartedGame(t)
	g.setPosition(t, g.alice.ID, 2)
	g.setPhase(t, types.PhaseMove, g.alice.ID)

	outcome, err := g.engine.ResolveCell(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.NotNil(t, outcome.Card)
	assert.Equal(t, types.CardEvent, outcome.Card.Type)
	assert.Nil(t, outcome.Turn)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.PhaseEvent, room.CurrentPhase)
}

func TestResolveSubsidyCell(t *testing.T) {
	g := newStartedGame(t)
	g.setPosition(t, g.alice.ID, 4)
	g.setPhase(t, types.PhaseMove, g.alice.ID)

	outcome, err := g.engine.ResolveCell(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.Nil(t, outcome.Card)
	assert.NotNil(t, outcome.Turn)
	assert.Equal(t, "Alice received a subsidy of 100", outcome.Message)

	// Subsidy lands on the budget and the turn passes on
	player, err := g.store.GetPlayer(g.ctx, g.alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 600, player.Budget)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.PhaseRoll, room.CurrentPhase)
	assert.Equal(t, g.bob.ID, room.CurrentPlayerID)
	assert.Equal(t, 2, room.CurrentTurn)
}

func TestResolveExchangeCell(t *testing.T) {
	g := newStartedGame(t)
	g.setPosition(t, g.alice.ID, 9)
	g.setPhase(t, types.PhaseMove, g.alice.ID)

	outcome, err := g.engine.ResolveCell(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.NotNil(t, outcome.Turn)

	state, err := g.store.GetGameState(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 50, state.RelatedPopulation)
}

func TestExecuteActionCard(t *testing.T) {
	g := newStartedGame(t)
	g.setPhase(t, types.PhaseAction, g.alice.ID)

	// Test case 1: Affordable solo card applies cost and effect
	result, err := g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "action-005", nil)
	assert.NoError(t, err)
	assert.True(t, result.OK)
	assert.NotNil(t, result.Turn)

	player, err := g.store.GetPlayer(g.ctx, g.alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 470, player.Budget)

	state, err := g.store.GetGameState(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 65, state.Happiness.Environment)
	assert.Equal(t, 55, state.Happiness.Health)

	// Turn passed to the next player
	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, g.bob.ID, room.CurrentPlayerID)
	assert.Equal(t, types.PhaseRoll, room.CurrentPhase)

	// The play is logged with its effect summary
	logs, err := g.store.GetGameLogs(g.ctx, g.room.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, `Alice played "Woodland Conservation" (Environment +15, Health +5)`, logs[0].Message)
}

func TestExecuteActionCardValidation(t *testing.T) {
	g := newStartedGame(t)
	g.setPhase(t, types.PhaseAction, g.alice.ID)

	// Test case 1: Unknown card fails without error
	result, err := g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "action-999", nil)
	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "card not found", result.Message)

	// Test case 2: An event card cannot be played as an action
	result, err = g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "event-001", nil)
	assert.NoError(t, err)
	assert.False(t, result.OK)

	// Test case 3: Cooperator requirement not met
	result, err = g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "action-002", nil)
	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "cooperating players")

	// Nothing changed: budget intact, still the action phase
	player, err := g.store.GetPlayer(g.ctx, g.alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 500, player.Budget)
	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.PhaseAction, room.CurrentPhase)

	// Test case 4: Insufficient budget
	low := 50
	_, err = g.store.UpdatePlayer(g.ctx, g.alice.ID, storage.PlayerPatch{Budget: &low})
	assert.NoError(t, err)
	result, err = g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "action-001", nil)
	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "not enough budget", result.Message)

	// Test case 5: Playing outside the action phase is a hard rejection
	g.setPhase(t, types.PhaseRoll, g.alice.ID)
	_, err = g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "action-005", nil)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestExecuteActionCardCooperators(t *testing.T) {
	g := newStartedGame(t)
	g.setPhase(t, types.PhaseAction, g.alice.ID)

	// action-002 needs two players including the actor
	result, err := g.engine.ExecuteActionCard(g.ctx, g.room.ID, g.alice.ID, "action-002", []string{g.bob.ID})
	assert.NoError(t, err)
	assert.True(t, result.OK)

	// Only the acting player pays; the cooperator's stats are untouched
	alice, err := g.store.GetPlayer(g.ctx, g.alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 300, alice.Budget)

	bob, err := g.store.GetPlayer(g.ctx, g.bob.ID)
	assert.NoError(t, err)
	assert.Equal(t, 500, bob.Budget)
	assert.Equal(t, 0, bob.Position)

	state, err := g.store.GetGameState(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 65, state.Happiness.Connection)
}

func TestSkipAction(t *testing.T) {
	g := newStartedGame(t)
	g.setPhase(t, types.PhaseAction, g.alice.ID)

	turn, err := g.engine.SkipAction(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.False(t, turn.Victory)
	assert.False(t, turn.Defeat)
	assert.False(t, turn.NewYear)

	logs, err := g.store.GetGameLogs(g.ctx, g.room.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, "Alice skipped their action", logs[0].Message)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, g.bob.ID, room.CurrentPlayerID)
	assert.Equal(t, types.PhaseRoll, room.CurrentPhase)

	// Skipping outside the action phase is rejected
	_, err = g.engine.SkipAction(g.ctx, g.room.ID, g.bob.ID)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestProcessEventCard(t *testing.T) {
	g := newStartedGame(t)
	g.setPhase(t, types.PhaseEvent, g.alice.ID)

	// Test case 1: Event effect lands on the shared state
	result, err := g.engine.ProcessEventCard(g.ctx, g.room.ID, "event-003")
	assert.NoError(t, err)
	assert.True(t, result.OK)
	assert.NotNil(t, result.Turn)

	state, err := g.store.GetGameState(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 40, state.Happiness.Safety)
	assert.Equal(t, 45, state.Happiness.Health)

	logs, err := g.store.GetGameLogs(g.ctx, g.room.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, `The event "Heavy Snow" occurred (Safety -10, Health -5)`, logs[0].Message)

	// Test case 2: Unknown and non-event cards fail softly
	g.setPhase(t, types.PhaseEvent, g.bob.ID)
	result, err = g.engine.ProcessEventCard(g.ctx, g.room.ID, "event-999")
	assert.NoError(t, err)
	assert.False(t, result.OK)

	result, err = g.engine.ProcessEventCard(g.ctx, g.room.ID, "action-001")
	assert.NoError(t, err)
	assert.False(t, result.OK)

	// Test case 3: Outside the event phase is rejected
	g.setPhase(t, types.PhaseRoll, g.bob.ID)
	_, err = g.engine.ProcessEventCard(g.ctx, g.room.ID, "event-001")
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestYearRollover(t *testing.T) {
	g := newStartedGame(t)

	// Alice ends her turn: same year, Bob is up
	g.setPhase(t, types.PhaseAction, g.alice.ID)
	turn, err := g.engine.SkipAction(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.False(t, turn.NewYear)

	// Bob ends his turn: the order wraps, a new year begins
	g.setPhase(t, types.PhaseAction, g.bob.ID)
	turn, err = g.engine.SkipAction(g.ctx, g.room.ID, g.bob.ID)
	assert.NoError(t, err)
	assert.True(t, turn.NewYear)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, room.CurrentYear)
	assert.Equal(t, g.alice.ID, room.CurrentPlayerID)
	assert.Equal(t, types.PhaseRoll, room.CurrentPhase)

	// The decay and grants are applied exactly once
	state, err := g.store.GetGameState(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 9800, state.Population)

	for _, id := range []string{g.alice.ID, g.bob.ID} {
		player, err := g.store.GetPlayer(g.ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, 600, player.Budget)
	}

	logs, err := g.store.GetGameLogs(g.ctx, g.room.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "Year 2 has begun. The population declined and every player received a budget grant", logs[0].Message)
}

func TestVictory(t *testing.T) {
	g := newStartedGame(t)

	year := 5
	_, err := g.store.UpdateRoom(g.ctx, g.room.ID, storage.RoomPatch{CurrentYear: &year})
	assert.NoError(t, err)
	g.setPhase(t, types.PhaseAction, g.alice.ID)

	turn, err := g.engine.SkipAction(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.True(t, turn.Victory)
	assert.False(t, turn.Defeat)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.RoomFinished, room.Status)
	assert.Equal(t, types.PhaseFinished, room.CurrentPhase)

	// No further operations once the room is finished
	_, err = g.engine.RollAndMove(g.ctx, g.room.ID, g.bob.ID)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestDefeat(t *testing.T) {
	g := newStartedGame(t)

	low := 10
	_, err := g.store.UpdateGameState(g.ctx, g.room.ID, storage.GameStatePatch{Connection: &low})
	assert.NoError(t, err)
	g.setPhase(t, types.PhaseAction, g.alice.ID)

	turn, err := g.engine.SkipAction(g.ctx, g.room.ID, g.alice.ID)
	assert.NoError(t, err)
	assert.True(t, turn.Defeat)
	assert.False(t, turn.Victory)
	assert.Equal(t, "Connection fell below the critical level", turn.DefeatReason)

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.RoomFinished, room.Status)
}

func TestFullTurnCycle(t *testing.T) {
	g := newStartedGame(t)

	// Play one full year by the regular operation sequence, skipping
	// drawn action cards and processing drawn events.
	for turns := 0; turns < 2; turns++ {
		room, err := g.store.GetRoom(g.ctx, g.room.ID)
		assert.NoError(t, err)
		current := room.CurrentPlayerID

		_, err = g.engine.RollAndMove(g.ctx, g.room.ID, current)
		assert.NoError(t, err)

		outcome, err := g.engine.ResolveCell(g.ctx, g.room.ID, current)
		assert.NoError(t, err)

		if outcome.Card != nil {
			switch outcome.Card.Type {
			case types.CardAction:
				_, err = g.engine.SkipAction(g.ctx, g.room.ID, current)
				assert.NoError(t, err)
			case types.CardEvent:
				_, err = g.engine.ProcessEventCard(g.ctx, g.room.ID, outcome.Card.ID)
				assert.NoError(t, err)
			}
		}
	}

	room, err := g.store.GetRoom(g.ctx, g.room.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, room.CurrentTurn)
	assert.Equal(t, 2, room.CurrentYear)
	assert.Equal(t, g.alice.ID, room.CurrentPlayerID)
	assert.Equal(t, types.PhaseRoll, room.CurrentPhase)
}
