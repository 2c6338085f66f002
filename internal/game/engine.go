package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/interfaces"
	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/types"
	"go.uber.org/zap"
)

var _ interfaces.TurnEngine = (*Engine)(nil)

// ErrPrecondition marks a rejected operation: the room was not in the
// expected phase, the player was out of turn, or a lobby gate failed.
// No state has changed when it is returned.
var ErrPrecondition = errors.New("precondition violated")

// Engine drives the turn/phase state machine. It holds no game state
// between calls: every operation re-reads the authoritative records from
// the store, computes, writes back, and appends a log entry.
//
// A per-room lock serializes mutating operations, and each operation
// re-checks its phase/current-player precondition after acquiring the
// lock, so a stale double-submit is rejected before any write.
type Engine struct {
	store   storage.Store
	board   *Board
	catalog *Catalog
	cfg     config.GameConfig
	logger  *zap.Logger
	dice    *DiceRoller

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewEngine creates an engine over the given store with the reference
// board and card catalog.
func NewEngine(store storage.Store, cfg config.GameConfig) *Engine {
	return &Engine{
		store:     store,
		board:     DefaultBoard(),
		catalog:   DefaultCatalog(),
		cfg:       cfg,
		logger:    zap.NewNop(), // Will be set by the server
		dice:      NewDiceRoller(),
		roomLocks: make(map[string]*sync.Mutex),
	}
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(logger *zap.Logger) {
	e.logger = logger
}

// SetDiceRoller replaces the dice roller, for deterministic tests.
func (e *Engine) SetDiceRoller(dice *DiceRoller) {
	e.dice = dice
}

// Board returns the engine's board.
func (e *Engine) Board() *Board {
	return e.board
}

// Catalog returns the engine's card catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// lockRoom acquires the room's mutation lock and returns the unlock.
func (e *Engine) lockRoom(roomID string) func() {
	e.mu.Lock()
	lock, exists := e.roomLocks[roomID]
	if !exists {
		lock = &sync.Mutex{}
		e.roomLocks[roomID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// checkTurn validates the room's phase and, when playerID is non-empty,
// that the player holds the turn.
func checkTurn(room *types.Room, playerID string, phase types.GamePhase) error {
	if room.Status != types.RoomPlaying {
		return fmt.Errorf("%w: room is not in play", ErrPrecondition)
	}
	if room.CurrentPhase != phase {
		return fmt.Errorf("%w: room is in the %s phase, expected %s", ErrPrecondition, room.CurrentPhase, phase)
	}
	if playerID != "" && room.CurrentPlayerID != playerID {
		return fmt.Errorf("%w: not this player's turn", ErrPrecondition)
	}
	return nil
}

// RollAndMove rolls a d6 for the current player, advances their position
// with wraparound, and moves the room into the move phase.
func (e *Engine) RollAndMove(ctx context.Context, roomID, playerID string) (*types.RollResult, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if err := checkTurn(room, playerID, types.PhaseRoll); err != nil {
		return nil, err
	}

	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("player not found: %w", err)
	}

	diceValue := e.dice.Roll(6)
	newPosition := e.board.Advance(player.Position, diceValue)
	cell := e.board.CellAt(newPosition)

	if _, err := e.store.UpdatePlayer(ctx, playerID, storage.PlayerPatch{Position: &newPosition}); err != nil {
		return nil, fmt.Errorf("update player position: %w", err)
	}

	message := fmt.Sprintf("%s rolled a %d and moved to the %s cell", player.Name, diceValue, cell.Label)
	if err := e.store.AddGameLog(ctx, roomID, message, playerID); err != nil {
		return nil, fmt.Errorf("add game log: %w", err)
	}

	phase := types.PhaseMove
	if _, err := e.store.UpdateRoom(ctx, roomID, storage.RoomPatch{CurrentPhase: &phase}); err != nil {
		return nil, fmt.Errorf("update room phase: %w", err)
	}

	e.logger.Info("player rolled",
		zap.String("room_id", roomID),
		zap.String("player_id", playerID),
		zap.Int("dice", diceValue),
		zap.Int("position", newPosition))

	return &types.RollResult{DiceValue: diceValue, NewPosition: newPosition, Cell: cell}, nil
}

// ResolveCell resolves the cell the current player landed on. Action and
// event cells draw a card and leave the turn open; every other cell ends
// the turn, with subsidy and exchange cells applying their bonus first.
func (e *Engine) ResolveCell(ctx context.Context, roomID, playerID string) (*types.CellOutcome, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if err := checkTurn(room, playerID, types.PhaseMove); err != nil {
		return nil, err
	}

	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("player not found: %w", err)
	}

	cell := e.board.CellAt(player.Position)

	switch cell.Type {
	case types.CellAction:
		card := e.catalog.RandomAction(e.dice)
		phase := types.PhaseAction
		if _, err := e.store.UpdateRoom(ctx, roomID, storage.RoomPatch{CurrentPhase: &phase}); err != nil {
			return nil, fmt.Errorf("update room phase: %w", err)
		}
		return &types.CellOutcome{
			Card:    &card,
			Message: fmt.Sprintf("Drew the action card %q", card.Name),
		}, nil

	case types.CellEvent:
		card := e.catalog.RandomEvent(e.dice)
		phase := types.PhaseEvent
		if _, err := e.store.UpdateRoom(ctx, roomID, storage.RoomPatch{CurrentPhase: &phase}); err != nil {
			return nil, fmt.Errorf("update room phase: %w", err)
		}
		return &types.CellOutcome{
			Card:    &card,
			Message: fmt.Sprintf("The event %q occurred", card.Name),
		}, nil

	case types.CellSpecial:
		switch cell.Special {
		case types.SpecialSubsidy:
			newBudget := player.Budget + e.cfg.SubsidyAmount
			if _, err := e.store.UpdatePlayer(ctx, playerID, storage.PlayerPatch{Budget: &newBudget}); err != nil {
				return nil, fmt.Errorf("update player budget: %w", err)
			}
			message := fmt.Sprintf("%s received a subsidy of %d", player.Name, e.cfg.SubsidyAmount)
			if err := e.store.AddGameLog(ctx, roomID, message, playerID); err != nil {
				return nil, fmt.Errorf("add game log: %w", err)
			}
			turn, err := e.endTurn(ctx, roomID)
			if err != nil {
				return nil, err
			}
			return &types.CellOutcome{Message: message, Turn: turn}, nil

		case types.SpecialExchange:
			state, err := e.store.GetGameState(ctx, roomID)
			if err != nil {
				return nil, fmt.Errorf("get game state: %w", err)
			}
			newRelated := state.RelatedPopulation + e.cfg.ExchangePopulationBonus
			if _, err := e.store.UpdateGameState(ctx, roomID, storage.GameStatePatch{RelatedPopulation: &newRelated}); err != nil {
				return nil, fmt.Errorf("update game state: %w", err)
			}
			message := fmt.Sprintf("The exchange event increased the related population by %d", e.cfg.ExchangePopulationBonus)
			if err := e.store.AddGameLog(ctx, roomID, message, playerID); err != nil {
				return nil, fmt.Errorf("add game log: %w", err)
			}
			turn, err := e.endTurn(ctx, roomID)
			if err != nil {
				return nil, err
			}
			return &types.CellOutcome{Message: message, Turn: turn}, nil

		case types.SpecialSettlement:
			turn, err := e.endTurn(ctx, roomID)
			if err != nil {
				return nil, err
			}
			return &types.CellOutcome{Message: "Settlement day. The turn is over", Turn: turn}, nil

		default:
			// Special cell without a tagged behavior has no effect.
			turn, err := e.endTurn(ctx, roomID)
			if err != nil {
				return nil, err
			}
			return &types.CellOutcome{Message: "Nothing happened", Turn: turn}, nil
		}

	case types.CellStart:
		turn, err := e.endTurn(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return &types.CellOutcome{Message: "Back at the start cell", Turn: turn}, nil

	default:
		turn, err := e.endTurn(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return &types.CellOutcome{Message: "The turn is over", Turn: turn}, nil
	}
}

// ExecuteActionCard plays an action card for the current player. All
// preconditions are validated before any write; a failed precondition
// returns an unsuccessful result with no state changed. Cooperators are
// recorded as meeting the card's requirement but receive no state
// changes themselves; only the acting player pays the cost and only the
// shared state receives the effect.
func (e *Engine) ExecuteActionCard(ctx context.Context, roomID, playerID, cardID string, cooperators []string) (*types.ActionResult, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if err := checkTurn(room, playerID, types.PhaseAction); err != nil {
		return nil, err
	}

	card, ok := e.catalog.ByID(cardID)
	if !ok || card.Type != types.CardAction {
		return &types.ActionResult{OK: false, Message: "card not found"}, nil
	}

	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &types.ActionResult{OK: false, Message: "player not found"}, nil
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	if card.Cost > 0 && player.Budget < card.Cost {
		return &types.ActionResult{OK: false, Message: "not enough budget"}, nil
	}
	if card.RequiredPlayers > 0 && len(cooperators)+1 < card.RequiredPlayers {
		return &types.ActionResult{
			OK:      false,
			Message: fmt.Sprintf("this card needs %d cooperating players", card.RequiredPlayers),
		}, nil
	}

	if card.Cost > 0 {
		newBudget := player.Budget - card.Cost
		if _, err := e.store.UpdatePlayer(ctx, playerID, storage.PlayerPatch{Budget: &newBudget}); err != nil {
			return nil, fmt.Errorf("deduct card cost: %w", err)
		}
	}

	if err := e.applyEffect(ctx, roomID, card.Effect); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s played %q (%s)", player.Name, card.Name, DescribeEffect(card.Effect))
	if err := e.store.AddGameLog(ctx, roomID, message, playerID); err != nil {
		return nil, fmt.Errorf("add game log: %w", err)
	}

	e.logger.Info("action card executed",
		zap.String("room_id", roomID),
		zap.String("player_id", playerID),
		zap.String("card_id", cardID),
		zap.Int("cooperators", len(cooperators)))

	turn, err := e.endTurn(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &types.ActionResult{
		OK:      true,
		Message: fmt.Sprintf("Played %q", card.Name),
		Turn:    turn,
	}, nil
}

// SkipAction logs that the current player skipped their action and ends
// the turn. An unresolvable player is logged under a generic name.
func (e *Engine) SkipAction(ctx context.Context, roomID, playerID string) (*types.TurnResult, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if err := checkTurn(room, playerID, types.PhaseAction); err != nil {
		return nil, err
	}

	name := "A player"
	if player, err := e.store.GetPlayer(ctx, playerID); err == nil {
		name = player.Name
	}
	if err := e.store.AddGameLog(ctx, roomID, fmt.Sprintf("%s skipped their action", name), playerID); err != nil {
		return nil, fmt.Errorf("add game log: %w", err)
	}

	return e.endTurn(ctx, roomID)
}

// ProcessEventCard applies an event card's effect to the shared state.
// Event cards have no cost, no cooperator gate, and no acting player.
func (e *Engine) ProcessEventCard(ctx context.Context, roomID, cardID string) (*types.EventResult, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if err := checkTurn(room, "", types.PhaseEvent); err != nil {
		return nil, err
	}

	card, ok := e.catalog.ByID(cardID)
	if !ok || card.Type != types.CardEvent {
		return &types.EventResult{OK: false, Message: "card not found"}, nil
	}

	if err := e.applyEffect(ctx, roomID, card.Effect); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("The event %q occurred (%s)", card.Name, DescribeEffect(card.Effect))
	if err := e.store.AddGameLog(ctx, roomID, message, ""); err != nil {
		return nil, fmt.Errorf("add game log: %w", err)
	}

	turn, err := e.endTurn(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &types.EventResult{
		OK:      true,
		Message: fmt.Sprintf("%q occurred", card.Name),
		Turn:    turn,
	}, nil
}

// applyEffect writes a card effect's happiness, population, and related
// population deltas into the shared game state. Happiness is clamped per
// factor at application time.
func (e *Engine) applyEffect(ctx context.Context, roomID string, effect types.CardEffect) error {
	state, err := e.store.GetGameState(ctx, roomID)
	if err != nil {
		return fmt.Errorf("get game state: %w", err)
	}

	happiness := ApplyHappiness(state.Happiness, effect.Happiness, e.cfg.HappinessMin, e.cfg.HappinessMax)
	population := state.Population + effect.Population
	related := state.RelatedPopulation + effect.RelatedPopulation

	patch := storage.GameStatePatch{
		Connection:        &happiness.Connection,
		Culture:           &happiness.Culture,
		Safety:            &happiness.Safety,
		Health:            &happiness.Health,
		Environment:       &happiness.Environment,
		Population:        &population,
		RelatedPopulation: &related,
	}
	if _, err := e.store.UpdateGameState(ctx, roomID, patch); err != nil {
		return fmt.Errorf("update game state: %w", err)
	}
	return nil
}

// endTurn evaluates victory and defeat against the current state, and
// either finishes the room or hands the turn to the next player by rank,
// applying the yearly rollover when the order wraps back to rank one.
func (e *Engine) endTurn(ctx context.Context, roomID string) (*types.TurnResult, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	players, err := e.store.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	state, err := e.store.GetGameState(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}

	// Victory is checked before defeat.
	victory := CheckVictory(room.CurrentYear, state, e.cfg)
	defeat := CheckDefeat(state, e.cfg)

	if victory || defeat.Defeated {
		status := types.RoomFinished
		phase := types.PhaseFinished
		if _, err := e.store.UpdateRoom(ctx, roomID, storage.RoomPatch{Status: &status, CurrentPhase: &phase}); err != nil {
			return nil, fmt.Errorf("finish room: %w", err)
		}
		e.logger.Info("game finished",
			zap.String("room_id", roomID),
			zap.Bool("victory", victory),
			zap.Bool("defeat", defeat.Defeated),
			zap.String("defeat_reason", defeat.Reason))
		return &types.TurnResult{
			Victory:      victory,
			Defeat:       defeat.Defeated,
			DefeatReason: defeat.Reason,
		}, nil
	}

	next, err := nextPlayer(players, room.CurrentPlayerID)
	if err != nil {
		return nil, err
	}

	// A year completes exactly when the turn order wraps back to the
	// lowest-rank player.
	newYear := next.ID == players[0].ID
	yearNum := room.CurrentYear

	if newYear {
		yearNum = room.CurrentYear + 1

		population := state.Population + e.cfg.YearlyPopulationDecay
		if _, err := e.store.UpdateGameState(ctx, roomID, storage.GameStatePatch{Population: &population}); err != nil {
			return nil, fmt.Errorf("apply yearly decay: %w", err)
		}

		for _, p := range players {
			budget := p.Budget + e.cfg.YearlyBudgetGrant
			if _, err := e.store.UpdatePlayer(ctx, p.ID, storage.PlayerPatch{Budget: &budget}); err != nil {
				return nil, fmt.Errorf("apply yearly grant: %w", err)
			}
		}

		message := fmt.Sprintf("Year %d has begun. The population declined and every player received a budget grant", yearNum)
		if err := e.store.AddGameLog(ctx, roomID, message, ""); err != nil {
			return nil, fmt.Errorf("add game log: %w", err)
		}
	}

	turn := room.CurrentTurn + 1
	phase := types.PhaseRoll
	if _, err := e.store.UpdateRoom(ctx, roomID, storage.RoomPatch{
		CurrentTurn:     &turn,
		CurrentPhase:    &phase,
		CurrentYear:     &yearNum,
		CurrentPlayerID: &next.ID,
	}); err != nil {
		return nil, fmt.Errorf("advance turn: %w", err)
	}

	return &types.TurnResult{NewYear: newYear}, nil
}

// nextPlayer returns the player after currentID in ascending rank order,
// wrapping at the end. Players must already be rank-sorted.
func nextPlayer(players []*types.Player, currentID string) (*types.Player, error) {
	index := -1
	for i, p := range players {
		if p.ID == currentID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, fmt.Errorf("next player not found: current player is not in the room")
	}
	return players[(index+1)%len(players)], nil
}
