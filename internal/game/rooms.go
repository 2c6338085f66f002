package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/interfaces"
	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/types"
	"go.uber.org/zap"
)

var _ interfaces.RoomManager = (*RoomService)(nil)

// Room codes avoid ambiguous characters (no I, O, 0, 1).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const roomCodeLength = 6

// RoomService manages the room lifecycle up to the start of the game:
// creation, joining, role selection, readiness, and the start gate.
type RoomService struct {
	store  storage.Store
	cfg    config.GameConfig
	logger *zap.Logger
	rng    *rand.Rand
}

// NewRoomService creates a room service over the given store.
func NewRoomService(store storage.Store, cfg config.GameConfig) *RoomService {
	return &RoomService{
		store:  store,
		cfg:    cfg,
		logger: zap.NewNop(), // Will be set by the server
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLogger replaces the service's logger.
func (s *RoomService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// generateRoomCode returns a fresh 6-character join code.
func (s *RoomService) generateRoomCode() string {
	var b strings.Builder
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeAlphabet[s.rng.Intn(len(roomCodeAlphabet))])
	}
	return b.String()
}

// CreateRoom creates a waiting room with the given player as host and
// first rank, and seeds the room's shared game state.
func (s *RoomService) CreateRoom(ctx context.Context, hostName string) (*types.Room, *types.Player, error) {
	if strings.TrimSpace(hostName) == "" {
		return nil, nil, fmt.Errorf("%w: player name is required", ErrPrecondition)
	}

	now := time.Now().UTC()
	room := &types.Room{
		ID:           uuid.New().String(),
		Code:         s.generateRoomCode(),
		Status:       types.RoomWaiting,
		CurrentTurn:  0,
		CurrentPhase: types.PhaseWaiting,
		CurrentYear:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	host := &types.Player{
		ID:        uuid.New().String(),
		RoomID:    room.ID,
		Name:      hostName,
		Position:  0,
		Budget:    s.cfg.InitialBudget,
		Rank:      1,
		IsOnline:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	room.HostPlayerID = host.ID

	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("create room: %w", err)
	}
	if err := s.store.CreatePlayer(ctx, host); err != nil {
		return nil, nil, fmt.Errorf("create host player: %w", err)
	}

	state := &types.GameState{
		ID:     uuid.New().String(),
		RoomID: room.ID,
		Happiness: types.HappinessFactors{
			Connection:  s.cfg.InitialHappiness,
			Culture:     s.cfg.InitialHappiness,
			Safety:      s.cfg.InitialHappiness,
			Health:      s.cfg.InitialHappiness,
			Environment: s.cfg.InitialHappiness,
		},
		Population:        s.cfg.InitialPopulation,
		RelatedPopulation: s.cfg.InitialRelatedPopulation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateGameState(ctx, state); err != nil {
		return nil, nil, fmt.Errorf("create game state: %w", err)
	}

	if err := s.store.AddGameLog(ctx, room.ID, fmt.Sprintf("%s created the room", hostName), host.ID); err != nil {
		return nil, nil, fmt.Errorf("add game log: %w", err)
	}

	s.logger.Info("room created",
		zap.String("room_id", room.ID),
		zap.String("code", room.Code),
		zap.String("host_player_id", host.ID))

	return room, host, nil
}

// JoinRoom adds a player to a waiting room looked up by its join code.
// The new player gets the next free rank.
func (s *RoomService) JoinRoom(ctx context.Context, code, playerName string) (*types.Room, *types.Player, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, nil, fmt.Errorf("%w: player name is required", ErrPrecondition)
	}

	room, err := s.store.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("room not found: %w", err)
	}
	if room.Status != types.RoomWaiting {
		return nil, nil, fmt.Errorf("%w: the game has already started", ErrPrecondition)
	}

	players, err := s.store.GetPlayers(ctx, room.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get players: %w", err)
	}
	if len(players) >= s.cfg.MaxPlayers {
		return nil, nil, fmt.Errorf("%w: the room is full", ErrPrecondition)
	}

	now := time.Now().UTC()
	player := &types.Player{
		ID:        uuid.New().String(),
		RoomID:    room.ID,
		Name:      playerName,
		Position:  0,
		Budget:    s.cfg.InitialBudget,
		Rank:      len(players) + 1,
		IsOnline:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, nil, fmt.Errorf("create player: %w", err)
	}

	if err := s.store.AddGameLog(ctx, room.ID, fmt.Sprintf("%s joined the room", playerName), player.ID); err != nil {
		return nil, nil, fmt.Errorf("add game log: %w", err)
	}

	s.logger.Info("player joined",
		zap.String("room_id", room.ID),
		zap.String("player_id", player.ID),
		zap.Int("rank", player.Rank))

	return room, player, nil
}

// SelectRole assigns a role to a player. A role may be held by at most
// one player in the room at a time.
func (s *RoomService) SelectRole(ctx context.Context, roomID, playerID string, role types.Role) (*types.Player, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrPrecondition, role)
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room.Status != types.RoomWaiting {
		return nil, fmt.Errorf("%w: roles are locked once the game starts", ErrPrecondition)
	}

	players, err := s.store.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	for _, p := range players {
		if p.Role == role && p.ID != playerID {
			return nil, fmt.Errorf("%w: the %s role is already taken", ErrPrecondition, role)
		}
	}

	player, err := s.store.UpdatePlayer(ctx, playerID, storage.PlayerPatch{Role: &role})
	if err != nil {
		return nil, fmt.Errorf("update player role: %w", err)
	}
	return player, nil
}

// SetReady records a player's readiness flag.
func (s *RoomService) SetReady(ctx context.Context, playerID string, ready bool) (*types.Player, error) {
	player, err := s.store.UpdatePlayer(ctx, playerID, storage.PlayerPatch{IsReady: &ready})
	if err != nil {
		return nil, fmt.Errorf("update player readiness: %w", err)
	}
	return player, nil
}

// SetOnline records a player's presence flag.
func (s *RoomService) SetOnline(ctx context.Context, playerID string, online bool) (*types.Player, error) {
	player, err := s.store.UpdatePlayer(ctx, playerID, storage.PlayerPatch{IsOnline: &online})
	if err != nil {
		return nil, fmt.Errorf("update player presence: %w", err)
	}
	return player, nil
}

// StartGame moves a waiting room into play. It requires the minimum
// player count and every player ready; the rank-one player takes the
// first roll of turn one.
func (s *RoomService) StartGame(ctx context.Context, roomID string) (*types.Room, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room.Status != types.RoomWaiting {
		return nil, fmt.Errorf("%w: the game has already started", ErrPrecondition)
	}

	players, err := s.store.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	if len(players) < s.cfg.MinPlayers {
		return nil, fmt.Errorf("%w: at least %d players are required", ErrPrecondition, s.cfg.MinPlayers)
	}
	for _, p := range players {
		if !p.IsReady {
			return nil, fmt.Errorf("%w: not every player is ready", ErrPrecondition)
		}
	}

	status := types.RoomPlaying
	phase := types.PhaseRoll
	turn := 1
	first := players[0].ID
	room, err = s.store.UpdateRoom(ctx, roomID, storage.RoomPatch{
		Status:          &status,
		CurrentPhase:    &phase,
		CurrentTurn:     &turn,
		CurrentPlayerID: &first,
	})
	if err != nil {
		return nil, fmt.Errorf("start room: %w", err)
	}

	if err := s.store.AddGameLog(ctx, roomID, "The game has started", ""); err != nil {
		return nil, fmt.Errorf("add game log: %w", err)
	}

	s.logger.Info("game started",
		zap.String("room_id", roomID),
		zap.Int("players", len(players)))

	return room, nil
}

// Snapshot returns everything a client needs to render a room.
func (s *RoomService) Snapshot(ctx context.Context, roomID string) (*types.RoomSnapshot, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	players, err := s.store.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	state, err := s.store.GetGameState(ctx, roomID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	logs, err := s.store.GetGameLogs(ctx, roomID, storage.DefaultLogLimit)
	if err != nil {
		return nil, fmt.Errorf("get game logs: %w", err)
	}
	return &types.RoomSnapshot{Room: room, Players: players, State: state, Logs: logs}, nil
}

// Logs returns the most recent log entries for a room, newest first.
func (s *RoomService) Logs(ctx context.Context, roomID string, limit int) ([]*types.GameLogEntry, error) {
	if limit <= 0 {
		limit = storage.DefaultLogLimit
	}
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	logs, err := s.store.GetGameLogs(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("get game logs: %w", err)
	}
	return logs, nil
}
