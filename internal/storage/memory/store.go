// Package memory provides an in-process storage.Store, used for local
// games and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/types"
)

// Store keeps all records in maps guarded by a single lock. Records are
// copied on the way in and out so callers never share memory with the
// authoritative copy.
type Store struct {
	mu      sync.RWMutex
	rooms   map[string]*types.Room
	players map[string]*types.Player
	states  map[string]*types.GameState      // keyed by room ID
	logs    map[string][]*types.GameLogEntry // newest first, keyed by room ID
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		rooms:   make(map[string]*types.Room),
		players: make(map[string]*types.Player),
		states:  make(map[string]*types.GameState),
		logs:    make(map[string][]*types.GameLogEntry),
	}
}

func (s *Store) CreateRoom(ctx context.Context, room *types.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *types.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *Store) CreateGameState(ctx context.Context, state *types.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *state
	s.states[state.RoomID] = &cp
	return nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code = strings.ToUpper(code)
	for _, room := range s.rooms {
		if room.Code == code {
			cp := *room
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) GetPlayers(ctx context.Context, roomID string) ([]*types.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]*types.Player, 0, 4)
	for _, p := range s.players {
		if p.RoomID == roomID {
			cp := *p
			players = append(players, &cp)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Rank < players[j].Rank })
	return players, nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*types.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *player
	return &cp, nil
}

func (s *Store) GetGameState(ctx context.Context, roomID string) (*types.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.states[roomID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *state
	return &cp, nil
}

func (s *Store) UpdateRoom(ctx context.Context, roomID string, patch storage.RoomPatch) (*types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	if patch.Status != nil {
		room.Status = *patch.Status
	}
	if patch.CurrentTurn != nil {
		room.CurrentTurn = *patch.CurrentTurn
	}
	if patch.CurrentPhase != nil {
		room.CurrentPhase = *patch.CurrentPhase
	}
	if patch.CurrentYear != nil {
		room.CurrentYear = *patch.CurrentYear
	}
	if patch.CurrentPlayerID != nil {
		room.CurrentPlayerID = *patch.CurrentPlayerID
	}
	room.UpdatedAt = time.Now().UTC()

	cp := *room
	return &cp, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, playerID string, patch storage.PlayerPatch) (*types.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, exists := s.players[playerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	if patch.Role != nil {
		player.Role = *patch.Role
	}
	if patch.Position != nil {
		player.Position = *patch.Position
	}
	if patch.Budget != nil {
		player.Budget = *patch.Budget
	}
	if patch.IsReady != nil {
		player.IsReady = *patch.IsReady
	}
	if patch.IsOnline != nil {
		player.IsOnline = *patch.IsOnline
	}
	player.UpdatedAt = time.Now().UTC()

	cp := *player
	return &cp, nil
}

func (s *Store) UpdateGameState(ctx context.Context, roomID string, patch storage.GameStatePatch) (*types.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.states[roomID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	if patch.Connection != nil {
		state.Happiness.Connection = *patch.Connection
	}
	if patch.Culture != nil {
		state.Happiness.Culture = *patch.Culture
	}
	if patch.Safety != nil {
		state.Happiness.Safety = *patch.Safety
	}
	if patch.Health != nil {
		state.Happiness.Health = *patch.Health
	}
	if patch.Environment != nil {
		state.Happiness.Environment = *patch.Environment
	}
	if patch.Population != nil {
		state.Population = *patch.Population
	}
	if patch.RelatedPopulation != nil {
		state.RelatedPopulation = *patch.RelatedPopulation
	}
	state.UpdatedAt = time.Now().UTC()

	cp := *state
	return &cp, nil
}

func (s *Store) AddGameLog(ctx context.Context, roomID, message, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &types.GameLogEntry{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		PlayerID:  playerID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	logs := append([]*types.GameLogEntry{entry}, s.logs[roomID]...)
	if len(logs) > storage.MaxStoredLogs {
		logs = logs[:storage.MaxStoredLogs]
	}
	s.logs[roomID] = logs
	return nil
}

func (s *Store) GetGameLogs(ctx context.Context, roomID string, limit int) ([]*types.GameLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = storage.DefaultLogLimit
	}

	logs := s.logs[roomID]
	if len(logs) > limit {
		logs = logs[:limit]
	}
	out := make([]*types.GameLogEntry, len(logs))
	for i, l := range logs {
		cp := *l
		out[i] = &cp
	}
	return out, nil
}
