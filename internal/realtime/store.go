package realtime

import (
	"context"

	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/types"
)

// NotifyingStore wraps a storage.Store and publishes a hub event after
// every successful write. Reads pass straight through. Failed writes
// publish nothing.
type NotifyingStore struct {
	storage.Store
	hub *Hub
}

var _ storage.Store = (*NotifyingStore)(nil)

// NewNotifyingStore wraps inner so its writes feed the hub.
func NewNotifyingStore(inner storage.Store, hub *Hub) *NotifyingStore {
	return &NotifyingStore{Store: inner, hub: hub}
}

func (s *NotifyingStore) CreateRoom(ctx context.Context, room *types.Room) error {
	if err := s.Store.CreateRoom(ctx, room); err != nil {
		return err
	}
	s.hub.Publish(Event{Table: TableRoom, RoomID: room.ID, Room: room})
	return nil
}

func (s *NotifyingStore) CreatePlayer(ctx context.Context, player *types.Player) error {
	if err := s.Store.CreatePlayer(ctx, player); err != nil {
		return err
	}
	s.hub.Publish(Event{Table: TablePlayer, RoomID: player.RoomID, Player: player})
	return nil
}

func (s *NotifyingStore) CreateGameState(ctx context.Context, state *types.GameState) error {
	if err := s.Store.CreateGameState(ctx, state); err != nil {
		return err
	}
	s.hub.Publish(Event{Table: TableState, RoomID: state.RoomID, State: state})
	return nil
}

func (s *NotifyingStore) UpdateRoom(ctx context.Context, roomID string, patch storage.RoomPatch) (*types.Room, error) {
	room, err := s.Store.UpdateRoom(ctx, roomID, patch)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(Event{Table: TableRoom, RoomID: roomID, Room: room})
	return room, nil
}

func (s *NotifyingStore) UpdatePlayer(ctx context.Context, playerID string, patch storage.PlayerPatch) (*types.Player, error) {
	player, err := s.Store.UpdatePlayer(ctx, playerID, patch)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(Event{Table: TablePlayer, RoomID: player.RoomID, Player: player})
	return player, nil
}

func (s *NotifyingStore) UpdateGameState(ctx context.Context, roomID string, patch storage.GameStatePatch) (*types.GameState, error) {
	state, err := s.Store.UpdateGameState(ctx, roomID, patch)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(Event{Table: TableState, RoomID: roomID, State: state})
	return state, nil
}

func (s *NotifyingStore) AddGameLog(ctx context.Context, roomID, message, playerID string) error {
	if err := s.Store.AddGameLog(ctx, roomID, message, playerID); err != nil {
		return err
	}
	s.hub.Publish(Event{Table: TableLog, RoomID: roomID, Log: message})
	return nil
}
