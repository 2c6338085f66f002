// Package storage defines the persistence capability set the game engine
// depends on. The engine never caches records between operations; every
// operation re-reads the authoritative copy and writes back a patch.
package storage

import (
	"context"
	"errors"

	"github.com/user/furusato-strategy/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MaxStoredLogs caps the per-room game log; older entries fall off.
const MaxStoredLogs = 100

// DefaultLogLimit is used by GetGameLogs when the caller passes a
// non-positive limit.
const DefaultLogLimit = 50

// RoomPatch is a partial room update. Nil fields are left unchanged;
// set fields are last-write-wins.
type RoomPatch struct {
	Status          *types.RoomStatus
	CurrentTurn     *int
	CurrentPhase    *types.GamePhase
	CurrentYear     *int
	CurrentPlayerID *string
}

// PlayerPatch is a partial player update.
type PlayerPatch struct {
	Role     *types.Role
	Position *int
	Budget   *int
	IsReady  *bool
	IsOnline *bool
}

// GameStatePatch is a partial game state update. Happiness factors are
// patched individually so a caller can touch one factor without racing
// the others.
type GameStatePatch struct {
	Connection        *int
	Culture           *int
	Safety            *int
	Health            *int
	Environment       *int
	Population        *int
	RelatedPopulation *int
}

// Store is the authoritative room/player/state/log store.
//
// Update methods apply a partial patch and return the full updated
// record. AddGameLog is append-only; GetGameLogs returns newest first.
type Store interface {
	CreateRoom(ctx context.Context, room *types.Room) error
	CreatePlayer(ctx context.Context, player *types.Player) error
	CreateGameState(ctx context.Context, state *types.GameState) error

	GetRoom(ctx context.Context, roomID string) (*types.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*types.Room, error)
	// GetPlayers returns the room's players ordered by rank ascending.
	GetPlayers(ctx context.Context, roomID string) ([]*types.Player, error)
	GetPlayer(ctx context.Context, playerID string) (*types.Player, error)
	GetGameState(ctx context.Context, roomID string) (*types.GameState, error)

	UpdateRoom(ctx context.Context, roomID string, patch RoomPatch) (*types.Room, error)
	UpdatePlayer(ctx context.Context, playerID string, patch PlayerPatch) (*types.Player, error)
	UpdateGameState(ctx context.Context, roomID string, patch GameStatePatch) (*types.GameState, error)

	AddGameLog(ctx context.Context, roomID, message, playerID string) error
	GetGameLogs(ctx context.Context, roomID string, limit int) ([]*types.GameLogEntry, error)
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T { return &v }
