package interfaces

import (
	"context"

	"github.com/user/furusato-strategy/internal/types"
)

// TurnEngine defines the interface for in-game turn operations
type TurnEngine interface {
	RollAndMove(ctx context.Context, roomID, playerID string) (*types.RollResult, error)
	ResolveCell(ctx context.Context, roomID, playerID string) (*types.CellOutcome, error)
	ExecuteActionCard(ctx context.Context, roomID, playerID, cardID string, cooperators []string) (*types.ActionResult, error)
	SkipAction(ctx context.Context, roomID, playerID string) (*types.TurnResult, error)
	ProcessEventCard(ctx context.Context, roomID, cardID string) (*types.EventResult, error)
}

// RoomManager defines the interface for room lifecycle operations
type RoomManager interface {
	CreateRoom(ctx context.Context, hostName string) (*types.Room, *types.Player, error)
	JoinRoom(ctx context.Context, code, playerName string) (*types.Room, *types.Player, error)
	SelectRole(ctx context.Context, roomID, playerID string, role types.Role) (*types.Player, error)
	SetReady(ctx context.Context, playerID string, ready bool) (*types.Player, error)
	SetOnline(ctx context.Context, playerID string, online bool) (*types.Player, error)
	StartGame(ctx context.Context, roomID string) (*types.Room, error)
	Snapshot(ctx context.Context, roomID string) (*types.RoomSnapshot, error)
	Logs(ctx context.Context, roomID string, limit int) ([]*types.GameLogEntry, error)
}
