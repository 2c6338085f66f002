package game

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/storage/memory"
	"github.com/user/furusato-strategy/internal/types"
)

func newRoomService() *RoomService {
	return NewRoomService(memory.New(), config.DefaultConfig().Game)
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	svc := newRoomService()
	cfg := config.DefaultConfig().Game

	// Test case 1: Create room with a host
	room, host, err := svc.CreateRoom(ctx, "Alice")
	assert.NoError(t, err)
	assert.Equal(t, types.RoomWaiting, room.Status)
	assert.Equal(t, types.PhaseWaiting, room.CurrentPhase)
	assert.Equal(t, 1, room.CurrentYear)
	assert.Equal(t, host.ID, room.HostPlayerID)
	assert.Equal(t, "Alice", host.Name)
	assert.Equal(t, 1, host.Rank)
	assert.Equal(t, cfg.InitialBudget, host.Budget)
	assert.Equal(t, 0, host.Position)

	// Test case 2: Room code uses the unambiguous alphabet
	assert.Len(t, room.Code, 6)
	for _, c := range room.Code {
		assert.True(t, strings.ContainsRune(roomCodeAlphabet, c))
	}

	// Test case 3: Game state is seeded with the reference values
	snapshot, err := svc.Snapshot(ctx, room.ID)
	assert.NoError(t, err)
	assert.Equal(t, cfg.InitialPopulation, snapshot.State.Population)
	assert.Equal(t, cfg.InitialRelatedPopulation, snapshot.State.RelatedPopulation)
	assert.Equal(t, cfg.InitialHappiness, snapshot.State.Happiness.Connection)
	assert.Equal(t, cfg.InitialHappiness, snapshot.State.Happiness.Environment)

	// Test case 4: Empty host name is rejected
	_, _, err = svc.CreateRoom(ctx, "  ")
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()
	svc := newRoomService()

	room, _, err := svc.CreateRoom(ctx, "Alice")
	assert.NoError(t, err)

	// Test case 1: Join assigns the next rank
	_, bob, err := svc.JoinRoom(ctx, room.Code, "Bob")
	assert.NoError(t, err)
	assert.Equal(t, 2, bob.Rank)
	assert.Equal(t, room.ID, bob.RoomID)

	// Test case 2: Unknown code
	_, _, err = svc.JoinRoom(ctx, "ZZZZZZ", "Carol")
	assert.Error(t, err)

	// Test case 3: Full room is rejected
	_, _, err = svc.JoinRoom(ctx, room.Code, "Carol")
	assert.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, room.Code, "Dave")
	assert.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, room.Code, "Eve")
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestSelectRole(t *testing.T) {
	ctx := context.Background()
	svc := newRoomService()

	room, alice, err := svc.CreateRoom(ctx, "Alice")
	assert.NoError(t, err)
	_, bob, err := svc.JoinRoom(ctx, room.Code, "Bob")
	assert.NoError(t, err)

	// Test case 1: Select a free role
	player, err := svc.SelectRole(ctx, room.ID, alice.ID, types.RoleCitizen)
	assert.NoError(t, err)
	assert.Equal(t, types.RoleCitizen, player.Role)

	// Test case 2: A taken role is rejected
	_, err = svc.SelectRole(ctx, room.ID, bob.ID, types.RoleCitizen)
	assert.ErrorIs(t, err, ErrPrecondition)

	// Test case 3: Re-selecting your own role is fine
	_, err = svc.SelectRole(ctx, room.ID, alice.ID, types.RoleCitizen)
	assert.NoError(t, err)

	// Test case 4: Switching to another free role frees the old one
	_, err = svc.SelectRole(ctx, room.ID, alice.ID, types.RoleGovernment)
	assert.NoError(t, err)
	_, err = svc.SelectRole(ctx, room.ID, bob.ID, types.RoleCitizen)
	assert.NoError(t, err)

	// Test case 5: Unknown role name
	_, err = svc.SelectRole(ctx, room.ID, alice.ID, types.Role("wizard"))
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestStartGame(t *testing.T) {
	ctx := context.Background()
	svc := newRoomService()

	room, alice, err := svc.CreateRoom(ctx, "Alice")
	assert.NoError(t, err)

	// Test case 1: Too few players
	_, err = svc.StartGame(ctx, room.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, bob, err := svc.JoinRoom(ctx, room.Code, "Bob")
	assert.NoError(t, err)

	// Test case 2: Players present but not everyone ready
	_, err = svc.SetReady(ctx, alice.ID, true)
	assert.NoError(t, err)
	_, err = svc.StartGame(ctx, room.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	// Test case 3: All ready starts the game with rank one on the roll
	_, err = svc.SetReady(ctx, bob.ID, true)
	assert.NoError(t, err)
	started, err := svc.StartGame(ctx, room.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.RoomPlaying, started.Status)
	assert.Equal(t, types.PhaseRoll, started.CurrentPhase)
	assert.Equal(t, 1, started.CurrentTurn)
	assert.Equal(t, 1, started.CurrentYear)
	assert.Equal(t, alice.ID, started.CurrentPlayerID)

	// Test case 4: Starting twice is rejected, joining after start too
	_, err = svc.StartGame(ctx, room.ID)
	assert.ErrorIs(t, err, ErrPrecondition)
	_, _, err = svc.JoinRoom(ctx, room.Code, "Carol")
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestRoomLogs(t *testing.T) {
	ctx := context.Background()
	svc := newRoomService()

	room, _, err := svc.CreateRoom(ctx, "Alice")
	assert.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, room.Code, "Bob")
	assert.NoError(t, err)

	// Test case 1: Creation and join are logged, newest first
	logs, err := svc.Logs(ctx, room.ID, 0)
	assert.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "Bob joined the room", logs[0].Message)
	assert.Equal(t, "Alice created the room", logs[1].Message)

	// Test case 2: Limit is honored
	logs, err = svc.Logs(ctx, room.ID, 1)
	assert.NoError(t, err)
	assert.Len(t, logs, 1)

	// Test case 3: Unknown room
	_, err = svc.Logs(ctx, "missing", 0)
	assert.Error(t, err)
}
