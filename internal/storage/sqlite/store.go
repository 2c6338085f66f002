// Package sqlite provides a SQLite-backed storage.Store using the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    current_turn INTEGER NOT NULL DEFAULT 0,
    current_phase TEXT NOT NULL,
    current_year INTEGER NOT NULL DEFAULT 1,
    current_player_id TEXT NOT NULL DEFAULT '',
    host_player_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS players (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    budget INTEGER NOT NULL DEFAULT 0,
    rank INTEGER NOT NULL,
    is_ready INTEGER NOT NULL DEFAULT 0,
    is_online INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS players_room_rank ON players (room_id, rank);
CREATE TABLE IF NOT EXISTS game_states (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL UNIQUE,
    connection INTEGER NOT NULL,
    culture INTEGER NOT NULL,
    safety INTEGER NOT NULL,
    health INTEGER NOT NULL,
    environment INTEGER NOT NULL,
    population INTEGER NOT NULL,
    related_population INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS game_logs (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    player_id TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS game_logs_room_created ON game_logs (room_id, created_at DESC);
`

// Store persists rooms, players, game states, and logs in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) CreateRoom(ctx context.Context, room *types.Room) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rooms (id, code, status, current_turn, current_phase, current_year,
		   current_player_id, host_player_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Code, string(room.Status), room.CurrentTurn, string(room.CurrentPhase),
		room.CurrentYear, room.CurrentPlayerID, room.HostPlayerID,
		toMillis(room.CreatedAt), toMillis(room.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *types.Player) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (id, room_id, name, role, position, budget, rank,
		   is_ready, is_online, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		player.ID, player.RoomID, player.Name, string(player.Role), player.Position,
		player.Budget, player.Rank, boolToInt(player.IsReady), boolToInt(player.IsOnline),
		toMillis(player.CreatedAt), toMillis(player.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *Store) CreateGameState(ctx context.Context, state *types.GameState) error {
	h := state.Happiness
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_states (id, room_id, connection, culture, safety, health,
		   environment, population, related_population, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.ID, state.RoomID, h.Connection, h.Culture, h.Safety, h.Health,
		h.Environment, state.Population, state.RelatedPopulation,
		toMillis(state.CreatedAt), toMillis(state.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert game state: %w", err)
	}
	return nil
}

const roomColumns = `id, code, status, current_turn, current_phase, current_year,
  current_player_id, host_player_id, created_at, updated_at`

func scanRoom(row *sql.Row) (*types.Room, error) {
	var room types.Room
	var status, phase string
	var created, updated int64
	err := row.Scan(&room.ID, &room.Code, &status, &room.CurrentTurn, &phase,
		&room.CurrentYear, &room.CurrentPlayerID, &room.HostPlayerID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan room: %w", err)
	}
	room.Status = types.RoomStatus(status)
	room.CurrentPhase = types.GamePhase(phase)
	room.CreatedAt = fromMillis(created)
	room.UpdatedAt = fromMillis(updated)
	return &room, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*types.Room, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, roomID)
	return scanRoom(row)
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*types.Room, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = ?`, strings.ToUpper(code))
	return scanRoom(row)
}

const playerColumns = `id, room_id, name, role, position, budget, rank,
  is_ready, is_online, created_at, updated_at`

func scanPlayer(scan func(dest ...any) error) (*types.Player, error) {
	var player types.Player
	var role string
	var ready, online int
	var created, updated int64
	err := scan(&player.ID, &player.RoomID, &player.Name, &role, &player.Position,
		&player.Budget, &player.Rank, &ready, &online, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan player: %w", err)
	}
	player.Role = types.Role(role)
	player.IsReady = ready != 0
	player.IsOnline = online != 0
	player.CreatedAt = fromMillis(created)
	player.UpdatedAt = fromMillis(updated)
	return &player, nil
}

func (s *Store) GetPlayers(ctx context.Context, roomID string) ([]*types.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE room_id = ? ORDER BY rank ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []*types.Player
	for rows.Next() {
		player, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*types.Player, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, playerID)
	return scanPlayer(row.Scan)
}

const stateColumns = `id, room_id, connection, culture, safety, health,
  environment, population, related_population, created_at, updated_at`

func scanState(row *sql.Row) (*types.GameState, error) {
	var state types.GameState
	var created, updated int64
	err := row.Scan(&state.ID, &state.RoomID, &state.Happiness.Connection,
		&state.Happiness.Culture, &state.Happiness.Safety, &state.Happiness.Health,
		&state.Happiness.Environment, &state.Population, &state.RelatedPopulation,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan game state: %w", err)
	}
	state.CreatedAt = fromMillis(created)
	state.UpdatedAt = fromMillis(updated)
	return &state, nil
}

func (s *Store) GetGameState(ctx context.Context, roomID string) (*types.GameState, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM game_states WHERE room_id = ?`, roomID)
	return scanState(row)
}

func (s *Store) UpdateRoom(ctx context.Context, roomID string, patch storage.RoomPatch) (*types.Room, error) {
	var sets []string
	var args []any
	if patch.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, string(*patch.Status))
	}
	if patch.CurrentTurn != nil {
		sets, args = append(sets, "current_turn = ?"), append(args, *patch.CurrentTurn)
	}
	if patch.CurrentPhase != nil {
		sets, args = append(sets, "current_phase = ?"), append(args, string(*patch.CurrentPhase))
	}
	if patch.CurrentYear != nil {
		sets, args = append(sets, "current_year = ?"), append(args, *patch.CurrentYear)
	}
	if patch.CurrentPlayerID != nil {
		sets, args = append(sets, "current_player_id = ?"), append(args, *patch.CurrentPlayerID)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(time.Now()), roomID)

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE rooms SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetRoom(ctx, roomID)
}

func (s *Store) UpdatePlayer(ctx context.Context, playerID string, patch storage.PlayerPatch) (*types.Player, error) {
	var sets []string
	var args []any
	if patch.Role != nil {
		sets, args = append(sets, "role = ?"), append(args, string(*patch.Role))
	}
	if patch.Position != nil {
		sets, args = append(sets, "position = ?"), append(args, *patch.Position)
	}
	if patch.Budget != nil {
		sets, args = append(sets, "budget = ?"), append(args, *patch.Budget)
	}
	if patch.IsReady != nil {
		sets, args = append(sets, "is_ready = ?"), append(args, boolToInt(*patch.IsReady))
	}
	if patch.IsOnline != nil {
		sets, args = append(sets, "is_online = ?"), append(args, boolToInt(*patch.IsOnline))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(time.Now()), playerID)

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE players SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetPlayer(ctx, playerID)
}

func (s *Store) UpdateGameState(ctx context.Context, roomID string, patch storage.GameStatePatch) (*types.GameState, error) {
	var sets []string
	var args []any
	if patch.Connection != nil {
		sets, args = append(sets, "connection = ?"), append(args, *patch.Connection)
	}
	if patch.Culture != nil {
		sets, args = append(sets, "culture = ?"), append(args, *patch.Culture)
	}
	if patch.Safety != nil {
		sets, args = append(sets, "safety = ?"), append(args, *patch.Safety)
	}
	if patch.Health != nil {
		sets, args = append(sets, "health = ?"), append(args, *patch.Health)
	}
	if patch.Environment != nil {
		sets, args = append(sets, "environment = ?"), append(args, *patch.Environment)
	}
	if patch.Population != nil {
		sets, args = append(sets, "population = ?"), append(args, *patch.Population)
	}
	if patch.RelatedPopulation != nil {
		sets, args = append(sets, "related_population = ?"), append(args, *patch.RelatedPopulation)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(time.Now()), roomID)

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE game_states SET `+strings.Join(sets, ", ")+` WHERE room_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update game state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetGameState(ctx, roomID)
}

func (s *Store) AddGameLog(ctx context.Context, roomID, message, playerID string) error {
	now := time.Now()
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_logs (id, room_id, player_id, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), roomID, playerID, message, toMillis(now))
	if err != nil {
		return fmt.Errorf("insert game log: %w", err)
	}

	// Keep only the newest MaxStoredLogs entries per room.
	_, err = s.sqlDB.ExecContext(ctx,
		`DELETE FROM game_logs WHERE room_id = ? AND id NOT IN (
		   SELECT id FROM game_logs WHERE room_id = ?
		   ORDER BY created_at DESC, id DESC LIMIT ?)`,
		roomID, roomID, storage.MaxStoredLogs)
	if err != nil {
		return fmt.Errorf("trim game logs: %w", err)
	}
	return nil
}

func (s *Store) GetGameLogs(ctx context.Context, roomID string, limit int) ([]*types.GameLogEntry, error) {
	if limit <= 0 {
		limit = storage.DefaultLogLimit
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, room_id, player_id, message, created_at FROM game_logs
		 WHERE room_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query game logs: %w", err)
	}
	defer rows.Close()

	var logs []*types.GameLogEntry
	for rows.Next() {
		var entry types.GameLogEntry
		var created int64
		if err := rows.Scan(&entry.ID, &entry.RoomID, &entry.PlayerID, &entry.Message, &created); err != nil {
			return nil, fmt.Errorf("scan game log: %w", err)
		}
		entry.CreatedAt = fromMillis(created)
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game logs: %w", err)
	}
	return logs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
