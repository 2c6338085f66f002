package types

import "time"

// RoomStatus is the lifecycle state of a room. It only ever moves
// forward: waiting -> playing -> finished.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// GamePhase is the current step of the turn state machine.
type GamePhase string

const (
	PhaseWaiting  GamePhase = "waiting"
	PhaseRoll     GamePhase = "roll"
	PhaseMove     GamePhase = "move"
	PhaseAction   GamePhase = "action"
	PhaseEvent    GamePhase = "event"
	PhaseEndTurn  GamePhase = "end_turn"
	PhaseFinished GamePhase = "finished"
)

// Role is a player's chosen role. It has no gameplay effect; at most one
// player per room may hold a given role at a time.
type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleBusiness   Role = "business"
	RoleGovernment Role = "government"
	RoleVisitor    Role = "visitor"
)

// Valid reports whether r is one of the four playable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleBusiness, RoleGovernment, RoleVisitor:
		return true
	}
	return false
}

// Room represents one game session.
type Room struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	Status          RoomStatus `json:"status"`
	CurrentTurn     int        `json:"current_turn"`
	CurrentPhase    GamePhase  `json:"current_phase"`
	CurrentYear     int        `json:"current_year"`
	CurrentPlayerID string     `json:"current_player_id"` // empty before the game starts
	HostPlayerID    string     `json:"host_player_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Player represents one participant in a room. Rank is the 1-based turn
// order, assigned at join time and immutable for the life of the room.
type Player struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"` // empty until selected
	Position  int       `json:"position"`
	Budget    int       `json:"budget"`
	Rank      int       `json:"rank"`
	IsReady   bool      `json:"is_ready"`
	IsOnline  bool      `json:"is_online"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HappinessFactors are the five community wellbeing metrics, each kept
// within the configured [min, max] bounds after every effect application.
type HappinessFactors struct {
	Connection  int `json:"connection"`
	Culture     int `json:"culture"`
	Safety      int `json:"safety"`
	Health      int `json:"health"`
	Environment int `json:"environment"`
}

// GameState is the shared state of one room.
type GameState struct {
	ID                string           `json:"id"`
	RoomID            string           `json:"room_id"`
	Happiness         HappinessFactors `json:"happiness"`
	Population        int              `json:"population"`
	RelatedPopulation int              `json:"related_population"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CardType distinguishes player-initiated action cards from
// unconditional event cards.
type CardType string

const (
	CardAction CardType = "action"
	CardEvent  CardType = "event"
)

// CardCategory groups action cards for display.
type CardCategory string

const (
	CategoryEconomic    CardCategory = "economic"
	CategorySocial      CardCategory = "social"
	CategoryEnvironment CardCategory = "environment"
)

// EventSubtype groups event cards for display.
type EventSubtype string

const (
	SubtypeSpecialty EventSubtype = "specialty"
	SubtypeFestival  EventSubtype = "festival"
	SubtypeClimate   EventSubtype = "climate"
	SubtypeTourism   EventSubtype = "tourism"
)

// CardEffect describes the deltas a card applies. A zero field means no
// change to that quantity.
type CardEffect struct {
	Happiness         HappinessFactors `json:"happiness"`
	Population        int              `json:"population"`
	RelatedPopulation int              `json:"related_population"`
	Budget            int              `json:"budget"`
}

// Card is an immutable catalog entry.
type Card struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            CardType     `json:"type"`
	Category        CardCategory `json:"category,omitempty"`
	Subtype         EventSubtype `json:"subtype,omitempty"`
	Cost            int          `json:"cost,omitempty"`
	RequiredPlayers int          `json:"required_players,omitempty"`
	Effect          CardEffect   `json:"effect"`
	Description     string       `json:"description"`
}

// CellType is the mechanical type of a board cell.
type CellType string

const (
	CellStart   CellType = "start"
	CellAction  CellType = "action"
	CellEvent   CellType = "event"
	CellSpecial CellType = "special"
)

// SpecialKind tags a special cell's behavior at data-definition time, so
// cell resolution never dispatches on display labels.
type SpecialKind string

const (
	SpecialNone       SpecialKind = ""
	SpecialSubsidy    SpecialKind = "subsidy"
	SpecialExchange   SpecialKind = "exchange"
	SpecialSettlement SpecialKind = "settlement"
)

// BoardCell is one of the 20 fixed positions on the board.
type BoardCell struct {
	ID      int         `json:"id"`
	Type    CellType    `json:"type"`
	Label   string      `json:"label"`
	Special SpecialKind `json:"special,omitempty"`
}

// GameLogEntry is one append-only line of player-visible history.
type GameLogEntry struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	PlayerID  string    `json:"player_id,omitempty"` // empty for system entries
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnResult reports the outcome of an end-of-turn evaluation.
type TurnResult struct {
	Victory      bool   `json:"victory"`
	Defeat       bool   `json:"defeat"`
	DefeatReason string `json:"defeat_reason,omitempty"`
	NewYear      bool   `json:"new_year"`
}

// RollResult is returned by the roll-and-move operation.
type RollResult struct {
	DiceValue   int       `json:"dice_value"`
	NewPosition int       `json:"new_position"`
	Cell        BoardCell `json:"cell"`
}

// CellOutcome is returned by cell resolution. Card is non-nil when an
// action or event card was drawn and the turn is still open; Turn is
// non-nil when the cell ended the turn.
type CellOutcome struct {
	Card    *Card       `json:"card,omitempty"`
	Message string      `json:"message"`
	Turn    *TurnResult `json:"turn,omitempty"`
}

// ActionResult is returned by action card execution. A failed
// precondition leaves OK false with no state changed.
type ActionResult struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message"`
	Turn    *TurnResult `json:"turn,omitempty"`
}

// EventResult is returned by event card processing.
type EventResult struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message"`
	Turn    *TurnResult `json:"turn,omitempty"`
}

// RoomSnapshot bundles everything a client needs to render a room.
type RoomSnapshot struct {
	Room    *Room           `json:"room"`
	Players []*Player       `json:"players"`
	State   *GameState      `json:"state"`
	Logs    []*GameLogEntry `json:"logs"`
}
