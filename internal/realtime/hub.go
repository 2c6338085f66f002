// Package realtime fans out room change events to subscribed clients.
// It replaces polling for clients that keep a WebSocket open.
package realtime

import (
	"sync"

	"github.com/user/furusato-strategy/internal/types"
)

// EventTable names the record kind an event carries.
type EventTable string

const (
	TableRoom   EventTable = "room"
	TablePlayer EventTable = "player"
	TableState  EventTable = "game_state"
	TableLog    EventTable = "game_log"
)

// Event is one change notification for a room. Exactly one of the
// payload fields matching Table is set.
type Event struct {
	Table  EventTable       `json:"table"`
	RoomID string           `json:"room_id"`
	Room   *types.Room      `json:"room,omitempty"`
	Player *types.Player    `json:"player,omitempty"`
	State  *types.GameState `json:"state,omitempty"`
	Log    string           `json:"log,omitempty"`
}

const subscriberBuffer = 16

// Subscription is one client's feed of a room's events. When the
// subscriber falls behind and its buffer fills, events are dropped
// rather than blocking the publisher; the client resynchronizes from a
// snapshot.
type Subscription struct {
	C chan Event

	hub    *Hub
	roomID string
	once   sync.Once
}

// Unsubscribe detaches the subscription and closes its channel. It is
// safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s.roomID, s)
		close(s.C)
	})
}

// Hub routes events to the subscribers of each room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber for the room's events.
func (h *Hub) Subscribe(roomID string) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriberBuffer),
		hub:    h,
		roomID: roomID,
	}

	h.mu.Lock()
	subs, exists := h.rooms[roomID]
	if !exists {
		subs = make(map[*Subscription]struct{})
		h.rooms[roomID] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *Hub) remove(roomID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, exists := h.rooms[roomID]
	if !exists {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish delivers an event to every subscriber of its room. Slow
// subscribers with a full buffer miss the event.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[event.RoomID] {
		select {
		case sub.C <- event:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions for a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
