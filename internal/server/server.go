// Package server exposes the game over HTTP: a JSON API for the room
// lifecycle and turn operations, a QR code endpoint for joining, and a
// WebSocket feed of room changes.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/game"
	"github.com/user/furusato-strategy/internal/interfaces"
	"github.com/user/furusato-strategy/internal/realtime"
	"github.com/user/furusato-strategy/internal/storage"
	"go.uber.org/zap"
)

// Server holds the HTTP handler dependencies.
type Server struct {
	engine *game.Engine
	rooms  interfaces.RoomManager
	hub    *realtime.Hub
	cfg    config.Config
	logger *zap.Logger
}

// New creates a server over the given engine, room service, and hub.
func New(engine *game.Engine, rooms interfaces.RoomManager, hub *realtime.Hub, cfg config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		rooms:  rooms,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	router.Route("/api", func(api chi.Router) {
		api.Get("/board", s.handleBoard)
		api.Get("/cards", s.handleCards)

		api.Post("/rooms", s.handleCreateRoom)
		api.Post("/rooms/join", s.handleJoinRoom)

		api.Route("/rooms/{roomID}", func(room chi.Router) {
			room.Get("/", s.handleSnapshot)
			room.Get("/logs", s.handleLogs)
			room.Get("/qr", s.handleJoinQR)
			room.Get("/ws", s.handleWebSocket)
			room.Post("/start", s.handleStartGame)

			room.Post("/players/{playerID}/role", s.handleSelectRole)
			room.Post("/players/{playerID}/ready", s.handleSetReady)
			room.Post("/players/{playerID}/online", s.handleSetOnline)

			room.Post("/roll", s.handleRoll)
			room.Post("/resolve", s.handleResolveCell)
			room.Post("/action", s.handleActionCard)
			room.Post("/skip", s.handleSkipAction)
			room.Post("/event", s.handleEventCard)
		})
	})

	return router
}

// writeJSON writes v as the JSON response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP status codes: missing records
// become 404, rejected preconditions 409, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrPrecondition):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decode parses the request body into v; a failure writes a 400.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}
