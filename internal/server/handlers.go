package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"github.com/user/furusato-strategy/internal/types"
	"go.uber.org/zap"
)

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cells": s.engine.Board().Cells(),
	})
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	catalog := s.engine.Catalog()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"actions": catalog.Actions(),
		"events":  catalog.Events(),
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"player_name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	room, host, err := s.rooms.CreateRoom(r.Context(), req.PlayerName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"room":   room,
		"player": host,
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		PlayerName string `json:"player_name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	room, player, err := s.rooms.JoinRoom(r.Context(), req.Code, req.PlayerName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"room":   room,
		"player": player,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.rooms.Snapshot(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	logs, err := s.rooms.Logs(r.Context(), chi.URLParam(r, "roomID"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// handleJoinQR renders the room's join URL as a PNG QR code.
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.rooms.Snapshot(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	joinURL := fmt.Sprintf("%s/join?code=%s", s.cfg.Server.PublicURL, snapshot.Room.Code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("Failed to generate QR code",
			zap.String("room_id", snapshot.Room.ID),
			zap.Error(err))
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleSelectRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role types.Role `json:"role"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	player, err := s.rooms.SelectRole(r.Context(), chi.URLParam(r, "roomID"), chi.URLParam(r, "playerID"), req.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"player": player})
}

func (s *Server) handleSetReady(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ready bool `json:"ready"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	player, err := s.rooms.SetReady(r.Context(), chi.URLParam(r, "playerID"), req.Ready)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"player": player})
}

func (s *Server) handleSetOnline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	player, err := s.rooms.SetOnline(r.Context(), chi.URLParam(r, "playerID"), req.Online)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"player": player})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.StartGame(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"room": room})
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.RollAndMove(r.Context(), chi.URLParam(r, "roomID"), req.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResolveCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	outcome, err := s.engine.ResolveCell(r.Context(), chi.URLParam(r, "roomID"), req.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleActionCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID    string   `json:"player_id"`
		CardID      string   `json:"card_id"`
		Cooperators []string `json:"cooperators"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.ExecuteActionCard(r.Context(), chi.URLParam(r, "roomID"), req.PlayerID, req.CardID, req.Cooperators)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSkipAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	turn, err := s.engine.SkipAction(r.Context(), chi.URLParam(r, "roomID"), req.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleEventCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardID string `json:"card_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.ProcessEventCard(r.Context(), chi.URLParam(r, "roomID"), req.CardID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
