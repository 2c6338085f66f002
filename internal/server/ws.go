package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const wsPingInterval = 30 * time.Second

// handleWebSocket streams a room's change events over a WebSocket. The
// connection is write-only from the server's side; client frames are
// read only to keep the connection's control handling alive.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	if _, err := s.rooms.Snapshot(r.Context(), roomID); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket accept failed",
			zap.String("room_id", roomID),
			zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	sub := s.hub.Subscribe(roomID)
	defer sub.Unsubscribe()

	s.logger.Info("WebSocket client connected", zap.String("room_id", roomID))

	// CloseRead returns a context that ends when the client goes away.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case event, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				s.logger.Debug("WebSocket write failed",
					zap.String("room_id", roomID),
					zap.Error(err))
				return
			}
		}
	}
}
