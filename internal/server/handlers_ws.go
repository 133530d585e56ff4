package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/broadcast"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // API surface is CORS allow-all
	},
}

// handleStream returns the connection handler for one topic. The handler
// owns the session end to end: upgrade, register, hold the connection open
// until disconnect or shutdown, then deregister and release.
func (s *Server) handleStream(topic domain.Topic) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.lifecycle.Accepting() {
			return c.String(http.StatusServiceUnavailable, "shutting down")
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		sessionID := uuid.New()
		writer := broadcast.NewClientWriter(conn, s.clock)
		session := &registry.Session{ID: sessionID, Topic: topic, Sender: writer}

		if err := s.sessions.Add(session); err != nil {
			// Should not occur with fresh UUIDs; reject the new
			// registration and leave the original entry intact.
			slog.Error("Failed to register session", "session_id", sessionID.String(), "topic", topic, "error", err)
			writer.Close()
			return nil
		}

		slog.Info("Session opened", "session_id", sessionID.String(), "topic", topic)
		defer func() {
			s.sessions.Remove(sessionID)
			writer.Close()
			slog.Info("Session closed", "session_id", sessionID.String(), "topic", topic)
		}()

		// The protocol is pure server push; the read loop only detects
		// disconnects (and services pings/pongs).
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		select {
		case <-readDone:
		case <-s.lifecycle.ShuttingDown():
		}
		return nil
	}
}
