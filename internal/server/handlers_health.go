package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/app"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleHealth reports process readiness: lifecycle state, per-engine
// flags, version, and the redis connection when one is configured.
func (s *Server) handleHealth(c echo.Context) error {
	body := map[string]any{
		"state":   s.lifecycle.State().String(),
		"engines": s.lifecycle.Readiness().Snapshot(),
		"version": version.Get(),
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			body["status"] = "unhealthy"
			body["failed_check"] = "redis"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
	}

	if s.lifecycle.State() != app.StateReady {
		body["status"] = "not_ready"
		return c.JSON(http.StatusServiceUnavailable, body)
	}

	body["status"] = "ready"
	return c.JSON(http.StatusOK, body)
}
