package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/version"
)

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":     "IZA OS Project Management Analytics Bot",
		"version":     version.Get().Version,
		"status":      s.lifecycle.State().String(),
		"description": "Real-time project management analytics and intelligence",
		"endpoints": map[string]string{
			"projects":            "/api/v1/projects",
			"portfolio":           "/api/v1/portfolio",
			"health":              "/api/v1/health",
			"websocket_projects":  "/ws/projects",
			"websocket_portfolio": "/ws/portfolio",
			"websocket_alerts":    "/ws/alerts",
		},
	})
}

func (s *Server) handleProjects(c echo.Context) error {
	snapshot, err := s.projects.RealtimeAnalytics(c.Request().Context())
	if errors.Is(err, domain.ErrNotReady) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "analytics not ready"})
	}
	if err != nil {
		slog.Error("Failed to compute project analytics", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute analytics"})
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handlePortfolio(c echo.Context) error {
	state, err := s.portfolio.RealtimePortfolio(c.Request().Context())
	if err != nil {
		slog.Error("Failed to compute portfolio state", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute portfolio"})
	}
	return c.JSON(http.StatusOK, state)
}
