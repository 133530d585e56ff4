package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/healthz", s.handleLiveness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/projects", s.handleProjects)
	api.GET("/portfolio", s.handlePortfolio)

	s.echo.GET("/ws/projects", s.handleStream(domain.TopicProjects))
	s.echo.GET("/ws/portfolio", s.handleStream(domain.TopicPortfolio))
	s.echo.GET("/ws/alerts", s.handleStream(domain.TopicAlerts))
}
