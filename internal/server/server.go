package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/app"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/config"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/registry"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	lifecycle *app.Service
	sessions  *registry.Registry
	projects  domain.ProjectAnalyzerService
	portfolio domain.PortfolioOptimizerService
	clock     clockwork.Clock
	redis     *goredis.Client // nil when REDIS_URL is not configured
	startTime time.Time
}

// NewServer builds the HTTP surface: the three WebSocket topic endpoints,
// the read-only API, and the health endpoints. redisClient may be nil.
func NewServer(cfg *config.Config, lifecycle *app.Service, sessions *registry.Registry, projects domain.ProjectAnalyzerService, portfolio domain.PortfolioOptimizerService, redisClient *goredis.Client, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	srv := &Server{
		echo:      e,
		config:    cfg,
		lifecycle: lifecycle,
		sessions:  sessions,
		projects:  projects,
		portfolio: portfolio,
		clock:     clock,
		redis:     redisClient,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
