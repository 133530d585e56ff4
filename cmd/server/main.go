package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/analytics"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/app"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/config"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/logging"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/registry"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := analytics.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := analytics.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

func runGracefulShutdown(srv *server.Server, lifecycle *app.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if err := lifecycle.Stop(shutdownCtx); err != nil {
			slog.Error("Lifecycle stop error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	var redisClient *goredis.Client
	var cache *analytics.SnapshotCache
	if cfg.RedisURL != "" {
		redisClient = setupRedis(cfg)
		defer func() { _ = redisClient.Close() }()
		cache = analytics.NewSnapshotCache(redisClient)
	}

	var source analytics.RecordSource = analytics.NewSampleSource(clock)
	if cfg.DatabaseURL != "" {
		pool := setupDB(cfg)
		defer pool.Close()
		source = analytics.NewProjectStore(pool)
	}

	collector := analytics.NewCollector(source, cache, cfg.CollectInterval, clock)
	projects := analytics.NewProjectAnalyzer(collector, clock)
	portfolio := analytics.NewPortfolioOptimizer(collector, clock)
	risk := analytics.NewRiskAnalyzer(collector, clock)

	sessions := registry.New()
	lifecycle := app.NewService(app.Engines{
		Collector: collector,
		Projects:  projects,
		Portfolio: portfolio,
		Risk:      risk,
	}, sessions, app.Intervals{
		Projects:  cfg.ProjectInterval,
		Portfolio: cfg.PortfolioInterval,
		Alerts:    cfg.AlertInterval,
	}, clock)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	if err := lifecycle.Start(startCtx); err != nil {
		cancelStart()
		slog.Error("Failed to start analytics engines", "error", err)
		os.Exit(1)
	}
	cancelStart()

	srv := server.NewServer(cfg, lifecycle, sessions, projects, portfolio, redisClient, clock)
	done := runGracefulShutdown(srv, lifecycle)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
