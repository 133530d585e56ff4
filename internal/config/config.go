package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	// Optional backing stores. When empty, the collector runs on its
	// built-in sample generator and publishes nowhere.
	RedisURL    string
	DatabaseURL string

	ProjectInterval   time.Duration
	PortfolioInterval time.Duration
	AlertInterval     time.Duration
	CollectInterval   time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8081"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}

	var err error
	if cfg.ProjectInterval, err = getDuration("PROJECT_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.PortfolioInterval, err = getDuration("PORTFOLIO_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.AlertInterval, err = getDuration("ALERT_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CollectInterval, err = getDuration("COLLECT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}

	for name, d := range map[string]time.Duration{
		"PROJECT_INTERVAL":   cfg.ProjectInterval,
		"PORTFOLIO_INTERVAL": cfg.PortfolioInterval,
		"ALERT_INTERVAL":     cfg.AlertInterval,
		"COLLECT_INTERVAL":   cfg.CollectInterval,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. \"2s\"): %w", key, err)
	}
	return d, nil
}
