package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

const (
	snapshotKey = "projectpulse:collected:latest"
	snapshotTTL = 5 * time.Minute
)

// NewRedisClient creates a go-redis client from a URL
// (e.g. "redis://localhost:6379") and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// SnapshotCache publishes the latest collected batch to Redis so scrapers
// and sibling processes can read raw data without hitting this service.
type SnapshotCache struct {
	rdb *redis.Client
}

func NewSnapshotCache(rdb *redis.Client) *SnapshotCache {
	return &SnapshotCache{rdb: rdb}
}

// Publish stores the batch under a fixed key with a TTL. Stale data ages
// out on its own if the collector stops.
func (c *SnapshotCache) Publish(ctx context.Context, records []domain.ProjectRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}
	return c.rdb.Set(ctx, snapshotKey, data, snapshotTTL).Err()
}

// Latest reads back the most recently published batch. Returns nil with no
// error when nothing has been published yet.
func (c *SnapshotCache) Latest(ctx context.Context) ([]domain.ProjectRecord, error) {
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []domain.ProjectRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	return records, nil
}
