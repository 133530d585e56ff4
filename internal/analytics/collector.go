package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/metrics"
)

// RecordSource supplies raw project rows for one collection run.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]domain.ProjectRecord, error)
}

// Collector ingests project data on a fixed interval and keeps the latest
// batch in memory for the analyzers. When a snapshot cache is configured,
// each batch is also published there for out-of-process consumers.
type Collector struct {
	source   RecordSource
	cache    *SnapshotCache // may be nil
	interval time.Duration
	clock    clockwork.Clock

	mu      sync.RWMutex
	records []domain.ProjectRecord

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

func NewCollector(source RecordSource, cache *SnapshotCache, interval time.Duration, clock clockwork.Clock) *Collector {
	return &Collector{
		source:   source,
		cache:    cache,
		interval: interval,
		clock:    clock,
		done:     make(chan struct{}),
	}
}

// Start performs one synchronous collection run, then begins the periodic
// ingestion loop. The analyzers read collected data, so a failed first run
// fails Start and the caller must not proceed.
func (c *Collector) Start(ctx context.Context) error {
	if err := c.collect(ctx); err != nil {
		return fmt.Errorf("initial data collection: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true
	go c.run(runCtx)

	slog.Info("Data collector started", "interval", c.interval)
	return nil
}

// Stop halts ingestion. Best-effort: calling Stop on a collector that never
// started, or calling it twice, is a no-op.
func (c *Collector) Stop(ctx context.Context) {
	if !c.started {
		return
	}
	c.stopOnce.Do(func() {
		c.cancel()
		select {
		case <-c.done:
		case <-ctx.Done():
			slog.Warn("Data collector stop timed out")
		}
		slog.Info("Data collector stopped")
	})
}

// Records returns a copy of the most recently collected batch.
func (c *Collector) Records() []domain.ProjectRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ProjectRecord, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := c.collect(ctx); err != nil {
				// A failed run degrades freshness only; the loop keeps going.
				slog.Warn("Collection run failed", "error", err)
				metrics.CollectorErrors.Inc()
			}
		}
	}
}

func (c *Collector) collect(ctx context.Context) error {
	records, err := c.source.FetchRecords(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.records = records
	c.mu.Unlock()

	metrics.CollectorBatches.Inc()

	if c.cache != nil {
		if err := c.cache.Publish(ctx, records); err != nil {
			slog.Warn("Failed to publish collected batch to cache", "error", err)
		}
	}
	return nil
}
