package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/metrics"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/registry"
)

const fetchTimeout = 2 * time.Second

// Loop pushes snapshots of one topic to all of its subscribers on a fixed
// interval. Each topic runs its own Loop; a failure in one cycle degrades
// that cycle only and never terminates the loop.
type Loop struct {
	topic    domain.Topic
	source   domain.Source
	sessions *registry.Registry
	interval time.Duration
	clock    clockwork.Clock

	// ready gates fetching: while the backing engine is still
	// initializing the loop skips cycles instead of surfacing
	// partially-initialized state.
	ready func() bool

	// suppressEmpty skips delivery of empty snapshots (alerts only).
	suppressEmpty bool
}

type Option func(*Loop)

// WithSuppressEmpty makes the loop skip delivery when the snapshot carries
// no records. Used by the alerts topic so no-alert ticks produce no traffic.
func WithSuppressEmpty() Option {
	return func(l *Loop) { l.suppressEmpty = true }
}

func NewLoop(topic domain.Topic, source domain.Source, sessions *registry.Registry, interval time.Duration, ready func() bool, clock clockwork.Clock, opts ...Option) *Loop {
	l := &Loop{
		topic:    topic,
		source:   source,
		sessions: sessions,
		interval: interval,
		clock:    clock,
		ready:    ready,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes broadcast cycles until ctx is cancelled. Cycles run inline
// between ticks, so cycle N+1's fetch never begins before cycle N's
// deliveries have been attempted.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("Broadcast loop started", "topic", l.topic, "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Broadcast loop stopped", "topic", l.topic)
			return nil
		case <-ticker.Chan():
			l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	if !l.ready() {
		metrics.SkippedCycles.WithLabelValues(string(l.topic), "not_ready").Inc()
		return
	}

	cycleStart := l.clock.Now()
	defer func() {
		metrics.CycleDuration.WithLabelValues(string(l.topic)).Observe(l.clock.Since(cycleStart).Seconds())
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	frame, err := l.source.Snapshot(fetchCtx)
	cancel()

	if errors.Is(err, domain.ErrNotReady) {
		metrics.SkippedCycles.WithLabelValues(string(l.topic), "not_ready").Inc()
		return
	}
	if err != nil {
		slog.Warn("Snapshot fetch failed, skipping cycle", "topic", l.topic, "error", err)
		metrics.FetchFailures.WithLabelValues(string(l.topic)).Inc()
		return
	}

	if frame.Empty && l.suppressEmpty {
		metrics.SkippedCycles.WithLabelValues(string(l.topic), "empty").Inc()
		return
	}

	// Subscribers are captured after the fetch so clients that connected
	// during a slow fetch still receive this cycle's frame.
	for _, sub := range l.sessions.Subscribers(l.topic) {
		if err := sub.Sender.Send(frame.Payload); err != nil {
			// Delivery failure is an implicit disconnect for that
			// session only; remaining subscribers still get the frame.
			slog.Info("Delivery failed, dropping session", "topic", l.topic, "session_id", sub.ID.String(), "error", err)
			metrics.DeliveryFailures.WithLabelValues(string(l.topic)).Inc()
			l.sessions.Remove(sub.ID)
			sub.Sender.Close()
			continue
		}
		metrics.FramesDelivered.WithLabelValues(string(l.topic)).Inc()
	}
}
