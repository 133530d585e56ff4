package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/registry"
)

// fakeSource returns a canned frame or error and counts fetches.
type fakeSource struct {
	mu      sync.Mutex
	frame   domain.Frame
	err     error
	fetches int
}

func (f *fakeSource) Snapshot(_ context.Context) (domain.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.frame, f.err
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSource) set(frame domain.Frame, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = frame
	f.err = err
}

// fakeSender collects delivered frames; failing senders error on Send.
type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (f *fakeSender) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.ErrSessionClosed
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func addSession(t *testing.T, r *registry.Registry, topic domain.Topic, sender *fakeSender) *registry.Session {
	t.Helper()
	s := &registry.Session{ID: uuid.New(), Topic: topic, Sender: sender}
	require.NoError(t, r.Add(s))
	return s
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func alwaysReady() bool { return true }

func TestLoop_CycleDeliversToAllSubscribers(t *testing.T) {
	sessions := registry.New()
	source := &fakeSource{frame: domain.Frame{Payload: payload(t, map[string]int{"n": 1})}}
	loop := NewLoop(domain.TopicProjects, source, sessions, time.Second, alwaysReady, clockwork.NewFakeClock())

	a := &fakeSender{}
	b := &fakeSender{}
	addSession(t, sessions, domain.TopicProjects, a)
	addSession(t, sessions, domain.TopicProjects, b)

	// A session on another topic must not receive this loop's frames.
	other := &fakeSender{}
	addSession(t, sessions, domain.TopicAlerts, other)

	loop.cycle(context.Background())

	assert.Equal(t, 1, a.frameCount())
	assert.Equal(t, 1, b.frameCount())
	assert.Equal(t, 0, other.frameCount())
}

func TestLoop_SkipsCycleWhenNotReady(t *testing.T) {
	sessions := registry.New()
	source := &fakeSource{frame: domain.Frame{Payload: payload(t, "x")}}

	ready := false
	loop := NewLoop(domain.TopicProjects, source, sessions, time.Second, func() bool { return ready }, clockwork.NewFakeClock())

	sender := &fakeSender{}
	addSession(t, sessions, domain.TopicProjects, sender)

	loop.cycle(context.Background())
	assert.Equal(t, 0, source.fetchCount(), "no fetch while engine not ready")
	assert.Equal(t, 0, sender.frameCount())

	// Readiness flips: frames resume on the next cycle.
	ready = true
	loop.cycle(context.Background())
	assert.Equal(t, 1, source.fetchCount())
	assert.Equal(t, 1, sender.frameCount())
}

func TestLoop_NotReadyErrorFromSourceSkipsCycle(t *testing.T) {
	sessions := registry.New()
	source := &fakeSource{err: domain.ErrNotReady}
	loop := NewLoop(domain.TopicProjects, source, sessions, time.Second, alwaysReady, clockwork.NewFakeClock())

	sender := &fakeSender{}
	addSession(t, sessions, domain.TopicProjects, sender)

	loop.cycle(context.Background())
	assert.Equal(t, 0, sender.frameCount())
}

func TestLoop_FetchErrorDegradesCycleOnly(t *testing.T) {
	sessions := registry.New()
	source := &fakeSource{err: errors.New("source down")}
	loop := NewLoop(domain.TopicPortfolio, source, sessions, time.Second, alwaysReady, clockwork.NewFakeClock())

	sender := &fakeSender{}
	s := addSession(t, sessions, domain.TopicPortfolio, sender)

	loop.cycle(context.Background())
	assert.Equal(t, 0, sender.frameCount())

	// The session survives a failed fetch; the next cycle delivers.
	assert.Len(t, sessions.Subscribers(domain.TopicPortfolio), 1)
	source.set(domain.Frame{Payload: payload(t, "ok")}, nil)
	loop.cycle(context.Background())
	assert.Equal(t, 1, sender.frameCount())
	_ = s
}

func TestLoop_EmptyAlertSnapshotSuppressed(t *testing.T) {
	sessions := registry.New()
	source := &fakeSource{frame: domain.Frame{Payload: payload(t, []string{}), Empty: true}}
	loop := NewLoop(domain.TopicAlerts, source, sessions, time.Second, alwaysReady, clockwork.NewFakeClock(),
		WithSuppressEmpty())

	sender := &fakeSender{}
	addSession(t, sessions, domain.TopicAlerts, sender)

	loop.cycle(context.Background())
	assert.Equal(t, 0, sender.frameCount(), "empty alert tick must not be pushed")

	source.set(domain.Frame{Payload: payload(t, []string{"alert"})}, nil)
	loop.cycle(context.Background())
	assert.Equal(t, 1, sender.frameCount())
}

func TestLoop_EmptyFrameDeliveredWithoutSuppression(t *testing.T) {
	// Project and portfolio always deliver, even unchanged or empty state.
	sessions := registry.New()
	source := &fakeSource{frame: domain.Frame{Payload: payload(t, map[string]any{}), Empty: true}}
	loop := NewLoop(domain.TopicProjects, source, sessions, time.Second, alwaysReady, clockwork.NewFakeClock())

	sender := &fakeSender{}
	addSession(t, sessions, domain.TopicProjects, sender)

	loop.cycle(context.Background())
	loop.cycle(context.Background())
	assert.Equal(t, 2, sender.frameCount())
}

func TestLoop_DeliveryFailureIsolatedToOneSession(t *testing.T) {
	sessions := registry.New()
	source := &fakeSource{frame: domain.Frame{Payload: payload(t, "tick")}}
	loop := NewLoop(domain.TopicProjects, source, sessions, time.Second, alwaysReady, clockwork.NewFakeClock())

	failing := &fakeSender{fail: true}
	healthy := &fakeSender{}
	failed := addSession(t, sessions, domain.TopicProjects, failing)
	addSession(t, sessions, domain.TopicProjects, healthy)

	loop.cycle(context.Background())

	// The healthy session still received the frame in the same cycle.
	assert.Equal(t, 1, healthy.frameCount())

	// The failed session was dropped and its sender closed.
	assert.True(t, failing.closed)
	for _, sub := range sessions.Subscribers(domain.TopicProjects) {
		assert.NotEqual(t, failed.ID, sub.ID)
	}
	assert.Len(t, sessions.Subscribers(domain.TopicProjects), 1)
}

func TestLoop_RunCyclesOnTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sessions := registry.New()
	source := &fakeSource{frame: domain.Frame{Payload: payload(t, "tick")}}
	loop := NewLoop(domain.TopicProjects, source, sessions, 2*time.Second, alwaysReady, clock)

	sender := &fakeSender{}
	addSession(t, sessions, domain.TopicProjects, sender)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- loop.Run(ctx) }()

	// Wait for the loop to block on its ticker before advancing time.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	for i := 1; i <= 3; i++ {
		clock.Advance(2 * time.Second)
		require.Eventually(t, func() bool { return sender.frameCount() == i },
			time.Second, time.Millisecond, "expected %d frames", i)
	}

	// Exactly one frame per cycle, no overlap.
	assert.Equal(t, 3, source.fetchCount())

	cancel()
	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on shutdown signal")
	}
}

func TestLoop_RunExitsOnlyOnShutdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sessions := registry.New()
	source := &fakeSource{err: fmt.Errorf("permanently failing source")}
	loop := NewLoop(domain.TopicAlerts, source, sessions, time.Second, alwaysReady, clock)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- loop.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	// Per-cycle errors never terminate the loop.
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
	}
	require.Eventually(t, func() bool { return source.fetchCount() >= 1 }, time.Second, time.Millisecond)

	select {
	case <-runDone:
		t.Fatal("loop terminated without shutdown signal")
	default:
	}

	cancel()
	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on shutdown signal")
	}
}
