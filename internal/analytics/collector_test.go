package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

type countingSource struct {
	mu      sync.Mutex
	records []domain.ProjectRecord
	err     error
	fetches int
}

func (s *countingSource) FetchRecords(_ context.Context) ([]domain.ProjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *countingSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func TestCollector_StartCollectsSynchronously(t *testing.T) {
	source := &countingSource{records: []domain.ProjectRecord{{ID: "prj-1", Name: "One"}}}
	c := NewCollector(source, nil, 30*time.Second, clockwork.NewFakeClock())
	t.Cleanup(func() { c.Stop(context.Background()) })

	require.NoError(t, c.Start(context.Background()))

	// Data is available the moment Start returns.
	records := c.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "prj-1", records[0].ID)
}

func TestCollector_StartFailsWhenFirstRunFails(t *testing.T) {
	source := &countingSource{err: errors.New("upstream unavailable")}
	c := NewCollector(source, nil, 30*time.Second, clockwork.NewFakeClock())

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial data collection")

	// Stop on a collector that never started is a no-op.
	c.Stop(context.Background())
}

func TestCollector_PeriodicCollection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{records: []domain.ProjectRecord{{ID: "prj-1"}}}
	c := NewCollector(source, nil, 30*time.Second, clock)
	t.Cleanup(func() { c.Stop(context.Background()) })

	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, 1, source.fetchCount())

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(30 * time.Second)

	require.Eventually(t, func() bool { return source.fetchCount() == 2 },
		time.Second, time.Millisecond)
}

func TestCollector_FailedRunKeepsPreviousBatch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{records: []domain.ProjectRecord{{ID: "prj-1"}}}
	c := NewCollector(source, nil, 30*time.Second, clock)
	t.Cleanup(func() { c.Stop(context.Background()) })

	require.NoError(t, c.Start(context.Background()))

	source.mu.Lock()
	source.err = errors.New("flaky upstream")
	source.mu.Unlock()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return source.fetchCount() == 2 },
		time.Second, time.Millisecond)

	// The previous batch stays served.
	assert.Len(t, c.Records(), 1)
}

func TestCollector_RecordsReturnsACopy(t *testing.T) {
	source := &countingSource{records: []domain.ProjectRecord{{ID: "prj-1", Name: "One"}}}
	c := NewCollector(source, nil, 30*time.Second, clockwork.NewFakeClock())
	t.Cleanup(func() { c.Stop(context.Background()) })

	require.NoError(t, c.Start(context.Background()))

	records := c.Records()
	records[0].Name = "mutated"
	assert.Equal(t, "One", c.Records()[0].Name)
}

func TestCollector_StopIsIdempotent(t *testing.T) {
	source := &countingSource{}
	c := NewCollector(source, nil, 30*time.Second, clockwork.NewFakeClock())

	require.NoError(t, c.Start(context.Background()))
	c.Stop(context.Background())
	c.Stop(context.Background())
}

func TestSampleSource_ProducesRecords(t *testing.T) {
	source := NewSampleSource(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	records, err := source.FetchRecords(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.GreaterOrEqual(t, r.Progress, 0.0)
		assert.LessOrEqual(t, r.Progress, 100.0)
		assert.Positive(t, r.Budget)
	}
}
