package analytics

import (
	"context"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

// RecordProvider exposes the latest collected batch. Satisfied by the
// Collector.
type RecordProvider interface {
	Records() []domain.ProjectRecord
}

// ProjectAnalyzer scores collected project data into the realtime
// analytics snapshot. Analytics are unavailable until LoadModels completes.
type ProjectAnalyzer struct {
	records RecordProvider
	clock   clockwork.Clock
	loaded  atomic.Bool

	// scoring weights, set by LoadModels
	progressWeight float64
	riskWeight     float64
}

func NewProjectAnalyzer(records RecordProvider, clock clockwork.Clock) *ProjectAnalyzer {
	return &ProjectAnalyzer{records: records, clock: clock}
}

// LoadModels initializes the scoring model. The weights are a stand-in for
// the full model pipeline; what matters to callers is that analytics stay
// unavailable until this has completed.
func (a *ProjectAnalyzer) LoadModels(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.progressWeight = 0.7
	a.riskWeight = 0.3
	a.loaded.Store(true)
	return nil
}

func (a *ProjectAnalyzer) RealtimeAnalytics(ctx context.Context) (domain.ProjectAnalytics, error) {
	if !a.loaded.Load() {
		return domain.ProjectAnalytics{}, domain.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return domain.ProjectAnalytics{}, err
	}

	records := a.records.Records()
	snapshot := domain.ProjectAnalytics{
		GeneratedAt:  a.clock.Now(),
		ProjectCount: len(records),
		Projects:     records,
	}

	if len(records) == 0 {
		return snapshot, nil
	}

	var progressSum, riskSum float64
	for _, r := range records {
		progressSum += r.Progress
		riskSum += r.RiskScore
	}
	snapshot.AvgProgress = progressSum / float64(len(records))
	snapshot.AvgRisk = riskSum / float64(len(records))
	snapshot.HealthScore = snapshot.AvgProgress/100*a.progressWeight + (1-snapshot.AvgRisk)*a.riskWeight
	return snapshot, nil
}

var _ domain.ProjectAnalyzerService = (*ProjectAnalyzer)(nil)
