package analytics

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

const (
	highRiskThreshold     = 0.8
	elevatedRiskThreshold = 0.6
)

// RiskAnalyzer evaluates collected project data for active alerts.
type RiskAnalyzer struct {
	records RecordProvider
	clock   clockwork.Clock
}

func NewRiskAnalyzer(records RecordProvider, clock clockwork.Clock) *RiskAnalyzer {
	return &RiskAnalyzer{records: records, clock: clock}
}

// ActiveAlerts returns the currently active alerts. The slice is empty when
// no project is over a risk or budget threshold.
func (a *RiskAnalyzer) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	alerts := []domain.Alert{}
	for _, r := range a.records.Records() {
		switch {
		case r.RiskScore >= highRiskThreshold:
			alerts = append(alerts, domain.Alert{
				ID:        fmt.Sprintf("risk-%s", r.ID),
				ProjectID: r.ID,
				Severity:  "high",
				Message:   fmt.Sprintf("%s risk score %.2f exceeds threshold %.2f", r.Name, r.RiskScore, highRiskThreshold),
				RaisedAt:  now,
			})
		case r.RiskScore >= elevatedRiskThreshold:
			alerts = append(alerts, domain.Alert{
				ID:        fmt.Sprintf("risk-%s", r.ID),
				ProjectID: r.ID,
				Severity:  "elevated",
				Message:   fmt.Sprintf("%s risk score %.2f is elevated", r.Name, r.RiskScore),
				RaisedAt:  now,
			})
		}

		if r.Spent > r.Budget {
			alerts = append(alerts, domain.Alert{
				ID:        fmt.Sprintf("budget-%s", r.ID),
				ProjectID: r.ID,
				Severity:  "high",
				Message:   fmt.Sprintf("%s has spent %.0f of a %.0f budget", r.Name, r.Spent, r.Budget),
				RaisedAt:  now,
			})
		}
	}
	return alerts, nil
}

var _ domain.RiskAnalyzerService = (*RiskAnalyzer)(nil)
