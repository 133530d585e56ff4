package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

// The source adapters below marshal each engine's snapshot into the
// self-contained frame the broadcast loops deliver.

type projectSource struct {
	analyzer domain.ProjectAnalyzerService
}

func (s projectSource) Snapshot(ctx context.Context) (domain.Frame, error) {
	snapshot, err := s.analyzer.RealtimeAnalytics(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("failed to marshal project analytics: %w", err)
	}
	return domain.Frame{Payload: data}, nil
}

type portfolioSource struct {
	optimizer domain.PortfolioOptimizerService
}

func (s portfolioSource) Snapshot(ctx context.Context) (domain.Frame, error) {
	state, err := s.optimizer.RealtimePortfolio(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("failed to marshal portfolio state: %w", err)
	}
	return domain.Frame{Payload: data}, nil
}

type alertSource struct {
	risk domain.RiskAnalyzerService
}

func (s alertSource) Snapshot(ctx context.Context) (domain.Frame, error) {
	alerts, err := s.risk.ActiveAlerts(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	data, err := json.Marshal(alerts)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("failed to marshal alerts: %w", err)
	}
	return domain.Frame{Payload: data, Empty: len(alerts) == 0}, nil
}
