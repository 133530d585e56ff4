package app

import (
	"sync/atomic"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

// Readiness holds one flag per backing engine. Flags flip true as each
// engine finishes initializing; broadcast loops read them to decide whether
// to skip a cycle instead of fetching from an uninitialized source.
type Readiness struct {
	DataCollector      atomic.Bool
	ProjectAnalyzer    atomic.Bool
	PortfolioOptimizer atomic.Bool
	RiskAnalyzer       atomic.Bool
}

// TopicReady reports whether the engines behind a topic are initialized.
// Every topic reads collected data, so the collector gates all three.
func (r *Readiness) TopicReady(topic domain.Topic) bool {
	if !r.DataCollector.Load() {
		return false
	}
	switch topic {
	case domain.TopicProjects:
		return r.ProjectAnalyzer.Load()
	case domain.TopicPortfolio:
		return r.PortfolioOptimizer.Load()
	case domain.TopicAlerts:
		return r.RiskAnalyzer.Load()
	default:
		return false
	}
}

// Snapshot returns the current flag values for the health endpoint.
func (r *Readiness) Snapshot() map[string]bool {
	return map[string]bool{
		"data_collector":      r.DataCollector.Load(),
		"project_analyzer":    r.ProjectAnalyzer.Load(),
		"portfolio_optimizer": r.PortfolioOptimizer.Load(),
		"risk_analyzer":       r.RiskAnalyzer.Load(),
	}
}
