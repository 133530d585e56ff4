package analytics

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

// PortfolioOptimizer computes the current portfolio state from collected
// project data. Allocation weights are proportional to budget.
type PortfolioOptimizer struct {
	records RecordProvider
	clock   clockwork.Clock
}

func NewPortfolioOptimizer(records RecordProvider, clock clockwork.Clock) *PortfolioOptimizer {
	return &PortfolioOptimizer{records: records, clock: clock}
}

func (o *PortfolioOptimizer) RealtimePortfolio(ctx context.Context) (domain.PortfolioState, error) {
	if err := ctx.Err(); err != nil {
		return domain.PortfolioState{}, err
	}

	records := o.records.Records()
	state := domain.PortfolioState{
		GeneratedAt: o.clock.Now(),
		Allocations: make([]domain.PortfolioAllocation, 0, len(records)),
	}

	for _, r := range records {
		state.TotalBudget += r.Budget
		state.TotalSpent += r.Spent
	}
	if state.TotalBudget > 0 {
		state.BudgetUtilized = state.TotalSpent / state.TotalBudget
	}

	for _, r := range records {
		weight := 0.0
		if state.TotalBudget > 0 {
			weight = r.Budget / state.TotalBudget
		}
		state.Allocations = append(state.Allocations, domain.PortfolioAllocation{
			ProjectID: r.ID,
			Name:      r.Name,
			Weight:    weight,
		})
	}
	return state, nil
}

var _ domain.PortfolioOptimizerService = (*PortfolioOptimizer)(nil)
