package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic identifies one real-time data stream. Every open session is
// subscribed to exactly one topic; a client that wants several topics
// opens several sessions.
type Topic string

const (
	TopicProjects  Topic = "projects"
	TopicPortfolio Topic = "portfolio"
	TopicAlerts    Topic = "alerts"
)

// Topics lists all broadcast topics in a stable order.
func Topics() []Topic {
	return []Topic{TopicProjects, TopicPortfolio, TopicAlerts}
}

// SessionID uniquely identifies one open client connection.
type SessionID = uuid.UUID

// Frame is a point-in-time snapshot of a topic, already serialized as a
// self-contained message. Empty is true when the snapshot carries no
// records (only the alerts source produces empty frames).
type Frame struct {
	Payload json.RawMessage
	Empty   bool
}

// Source produces the current snapshot for one topic on demand. It has no
// knowledge of sessions; fetching is non-mutating from the broadcaster's view.
type Source interface {
	Snapshot(ctx context.Context) (Frame, error)
}

// ProjectRecord is one raw project row as collected by the data collector.
type ProjectRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Progress  float64   `json:"progress"`
	Budget    float64   `json:"budget"`
	Spent     float64   `json:"spent"`
	RiskScore float64   `json:"risk_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectAnalytics is the snapshot pushed on the projects topic.
type ProjectAnalytics struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	ProjectCount int             `json:"project_count"`
	AvgProgress  float64         `json:"avg_progress"`
	AvgRisk      float64         `json:"avg_risk"`
	HealthScore  float64         `json:"health_score"`
	Projects     []ProjectRecord `json:"projects"`
}

// PortfolioState is the snapshot pushed on the portfolio topic.
type PortfolioState struct {
	GeneratedAt    time.Time             `json:"generated_at"`
	TotalBudget    float64               `json:"total_budget"`
	TotalSpent     float64               `json:"total_spent"`
	BudgetUtilized float64               `json:"budget_utilized"`
	Allocations    []PortfolioAllocation `json:"allocations"`
}

// PortfolioAllocation is one project's share of the portfolio.
type PortfolioAllocation struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
}

// Alert is one active risk alert. The alerts topic pushes the full set of
// active alerts each cycle; ticks with no alerts are not pushed.
type Alert struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	RaisedAt  time.Time `json:"raised_at"`
}

// ProjectAnalyzerService scores collected project data. Analytics are
// unavailable until LoadModels has completed.
type ProjectAnalyzerService interface {
	LoadModels(ctx context.Context) error
	RealtimeAnalytics(ctx context.Context) (ProjectAnalytics, error)
}

// PortfolioOptimizerService computes the current portfolio state.
type PortfolioOptimizerService interface {
	RealtimePortfolio(ctx context.Context) (PortfolioState, error)
}

// RiskAnalyzerService evaluates collected data for active alerts.
// The returned slice may be empty.
type RiskAnalyzerService interface {
	ActiveAlerts(ctx context.Context) ([]Alert, error)
}

// CollectorService ingests raw project data. Start must complete (or fail)
// before analyzers are used; Stop is best-effort and safe to call on an
// already-stopped collector.
type CollectorService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Records() []ProjectRecord
}
