package analytics

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

// Connect opens a pgx pool against databaseURL and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// ProjectStore reads project rows from Postgres. It backs the collector
// when DATABASE_URL is configured.
type ProjectStore struct {
	pool *pgxpool.Pool
}

func NewProjectStore(pool *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{pool: pool}
}

func (s *ProjectStore) FetchRecords(ctx context.Context) ([]domain.ProjectRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, progress, budget, spent, risk_score, updated_at
		FROM projects
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var records []domain.ProjectRecord
	for rows.Next() {
		var r domain.ProjectRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Progress, &r.Budget, &r.Spent, &r.RiskScore, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project rows: %w", err)
	}
	return records, nil
}

// SampleSource generates plausible project data when no database is
// configured. Progress and risk drift over time so live clients see the
// snapshots change between ticks.
type SampleSource struct {
	clock clockwork.Clock
	rng   *rand.Rand
}

func NewSampleSource(clock clockwork.Clock) *SampleSource {
	return &SampleSource{
		clock: clock,
		rng:   rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

var sampleProjects = []struct {
	id     string
	name   string
	budget float64
}{
	{"prj-001", "Mobile App Redesign", 250000},
	{"prj-002", "Data Warehouse Migration", 480000},
	{"prj-003", "Customer Portal", 120000},
	{"prj-004", "Payments Integration", 310000},
	{"prj-005", "Internal Tooling", 75000},
}

func (s *SampleSource) FetchRecords(_ context.Context) ([]domain.ProjectRecord, error) {
	now := s.clock.Now()
	records := make([]domain.ProjectRecord, 0, len(sampleProjects))
	for i, p := range sampleProjects {
		phase := float64(now.Unix()%3600)/3600 + float64(i)*0.2
		progress := math.Mod(phase*100, 100)
		risk := math.Abs(math.Sin(phase*math.Pi)) * (0.4 + s.rng.Float64()*0.6)
		records = append(records, domain.ProjectRecord{
			ID:        p.id,
			Name:      p.name,
			Progress:  math.Round(progress*10) / 10,
			Budget:    p.budget,
			Spent:     math.Round(p.budget*progress) / 100,
			RiskScore: math.Round(risk*100) / 100,
			UpdatedAt: now,
		})
	}
	return records, nil
}

var (
	_ RecordSource = (*ProjectStore)(nil)
	_ RecordSource = (*SampleSource)(nil)
)
