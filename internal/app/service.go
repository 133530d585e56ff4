package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/broadcast"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/registry"
)

// State is the lifecycle manager's current phase. Transitions never skip
// a state; FailedToStart and Stopped are terminal.
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateReady
	StateStopping
	StateStopped
	StateFailedToStart
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailedToStart:
		return "failed_to_start"
	default:
		return "unknown"
	}
}

// Engines bundles the backing engines the service orchestrates.
type Engines struct {
	Collector domain.CollectorService
	Projects  domain.ProjectAnalyzerService
	Portfolio domain.PortfolioOptimizerService
	Risk      domain.RiskAnalyzerService
}

// Intervals holds the per-topic broadcast cadences.
type Intervals struct {
	Projects  time.Duration
	Portfolio time.Duration
	Alerts    time.Duration
}

// Service is the lifecycle manager. Start brings up the engines in order
// and launches the broadcast loops; Stop drains everything in reverse.
type Service struct {
	engines   Engines
	intervals Intervals
	sessions  *registry.Registry
	readiness *Readiness
	clock     clockwork.Clock

	state    atomic.Int32
	shutdown chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	group    *errgroup.Group
}

func NewService(engines Engines, sessions *registry.Registry, intervals Intervals, clock clockwork.Clock) *Service {
	return &Service{
		engines:   engines,
		intervals: intervals,
		sessions:  sessions,
		readiness: &Readiness{},
		clock:     clock,
		shutdown:  make(chan struct{}),
	}
}

// Start initializes the backing engines in strict order: data collection
// first (analyzers read collected data), then the analyzer models, then the
// broadcast loops. Any failure aborts startup and the process must not
// serve traffic. Calling Start again once Ready is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if s.State() == StateReady {
		return nil
	}
	if !s.state.CompareAndSwap(int32(StateUninitialized), int32(StateStarting)) {
		return fmt.Errorf("start called in state %s", s.State())
	}

	slog.Info("Starting analytics engines")

	if err := s.engines.Collector.Start(ctx); err != nil {
		s.state.Store(int32(StateFailedToStart))
		return fmt.Errorf("failed to start data collector: %w", err)
	}
	s.readiness.DataCollector.Store(true)

	// Portfolio and risk need only collected data; they are ready as soon
	// as the collector is. The project analyzer waits for its models.
	s.readiness.PortfolioOptimizer.Store(true)
	s.readiness.RiskAnalyzer.Store(true)

	if err := s.engines.Projects.LoadModels(ctx); err != nil {
		s.teardownEngines(ctx)
		s.state.Store(int32(StateFailedToStart))
		return fmt.Errorf("failed to load analytics models: %w", err)
	}
	s.readiness.ProjectAnalyzer.Store(true)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	group, groupCtx := errgroup.WithContext(runCtx)
	s.group = group

	for _, loop := range s.buildLoops() {
		loop := loop
		group.Go(func() error { return loop.Run(groupCtx) })
	}

	s.state.Store(int32(StateReady))
	slog.Info("Analytics engines ready")
	return nil
}

// Stop transitions Ready → Stopping → Stopped: stop accepting new
// sessions, signal the loops and connection handlers, drain open sessions,
// then stop the collector. It returns only once Stopped is reached.
// Calling Stop again afterwards is a no-op, as is stopping a service that
// never started beyond tearing down whatever did come up.
func (s *Service) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		slog.Info("Shutting down", "state", s.State())
		s.state.Store(int32(StateStopping))

		// New sessions are rejected from here; existing handlers observe
		// the shutdown channel and terminate.
		close(s.shutdown)

		if s.cancel != nil {
			s.cancel()
		}
		if s.group != nil {
			_ = s.group.Wait()
		}

		s.sessions.Drain()
		s.teardownEngines(ctx)

		s.state.Store(int32(StateStopped))
		slog.Info("Shutdown complete")
	})
	return nil
}

func (s *Service) teardownEngines(ctx context.Context) {
	s.readiness.ProjectAnalyzer.Store(false)
	s.readiness.PortfolioOptimizer.Store(false)
	s.readiness.RiskAnalyzer.Store(false)
	s.readiness.DataCollector.Store(false)
	s.engines.Collector.Stop(ctx)
}

func (s *Service) buildLoops() []*broadcast.Loop {
	return []*broadcast.Loop{
		broadcast.NewLoop(domain.TopicProjects, projectSource{s.engines.Projects}, s.sessions, s.intervals.Projects,
			func() bool { return s.readiness.TopicReady(domain.TopicProjects) }, s.clock),
		broadcast.NewLoop(domain.TopicPortfolio, portfolioSource{s.engines.Portfolio}, s.sessions, s.intervals.Portfolio,
			func() bool { return s.readiness.TopicReady(domain.TopicPortfolio) }, s.clock),
		broadcast.NewLoop(domain.TopicAlerts, alertSource{s.engines.Risk}, s.sessions, s.intervals.Alerts,
			func() bool { return s.readiness.TopicReady(domain.TopicAlerts) }, s.clock,
			broadcast.WithSuppressEmpty()),
	}
}

// State returns the lifecycle phase.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Accepting reports whether new sessions may be registered. Clients that
// connect during the startup window are accepted (they receive no frames
// until readiness); only a stopping or failed process rejects them.
func (s *Service) Accepting() bool {
	switch s.State() {
	case StateUninitialized, StateStarting, StateReady:
		return true
	default:
		return false
	}
}

// ShuttingDown is closed when Stop begins; connection handlers select on it.
func (s *Service) ShuttingDown() <-chan struct{} {
	return s.shutdown
}

// Readiness exposes the per-engine flags for health reporting.
func (s *Service) Readiness() *Readiness {
	return s.readiness
}
