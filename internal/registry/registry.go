package registry

import (
	"sort"
	"sync"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/metrics"
)

// Sender delivers one frame to a client. Implementations must be safe for
// concurrent use and must fail fast rather than block the caller.
type Sender interface {
	Send(data []byte) error
	Close()
}

// Session is one open client connection subscribed to a single topic.
// The connection handler owns the session; the registry only references it.
type Session struct {
	ID     domain.SessionID
	Topic  domain.Topic
	Sender Sender
}

// Registry tracks all currently open sessions, keyed by session id and
// filterable by topic. All methods are safe for concurrent use from any
// number of connection handlers and broadcast loops.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*Session),
	}
}

// Add registers a new open session. Returns ErrDuplicateSession if the id
// is already present; the original entry is kept untouched.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return domain.ErrDuplicateSession
	}
	r.sessions[s.ID] = s
	metrics.ActiveSessions.WithLabelValues(string(s.Topic)).Inc()
	return nil
}

// Remove deregisters a session. Removing an absent id is a no-op so that a
// broadcast loop and a disconnect detector can both attempt cleanup.
func (r *Registry) Remove(id domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[id]
	if !exists {
		return
	}
	delete(r.sessions, id)
	metrics.ActiveSessions.WithLabelValues(string(s.Topic)).Dec()
}

// Subscribers returns a point-in-time copy of the sessions subscribed to
// topic, ordered by session id. Iterating the copy is safe while the
// registry mutates concurrently.
func (r *Registry) Subscribers(topic domain.Topic) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Topic == topic {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ID.String() < subs[j].ID.String()
	})
	return subs
}

// Len returns the number of open sessions across all topics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Drain removes every session and closes its sender. Used during shutdown
// after the broadcast loops have stopped.
func (r *Registry) Drain() {
	r.mu.Lock()
	drained := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		drained = append(drained, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	// Close outside the lock: Close waits for the writer goroutine.
	for _, s := range drained {
		metrics.ActiveSessions.WithLabelValues(string(s.Topic)).Dec()
		s.Sender.Close()
	}
}
