package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridlume/electromap/explore"
	"github.com/gridlume/electromap/internal/logging"
)

// DefaultSessionTTL is how long an idle session survives before the janitor
// reclaims it.
const DefaultSessionTTL = 2 * time.Hour

// SessionObserver receives session lifecycle events. Optional.
type SessionObserver interface {
	SessionOpened()
	SessionClosed()
}

// Session binds one controller to one browser session.
type Session struct {
	ID         string
	Controller *explore.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Manager owns all live sessions. Controllers are built by the injected
// factory so each session gets its own view state over shared collaborators.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	factory  func() *explore.Controller
	ttl      time.Duration
	observer SessionObserver
	log      logging.Logger
}

// NewManager builds a session manager. A non-positive ttl selects the
// default.
func NewManager(factory func() *explore.Controller, ttl time.Duration, log logging.Logger, observer SessionObserver) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		factory:  factory,
		ttl:      ttl,
		observer: observer,
		log:      log,
	}
}

// Create opens a new session with a fresh controller.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Controller: m.factory(),
		lastSeen:   time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.SessionOpened()
	}
	return s
}

// Get looks a session up and refreshes its idle clock.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

// Close removes a session. Reports whether it existed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok && m.observer != nil {
		m.observer.SessionClosed()
	}
	return ok
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops every session idle longer than the ttl, returning how many
// were reclaimed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for range expired {
		if m.observer != nil {
			m.observer.SessionClosed()
		}
	}
	return len(expired)
}

// StartJanitor sweeps idle sessions on the given interval until the context
// is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(time.Now()); n > 0 {
					m.log.Info(ctx, "reclaimed idle sessions", logging.Int("count", n))
				}
			}
		}
	}()
}
