package session

import (
	"context"
	"sync"

	"github.com/planmatch/planmatch/internal/interfaces"
	"github.com/planmatch/planmatch/internal/realtime"
	"github.com/planmatch/planmatch/internal/telemetry"
)

// Manager owns the live sessions, one per connected user.
type Manager struct {
	api       interfaces.CoreAPI
	cache     interfaces.SnapshotCache
	transport realtime.Transport

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(api interfaces.CoreAPI, cache interfaces.SnapshotCache, transport realtime.Transport) *Manager {
	return &Manager{
		api:       api,
		cache:     cache,
		transport: transport,
		sessions:  make(map[string]*Session),
	}
}

// GetOrCreate returns the user's session, starting a new one on first use.
// When Start fails the session is not retained, so the next request retries
// from scratch.
func (m *Manager) GetOrCreate(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s := New(userID, m.api, m.cache, m.transport)
	if err := s.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[userID]; ok {
		// Lost the race to another request; keep the one already registered.
		s.Close()
		return existing, nil
	}
	m.sessions[userID] = s

	telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"operation": "session_create",
	}).Info("Session started")
	return s, nil
}

// Get returns the user's session if one is live.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Close tears down one user's session.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// CloseAll tears down every live session, used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
