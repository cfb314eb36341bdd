// internal/api/sessions.go
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/form"
	"grantflow/internal/models"
	"grantflow/internal/notify"
)

// managedSession pairs a form session with the feed its events flow into
// and the bookkeeping the manager needs to expire it.
type managedSession struct {
	ID      string
	Session *form.Session
	Feed    *notify.Feed

	mu       sync.Mutex
	lastUsed time.Time
}

func (m *managedSession) touch() {
	m.mu.Lock()
	m.lastUsed = time.Now()
	m.mu.Unlock()
}

func (m *managedSession) idleSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUsed
}

// SessionManager owns the live form sessions keyed by ID. Sessions that sit
// idle past the TTL are closed and dropped by the sweep loop.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession

	ttl    time.Duration
	engine form.Dependencies
	logger logger.Logger
}

func NewSessionManager(ttl time.Duration, engine form.Dependencies, log logger.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*managedSession),
		ttl:      ttl,
		engine:   engine,
		logger:   log.WithFields(map[string]interface{}{"component": "sessions"}),
	}
}

// Create builds a new session for user applying to opportunity. Each session
// gets its own feed so events never cross users.
func (m *SessionManager) Create(user models.User, opportunity models.Opportunity) *managedSession {
	deps := m.engine
	feed := notify.NewFeed()
	deps.Sink = feed

	ms := &managedSession{
		ID:       uuid.NewString(),
		Session:  form.NewSession(user, opportunity, deps),
		Feed:     feed,
		lastUsed: time.Now(),
	}

	m.mu.Lock()
	m.sessions[ms.ID] = ms
	m.mu.Unlock()

	m.logger.Info("session created", map[string]interface{}{
		"sessionId":     ms.ID,
		"userId":        user.ID,
		"opportunityId": opportunity.ID,
	})
	return ms
}

// Get returns the session and refreshes its idle timer.
func (m *SessionManager) Get(id string) (*managedSession, error) {
	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, stderrors.NewSessionNotFoundError(id)
	}
	ms.touch()
	return ms, nil
}

// Remove closes the session and drops it from the manager. Removing an
// unknown ID is a no-op.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		ms.Session.Close()
		m.logger.Info("session removed", map[string]interface{}{"sessionId": id})
	}
}

// Run sweeps idle sessions until ctx is cancelled.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *SessionManager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*managedSession
	for id, ms := range m.sessions {
		if ms.idleSince().Before(cutoff) {
			expired = append(expired, ms)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, ms := range expired {
		ms.Session.Close()
		m.logger.Info("session expired", map[string]interface{}{"sessionId": ms.ID})
	}
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
