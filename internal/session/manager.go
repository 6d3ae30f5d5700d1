package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager keeps the live sessions of the process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	now      func() time.Time
}

// NewManager creates an empty Manager. now may be nil to use time.Now.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		now:      now,
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.New(), m.now)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Exists reports whether id is a live session.
func (m *Manager) Exists(id uuid.UUID) bool {
	_, err := m.Get(id)
	return err == nil
}

// Delete ends a session. Deleting an unknown id is an error.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap ends sessions idle for longer than maxIdle and returns their ids.
func (m *Manager) Reap(maxIdle time.Duration) []uuid.UUID {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	var reaped []uuid.UUID
	for id, s := range m.sessions {
		if s.TouchedAt().Before(cutoff) {
			delete(m.sessions, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}

// Run reaps idle sessions every interval until ctx is done.
// onReap, if non-nil, is called with each batch of reaped ids.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration, onReap func([]uuid.UUID)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reaped := m.Reap(maxIdle); len(reaped) > 0 && onReap != nil {
				onReap(reaped)
			}
		}
	}
}
