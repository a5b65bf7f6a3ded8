package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated identity attached to a request. The zero
// value means "not signed in".
type Session struct {
	UserID    uuid.UUID
	Role      string
	ExpiresAt time.Time
}

// Valid reports whether the session belongs to a user and has not expired.
func (s Session) Valid() bool {
	return s.UserID != uuid.Nil && time.Now().Before(s.ExpiresAt)
}

// Manager caches validated sessions keyed by bearer token so repeated
// requests skip signature verification. Load misses and expired entries
// fall through to the token validator.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]Session)}
}

// Load returns the cached session for the token, if still valid.
func (m *Manager) Load(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if !sess.Valid() {
		delete(m.sessions, token)
		return Session{}, false
	}
	return sess, true
}

// Save caches the session under its token.
func (m *Manager) Save(token string, sess Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = sess
}

// Clear drops one token, for logout.
func (m *Manager) Clear(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}
