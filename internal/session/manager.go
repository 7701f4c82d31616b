package session

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/ycwei/smartlook/internal/llm"
)

// Manager hands out sessions by id. Sessions are anonymous and live for
// the process lifetime; nothing survives a restart.
type Manager struct {
	gateway  llm.Gateway
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(gateway llm.Gateway) *Manager {
	return &Manager{
		gateway:  gateway,
		sessions: make(map[string]*Session),
	}
}

// Create starts a fresh session and returns it.
func (m *Manager) Create() *Session {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
	s := newSession(id, m.gateway)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info().Str("session", id).Msg("session created")
	return s
}

// Get returns the session with the given id, if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
