package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// Manager keeps one Session per signed-in user.
type Manager struct {
	store  Store
	pricer Pricer
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store Store, pricer Pricer, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		pricer:   pricer,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// SignIn returns the session of id.UserID, opening one when needed. A
// session opened for another customer profile is replaced.
func (m *Manager) SignIn(ctx context.Context, id domain.Identity) (*Session, error) {
	if id.UserID == "" {
		return nil, domain.ErrNoUser
	}

	m.mu.Lock()
	cur, ok := m.sessions[id.UserID]
	m.mu.Unlock()
	if ok && cur.Identity() == id {
		return cur, nil
	}

	s, err := Open(ctx, m.store, m.pricer, id, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	prev, ok := m.sessions[id.UserID]
	if ok && prev != cur && prev.Identity() == id {
		// Lost a race with another sign-in for the same identity.
		m.mu.Unlock()
		s.Close()
		return prev, nil
	}
	m.sessions[id.UserID] = s
	m.mu.Unlock()

	if ok {
		prev.Close()
	}
	m.logger.Info("Cart session opened",
		zap.String("user_id", id.UserID),
		zap.String("customer_id", id.CustomerID),
	)
	return s, nil
}

func (m *Manager) Session(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// SignOut closes the session of userID. It reports whether there was one.
func (m *Manager) SignOut(userID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	m.logger.Info("Cart session closed", zap.String("user_id", userID))
	return true
}

func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
