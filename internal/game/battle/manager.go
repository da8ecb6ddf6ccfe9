package battle

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager tracks running battles by id.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *zap.Logger
}

// NewManager creates an empty Manager. A nil logger is replaced with zap.NewNop().
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{sessions: make(map[uuid.UUID]*Session), logger: logger}
}

// Add registers s.
//
// Precondition: s must be non-nil.
// Postcondition: Returns an error if a session with the same id is already registered.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID()]; exists {
		return fmt.Errorf("battle %s already registered", s.ID())
	}
	m.sessions[s.ID()] = s
	return nil
}

// Get returns the session with id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove unregisters id. Removing an unknown id is a no-op.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run registers s, plays it to completion and unregisters it.
//
// Postcondition: s is no longer registered when Run returns.
func (m *Manager) Run(ctx context.Context, s *Session) (*Result, error) {
	if err := m.Add(s); err != nil {
		return nil, err
	}
	defer m.Remove(s.ID())
	m.logger.Info("battle started", zap.String("battle_id", s.ID().String()), zap.Int("running", m.Len()))
	res, err := s.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("battle %s: %w", s.ID(), err)
	}
	m.logger.Info("battle finished",
		zap.String("battle_id", s.ID().String()),
		zap.String("outcome", res.Outcome.String()),
		zap.Int("turns", res.Turns),
	)
	return res, nil
}
