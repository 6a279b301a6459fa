// Package session keeps one navigation gate per browser session.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"safebrowse/internal/gate"

	"go.uber.org/zap"
)

// DefaultID is used when a request carries no session id.
const DefaultID = "default"

// Factory builds the gate for a new session.
type Factory func(id string) *gate.Gate

type entry struct {
	gate     *gate.Gate
	lastUsed time.Time
}

// Manager owns the gates. Sessions are created lazily and evicted once idle.
type Manager struct {
	factory Factory
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(factory Factory, logger *zap.Logger) *Manager {
	return &Manager{
		factory:  factory,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Gate returns the gate for id, creating it on first use.
func (m *Manager) Gate(id string) *gate.Gate {
	id = Normalize(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		e = &entry{gate: m.factory(id)}
		m.sessions[id] = e
		m.logger.Debug("Session created", zap.String("session_id", id))
	}
	e.lastUsed = m.now()
	return e.gate
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict drops sessions idle for longer than ttl. A session with an
// evaluation in flight is kept.
func (m *Manager) Evict(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	evicted := 0
	for id, e := range m.sessions {
		if e.lastUsed.After(cutoff) || e.gate.State().Phase == gate.PhaseEvaluating {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	if evicted > 0 {
		m.logger.Info("Evicted idle sessions", zap.Int("count", evicted), zap.Int("remaining", len(m.sessions)))
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Evict(ttl)
		}
	}
}

// Normalize trims id, falling back to DefaultID.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultID
	}
	return id
}
