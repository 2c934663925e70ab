package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Abandoner interface {
	AbandonIdle(ctx context.Context, s *Session, now time.Time, idle time.Duration) bool
}

// MemoryStore keeps live sessions by ID and evicts those idle longer than
// the configured timeout.
type MemoryStore struct {
	abandoner   Abandoner
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore(abandoner Abandoner, idleTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		abandoner:   abandoner,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*Session),
	}
}

func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
}

func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep abandons and evicts idle sessions, returning how many were evicted.
// Sessions with a submission in flight are left alone, including ones that
// became busy after being picked as candidates.
func (m *MemoryStore) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	var idle []*Session
	for _, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.idleTimeout && !s.busyNow() {
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, s := range idle {
		switch s.State() {
		case StateCreated, StateInProgress:
			if !m.abandoner.AbandonIdle(ctx, s, now, m.idleTimeout) {
				continue
			}
		}
		m.Delete(s.ID())
		evicted++
		slog.Info("idle session evicted", "session_id", s.ID(), "state", s.State())
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.Sweep(ctx, now)
		}
	}
}
