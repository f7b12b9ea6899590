package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/match-tracker/internal/domain/session"
)

type MonitorSessionRepository struct {
	mu       sync.RWMutex
	sessions []session.MonitorSession
}

func NewMonitorSessionRepository() *MonitorSessionRepository {
	return &MonitorSessionRepository{}
}

func (r *MonitorSessionRepository) Insert(_ context.Context, item session.MonitorSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = append(r.sessions, item)
	return nil
}

func (r *MonitorSessionRepository) All() []session.MonitorSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.MonitorSession, 0, len(r.sessions))
	out = append(out, r.sessions...)
	return out
}
