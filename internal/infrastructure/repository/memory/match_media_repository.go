package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/match-tracker/internal/domain/media"
)

type MatchMediaRepository struct {
	mu               sync.RWMutex
	recordsByMatchID map[string][]media.Record
}

func NewMatchMediaRepository() *MatchMediaRepository {
	return &MatchMediaRepository{recordsByMatchID: make(map[string][]media.Record)}
}

func (r *MatchMediaRepository) ListByMatchID(_ context.Context, matchID string) ([]media.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.recordsByMatchID[matchID]
	out := make([]media.Record, 0, len(items))
	out = append(out, items...)
	return out, nil
}

func (r *MatchMediaRepository) ReplaceByMatchID(_ context.Context, matchID string, records []media.Record) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(records) == 0 {
		delete(r.recordsByMatchID, matchID)
		return 0, nil
	}
	r.recordsByMatchID[matchID] = append([]media.Record(nil), records...)
	return len(records), nil
}
