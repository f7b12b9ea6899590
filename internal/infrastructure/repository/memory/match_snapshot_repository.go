package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
)

type MatchSnapshotRepository struct {
	mu            sync.RWMutex
	rowsByMatchID map[string][]snapshot.Snapshot
}

func NewMatchSnapshotRepository() *MatchSnapshotRepository {
	return &MatchSnapshotRepository{rowsByMatchID: make(map[string][]snapshot.Snapshot)}
}

func (r *MatchSnapshotRepository) ListByMatchID(_ context.Context, matchID string) ([]snapshot.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.rowsByMatchID[matchID]
	out := make([]snapshot.Snapshot, 0, len(items))
	out = append(out, items...)
	return out, nil
}

func (r *MatchSnapshotRepository) Insert(_ context.Context, item snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rowsByMatchID[item.MatchID] = append(r.rowsByMatchID[item.MatchID], item)
	return nil
}

func (r *MatchSnapshotRepository) UpdateByMatchID(_ context.Context, item snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.rowsByMatchID[item.MatchID]
	for i := range rows {
		preserved := rows[i].CreateTime
		rows[i] = item
		rows[i].CreateTime = preserved
	}
	return nil
}

func (r *MatchSnapshotRepository) DeleteByMatchID(_ context.Context, matchID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := int64(len(r.rowsByMatchID[matchID]))
	delete(r.rowsByMatchID, matchID)
	return deleted, nil
}

// SeedDuplicate appends a row without any dedup. Exercises the healing path.
func (r *MatchSnapshotRepository) SeedDuplicate(item snapshot.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rowsByMatchID[item.MatchID] = append(r.rowsByMatchID[item.MatchID], item)
}
