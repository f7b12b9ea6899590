package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
)

// MatchSummaryRepository keeps summary rows in memory. Rows live in a slice
// per match id so duplicate rows are representable, which the reconciler
// relies on for its healing path.
type MatchSummaryRepository struct {
	mu            sync.RWMutex
	rowsByMatchID map[string][]match.Summary
}

func NewMatchSummaryRepository() *MatchSummaryRepository {
	return &MatchSummaryRepository{rowsByMatchID: make(map[string][]match.Summary)}
}

func (r *MatchSummaryRepository) ListByMatchID(_ context.Context, matchID string) ([]match.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.rowsByMatchID[matchID]
	out := make([]match.Summary, 0, len(items))
	out = append(out, items...)
	return out, nil
}

func (r *MatchSummaryRepository) Insert(_ context.Context, item match.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rowsByMatchID[item.MatchID] = append(r.rowsByMatchID[item.MatchID], item)
	return nil
}

func (r *MatchSummaryRepository) UpdateByMatchID(_ context.Context, item match.Summary) error {
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

func (r *MatchSummaryRepository) DeleteByMatchID(_ context.Context, matchID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := int64(len(r.rowsByMatchID[matchID]))
	delete(r.rowsByMatchID, matchID)
	return deleted, nil
}

func (r *MatchSummaryRepository) Stats(_ context.Context) (match.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := match.Stats{}
	for _, rows := range r.rowsByMatchID {
		if len(rows) == 0 {
			continue
		}
		out.TotalMatches++
		latest := rows[len(rows)-1]
		if latest.IsLive {
			out.LiveMatches++
		}
		if latest.HasMarket() {
			out.MatchesWithMarket++
		}
	}
	return out, nil
}

// SeedDuplicate appends a row without any dedup. Exercises the healing path.
func (r *MatchSummaryRepository) SeedDuplicate(item match.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rowsByMatchID[item.MatchID] = append(r.rowsByMatchID[item.MatchID], item)
}
