package usecase

import "github.com/riskibarqy/match-tracker/internal/domain/snapshot"

// SnapshotCache holds the last observed snapshot per match for one monitor
// run. It lives for the run only; each RunMonitor call builds a fresh one, so
// diffs never cross worker restarts.
type SnapshotCache struct {
	byMatchID map[string]snapshot.Snapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{byMatchID: make(map[string]snapshot.Snapshot)}
}

func (c *SnapshotCache) Get(matchID string) (*snapshot.Snapshot, bool) {
	item, ok := c.byMatchID[matchID]
	if !ok {
		return nil, false
	}
	return &item, true
}

func (c *SnapshotCache) Put(snap snapshot.Snapshot) {
	c.byMatchID[snap.MatchID] = snap
}

func (c *SnapshotCache) Len() int {
	return len(c.byMatchID)
}
