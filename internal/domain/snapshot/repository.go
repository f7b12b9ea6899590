package snapshot

import "context"

// Repository stores at most one detail snapshot per match id. The invariant is
// enforced by the reconciler, not the store, so reads return every row.
type Repository interface {
	ListByMatchID(ctx context.Context, matchID string) ([]Snapshot, error)
	Insert(ctx context.Context, snap Snapshot) error
	UpdateByMatchID(ctx context.Context, snap Snapshot) error
	DeleteByMatchID(ctx context.Context, matchID string) (int64, error)
}
