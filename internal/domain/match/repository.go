package match

import "context"

// Repository exposes summary rows keyed by the provider match id. ListByMatchID
// intentionally returns every row for the id so callers can detect and heal
// duplicate conditions.
type Repository interface {
	ListByMatchID(ctx context.Context, matchID string) ([]Summary, error)
	Insert(ctx context.Context, summary Summary) error
	UpdateByMatchID(ctx context.Context, summary Summary) error
	DeleteByMatchID(ctx context.Context, matchID string) (int64, error)
	Stats(ctx context.Context) (Stats, error)
}
