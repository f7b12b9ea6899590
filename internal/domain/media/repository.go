package media

import "context"

// Repository replaces the full media set for a match in one operation. The
// postgres implementation wraps delete+insert in a transaction so a crash
// never leaves the match without media it previously had.
type Repository interface {
	ListByMatchID(ctx context.Context, matchID string) ([]Record, error)
	ReplaceByMatchID(ctx context.Context, matchID string, records []Record) (int, error)
}
