package session

import "context"

// Repository persists completed monitor sessions. Persisting is optional;
// a nil repository in the scheduler means sessions are discarded.
type Repository interface {
	Insert(ctx context.Context, item MonitorSession) error
}
