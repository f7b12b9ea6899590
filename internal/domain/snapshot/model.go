package snapshot

import "time"

// Snapshot is the latest known detail state for one match. Every provider
// field is nullable; nil means "provider omitted", which is distinct from an
// empty or zero value.
type Snapshot struct {
	MatchID       string
	Score         *string
	Period        *string
	ClockTime     *string
	HalftimeScore *string
	CornerCount   *string
	RedCards      *string
	YellowCards   *string
	Booking       *string
	ServerTS      *int64
	ClockStopped  bool
	StoppageTime  *string
	CreateTime    time.Time
	UpdateTime    time.Time
}
