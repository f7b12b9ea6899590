package session

import "time"

// FieldChange carries the before/after pair for one tracked field. Nil means
// the field was absent on that side of the comparison.
type FieldChange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

// ChangeEvent describes what moved between two successive snapshots of the
// same match. Exactly four fields are tracked: score, clock time, period and
// the aggregate booking indicator. A baseline observation has HasChanges
// false and carries no deltas.
type ChangeEvent struct {
	MatchID       string       `json:"match_id"`
	MatchName     string       `json:"match_name,omitempty"`
	HasChanges    bool         `json:"has_changes"`
	ScoreChanged  bool         `json:"score_changed"`
	TimeChanged   bool         `json:"time_changed"`
	PeriodChanged bool         `json:"period_changed"`
	BookingChange bool         `json:"booking_changed"`
	Score         *FieldChange `json:"score,omitempty"`
	Time          *FieldChange `json:"time,omitempty"`
	Period        *FieldChange `json:"period,omitempty"`
	Booking       *FieldChange `json:"booking,omitempty"`
	ObservedAt    time.Time    `json:"observed_at"`
}

// MonitorSession is one complete pass of the watch loop.
type MonitorSession struct {
	SessionID       int           `json:"session_id"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         time.Time     `json:"ended_at"`
	Duration        time.Duration `json:"duration_ms"`
	MatchesObserved []string      `json:"matches_observed"`
	Changes         []ChangeEvent `json:"changes"`
}

// Report summarizes a full monitor run.
type Report struct {
	StartedAt              time.Time     `json:"started_at"`
	EndedAt                time.Time     `json:"ended_at"`
	TotalSessions          int           `json:"total_sessions"`
	TotalChanges           int           `json:"total_changes"`
	MonitoredMatchesCount  int           `json:"monitored_matches_count"`
	AverageSessionDuration time.Duration `json:"average_session_duration_ms"`
}
