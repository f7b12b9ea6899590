package match

import "time"

// Summary is the listing-level view of one tracked match. Pointer fields are
// nil when the provider omitted them; a missing value is never defaulted.
type Summary struct {
	MatchID          string
	SourceID         *int64
	CompetitionID    *int64
	TournamentID     *int64
	TournamentName   *string
	Name             *string
	HomeName         *string
	AwayName         *string
	KickoffTime      *string
	CountdownSeconds *int64
	IsLive           bool
	Score            *string
	Period           *string
	MatchTime        *string
	MarketJSON       *string
	CreateTime       time.Time
	UpdateTime       time.Time
}

// HasMarket reports whether the provider attached any market block.
func (s Summary) HasMarket() bool {
	return s.MarketJSON != nil && *s.MarketJSON != "" && *s.MarketJSON != "{}"
}

// Stats aggregates store-level counts for the closing batch log line.
type Stats struct {
	TotalMatches      int
	LiveMatches       int
	MatchesWithMarket int
}
