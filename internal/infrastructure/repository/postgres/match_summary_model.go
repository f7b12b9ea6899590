package postgres

import (
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
)

type matchSummaryTableModel struct {
	ID               int64      `db:"id"`
	MatchID          string     `db:"match_id"`
	SourceID         *int64     `db:"source_id"`
	CompetitionID    *int64     `db:"competition_id"`
	TournamentID     *int64     `db:"tournament_id"`
	TournamentName   *string    `db:"tournament_name"`
	Name             *string    `db:"name"`
	HomeName         *string    `db:"home_name"`
	AwayName         *string    `db:"away_name"`
	KickoffTime      *string    `db:"kickoff_time"`
	CountdownSeconds *int64     `db:"countdown_seconds"`
	IsLive           bool       `db:"is_live"`
	Score            *string    `db:"score"`
	Period           *string    `db:"period"`
	MatchTime        *string    `db:"match_time"`
	Market           *string    `db:"market"`
	CreateTime       time.Time  `db:"create_time"`
	UpdateTime       time.Time  `db:"update_time"`
}

type matchSummaryInsertModel struct {
	MatchID          string    `db:"match_id"`
	SourceID         *int64    `db:"source_id"`
	CompetitionID    *int64    `db:"competition_id"`
	TournamentID     *int64    `db:"tournament_id"`
	TournamentName   *string   `db:"tournament_name"`
	Name             *string   `db:"name"`
	HomeName         *string   `db:"home_name"`
	AwayName         *string   `db:"away_name"`
	KickoffTime      *string   `db:"kickoff_time"`
	CountdownSeconds *int64    `db:"countdown_seconds"`
	IsLive           bool      `db:"is_live"`
	Score            *string   `db:"score"`
	Period           *string   `db:"period"`
	MatchTime        *string   `db:"match_time"`
	Market           *string   `db:"market"`
	CreateTime       time.Time `db:"create_time"`
	UpdateTime       time.Time `db:"update_time"`
}

func (m matchSummaryTableModel) toDomain() match.Summary {
	return match.Summary{
		MatchID:          m.MatchID,
		SourceID:         m.SourceID,
		CompetitionID:    m.CompetitionID,
		TournamentID:     m.TournamentID,
		TournamentName:   m.TournamentName,
		Name:             m.Name,
		HomeName:         m.HomeName,
		AwayName:         m.AwayName,
		KickoffTime:      m.KickoffTime,
		CountdownSeconds: m.CountdownSeconds,
		IsLive:           m.IsLive,
		Score:            m.Score,
		Period:           m.Period,
		MatchTime:        m.MatchTime,
		MarketJSON:       m.Market,
		CreateTime:       m.CreateTime,
		UpdateTime:       m.UpdateTime,
	}
}

func summaryToInsertModel(item match.Summary) matchSummaryInsertModel {
	return matchSummaryInsertModel{
		MatchID:          item.MatchID,
		SourceID:         item.SourceID,
		CompetitionID:    item.CompetitionID,
		TournamentID:     item.TournamentID,
		TournamentName:   item.TournamentName,
		Name:             item.Name,
		HomeName:         item.HomeName,
		AwayName:         item.AwayName,
		KickoffTime:      item.KickoffTime,
		CountdownSeconds: item.CountdownSeconds,
		IsLive:           item.IsLive,
		Score:            item.Score,
		Period:           item.Period,
		MatchTime:        item.MatchTime,
		Market:           item.MarketJSON,
		CreateTime:       item.CreateTime,
		UpdateTime:       item.UpdateTime,
	}
}
