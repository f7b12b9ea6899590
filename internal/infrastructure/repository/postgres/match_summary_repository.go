package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	qb "github.com/riskibarqy/match-tracker/internal/platform/querybuilder"
)

type MatchSummaryRepository struct {
	db *sqlx.DB
}

func NewMatchSummaryRepository(db *sqlx.DB) *MatchSummaryRepository {
	return &MatchSummaryRepository{db: db}
}

// ListByMatchID returns every row holding the identifier. Duplicates are
// possible and the caller is expected to heal them.
func (r *MatchSummaryRepository) ListByMatchID(ctx context.Context, matchID string) ([]match.Summary, error) {
	query, args, err := qb.Select("*").From("match_summaries").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match summaries query: %w", err)
	}

	var rows []matchSummaryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match summaries match_id=%s: %w", matchID, err)
	}

	out := make([]match.Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchSummaryRepository) Insert(ctx context.Context, item match.Summary) error {
	query, args, err := qb.InsertModel("match_summaries", summaryToInsertModel(item), "")
	if err != nil {
		return fmt.Errorf("build insert match summary query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match summary match_id=%s: %w", item.MatchID, err)
	}
	return nil
}

func (r *MatchSummaryRepository) UpdateByMatchID(ctx context.Context, item match.Summary) error {
	query, args, err := qb.Update("match_summaries").
		Set("source_id", item.SourceID).
		Set("competition_id", item.CompetitionID).
		Set("tournament_id", item.TournamentID).
		Set("tournament_name", item.TournamentName).
		Set("name", item.Name).
		Set("home_name", item.HomeName).
		Set("away_name", item.AwayName).
		Set("kickoff_time", item.KickoffTime).
		Set("countdown_seconds", item.CountdownSeconds).
		Set("is_live", item.IsLive).
		Set("score", item.Score).
		Set("period", item.Period).
		Set("match_time", item.MatchTime).
		Set("market", item.MarketJSON).
		Set("update_time", item.UpdateTime).
		Where(qb.Eq("match_id", item.MatchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match summary query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match summary match_id=%s: %w", item.MatchID, err)
	}
	return nil
}

func (r *MatchSummaryRepository) DeleteByMatchID(ctx context.Context, matchID string) (int64, error) {
	query, args, err := qb.DeleteFrom("match_summaries").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete match summaries query: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete match summaries match_id=%s: %w", matchID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted match summaries: %w", err)
	}
	return deleted, nil
}

func (r *MatchSummaryRepository) Stats(ctx context.Context) (match.Stats, error) {
	const query = `SELECT
    COUNT(DISTINCT match_id) AS total_matches,
    COUNT(DISTINCT match_id) FILTER (WHERE is_live) AS live_matches,
    COUNT(DISTINCT match_id) FILTER (WHERE market IS NOT NULL) AS matches_with_market
FROM match_summaries`

	var row struct {
		TotalMatches      int `db:"total_matches"`
		LiveMatches       int `db:"live_matches"`
		MatchesWithMarket int `db:"matches_with_market"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if isNotFound(err) {
			return match.Stats{}, nil
		}
		return match.Stats{}, fmt.Errorf("select match summary stats: %w", err)
	}

	return match.Stats{
		TotalMatches:      row.TotalMatches,
		LiveMatches:       row.LiveMatches,
		MatchesWithMarket: row.MatchesWithMarket,
	}, nil
}
