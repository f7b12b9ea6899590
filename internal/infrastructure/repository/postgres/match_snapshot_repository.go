package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
	qb "github.com/riskibarqy/match-tracker/internal/platform/querybuilder"
)

type MatchSnapshotRepository struct {
	db *sqlx.DB
}

func NewMatchSnapshotRepository(db *sqlx.DB) *MatchSnapshotRepository {
	return &MatchSnapshotRepository{db: db}
}

func (r *MatchSnapshotRepository) ListByMatchID(ctx context.Context, matchID string) ([]snapshot.Snapshot, error) {
	query, args, err := qb.Select("*").From("match_detail_snapshots").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match snapshots query: %w", err)
	}

	var rows []matchSnapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match snapshots match_id=%s: %w", matchID, err)
	}

	out := make([]snapshot.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchSnapshotRepository) Insert(ctx context.Context, item snapshot.Snapshot) error {
	query, args, err := qb.InsertModel("match_detail_snapshots", snapshotToInsertModel(item), "")
	if err != nil {
		return fmt.Errorf("build insert match snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match snapshot match_id=%s: %w", item.MatchID, err)
	}
	return nil
}

func (r *MatchSnapshotRepository) UpdateByMatchID(ctx context.Context, item snapshot.Snapshot) error {
	query, args, err := qb.Update("match_detail_snapshots").
		Set("score", item.Score).
		Set("period", item.Period).
		Set("clock_time", item.ClockTime).
		Set("ht_score", item.HalftimeScore).
		Set("corner_count", item.CornerCount).
		Set("red_cards", item.RedCards).
		Set("yellow_cards", item.YellowCards).
		Set("booking", item.Booking).
		Set("server_ts", item.ServerTS).
		Set("clock_stopped", item.ClockStopped).
		Set("stoppage_time", item.StoppageTime).
		Set("update_time", item.UpdateTime).
		Where(qb.Eq("match_id", item.MatchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match snapshot match_id=%s: %w", item.MatchID, err)
	}
	return nil
}

func (r *MatchSnapshotRepository) DeleteByMatchID(ctx context.Context, matchID string) (int64, error) {
	query, args, err := qb.DeleteFrom("match_detail_snapshots").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete match snapshots query: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete match snapshots match_id=%s: %w", matchID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted match snapshots: %w", err)
	}
	return deleted, nil
}
