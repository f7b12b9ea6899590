package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-tracker/internal/domain/media"
	qb "github.com/riskibarqy/match-tracker/internal/platform/querybuilder"
)

type MatchMediaRepository struct {
	db *sqlx.DB
}

func NewMatchMediaRepository(db *sqlx.DB) *MatchMediaRepository {
	return &MatchMediaRepository{db: db}
}

func (r *MatchMediaRepository) ListByMatchID(ctx context.Context, matchID string) ([]media.Record, error) {
	query, args, err := qb.Select("*").From("match_media").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match media query: %w", err)
	}

	var rows []matchMediaTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match media match_id=%s: %w", matchID, err)
	}

	out := make([]media.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, media.Record{
			MatchID:    row.MatchID,
			Source:     row.Source,
			Kind:       row.Kind,
			InfoJSON:   row.Info,
			CreateTime: row.CreateTime,
		})
	}
	return out, nil
}

// ReplaceByMatchID swaps the whole media set for one match inside a single
// transaction, so readers never observe a partially replaced set.
func (r *MatchMediaRepository) ReplaceByMatchID(ctx context.Context, matchID string, records []media.Record) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx replace match media: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("match_media").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete match media query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return 0, fmt.Errorf("delete match media match_id=%s: %w", matchID, err)
	}

	for _, record := range records {
		insertModel := matchMediaInsertModel{
			MatchID:    matchID,
			Source:     record.Source,
			Kind:       record.Kind,
			Info:       record.InfoJSON,
			CreateTime: record.CreateTime,
		}
		query, args, err := qb.InsertModel("match_media", insertModel, "")
		if err != nil {
			return 0, fmt.Errorf("build insert match media query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert match media match_id=%s kind=%s: %w", matchID, record.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace match media tx: %w", err)
	}

	return len(records), nil
}

type matchMediaTableModel struct {
	ID         int64     `db:"id"`
	MatchID    string    `db:"match_id"`
	Source     string    `db:"source"`
	Kind       string    `db:"kind"`
	Info       string    `db:"info"`
	CreateTime time.Time `db:"create_time"`
}

type matchMediaInsertModel struct {
	MatchID    string    `db:"match_id"`
	Source     string    `db:"source"`
	Kind       string    `db:"kind"`
	Info       string    `db:"info"`
	CreateTime time.Time `db:"create_time"`
}
