package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-tracker/internal/domain/session"
	qb "github.com/riskibarqy/match-tracker/internal/platform/querybuilder"
)

type MonitorSessionRepository struct {
	db *sqlx.DB
}

func NewMonitorSessionRepository(db *sqlx.DB) *MonitorSessionRepository {
	return &MonitorSessionRepository{db: db}
}

func (r *MonitorSessionRepository) Insert(ctx context.Context, item session.MonitorSession) error {
	observed, err := sonic.Marshal(item.MatchesObserved)
	if err != nil {
		return fmt.Errorf("encode observed matches session_id=%d: %w", item.SessionID, err)
	}
	changes, err := sonic.Marshal(item.Changes)
	if err != nil {
		return fmt.Errorf("encode session changes session_id=%d: %w", item.SessionID, err)
	}

	insertModel := monitorSessionInsertModel{
		SessionID:       item.SessionID,
		StartedAt:       item.StartedAt,
		EndedAt:         item.EndedAt,
		DurationMS:      item.Duration.Milliseconds(),
		MatchesObserved: string(observed),
		Changes:         string(changes),
	}

	query, args, err := qb.InsertModel("monitor_sessions", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert monitor session query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert monitor session session_id=%d: %w", item.SessionID, err)
	}
	return nil
}

type monitorSessionInsertModel struct {
	SessionID       int       `db:"session_id"`
	StartedAt       time.Time `db:"started_at"`
	EndedAt         time.Time `db:"ended_at"`
	DurationMS      int64     `db:"duration_ms"`
	MatchesObserved string    `db:"matches_observed"`
	Changes         string    `db:"changes"`
}
