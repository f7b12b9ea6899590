package postgres

import (
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
)

type matchSnapshotTableModel struct {
	ID            int64     `db:"id"`
	MatchID       string    `db:"match_id"`
	Score         *string   `db:"score"`
	Period        *string   `db:"period"`
	ClockTime     *string   `db:"clock_time"`
	HalftimeScore *string   `db:"ht_score"`
	CornerCount   *string   `db:"corner_count"`
	RedCards      *string   `db:"red_cards"`
	YellowCards   *string   `db:"yellow_cards"`
	Booking       *string   `db:"booking"`
	ServerTS      *int64    `db:"server_ts"`
	ClockStopped  bool      `db:"clock_stopped"`
	StoppageTime  *string   `db:"stoppage_time"`
	CreateTime    time.Time `db:"create_time"`
	UpdateTime    time.Time `db:"update_time"`
}

type matchSnapshotInsertModel struct {
	MatchID       string    `db:"match_id"`
	Score         *string   `db:"score"`
	Period        *string   `db:"period"`
	ClockTime     *string   `db:"clock_time"`
	HalftimeScore *string   `db:"ht_score"`
	CornerCount   *string   `db:"corner_count"`
	RedCards      *string   `db:"red_cards"`
	YellowCards   *string   `db:"yellow_cards"`
	Booking       *string   `db:"booking"`
	ServerTS      *int64    `db:"server_ts"`
	ClockStopped  bool      `db:"clock_stopped"`
	StoppageTime  *string   `db:"stoppage_time"`
	CreateTime    time.Time `db:"create_time"`
	UpdateTime    time.Time `db:"update_time"`
}

func (m matchSnapshotTableModel) toDomain() snapshot.Snapshot {
	return snapshot.Snapshot{
		MatchID:       m.MatchID,
		Score:         m.Score,
		Period:        m.Period,
		ClockTime:     m.ClockTime,
		HalftimeScore: m.HalftimeScore,
		CornerCount:   m.CornerCount,
		RedCards:      m.RedCards,
		YellowCards:   m.YellowCards,
		Booking:       m.Booking,
		ServerTS:      m.ServerTS,
		ClockStopped:  m.ClockStopped,
		StoppageTime:  m.StoppageTime,
		CreateTime:    m.CreateTime,
		UpdateTime:    m.UpdateTime,
	}
}

func snapshotToInsertModel(item snapshot.Snapshot) matchSnapshotInsertModel {
	return matchSnapshotInsertModel{
		MatchID:       item.MatchID,
		Score:         item.Score,
		Period:        item.Period,
		ClockTime:     item.ClockTime,
		HalftimeScore: item.HalftimeScore,
		CornerCount:   item.CornerCount,
		RedCards:      item.RedCards,
		YellowCards:   item.YellowCards,
		Booking:       item.Booking,
		ServerTS:      item.ServerTS,
		ClockStopped:  item.ClockStopped,
		StoppageTime:  item.StoppageTime,
		CreateTime:    item.CreateTime,
		UpdateTime:    item.UpdateTime,
	}
}
