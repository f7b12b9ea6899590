package usecase

import (
	"strings"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/session"
	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
)

// Diff compares two successive snapshots of the same match and reports which
// of the four tracked fields moved: score, clock time, period and booking.
// A nil previous snapshot is a baseline, not a change. The comparison is pure
// and deterministic; any other attribute may differ without being reported.
func Diff(prev *snapshot.Snapshot, curr snapshot.Snapshot, observedAt time.Time) session.ChangeEvent {
	event := session.ChangeEvent{
		MatchID:    curr.MatchID,
		ObservedAt: observedAt,
	}
	if prev == nil {
		return event
	}

	if change, moved := compareField(prev.Score, curr.Score); moved {
		event.HasChanges = true
		event.ScoreChanged = true
		event.Score = change
	}
	if change, moved := compareField(prev.ClockTime, curr.ClockTime); moved {
		event.HasChanges = true
		event.TimeChanged = true
		event.Time = change
	}
	if change, moved := compareField(prev.Period, curr.Period); moved {
		event.HasChanges = true
		event.PeriodChanged = true
		event.Period = change
	}
	if change, moved := compareField(prev.Booking, curr.Booking); moved {
		event.HasChanges = true
		event.BookingChange = true
		event.Booking = change
	}

	return event
}

func compareField(from, to *string) (*session.FieldChange, bool) {
	if fieldValuesEqual(from, to) {
		return nil, false
	}
	return &session.FieldChange{From: normalizeFieldValue(from), To: normalizeFieldValue(to)}, true
}

// fieldValuesEqual treats null-vs-null as equal and null-vs-value as a change.
func fieldValuesEqual(a, b *string) bool {
	na, nb := normalizeFieldValue(a), normalizeFieldValue(b)
	if na == nil && nb == nil {
		return true
	}
	if na == nil || nb == nil {
		return false
	}
	return *na == *nb
}

func normalizeFieldValue(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	return &out
}
