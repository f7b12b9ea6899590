package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
)

func strPtr(v string) *string {
	return &v
}

func TestDiff_NilPreviousIsBaseline(t *testing.T) {
	curr := snapshot.Snapshot{MatchID: "83412", Score: strPtr("1-0")}

	event := Diff(nil, curr, time.Now())
	if event.HasChanges {
		t.Fatal("first observation must not report changes")
	}
	if event.MatchID != "83412" {
		t.Fatalf("unexpected match id: %s", event.MatchID)
	}
}

func TestDiff_NoMovement(t *testing.T) {
	prev := snapshot.Snapshot{
		MatchID:   "83412",
		Score:     strPtr("1-0"),
		ClockTime: strPtr("45:00"),
		Period:    strPtr("1h"),
		Booking:   strPtr("1-0"),
	}
	curr := prev
	curr.CornerCount = strPtr("9-3")

	event := Diff(&prev, curr, time.Now())
	if event.HasChanges {
		t.Fatalf("untracked fields must not trigger changes: %+v", event)
	}
}

func TestDiff_ScoreAndPeriodChange(t *testing.T) {
	prev := snapshot.Snapshot{
		MatchID: "83412",
		Score:   strPtr("1-0"),
		Period:  strPtr("1h"),
	}
	curr := snapshot.Snapshot{
		MatchID: "83412",
		Score:   strPtr("2-0"),
		Period:  strPtr("2h"),
	}

	observedAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	event := Diff(&prev, curr, observedAt)
	if !event.HasChanges {
		t.Fatal("expected changes")
	}
	if !event.ScoreChanged || event.Score == nil {
		t.Fatal("expected score change")
	}
	if *event.Score.From != "1-0" || *event.Score.To != "2-0" {
		t.Fatalf("unexpected score delta: %+v", event.Score)
	}
	if !event.PeriodChanged || event.Period == nil {
		t.Fatal("expected period change")
	}
	if event.TimeChanged || event.BookingChange {
		t.Fatalf("unexpected extra changes: %+v", event)
	}
	if !event.ObservedAt.Equal(observedAt) {
		t.Fatalf("unexpected observation time: %v", event.ObservedAt)
	}
}

func TestDiff_NullVersusNullIsEqual(t *testing.T) {
	prev := snapshot.Snapshot{MatchID: "83412"}
	curr := snapshot.Snapshot{MatchID: "83412"}

	event := Diff(&prev, curr, time.Now())
	if event.HasChanges {
		t.Fatalf("nil against nil must be equal: %+v", event)
	}
}

func TestDiff_NullVersusValueIsChange(t *testing.T) {
	prev := snapshot.Snapshot{MatchID: "83412"}
	curr := snapshot.Snapshot{MatchID: "83412", Booking: strPtr("1-0")}

	event := Diff(&prev, curr, time.Now())
	if !event.HasChanges || !event.BookingChange {
		t.Fatalf("nil to value must be a change: %+v", event)
	}
	if event.Booking.From != nil {
		t.Fatalf("expected nil from side, got %q", *event.Booking.From)
	}
	if event.Booking.To == nil || *event.Booking.To != "1-0" {
		t.Fatalf("unexpected to side: %v", event.Booking.To)
	}
}

func TestDiff_WhitespaceIsNotMovement(t *testing.T) {
	prev := snapshot.Snapshot{MatchID: "83412", ClockTime: strPtr(" 45:00 ")}
	curr := snapshot.Snapshot{MatchID: "83412", ClockTime: strPtr("45:00")}

	event := Diff(&prev, curr, time.Now())
	if event.HasChanges {
		t.Fatalf("padded values must compare equal: %+v", event)
	}
}
