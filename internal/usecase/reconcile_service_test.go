package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/media"
	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/memory"
)

func newReconcileFixture() (*ReconcileService, *memory.MatchSummaryRepository, *memory.MatchSnapshotRepository, *memory.MatchMediaRepository) {
	summaryRepo := memory.NewMatchSummaryRepository()
	detailRepo := memory.NewMatchSnapshotRepository()
	mediaRepo := memory.NewMatchMediaRepository()
	svc := NewReconcileService(summaryRepo, detailRepo, mediaRepo, nil)
	return svc, summaryRepo, detailRepo, mediaRepo
}

func TestReconcileService_InsertWhenAbsent(t *testing.T) {
	svc, summaryRepo, _, _ := newReconcileFixture()
	fixed := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	result, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Summary: &match.Summary{Score: strPtr("0-0")},
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.SummaryWritten || result.Failed() {
		t.Fatalf("unexpected result: %+v", result)
	}

	rows, err := summaryRepo.ListByMatchID(t.Context(), "83412")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if !rows[0].CreateTime.Equal(fixed) || !rows[0].UpdateTime.Equal(fixed) {
		t.Fatalf("unexpected timestamps: %+v", rows[0])
	}
}

func TestReconcileService_UpdatePreservesCreateTime(t *testing.T) {
	svc, summaryRepo, _, _ := newReconcileFixture()
	first := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	second := first.Add(30 * time.Second)

	svc.now = func() time.Time { return first }
	if _, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Summary: &match.Summary{Score: strPtr("0-0")},
	}); err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}

	svc.now = func() time.Time { return second }
	if _, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Summary: &match.Summary{Score: strPtr("1-0")},
	}); err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}

	rows, _ := summaryRepo.ListByMatchID(t.Context(), "83412")
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if *rows[0].Score != "1-0" {
		t.Fatalf("update did not apply: %v", *rows[0].Score)
	}
	if !rows[0].CreateTime.Equal(first) {
		t.Fatalf("create time must survive updates, got %v", rows[0].CreateTime)
	}
	if !rows[0].UpdateTime.Equal(second) {
		t.Fatalf("unexpected update time: %v", rows[0].UpdateTime)
	}
}

func TestReconcileService_HealsDuplicateSummaryRows(t *testing.T) {
	svc, summaryRepo, _, _ := newReconcileFixture()
	summaryRepo.SeedDuplicate(match.Summary{MatchID: "83412", Score: strPtr("0-0")})
	summaryRepo.SeedDuplicate(match.Summary{MatchID: "83412", Score: strPtr("0-1")})
	summaryRepo.SeedDuplicate(match.Summary{MatchID: "83412", Score: strPtr("1-1")})

	result, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Summary: &match.Summary{Score: strPtr("2-1")},
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.HealedRows != 3 {
		t.Fatalf("expected 3 healed rows, got %d", result.HealedRows)
	}

	rows, _ := summaryRepo.ListByMatchID(t.Context(), "83412")
	if len(rows) != 1 {
		t.Fatalf("healing must leave exactly one row, got %d", len(rows))
	}
	if *rows[0].Score != "2-1" {
		t.Fatalf("healed row must carry the latest state: %v", *rows[0].Score)
	}
}

func TestReconcileService_HealsDuplicateSnapshotRows(t *testing.T) {
	svc, _, detailRepo, _ := newReconcileFixture()
	detailRepo.SeedDuplicate(snapshot.Snapshot{MatchID: "83412", Score: strPtr("0-0")})
	detailRepo.SeedDuplicate(snapshot.Snapshot{MatchID: "83412", Score: strPtr("1-0")})

	result, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Detail:  &snapshot.Snapshot{Score: strPtr("2-0")},
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.DetailWritten || result.HealedRows != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	rows, _ := detailRepo.ListByMatchID(t.Context(), "83412")
	if len(rows) != 1 || *rows[0].Score != "2-0" {
		t.Fatalf("unexpected snapshot rows: %+v", rows)
	}
}

func TestReconcileService_MediaReplaceSkipsMalformed(t *testing.T) {
	svc, _, _, mediaRepo := newReconcileFixture()

	result, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Media: []media.Record{
			{Kind: media.KindVideo, Source: "obs", InfoJSON: `{"url":"rtmp://a"}`},
			{Kind: "hologram", Source: "obs", InfoJSON: `{"url":"rtmp://b"}`},
			{Kind: media.KindAnchor, Source: "studio", InfoJSON: "   "},
			{Kind: media.KindAnimation, Source: "system", InfoJSON: `{"gifMid":"g1"}`},
		},
		ReplaceMedia: true,
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.MediaCount != 2 {
		t.Fatalf("expected 2 stored records, got %d", result.MediaCount)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 malformed record errors, got %v", result.Errors)
	}
	for _, recordErr := range result.Errors {
		if !errors.Is(recordErr, ErrMalformedRecord) {
			t.Fatalf("expected ErrMalformedRecord, got %v", recordErr)
		}
	}

	stored, _ := mediaRepo.ListByMatchID(t.Context(), "83412")
	if len(stored) != 2 {
		t.Fatalf("unexpected stored media: %+v", stored)
	}
}

func TestReconcileService_MediaReplaceWithEmptySetClears(t *testing.T) {
	svc, _, _, mediaRepo := newReconcileFixture()

	if _, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID:      "83412",
		Media:        []media.Record{{Kind: media.KindVideo, Source: "obs", InfoJSON: `{"url":"rtmp://a"}`}},
		ReplaceMedia: true,
	}); err != nil {
		t.Fatalf("seed reconcile failed: %v", err)
	}

	result, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID:      "83412",
		ReplaceMedia: true,
	})
	if err != nil {
		t.Fatalf("clearing reconcile failed: %v", err)
	}
	if result.MediaCount != 0 {
		t.Fatalf("expected empty replacement, got %d", result.MediaCount)
	}

	stored, _ := mediaRepo.ListByMatchID(t.Context(), "83412")
	if len(stored) != 0 {
		t.Fatalf("expected media cleared, got %+v", stored)
	}
}

func TestReconcileService_MissingMediaIsNotAReplace(t *testing.T) {
	svc, _, _, mediaRepo := newReconcileFixture()

	if _, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID:      "83412",
		Media:        []media.Record{{Kind: media.KindVideo, Source: "obs", InfoJSON: `{"url":"rtmp://a"}`}},
		ReplaceMedia: true,
	}); err != nil {
		t.Fatalf("seed reconcile failed: %v", err)
	}

	if _, err := svc.Reconcile(t.Context(), ReconcileInput{
		MatchID: "83412",
		Summary: &match.Summary{Score: strPtr("1-0")},
	}); err != nil {
		t.Fatalf("summary-only reconcile failed: %v", err)
	}

	stored, _ := mediaRepo.ListByMatchID(t.Context(), "83412")
	if len(stored) != 1 {
		t.Fatalf("unobserved media must survive, got %+v", stored)
	}
}

func TestReconcileService_RequiresMatchID(t *testing.T) {
	svc, _, _, _ := newReconcileFixture()

	_, err := svc.Reconcile(t.Context(), ReconcileInput{MatchID: "   "})
	if !errors.Is(err, ErrIdentifierMissing) {
		t.Fatalf("expected ErrIdentifierMissing, got %v", err)
	}
}
