package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/media"
	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// ReconcileInput names the sub-targets of one reconciliation call. Each is
// optional and handled independently; a failure in one never blocks the
// others. ReplaceMedia distinguishes "replace with this (possibly empty) set"
// from "media was not observed this pass".
type ReconcileInput struct {
	MatchID      string
	Summary      *match.Summary
	Detail       *snapshot.Snapshot
	Media        []media.Record
	ReplaceMedia bool
}

type ReconcileResult struct {
	MatchID        string
	SummaryWritten bool
	DetailWritten  bool
	MediaCount     int
	HealedRows     int64
	Errors         []error
}

func (r ReconcileResult) Failed() bool {
	return len(r.Errors) > 0
}

// ReconcileService merges canonical records into the store while restoring
// the at-most-one-row-per-match invariant on every pass.
type ReconcileService struct {
	summaryRepo match.Repository
	detailRepo  snapshot.Repository
	mediaRepo   media.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewReconcileService(
	summaryRepo match.Repository,
	detailRepo snapshot.Repository,
	mediaRepo media.Repository,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{
		summaryRepo: summaryRepo,
		detailRepo:  detailRepo,
		mediaRepo:   mediaRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Reconcile writes the requested sub-targets for one match. A missing match
// identifier is fatal to the whole call; store failures are collected per
// sub-target and surfaced in the result, never thrown past this boundary.
func (s *ReconcileService) Reconcile(ctx context.Context, input ReconcileInput) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Reconcile")
	defer span.End()

	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: reconcile requires a match id", ErrIdentifierMissing)
	}

	result := ReconcileResult{MatchID: matchID}

	if input.Summary != nil {
		if healed, err := s.reconcileSummary(ctx, matchID, *input.Summary); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("summary: %w", err))
		} else {
			result.SummaryWritten = true
			result.HealedRows += healed
		}
	}

	if input.Detail != nil {
		if healed, err := s.reconcileDetail(ctx, matchID, *input.Detail); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("detail: %w", err))
		} else {
			result.DetailWritten = true
			result.HealedRows += healed
		}
	}

	if input.ReplaceMedia {
		count, mediaErrs := s.reconcileMedia(ctx, matchID, input.Media)
		result.MediaCount = count
		result.Errors = append(result.Errors, mediaErrs...)
	}

	for _, err := range result.Errors {
		s.logger.WarnContext(ctx, "reconciliation sub-target failed", "match_id", matchID, "error", err)
	}

	return result, nil
}

// reconcileSummary applies the dedup-upsert: zero rows insert, one row update
// in place, more than one delete-all-and-reinsert. The last branch is the
// self-healing path for duplicates left by earlier races.
func (s *ReconcileService) reconcileSummary(ctx context.Context, matchID string, summary match.Summary) (int64, error) {
	summary.MatchID = matchID
	now := s.now().UTC()
	summary.UpdateTime = now

	existing, err := s.summaryRepo.ListByMatchID(ctx, matchID)
	if err != nil {
		return 0, storeErr("list summaries", err)
	}

	switch {
	case len(existing) == 0:
		summary.CreateTime = now
		if err := s.summaryRepo.Insert(ctx, summary); err != nil {
			return 0, storeErr("insert summary", err)
		}
		return 0, nil
	case len(existing) == 1:
		if err := s.summaryRepo.UpdateByMatchID(ctx, summary); err != nil {
			return 0, storeErr("update summary", err)
		}
		return 0, nil
	default:
		s.logger.WarnContext(ctx, "duplicate summary rows found, healing",
			"match_id", matchID,
			"rows", len(existing),
		)
		deleted, err := s.summaryRepo.DeleteByMatchID(ctx, matchID)
		if err != nil {
			return 0, storeErr("delete duplicate summaries", err)
		}
		summary.CreateTime = now
		if err := s.summaryRepo.Insert(ctx, summary); err != nil {
			return deleted, storeErr("reinsert summary", err)
		}
		return deleted, nil
	}
}

func (s *ReconcileService) reconcileDetail(ctx context.Context, matchID string, snap snapshot.Snapshot) (int64, error) {
	snap.MatchID = matchID
	now := s.now().UTC()
	snap.UpdateTime = now

	existing, err := s.detailRepo.ListByMatchID(ctx, matchID)
	if err != nil {
		return 0, storeErr("list snapshots", err)
	}

	switch {
	case len(existing) == 0:
		snap.CreateTime = now
		if err := s.detailRepo.Insert(ctx, snap); err != nil {
			return 0, storeErr("insert snapshot", err)
		}
		return 0, nil
	case len(existing) == 1:
		if err := s.detailRepo.UpdateByMatchID(ctx, snap); err != nil {
			return 0, storeErr("update snapshot", err)
		}
		return 0, nil
	default:
		s.logger.WarnContext(ctx, "duplicate snapshot rows found, healing",
			"match_id", matchID,
			"rows", len(existing),
		)
		deleted, err := s.detailRepo.DeleteByMatchID(ctx, matchID)
		if err != nil {
			return 0, storeErr("delete duplicate snapshots", err)
		}
		snap.CreateTime = now
		if err := s.detailRepo.Insert(ctx, snap); err != nil {
			return deleted, storeErr("reinsert snapshot", err)
		}
		return deleted, nil
	}
}

// reconcileMedia replaces the full media set. Malformed records are skipped
// individually; they never abort the replacement of the valid ones.
func (s *ReconcileService) reconcileMedia(ctx context.Context, matchID string, records []media.Record) (int, []error) {
	var errs []error
	now := s.now().UTC()

	valid := make([]media.Record, 0, len(records))
	for _, record := range records {
		if !media.IsKnownKind(record.Kind) {
			errs = append(errs, fmt.Errorf("media: %w: unknown kind %q", ErrMalformedRecord, record.Kind))
			continue
		}
		if strings.TrimSpace(record.InfoJSON) == "" {
			errs = append(errs, fmt.Errorf("media: %w: empty info payload kind=%s", ErrMalformedRecord, record.Kind))
			continue
		}
		record.MatchID = matchID
		record.CreateTime = now
		valid = append(valid, record)
	}

	count, err := s.mediaRepo.ReplaceByMatchID(ctx, matchID, valid)
	if err != nil {
		errs = append(errs, fmt.Errorf("media: %w", storeErr("replace media set", err)))
		return 0, errs
	}

	return count, errs
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDependencyUnavailable, op, err)
}
