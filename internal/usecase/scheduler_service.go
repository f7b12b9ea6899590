package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/session"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// ListedMatch is one entry of a provider match list. Raw keeps the full
// payload so the normalizer can apply its alias resolution to it.
type ListedMatch struct {
	MatchID        string
	Name           string
	TournamentName string
	Inplay         bool
	Raw            map[string]any
}

// MatchProvider is the transport capability the scheduler polls.
type MatchProvider interface {
	FetchMatchList(ctx context.Context, live bool) ([]ListedMatch, error)
	FetchMatchDetail(ctx context.Context, matchID string, inplay bool) (map[string]any, error)
}

// Reconciler merges canonical records into the store.
type Reconciler interface {
	Reconcile(ctx context.Context, input ReconcileInput) (ReconcileResult, error)
}

// ArtifactSink optionally mirrors cycle output to files. A nil sink disables
// the mirror without branching at every call site.
type ArtifactSink interface {
	Write(name string, payload any) error
}

type SchedulerConfig struct {
	// Batch options.
	LiveList     bool
	MaxMatches   int
	MarketOnly   bool
	RequestDelay time.Duration

	// Monitor options.
	MonitorInterval time.Duration
	MonitorDuration time.Duration
	WatchList       []string
}

type MatchFailure struct {
	MatchID string
	Cause   string
}

// BatchReport summarizes one batch cycle. TotalMatches counts every listed
// match the cycle touched, including skips and failures.
type BatchReport struct {
	TotalMatches int
	Processed    int
	Succeeded    int
	Skipped      int
	WithMarket   int
	MediaWritten int
	Failures     []MatchFailure
	StoreStats   *match.Stats
}

// SchedulerService drives the poll, normalize, diff, reconcile pipeline in
// batch and monitor modes. Per-match work is strictly serial with a pacing
// delay between provider calls. The clock and the sleeper are injected so
// cycle timing is testable.
type SchedulerService struct {
	provider    MatchProvider
	reconciler  Reconciler
	sessionRepo session.Repository
	summaryRepo match.Repository
	sink        ArtifactSink
	cfg         SchedulerConfig
	logger      *logging.Logger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewSchedulerService(
	provider MatchProvider,
	reconciler Reconciler,
	sessionRepo session.Repository,
	summaryRepo match.Repository,
	sink ArtifactSink,
	cfg SchedulerConfig,
	logger *logging.Logger,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 30 * time.Second
	}
	if cfg.MonitorDuration <= 0 {
		cfg.MonitorDuration = 2 * time.Hour
	}

	return &SchedulerService{
		provider:    provider,
		reconciler:  reconciler,
		sessionRepo: sessionRepo,
		summaryRepo: summaryRepo,
		sink:        sink,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// RunBatch fetches a match list and runs the per-match pipeline over it once.
// A failed list fetch aborts the cycle; a failed detail fetch skips only that
// match.
func (s *SchedulerService) RunBatch(ctx context.Context) (BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunBatch")
	defer span.End()

	listed, err := s.provider.FetchMatchList(ctx, s.cfg.LiveList)
	if err != nil {
		return BatchReport{}, fmt.Errorf("fetch match list: %w", err)
	}

	targets := listed
	if !s.cfg.MarketOnly && s.cfg.MaxMatches > 0 && len(targets) > s.cfg.MaxMatches {
		targets = targets[:s.cfg.MaxMatches]
	}

	report := BatchReport{TotalMatches: len(targets)}
	s.logger.InfoContext(ctx, "batch cycle started",
		"listed", len(listed),
		"targets", len(targets),
		"live_list", s.cfg.LiveList,
		"market_only", s.cfg.MarketOnly,
	)
	s.sinkWrite("matches_basic", listedForSink(listed))

	for i, item := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		failure := s.processBatchMatch(ctx, item, &report)
		report.Processed++
		if failure != nil {
			report.Failures = append(report.Failures, *failure)
		}

		if i < len(targets)-1 && s.cfg.RequestDelay > 0 {
			if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
				return report, err
			}
		}
	}

	if s.summaryRepo != nil {
		if stats, err := s.summaryRepo.Stats(ctx); err != nil {
			s.logger.WarnContext(ctx, "store stats unavailable", "error", err)
		} else {
			report.StoreStats = &stats
		}
	}

	logArgs := []any{
		"total", report.TotalMatches,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"with_market", report.WithMarket,
	}
	if report.StoreStats != nil {
		logArgs = append(logArgs,
			"store_total_matches", report.StoreStats.TotalMatches,
			"store_live_matches", report.StoreStats.LiveMatches,
			"store_with_market", report.StoreStats.MatchesWithMarket,
		)
	}
	s.logger.InfoContext(ctx, "batch cycle finished", logArgs...)

	return report, nil
}

func (s *SchedulerService) processBatchMatch(ctx context.Context, item ListedMatch, report *BatchReport) *MatchFailure {
	normalized, err := Normalize(item.Raw)
	if err != nil {
		return &MatchFailure{MatchID: item.MatchID, Cause: "normalize list entry: " + err.Error()}
	}

	// Persist the listing view first so the summary survives a detail failure.
	if _, err := s.reconciler.Reconcile(ctx, ReconcileInput{
		MatchID: normalized.MatchID,
		Summary: &normalized.Summary,
	}); err != nil {
		return &MatchFailure{MatchID: normalized.MatchID, Cause: "reconcile summary: " + err.Error()}
	}

	detailPayload, err := s.provider.FetchMatchDetail(ctx, normalized.MatchID, item.Inplay)
	if err != nil {
		s.logger.WarnContext(ctx, "detail fetch failed, skipping match",
			"match_id", normalized.MatchID,
			"error", err,
		)
		return &MatchFailure{MatchID: normalized.MatchID, Cause: "fetch detail: " + err.Error()}
	}

	detail, err := Normalize(detailPayload)
	if err != nil {
		return &MatchFailure{MatchID: normalized.MatchID, Cause: "normalize detail: " + err.Error()}
	}

	if s.cfg.MarketOnly && !detail.Summary.HasMarket() {
		report.Skipped++
		return nil
	}
	if detail.Summary.HasMarket() {
		report.WithMarket++
	}

	input := ReconcileInput{
		MatchID:      detail.MatchID,
		Summary:      &detail.Summary,
		Media:        detail.Media,
		ReplaceMedia: true,
	}
	if detail.HasDetail {
		input.Detail = &detail.Detail
	}

	result, err := s.reconciler.Reconcile(ctx, input)
	if err != nil {
		return &MatchFailure{MatchID: detail.MatchID, Cause: "reconcile: " + err.Error()}
	}
	report.MediaWritten += result.MediaCount
	if result.Failed() {
		return &MatchFailure{MatchID: detail.MatchID, Cause: joinErrors(result.Errors)}
	}

	report.Succeeded++
	s.sinkWrite("match_"+detail.MatchID+"_detail", detailPayload)
	return nil
}

// RunOnce fetches and reconciles a single match detail.
func (s *SchedulerService) RunOnce(ctx context.Context, matchID string, inplay bool) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunOnce")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	payload, err := s.provider.FetchMatchDetail(ctx, matchID, inplay)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("fetch detail match_id=%s: %w", matchID, err)
	}

	normalized, err := Normalize(payload)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("normalize match_id=%s: %w", matchID, err)
	}

	input := ReconcileInput{
		MatchID:      normalized.MatchID,
		Summary:      &normalized.Summary,
		Media:        normalized.Media,
		ReplaceMedia: true,
	}
	if normalized.HasDetail {
		input.Detail = &normalized.Detail
	}

	result, err := s.reconciler.Reconcile(ctx, input)
	if err != nil {
		return ReconcileResult{}, err
	}

	s.sinkWrite("match_"+normalized.MatchID+"_detail", payload)
	return result, nil
}

// RunMonitor repeats watch passes until the duration budget elapses or the
// context is canceled. The budget is cooperative: it is checked once per
// outer iteration, so an in-flight pass always completes.
func (s *SchedulerService) RunMonitor(ctx context.Context) (session.Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunMonitor")
	defer span.End()

	start := s.now()
	cache := NewSnapshotCache()
	observed := make(map[string]struct{})

	report := session.Report{StartedAt: start.UTC()}
	var totalSessionTime time.Duration
	sessionID := 0

	s.logger.InfoContext(ctx, "monitor run started",
		"interval", s.cfg.MonitorInterval,
		"duration", s.cfg.MonitorDuration,
		"watch_list", len(s.cfg.WatchList),
	)

	for s.now().Sub(start) < s.cfg.MonitorDuration {
		if err := ctx.Err(); err != nil {
			break
		}

		sessionID++
		pass, err := s.runMonitorSession(ctx, sessionID, cache, observed)
		if err != nil {
			s.logger.WarnContext(ctx, "monitor session aborted",
				"session_id", sessionID,
				"error", err,
			)
			sessionID--
		} else {
			report.TotalSessions++
			report.TotalChanges += len(pass.Changes)
			totalSessionTime += pass.Duration

			if s.sessionRepo != nil {
				if err := s.sessionRepo.Insert(ctx, pass); err != nil {
					s.logger.WarnContext(ctx, "persist monitor session failed",
						"session_id", pass.SessionID,
						"error", err,
					)
				}
			}
			s.sinkWrite(fmt.Sprintf("monitor_session_%d", pass.SessionID), pass)
		}

		if err := s.sleep(ctx, s.cfg.MonitorInterval); err != nil {
			break
		}
	}

	report.EndedAt = s.now().UTC()
	report.MonitoredMatchesCount = len(observed)
	if report.TotalSessions > 0 {
		report.AverageSessionDuration = totalSessionTime / time.Duration(report.TotalSessions)
	}

	s.sinkWrite("monitor_report", report)
	s.logger.InfoContext(ctx, "monitor run finished",
		"total_sessions", report.TotalSessions,
		"total_changes", report.TotalChanges,
		"monitored_matches", report.MonitoredMatchesCount,
		"average_session_duration", report.AverageSessionDuration,
	)

	return report, nil
}

func (s *SchedulerService) runMonitorSession(
	ctx context.Context,
	sessionID int,
	cache *SnapshotCache,
	observed map[string]struct{},
) (session.MonitorSession, error) {
	startedAt := s.now()

	listed, err := s.provider.FetchMatchList(ctx, true)
	if err != nil {
		return session.MonitorSession{}, fmt.Errorf("fetch live list: %w", err)
	}

	targets := filterWatchList(listed, s.cfg.WatchList)
	pass := session.MonitorSession{
		SessionID:       sessionID,
		StartedAt:       startedAt.UTC(),
		MatchesObserved: make([]string, 0, len(targets)),
	}

	for i, item := range targets {
		if err := ctx.Err(); err != nil {
			break
		}

		event, ok := s.monitorMatch(ctx, item, cache)
		if ok {
			pass.MatchesObserved = append(pass.MatchesObserved, item.MatchID)
			observed[item.MatchID] = struct{}{}
			if event.HasChanges {
				event.MatchName = item.Name
				pass.Changes = append(pass.Changes, event)
			}
		}

		if i < len(targets)-1 && s.cfg.RequestDelay > 0 {
			if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
				break
			}
		}
	}

	pass.EndedAt = s.now().UTC()
	pass.Duration = pass.EndedAt.Sub(pass.StartedAt)

	s.logger.InfoContext(ctx, "monitor session complete",
		"session_id", sessionID,
		"observed", len(pass.MatchesObserved),
		"changes", len(pass.Changes),
		"duration", pass.Duration,
	)

	return pass, nil
}

func (s *SchedulerService) monitorMatch(ctx context.Context, item ListedMatch, cache *SnapshotCache) (session.ChangeEvent, bool) {
	payload, err := s.provider.FetchMatchDetail(ctx, item.MatchID, true)
	if err != nil {
		s.logger.WarnContext(ctx, "monitor detail fetch failed, skipping match",
			"match_id", item.MatchID,
			"error", err,
		)
		return session.ChangeEvent{}, false
	}

	normalized, err := Normalize(payload)
	if err != nil {
		s.logger.WarnContext(ctx, "monitor normalize failed, skipping match",
			"match_id", item.MatchID,
			"error", err,
		)
		return session.ChangeEvent{}, false
	}

	prev, _ := cache.Get(normalized.MatchID)
	event := Diff(prev, normalized.Detail, s.now().UTC())

	input := ReconcileInput{
		MatchID:      normalized.MatchID,
		Summary:      &normalized.Summary,
		Media:        normalized.Media,
		ReplaceMedia: true,
	}
	if normalized.HasDetail {
		input.Detail = &normalized.Detail
	}
	if _, err := s.reconciler.Reconcile(ctx, input); err != nil {
		s.logger.WarnContext(ctx, "monitor reconcile failed",
			"match_id", normalized.MatchID,
			"error", err,
		)
	}

	cache.Put(normalized.Detail)
	return event, true
}

func (s *SchedulerService) sinkWrite(name string, payload any) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Write(name, payload); err != nil {
		s.logger.Warn("artifact sink write failed", "name", name, "error", err)
	}
}

func filterWatchList(listed []ListedMatch, watchList []string) []ListedMatch {
	if len(watchList) == 0 {
		return listed
	}
	allowed := make(map[string]struct{}, len(watchList))
	for _, id := range watchList {
		id = strings.TrimSpace(id)
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	out := make([]ListedMatch, 0, len(listed))
	for _, item := range listed {
		if _, ok := allowed[item.MatchID]; ok {
			out = append(out, item)
		}
	}
	return out
}

func listedForSink(listed []ListedMatch) []map[string]any {
	out := make([]map[string]any, 0, len(listed))
	for _, item := range listed {
		out = append(out, item.Raw)
	}
	return out
}

func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
