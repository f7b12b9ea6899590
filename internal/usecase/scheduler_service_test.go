package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/memory"
)

type stubProvider struct {
	list        []ListedMatch
	listErr     error
	listCalls   int
	detailCalls map[string]int
	detailFn    func(matchID string, call int) (map[string]any, error)
}

func (p *stubProvider) FetchMatchList(_ context.Context, _ bool) ([]ListedMatch, error) {
	p.listCalls++
	if p.listErr != nil {
		err := p.listErr
		p.listErr = nil
		return nil, err
	}
	return p.list, nil
}

func (p *stubProvider) FetchMatchDetail(_ context.Context, matchID string, _ bool) (map[string]any, error) {
	if p.detailCalls == nil {
		p.detailCalls = make(map[string]int)
	}
	call := p.detailCalls[matchID]
	p.detailCalls[matchID] = call + 1
	if p.detailFn != nil {
		return p.detailFn(matchID, call)
	}
	return detailPayload(matchID, "0-0", false), nil
}

func listedMatch(matchID string) ListedMatch {
	return ListedMatch{
		MatchID: matchID,
		Name:    "match " + matchID,
		Inplay:  true,
		Raw: map[string]any{
			"iid":            matchID,
			"name":           "match " + matchID,
			"tournamentName": "Premier League",
		},
	}
}

func detailPayload(matchID, score string, withMarket bool) map[string]any {
	payload := map[string]any{
		"iid": matchID,
		"detail": map[string]any{
			"score":  score,
			"period": "1h",
			"time":   "10:00",
		},
	}
	if withMarket {
		payload["market"] = map[string]any{"full": float64(1)}
	}
	return payload
}

type schedulerFixture struct {
	svc         *SchedulerService
	provider    *stubProvider
	summaryRepo *memory.MatchSummaryRepository
	sessionRepo *memory.MonitorSessionRepository
	sleeps      []time.Duration
}

func newSchedulerFixture(t *testing.T, provider *stubProvider, cfg SchedulerConfig) *schedulerFixture {
	t.Helper()

	summaryRepo := memory.NewMatchSummaryRepository()
	detailRepo := memory.NewMatchSnapshotRepository()
	mediaRepo := memory.NewMatchMediaRepository()
	sessionRepo := memory.NewMonitorSessionRepository()
	reconciler := NewReconcileService(summaryRepo, detailRepo, mediaRepo, nil)

	fixture := &schedulerFixture{
		provider:    provider,
		summaryRepo: summaryRepo,
		sessionRepo: sessionRepo,
	}
	fixture.svc = NewSchedulerService(provider, reconciler, sessionRepo, summaryRepo, nil, cfg, nil)

	current := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	fixture.svc.now = func() time.Time { return current }
	fixture.svc.sleep = func(ctx context.Context, d time.Duration) error {
		fixture.sleeps = append(fixture.sleeps, d)
		current = current.Add(d)
		return ctx.Err()
	}
	return fixture
}

func TestSchedulerService_RunBatch_SkipsFailedDetail(t *testing.T) {
	provider := &stubProvider{
		list: []ListedMatch{listedMatch("m1"), listedMatch("m2"), listedMatch("m3")},
		detailFn: func(matchID string, _ int) (map[string]any, error) {
			if matchID == "m2" {
				return nil, errors.New("gateway refused request code=1 msg=\"banned\"")
			}
			return detailPayload(matchID, "1-0", false), nil
		},
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{})

	report, err := fixture.svc.RunBatch(t.Context())
	if err != nil {
		t.Fatalf("run batch failed: %v", err)
	}
	if report.TotalMatches != 3 || report.Processed != 3 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.Succeeded != 2 {
		t.Fatalf("expected 2 successes, got %d", report.Succeeded)
	}
	if len(report.Failures) != 1 || report.Failures[0].MatchID != "m2" {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	// The listing view persists even when the detail fetch fails.
	rows, _ := fixture.summaryRepo.ListByMatchID(t.Context(), "m2")
	if len(rows) != 1 {
		t.Fatalf("expected summary row for failed match, got %d", len(rows))
	}
}

func TestSchedulerService_RunBatch_ListFailureAborts(t *testing.T) {
	provider := &stubProvider{listErr: errors.New("connection refused")}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{})

	_, err := fixture.svc.RunBatch(t.Context())
	if err == nil {
		t.Fatal("expected list failure to abort the cycle")
	}
}

func TestSchedulerService_RunBatch_MarketOnlyFilter(t *testing.T) {
	provider := &stubProvider{
		list: []ListedMatch{listedMatch("m1"), listedMatch("m2")},
		detailFn: func(matchID string, _ int) (map[string]any, error) {
			return detailPayload(matchID, "0-0", matchID == "m1"), nil
		},
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{
		MarketOnly: true,
		MaxMatches: 1,
	})

	report, err := fixture.svc.RunBatch(t.Context())
	if err != nil {
		t.Fatalf("run batch failed: %v", err)
	}
	// The cap does not apply in market-only mode: filtering happens after the
	// detail fetch, so every listed match is inspected.
	if report.TotalMatches != 2 {
		t.Fatalf("unexpected total: %d", report.TotalMatches)
	}
	if report.Succeeded != 1 || report.Skipped != 1 || report.WithMarket != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestSchedulerService_RunBatch_CapsTargets(t *testing.T) {
	provider := &stubProvider{
		list: []ListedMatch{listedMatch("m1"), listedMatch("m2"), listedMatch("m3")},
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{MaxMatches: 2})

	report, err := fixture.svc.RunBatch(t.Context())
	if err != nil {
		t.Fatalf("run batch failed: %v", err)
	}
	if report.TotalMatches != 2 || report.Processed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestSchedulerService_RunBatch_PacesBetweenMatches(t *testing.T) {
	provider := &stubProvider{
		list: []ListedMatch{listedMatch("m1"), listedMatch("m2"), listedMatch("m3")},
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{RequestDelay: time.Second})

	if _, err := fixture.svc.RunBatch(t.Context()); err != nil {
		t.Fatalf("run batch failed: %v", err)
	}
	if len(fixture.sleeps) != 2 {
		t.Fatalf("expected a delay between matches only, got %v", fixture.sleeps)
	}
	for _, d := range fixture.sleeps {
		if d != time.Second {
			t.Fatalf("unexpected delay: %v", d)
		}
	}
}

func TestSchedulerService_RunOnce(t *testing.T) {
	provider := &stubProvider{}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{})

	result, err := fixture.svc.RunOnce(t.Context(), " m7 ", true)
	if err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if result.MatchID != "m7" || !result.SummaryWritten || !result.DetailWritten {
		t.Fatalf("unexpected result: %+v", result)
	}

	rows, _ := fixture.summaryRepo.ListByMatchID(t.Context(), "m7")
	if len(rows) != 1 {
		t.Fatalf("expected one summary row, got %d", len(rows))
	}
}

func TestSchedulerService_RunOnce_RequiresMatchID(t *testing.T) {
	fixture := newSchedulerFixture(t, &stubProvider{}, SchedulerConfig{})

	_, err := fixture.svc.RunOnce(t.Context(), "   ", false)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSchedulerService_RunMonitor_SessionsFitTheBudget(t *testing.T) {
	provider := &stubProvider{
		list: []ListedMatch{listedMatch("m1")},
		detailFn: func(matchID string, call int) (map[string]any, error) {
			score := "0-0"
			if call > 0 {
				score = "1-0"
			}
			return detailPayload(matchID, score, false), nil
		},
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{
		MonitorInterval: 30 * time.Second,
		MonitorDuration: time.Minute,
	})

	report, err := fixture.svc.RunMonitor(t.Context())
	if err != nil {
		t.Fatalf("run monitor failed: %v", err)
	}
	if report.TotalSessions != 2 {
		t.Fatalf("budget of two intervals must yield two sessions, got %d", report.TotalSessions)
	}
	// Session one is the baseline; the score moved before session two.
	if report.TotalChanges != 1 {
		t.Fatalf("expected one change, got %d", report.TotalChanges)
	}
	if report.MonitoredMatchesCount != 1 {
		t.Fatalf("unexpected distinct match count: %d", report.MonitoredMatchesCount)
	}

	stored := fixture.sessionRepo.All()
	if len(stored) != 2 {
		t.Fatalf("expected two persisted sessions, got %d", len(stored))
	}
	if stored[1].SessionID != 2 || len(stored[1].Changes) != 1 {
		t.Fatalf("unexpected second session: %+v", stored[1])
	}
	change := stored[1].Changes[0]
	if !change.ScoreChanged || change.MatchID != "m1" {
		t.Fatalf("unexpected change event: %+v", change)
	}
	if change.MatchName != "match m1" {
		t.Fatalf("change must carry the listing name, got %q", change.MatchName)
	}
}

func TestSchedulerService_RunMonitor_FailedSessionIsNotCounted(t *testing.T) {
	provider := &stubProvider{
		list:    []ListedMatch{listedMatch("m1")},
		listErr: errors.New("connection reset"),
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{
		MonitorInterval: 30 * time.Second,
		MonitorDuration: time.Minute,
	})

	report, err := fixture.svc.RunMonitor(t.Context())
	if err != nil {
		t.Fatalf("run monitor failed: %v", err)
	}
	if report.TotalSessions != 1 {
		t.Fatalf("aborted pass must not count as a session, got %d", report.TotalSessions)
	}

	stored := fixture.sessionRepo.All()
	if len(stored) != 1 || stored[0].SessionID != 1 {
		t.Fatalf("session numbering must not skip after an aborted pass: %+v", stored)
	}
}

func TestSchedulerService_RunMonitor_WatchListFilters(t *testing.T) {
	provider := &stubProvider{
		list: []ListedMatch{listedMatch("m1"), listedMatch("m2"), listedMatch("m3")},
	}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{
		MonitorInterval: 30 * time.Second,
		MonitorDuration: 30 * time.Second,
		WatchList:       []string{"m2"},
	})

	report, err := fixture.svc.RunMonitor(t.Context())
	if err != nil {
		t.Fatalf("run monitor failed: %v", err)
	}
	if report.TotalSessions != 1 || report.MonitoredMatchesCount != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	stored := fixture.sessionRepo.All()
	if len(stored) != 1 {
		t.Fatalf("expected one persisted session, got %d", len(stored))
	}
	if len(stored[0].MatchesObserved) != 1 || stored[0].MatchesObserved[0] != "m2" {
		t.Fatalf("watch list must restrict observation: %+v", stored[0].MatchesObserved)
	}
}

func TestSchedulerService_RunMonitor_CancelStopsTheLoop(t *testing.T) {
	provider := &stubProvider{list: []ListedMatch{listedMatch("m1")}}
	fixture := newSchedulerFixture(t, provider, SchedulerConfig{
		MonitorInterval: 30 * time.Second,
		MonitorDuration: time.Hour,
	})

	ctx, cancel := context.WithCancel(t.Context())
	sessions := 0
	inner := fixture.svc.sleep
	fixture.svc.sleep = func(ctx context.Context, d time.Duration) error {
		sessions++
		if sessions >= 3 {
			cancel()
		}
		if err := inner(ctx, d); err != nil {
			return err
		}
		return ctx.Err()
	}

	report, err := fixture.svc.RunMonitor(ctx)
	if err != nil {
		t.Fatalf("run monitor failed: %v", err)
	}
	if report.TotalSessions != 3 {
		t.Fatalf("expected the loop to stop after cancel, got %d sessions", report.TotalSessions)
	}
}

func TestJoinErrors(t *testing.T) {
	joined := joinErrors([]error{
		fmt.Errorf("summary: boom"),
		fmt.Errorf("media: bust"),
	})
	if joined != "summary: boom; media: bust" {
		t.Fatalf("unexpected joined message: %q", joined)
	}
}
