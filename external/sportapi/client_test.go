package sportapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/match-tracker/internal/platform/resilience"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg ClientConfig) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = server.Client()
	}
	return NewClient(cfg), server
}

func TestClient_FetchMatchList_FlattensTournaments(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"code": 0,
			"msg": "ok",
			"data": {
				"tournaments": [
					{
						"name": "Premier League",
						"matches": [
							{"iid": "83412", "name": "Arsenal vs Chelsea"},
							{"iid": 90021, "name": "Spurs vs Everton", "tournamentName": "Cup"},
							{"name": "missing id"}
						]
					}
				]
			}
		}`))
	}, ClientConfig{})

	listed, err := client.FetchMatchList(t.Context(), false)
	if err != nil {
		t.Fatalf("fetch match list failed: %v", err)
	}

	if gotPath != pathTournamentInfo {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	for _, part := range []string{"sid=1", "language=zh-cn", "inplay=false", "date=24h"} {
		if !strings.Contains(gotQuery, part) {
			t.Fatalf("query missing %q: %s", part, gotQuery)
		}
	}

	if len(listed) != 2 {
		t.Fatalf("expected entries without an id to be dropped, got %d", len(listed))
	}
	if listed[0].MatchID != "83412" || listed[0].TournamentName != "Premier League" {
		t.Fatalf("unexpected first entry: %+v", listed[0])
	}
	if listed[0].Raw["tournamentName"] != "Premier League" {
		t.Fatalf("tournament name must be copied onto the raw match: %v", listed[0].Raw)
	}
	// An explicit tournamentName on the match wins over the grouping.
	if listed[1].MatchID != "90021" || listed[1].Raw["tournamentName"] != "Cup" {
		t.Fatalf("unexpected second entry: %+v", listed[1])
	}
}

func TestClient_FetchMatchList_LiveOmitsDateWindow(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","data":{"tournaments":[]}}`))
	}, ClientConfig{})

	if _, err := client.FetchMatchList(t.Context(), true); err != nil {
		t.Fatalf("fetch match list failed: %v", err)
	}
	if !strings.Contains(gotQuery, "inplay=true") {
		t.Fatalf("expected inplay flag: %s", gotQuery)
	}
	if strings.Contains(gotQuery, "date=") {
		t.Fatalf("live listing must not carry a date window: %s", gotQuery)
	}
}

func TestClient_FetchMatchDetail_PathSelection(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","data":{"score":"1-0"}}`))
	}, ClientConfig{})

	detail, err := client.FetchMatchDetail(t.Context(), "83412", true)
	if err != nil {
		t.Fatalf("fetch inplay detail failed: %v", err)
	}
	if detail["iid"] != "83412" {
		t.Fatalf("match id must be injected when absent: %v", detail)
	}

	if _, err := client.FetchMatchDetail(t.Context(), "90021", false); err != nil {
		t.Fatalf("fetch prematch detail failed: %v", err)
	}

	if len(paths) != 2 || paths[0] != pathInplayMatch || paths[1] != pathPrematchMatch {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestClient_FetchMatchDetail_RequiresMatchID(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://localhost:1"})
	if _, err := client.FetchMatchDetail(t.Context(), "   ", false); err == nil {
		t.Fatal("expected empty match id to be rejected")
	}
}

func TestClient_DisguiseHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","data":null}`))
	}, ClientConfig{MainSite: "https://www.example-site.com"})

	if _, err := client.FetchMatchDetail(t.Context(), "83412", false); err != nil {
		t.Fatalf("fetch detail failed: %v", err)
	}

	expected := map[string]string{
		"Apptype":    "2",
		"Browser":    "Safari 16.6",
		"Currency":   "CNY",
		"Device":     "mobile",
		"Devicemode": "iPhone",
		"Os":         "iOS",
		"Screen":     "430x932",
		"Time-Zone":  "GMT+08:00",
		"Origin":     "https://www.example-site.com",
		"Referer":    "https://www.example-site.com/",
	}
	for key, want := range expected {
		if have := got.Get(key); have != want {
			t.Fatalf("header %s: want %q, got %q", key, want, have)
		}
	}
}

func TestClient_GatewayRefusalIsNotRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"code":1,"msg":"ip banned","data":null}`))
	}, ClientConfig{MaxRetries: 3})

	_, err := client.FetchMatchDetail(t.Context(), "83412", true)
	if err == nil || !strings.Contains(err.Error(), "gateway refused request code=1") {
		t.Fatalf("expected refusal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("refusals must not be retried, got %d calls", calls)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","data":{"score":"0-0"}}`))
	}, ClientConfig{MaxRetries: 1})

	detail, err := client.FetchMatchDetail(t.Context(), "83412", true)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
	if detail["score"] != "0-0" {
		t.Fatalf("unexpected payload: %v", detail)
	}
}

func TestClient_NonRetryableStatusFailsFast(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("blocked"))
	}, ClientConfig{MaxRetries: 3})

	_, err := client.FetchMatchDetail(t.Context(), "83412", true)
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("4xx must fail fast, got %d calls", calls)
	}
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}, ClientConfig{
		MaxRetries: 0,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
		},
	})

	if _, err := client.FetchMatchDetail(t.Context(), "83412", true); err == nil {
		t.Fatal("expected first call to fail")
	}

	_, err := client.FetchMatchDetail(t.Context(), "83412", true)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit rejection, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("open circuit must not reach the gateway, got %d calls", calls)
	}
}

func TestClient_NullDataYieldsInjectedID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","data":null}`))
	}, ClientConfig{})

	detail, err := client.FetchMatchDetail(t.Context(), "83412", false)
	if err != nil {
		t.Fatalf("fetch detail failed: %v", err)
	}
	if detail["iid"] != "83412" {
		t.Fatalf("expected injected id on empty payload: %v", detail)
	}
}
