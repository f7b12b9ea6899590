package sportapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/platform/resilience"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

const (
	pathTournamentInfo = "/product/business/sport/tournament/info"
	pathInplayMatch    = "/product/business/sport/inplay/match"
	pathPrematchMatch  = "/product/business/sport/prematch/match"

	defaultSourceID   = 1
	defaultLanguage   = "zh-cn"
	defaultDateWindow = "24h"
)

var errSportAPITransient = crerr.New("sport api transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	MainSite       string
	SourceID       int
	Language       string
	DateWindow     string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client speaks the upstream sport data gateway. Every response travels in a
// {code, msg, data} envelope; a non-zero code is a permanent refusal and is
// never retried.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	mainSite       string
	sourceID       int
	language       string
	dateWindow     string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	mainSite := strings.TrimRight(strings.TrimSpace(cfg.MainSite), "/")
	if mainSite == "" {
		mainSite = baseURL
	}
	sourceID := cfg.SourceID
	if sourceID <= 0 {
		sourceID = defaultSourceID
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}
	dateWindow := strings.TrimSpace(cfg.DateWindow)
	if dateWindow == "" {
		dateWindow = defaultDateWindow
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		mainSite:       mainSite,
		sourceID:       sourceID,
		language:       language,
		dateWindow:     dateWindow,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreakerFromConfig(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchMatchList pulls the tournament listing and flattens it into one match
// slice. The gateway nests matches under tournaments; the tournament name is
// copied onto each raw match so downstream normalization can keep it.
func (c *Client) FetchMatchList(ctx context.Context, live bool) ([]usecase.ListedMatch, error) {
	query := map[string]string{
		"sid":      fmt.Sprintf("%d", c.sourceID),
		"language": c.language,
		"inplay":   boolParam(live),
	}
	if !live {
		query["date"] = c.dateWindow
	}

	var data struct {
		Tournaments []struct {
			Name    string           `json:"name"`
			Matches []map[string]any `json:"matches"`
		} `json:"tournaments"`
	}
	if err := c.doJSON(ctx, pathTournamentInfo, query, &data); err != nil {
		return nil, fmt.Errorf("fetch tournament info: %w", err)
	}

	out := make([]usecase.ListedMatch, 0, 32)
	for _, tournament := range data.Tournaments {
		name := strings.TrimSpace(tournament.Name)
		for _, raw := range tournament.Matches {
			if raw == nil {
				continue
			}
			if name != "" {
				if _, exists := raw["tournamentName"]; !exists {
					raw["tournamentName"] = name
				}
			}
			item := usecase.ListedMatch{
				MatchID:        rawString(raw, "iid"),
				Name:           rawString(raw, "name"),
				TournamentName: name,
				Inplay:         live || rawBool(raw, "inplay"),
				Raw:            raw,
			}
			if item.MatchID == "" {
				continue
			}
			out = append(out, item)
		}
	}

	return out, nil
}

// FetchMatchDetail pulls one match payload. The inplay and prematch endpoints
// share a parameter surface but differ in path.
func (c *Client) FetchMatchDetail(ctx context.Context, matchID string, inplay bool) (map[string]any, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("match id must not be empty")
	}

	path := pathPrematchMatch
	if inplay {
		path = pathInplayMatch
	}
	query := map[string]string{
		"sid":      fmt.Sprintf("%d", c.sourceID),
		"iid":      matchID,
		"language": c.language,
	}

	var data map[string]any
	if err := c.doJSON(ctx, path, query, &data); err != nil {
		return nil, fmt.Errorf("fetch match detail iid=%s: %w", matchID, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["iid"]; !exists {
		data["iid"] = matchID
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sport api circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: sport data gateway is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSportAPITransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	var envelope struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode gateway envelope: %w", err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("gateway refused request code=%d msg=%q", envelope.Code, envelope.Msg)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("decode gateway payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		c.setDisguiseHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSportAPITransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSportAPITransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: gateway status=%d body=%s", errSportAPITransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("gateway status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("gateway request failed")
	}
	c.logger.WarnContext(ctx, "sport api request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// setDisguiseHeaders mirrors the header set the gateway expects from its own
// mobile web client. Missing or inconsistent headers trip its bot filter.
func (c *Client) setDisguiseHeaders(req *http.Request) {
	req.Header.Set("accept", "application/json, text/plain, */*")
	req.Header.Set("apptype", "2")
	req.Header.Set("browser", "Safari 16.6")
	req.Header.Set("currency", "CNY")
	req.Header.Set("device", "mobile")
	req.Header.Set("devicemode", "iPhone")
	req.Header.Set("os", "iOS")
	req.Header.Set("screen", "430x932")
	req.Header.Set("time-zone", "GMT+08:00")
	if c.mainSite != "" {
		req.Header.Set("origin", c.mainSite)
		req.Header.Set("referer", c.mainSite+"/")
	}
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return true
	}
	return status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

func rawString(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", v))
	default:
		return ""
	}
}

func rawBool(payload map[string]any, key string) bool {
	switch v := payload[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

func boolParam(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
