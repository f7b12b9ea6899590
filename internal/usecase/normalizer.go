package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/media"
	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
)

// Alias tables map each canonical attribute to the ordered list of provider
// field names that may carry it. The first present key wins, even when its
// value is null; absence leaves the attribute nil.
var matchIDAliases = []string{"iid", "matchId", "match_id"}

var summaryAliases = map[string][]string{
	"tournamentName": {"tournamentName", "tn_name", "tnName"},
	"name":           {"name"},
	"kickoffTime":    {"kickoffTime", "kickoff", "kickoff_time"},
	"score":          {"score"},
	"period":         {"period"},
	"time":           {"time", "match_time"},
}

var detailAliases = map[string][]string{
	"score":        {"score"},
	"period":       {"period"},
	"time":         {"time"},
	"htScore":      {"htScore", "ht_score", "ht-score"},
	"cr":           {"cr", "corner", "corners"},
	"redCard":      {"redCard", "red_card", "red-card"},
	"yellowCard":   {"yellowCard", "yellow_card", "yellow-card"},
	"booking":      {"booking"},
	"stoppageTime": {"stoppageTime", "stoppage_time"},
	"clockStopped": {"clockStopped", "clock_stopped"},
	"serverTS":     {"ts", "serverTs", "server_ts"},
}

// NormalizedMatch is the canonical output of one normalization pass.
type NormalizedMatch struct {
	MatchID   string
	Summary   match.Summary
	Detail    snapshot.Snapshot
	HasDetail bool
	Media     []media.Record
}

// Normalize converts one raw provider payload into canonical records. The
// effective payload may sit under a generic "data" wrapper; the raw object
// itself is used otherwise. The function is pure: no clock, no store.
func Normalize(raw map[string]any) (NormalizedMatch, error) {
	payload := unwrapEnvelope(raw)
	if payload == nil {
		return NormalizedMatch{}, fmt.Errorf("%w: payload is empty", ErrIdentifierMissing)
	}

	matchID := resolveMatchID(payload)
	if matchID == "" {
		return NormalizedMatch{}, fmt.Errorf("%w: none of %v resolved", ErrIdentifierMissing, matchIDAliases)
	}

	out := NormalizedMatch{MatchID: matchID}
	out.Summary = normalizeSummary(matchID, payload)
	out.Detail, out.HasDetail = normalizeDetail(matchID, payload)
	out.Media = normalizeMedia(matchID, payload)
	return out, nil
}

func unwrapEnvelope(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		return inner
	}
	return raw
}

func resolveMatchID(payload map[string]any) string {
	for _, alias := range matchIDAliases {
		value, ok := payload[alias]
		if !ok || value == nil {
			continue
		}
		if id := scalarToString(value); id != nil && strings.TrimSpace(*id) != "" {
			return strings.TrimSpace(*id)
		}
	}
	return ""
}

func normalizeSummary(matchID string, payload map[string]any) match.Summary {
	out := match.Summary{
		MatchID:          matchID,
		SourceID:         resolveInt64(payload, "sid"),
		CompetitionID:    resolveInt64(payload, "cid"),
		TournamentID:     resolveInt64(payload, "tid"),
		TournamentName:   resolveAliased(payload, summaryAliases["tournamentName"]),
		Name:             resolveAliased(payload, summaryAliases["name"]),
		KickoffTime:      resolveAliased(payload, summaryAliases["kickoffTime"]),
		CountdownSeconds: resolveInt64(payload, "countdown"),
		IsLive:           resolveBool(payload, "inplay"),
		Score:            resolveAliased(payload, summaryAliases["score"]),
		Period:           resolveAliased(payload, summaryAliases["period"]),
		MatchTime:        resolveAliased(payload, summaryAliases["time"]),
		HomeName:         resolveParticipantName(payload, "home"),
		AwayName:         resolveParticipantName(payload, "away"),
	}

	if market, ok := payload["market"].(map[string]any); ok && len(market) > 0 {
		if encoded, err := sonic.Marshal(market); err == nil {
			text := string(encoded)
			out.MarketJSON = &text
		}
	}

	return out
}

func normalizeDetail(matchID string, payload map[string]any) (snapshot.Snapshot, bool) {
	detail, ok := payload["detail"].(map[string]any)
	if !ok {
		return snapshot.Snapshot{MatchID: matchID}, false
	}

	out := snapshot.Snapshot{
		MatchID:       matchID,
		Score:         resolveAliased(detail, detailAliases["score"]),
		Period:        resolveAliased(detail, detailAliases["period"]),
		ClockTime:     resolveAliased(detail, detailAliases["time"]),
		HalftimeScore: resolveAliased(detail, detailAliases["htScore"]),
		CornerCount:   resolveAliased(detail, detailAliases["cr"]),
		RedCards:      resolveAliased(detail, detailAliases["redCard"]),
		YellowCards:   resolveAliased(detail, detailAliases["yellowCard"]),
		Booking:       resolveAliased(detail, detailAliases["booking"]),
		StoppageTime:  resolveAliased(detail, detailAliases["stoppageTime"]),
	}

	for _, alias := range detailAliases["serverTS"] {
		if _, present := detail[alias]; present {
			out.ServerTS = resolveInt64(detail, alias)
			break
		}
	}
	if stopped := resolveAliased(detail, detailAliases["clockStopped"]); stopped != nil {
		out.ClockStopped = *stopped == "true" || *stopped == "1"
	}

	return out, true
}

func normalizeMedia(matchID string, payload map[string]any) []media.Record {
	out := make([]media.Record, 0, 4)

	if videos, ok := payload["videos"].([]any); ok {
		for _, item := range videos {
			video, ok := item.(map[string]any)
			if !ok {
				continue
			}
			info, err := sonic.Marshal(video)
			if err != nil {
				continue
			}
			out = append(out, media.Record{
				MatchID:  matchID,
				Source:   stringOr(resolveAliased(video, []string{"source"}), "unknown"),
				Kind:     media.KindVideo,
				InfoJSON: string(info),
			})
		}
	}

	if gifMid, ok := payload["gifMid"]; ok && gifMid != nil {
		info, err := sonic.Marshal(map[string]any{"gifMid": gifMid, "mid": payload["mid"]})
		if err == nil {
			out = append(out, media.Record{
				MatchID:  matchID,
				Source:   "system",
				Kind:     media.KindAnimation,
				InfoJSON: string(info),
			})
		}
	}

	if anchors, ok := payload["anchors"].([]any); ok {
		for _, item := range anchors {
			anchor, ok := item.(map[string]any)
			if !ok {
				continue
			}
			info, err := sonic.Marshal(anchor)
			if err != nil {
				continue
			}
			out = append(out, media.Record{
				MatchID:  matchID,
				Source:   stringOr(resolveAliased(anchor, []string{"source"}), "unknown"),
				Kind:     media.KindAnchor,
				InfoJSON: string(info),
			})
		}
	}

	return out
}

// resolveAliased walks the alias list and returns the first present value.
// A present null stays null: later aliases must not overwrite it.
func resolveAliased(payload map[string]any, aliases []string) *string {
	for _, alias := range aliases {
		value, ok := payload[alias]
		if !ok {
			continue
		}
		if value == nil {
			return nil
		}
		return scalarToString(value)
	}
	return nil
}

func resolveParticipantName(payload map[string]any, key string) *string {
	value, ok := payload[key]
	if !ok || value == nil {
		return nil
	}
	if nested, ok := value.(map[string]any); ok {
		return resolveAliased(nested, []string{"name"})
	}
	return scalarToString(value)
}

func resolveInt64(payload map[string]any, key string) *int64 {
	value, ok := payload[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case float64:
		out := int64(v)
		return &out
	case int64:
		return &v
	case int:
		out := int64(v)
		return &out
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func resolveBool(payload map[string]any, key string) bool {
	value, ok := payload[key]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
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

func scalarToString(value any) *string {
	var out string
	switch v := value.(type) {
	case string:
		out = v
	case float64:
		if v == math.Trunc(v) {
			out = strconv.FormatInt(int64(v), 10)
		} else {
			out = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case int64:
		out = strconv.FormatInt(v, 10)
	case int:
		out = strconv.Itoa(v)
	case bool:
		out = strconv.FormatBool(v)
	default:
		return nil
	}
	return &out
}

func stringOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}
