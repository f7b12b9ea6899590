package media

import (
	"strings"
	"time"
)

const (
	KindVideo     = "video"
	KindAnimation = "animation"
	KindAnchor    = "anchor"
)

// Record is one media pointer attached to a match: a stream, an animated
// highlight, or a commentator feed. The whole set for a match is replaced on
// every reconciliation pass.
type Record struct {
	MatchID    string
	Source     string
	Kind       string
	InfoJSON   string
	CreateTime time.Time
}

func IsKnownKind(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindVideo, KindAnimation, KindAnchor:
		return true
	default:
		return false
	}
}
