// Package intent maps free-text requests onto bot commands.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

type Kind string

const (
	KindTrending    Kind = "trending"
	KindBet         Kind = "bet"
	KindLeaderboard Kind = "leaderboard"
	KindBets        Kind = "bets"
	KindUnknown     Kind = "unknown"
)

// Intent is the classifier result. Params["chain"] is set for trending.
type Intent struct {
	Kind   Kind              `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

func (i Intent) Param(key string) string {
	if i.Params == nil {
		return ""
	}
	return i.Params[key]
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// ErrDisabled is returned when no classifier is configured.
var ErrDisabled = errors.New("intent classifier not configured")

type Disabled struct{}

func (Disabled) Classify(context.Context, string) (Intent, error) {
	return Intent{}, ErrDisabled
}

type rawIntent struct {
	Kind   string            `json:"kind"`
	Chain  string            `json:"chain"`
	Params map[string]string `json:"params"`
}

// Parse extracts the first JSON object from a model reply. Anything that
// does not decode to a known kind is KindUnknown.
func Parse(reply string) Intent {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Intent{Kind: KindUnknown}
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return Intent{Kind: KindUnknown}
	}

	out := Intent{Kind: Kind(strings.ToLower(strings.TrimSpace(raw.Kind))), Params: map[string]string{}}
	for k, v := range raw.Params {
		out.Params[strings.ToLower(k)] = v
	}
	if raw.Chain != "" {
		out.Params["chain"] = raw.Chain
	}

	switch out.Kind {
	case KindTrending, KindBet, KindLeaderboard, KindBets:
		return out
	}
	return Intent{Kind: KindUnknown}
}
